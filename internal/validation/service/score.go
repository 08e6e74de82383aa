package service

import (
	"cartaporte/internal/platform/config"
	"cartaporte/internal/validation/models"
)

// ScoreCalculator turns a weighted finding count into a 0-100 compliance
// score. The weights are configuration, not domain semantics; callers
// typically gate submission on a threshold like score >= 80.
type ScoreCalculator struct {
	baseline        int
	criticalPenalty int
	errorPenalty    int
	warningPenalty  int
}

// NewScoreCalculator builds a calculator from the scoring configuration.
func NewScoreCalculator(cfg config.Scoring) *ScoreCalculator {
	return &ScoreCalculator{
		baseline:        cfg.Baseline,
		criticalPenalty: cfg.CriticalPenalty,
		errorPenalty:    cfg.ErrorPenalty,
		warningPenalty:  cfg.WarningPenalty,
	}
}

// Compute subtracts the per-severity penalty for every finding from the
// baseline, flooring at 0. Warnings carry a zero penalty in the default
// configuration and must never by themselves push a document below a
// submission threshold.
func (c *ScoreCalculator) Compute(findings []models.ValidationError) int {
	score := c.baseline
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityCritical:
			score -= c.criticalPenalty
		case models.SeverityError:
			score -= c.errorPenalty
		case models.SeverityWarning:
			score -= c.warningPenalty
		}
	}
	if score < 0 {
		return 0
	}
	return score
}
