// Package models defines the validation result vocabulary shared by the rule
// engine, the HTTP handler, and the audit trail.
package models

import "time"

// Severity grades a finding. Warnings are advisory and never block
// submission; errors block and are fixable by editing the document; criticals
// block and point at identity or registry problems the document alone cannot
// fix.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Blocking reports whether a finding of this severity makes the document
// unsubmittable.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// ValidationError is one immutable finding produced by a validator. Field is
// a dotted path into the submitted document.
type ValidationError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
}

// Result is the complete outcome of one validation run. Valid is true iff
// Errors is empty; warnings never block. A Result is never mutated after
// construction.
type Result struct {
	Valid     bool              `json:"valid"`
	Errors    []ValidationError `json:"errors"`
	Warnings  []ValidationError `json:"warnings"`
	Score     int               `json:"score"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewResult assembles a Result from accumulated findings, splitting blocking
// findings from advisories.
func NewResult(findings []ValidationError, score int, at time.Time) *Result {
	errs := make([]ValidationError, 0, len(findings))
	warns := make([]ValidationError, 0)
	for _, f := range findings {
		if f.Severity.Blocking() {
			errs = append(errs, f)
		} else {
			warns = append(warns, f)
		}
	}
	return &Result{
		Valid:     len(errs) == 0,
		Errors:    errs,
		Warnings:  warns,
		Score:     score,
		Timestamp: at,
	}
}
