package audit

import "time"

// Event captures one auditable engine invocation. Keep it transport-agnostic
// so stores and sinks can fan out.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id,omitempty"`
	Actor        string    `json:"actor"`
	AccountID    string    `json:"account_id,omitempty"`
	Action       string    `json:"action"`
	IssuerRFC    string    `json:"issuer_rfc,omitempty"`
	DocumentID   string    `json:"document_id,omitempty"`
	Outcome      string    `json:"outcome"`
	ErrorCount   int       `json:"error_count"`
	WarningCount int       `json:"warning_count"`
	Score        int       `json:"score"`
	DurationMS   int64     `json:"duration_ms"`
}

const (
	ActionValidationEvaluated = "validation_evaluated"
	ActionArtifactRegistered  = "artifact_registered"
	ActionArtifactArchived    = "artifact_archived"
)

const (
	OutcomeValid    = "valid"
	OutcomeInvalid  = "invalid"
	OutcomeInternal = "internal_error"
	OutcomeOK       = "ok"
)
