// Package handler exposes the compliance validation endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cartaporte/internal/audit"
	"cartaporte/internal/platform/middleware"
	"cartaporte/internal/validation/models"
	"cartaporte/internal/waybill"
	"cartaporte/pkg/platform/httputil"
)

// Service is the rule engine contract consumed by this handler.
type Service interface {
	Validate(ctx context.Context, accountID string, doc waybill.Document) (*models.Result, error)
}

// Handler handles waybill validation requests.
type Handler struct {
	validator Service
	auditor   *audit.Publisher
	logger    *slog.Logger
}

// New creates a validation Handler.
func New(validator Service, auditor *audit.Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		validator: validator,
		auditor:   auditor,
		logger:    logger,
	}
}

// Register registers the validation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/waybill/validate", h.handleValidate)
}

// handleValidate runs the full rule battery over the submitted document.
// A valid document answers 200, an invalid one 400 with the same body shape,
// and an infrastructure failure 500 with a single INTERNAL finding. Every
// invocation lands in the audit trail, including aborted ones.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	requestID := middleware.GetRequestID(ctx)
	actor := middleware.Actor(ctx)
	accountID := middleware.AccountID(ctx)

	req, ok := httputil.DecodeAndPrepare[ValidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc := req.ToDocument()
	result, err := h.validator.Validate(ctx, accountID, doc)
	if err != nil {
		h.logger.ErrorContext(ctx, "validation failed",
			"request_id", requestID,
			"issuer_rfc", doc.Issuer.RFC.String(),
			"error", err,
		)
		h.emitAudit(ctx, audit.Event{
			RequestID:  requestID,
			Actor:      actor,
			AccountID:  accountID,
			Action:     audit.ActionValidationEvaluated,
			IssuerRFC:  doc.Issuer.RFC.String(),
			Outcome:    audit.OutcomeInternal,
			DurationMS: time.Since(start).Milliseconds(),
		})
		writeInternalResult(w)
		return
	}

	outcome := audit.OutcomeInvalid
	status := http.StatusBadRequest
	if result.Valid {
		outcome = audit.OutcomeValid
		status = http.StatusOK
	}
	h.emitAudit(ctx, audit.Event{
		RequestID:    requestID,
		Actor:        actor,
		AccountID:    accountID,
		Action:       audit.ActionValidationEvaluated,
		IssuerRFC:    doc.Issuer.RFC.String(),
		Outcome:      outcome,
		ErrorCount:   len(result.Errors),
		WarningCount: len(result.Warnings),
		Score:        result.Score,
		DurationMS:   time.Since(start).Milliseconds(),
	})

	httputil.WriteJSON(w, status, result)
}

func (h *Handler) emitAudit(ctx context.Context, event audit.Event) {
	if err := h.auditor.Emit(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "failed to record audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

// internalResult is the fixed 500 body: the caller learns the run aborted
// without any infrastructure detail leaking through.
type internalResult struct {
	Valid  bool                     `json:"valid"`
	Error  string                   `json:"error"`
	Errors []models.ValidationError `json:"errors"`
}

func writeInternalResult(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusInternalServerError, internalResult{
		Valid: false,
		Error: "internal error",
		Errors: []models.ValidationError{
			models.NewError(models.CodeInternal, ""),
		},
	})
}
