// Package handler exposes the artifact version manager over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cartaporte/internal/artifact/models"
	"cartaporte/internal/audit"
	"cartaporte/internal/platform/middleware"
	dErrors "cartaporte/pkg/domain-errors"
	"cartaporte/pkg/platform/httputil"
)

// Service is the version manager contract consumed by this handler.
type Service interface {
	Register(ctx context.Context, documentID string, t models.Type, content []byte, metadata map[string]string, explicit *models.Version) (*models.Artifact, error)
	ListVersions(ctx context.Context, documentID string, t models.Type) ([]*models.Artifact, error)
	ListHistory(ctx context.Context, documentID string, t models.Type) ([]*models.Artifact, error)
	GetLatest(ctx context.Context, documentID string, t models.Type) (*models.Artifact, error)
	Find(ctx context.Context, documentID string, t models.Type, version *models.Version) (*models.Artifact, error)
	Archive(ctx context.Context, documentID string, t models.Type, version models.Version) error
}

// Handler handles artifact endpoints.
type Handler struct {
	artifacts Service
	auditor   *audit.Publisher
	logger    *slog.Logger
}

// New creates an artifact Handler.
func New(artifacts Service, auditor *audit.Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		artifacts: artifacts,
		auditor:   auditor,
		logger:    logger,
	}
}

// Register registers the artifact routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/documents/{documentID}/artifacts", func(r chi.Router) {
		r.Post("/", h.handleRegister)
		r.Get("/{type}", h.handleList)
		r.Get("/{type}/latest", h.handleLatest)
		r.Get("/{type}/{version}", h.handleFind)
		r.Post("/{type}/{version}/archive", h.handleArchive)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	requestID := middleware.GetRequestID(ctx)
	documentID := chi.URLParam(r, "documentID")

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	artifact, err := h.artifacts.Register(ctx, documentID, models.Type(req.Type), req.Content, req.Metadata, req.version)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to register artifact",
			"request_id", requestID,
			"document_id", documentID,
			"type", req.Type,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.emitAudit(ctx, audit.Event{
		RequestID:  requestID,
		Actor:      middleware.Actor(ctx),
		AccountID:  middleware.AccountID(ctx),
		Action:     audit.ActionArtifactRegistered,
		DocumentID: documentID,
		Outcome:    audit.OutcomeOK,
		DurationMS: time.Since(start).Milliseconds(),
	})
	httputil.WriteJSON(w, http.StatusCreated, toResponse(artifact, true))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID := chi.URLParam(r, "documentID")
	artifactType, ok := h.artifactType(w, r)
	if !ok {
		return
	}

	list := h.artifacts.ListVersions
	if r.URL.Query().Get("history") == "true" {
		list = h.artifacts.ListHistory
	}
	artifacts, err := list(ctx, documentID, artifactType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	responses := make([]*ArtifactResponse, 0, len(artifacts))
	for _, a := range artifacts {
		responses = append(responses, toResponse(a, false))
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Artifacts: responses})
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID := chi.URLParam(r, "documentID")
	artifactType, ok := h.artifactType(w, r)
	if !ok {
		return
	}

	artifact, err := h.artifacts.GetLatest(ctx, documentID, artifactType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(artifact, true))
}

func (h *Handler) handleFind(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID := chi.URLParam(r, "documentID")
	artifactType, ok := h.artifactType(w, r)
	if !ok {
		return
	}
	version, err := models.ParseVersion(chi.URLParam(r, "version"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	artifact, err := h.artifacts.Find(ctx, documentID, artifactType, &version)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(artifact, true))
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	requestID := middleware.GetRequestID(ctx)
	documentID := chi.URLParam(r, "documentID")
	artifactType, ok := h.artifactType(w, r)
	if !ok {
		return
	}
	version, err := models.ParseVersion(chi.URLParam(r, "version"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.artifacts.Archive(ctx, documentID, artifactType, version); err != nil {
		h.logger.ErrorContext(ctx, "failed to archive artifact",
			"request_id", requestID,
			"document_id", documentID,
			"type", string(artifactType),
			"version", version.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.emitAudit(ctx, audit.Event{
		RequestID:  requestID,
		Actor:      middleware.Actor(ctx),
		AccountID:  middleware.AccountID(ctx),
		Action:     audit.ActionArtifactArchived,
		DocumentID: documentID,
		Outcome:    audit.OutcomeOK,
		DurationMS: time.Since(start).Milliseconds(),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) artifactType(w http.ResponseWriter, r *http.Request) (models.Type, bool) {
	t := models.Type(chi.URLParam(r, "type"))
	if !t.Valid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown artifact type"))
		return "", false
	}
	return t, true
}

func (h *Handler) emitAudit(ctx context.Context, event audit.Event) {
	if err := h.auditor.Emit(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "failed to record audit event",
			"action", event.Action,
			"error", err,
		)
	}
}
