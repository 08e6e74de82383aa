package handler

import (
	"strings"
	"time"

	"cartaporte/internal/artifact/models"
	dErrors "cartaporte/pkg/domain-errors"
)

// RegisterRequest registers a new artifact for a document. Content is
// base64 in transit. Version is optional; when omitted the manager computes
// the next one.
type RegisterRequest struct {
	Type     string            `json:"type"`
	Content  []byte            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Version  string            `json:"version"`

	version *models.Version
}

// Normalize canonicalizes the type name.
func (r *RegisterRequest) Normalize() {
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	r.Version = strings.TrimSpace(r.Version)
}

// Validate checks the type and parses the optional explicit version.
func (r *RegisterRequest) Validate() error {
	if !models.Type(r.Type).Valid() {
		return dErrors.New(dErrors.CodeValidation, "type must be one of xml, xml_signed, xml_stamped, pdf")
	}
	if len(r.Content) == 0 {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	if r.Version != "" {
		parsed, err := models.ParseVersion(r.Version)
		if err != nil {
			return err
		}
		r.version = &parsed
	}
	return nil
}

// ArtifactResponse is the outbound artifact shape. Content is included only
// on single-artifact reads; listings stay lean.
type ArtifactResponse struct {
	ID          string            `json:"id"`
	DocumentID  string            `json:"documentId"`
	Type        string            `json:"type"`
	Version     string            `json:"version"`
	Content     []byte            `json:"content,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Active      bool              `json:"active"`
}

// ListResponse wraps a version listing.
type ListResponse struct {
	Artifacts []*ArtifactResponse `json:"artifacts"`
}

func toResponse(a *models.Artifact, includeContent bool) *ArtifactResponse {
	resp := &ArtifactResponse{
		ID:          a.ID,
		DocumentID:  a.DocumentID,
		Type:        string(a.Type),
		Version:     a.Version.String(),
		Metadata:    a.Metadata,
		GeneratedAt: a.GeneratedAt,
		Active:      a.Active,
	}
	if includeContent {
		resp.Content = a.Content
	}
	return resp
}
