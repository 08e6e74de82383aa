package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartaporte/internal/audit"
	"cartaporte/internal/platform/middleware"
	"cartaporte/internal/validation/models"
	"cartaporte/internal/waybill"
	dErrors "cartaporte/pkg/domain-errors"
)

// stubValidator returns a canned result or error.
type stubValidator struct {
	result *models.Result
	err    error

	gotAccountID string
	gotDoc       waybill.Document
}

func (s *stubValidator) Validate(_ context.Context, accountID string, doc waybill.Document) (*models.Result, error) {
	s.gotAccountID = accountID
	s.gotDoc = doc
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestRouter(validator Service, store *audit.InMemoryStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := audit.NewPublisher(store, audit.WithPublisherLogger(logger))
	h := New(validator, auditor, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithActor(req.Context(), "user-7", "acct-7")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.Register(r)
	return r
}

func validRequestBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"issuer": map[string]any{
			"rfc":               "tlo010203ab9",
			"legalName":         "TRANSPORTES LOPEZ SA DE CV",
			"fiscalRegime":      "601",
			"fiscalEnvironment": "Sandbox",
		},
		"recipient": map[string]any{
			"rfc":       "LOGI840315QX2",
			"legalName": "LOGISTICA INTEGRAL DEL BAJIO SA",
		},
		"locations": []map[string]any{
			{"type": "Origin", "rfc": "TLO010203AB9", "legalName": "X", "timestamp": "2025-06-01T08:00:00Z"},
			{"type": "destination", "rfc": "LOGI840315QX2", "legalName": "Y", "timestamp": "2025-06-01T11:00:00Z", "distanceKm": 540},
		},
		"goods":           []map[string]any{{"classificationCode": "24131510", "quantity": 50, "unitCode": "TNE", "weightKg": 1250}},
		"vehicle":         map[string]any{"plate": "ABC1234", "permitType": "TPAF01", "permitNumber": "123456"},
		"transportAgents": []map[string]any{{"role": "OPERATOR", "rfc": "GODE840315QX2", "licenseNumber": "LIC-1"}},
	})
	require.NoError(t, err)
	return body
}

func postValidate(t *testing.T, router http.Handler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/waybill/validate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleValidate_ValidDocument(t *testing.T) {
	validator := &stubValidator{result: &models.Result{
		Valid:     true,
		Errors:    []models.ValidationError{},
		Warnings:  []models.ValidationError{},
		Score:     100,
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}}
	store := audit.NewInMemoryStore()
	router := newTestRouter(validator, store)

	rec := postValidate(t, router, validRequestBody(t))

	assert.Equal(t, http.StatusOK, rec.Code)

	var result models.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Valid)
	assert.Equal(t, 100, result.Score)

	// Request normalization happened before the engine saw the document.
	assert.Equal(t, "acct-7", validator.gotAccountID)
	assert.Equal(t, waybill.RFC("TLO010203AB9"), validator.gotDoc.Issuer.RFC)
	assert.Equal(t, waybill.EnvironmentSandbox, validator.gotDoc.Issuer.Environment)
	assert.Equal(t, waybill.LocationOrigin, validator.gotDoc.Locations[0].Type)

	events, err := store.ListByActor(context.Background(), "user-7")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionValidationEvaluated, events[0].Action)
	assert.Equal(t, audit.OutcomeValid, events[0].Outcome)
	assert.Equal(t, "TLO010203AB9", events[0].IssuerRFC)
	assert.Equal(t, 100, events[0].Score)
}

func TestHandleValidate_InvalidDocumentKeepsBodyShape(t *testing.T) {
	validator := &stubValidator{result: &models.Result{
		Valid: false,
		Errors: []models.ValidationError{
			models.NewError(models.CodeMissingDestination, "locations"),
		},
		Warnings:  []models.ValidationError{},
		Score:     99,
		Timestamp: time.Now(),
	}}
	store := audit.NewInMemoryStore()
	router := newTestRouter(validator, store)

	rec := postValidate(t, router, validRequestBody(t))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var result models.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, models.CodeMissingDestination, result.Errors[0].Code)

	events, err := store.ListByActor(context.Background(), "user-7")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.OutcomeInvalid, events[0].Outcome)
	assert.Equal(t, 1, events[0].ErrorCount)
}

func TestHandleValidate_InfrastructureFailure(t *testing.T) {
	validator := &stubValidator{err: dErrors.New(dErrors.CodeRegistryUnavailable, "registry unreachable")}
	store := audit.NewInMemoryStore()
	router := newTestRouter(validator, store)

	rec := postValidate(t, router, validRequestBody(t))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body struct {
		Valid  bool                     `json:"valid"`
		Error  string                   `json:"error"`
		Errors []models.ValidationError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Valid)
	assert.NotEmpty(t, body.Error)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, models.CodeInternal, body.Errors[0].Code)
	assert.Equal(t, models.SeverityCritical, body.Errors[0].Severity)
	// No infrastructure detail leaks through.
	assert.NotContains(t, rec.Body.String(), "unreachable")

	events, err := store.ListByActor(context.Background(), "user-7")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.OutcomeInternal, events[0].Outcome)
}

func TestHandleValidate_RejectsUnevaluableRequests(t *testing.T) {
	validator := &stubValidator{}
	store := audit.NewInMemoryStore()
	router := newTestRouter(validator, store)

	t.Run("malformed json", func(t *testing.T) {
		rec := postValidate(t, router, []byte("{"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown fiscal environment", func(t *testing.T) {
		body := bytes.Replace(validRequestBody(t), []byte(`"Sandbox"`), []byte(`"staging"`), 1)
		rec := postValidate(t, router, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "fiscalEnvironment")
	})

	t.Run("unknown location type", func(t *testing.T) {
		body := bytes.Replace(validRequestBody(t), []byte(`"destination"`), []byte(`"terminus"`), 1)
		rec := postValidate(t, router, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
