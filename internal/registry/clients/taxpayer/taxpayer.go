// Package taxpayer queries the RFC identity registry. Lookups are addressed
// per fiscal environment; a record fetched under sandbox never satisfies a
// production check.
package taxpayer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cartaporte/internal/registry/models"
	"cartaporte/internal/waybill"
	dErrors "cartaporte/pkg/domain-errors"
)

// Client resolves an RFC to its registered legal name in one environment.
type Client interface {
	Lookup(ctx context.Context, env waybill.FiscalEnvironment, rfc string) (*models.TaxpayerRecord, error)
}

// HTTPClient talks to the hosted RFC registry over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a taxpayer registry client against the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Lookup(ctx context.Context, env waybill.FiscalEnvironment, rfc string) (*models.TaxpayerRecord, error) {
	url := fmt.Sprintf("%s/%s/taxpayers/%s", c.baseURL, env, rfc)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build taxpayer request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "taxpayer lookup timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "taxpayer registry unreachable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var record models.TaxpayerRecord
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "decode taxpayer response")
		}
		record.Environment = string(env)
		record.CheckedAt = time.Now()
		return &record, nil
	case http.StatusNotFound:
		return nil, dErrors.New(dErrors.CodeNotFound, "rfc not registered")
	default:
		return nil, dErrors.New(dErrors.CodeRegistryUnavailable,
			fmt.Sprintf("taxpayer registry returned status %d", resp.StatusCode))
	}
}

// MockClient serves deterministic taxpayer records keyed by environment and
// RFC, mimicking the separate sandbox and production registries.
type MockClient struct {
	Latency time.Duration
	Records map[string]models.TaxpayerRecord
}

// NewMockClient seeds a mock with sample taxpayers in both environments.
func NewMockClient(latency time.Duration) *MockClient {
	return &MockClient{
		Latency: latency,
		Records: map[string]models.TaxpayerRecord{
			mockKey(waybill.EnvironmentSandbox, "TLO010203AB9"):    {RFC: "TLO010203AB9", LegalName: "TRANSPORTES LOPEZ SA DE CV"},
			mockKey(waybill.EnvironmentProduction, "TLO010203AB9"): {RFC: "TLO010203AB9", LegalName: "TRANSPORTES LOPEZ SA DE CV"},
			mockKey(waybill.EnvironmentSandbox, "LOGI840315QX2"):   {RFC: "LOGI840315QX2", LegalName: "LOGISTICA INTEGRAL DEL BAJIO SA"},
		},
	}
}

func mockKey(env waybill.FiscalEnvironment, rfc string) string {
	return string(env) + ":" + rfc
}

func (c *MockClient) Lookup(ctx context.Context, env waybill.FiscalEnvironment, rfc string) (*models.TaxpayerRecord, error) {
	select {
	case <-time.After(c.Latency):
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "taxpayer lookup timed out")
	}
	record, ok := c.Records[mockKey(env, rfc)]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "rfc not registered")
	}
	record.Environment = string(env)
	record.CheckedAt = time.Now()
	return &record, nil
}
