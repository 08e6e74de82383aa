// Package certificate queries the active-signing-certificate registry for an
// account.
package certificate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cartaporte/internal/registry/models"
	dErrors "cartaporte/pkg/domain-errors"
)

// Client resolves an account to its currently active signing certificate.
type Client interface {
	Active(ctx context.Context, accountID string) (*models.CertificateRecord, error)
}

// HTTPClient talks to the certificate service over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a certificate client against the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Active(ctx context.Context, accountID string) (*models.CertificateRecord, error) {
	url := fmt.Sprintf("%s/accounts/%s/certificate", c.baseURL, accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build certificate request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "certificate lookup timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "certificate service unreachable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var record models.CertificateRecord
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "decode certificate response")
		}
		return &record, nil
	case http.StatusNotFound:
		return nil, dErrors.New(dErrors.CodeNotFound, "no active certificate")
	default:
		return nil, dErrors.New(dErrors.CodeRegistryUnavailable,
			fmt.Sprintf("certificate service returned status %d", resp.StatusCode))
	}
}

// MockClient serves a fixed certificate table keyed by account.
type MockClient struct {
	Latency time.Duration
	Records map[string]models.CertificateRecord
}

// NewMockClient seeds a mock with one long-lived sample certificate.
func NewMockClient(latency time.Duration) *MockClient {
	return &MockClient{
		Latency: latency,
		Records: map[string]models.CertificateRecord{
			"acct-demo": {
				AccountID:    "acct-demo",
				RFC:          "TLO010203AB9",
				SerialNumber: "30001000000400002495",
				ValidFrom:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				ValidUntil:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	}
}

func (c *MockClient) Active(ctx context.Context, accountID string) (*models.CertificateRecord, error) {
	select {
	case <-time.After(c.Latency):
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "certificate lookup timed out")
	}
	record, ok := c.Records[accountID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "no active certificate")
	}
	return &record, nil
}
