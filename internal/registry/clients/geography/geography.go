// Package geography queries the postal-code geography registry. Mock
// implementations use deterministic data and a configurable latency to mimic
// real-world calls.
package geography

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cartaporte/internal/registry/models"
	dErrors "cartaporte/pkg/domain-errors"
)

// Client resolves a postal code to its authoritative state and municipality.
type Client interface {
	Lookup(ctx context.Context, postalCode string) (*models.GeographyRecord, error)
}

// HTTPClient talks to the hosted geography registry over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a geography client against the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Lookup fetches the geography record for a postal code. A 404 maps to a
// typed not-found outcome; any other failure is a registry availability
// problem, never an implicit pass.
func (c *HTTPClient) Lookup(ctx context.Context, postalCode string) (*models.GeographyRecord, error) {
	url := fmt.Sprintf("%s/geography/%s", c.baseURL, postalCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build geography request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "geography lookup timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "geography registry unreachable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var record models.GeographyRecord
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "decode geography response")
		}
		record.CheckedAt = time.Now()
		return &record, nil
	case http.StatusNotFound:
		return nil, dErrors.New(dErrors.CodeNotFound, "postal code not registered")
	default:
		return nil, dErrors.New(dErrors.CodeRegistryUnavailable,
			fmt.Sprintf("geography registry returned status %d", resp.StatusCode))
	}
}

// MockClient serves a fixed geography table. Used in tests and local
// development when no registry URL is configured.
type MockClient struct {
	Latency time.Duration
	Records map[string]models.GeographyRecord
}

// NewMockClient seeds a mock with a handful of well-known postal codes.
func NewMockClient(latency time.Duration) *MockClient {
	return &MockClient{
		Latency: latency,
		Records: map[string]models.GeographyRecord{
			"44100": {PostalCode: "44100", State: "Jalisco", Municipality: "Guadalajara"},
			"06600": {PostalCode: "06600", State: "Ciudad de México", Municipality: "Cuauhtémoc"},
			"64000": {PostalCode: "64000", State: "Nuevo León", Municipality: "Monterrey"},
			"97100": {PostalCode: "97100", State: "Yucatán", Municipality: "Mérida"},
		},
	}
}

func (c *MockClient) Lookup(ctx context.Context, postalCode string) (*models.GeographyRecord, error) {
	select {
	case <-time.After(c.Latency):
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "geography lookup timed out")
	}
	record, ok := c.Records[postalCode]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "postal code not registered")
	}
	record.CheckedAt = time.Now()
	return &record, nil
}
