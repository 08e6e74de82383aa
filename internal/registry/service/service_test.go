package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cartaporte/internal/registry/clients/certificate"
	"cartaporte/internal/registry/clients/geography"
	"cartaporte/internal/registry/clients/taxpayer"
	"cartaporte/internal/registry/models"
	"cartaporte/internal/registry/store"
	"cartaporte/internal/waybill"
	dErrors "cartaporte/pkg/domain-errors"
)

// countingGeography wraps a client and counts live calls so tests can tell
// cache hits from fetches.
type countingGeography struct {
	inner geography.Client
	calls int
}

func (c *countingGeography) Lookup(ctx context.Context, postalCode string) (*models.GeographyRecord, error) {
	c.calls++
	return c.inner.Lookup(ctx, postalCode)
}

type countingTaxpayer struct {
	inner taxpayer.Client
	calls int
}

func (c *countingTaxpayer) Lookup(ctx context.Context, env waybill.FiscalEnvironment, rfc string) (*models.TaxpayerRecord, error) {
	c.calls++
	return c.inner.Lookup(ctx, env, rfc)
}

type countingCertificate struct {
	inner certificate.Client
	calls int
}

func (c *countingCertificate) Active(ctx context.Context, accountID string) (*models.CertificateRecord, error) {
	c.calls++
	return c.inner.Active(ctx, accountID)
}

// failingStore simulates a cache backend outage.
type failingStore struct{}

func (failingStore) Get(context.Context, store.Key) ([]byte, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Set(context.Context, store.Key, []byte) error  { return errors.New("connection refused") }
func (failingStore) Invalidate(context.Context, store.Key) error   { return errors.New("connection refused") }

type ServiceSuite struct {
	suite.Suite
	cache *store.InMemoryStore
	geo   *countingGeography
	tax   *countingTaxpayer
	cert  *countingCertificate
	svc   *Service
}

func (s *ServiceSuite) SetupTest() {
	s.cache = store.NewInMemoryStore(5 * time.Minute)
	s.geo = &countingGeography{inner: geography.NewMockClient(0)}
	s.tax = &countingTaxpayer{inner: taxpayer.NewMockClient(0)}
	s.cert = &countingCertificate{inner: certificate.NewMockClient(0)}
	s.svc = New(s.cache, s.geo, s.tax, s.cert, time.Second,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestGeographyCachesSuccessfulLookups() {
	record, err := s.svc.Geography(context.Background(), "44100")
	s.Require().NoError(err)
	s.Equal("Jalisco", record.State)
	s.Equal(1, s.geo.calls)

	// Second read serves from cache.
	again, err := s.svc.Geography(context.Background(), "44100")
	s.Require().NoError(err)
	s.Equal(record.Municipality, again.Municipality)
	s.Equal(1, s.geo.calls)
}

func (s *ServiceSuite) TestMissesAreNeverCached() {
	_, err := s.svc.Geography(context.Background(), "00000")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal(1, s.geo.calls)

	// A registry correction must be visible immediately, so the miss is
	// re-fetched rather than remembered.
	_, err = s.svc.Geography(context.Background(), "00000")
	s.Require().Error(err)
	s.Equal(2, s.geo.calls)
}

func (s *ServiceSuite) TestTaxpayerEnvironmentsAreIsolated() {
	// LOGI840315QX2 is seeded in sandbox only.
	record, err := s.svc.Taxpayer(context.Background(), waybill.EnvironmentSandbox, "LOGI840315QX2")
	s.Require().NoError(err)
	s.Equal("LOGISTICA INTEGRAL DEL BAJIO SA", record.LegalName)

	_, err = s.svc.Taxpayer(context.Background(), waybill.EnvironmentProduction, "LOGI840315QX2")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestCertificatesAreNeverCached() {
	for i := 0; i < 3; i++ {
		record, err := s.svc.ActiveCertificate(context.Background(), "acct-demo")
		s.Require().NoError(err)
		s.Equal("TLO010203AB9", record.RFC)
	}
	s.Equal(3, s.cert.calls)
}

func (s *ServiceSuite) TestCacheOutageSurfacesAsRegistryUnavailable() {
	svc := New(failingStore{}, s.geo, s.tax, s.cert, time.Second,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	_, err := svc.Geography(context.Background(), "44100")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRegistryUnavailable))
	s.Equal(0, s.geo.calls)
}

func (s *ServiceSuite) TestInvalidateForcesRefetch() {
	_, err := s.svc.Taxpayer(context.Background(), waybill.EnvironmentSandbox, "TLO010203AB9")
	s.Require().NoError(err)
	s.Equal(1, s.tax.calls)

	s.Require().NoError(s.svc.InvalidateTaxpayer(context.Background(), waybill.EnvironmentSandbox, "TLO010203AB9"))

	_, err = s.svc.Taxpayer(context.Background(), waybill.EnvironmentSandbox, "TLO010203AB9")
	s.Require().NoError(err)
	s.Equal(2, s.tax.calls)
}
