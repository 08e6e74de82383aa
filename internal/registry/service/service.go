// Package service coordinates external registry lookups with caching.
//
// Reads go through the TTL cache first; expired entries behave as misses and
// force a fresh fetch, so validation never runs against outdated government
// data. Live calls carry a bounded timeout and concurrent identical lookups
// are collapsed into a single in-flight call.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"cartaporte/internal/registry/clients/certificate"
	"cartaporte/internal/registry/clients/geography"
	"cartaporte/internal/registry/clients/taxpayer"
	"cartaporte/internal/registry/metrics"
	"cartaporte/internal/registry/models"
	"cartaporte/internal/registry/store"
	"cartaporte/internal/registry/tracer"
	"cartaporte/internal/waybill"
	dErrors "cartaporte/pkg/domain-errors"
)

// Service performs cached registry lookups for the validators.
type Service struct {
	cache       store.Store
	geography   geography.Client
	taxpayer    taxpayer.Client
	certificate certificate.Client
	timeout     time.Duration
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
	logger      *slog.Logger
	flight      singleflight.Group
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics collector for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer sets the lookup tracer for the service.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// New creates a registry service. timeout bounds every live external call; a
// timed-out lookup is a lookup failure, never a pass.
func New(cache store.Store, geo geography.Client, tax taxpayer.Client, cert certificate.Client, timeout time.Duration, opts ...Option) *Service {
	s := &Service{
		cache:       cache,
		geography:   geo,
		taxpayer:    tax,
		certificate: cert,
		timeout:     timeout,
		tracer:      tracer.NewNoop(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Geography resolves a postal code to its authoritative state/municipality,
// serving from cache when fresh.
func (s *Service) Geography(ctx context.Context, postalCode string) (*models.GeographyRecord, error) {
	key := store.Key{Kind: store.KindGeography, NaturalKey: postalCode}
	return lookup(ctx, s, key, func(ctx context.Context) (*models.GeographyRecord, error) {
		return s.geography.Lookup(ctx, postalCode)
	})
}

// Taxpayer resolves an RFC to its registered legal name within one fiscal
// environment. The environment is part of the cache key so sandbox and
// production identity spaces never collide.
func (s *Service) Taxpayer(ctx context.Context, env waybill.FiscalEnvironment, rfc string) (*models.TaxpayerRecord, error) {
	key := store.Key{Kind: store.KindTaxpayer, Environment: string(env), NaturalKey: rfc}
	return lookup(ctx, s, key, func(ctx context.Context) (*models.TaxpayerRecord, error) {
		return s.taxpayer.Lookup(ctx, env, rfc)
	})
}

// ActiveCertificate returns the signing certificate currently bound to an
// account. Certificates are never cached: a revocation must be visible on
// the next validation run.
func (s *Service) ActiveCertificate(ctx context.Context, accountID string) (*models.CertificateRecord, error) {
	kind := string(store.KindCertificate)
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.certificate", tracer.Attribute{Key: "account_id", Value: accountID})

	record, err := flightDo(s, kind+":"+accountID, func() (*models.CertificateRecord, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.certificate.Active(fetchCtx, accountID)
	})
	span.End(err)
	s.metrics.ObserveLookupDuration(kind, time.Since(start).Seconds())
	s.metrics.RecordLiveLookup(kind, resultLabel(err))
	return record, err
}

// InvalidateTaxpayer drops a cached identity record, forcing the next check
// to refetch. Exposed for operational tooling after registry corrections.
func (s *Service) InvalidateTaxpayer(ctx context.Context, env waybill.FiscalEnvironment, rfc string) error {
	key := store.Key{Kind: store.KindTaxpayer, Environment: string(env), NaturalKey: rfc}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeRegistryUnavailable, "invalidate taxpayer cache")
	}
	s.metrics.IncrementInvalidations()
	return nil
}

// lookup implements the shared cache-then-fetch path for one key.
func lookup[T any](ctx context.Context, s *Service, key store.Key, fetch func(context.Context) (*T, error)) (*T, error) {
	kind := string(key.Kind)
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry.lookup", tracer.Attribute{Key: "kind", Value: kind})

	record, err := cachedOrFetch(ctx, s, key, fetch)
	span.End(err)
	s.metrics.ObserveLookupDuration(kind, time.Since(start).Seconds())
	return record, err
}

func cachedOrFetch[T any](ctx context.Context, s *Service, key store.Key, fetch func(context.Context) (*T, error)) (*T, error) {
	kind := string(key.Kind)

	payload, cacheErr := s.cache.Get(ctx, key)
	switch {
	case cacheErr == nil:
		s.metrics.RecordCacheHit(kind)
		var record T
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode cached registry record")
		}
		return &record, nil
	case errors.Is(cacheErr, store.ErrNotFound):
		s.metrics.RecordCacheMiss(kind)
	default:
		return nil, dErrors.Wrap(cacheErr, dErrors.CodeRegistryUnavailable, "registry cache unavailable")
	}

	record, err := flightDo(s, key.String(), func() (*T, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		fetched, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		encoded, mErr := json.Marshal(fetched)
		if mErr != nil {
			return nil, dErrors.Wrap(mErr, dErrors.CodeInternal, "encode registry record")
		}
		// A cache write failure degrades to uncached lookups; the fetched
		// record is still authoritative.
		if setErr := s.cache.Set(fetchCtx, key, encoded); setErr != nil {
			s.logger.WarnContext(ctx, "registry cache write failed",
				"kind", kind,
				"error", setErr,
			)
		}
		return fetched, nil
	})
	s.metrics.RecordLiveLookup(kind, resultLabel(err))
	return record, err
}

// flightDo collapses concurrent identical lookups into one live call.
func flightDo[T any](s *Service, key string, fn func() (*T, error)) (*T, error) {
	v, err, _ := s.flight.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		return "not_found"
	case dErrors.HasCode(err, dErrors.CodeTimeout):
		return "timeout"
	default:
		return "error"
	}
}
