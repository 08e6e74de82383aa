// Command server runs the Carta Porte compliance engine: waybill validation,
// registry lookups, artifact versioning, and the audit trail behind one HTTP
// surface.
//
// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	artifacthandler "cartaporte/internal/artifact/handler"
	artifactmetrics "cartaporte/internal/artifact/metrics"
	artifactservice "cartaporte/internal/artifact/service"
	artifactstore "cartaporte/internal/artifact/store"
	"cartaporte/internal/audit"
	"cartaporte/internal/platform/config"
	"cartaporte/internal/platform/database"
	"cartaporte/internal/platform/health"
	"cartaporte/internal/platform/httpserver"
	"cartaporte/internal/platform/kafka/producer"
	"cartaporte/internal/platform/logger"
	"cartaporte/internal/platform/middleware"
	redisplatform "cartaporte/internal/platform/redis"
	"cartaporte/internal/registry/clients/certificate"
	"cartaporte/internal/registry/clients/geography"
	"cartaporte/internal/registry/clients/taxpayer"
	registrymetrics "cartaporte/internal/registry/metrics"
	registryservice "cartaporte/internal/registry/service"
	registrystore "cartaporte/internal/registry/store"
	registrytracer "cartaporte/internal/registry/tracer"
	validationhandler "cartaporte/internal/validation/handler"
	validationmetrics "cartaporte/internal/validation/metrics"
	validationservice "cartaporte/internal/validation/service"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing cartaporte engine",
		"addr", cfg.Addr,
		"fiscal_environment", cfg.Environment,
	)

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		log.Error("redis initialization failed", "error", err)
		os.Exit(1)
	}
	dbPool, err := database.New(cfg.Database)
	if err != nil {
		log.Error("database initialization failed", "error", err)
		os.Exit(1)
	}

	auditSink, kafkaProducer := newAuditSink(cfg.Kafka, log)

	// Registry lookups: TTL cache in front of the external clients. Redis
	// backs the cache when configured so instances share lookup results.
	var cacheStore registrystore.Store
	if redisClient != nil {
		cacheStore = registrystore.NewRedisStore(redisClient.Client, cfg.Registry.CacheTTL)
	} else {
		cacheStore = registrystore.NewInMemoryStore(cfg.Registry.CacheTTL)
	}
	registrySvc := registryservice.New(
		cacheStore,
		newGeographyClient(cfg.Registry, log),
		newTaxpayerClient(cfg.Registry, log),
		newCertificateClient(cfg.Registry, log),
		cfg.Registry.LookupTimeout,
		registryservice.WithLogger(log),
		registryservice.WithMetrics(registrymetrics.New(prometheus.DefaultRegisterer)),
		registryservice.WithTracer(registrytracer.NewOTel()),
	)

	// Rule engine.
	validator := validationservice.NewValidator(
		validationservice.NewGeoValidator(registrySvc),
		validationservice.NewIdentityValidator(registrySvc, registrySvc),
		validationservice.NewScoreCalculator(cfg.Scoring),
		validationservice.WithLogger(log),
		validationservice.WithMetrics(validationmetrics.New(prometheus.DefaultRegisterer)),
	)

	// Audit trail: the store append is the system of record, Kafka fans out.
	var auditStore audit.Store
	if dbPool != nil {
		auditStore = audit.NewPostgres(dbPool.DB())
	} else {
		auditStore = audit.NewInMemoryStore()
	}
	auditor := audit.NewPublisher(auditStore,
		audit.WithSink(auditSink, cfg.Kafka.AuditTopic),
		audit.WithPublisherLogger(log),
	)

	// Version manager.
	var artStore artifactstore.Store
	if dbPool != nil {
		artStore = artifactstore.NewPostgres(dbPool.DB())
	} else {
		artStore = artifactstore.NewInMemoryStore()
	}
	versionManager := artifactservice.NewManager(artStore,
		artifactservice.WithLogger(log),
		artifactservice.WithMetrics(artifactmetrics.New(prometheus.DefaultRegisterer)),
	)

	healthHandler := health.New(cfg.Environment)
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		})
	}
	if dbPool != nil {
		healthHandler.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return dbPool.Health(ctx)
		})
	}

	router := chi.NewRouter()
	router.Use(
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Timeout(30*time.Second),
		middleware.ContentTypeJSON,
	)
	healthHandler.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth([]byte(cfg.JWTSigningKey), log))
		validationhandler.New(validator, auditor, log).Register(r)
		artifacthandler.New(versionManager, auditor, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Error("kafka producer close failed", "error", err)
		}
	}
	if dbPool != nil {
		if err := dbPool.Close(); err != nil {
			log.Error("database close failed", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("redis close failed", "error", err)
		}
	}

	log.Info("server stopped")
}

// newAuditSink returns the audit sink and, when Kafka is configured, the
// concrete producer so shutdown can flush it.
func newAuditSink(cfg config.Kafka, log *slog.Logger) (audit.Sink, *producer.Producer) {
	if cfg.Brokers == "" {
		log.Info("kafka not configured, audit events stay store-only")
		return producer.NewNoopProducer(), nil
	}
	kafkaProducer, err := producer.New(cfg, log)
	if err != nil {
		log.Error("kafka initialization failed", "error", err)
		os.Exit(1)
	}
	return kafkaProducer, kafkaProducer
}

// The registry clients fall back to deterministic mocks when no upstream URL
// is configured, which keeps local development self-contained.

func newGeographyClient(cfg config.Registry, log *slog.Logger) geography.Client {
	if cfg.GeographyURL != "" {
		return geography.NewHTTPClient(cfg.GeographyURL, cfg.LookupTimeout)
	}
	log.Warn("geography registry URL not configured, using seeded mock")
	return geography.NewMockClient(0)
}

func newTaxpayerClient(cfg config.Registry, log *slog.Logger) taxpayer.Client {
	if cfg.TaxpayerURL != "" {
		return taxpayer.NewHTTPClient(cfg.TaxpayerURL, cfg.LookupTimeout)
	}
	log.Warn("taxpayer registry URL not configured, using seeded mock")
	return taxpayer.NewMockClient(0)
}

func newCertificateClient(cfg config.Registry, log *slog.Logger) certificate.Client {
	if cfg.CertificateURL != "" {
		return certificate.NewHTTPClient(cfg.CertificateURL, cfg.LookupTimeout)
	}
	log.Warn("certificate registry URL not configured, using seeded mock")
	return certificate.NewMockClient(0)
}
