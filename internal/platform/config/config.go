package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// Environment selects the default fiscal environment (sandbox or
	// production) for identity lookups when a document does not say.
	Environment string

	Registry Registry
	Scoring  Scoring
	Redis    Redis
	Database Database
	Kafka    Kafka
}

// Registry holds external registry lookup settings.
type Registry struct {
	// CacheTTL bounds how long registry lookup results may be reused before
	// a fresh fetch against government data is forced.
	CacheTTL time.Duration

	// LookupTimeout bounds each external registry call. A timeout is treated
	// as a lookup failure, never as a pass.
	LookupTimeout time.Duration

	GeographyURL   string
	TaxpayerURL    string
	CertificateURL string
}

// Scoring holds the compliance score weight table. The weights are tunable
// operational constants, not domain invariants.
type Scoring struct {
	Baseline        int
	CriticalPenalty int
	ErrorPenalty    int
	WarningPenalty  int
}

// Redis holds Redis connection configuration.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Database holds PostgreSQL connection configuration.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Kafka holds audit stream producer configuration.
type Kafka struct {
	Brokers         string
	AuditTopic      string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:          envOr("CARTAPORTE_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Environment:   envOr("FISCAL_ENVIRONMENT", "sandbox"),
		Registry: Registry{
			CacheTTL:       envDuration("REGISTRY_CACHE_TTL", 5*time.Minute),
			LookupTimeout:  envDuration("REGISTRY_LOOKUP_TIMEOUT", 5*time.Second),
			GeographyURL:   os.Getenv("GEOGRAPHY_REGISTRY_URL"),
			TaxpayerURL:    os.Getenv("TAXPAYER_REGISTRY_URL"),
			CertificateURL: os.Getenv("CERTIFICATE_REGISTRY_URL"),
		},
		Scoring: Scoring{
			Baseline:        envInt("SCORE_BASELINE", 100),
			CriticalPenalty: envInt("SCORE_CRITICAL_PENALTY", 3),
			ErrorPenalty:    envInt("SCORE_ERROR_PENALTY", 1),
			WarningPenalty:  envInt("SCORE_WARNING_PENALTY", 0),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Kafka: Kafka{
			Brokers:         os.Getenv("KAFKA_BROKERS"),
			AuditTopic:      envOr("KAFKA_AUDIT_TOPIC", "cartaporte.audit.v1"),
			Acks:            envOr("KAFKA_ACKS", "all"),
			Retries:         envInt("KAFKA_RETRIES", 3),
			DeliveryTimeout: envDuration("KAFKA_DELIVERY_TIMEOUT", 10*time.Second),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
