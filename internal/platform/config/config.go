package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	AdminToken      string
	LogLevel        string
	ShutdownTimeout time.Duration

	Session   SessionConfig
	Mongo     MongoConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Identity  IdentityConfig
	Kafka     KafkaConfig
	Reconcile ReconcileConfig
}

// SessionConfig controls the storefront session token.
type SessionConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	TTL        time.Duration
}

// MongoConfig selects the profile store. An empty URI keeps profiles in memory.
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// PostgresConfig selects the identity link store. An empty DSN keeps links in memory.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig selects the throttle latch. An empty URL keeps the latch in process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IdentityConfig points at the external identity service. An empty base URL
// selects the in-memory provider.
type IdentityConfig struct {
	BaseURL     string
	ProjectID   string
	APIKey      string
	Timeout     time.Duration
	RecoveryURL string
}

// KafkaConfig selects the audit sink. No brokers keeps audit events in memory.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// ReconcileConfig tunes the reconciliation service.
type ReconcileConfig struct {
	FoldEmailCase    bool
	ThrottleLatchTTL time.Duration
	AuditBuffer      int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:            getEnv("STOREFRONT_ADDR", ":8080"),
		AdminToken:      os.Getenv("ADMIN_API_TOKEN"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Session: SessionConfig{
			// Use a default for development - should be overridden in production
			SigningKey: getEnv("SESSION_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     getEnv("SESSION_ISSUER", "storefront"),
			Audience:   getEnv("SESSION_AUDIENCE", "storefront-web"),
			TTL:        getDuration("SESSION_TTL", time.Hour),
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Database: getEnv("MONGO_DATABASE", "storefront"),
			Timeout:  getDuration("MONGO_TIMEOUT", 5*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:          os.Getenv("POSTGRES_DSN"),
			MaxOpenConns: getInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getInt("POSTGRES_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Identity: IdentityConfig{
			BaseURL:     os.Getenv("IDENTITY_BASE_URL"),
			ProjectID:   os.Getenv("IDENTITY_PROJECT_ID"),
			APIKey:      os.Getenv("IDENTITY_API_KEY"),
			Timeout:     getDuration("IDENTITY_TIMEOUT", 10*time.Second),
			RecoveryURL: getEnv("IDENTITY_RECOVERY_URL", "http://localhost:3000/account/reset"),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "storefront.audit"),
		},
		Reconcile: ReconcileConfig{
			FoldEmailCase:    getBool("EMAIL_FOLD_CASE", false),
			ThrottleLatchTTL: getDuration("THROTTLE_LATCH_TTL", 60*time.Second),
			AuditBuffer:      getInt("AUDIT_BUFFER", 256),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n >= 0 {
		return n
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
