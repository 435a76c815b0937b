package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	StoreBackend       string
	DatabaseURL        string
	DBMaxConns         int
	JWTSecret          string
	LockTimeout        time.Duration
	GeoIPDBPath        string
	DefaultLocale      string
	CORSOrigins        []string
	KafkaBrokers       []string
	OutboxTopicPrefix  string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	SeedFile           string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", StoreBackendPostgres)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		LockTimeout:        time.Millisecond * time.Duration(getEnvInt("LOCK_TIMEOUT_MS", 5000)),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		CORSOrigins:        getEnvList("CORS_ORIGINS"),
		KafkaBrokers:       getEnvList("KAFKA_BROKERS"),
		OutboxTopicPrefix:  getEnv("OUTBOX_TOPIC_PREFIX", "marketfund"),
		OutboxPollInterval: time.Millisecond * time.Duration(getEnvInt("OUTBOX_POLL_INTERVAL_MS", 2000)),
		OutboxBatchSize:    getEnvInt("OUTBOX_BATCH_SIZE", 50),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		SeedFile:           os.Getenv("SEED_FILE"),
	}

	switch cfg.StoreBackend {
	case StoreBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case StoreBackendMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.LockTimeout <= 0 {
		return nil, fmt.Errorf("LOCK_TIMEOUT_MS must be positive")
	}

	return cfg, nil
}

// RequireAuth checks the settings only the API binary needs.
func (c *Config) RequireAuth() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
