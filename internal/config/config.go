package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Secrets  SecretsConfig
	Edge     EdgeConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
}

// AuthConfig defines token issuance parameters.
type AuthConfig struct {
	TokenTTLHours     int
	Issuer            string
	Audience          string
	BcryptCost        int
	BootstrapUsername string
	BootstrapPassword string
}

// SecretsConfig locates the signing secret in the external secret store.
type SecretsConfig struct {
	RedisKey           string
	RefreshIntervalSec int
	StaticSecret       string
}

// EdgeConfig configures the edge validator in front of the origin.
type EdgeConfig struct {
	Host           string
	Port           string
	OriginURL      string
	ProtectedPaths []string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "cdn-auth-service"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: env == "development",
		},
		Auth: AuthConfig{
			TokenTTLHours:     getEnvAsInt("AUTH_TOKEN_TTL_HOURS", 24),
			Issuer:            getEnv("AUTH_TOKEN_ISSUER", "cdn-auth-service"),
			Audience:          getEnv("AUTH_TOKEN_AUDIENCE", "cdn-origin"),
			BcryptCost:        getEnvAsInt("AUTH_BCRYPT_COST", 12),
			BootstrapUsername: os.Getenv("AUTH_BOOTSTRAP_USERNAME"),
			BootstrapPassword: os.Getenv("AUTH_BOOTSTRAP_PASSWORD"),
		},
		Secrets: SecretsConfig{
			RedisKey:           getEnv("SECRETS_REDIS_KEY", "cdn-auth:jwt-secret"),
			RefreshIntervalSec: getEnvAsInt("SECRETS_REFRESH_INTERVAL_SECONDS", 300),
			StaticSecret:       os.Getenv("SECRETS_STATIC_SECRET"),
		},
		Edge: EdgeConfig{
			Host:           getEnv("EDGE_HOST", "0.0.0.0"),
			Port:           getEnv("EDGE_PORT", "8081"),
			OriginURL:      getEnv("EDGE_ORIGIN_URL", "http://127.0.0.1:8080"),
			ProtectedPaths: splitPaths(getEnv("EDGE_PROTECTED_PATHS", "/api/protected,/auth/me")),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the configured token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// RefreshInterval returns the secret store polling cadence.
func (s SecretsConfig) RefreshInterval() time.Duration {
	if s.RefreshIntervalSec <= 0 {
		return 0
	}
	return time.Duration(s.RefreshIntervalSec) * time.Second
}

// Addr returns the edge bind address.
func (e EdgeConfig) Addr() string {
	return fmt.Sprintf("%s:%s", e.Host, e.Port)
}

func splitPaths(raw string) []string {
	parts := strings.Split(raw, ",")
	paths := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}
	return paths
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
