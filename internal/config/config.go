package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	apperrors "github.com/ZanzyTHEbar/coopcredit-guard/internal/errors"
)

// History backends
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds application configuration
type Config struct {
	Port           int
	DataDir        string
	HistoryBackend string
	LogLevel       string
	GinMode        string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RatePerMinute int

	AdminJWTSecret string
	AllowedOrigins []string
	TrustedProxies []string
	EnableHSTS     bool

	RequestTimeout    time.Duration
	ScoringDelay      time.Duration
	AnalyticsCacheTTL time.Duration

	RetentionDays     int
	RetentionSchedule string
}

// Load reads configuration from the environment after loading an optional .env file
func Load() (*Config, error) {
	LoadDotEnv()

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from ./.env when the file exists. Variables
// already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// FromEnv reads configuration from environment variables without validating it
func FromEnv() *Config {
	return &Config{
		Port:           getEnvAsInt("PORT", 8080),
		DataDir:        getEnv("DATA_DIR", "./data"),
		HistoryBackend: strings.ToLower(getEnv("HISTORY_BACKEND", BackendSQLite)),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		GinMode:        getEnv("GIN_MODE", "release"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		RatePerMinute: getEnvAsInt("RATE_LIMIT_PER_MIN", 60),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		TrustedProxies: getEnvAsList("TRUSTED_PROXIES", []string{"127.0.0.1", "::1"}),
		EnableHSTS:     getEnvAsBool("ENABLE_HSTS", false),

		RequestTimeout:    getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		ScoringDelay:      getEnvAsDuration("SCORING_DELAY", 0),
		AnalyticsCacheTTL: getEnvAsDuration("ANALYTICS_CACHE_TTL", 5*time.Minute),

		RetentionDays:     getEnvAsInt("HISTORY_RETENTION_DAYS", 0),
		RetentionSchedule: getEnv("RETENTION_SCHEDULE", "@daily"),
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return apperrors.NewConfigurationError(fmt.Sprintf("PORT must be between 1 and 65535, got %d", c.Port), nil)
	}

	switch c.HistoryBackend {
	case BackendSQLite:
		if c.DataDir == "" {
			return apperrors.NewConfigurationError("DATA_DIR is required for the sqlite history backend", nil)
		}
	case BackendMemory:
	default:
		return apperrors.NewConfigurationError(
			fmt.Sprintf("HISTORY_BACKEND must be %q or %q, got %q", BackendSQLite, BackendMemory, c.HistoryBackend), nil)
	}

	if c.RatePerMinute <= 0 {
		return apperrors.NewConfigurationError(fmt.Sprintf("RATE_LIMIT_PER_MIN must be positive, got %d", c.RatePerMinute), nil)
	}
	if c.RequestTimeout < 0 || c.ScoringDelay < 0 || c.AnalyticsCacheTTL < 0 {
		return apperrors.NewConfigurationError("durations must not be negative", nil)
	}
	if c.RequestTimeout > 0 && c.ScoringDelay >= c.RequestTimeout {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("SCORING_DELAY (%s) must be shorter than REQUEST_TIMEOUT (%s)", c.ScoringDelay, c.RequestTimeout), nil)
	}

	for _, origin := range c.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return apperrors.NewConfigurationError(fmt.Sprintf("invalid origin in ALLOWED_ORIGINS: %q", origin), nil)
		}
	}

	if c.RetentionDays < 0 {
		return apperrors.NewConfigurationError(fmt.Sprintf("HISTORY_RETENTION_DAYS must not be negative, got %d", c.RetentionDays), nil)
	}
	if c.RetentionDays > 0 {
		if _, err := cron.ParseStandard(c.RetentionSchedule); err != nil {
			return apperrors.NewConfigurationError(fmt.Sprintf("invalid RETENTION_SCHEDULE %q", c.RetentionSchedule), err)
		}
	}

	return nil
}

// AdminEnabled reports whether admin routes are served
func (c *Config) AdminEnabled() bool {
	return c.AdminJWTSecret != ""
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
