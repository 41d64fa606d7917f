package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/eas/internal/auth"
	"github.com/aussiebroadwan/eas/pkg/httpx"
	"github.com/joho/godotenv"
)

// Session store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	APIURL         string                // Base URL of the attendance service (default: http://localhost:8000/api)
	HTTPTimeout    time.Duration         // Per-request timeout (default: 10s)
	SessionStore   string                // Session store kind: file, sqlite, memory (default: file)
	SessionPath    string                // Session file or database path (default: <user config dir>/eas/...)
	SessionKey     string                // Optional: key material for the session store; a key file is generated when empty
	ValidationMode string                // Stored session check at startup: cache, remote (default: cache)
	Timezone       string                // IANA zone deciding the calendar day (default: local)
	Env            string                // Environment (dev, staging, prod) (default: prod)
	LogLevel       string                // Log level (debug, info, warn, error) (default: warn)
	LogFormat      string                // Log format (json, text) (default: text)
	RateLimit      httpx.RateLimitConfig // Outbound request budget
}

// LoadConfig reads the configuration from the environment. A .env file in
// the working directory is loaded first; it never overrides variables that
// are already set.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		APIURL:         getEnvOrDefault("EAS_API_URL", "http://localhost:8000/api"),
		HTTPTimeout:    getEnvDurationOrDefault("EAS_HTTP_TIMEOUT", 10*time.Second),
		SessionStore:   strings.ToLower(getEnvOrDefault("EAS_SESSION_STORE", StoreFile)),
		SessionPath:    os.Getenv("EAS_SESSION_PATH"),
		SessionKey:     os.Getenv("EAS_SESSION_KEY"),
		ValidationMode: getEnvOrDefault("EAS_VALIDATION_MODE", string(auth.ValidateCache)),
		Timezone:       os.Getenv("EAS_TIMEZONE"),
		Env:            getEnvOrDefault("ENV", "prod"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		RateLimit:      httpx.ParseRateLimitFromEnv("CLIENT", httpx.ClientLimit),
	}

	if cfg.SessionPath == "" {
		cfg.SessionPath = defaultSessionPath(cfg.SessionStore)
	}

	return cfg
}

// Location resolves Timezone, falling back to the local zone when unset.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid EAS_TIMEZONE: %w", err)
	}
	return loc, nil
}

// KeyPath is where the generated session key lives when SessionKey is empty.
func (c Config) KeyPath() string {
	return filepath.Join(filepath.Dir(c.SessionPath), "session.key")
}

func defaultSessionPath(kind string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}

	name := "session.json"
	if kind == StoreSQLite {
		name = "eas.db"
	}
	return filepath.Join(dir, "eas", name)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "5s", "1m")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
