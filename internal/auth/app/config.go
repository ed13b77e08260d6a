package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/openfit/healthsync/internal/auth/domain"
	"github.com/openfit/healthsync/pkg/jwtx"
)

type Config struct {
	Issuer        string // Optional: issuer claim for session tokens (default: healthsync-auth)
	SessionSecret string // Required: HMAC secret for session token signing

	GoogleClientID     string // Required: OAuth client id
	GoogleClientSecret string // Required: OAuth client secret
	GoogleRedirectURL  string // Required for code logins: registered redirect URL

	BaseURL string // Optional: public base URL used in pairing and directory links

	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)

	RedisAddr     string // Optional: Redis host:port for pairing codes (unset: in-memory)
	RedisPassword string // Optional
	RedisDB       int    // Optional

	AccessTTL  time.Duration // Optional: session access token lifetime (default: 192h)
	RefreshTTL time.Duration // Optional: session refresh token lifetime (default: 168h)
	PairingTTL time.Duration // Optional: pairing code lifetime (default: 5m)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:        getEnvOrDefault("AUTH_ISSUER", "healthsync-auth"),
		SessionSecret: os.Getenv("AUTH_SESSION_SECRET"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		BaseURL:      getEnvOrDefault("AUTH_BASE_URL", "http://localhost:8080"),
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),

		AccessTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		PairingTTL: getEnvDurationOrDefault("AUTH_PAIRING_TTL", domain.DefaultPairingTTL),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

// Validate reports the configuration gaps the service cannot start without.
func (cfg Config) Validate() error {
	if cfg.SessionSecret == "" {
		return errors.New("AUTH_SESSION_SECRET is required")
	}
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
