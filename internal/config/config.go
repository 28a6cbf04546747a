// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session storage backends.
const (
	SessionBackendBadger = "badger"
	SessionBackendRedis  = "redis"
)

// Reconciliation failure policies.
const (
	// FailurePolicyAcknowledge answers 200 to the processor even when applying
	// the paid flags failed. The event is kept in the ledger for manual retry.
	FailurePolicyAcknowledge = "acknowledge"
	// FailurePolicyRetry answers 500 so the processor redelivers the event.
	FailurePolicyRetry = "retry"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Storage   StorageConfig
	Session   SessionConfig
	Stripe    StripeConfig
	Admin     AdminConfig
	Reconcile ReconcileConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	PublicURL      string        // Base URL customers reach the storefront at
	Port           string        // Server port (default: 8080)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string      // CORS origins (default: PublicURL)
	MaxUploadBytes int64         // Admin upload body limit (default: 512 MiB)
}

// StorageConfig holds on-disk storage configuration.
type StorageConfig struct {
	// BasePath holds the SQLite database, the session store and both object buckets.
	BasePath string
}

// DatabasePath returns the SQLite database file.
func (s StorageConfig) DatabasePath() string {
	return filepath.Join(s.BasePath, "elephoto.db")
}

// SessionsPath returns the Badger directory used for browsing sessions.
func (s StorageConfig) SessionsPath() string {
	return filepath.Join(s.BasePath, "sessions")
}

// SessionConfig selects where browsing sessions live.
type SessionConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// StripeConfig holds payment processor credentials.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

// AdminConfig holds the album administrator credentials.
type AdminConfig struct {
	Username      string
	PasswordHash  string // argon2id PHC string
	TokenDuration time.Duration
}

// ReconcileConfig controls payment reconciliation behavior.
type ReconcileConfig struct {
	FailurePolicy string
}

// RateLimitConfig bounds how fast a single client may try access codes.
type RateLimitConfig struct {
	CodeAttempts int           // attempts allowed per window
	CodeWindow   time.Duration // refill window
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	storagePath := flag.String("storage-path", "", "Base path for database and object storage")

	// Server flags
	publicURL := flag.String("public-url", "", "Public storefront URL (default: http://localhost:8080)")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// Session flags
	sessionBackend := flag.String("session-backend", "", "Browsing session store: badger or redis (default: badger)")
	redisAddr := flag.String("redis-addr", "", "Redis address when session-backend=redis")

	// Payment flags
	reconcilePolicy := flag.String("reconcile-failure-policy", "", "acknowledge or retry (default: acknowledge)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			PublicURL:      strings.TrimRight(getConfigValue(*publicURL, "PUBLIC_URL", "http://localhost:8080"), "/"),
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue("", "CORS_ALLOWED_ORIGINS", "")),
			MaxUploadBytes: int64(getIntConfigValue("", "MAX_UPLOAD_MB", 512)) << 20,
		},
		Storage: StorageConfig{
			BasePath: getConfigValue(*storagePath, "STORAGE_PATH", ""),
		},
		Session: SessionConfig{
			Backend:       strings.ToLower(getConfigValue(*sessionBackend, "SESSION_BACKEND", SessionBackendBadger)),
			RedisAddr:     getConfigValue(*redisAddr, "REDIS_ADDR", "localhost:6379"),
			RedisPassword: getConfigValue("", "REDIS_PASSWORD", ""),
			RedisDB:       getIntConfigValue("", "REDIS_DB", 0),
		},
		Stripe: StripeConfig{
			SecretKey:     getConfigValue("", "STRIPE_SECRET_KEY", ""),
			WebhookSecret: getConfigValue("", "STRIPE_WEBHOOK_SECRET", ""),
			Currency:      strings.ToLower(getConfigValue("", "STRIPE_CURRENCY", "brl")),
		},
		Admin: AdminConfig{
			Username:     getConfigValue("", "ADMIN_USERNAME", "admin"),
			PasswordHash: getConfigValue("", "ADMIN_PASSWORD_HASH", ""),
		},
		Reconcile: ReconcileConfig{
			FailurePolicy: strings.ToLower(getConfigValue(*reconcilePolicy, "RECONCILE_FAILURE_POLICY", FailurePolicyAcknowledge)),
		},
		RateLimit: RateLimitConfig{
			CodeAttempts: getIntConfigValue("", "CODE_ATTEMPTS_PER_WINDOW", 10),
		},
	}

	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{cfg.Server.PublicURL}
	}

	durations := []struct {
		dst    *time.Duration
		flag   string
		envKey string
		def    string
		name   string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "30s", "write timeout"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout"},
		{&cfg.Session.TTL, "", "SESSION_TTL", "24h", "session ttl"},
		{&cfg.Admin.TokenDuration, "", "ADMIN_TOKEN_DURATION", "12h", "admin token duration"},
		{&cfg.RateLimit.CodeWindow, "", "CODE_ATTEMPT_WINDOW", "1m", "code attempt window"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandStoragePath(); err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.BasePath == "" {
		return errors.New("storage base path cannot be empty after expansion")
	}

	u, err := url.Parse(c.Server.PublicURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid public url: %q (must be an absolute http(s) URL)", c.Server.PublicURL)
	}

	switch c.Session.Backend {
	case SessionBackendBadger:
	case SessionBackendRedis:
		if c.Session.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be badger or redis)", c.Session.Backend)
	}

	switch c.Reconcile.FailurePolicy {
	case FailurePolicyAcknowledge, FailurePolicyRetry:
	default:
		return fmt.Errorf("invalid reconcile failure policy: %s (must be acknowledge or retry)", c.Reconcile.FailurePolicy)
	}

	if c.App.Environment == "production" {
		if c.Stripe.SecretKey == "" {
			return errors.New("STRIPE_SECRET_KEY is required in production")
		}
		if c.Stripe.WebhookSecret == "" {
			return errors.New("STRIPE_WEBHOOK_SECRET is required in production")
		}
	}

	if c.RateLimit.CodeAttempts < 1 {
		return fmt.Errorf("invalid code attempts per window: %d (must be at least 1)", c.RateLimit.CodeAttempts)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStoragePath defaults to ~/Elephoto/data.
func (c *Config) expandStoragePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Elephoto", "data")

	expanded, err := expandPath(c.Storage.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}

// loadEnvFile loads variables from a .env file without overriding
// variables already present in the environment.
func loadEnvFile(path string) error {
	return godotenv.Load(path)
}
