// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Redis     RedisConfig
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
	Port         string        // Server port (default: 3000)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 60s, exports can be large)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
	// ApplySchema creates the notes table and pg_trgm extension on startup (default: true)
	ApplySchema bool
}

// AuthConfig holds the raw API secrets. Any of them may be empty, in which
// case the corresponding scope cannot be granted by that secret.
type AuthConfig struct {
	ReadKey   string
	ExportKey string
	AdminKey  string
	// LegacyAPIKey is the pre-scope single secret. It grants admin only.
	LegacyAPIKey string
}

// CORSConfig holds cross-origin configuration for the web UI.
type CORSConfig struct {
	// UIOrigin is matched as a prefix of the request Origin.
	UIOrigin string
}

// RedisConfig holds the optional count-cache configuration.
type RedisConfig struct {
	URL           string // Empty disables the cache
	CountCacheTTL time.Duration
}

// RateLimitConfig holds per-client request throttling configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64 // 0 disables rate limiting
	Burst             int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 3000)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 60s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	// Database flags
	databaseURL := flag.String("database-url", "", "PostgreSQL connection URL")
	dbMaxConns := flag.String("db-max-conns", "", "Maximum pool connections (default: 10)")
	dbMinConns := flag.String("db-min-conns", "", "Minimum idle pool connections (default: 1)")
	applySchema := flag.String("apply-schema", "", "Create schema on startup (default: true)")

	uiOrigin := flag.String("ui-origin", "", "Allowed web UI origin (prefix match)")

	// Cache and throttling flags
	redisURL := flag.String("redis-url", "", "Redis URL for the count cache (optional)")
	countCacheTTL := flag.String("count-cache-ttl", "", "Count cache lifetime (default: 30s)")
	rateLimitRPS := flag.String("rate-limit-rps", "", "Requests per second per client (default: 20, 0 disables)")
	rateLimitBurst := flag.String("rate-limit-burst", "", "Burst size per client (default: 40)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Secrets are only read from the environment so they never show up in process listings.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "3000"),
		},
		Database: DatabaseConfig{
			URL:         getConfigValue(*databaseURL, "DATABASE_URL", ""),
			MaxConns:    getIntConfigValue(*dbMaxConns, "DB_MAX_CONNS", 10),
			MinConns:    getIntConfigValue(*dbMinConns, "DB_MIN_CONNS", 1),
			ApplySchema: getBoolConfigValue(*applySchema, "DB_APPLY_SCHEMA", true),
		},
		Auth: AuthConfig{
			ReadKey:      strings.TrimSpace(os.Getenv("READ_KEY")),
			ExportKey:    strings.TrimSpace(os.Getenv("EXPORT_KEY")),
			AdminKey:     strings.TrimSpace(os.Getenv("ADMIN_KEY")),
			LegacyAPIKey: strings.TrimSpace(os.Getenv("API_KEY")),
		},
		CORS: CORSConfig{
			UIOrigin: getConfigValue(*uiOrigin, "UI_ORIGIN", ""),
		},
		Redis: RedisConfig{
			URL: getConfigValue(*redisURL, "REDIS_URL", ""),
		},
		RateLimit: RateLimitConfig{
			Burst: getIntConfigValue(*rateLimitBurst, "RATE_LIMIT_BURST", 40),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}
	if cfg.Redis.CountCacheTTL, err = getDurationConfigValue(*countCacheTTL, "COUNT_CACHE_TTL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid count cache ttl: %w", err)
	}

	rpsStr := getConfigValue(*rateLimitRPS, "RATE_LIMIT_RPS", "20")
	if _, err := fmt.Sscanf(rpsStr, "%g", &cfg.RateLimit.RequestsPerSecond); err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rpsStr, err)
	}

	// Validate configuration.
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

	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	if c.CORS.UIOrigin == "" {
		return errors.New("UI_ORIGIN is required")
	}

	if c.Database.MaxConns < 1 {
		return fmt.Errorf("invalid max connections: %d (must be at least 1)", c.Database.MaxConns)
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("invalid min connections: %d (must be between 0 and %d)", c.Database.MinConns, c.Database.MaxConns)
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid rate limit: %g (must not be negative)", c.RateLimit.RequestsPerSecond)
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("invalid rate limit burst: %d (must be at least 1)", c.RateLimit.Burst)
	}

	return nil
}

// MissingKeys returns the environment names of API secrets that are not set.
// Scopes tied to a missing key can never be granted.
func (a AuthConfig) MissingKeys() []string {
	var missing []string
	if a.ReadKey == "" {
		missing = append(missing, "READ_KEY")
	}
	if a.ExportKey == "" {
		missing = append(missing, "EXPORT_KEY")
	}
	if a.AdminKey == "" {
		missing = append(missing, "ADMIN_KEY")
	}
	return missing
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
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

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", envKey, strValue, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Variables already present in the environment are never overwritten.
func loadEnvFile(path string) error {
	return godotenv.Load(path)
}
