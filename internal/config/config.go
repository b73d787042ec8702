// Package config loads server configuration from command-line flags, environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported access token formats.
const (
	TokenFormatJWT    = "jwt"
	TokenFormatPASETO = "paseto"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Data     DataConfig
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json, pretty, or empty to pick by environment
}

// DataConfig holds local data directory configuration.
type DataConfig struct {
	// Path holds the SQLite database and the generated auth key.
	Path string
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver       string
	DSN          string // file path for sqlite, connection string for postgres
	MaxOpenConns int
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	TokenFormat         string
	AccessTokenDuration time.Duration
	// SecretHex is an optional 64 character hex key. When empty the key is
	// loaded from (or generated into) the data directory.
	SecretHex string
	// Key is the resolved 32 byte signing key, set at startup.
	Key []byte
}

// Flags carries values bound to command-line flags. Empty fields fall
// through to the environment and then to defaults.
type Flags struct {
	EnvFile             string
	Env                 string
	LogLevel            string
	LogFormat           string
	DataPath            string
	DBDriver            string
	DBDSN               string
	Port                string
	TokenFormat         string
	AccessTokenDuration string
}

// Load builds configuration with precedence:
// 1. Command-line flags.
// 2. Environment variables.
// 3. .env file.
// 4. Default values.
func Load(flags Flags) (*Config, error) {
	envFile := flags.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %q: %w", envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(flags.Env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(flags.LogLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue(flags.LogFormat, "LOG_FORMAT", ""),
		},
		Data: DataConfig{
			Path: getConfigValue(flags.DataPath, "DATA_PATH", ""),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getConfigValue(flags.DBDriver, "DB_DRIVER", DriverSQLite)),
			DSN:          getConfigValue(flags.DBDSN, "DB_DSN", ""),
			MaxOpenConns: getIntConfigValue("", "DB_MAX_OPEN_CONNS", 4),
		},
		Server: ServerConfig{
			Port:           getConfigValue(flags.Port, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue("", "CORS_ALLOWED_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			TokenFormat: strings.ToLower(getConfigValue(flags.TokenFormat, "AUTH_TOKEN_FORMAT", TokenFormatJWT)),
			SecretHex:   getConfigValue("", "AUTH_SECRET", ""),
		},
	}

	durations := []struct {
		flag   string
		envKey string
		def    string
		name   string
		target *time.Duration
	}{
		{flags.AccessTokenDuration, "ACCESS_TOKEN_DURATION", "10m", "access token duration", &cfg.Auth.AccessTokenDuration},
		{"", "SERVER_READ_TIMEOUT", "15s", "read timeout", &cfg.Server.ReadTimeout},
		{"", "SERVER_WRITE_TIMEOUT", "15s", "write timeout", &cfg.Server.WriteTimeout},
		{"", "SERVER_IDLE_TIMEOUT", "60s", "idle timeout", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.target = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Database.Driver == DriverSQLite && cfg.Database.DSN == "" {
		cfg.Database.DSN = filepath.Join(cfg.Data.Path, "library.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
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

	switch c.Logger.Format {
	case "", "json", "pretty":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite or postgres)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database DSN cannot be empty")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.Database.MaxOpenConns)
	}

	switch c.Auth.TokenFormat {
	case TokenFormatJWT, TokenFormatPASETO:
	default:
		return fmt.Errorf("invalid token format: %s (must be jwt or paseto)", c.Auth.TokenFormat)
	}
	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("access token duration must be positive")
	}
	if c.Auth.SecretHex != "" && len(c.Auth.SecretHex) != 64 {
		return fmt.Errorf("AUTH_SECRET must be 64 hex characters, got %d", len(c.Auth.SecretHex))
	}

	if c.Data.Path == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
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

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.Path, filepath.Join(homeDir, ".librarian"))
	if err != nil {
		return err
	}
	c.Data.Path = expanded
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
// Unparseable values fall back to the default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
