// Package config loads and validates application configuration from
// environment variables, optionally layered over a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for the API server.
// Values are populated by Load. Environment variables win over the file.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// OverdueCommitSchedule is a cron spec with seconds for persisting
	// derived overdue statuses. Empty disables the scheduler.
	OverdueCommitSchedule string

	// MigrateOnStart applies pending migrations before serving. Defaults to true.
	MigrateOnStart bool

	// DefaultLedger is committed by the scheduler when no ledger is stored yet.
	DefaultLedger string
}

// fileConfig is the YAML shape read from CONFIG_FILE.
type fileConfig struct {
	Port                  string   `yaml:"port"`
	DatabaseURL           string   `yaml:"database_url"`
	LogLevel              string   `yaml:"log_level"`
	CORSOrigins           []string `yaml:"cors_origins"`
	MaxBodyBytes          int64    `yaml:"max_body_bytes"`
	OverdueCommitSchedule string   `yaml:"overdue_commit_schedule"`
	MigrateOnStart        *bool    `yaml:"migrate_on_start"`
	DefaultLedger         string   `yaml:"default_ledger"`
}

const defaultMaxBodyBytes = 1 << 20

// Load reads configuration from environment variables and returns a Config.
// If CONFIG_FILE names a YAML file, its values replace the built-in defaults.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		f, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		file = f
	}

	cfg := Config{
		Port:                  getEnv("PORT", or(file.Port, "8080")),
		DatabaseURL:           getEnv("DATABASE_URL", file.DatabaseURL),
		LogLevel:              getEnv("LOG_LEVEL", or(file.LogLevel, "info")),
		CORSOrigins:           splitCSV(getEnv("CORS_ORIGINS", or(strings.Join(file.CORSOrigins, ","), "http://localhost:5173"))),
		OverdueCommitSchedule: getEnv("OVERDUE_COMMIT_SCHEDULE", file.OverdueCommitSchedule),
		DefaultLedger:         getEnv("DEFAULT_LEDGER", or(file.DefaultLedger, "default")),
		MaxBodyBytes:          defaultMaxBodyBytes,
		MigrateOnStart:        true,
	}
	if file.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = file.MaxBodyBytes
	}
	if file.MigrateOnStart != nil {
		cfg.MigrateOnStart = *file.MigrateOnStart
	}

	var missing, invalid []string

	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			invalid = append(invalid, "MAX_BODY_BYTES")
		}
		cfg.MaxBodyBytes = n
	}
	if v := os.Getenv("MIGRATE_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, "MIGRATE_ON_START")
		}
		cfg.MigrateOnStart = b
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// readFile parses the YAML config file at path.
func readFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fileConfig{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return f, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
