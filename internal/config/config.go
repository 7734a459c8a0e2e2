package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig holds the target Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN returns the lib/pq connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Config is the migrator configuration.
type Config struct {
	Database DatabaseConfig

	Snapshot struct {
		// Path to a local snapshot artifact (.json or .xlsx).
		Path string
		// URL of a hosted JSON export (e.g. a Supabase storage object).
		// Used when Path is empty.
		URL string
	}

	// ReportPath: where the reconciliation report is written.
	// Empty means stdout.
	ReportPath string

	// DryRun: run the full pipeline against an in-memory target store
	// instead of Postgres. No rows are written anywhere.
	DryRun bool

	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from environment variables with local-dev defaults.
func Load() *Config {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "hospicrm")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "4"), 4)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "2"), 2)

	cfg.Snapshot.Path = getEnv("SNAPSHOT_PATH", "")
	cfg.Snapshot.URL = getEnv("SNAPSHOT_URL", "")

	cfg.ReportPath = getEnv("REPORT_PATH", "")
	cfg.DryRun = getEnv("DRY_RUN", "false") == "true"

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
