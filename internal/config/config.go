package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Content backends
const (
	ContentInline = "inline"
	ContentDisk   = "disk"
	ContentS3     = "s3"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`
	TablePrefix string `env:"TABLE_PREFIX"`

	// Item store
	StoreBackend string        `env:"STORE_BACKEND" envDefault:"memory"`
	SQLitePath   string        `env:"SQLITE_PATH" envDefault:"data/explorer.db"`
	DatabaseURL  string        `env:"DATABASE_URL"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`

	// Content store
	ContentBackend string `env:"CONTENT_BACKEND" envDefault:"inline"`
	ContentDir     string `env:"CONTENT_DIR" envDefault:"data/content"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3Region       string `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3Bucket       string `env:"S3_BUCKET" envDefault:"employee-documents"`
	S3UseSSL       bool   `env:"S3_USE_SSL" envDefault:"false"`

	// Explorer sessions
	SessionCacheSize int           `env:"SESSION_CACHE_SIZE" envDefault:"512"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	CollationLocale  string        `env:"COLLATION_LOCALE" envDefault:"en"`
	ArchiveEnabled   bool          `env:"ARCHIVE_ENABLED" envDefault:"true"`
	MaxUploadBytes   int64         `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`

	// Auth (empty JWKS URL = trust X-Viewer-Role header, dev only)
	JWKSURL string `env:"JWKS_URL"`

	// Logging
	LogDir      string `env:"LOG_DIR"`
	LogMaxFiles int    `env:"LOG_MAX_FILES" envDefault:"5"`
}

// Load parses configuration from the environment.
// Call godotenv.Load() beforehand to pick up a .env file.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.ContentBackend = strings.ToLower(strings.TrimSpace(cfg.ContentBackend))
	if cfg.TablePrefix == "" {
		cfg.TablePrefix = getTablePrefix(cfg.Environment)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend-specific requirements.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (supported: memory, sqlite, postgres)", c.StoreBackend)
	}

	switch c.ContentBackend {
	case ContentInline:
	case ContentDisk:
		if c.ContentDir == "" {
			return fmt.Errorf("CONTENT_DIR is required for the disk content store")
		}
	case ContentS3:
		if c.S3Endpoint == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY are required for the s3 content store")
		}
	default:
		return fmt.Errorf("unknown CONTENT_BACKEND %q (supported: inline, disk, s3)", c.ContentBackend)
	}

	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.SessionCacheSize <= 0 {
		return fmt.Errorf("SESSION_CACHE_SIZE must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// IsDev reports whether the service runs in the dev environment.
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}
