package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("CONTENT_BACKEND", "")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.StoreBackend != StoreMemory {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, StoreMemory)
	}
	if cfg.ContentBackend != ContentInline {
		t.Errorf("ContentBackend = %q, want %q", cfg.ContentBackend, ContentInline)
	}
	if cfg.StoreTimeout != 10*time.Second {
		t.Errorf("StoreTimeout = %v, want 10s", cfg.StoreTimeout)
	}
	if cfg.TablePrefix != "dev_" {
		t.Errorf("TablePrefix = %q, want dev_", cfg.TablePrefix)
	}
	if !cfg.ArchiveEnabled {
		t.Error("ArchiveEnabled should default to true")
	}
}

func TestLoad_TablePrefixFromEnvironment(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"prod", "prod_"},
		{"test", "test_"},
		{"dev", "dev_"},
		{"staging", "dev_"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			t.Setenv("TABLE_PREFIX", "")

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.TablePrefix != tt.want {
				t.Errorf("TablePrefix = %q, want %q", cfg.TablePrefix, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			StoreBackend:     StoreMemory,
			ContentBackend:   ContentInline,
			StoreTimeout:     time.Second,
			SessionCacheSize: 10,
			MaxUploadBytes:   1024,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"unknown store", func(c *Config) { c.StoreBackend = "mongo" }, true},
		{"postgres without url", func(c *Config) { c.StoreBackend = StorePostgres }, true},
		{"postgres with url", func(c *Config) {
			c.StoreBackend = StorePostgres
			c.DatabaseURL = "postgres://localhost/explorer"
		}, false},
		{"sqlite without path", func(c *Config) { c.StoreBackend = StoreSQLite }, true},
		{"s3 without credentials", func(c *Config) { c.ContentBackend = ContentS3 }, true},
		{"disk without dir", func(c *Config) { c.ContentBackend = ContentDisk }, true},
		{"unknown content", func(c *Config) { c.ContentBackend = "ftp" }, true},
		{"zero timeout", func(c *Config) { c.StoreTimeout = 0 }, true},
		{"zero cache size", func(c *Config) { c.SessionCacheSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetupLogFile_RotatesOldFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"explorer-2024-01-01T00-00-00.log",
		"explorer-2024-01-02T00-00-00.log",
		"explorer-2024-01-03T00-00-00.log",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	f, err := SetupLogFile(dir, 2)
	if err != nil {
		t.Fatalf("SetupLogFile() error = %v", err)
	}
	defer f.Close()

	files, _ := filepath.Glob(filepath.Join(dir, "explorer-*.log"))
	if len(files) != 2 {
		t.Fatalf("expected 2 log files after rotation, got %d", len(files))
	}
	if _, err := os.Stat(filepath.Join(dir, "explorer-2024-01-01T00-00-00.log")); !os.IsNotExist(err) {
		t.Error("oldest log file should have been removed")
	}
}
