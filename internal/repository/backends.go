// Package repository selects the configured item and content store backends.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"hrdocs/internal/config"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
	"hrdocs/internal/repository/content"
	"hrdocs/internal/repository/memory"
	"hrdocs/internal/repository/postgres"
	"hrdocs/internal/repository/sqlite"
)

// OpenItemStore connects the configured item store backend. Postgres
// schemas are migrated first. The returned closer releases connections.
func OpenItemStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docsysRepo.ItemStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		store, err := sqlite.NewItemStore(cfg.SQLitePath, cfg.TablePrefix)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite store opened", "path", cfg.SQLitePath)
		return store, func() { _ = store.Close() }, nil

	case config.StorePostgres:
		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.Migrate(cfg.DatabaseURL, tables, cfg.TablePrefix, logger); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("database connected", "table_prefix", cfg.TablePrefix)
		store := postgres.NewItemStore(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		})
		return store, pool.Close, nil

	case config.StoreMemory:
		logger.Warn("using in-memory item store; documents are lost on restart")
		return memory.NewItemStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// OpenContentStore builds a content router writing to the configured
// backend. Inline data refs stay readable under every backend.
func OpenContentStore(cfg *config.Config) (*content.Router, error) {
	inline := content.NewInlineStore()

	switch cfg.ContentBackend {
	case config.ContentDisk:
		disk, err := content.NewDiskStore(cfg.ContentDir)
		if err != nil {
			return nil, err
		}
		return content.NewRouter(disk, inline), nil

	case config.ContentS3:
		s3, err := content.NewS3Store(content.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return content.NewRouter(s3, inline), nil

	case config.ContentInline:
		return content.NewRouter(inline), nil

	default:
		return nil, fmt.Errorf("unknown content backend %q", cfg.ContentBackend)
	}
}
