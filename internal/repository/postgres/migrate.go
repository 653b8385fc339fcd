package postgres

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// prefixPlaceholder is replaced with the table prefix in every migration file
const prefixPlaceholder = "{{prefix}}"

// Migrate applies the embedded SQL migrations for the given table prefix.
// Each prefix tracks its own version in "<prefix>schema_migrations".
func Migrate(databaseURL string, tables *TableNames, prefix string, logger *slog.Logger) error {
	source, err := iofs.New(prefixedFS{base: migrationsFS, prefix: prefix}, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbURL, err := migrationURL(databaseURL, tables.Migrations)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("migrations applied",
		"version", version,
		"dirty", dirty,
		"table", tables.Items,
	)
	return nil
}

// migrationURL rewrites a postgres:// URL to the pgx5:// scheme golang-migrate expects.
func migrationURL(databaseURL, migrationsTable string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql", "pgx5":
	default:
		return "", fmt.Errorf("unsupported database url scheme %q", u.Scheme)
	}
	u.Scheme = "pgx5"

	q := u.Query()
	q.Set("x-migrations-table", migrationsTable)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// prefixedFS renders the table prefix into migration files on read.
type prefixedFS struct {
	base   fs.FS
	prefix string
}

func (p prefixedFS) Open(name string) (fs.File, error) {
	f, err := p.base.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		return f, nil
	}

	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, err
	}
	rendered := strings.ReplaceAll(string(data), prefixPlaceholder, p.prefix)
	return &renderedFile{
		Reader: strings.NewReader(rendered),
		info:   renderedInfo{FileInfo: info, size: int64(len(rendered))},
	}, nil
}

func (p prefixedFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(p.base, name)
}

type renderedFile struct {
	*strings.Reader
	info fs.FileInfo
}

func (f *renderedFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *renderedFile) Close() error               { return nil }

type renderedInfo struct {
	fs.FileInfo
	size int64
}

func (i renderedInfo) Size() int64 { return i.size }
