// Package sqlite implements the ItemStore on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"hrdocs/internal/domain"
	"hrdocs/internal/domain/models/docsystem"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
)

const currentSchemaVersion = 1

// deleteChunkSize keeps IN (...) lists well under SQLite's variable limit
const deleteChunkSize = 500

// ItemStore implements docsysRepo.ItemStore using SQLite.
type ItemStore struct {
	db    *sql.DB
	path  string
	table string
	now   func() time.Time
}

// NewItemStore opens (and migrates) the database at path.
// tablePrefix follows the environment prefix convention (dev_, test_, prod_).
func NewItemStore(path, tablePrefix string) (*ItemStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer; pragmas below then apply to the only connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &ItemStore{
		db:    db,
		path:  path,
		table: tablePrefix + "employee_items",
		now:   time.Now,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

var _ docsysRepo.ItemStore = (*ItemStore)(nil)

// Path returns the database file path.
func (s *ItemStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *ItemStore) Close() error {
	return s.db.Close()
}

// migrate runs schema migrations tracked in a per-prefix version table.
func (s *ItemStore) migrate() error {
	versionTable := s.table + "_schema_version"
	if _, err := s.db.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (version INTEGER PRIMARY KEY)`, versionTable)); err != nil {
		return err
	}

	var version int
	err := s.db.QueryRow(fmt.Sprintf(`SELECT COALESCE(MAX(version), 0) FROM %s`, versionTable)).Scan(&version)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %[1]s (
				employee_id TEXT NOT NULL,
				id          TEXT NOT NULL,
				type        TEXT NOT NULL CHECK (type IN ('folder', 'file')),
				parent_id   TEXT,
				name        TEXT NOT NULL,
				owner_role  TEXT NOT NULL DEFAULT '',
				size_bytes  INTEGER NOT NULL DEFAULT 0,
				uploaded_at TEXT,
				mime_type   TEXT NOT NULL DEFAULT '',
				content_ref TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL,
				PRIMARY KEY (employee_id, id)
			);

			CREATE INDEX IF NOT EXISTS idx_%[1]s_parent ON %[1]s(employee_id, parent_id);

			INSERT OR REPLACE INTO %[2]s (version) VALUES (%[3]d);
		`, s.table, versionTable, currentSchemaVersion)
		if _, err := s.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// List returns every item of the employee
func (s *ItemStore) List(ctx context.Context, employeeID string) ([]docsystem.Item, error) {
	query := fmt.Sprintf(`
		SELECT id, employee_id, type, parent_id, name, owner_role,
		       size_bytes, uploaded_at, mime_type, content_ref, created_at
		FROM %s
		WHERE employee_id = ?
		ORDER BY created_at, id
	`, s.table)

	rows, err := s.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]docsystem.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// CreateFolder persists a new folder
func (s *ItemStore) CreateFolder(ctx context.Context, employeeID string, folder docsysRepo.NewFolder) (*docsystem.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.checkParent(ctx, tx, employeeID, folder.ParentID); err != nil {
		return nil, err
	}

	item := docsystem.Item{
		ID:         idOrNew(folder.ID),
		EmployeeID: employeeID,
		Type:       docsystem.ItemTypeFolder,
		ParentID:   folder.ParentID,
		Name:       folder.Name,
		OwnerRole:  folder.OwnerRole,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.insert(ctx, tx, item); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &item, nil
}

// UploadFiles persists all files in one transaction
func (s *ItemStore) UploadFiles(ctx context.Context, employeeID string, parentID *string, files []docsysRepo.NewFile) ([]docsystem.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.checkParent(ctx, tx, employeeID, parentID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created := make([]docsystem.Item, 0, len(files))
	for _, f := range files {
		uploadedAt := f.UploadedAt.UTC()
		if f.UploadedAt.IsZero() {
			uploadedAt = now
		}
		item := docsystem.Item{
			ID:         idOrNew(f.ID),
			EmployeeID: employeeID,
			Type:       docsystem.ItemTypeFile,
			ParentID:   parentID,
			Name:       f.Name,
			OwnerRole:  f.OwnerRole,
			SizeBytes:  f.SizeBytes,
			UploadedAt: &uploadedAt,
			MimeType:   f.MimeType,
			ContentRef: f.ContentRef,
			CreatedAt:  now,
		}
		if err := s.insert(ctx, tx, item); err != nil {
			return nil, err
		}
		created = append(created, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// Rename changes an item's name
func (s *ItemStore) Rename(ctx context.Context, employeeID, itemID, newName string) error {
	query := fmt.Sprintf(`UPDATE %s SET name = ? WHERE employee_id = ? AND id = ?`, s.table)
	result, err := s.db.ExecContext(ctx, query, newName, employeeID, itemID)
	if err != nil {
		return fmt.Errorf("rename item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename item: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes the given ids in one transaction
func (s *ItemStore) Delete(ctx context.Context, employeeID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(itemIDs); start += deleteChunkSize {
		end := min(start+deleteChunkSize, len(itemIDs))
		chunk := itemIDs[start:end]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		query := fmt.Sprintf(`DELETE FROM %s WHERE employee_id = ? AND id IN (%s)`, s.table, placeholders)

		args := make([]any, 0, len(chunk)+1)
		args = append(args, employeeID)
		for _, id := range chunk {
			args = append(args, id)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// checkParent enforces that parentID is nil or an existing folder of the employee
func (s *ItemStore) checkParent(ctx context.Context, tx *sql.Tx, employeeID string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	var itemType string
	query := fmt.Sprintf(`SELECT type FROM %s WHERE employee_id = ? AND id = ?`, s.table)
	err := tx.QueryRowContext(ctx, query, employeeID, *parentID).Scan(&itemType)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && itemType != string(docsystem.ItemTypeFolder)) {
		return fmt.Errorf("parent %s: %w", *parentID, domain.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("check parent: %w", err)
	}
	return nil
}

func (s *ItemStore) insert(ctx context.Context, tx *sql.Tx, item docsystem.Item) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (employee_id, id, type, parent_id, name, owner_role,
		                size_bytes, uploaded_at, mime_type, content_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.table)

	var uploadedAt sql.NullString
	if item.UploadedAt != nil {
		uploadedAt = sql.NullString{String: item.UploadedAt.Format(time.RFC3339Nano), Valid: true}
	}

	_, err := tx.ExecContext(ctx, query,
		item.EmployeeID,
		item.ID,
		string(item.Type),
		item.ParentID,
		item.Name,
		string(item.OwnerRole),
		item.SizeBytes,
		uploadedAt,
		item.MimeType,
		item.ContentRef,
		item.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("item id %s already exists: %w", item.ID, domain.ErrValidation)
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func scanItem(rows *sql.Rows) (docsystem.Item, error) {
	var (
		item       docsystem.Item
		itemType   string
		ownerRole  string
		parentID   sql.NullString
		uploadedAt sql.NullString
		createdAt  string
	)
	if err := rows.Scan(
		&item.ID,
		&item.EmployeeID,
		&itemType,
		&parentID,
		&item.Name,
		&ownerRole,
		&item.SizeBytes,
		&uploadedAt,
		&item.MimeType,
		&item.ContentRef,
		&createdAt,
	); err != nil {
		return item, err
	}

	item.Type = docsystem.ItemType(itemType)
	item.OwnerRole = docsystem.Role(ownerRole)
	if parentID.Valid {
		item.ParentID = &parentID.String
	}
	if uploadedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, uploadedAt.String); err == nil {
			item.UploadedAt = &t
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		item.CreatedAt = t
	}
	return item, nil
}

func idOrNew(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
