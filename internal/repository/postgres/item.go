package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrdocs/internal/domain"
	"hrdocs/internal/domain/models/docsystem"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
)

// PostgresItemStore implements the ItemStore interface
type PostgresItemStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewItemStore creates a new item store
func NewItemStore(config *RepositoryConfig) docsysRepo.ItemStore {
	return &PostgresItemStore{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// List returns every item of the employee
func (r *PostgresItemStore) List(ctx context.Context, employeeID string) ([]docsystem.Item, error) {
	query := fmt.Sprintf(`
		SELECT id, employee_id, type, parent_id, name, owner_role,
		       size_bytes, uploaded_at, mime_type, content_ref, created_at
		FROM %s
		WHERE employee_id = $1
		ORDER BY created_at, id
	`, r.tables.Items)

	rows, err := r.pool.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]docsystem.Item, 0)
	for rows.Next() {
		var (
			item      docsystem.Item
			itemType  string
			ownerRole string
		)
		if err := rows.Scan(
			&item.ID,
			&item.EmployeeID,
			&itemType,
			&item.ParentID,
			&item.Name,
			&ownerRole,
			&item.SizeBytes,
			&item.UploadedAt,
			&item.MimeType,
			&item.ContentRef,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Type = docsystem.ItemType(itemType)
		item.OwnerRole = docsystem.Role(ownerRole)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// CreateFolder persists a new folder
func (r *PostgresItemStore) CreateFolder(ctx context.Context, employeeID string, folder docsysRepo.NewFolder) (*docsystem.Item, error) {
	item := docsystem.Item{
		ID:         idOrNew(folder.ID),
		EmployeeID: employeeID,
		Type:       docsystem.ItemTypeFolder,
		ParentID:   folder.ParentID,
		Name:       folder.Name,
		OwnerRole:  folder.OwnerRole,
		CreatedAt:  time.Now().UTC(),
	}

	err := withTx(ctx, r.pool, r.logger, func(tx pgx.Tx) error {
		if err := r.checkParent(ctx, tx, employeeID, folder.ParentID); err != nil {
			return err
		}
		return r.insert(ctx, tx, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UploadFiles persists all files in one transaction
func (r *PostgresItemStore) UploadFiles(ctx context.Context, employeeID string, parentID *string, files []docsysRepo.NewFile) ([]docsystem.Item, error) {
	now := time.Now().UTC()
	created := make([]docsystem.Item, 0, len(files))

	err := withTx(ctx, r.pool, r.logger, func(tx pgx.Tx) error {
		if err := r.checkParent(ctx, tx, employeeID, parentID); err != nil {
			return err
		}
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
			if err := r.insert(ctx, tx, &item); err != nil {
				return err
			}
			created = append(created, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("files inserted",
		"employee_id", employeeID,
		"count", len(created),
	)
	return created, nil
}

// Rename changes an item's name
func (r *PostgresItemStore) Rename(ctx context.Context, employeeID, itemID, newName string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1
		WHERE employee_id = $2 AND id = $3
	`, r.tables.Items)

	result, err := r.pool.Exec(ctx, query, newName, employeeID, itemID)
	if err != nil {
		return fmt.Errorf("rename item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a batch of items in a single statement
func (r *PostgresItemStore) Delete(ctx context.Context, employeeID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE employee_id = $1 AND id = ANY($2)
	`, r.tables.Items)

	result, err := r.pool.Exec(ctx, query, employeeID, itemIDs)
	if err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	r.logger.Debug("items deleted",
		"employee_id", employeeID,
		"requested", len(itemIDs),
		"deleted", result.RowsAffected(),
	)
	return nil
}

// checkParent enforces that parentID is nil or an existing folder of the employee
func (r *PostgresItemStore) checkParent(ctx context.Context, tx pgx.Tx, employeeID string, parentID *string) error {
	if parentID == nil {
		return nil
	}

	query := fmt.Sprintf(`
		SELECT type FROM %s
		WHERE employee_id = $1 AND id = $2
		FOR SHARE
	`, r.tables.Items)

	var itemType string
	err := tx.QueryRow(ctx, query, employeeID, *parentID).Scan(&itemType)
	if err != nil {
		if isPgNoRowsError(err) {
			return fmt.Errorf("parent %s: %w", *parentID, domain.ErrValidation)
		}
		return fmt.Errorf("check parent: %w", err)
	}
	if itemType != string(docsystem.ItemTypeFolder) {
		return fmt.Errorf("parent %s is not a folder: %w", *parentID, domain.ErrValidation)
	}
	return nil
}

func (r *PostgresItemStore) insert(ctx context.Context, tx pgx.Tx, item *docsystem.Item) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (employee_id, id, type, parent_id, name, owner_role,
		                size_bytes, uploaded_at, mime_type, content_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.tables.Items)

	_, err := tx.Exec(ctx, query,
		item.EmployeeID,
		item.ID,
		string(item.Type),
		item.ParentID,
		item.Name,
		string(item.OwnerRole),
		item.SizeBytes,
		item.UploadedAt,
		item.MimeType,
		item.ContentRef,
		item.CreatedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("item id %s already exists: %w", item.ID, domain.ErrValidation)
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func idOrNew(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
