package docsystem

import (
	"context"
	"time"

	"hrdocs/internal/domain/models/docsystem"
)

// NewFolder describes a folder to persist. ID is optional: when set, the
// store must use it (paste pre-assigns ids so children can reference them).
type NewFolder struct {
	ID        string
	ParentID  *string
	Name      string
	OwnerRole docsystem.Role
}

// NewFile describes a file item to persist. ContentRef is a handle
// previously returned by a ContentStore (or copied from another item).
type NewFile struct {
	ID         string
	Name       string
	OwnerRole  docsystem.Role
	SizeBytes  int64
	MimeType   string
	ContentRef string
	UploadedAt time.Time
}

// ItemStore is the persistent item store. It is flat and employee-scoped:
// ids are unique per employee, and it does not know about subtrees.
type ItemStore interface {
	// List returns every item of the employee (any order)
	List(ctx context.Context, employeeID string) ([]docsystem.Item, error)

	// CreateFolder persists a new folder
	CreateFolder(ctx context.Context, employeeID string, folder NewFolder) (*docsystem.Item, error)

	// UploadFiles persists file items under parentID in one call
	UploadFiles(ctx context.Context, employeeID string, parentID *string, files []NewFile) ([]docsystem.Item, error)

	// Rename changes the name of an item
	Rename(ctx context.Context, employeeID, itemID, newName string) error

	// Delete removes a batch of items. Callers expand folder closures themselves.
	Delete(ctx context.Context, employeeID string, itemIDs []string) error
}
