package docsystem

import (
	"context"

	"hrdocs/internal/domain/models/docsystem"
)

// MutationEngine creates, renames, deletes and duplicates items.
// Every operation reads the authoritative list from the store first.
type MutationEngine interface {
	// CreateFolder persists a new folder under req.ParentID (nil = root)
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*docsystem.Item, error)

	// Rename renames an item; an empty name after trimming is a no-op
	Rename(ctx context.Context, req *RenameRequest) (*RenameResult, error)

	// Delete removes a file, or a folder together with its transitive closure
	Delete(ctx context.Context, req *DeleteRequest) (*DeleteResult, error)

	// Paste duplicates the clipboard item under req.TargetParentID
	Paste(ctx context.Context, req *PasteRequest) (*PasteResult, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	EmployeeID string         `json:"-"`
	ParentID   *string        `json:"parent_id"`
	Name       string         `json:"name"`
	OwnerRole  docsystem.Role `json:"-"` // role context of the creating viewer
}

// RenameRequest represents a rename request
type RenameRequest struct {
	EmployeeID string         `json:"-"`
	ItemID     string         `json:"-"`
	Name       string         `json:"name"`
	Viewer     docsystem.Role `json:"-"`
}

// RenameResult reports whether the rename persisted anything
type RenameResult struct {
	Item    *docsystem.Item `json:"item,omitempty"`
	Changed bool            `json:"changed"`
}

// DeleteRequest represents a delete request
type DeleteRequest struct {
	EmployeeID string
	ItemID     string
	Viewer     docsystem.Role
}

// DeleteResult describes what was removed
type DeleteResult struct {
	Item       docsystem.Item `json:"item"`        // the item the user asked to delete
	DeletedIDs []string       `json:"deleted_ids"` // item + descendants, pre-order
}

// PasteRequest represents a paste of the clipboard into a folder
type PasteRequest struct {
	EmployeeID     string
	Clipboard      *docsystem.ClipboardEntry
	TargetParentID *string
	Viewer         docsystem.Role
}

// PasteResult describes the duplicated subtree
type PasteResult struct {
	Root    docsystem.Item   `json:"root"`
	Created []docsystem.Item `json:"created"` // pre-order, root first
	Folders int              `json:"folders"`
	Files   int              `json:"files"`
}
