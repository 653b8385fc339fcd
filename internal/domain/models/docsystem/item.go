package docsystem

import (
	"strings"
	"time"
)

// ItemType discriminates folders from files. Immutable after creation.
type ItemType string

const (
	ItemTypeFolder ItemType = "folder"
	ItemTypeFile   ItemType = "file"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	return t == ItemTypeFolder || t == ItemTypeFile
}

// Role is both a viewer role and the role context an item was created under.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleManagement Role = "Management"
	RoleSecurity   Role = "Security"
	RoleNone       Role = ""
)

// ParseRole normalizes a role string. Known roles match case-insensitively;
// anything else is kept verbatim (unknown roles still resolve under visibility).
func ParseRole(s string) Role {
	s = strings.TrimSpace(s)
	for _, known := range []Role{RoleAdmin, RoleManagement, RoleSecurity} {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return Role(s)
}

// Item is a folder or file record of one employee's document tree.
// Storage is flat: the hierarchy is expressed only through ParentID.
type Item struct {
	ID         string   `json:"id"`
	EmployeeID string   `json:"employee_id"`
	Type       ItemType `json:"type"`
	ParentID   *string  `json:"parent_id"` // nil = root level
	Name       string   `json:"name"`
	OwnerRole  Role     `json:"owner_role,omitempty"`

	// File-only attributes
	SizeBytes  int64      `json:"size_bytes,omitempty"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
	MimeType   string     `json:"mime_type,omitempty"`
	ContentRef string     `json:"-"` // opaque content handle, never exposed to clients

	CreatedAt time.Time `json:"created_at"`
}

// IsFolder reports whether the item is a folder.
func (i *Item) IsFolder() bool { return i.Type == ItemTypeFolder }

// IsFile reports whether the item is a file.
func (i *Item) IsFile() bool { return i.Type == ItemTypeFile }

// HasContent reports whether a file item carries a content handle.
func (i *Item) HasContent() bool { return i.IsFile() && i.ContentRef != "" }

// IsRoot reports whether the item lives at the root level.
func (i *Item) IsRoot() bool { return i.ParentID == nil }

// ParentKey returns the adjacency key of a parent reference ("" for root).
func ParentKey(parentID *string) string {
	if parentID == nil {
		return ""
	}
	return *parentID
}

// IsValidParent reports whether candidateParentID is nil (root) or resolves
// to an existing folder in items.
func IsValidParent(items []Item, candidateParentID *string) bool {
	if candidateParentID == nil {
		return true
	}
	for i := range items {
		if items[i].ID == *candidateParentID {
			return items[i].IsFolder()
		}
	}
	return false
}

// Breadcrumb is one segment of the path from root to the current folder.
// The root crumb has a nil ID.
type Breadcrumb struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// ItemRef identifies a selected item.
type ItemRef struct {
	Type ItemType `json:"type"`
	ID   string   `json:"id"`
}

// ClipboardEntry is the copy buffer, scoped to one employee.
type ClipboardEntry struct {
	EmployeeID string   `json:"employee_id"`
	Type       ItemType `json:"type"`
	ID         string   `json:"id"`
}
