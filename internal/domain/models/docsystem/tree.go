package docsystem

import "time"

// TreeNode represents the root of an employee's document tree
type TreeNode struct {
	Folders []*FolderTreeNode `json:"folders"`
	Files   []FileTreeNode    `json:"files"`
}

// FolderTreeNode represents a folder in the tree with nested children
type FolderTreeNode struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	ParentID  *string           `json:"parent_id"`
	OwnerRole Role              `json:"owner_role,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Folders   []*FolderTreeNode `json:"folders"` // Pointers for proper nesting
	Files     []FileTreeNode    `json:"files"`
}

// FileTreeNode represents a file in the tree (metadata only, no content)
type FileTreeNode struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	ParentID   *string    `json:"parent_id"`
	SizeBytes  int64      `json:"size_bytes"`
	MimeType   string     `json:"mime_type,omitempty"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
}

// CountFiles returns the number of files in the subtree rooted at n.
func (n *FolderTreeNode) CountFiles() int {
	total := len(n.Files)
	for _, child := range n.Folders {
		total += child.CountFiles()
	}
	return total
}
