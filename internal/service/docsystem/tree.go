package docsystem

import (
	"hrdocs/internal/config"
	models "hrdocs/internal/domain/models/docsystem"
)

// Index is an adjacency view over one employee's flat item list.
// It is rebuilt from every fetch and never mutated afterwards, so it is safe
// for concurrent readers. Visibility is applied per query, never cached.
type Index struct {
	items    []models.Item       // sorted by name (collation order)
	byID     map[string]int     // id -> position in items
	children map[string][]string // parent key ("" = root) -> child ids, name order
	policy   *Policy
}

// NewIndex builds the index. nil policy or collator select the defaults.
func NewIndex(items []models.Item, policy *Policy, collator *NameCollator) *Index {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if collator == nil {
		collator = defaultCollator()
	}

	sorted := make([]models.Item, len(items))
	copy(sorted, items)
	collator.SortItems(sorted)

	idx := &Index{
		items:    sorted,
		byID:     make(map[string]int, len(sorted)),
		children: make(map[string][]string),
		policy:   policy,
	}
	for i := range sorted {
		idx.byID[sorted[i].ID] = i
	}
	for i := range sorted {
		key := models.ParentKey(sorted[i].ParentID)
		idx.children[key] = append(idx.children[key], sorted[i].ID)
	}
	return idx
}

// Items returns the indexed items in name order
func (x *Index) Items() []models.Item {
	return x.items
}

// Len returns the number of items
func (x *Index) Len() int {
	return len(x.items)
}

// Get looks up an item by id
func (x *Index) Get(id string) (*models.Item, bool) {
	i, ok := x.byID[id]
	if !ok {
		return nil, false
	}
	return &x.items[i], true
}

// CanSee applies the index policy
func (x *Index) CanSee(item *models.Item, role models.Role) bool {
	return x.policy.CanSee(item, role)
}

// GetVisible looks up an item the viewer may see
func (x *Index) GetVisible(id string, role models.Role) (*models.Item, bool) {
	item, ok := x.Get(id)
	if !ok || !x.policy.CanSee(item, role) {
		return nil, false
	}
	return item, true
}

// IsFolder reports whether id is nil (root) or resolves to a folder
func (x *Index) IsFolder(id *string) bool {
	if id == nil {
		return true
	}
	item, ok := x.Get(*id)
	return ok && item.IsFolder()
}

// Breadcrumbs walks from currentFolderID up to the root and returns the path
// root first. A dangling or repeated parent is treated as reaching the root,
// and so is the first folder the viewer cannot see.
func (x *Index) Breadcrumbs(currentFolderID *string, role models.Role) []models.Breadcrumb {
	var trail []models.Breadcrumb
	seen := make(map[string]struct{})

	for id := currentFolderID; id != nil; {
		item, ok := x.GetVisible(*id, role)
		if !ok {
			break
		}
		if _, loop := seen[item.ID]; loop {
			break
		}
		seen[item.ID] = struct{}{}

		itemID := item.ID
		trail = append(trail, models.Breadcrumb{ID: &itemID, Name: item.Name})
		id = item.ParentID
	}

	crumbs := make([]models.Breadcrumb, 0, len(trail)+1)
	crumbs = append(crumbs, models.Breadcrumb{ID: nil, Name: config.RootLabel})
	for i := len(trail) - 1; i >= 0; i-- {
		crumbs = append(crumbs, trail[i])
	}
	return crumbs
}

// ChildFolders returns the visible folders directly under parentID, name order
func (x *Index) ChildFolders(parentID *string, role models.Role) []models.Item {
	return x.childrenOfType(parentID, models.ItemTypeFolder, role)
}

// ChildFiles returns the visible files directly under parentID, name order
func (x *Index) ChildFiles(parentID *string, role models.Role) []models.Item {
	return x.childrenOfType(parentID, models.ItemTypeFile, role)
}

func (x *Index) childrenOfType(parentID *string, itemType models.ItemType, role models.Role) []models.Item {
	out := make([]models.Item, 0)
	for _, id := range x.children[models.ParentKey(parentID)] {
		item, _ := x.Get(id)
		if item.Type == itemType && x.policy.CanSee(item, role) {
			out = append(out, *item)
		}
	}
	return out
}

// Closure returns id followed by all of its transitive descendants in
// pre-order. It is equivalent to the fixed-point expansion "add every item
// whose parent is already in the set until nothing changes".
func (x *Index) Closure(id string) []string {
	if _, ok := x.Get(id); !ok {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	var walk func(string)
	walk = func(cur string) {
		if _, dup := seen[cur]; dup {
			return
		}
		seen[cur] = struct{}{}
		out = append(out, cur)
		for _, child := range x.children[cur] {
			walk(child)
		}
	}
	walk(id)
	return out
}

// Descendants returns the transitive descendants of id (excluding id)
func (x *Index) Descendants(id string) []string {
	closure := x.Closure(id)
	if len(closure) == 0 {
		return nil
	}
	return closure[1:]
}

// IsDescendant reports whether id lies strictly below ancestorID
func (x *Index) IsDescendant(ancestorID, id string) bool {
	seen := make(map[string]struct{})
	item, ok := x.Get(id)
	for ok && item.ParentID != nil {
		parentID := *item.ParentID
		if parentID == ancestorID {
			return true
		}
		if _, loop := seen[parentID]; loop {
			return false
		}
		seen[parentID] = struct{}{}
		item, ok = x.Get(parentID)
	}
	return false
}

// Tree builds the nested, visibility-filtered folder tree for the sidebar.
// Folders hidden from the viewer are pruned together with their subtree.
func (x *Index) Tree(role models.Role) *models.TreeNode {
	folderMap := make(map[string]*models.FolderTreeNode)

	// First pass: create nodes for visible folders
	for i := range x.items {
		it := &x.items[i]
		if !it.IsFolder() || !x.policy.CanSee(it, role) {
			continue
		}
		folderMap[it.ID] = &models.FolderTreeNode{
			ID:        it.ID,
			Name:      it.Name,
			ParentID:  it.ParentID,
			OwnerRole: it.OwnerRole,
			CreatedAt: it.CreatedAt,
			Folders:   []*models.FolderTreeNode{},
			Files:     []models.FileTreeNode{},
		}
	}

	// Second pass: nest folders (items are in name order, so siblings are too)
	rootFolders := make([]*models.FolderTreeNode, 0)
	for i := range x.items {
		node, ok := folderMap[x.items[i].ID]
		if !ok {
			continue
		}
		if node.ParentID == nil {
			rootFolders = append(rootFolders, node)
		} else if parent, exists := folderMap[*node.ParentID]; exists {
			parent.Folders = append(parent.Folders, node)
		}
	}

	// Third pass: attach visible files
	rootFiles := make([]models.FileTreeNode, 0)
	for i := range x.items {
		it := &x.items[i]
		if !it.IsFile() || !x.policy.CanSee(it, role) {
			continue
		}
		fileNode := models.FileTreeNode{
			ID:         it.ID,
			Name:       it.Name,
			ParentID:   it.ParentID,
			SizeBytes:  it.SizeBytes,
			MimeType:   it.MimeType,
			UploadedAt: it.UploadedAt,
		}
		if it.ParentID == nil {
			rootFiles = append(rootFiles, fileNode)
		} else if parent, exists := folderMap[*it.ParentID]; exists {
			parent.Files = append(parent.Files, fileNode)
		}
	}

	return &models.TreeNode{
		Folders: rootFolders,
		Files:   rootFiles,
	}
}

// PathOf returns the folder names from the root down to parentID joined by "/"
func (x *Index) PathOf(parentID *string, role models.Role) string {
	crumbs := x.Breadcrumbs(parentID, role)
	path := crumbs[0].Name
	for _, c := range crumbs[1:] {
		path += "/" + c.Name
	}
	return path
}
