package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrdocs/internal/config"
	"hrdocs/internal/domain"
	models "hrdocs/internal/domain/models/docsystem"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
	docsysSvc "hrdocs/internal/domain/services/docsystem"
)

type mutationEngine struct {
	store    docsysRepo.ItemStore
	policy   *Policy
	collator *NameCollator
	newID    func() string
	now      func() time.Time
	logger   *slog.Logger
}

// NewMutationEngine creates a new mutation engine. nil policy or collator
// select the defaults.
func NewMutationEngine(
	store docsysRepo.ItemStore,
	policy *Policy,
	collator *NameCollator,
	logger *slog.Logger,
) docsysSvc.MutationEngine {
	return &mutationEngine{
		store:    store,
		policy:   policy,
		collator: collator,
		newID:    uuid.NewString,
		now:      time.Now,
		logger:   logger,
	}
}

// load fetches the authoritative list and indexes it
func (e *mutationEngine) load(ctx context.Context, employeeID string) (*Index, error) {
	items, err := e.store.List(ctx, employeeID)
	if err != nil {
		return nil, domain.WrapStore("list", err)
	}
	return NewIndex(items, e.policy, e.collator), nil
}

// CreateFolder creates a new folder
func (e *mutationEngine) CreateFolder(ctx context.Context, req *docsysSvc.CreateFolderRequest) (*models.Item, error) {
	if err := validateCreateFolderRequest(req); err != nil {
		return nil, err
	}

	idx, err := e.load(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !models.IsValidParent(idx.Items(), req.ParentID) {
		return nil, domain.NewValidationError("parent folder does not exist")
	}

	folder, err := e.store.CreateFolder(ctx, req.EmployeeID, docsysRepo.NewFolder{
		ParentID:  req.ParentID,
		Name:      req.Name,
		OwnerRole: req.OwnerRole,
	})
	if err != nil {
		return nil, domain.WrapStore("create_folder", err)
	}

	e.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"employee_id", req.EmployeeID,
		"parent_id", folder.ParentID,
		"owner_role", folder.OwnerRole,
	)
	return folder, nil
}

// Rename renames an item. An empty name (cancelled prompt) and an unchanged
// name are both no-ops that never reach the store.
func (e *mutationEngine) Rename(ctx context.Context, req *docsysSvc.RenameRequest) (*docsysSvc.RenameResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return &docsysSvc.RenameResult{Changed: false}, nil
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	idx, err := e.load(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	item, ok := idx.GetVisible(req.ItemID, req.Viewer)
	if !ok {
		return nil, domain.NewNotFoundError("item not found")
	}

	renamed := *item
	if item.Name == name {
		return &docsysSvc.RenameResult{Item: &renamed, Changed: false}, nil
	}

	if err := e.store.Rename(ctx, req.EmployeeID, item.ID, name); err != nil {
		return nil, domain.WrapStore("rename", err)
	}
	renamed.Name = name

	e.logger.Info("item renamed",
		"id", item.ID,
		"type", item.Type,
		"employee_id", req.EmployeeID,
		"old_name", item.Name,
		"new_name", name,
	)
	return &docsysSvc.RenameResult{Item: &renamed, Changed: true}, nil
}

// Delete removes a file, or a folder together with every transitive
// descendant in a single store call
func (e *mutationEngine) Delete(ctx context.Context, req *docsysSvc.DeleteRequest) (*docsysSvc.DeleteResult, error) {
	idx, err := e.load(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	item, ok := idx.GetVisible(req.ItemID, req.Viewer)
	if !ok {
		return nil, domain.NewNotFoundError("item not found")
	}

	ids := []string{item.ID}
	if item.IsFolder() {
		ids = idx.Closure(item.ID)
	}

	if err := e.store.Delete(ctx, req.EmployeeID, ids); err != nil {
		return nil, domain.WrapStore("delete", err)
	}

	e.logger.Info("item deleted",
		"id", item.ID,
		"type", item.Type,
		"employee_id", req.EmployeeID,
		"deleted_count", len(ids),
	)
	return &docsysSvc.DeleteResult{Item: *item, DeletedIDs: ids}, nil
}

// Paste duplicates the clipboard item under the target folder.
// Files get a new id and share the source content ref. Folders are copied
// depth-first in pre-order; only the subtree root is renamed.
func (e *mutationEngine) Paste(ctx context.Context, req *docsysSvc.PasteRequest) (*docsysSvc.PasteResult, error) {
	clip := req.Clipboard
	if clip == nil || clip.ID == "" {
		return nil, domain.NewScopeError("clipboard is empty")
	}
	if clip.EmployeeID != req.EmployeeID {
		return nil, domain.NewScopeError("clipboard belongs to another employee")
	}
	target := req.TargetParentID
	if target != nil && *target == "" {
		target = nil
	}

	idx, err := e.load(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	source, ok := idx.GetVisible(clip.ID, req.Viewer)
	if !ok || source.Type != clip.Type {
		return nil, domain.NewNotFoundError("copied item no longer exists")
	}
	if !idx.IsFolder(target) {
		return nil, domain.NewValidationError("target folder does not exist")
	}
	if source.IsFolder() && target != nil && (*target == source.ID || idx.IsDescendant(source.ID, *target)) {
		return nil, domain.NewValidationError("cannot paste a folder into itself")
	}

	p := &paster{engine: e, idx: idx, employeeID: req.EmployeeID, viewer: req.Viewer, seen: make(map[string]struct{})}
	var root models.Item
	if source.IsFile() {
		created, err := p.copyFiles(ctx, target, []models.Item{*source})
		if err != nil {
			return nil, err
		}
		root = created[0]
	} else {
		created, err := p.copyFolder(ctx, source, target, source.Name+config.CopySuffix)
		if err != nil {
			e.logger.Error("paste aborted",
				"source_id", source.ID,
				"employee_id", req.EmployeeID,
				"created_count", len(p.created),
				"error", err,
			)
			return nil, err
		}
		root = *created
	}

	result := &docsysSvc.PasteResult{
		Root:    root,
		Created: p.created,
		Folders: p.folders,
		Files:   p.files,
	}
	pastedItemsTotal.WithLabelValues(string(models.ItemTypeFolder)).Add(float64(p.folders))
	pastedItemsTotal.WithLabelValues(string(models.ItemTypeFile)).Add(float64(p.files))

	e.logger.Info("clipboard pasted",
		"source_id", source.ID,
		"root_id", root.ID,
		"employee_id", req.EmployeeID,
		"target_id", models.ParentKey(target),
		"folders", p.folders,
		"files", p.files,
	)
	return result, nil
}

// paster accumulates the items created by one paste
type paster struct {
	engine     *mutationEngine
	idx        *Index
	employeeID string
	viewer     models.Role
	seen       map[string]struct{}

	created []models.Item
	folders int
	files   int
}

// copyFolder creates the folder copy with a pre-assigned id, then its files,
// then recurses into subfolders. Only descendants the viewer can see are copied.
func (p *paster) copyFolder(ctx context.Context, src *models.Item, parentID *string, name string) (*models.Item, error) {
	if _, dup := p.seen[src.ID]; dup {
		return nil, nil
	}
	p.seen[src.ID] = struct{}{}

	folder, err := p.engine.store.CreateFolder(ctx, p.employeeID, docsysRepo.NewFolder{
		ID:        p.engine.newID(),
		ParentID:  parentID,
		Name:      name,
		OwnerRole: src.OwnerRole,
	})
	if err != nil {
		return nil, domain.WrapStore("create_folder", err)
	}
	p.created = append(p.created, *folder)
	p.folders++

	subfolders := p.idx.ChildFolders(&src.ID, p.viewer)
	if _, err := p.copyFiles(ctx, &folder.ID, p.idx.ChildFiles(&src.ID, p.viewer)); err != nil {
		return nil, err
	}
	for i := range subfolders {
		if _, err := p.copyFolder(ctx, &subfolders[i], &folder.ID, subfolders[i].Name); err != nil {
			return nil, err
		}
	}
	return folder, nil
}

func (p *paster) copyFiles(ctx context.Context, parentID *string, files []models.Item) ([]models.Item, error) {
	if len(files) == 0 {
		return nil, nil
	}
	now := p.engine.now()
	batch := make([]docsysRepo.NewFile, len(files))
	for i, f := range files {
		batch[i] = docsysRepo.NewFile{
			ID:         p.engine.newID(),
			Name:       f.Name,
			OwnerRole:  f.OwnerRole,
			SizeBytes:  f.SizeBytes,
			MimeType:   f.MimeType,
			ContentRef: f.ContentRef,
			UploadedAt: now,
		}
	}
	created, err := p.engine.store.UploadFiles(ctx, p.employeeID, parentID, batch)
	if err != nil {
		return nil, domain.WrapStore("upload_files", err)
	}
	if len(created) != len(batch) {
		return nil, domain.WrapStore("upload_files", fmt.Errorf("store persisted %d of %d files", len(created), len(batch)))
	}
	p.created = append(p.created, created...)
	p.files += len(created)
	return created, nil
}
