// Package memory provides an in-process ItemStore, used for dev and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hrdocs/internal/domain"
	"hrdocs/internal/domain/models/docsystem"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
)

// ItemStore keeps each employee's items as a flat, insertion-ordered slice.
type ItemStore struct {
	mu    sync.RWMutex
	items map[string][]docsystem.Item
	now   func() time.Time
}

// NewItemStore creates an empty in-memory item store
func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[string][]docsystem.Item),
		now:   time.Now,
	}
}

var _ docsysRepo.ItemStore = (*ItemStore)(nil)

// List returns a copy of the employee's items
func (s *ItemStore) List(ctx context.Context, employeeID string) ([]docsystem.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.items[employeeID]
	out := make([]docsystem.Item, len(src))
	copy(out, src)
	return out, nil
}

// CreateFolder persists a new folder
func (s *ItemStore) CreateFolder(ctx context.Context, employeeID string, folder docsysRepo.NewFolder) (*docsystem.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.items[employeeID]
	if !docsystem.IsValidParent(items, folder.ParentID) {
		return nil, fmt.Errorf("parent %s: %w", docsystem.ParentKey(folder.ParentID), domain.ErrValidation)
	}

	id, err := assignID(idSet(items), folder.ID)
	if err != nil {
		return nil, err
	}

	item := docsystem.Item{
		ID:         id,
		EmployeeID: employeeID,
		Type:       docsystem.ItemTypeFolder,
		ParentID:   cloneID(folder.ParentID),
		Name:       folder.Name,
		OwnerRole:  folder.OwnerRole,
		CreatedAt:  s.now().UTC(),
	}
	s.items[employeeID] = append(items, item)
	return &item, nil
}

// UploadFiles persists all files or none
func (s *ItemStore) UploadFiles(ctx context.Context, employeeID string, parentID *string, files []docsysRepo.NewFile) ([]docsystem.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.items[employeeID]
	if !docsystem.IsValidParent(items, parentID) {
		return nil, fmt.Errorf("parent %s: %w", docsystem.ParentKey(parentID), domain.ErrValidation)
	}

	now := s.now().UTC()
	created := make([]docsystem.Item, 0, len(files))
	taken := idSet(items)
	for _, f := range files {
		id, err := assignID(taken, f.ID)
		if err != nil {
			return nil, err
		}
		uploadedAt := f.UploadedAt.UTC()
		if f.UploadedAt.IsZero() {
			uploadedAt = now
		}
		item := docsystem.Item{
			ID:         id,
			EmployeeID: employeeID,
			Type:       docsystem.ItemTypeFile,
			ParentID:   cloneID(parentID),
			Name:       f.Name,
			OwnerRole:  f.OwnerRole,
			SizeBytes:  f.SizeBytes,
			UploadedAt: &uploadedAt,
			MimeType:   f.MimeType,
			ContentRef: f.ContentRef,
			CreatedAt:  now,
		}
		created = append(created, item)
	}

	s.items[employeeID] = append(items, created...)
	return created, nil
}

// Rename changes an item's name
func (s *ItemStore) Rename(ctx context.Context, employeeID, itemID, newName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.items[employeeID]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Name = newName
			return nil
		}
	}
	return fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
}

// Delete removes the given ids; unknown ids are ignored
func (s *ItemStore) Delete(ctx context.Context, employeeID string, itemIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		doomed[id] = struct{}{}
	}

	items := s.items[employeeID]
	kept := items[:0]
	for _, item := range items {
		if _, ok := doomed[item.ID]; !ok {
			kept = append(kept, item)
		}
	}
	s.items[employeeID] = kept
	return nil
}

// assignID returns the requested id or a fresh UUID and marks it taken
func assignID(taken map[string]struct{}, requested string) (string, error) {
	id := requested
	if id == "" {
		id = uuid.NewString()
	}
	if _, dup := taken[id]; dup {
		return "", fmt.Errorf("item id %s already exists: %w", id, domain.ErrValidation)
	}
	taken[id] = struct{}{}
	return id, nil
}

func idSet(items []docsystem.Item) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for i := range items {
		set[items[i].ID] = struct{}{}
	}
	return set
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
