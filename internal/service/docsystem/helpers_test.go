package docsystem

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"

	models "hrdocs/internal/domain/models/docsystem"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
	"hrdocs/internal/repository/memory"
)

func ptr(s string) *string { return &s }

func folder(id string, parent *string, name string) models.Item {
	return models.Item{ID: id, EmployeeID: "emp-1", Type: models.ItemTypeFolder, ParentID: parent, Name: name}
}

func file(id string, parent *string, name string) models.Item {
	return models.Item{ID: id, EmployeeID: "emp-1", Type: models.ItemTypeFile, ParentID: parent, Name: name, ContentRef: "data:text/plain;base64,eA==", SizeBytes: 1}
}

func owned(item models.Item, role models.Role) models.Item {
	item.OwnerRole = role
	return item
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func names(items []models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

// fixedPointClosure is the reference definition of a folder's delete set:
// repeatedly add any item whose parent is already in the set.
func fixedPointClosure(items []models.Item, rootID string) []string {
	set := map[string]bool{rootID: true}
	for {
		added := false
		for _, it := range items {
			if it.ParentID != nil && set[*it.ParentID] && !set[it.ID] {
				set[it.ID] = true
				added = true
			}
		}
		if !added {
			break
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

// seedStore persists items (parents before children) with their fixed ids
func seedStore(t *testing.T, items ...models.Item) *memory.ItemStore {
	t.Helper()
	ctx := context.Background()
	store := memory.NewItemStore()
	for _, it := range items {
		var err error
		if it.IsFolder() {
			_, err = store.CreateFolder(ctx, it.EmployeeID, docsysRepo.NewFolder{
				ID: it.ID, ParentID: it.ParentID, Name: it.Name, OwnerRole: it.OwnerRole,
			})
		} else {
			_, err = store.UploadFiles(ctx, it.EmployeeID, it.ParentID, []docsysRepo.NewFile{{
				ID: it.ID, Name: it.Name, OwnerRole: it.OwnerRole, SizeBytes: it.SizeBytes,
				MimeType: it.MimeType, ContentRef: it.ContentRef,
			}})
		}
		if err != nil {
			t.Fatalf("seed %s: %v", it.ID, err)
		}
	}
	return store
}

func listAll(t *testing.T, store docsysRepo.ItemStore) []models.Item {
	t.Helper()
	items, err := store.List(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	return items
}

func findByName(items []models.Item, name string) *models.Item {
	for i := range items {
		if items[i].Name == name {
			return &items[i]
		}
	}
	return nil
}

// faultyStore fails selected operations. failAfter lets the first n calls
// of an operation through before failing.
type faultyStore struct {
	docsysRepo.ItemStore
	failOp    string
	failAfter int
	calls     map[string]int
}

func newFaultyStore(next docsysRepo.ItemStore, op string, after int) *faultyStore {
	return &faultyStore{ItemStore: next, failOp: op, failAfter: after, calls: make(map[string]int)}
}

var errBackendDown = errors.New("backend down")

func (s *faultyStore) hit(op string) error {
	s.calls[op]++
	if op == s.failOp && s.calls[op] > s.failAfter {
		return errBackendDown
	}
	return nil
}

func (s *faultyStore) List(ctx context.Context, employeeID string) ([]models.Item, error) {
	if err := s.hit("list"); err != nil {
		return nil, err
	}
	return s.ItemStore.List(ctx, employeeID)
}

func (s *faultyStore) CreateFolder(ctx context.Context, employeeID string, folder docsysRepo.NewFolder) (*models.Item, error) {
	if err := s.hit("create_folder"); err != nil {
		return nil, err
	}
	return s.ItemStore.CreateFolder(ctx, employeeID, folder)
}

func (s *faultyStore) UploadFiles(ctx context.Context, employeeID string, parentID *string, files []docsysRepo.NewFile) ([]models.Item, error) {
	if err := s.hit("upload_files"); err != nil {
		return nil, err
	}
	return s.ItemStore.UploadFiles(ctx, employeeID, parentID, files)
}

func (s *faultyStore) Rename(ctx context.Context, employeeID, itemID, newName string) error {
	if err := s.hit("rename"); err != nil {
		return err
	}
	return s.ItemStore.Rename(ctx, employeeID, itemID, newName)
}

func (s *faultyStore) Delete(ctx context.Context, employeeID string, itemIDs []string) error {
	if err := s.hit("delete"); err != nil {
		return err
	}
	return s.ItemStore.Delete(ctx, employeeID, itemIDs)
}
