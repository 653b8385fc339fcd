package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
	"hrdocs/internal/repository/storetest"
)

func newTestStore(t *testing.T) *ItemStore {
	t.Helper()
	store, err := NewItemStore(filepath.Join(t.TempDir(), "explorer.db"), "test_")
	if err != nil {
		t.Fatalf("NewItemStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestItemStore_Contract(t *testing.T) {
	storetest.RunItemStoreTests(t, func(t *testing.T) docsysRepo.ItemStore {
		return newTestStore(t)
	})
}

func TestItemStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "explorer.db")

	store, err := NewItemStore(path, "test_")
	if err != nil {
		t.Fatalf("NewItemStore() error = %v", err)
	}
	folder, err := store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{Name: "Contracts"})
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if _, err := store.UploadFiles(ctx, "emp-1", &folder.ID, []docsysRepo.NewFile{{Name: "offer.pdf", ContentRef: "ref"}}); err != nil {
		t.Fatalf("UploadFiles() error = %v", err)
	}
	store.Close()

	// migrations must be idempotent on reopen
	reopened, err := NewItemStore(path, "test_")
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	items, err := reopened.List(ctx, "emp-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items after reopen, got %d", len(items))
	}
	if reopened.Path() != path {
		t.Errorf("Path() = %q, want %q", reopened.Path(), path)
	}
}

func TestItemStore_TablePrefixesAreIndependent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "explorer.db")

	dev, err := NewItemStore(path, "dev_")
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()
	test, err := NewItemStore(path, "test_")
	if err != nil {
		t.Fatal(err)
	}
	defer test.Close()

	if _, err := dev.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{Name: "A"}); err != nil {
		t.Fatal(err)
	}
	items, err := test.List(ctx, "emp-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("test_ table should be empty, got %d items", len(items))
	}
}

func TestItemStore_DeleteLargeBatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	files := make([]docsysRepo.NewFile, 1200)
	for i := range files {
		files[i] = docsysRepo.NewFile{Name: "f", ContentRef: "r"}
	}
	created, err := store.UploadFiles(ctx, "emp-1", nil, files)
	if err != nil {
		t.Fatal(err)
	}

	ids := make([]string, len(created))
	for i, it := range created {
		ids[i] = it.ID
	}
	if err := store.Delete(ctx, "emp-1", ids); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	items, _ := store.List(ctx, "emp-1")
	if len(items) != 0 {
		t.Errorf("expected empty store, got %d", len(items))
	}
}
