package docsystem

import (
	"context"
	"errors"
	"strings"
	"testing"

	"hrdocs/internal/domain"
	models "hrdocs/internal/domain/models/docsystem"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
	docsysSvc "hrdocs/internal/domain/services/docsystem"
)

func newTestMutationEngine(store docsysRepo.ItemStore) docsysSvc.MutationEngine {
	return NewMutationEngine(store, nil, nil, discardLogger())
}

func TestMutationEngine_CreateFolder(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t,
		folder("a", nil, "A"),
		file("f", nil, "x.pdf"),
	)
	engine := newTestMutationEngine(store)

	tests := []struct {
		name     string
		parentID *string
		input    string
		wantErr  error
		wantName string
	}{
		{"root", nil, "Contracts", nil, "Contracts"},
		{"nested and trimmed", ptr("a"), "  Reviews  ", nil, "Reviews"},
		{"empty parent string means root", ptr(""), "Root2", nil, "Root2"},
		{"blank name", nil, "   ", domain.ErrValidation, ""},
		{"too long", nil, strings.Repeat("n", 256), domain.ErrValidation, ""},
		{"missing parent", ptr("nope"), "X", domain.ErrValidation, ""},
		{"file parent", ptr("f"), "X", domain.ErrValidation, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(listAll(t, store))
			got, err := engine.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{
				EmployeeID: "emp-1",
				ParentID:   tt.parentID,
				Name:       tt.input,
				OwnerRole:  models.RoleManagement,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CreateFolder() error = %v, want %v", err, tt.wantErr)
				}
				if after := len(listAll(t, store)); after != before {
					t.Errorf("store changed on error: %d -> %d items", before, after)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateFolder() error = %v", err)
			}
			if got.Name != tt.wantName || !got.IsFolder() || got.OwnerRole != models.RoleManagement {
				t.Errorf("CreateFolder() = %+v", got)
			}
		})
	}
}

func TestMutationEngine_CreateFolderStoreFailure(t *testing.T) {
	store := newFaultyStore(seedStore(t), "create_folder", 0)
	_, err := newTestMutationEngine(store).CreateFolder(context.Background(), &docsysSvc.CreateFolderRequest{
		EmployeeID: "emp-1",
		Name:       "A",
	})
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("error = %v, want ErrStore", err)
	}
	var storeErr *domain.StoreError
	if !errors.As(err, &storeErr) || !errors.Is(storeErr.Err, errBackendDown) {
		t.Errorf("store error should wrap the backend failure, got %v", err)
	}
}

func TestMutationEngine_Rename(t *testing.T) {
	ctx := context.Background()
	base := seedStore(t,
		folder("a", nil, "A"),
		owned(file("secret", nil, "secret.pdf"), models.RoleAdmin),
	)
	// any store call past List fails, proving no-ops never write
	store := newFaultyStore(base, "rename", 1)
	engine := newTestMutationEngine(store)

	t.Run("empty name is a no-op", func(t *testing.T) {
		res, err := engine.Rename(ctx, &docsysSvc.RenameRequest{EmployeeID: "emp-1", ItemID: "a", Name: "  "})
		if err != nil || res.Changed {
			t.Fatalf("Rename() = %+v, %v", res, err)
		}
		if store.calls["list"] != 0 {
			t.Error("cancelled rename should not reach the store")
		}
	})

	t.Run("renames", func(t *testing.T) {
		res, err := engine.Rename(ctx, &docsysSvc.RenameRequest{EmployeeID: "emp-1", ItemID: "a", Name: " Archive "})
		if err != nil {
			t.Fatalf("Rename() error = %v", err)
		}
		if !res.Changed || res.Item.Name != "Archive" {
			t.Errorf("Rename() = %+v", res)
		}
		if got, _ := NewIndex(listAll(t, base), nil, nil).Get("a"); got.Name != "Archive" {
			t.Errorf("stored name = %q", got.Name)
		}
	})

	t.Run("same name is idempotent", func(t *testing.T) {
		res, err := engine.Rename(ctx, &docsysSvc.RenameRequest{EmployeeID: "emp-1", ItemID: "a", Name: "Archive"})
		if err != nil {
			t.Fatalf("Rename() error = %v", err)
		}
		if res.Changed {
			t.Error("renaming to the current name should not persist")
		}
		if store.calls["rename"] != 1 {
			t.Errorf("rename calls = %d, want 1", store.calls["rename"])
		}
	})

	t.Run("invisible item is not found", func(t *testing.T) {
		_, err := engine.Rename(ctx, &docsysSvc.RenameRequest{
			EmployeeID: "emp-1", ItemID: "secret", Name: "renamed", Viewer: models.RoleSecurity,
		})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("too long", func(t *testing.T) {
		_, err := engine.Rename(ctx, &docsysSvc.RenameRequest{EmployeeID: "emp-1", ItemID: "a", Name: strings.Repeat("é", 256)})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})
}

func TestMutationEngine_DeleteFolderClosure(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t,
		folder("keep", nil, "Keep"),
		file("keep-file", ptr("keep"), "k.pdf"),
	)
	engine := newTestMutationEngine(store)
	before := sorted(idsOf(listAll(t, store)))

	a, err := engine.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{EmployeeID: "emp-1", Name: "A"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := engine.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{EmployeeID: "emp-1", ParentID: &a.ID, Name: "B"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.UploadFiles(ctx, "emp-1", &b.ID, []docsysRepo.NewFile{{Name: "x.pdf", ContentRef: "data:,x"}}); err != nil {
		t.Fatal(err)
	}

	res, err := engine.Delete(ctx, &docsysSvc.DeleteRequest{EmployeeID: "emp-1", ItemID: a.ID})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(res.DeletedIDs) != 3 || res.DeletedIDs[0] != a.ID {
		t.Errorf("DeletedIDs = %v", res.DeletedIDs)
	}
	if after := sorted(idsOf(listAll(t, store))); strings.Join(after, ",") != strings.Join(before, ",") {
		t.Errorf("items after delete = %v, want %v", after, before)
	}
}

func TestMutationEngine_DeleteIncludesHiddenDescendants(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t,
		owned(folder("sec", nil, "Security"), models.RoleSecurity),
		owned(file("hidden", ptr("sec"), "admin.pdf"), models.RoleAdmin),
		owned(file("shown", ptr("sec"), "sec.pdf"), models.RoleSecurity),
	)
	engine := newTestMutationEngine(store)

	if _, err := engine.Delete(ctx, &docsysSvc.DeleteRequest{EmployeeID: "emp-1", ItemID: "sec", Viewer: models.RoleSecurity}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if left := listAll(t, store); len(left) != 0 {
		t.Errorf("orphans left behind: %v", idsOf(left))
	}
}

func TestMutationEngine_DeleteErrors(t *testing.T) {
	ctx := context.Background()
	base := seedStore(t,
		file("f", nil, "x.pdf"),
		owned(file("admin", nil, "a.pdf"), models.RoleAdmin),
	)

	engine := newTestMutationEngine(base)
	if _, err := engine.Delete(ctx, &docsysSvc.DeleteRequest{EmployeeID: "emp-1", ItemID: "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing item: error = %v", err)
	}
	if _, err := engine.Delete(ctx, &docsysSvc.DeleteRequest{EmployeeID: "emp-1", ItemID: "admin", Viewer: models.RoleManagement}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("invisible item: error = %v", err)
	}

	failing := newTestMutationEngine(newFaultyStore(base, "delete", 0))
	if _, err := failing.Delete(ctx, &docsysSvc.DeleteRequest{EmployeeID: "emp-1", ItemID: "f"}); !errors.Is(err, domain.ErrStore) {
		t.Errorf("store failure: error = %v", err)
	}
	if len(listAll(t, base)) != 2 {
		t.Error("failed delete must leave the tree unchanged")
	}
}

func TestMutationEngine_PasteFile(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t,
		folder("c", nil, "C"),
		file("x", nil, "x.pdf"),
	)
	engine := newTestMutationEngine(store)

	res, err := engine.Paste(ctx, &docsysSvc.PasteRequest{
		EmployeeID:     "emp-1",
		Clipboard:      &models.ClipboardEntry{EmployeeID: "emp-1", Type: models.ItemTypeFile, ID: "x"},
		TargetParentID: ptr("c"),
	})
	if err != nil {
		t.Fatalf("Paste() error = %v", err)
	}

	idx := NewIndex(listAll(t, store), nil, nil)
	inC := idx.ChildFiles(ptr("c"), models.RoleAdmin)
	if len(inC) != 1 || inC[0].Name != "x.pdf" {
		t.Fatalf("files in C = %v", names(inC))
	}
	if inC[0].ID == "x" || res.Root.ID != inC[0].ID {
		t.Errorf("pasted file must get a new id, got %s", inC[0].ID)
	}
	original, ok := idx.Get("x")
	if !ok || original.ParentID != nil {
		t.Error("original file must stay in place")
	}
	if inC[0].ContentRef != original.ContentRef {
		t.Error("pasted file should share the content ref")
	}
	if res.Files != 1 || res.Folders != 0 {
		t.Errorf("counts = %d files, %d folders", res.Files, res.Folders)
	}
}

func TestMutationEngine_PasteFolderFidelity(t *testing.T) {
	ctx := context.Background()
	source := []models.Item{
		folder("a", nil, "A"),
		file("a1", ptr("a"), "one.pdf"),
		folder("b", ptr("a"), "B"),
		file("b1", ptr("b"), "two.pdf"),
		file("b2", ptr("b"), "two.pdf"),
		folder("c", ptr("b"), "C"),
		owned(folder("d", ptr("a"), "D"), models.RoleSecurity),
		owned(file("d1", ptr("d"), "three.pdf"), models.RoleSecurity),
		folder("target", nil, "Target"),
	}
	store := seedStore(t, source...)
	engine := newTestMutationEngine(store)

	res, err := engine.Paste(ctx, &docsysSvc.PasteRequest{
		EmployeeID:     "emp-1",
		Clipboard:      &models.ClipboardEntry{EmployeeID: "emp-1", Type: models.ItemTypeFolder, ID: "a"},
		TargetParentID: ptr("target"),
	})
	if err != nil {
		t.Fatalf("Paste() error = %v", err)
	}

	// 4 files, 3 descendant folders + the root copy
	if res.Files != 4 || res.Folders != 4 || len(res.Created) != 8 {
		t.Fatalf("counts = %d files, %d folders, %d created", res.Files, res.Folders, len(res.Created))
	}
	if res.Root.Name != "A - copy" || res.Root.ParentID == nil || *res.Root.ParentID != "target" {
		t.Errorf("root = %+v", res.Root)
	}

	sourceIDs := make(map[string]bool)
	for _, it := range source {
		sourceIDs[it.ID] = true
	}
	// pre-order: every parent precedes its children and ids are fresh
	position := map[string]int{}
	for i, it := range res.Created {
		if sourceIDs[it.ID] {
			t.Errorf("copy reuses source id %s", it.ID)
		}
		position[it.ID] = i
		if i > 0 {
			p, ok := position[*it.ParentID]
			if !ok || p >= i {
				t.Errorf("%s created before its parent", it.Name)
			}
		}
	}

	items := listAll(t, store)
	idx := NewIndex(items, nil, nil)
	if got, want := relativePaths(idx, res.Root.ID), relativePaths(idx, "a"); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("copied structure = %v, want %v", got, want)
	}
	if len(items) != len(source)+8 {
		t.Errorf("store holds %d items, want %d", len(items), len(source)+8)
	}
	if d := findByName(res.Created, "D"); d == nil || d.OwnerRole != models.RoleSecurity {
		t.Error("copied folders keep their owner role")
	}
}

func TestMutationEngine_PasteSkipsHiddenDescendants(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t,
		owned(folder("a", nil, "A"), models.RoleManagement),
		owned(file("a1", ptr("a"), "review.pdf"), models.RoleManagement),
		owned(file("a2", ptr("a"), "salary.pdf"), models.RoleAdmin),
		owned(folder("h", ptr("a"), "Legal"), models.RoleAdmin),
		owned(file("h1", ptr("h"), "case.pdf"), models.RoleManagement),
		owned(folder("target", nil, "Target"), models.RoleManagement),
	)
	engine := newTestMutationEngine(store)

	res, err := engine.Paste(ctx, &docsysSvc.PasteRequest{
		EmployeeID:     "emp-1",
		Clipboard:      &models.ClipboardEntry{EmployeeID: "emp-1", Type: models.ItemTypeFolder, ID: "a"},
		TargetParentID: ptr("target"),
		Viewer:         models.RoleManagement,
	})
	if err != nil {
		t.Fatalf("Paste() error = %v", err)
	}
	if res.Folders != 1 || res.Files != 1 {
		t.Fatalf("counts = %d folders, %d files, want 1 and 1", res.Folders, res.Files)
	}
	if got := names(res.Created); strings.Join(got, "|") != "A - copy|review.pdf" {
		t.Errorf("created = %v", got)
	}
	// 6 seeded + 2 copies
	if n := len(listAll(t, store)); n != 8 {
		t.Errorf("store holds %d items, want 8", n)
	}
}

func TestMutationEngine_PasteRejections(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t,
		folder("a", nil, "A"),
		folder("b", ptr("a"), "B"),
		file("x", nil, "x.pdf"),
		owned(file("secret", nil, "s.pdf"), models.RoleAdmin),
	)
	engine := newTestMutationEngine(store)
	clip := func(typ models.ItemType, id string) *models.ClipboardEntry {
		return &models.ClipboardEntry{EmployeeID: "emp-1", Type: typ, ID: id}
	}

	tests := []struct {
		name    string
		req     docsysSvc.PasteRequest
		wantErr error
	}{
		{"empty clipboard", docsysSvc.PasteRequest{EmployeeID: "emp-1"}, domain.ErrScope},
		{"other employee", docsysSvc.PasteRequest{
			EmployeeID: "emp-1",
			Clipboard:  &models.ClipboardEntry{EmployeeID: "emp-2", Type: models.ItemTypeFile, ID: "x"},
		}, domain.ErrScope},
		{"source gone", docsysSvc.PasteRequest{EmployeeID: "emp-1", Clipboard: clip(models.ItemTypeFile, "gone")}, domain.ErrNotFound},
		{"source hidden", docsysSvc.PasteRequest{
			EmployeeID: "emp-1", Clipboard: clip(models.ItemTypeFile, "secret"), Viewer: models.RoleSecurity,
		}, domain.ErrNotFound},
		{"target missing", docsysSvc.PasteRequest{
			EmployeeID: "emp-1", Clipboard: clip(models.ItemTypeFile, "x"), TargetParentID: ptr("nope"),
		}, domain.ErrValidation},
		{"target is a file", docsysSvc.PasteRequest{
			EmployeeID: "emp-1", Clipboard: clip(models.ItemTypeFile, "x"), TargetParentID: ptr("x"),
		}, domain.ErrValidation},
		{"into itself", docsysSvc.PasteRequest{
			EmployeeID: "emp-1", Clipboard: clip(models.ItemTypeFolder, "a"), TargetParentID: ptr("a"),
		}, domain.ErrValidation},
		{"into descendant", docsysSvc.PasteRequest{
			EmployeeID: "emp-1", Clipboard: clip(models.ItemTypeFolder, "a"), TargetParentID: ptr("b"),
		}, domain.ErrValidation},
	}

	before := len(listAll(t, store))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := engine.Paste(ctx, &req); !errors.Is(err, tt.wantErr) {
				t.Errorf("Paste() error = %v, want %v", err, tt.wantErr)
			}
			if after := len(listAll(t, store)); after != before {
				t.Errorf("tree changed: %d -> %d items", before, after)
			}
		})
	}
}

func TestMutationEngine_PastePartialFailure(t *testing.T) {
	ctx := context.Background()
	base := seedStore(t,
		folder("a", nil, "A"),
		folder("b", ptr("a"), "B"),
		folder("c", ptr("b"), "C"),
	)
	// root copy and B copy succeed, C copy fails
	engine := newTestMutationEngine(newFaultyStore(base, "create_folder", 2))

	_, err := engine.Paste(ctx, &docsysSvc.PasteRequest{
		EmployeeID: "emp-1",
		Clipboard:  &models.ClipboardEntry{EmployeeID: "emp-1", Type: models.ItemTypeFolder, ID: "a"},
	})
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("Paste() error = %v, want ErrStore", err)
	}
	if got := len(listAll(t, base)); got != 5 {
		t.Errorf("items = %d, want the 2 folders created before the failure to remain", got)
	}
}

func idsOf(items []models.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// relativePaths lists "type:path" for every descendant of root, root excluded
func relativePaths(idx *Index, root string) []string {
	var out []string
	var walk func(id, prefix string)
	walk = func(id, prefix string) {
		for _, f := range idx.ChildFiles(&id, models.RoleAdmin) {
			out = append(out, "file:"+prefix+f.Name)
		}
		for _, d := range idx.ChildFolders(&id, models.RoleAdmin) {
			out = append(out, "folder:"+prefix+d.Name)
			walk(d.ID, prefix+d.Name+"/")
		}
	}
	walk(root, "")
	return out
}
