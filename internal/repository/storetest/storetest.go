// Package storetest holds the behavioral contract every ItemStore must meet.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdocs/internal/domain"
	"hrdocs/internal/domain/models/docsystem"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
)

// RunItemStoreTests exercises an ItemStore implementation.
// newStore must return an empty store for every call.
func RunItemStoreTests(t *testing.T, newStore func(t *testing.T) docsysRepo.ItemStore) {
	t.Run("ListEmpty", func(t *testing.T) {
		items, err := newStore(t).List(context.Background(), "emp-1")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("CreateFolderAtRootAndNested", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		root, err := store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{Name: "Contracts", OwnerRole: docsystem.RoleAdmin})
		require.NoError(t, err)
		assert.NotEmpty(t, root.ID)
		assert.Nil(t, root.ParentID)
		assert.Equal(t, docsystem.ItemTypeFolder, root.Type)
		assert.Equal(t, "emp-1", root.EmployeeID)
		assert.Equal(t, docsystem.RoleAdmin, root.OwnerRole)

		child, err := store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{ID: "fixed-id", ParentID: &root.ID, Name: "2024"})
		require.NoError(t, err)
		assert.Equal(t, "fixed-id", child.ID)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, root.ID, *child.ParentID)

		items, err := store.List(ctx, "emp-1")
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("CreateFolderRejectsInvalidParent", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		missing := "missing"
		_, err := store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{ParentID: &missing, Name: "x"})
		assert.ErrorIs(t, err, domain.ErrValidation)

		files, err := store.UploadFiles(ctx, "emp-1", nil, []docsysRepo.NewFile{{Name: "a.txt", ContentRef: "ref"}})
		require.NoError(t, err)
		_, err = store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{ParentID: &files[0].ID, Name: "under a file"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("EmployeesAreIsolated", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		folder, err := store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{ID: "shared-id", Name: "A"})
		require.NoError(t, err)

		// same id is fine for another employee
		_, err = store.CreateFolder(ctx, "emp-2", docsysRepo.NewFolder{ID: "shared-id", Name: "B"})
		require.NoError(t, err)

		// parent of another employee does not resolve
		_, err = store.CreateFolder(ctx, "emp-3", docsysRepo.NewFolder{ParentID: &folder.ID, Name: "C"})
		assert.ErrorIs(t, err, domain.ErrValidation)

		items, err := store.List(ctx, "emp-2")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "B", items[0].Name)
	})

	t.Run("DuplicateIDRejected", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		_, err := store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{ID: "dup", Name: "A"})
		require.NoError(t, err)
		_, err = store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{ID: "dup", Name: "B"})
		assert.Error(t, err)
	})

	t.Run("UploadFilesPersistsAttributes", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		folder, err := store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{Name: "Payroll"})
		require.NoError(t, err)

		uploadedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		created, err := store.UploadFiles(ctx, "emp-1", &folder.ID, []docsysRepo.NewFile{
			{Name: "march.pdf", SizeBytes: 1234, MimeType: "application/pdf", ContentRef: "ref-1", UploadedAt: uploadedAt, OwnerRole: docsystem.RoleSecurity},
			{Name: "april.pdf", SizeBytes: 10, MimeType: "application/pdf", ContentRef: "ref-2"},
		})
		require.NoError(t, err)
		require.Len(t, created, 2)

		items, err := store.List(ctx, "emp-1")
		require.NoError(t, err)
		byName := map[string]docsystem.Item{}
		for _, it := range items {
			byName[it.Name] = it
		}

		march := byName["march.pdf"]
		assert.Equal(t, docsystem.ItemTypeFile, march.Type)
		require.NotNil(t, march.ParentID)
		assert.Equal(t, folder.ID, *march.ParentID)
		assert.Equal(t, int64(1234), march.SizeBytes)
		assert.Equal(t, "application/pdf", march.MimeType)
		assert.Equal(t, "ref-1", march.ContentRef)
		assert.Equal(t, docsystem.RoleSecurity, march.OwnerRole)
		require.NotNil(t, march.UploadedAt)
		assert.True(t, march.UploadedAt.Equal(uploadedAt))

		april := byName["april.pdf"]
		require.NotNil(t, april.UploadedAt, "zero UploadedAt defaults to now")
	})

	t.Run("UploadFilesInvalidParentPersistsNothing", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		missing := "missing"
		_, err := store.UploadFiles(ctx, "emp-1", &missing, []docsysRepo.NewFile{{Name: "a"}})
		assert.ErrorIs(t, err, domain.ErrValidation)

		items, err := store.List(ctx, "emp-1")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("Rename", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		folder, err := store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{Name: "Old"})
		require.NoError(t, err)

		require.NoError(t, store.Rename(ctx, "emp-1", folder.ID, "New"))
		items, err := store.List(ctx, "emp-1")
		require.NoError(t, err)
		assert.Equal(t, "New", items[0].Name)

		err = store.Rename(ctx, "emp-1", "missing", "x")
		assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)

		err = store.Rename(ctx, "emp-2", folder.ID, "x")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("DeleteBatch", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		a, err := store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{Name: "A"})
		require.NoError(t, err)
		b, err := store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{ParentID: &a.ID, Name: "B"})
		require.NoError(t, err)
		files, err := store.UploadFiles(ctx, "emp-1", &b.ID, []docsysRepo.NewFile{{Name: "x.pdf", ContentRef: "r"}})
		require.NoError(t, err)
		keep, err := store.CreateFolder(ctx, "emp-1", docsysRepo.NewFolder{Name: "Keep"})
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, "emp-1", []string{a.ID, b.ID, files[0].ID, "unknown"}))

		items, err := store.List(ctx, "emp-1")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, keep.ID, items[0].ID)

		require.NoError(t, store.Delete(ctx, "emp-1", nil))
	})
}
