package docsystem

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hrdocs/internal/domain"
	models "hrdocs/internal/domain/models/docsystem"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
)

// instrumentedStore bounds every store call with a timeout, records metrics
// and classifies backend failures as StoreError.
type instrumentedStore struct {
	next    docsysRepo.ItemStore
	timeout time.Duration
	logger  *slog.Logger
}

// NewInstrumentedStore wraps an ItemStore. timeout <= 0 disables the deadline.
func NewInstrumentedStore(next docsysRepo.ItemStore, timeout time.Duration, logger *slog.Logger) docsysRepo.ItemStore {
	return &instrumentedStore{next: next, timeout: timeout, logger: logger}
}

func (s *instrumentedStore) List(ctx context.Context, employeeID string) ([]models.Item, error) {
	var items []models.Item
	err := s.call(ctx, "list", func(ctx context.Context) error {
		var err error
		items, err = s.next.List(ctx, employeeID)
		return err
	})
	return items, err
}

func (s *instrumentedStore) CreateFolder(ctx context.Context, employeeID string, folder docsysRepo.NewFolder) (*models.Item, error) {
	var item *models.Item
	err := s.call(ctx, "create_folder", func(ctx context.Context) error {
		var err error
		item, err = s.next.CreateFolder(ctx, employeeID, folder)
		return err
	})
	return item, err
}

func (s *instrumentedStore) UploadFiles(ctx context.Context, employeeID string, parentID *string, files []docsysRepo.NewFile) ([]models.Item, error) {
	var items []models.Item
	err := s.call(ctx, "upload_files", func(ctx context.Context) error {
		var err error
		items, err = s.next.UploadFiles(ctx, employeeID, parentID, files)
		return err
	})
	return items, err
}

func (s *instrumentedStore) Rename(ctx context.Context, employeeID, itemID, newName string) error {
	return s.call(ctx, "rename", func(ctx context.Context) error {
		return s.next.Rename(ctx, employeeID, itemID, newName)
	})
}

func (s *instrumentedStore) Delete(ctx context.Context, employeeID string, itemIDs []string) error {
	return s.call(ctx, "delete", func(ctx context.Context) error {
		return s.next.Delete(ctx, employeeID, itemIDs)
	})
}

func (s *instrumentedStore) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	storeOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrValidation):
		status = "rejected"
	default:
		status = "error"
		s.logger.Error("item store call failed", "op", op, "duration", time.Since(start), "error", err)
	}
	storeOpsTotal.WithLabelValues(op, status).Inc()

	return domain.WrapStore(op, err)
}
