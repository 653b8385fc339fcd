package explorer

import (
	"errors"

	"hrdocs/internal/domain"
	docsysSvc "hrdocs/internal/domain/services/docsystem"
)

// errStale marks a result discarded because the session moved on
var errStale = errors.New("stale result discarded")

// IsStale reports whether err means the operation finished after the session
// was closed or switched to another employee
func IsStale(err error) bool {
	return errors.Is(err, errStale)
}

// notificationFor maps an operation error to its single user-facing message
func notificationFor(err error) (string, docsysSvc.Level) {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrScope),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrContentUnavailable):
		return err.Error(), docsysSvc.LevelWarn
	case errors.Is(err, domain.ErrCapabilityUnavailable):
		return err.Error(), docsysSvc.LevelError
	case errors.Is(err, domain.ErrStore):
		var storeErr *domain.StoreError
		if errors.As(err, &storeErr) && storeErr.Err != nil {
			return "Document store error: " + storeErr.Err.Error(), docsysSvc.LevelError
		}
		return "Document store error", docsysSvc.LevelError
	default:
		return "Unexpected error: " + err.Error(), docsysSvc.LevelError
	}
}
