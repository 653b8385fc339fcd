package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound              = errors.New("not found")
	ErrValidation            = errors.New("validation failed")
	ErrScope                 = errors.New("out of scope")
	ErrContentUnavailable    = errors.New("content unavailable")
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	ErrStore                 = errors.New("store failure")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates an item (or session) was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input (empty name, invalid parent, paste cycle)
	ValidationError struct {
		Message string
	}

	// ScopeError indicates an operation outside the current employee scope
	// (cross-employee paste, empty clipboard)
	ScopeError struct {
		Message string
	}

	// ContentUnavailableError indicates a file item without retrievable bytes
	ContentUnavailableError struct {
		ItemID  string
		Message string
	}

	// CapabilityUnavailableError indicates an optional capability (archive encoder)
	// could not be acquired
	CapabilityUnavailableError struct {
		Capability string
		Message    string
	}

	// StoreError wraps an opaque failure reported by the item or content store
	StoreError struct {
		Op  string
		Err error
	}
)

func (e *NotFoundError) Error() string              { return e.Message }
func (e *ValidationError) Error() string            { return e.Message }
func (e *ScopeError) Error() string                 { return e.Message }
func (e *ContentUnavailableError) Error() string    { return e.Message }
func (e *CapabilityUnavailableError) Error() string { return e.Message }

func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Op + ": store failure"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *NotFoundError) StatusCode() int              { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int            { return http.StatusBadRequest }
func (e *ScopeError) StatusCode() int                 { return http.StatusConflict }
func (e *ContentUnavailableError) StatusCode() int    { return http.StatusGone }
func (e *CapabilityUnavailableError) StatusCode() int { return http.StatusServiceUnavailable }
func (e *StoreError) StatusCode() int                 { return http.StatusBadGateway }

// Is implementations let errors.Is() match the typed errors against sentinels
func (e *NotFoundError) Is(target error) bool              { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool            { return target == ErrValidation }
func (e *ScopeError) Is(target error) bool                 { return target == ErrScope }
func (e *ContentUnavailableError) Is(target error) bool    { return target == ErrContentUnavailable }
func (e *CapabilityUnavailableError) Is(target error) bool { return target == ErrCapabilityUnavailable }
func (e *StoreError) Is(target error) bool                 { return target == ErrStore }

func (e *StoreError) Unwrap() error { return e.Err }

// NewValidationError is a shorthand for &ValidationError{Message: msg}
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// NewNotFoundError is a shorthand for &NotFoundError{Message: msg}
func NewNotFoundError(msg string) error {
	return &NotFoundError{Message: msg}
}

// NewScopeError is a shorthand for &ScopeError{Message: msg}
func NewScopeError(msg string) error {
	return &ScopeError{Message: msg}
}

// WrapStore converts a raw backend failure into a StoreError.
// Errors already classified by the domain pass through unchanged.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
