package httputil

import (
	"context"
	"net/http"

	"hrdocs/internal/domain/models/docsystem"
)

// Context key type to avoid collisions
type contextKey string

const (
	viewerIDKey   contextKey = "viewerID"
	viewerRoleKey contextKey = "viewerRole"
)

// WithViewer adds the authenticated viewer to the request context
func WithViewer(r *http.Request, viewerID string, role docsystem.Role) *http.Request {
	ctx := context.WithValue(r.Context(), viewerIDKey, viewerID)
	ctx = context.WithValue(ctx, viewerRoleKey, role)
	return r.WithContext(ctx)
}

// GetViewerID retrieves the viewer id from context, returns empty string if not found
func GetViewerID(r *http.Request) string {
	viewerID, _ := r.Context().Value(viewerIDKey).(string)
	return viewerID
}

// GetViewerRole retrieves the viewer role from context, RoleNone if not found
func GetViewerRole(r *http.Request) docsystem.Role {
	role, _ := r.Context().Value(viewerRoleKey).(docsystem.Role)
	return role
}
