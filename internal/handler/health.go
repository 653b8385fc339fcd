package handler

import (
	"net/http"

	"hrdocs/internal/explorer"
	"hrdocs/internal/httputil"
)

// HealthHandler reports liveness
type HealthHandler struct {
	manager *explorer.Manager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(manager *explorer.Manager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// Health returns service status
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.manager.Len(),
	})
}
