package handler

import (
	"errors"
	"net/http"

	"hrdocs/internal/domain"
	"hrdocs/internal/explorer"
	"hrdocs/internal/httputil"
)

// handleError converts domain errors to HTTP responses. Pending session
// notifications ride along in the problem details.
func handleError(w http.ResponseWriter, err error, inbox *explorer.Inbox) {
	var extras map[string]interface{}
	if inbox != nil {
		extras = map[string]interface{}{"notifications": inbox.Drain()}
	}

	var httpErr domain.HTTPError
	switch {
	case explorer.IsStale(err):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, "operation superseded by a newer session state", extras)
	case errors.Is(err, domain.ErrStore):
		httputil.RespondErrorWithExtras(w, http.StatusBadGateway, "document store error", extras)
	case errors.As(err, &httpErr):
		httputil.RespondErrorWithExtras(w, httpErr.StatusCode(), httpErr.Error(), extras)
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondErrorWithExtras(w, http.StatusUnauthorized, err.Error(), extras)
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondErrorWithExtras(w, http.StatusForbidden, err.Error(), extras)
	default:
		httputil.RespondErrorWithExtras(w, http.StatusInternalServerError, "internal server error", extras)
	}
}
