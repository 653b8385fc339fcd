package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"hrdocs/internal/auth"
	"hrdocs/internal/domain/models/docsystem"
	"hrdocs/internal/httputil"
)

// Dev-mode identity headers, honored only when no verifier is configured
const (
	headerViewerID   = "X-Viewer-ID"
	headerViewerRole = "X-Viewer-Role"
)

// publicPaths skip authentication
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// AuthMiddleware verifies the bearer token and stores the viewer id and
// role in the request context. With a nil verifier (dev without JWKS_URL)
// the viewer is taken from the X-Viewer-ID and X-Viewer-Role headers.
func AuthMiddleware(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if verifier == nil {
				viewerID := strings.TrimSpace(r.Header.Get(headerViewerID))
				if viewerID == "" {
					viewerID = "dev"
				}
				role := docsystem.ParseRole(r.Header.Get(headerViewerRole))
				next.ServeHTTP(w, httputil.WithViewer(r, viewerID, role))
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("authentication failed", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, httputil.WithViewer(r, claims.GetViewerID(), claims.ViewerRole()))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
