package http

import (
	"net/http"
	"strings"

	"aegis/internal/secrets"
)

// requireAdminToken guards the /v1 surface with a bearer token checked
// against the configured bcrypt hash. No hash configured means the surface
// is closed, not open.
func (h *Handler) requireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminTokenHash == "" {
			writeError(w, http.StatusForbidden, "admin API is not configured")
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if err := secrets.Verify(token, h.adminTokenHash); err != nil {
			h.logger.Warn("admin token rejected", "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
