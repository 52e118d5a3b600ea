package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aegis/internal/audit"
	"aegis/internal/manager"
	dErrors "aegis/pkg/domain-errors"
)

// Handler exposes the admin surface: health, metrics, running status, and
// the audit query/verify endpoints. Everything under /v1 requires the admin
// token.
type Handler struct {
	manager        *manager.Manager
	adminTokenHash string
	logger         *slog.Logger
}

func New(m *manager.Manager, adminTokenHash string, logger *slog.Logger) *Handler {
	return &Handler{
		manager:        m,
		adminTokenHash: adminTokenHash,
		logger:         logger,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(h.requireAdminToken)
		r.Get("/status", h.status)
		r.Get("/audit/events", h.auditEvents)
		r.Post("/audit/verify", h.auditVerify)
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *Handler) auditEvents(w http.ResponseWriter, r *http.Request) {
	auditor := h.manager.Audit()
	if auditor == nil {
		writeError(w, http.StatusConflict, "audit is disabled for the active mode")
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, dErrors.MessageOf(err))
		return
	}

	events, err := auditor.Query(r.Context(), filter)
	if err != nil {
		h.logger.Error("audit query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "audit query failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func (h *Handler) auditVerify(w http.ResponseWriter, r *http.Request) {
	auditor := h.manager.Audit()
	if auditor == nil {
		writeError(w, http.StatusConflict, "audit is disabled for the active mode")
		return
	}

	report, err := auditor.VerifyIntegrity(r.Context())
	if err != nil {
		h.logger.Error("integrity verification failed", "error", err)
		writeError(w, http.StatusInternalServerError, "integrity verification failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// filterFromQuery parses ?severity=&category=&subject=&resource=&from=&to=&limit=.
func filterFromQuery(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	var filter audit.Filter

	if raw := q.Get("severity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < int(audit.SeverityDebug) || n > int(audit.SeverityCritical) {
			return filter, dErrors.New(dErrors.CodeBadRequest, "severity must be an integer 0-4")
		}
		severity := audit.Severity(n)
		filter.MinSeverity = &severity
	}
	filter.Category = audit.Category(q.Get("category"))
	filter.SubjectID = q.Get("subject")
	filter.Resource = q.Get("resource")

	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "from must be RFC 3339")
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "to must be RFC 3339")
		}
		filter.To = t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
		}
		filter.Limit = n
	}
	return filter, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
