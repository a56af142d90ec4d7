package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

// AuditHandler serves the audit trail.
type AuditHandler struct {
	Service ports.AuditService
}

func NewAuditHandler(service ports.AuditService) *AuditHandler {
	return &AuditHandler{Service: service}
}

// HandleGetLogs lists entries, optionally filtered by ?action= and ?since= (RFC 3339).
func (h *AuditHandler) HandleGetLogs(w http.ResponseWriter, r *http.Request) {
	q, err := auditQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logs, err := h.Service.GetLogs(r.Context(), q)
	if err != nil {
		log.Printf("[API] Fetch audit logs: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func auditQuery(r *http.Request) (domain.AuditQuery, error) {
	q := domain.AuditQuery{Limit: queryLimit(r, defaultListLimit, maxListLimit)}
	params := r.URL.Query()
	if a := params.Get("action"); a != "" {
		action, err := domain.ParseAuditAction(a)
		if err != nil {
			return q, fmt.Errorf("%w: %q", err, a)
		}
		q.Action = action
	}
	if s := params.Get("since"); s != "" {
		since, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, fmt.Errorf("invalid since %q", s)
		}
		q.Since = since
	}
	return q, nil
}
