package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// RecordStore is the read side of the persistent sink.
type RecordStore interface {
	ports.RecordReader
	Count(ctx context.Context, kind domain.RecordKind) (int64, error)
}

// RecordHandler lists persisted probes and credentials.
type RecordHandler struct {
	Store RecordStore
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(store RecordStore) *RecordHandler {
	return &RecordHandler{Store: store}
}

func (h *RecordHandler) HandleProbes(w http.ResponseWriter, r *http.Request) {
	probes, err := h.Store.ListProbes(r.Context(), queryLimit(r, defaultListLimit, maxListLimit))
	if err != nil {
		log.Printf("[WEB] Failed to list probes: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch probes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"probes": probes})
}

func (h *RecordHandler) HandleCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := h.Store.ListCredentials(r.Context(), queryLimit(r, defaultListLimit, maxListLimit))
	if err != nil {
		log.Printf("[WEB] Failed to list credentials: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"credentials": creds})
}

// HandleCounts returns the number of stored records per kind.
func (h *RecordHandler) HandleCounts(w http.ResponseWriter, r *http.Request) {
	out := make(map[domain.RecordKind]int64, 2)
	for _, kind := range []domain.RecordKind{domain.KindProbe, domain.KindCredential} {
		n, err := h.Store.Count(r.Context(), kind)
		if err != nil {
			log.Printf("[WEB] Failed to count %s records: %v", kind, err)
			writeError(w, http.StatusInternalServerError, "Failed to count records")
			return
		}
		out[kind] = n
	}
	writeJSON(w, http.StatusOK, out)
}
