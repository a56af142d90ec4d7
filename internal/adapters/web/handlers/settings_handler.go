package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

// SettingsHandler exposes the attack settings read on every start.
type SettingsHandler struct {
	Store ports.SettingsStore
	Audit ports.AuditService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(store ports.SettingsStore, audit ports.AuditService) *SettingsHandler {
	return &SettingsHandler{Store: store, Audit: audit}
}

func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewSettingsView(h.Store.AttackSettings()))
}

// HandleUpdate overlays the submitted fields on the current settings. Out of
// range values are clamped; the stored result is returned.
func (h *SettingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	view := NewSettingsView(h.Store.AttackSettings())
	if !decodeJSON(w, r, &view) {
		return
	}
	stored := h.Store.UpdateAttackSettings(view.Settings())
	out := NewSettingsView(stored)

	if h.Audit != nil {
		details, _ := json.Marshal(out)
		if err := h.Audit.Log(r.Context(), domain.ActionSettingsChange, "attack_settings", string(details)); err != nil {
			log.Printf("[WEB] Audit failed: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, out)
}
