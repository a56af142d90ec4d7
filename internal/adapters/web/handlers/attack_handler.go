package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

// AttackHandler drives the attack lifecycle.
type AttackHandler struct {
	Service ports.AttackService
}

// NewAttackHandler creates a new AttackHandler
func NewAttackHandler(service ports.AttackService) *AttackHandler {
	return &AttackHandler{Service: service}
}

// HandleStatus returns the engine summary.
func (h *AttackHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BuildStatus(h.Service))
}

func attackFromPath(w http.ResponseWriter, r *http.Request) (domain.AttackType, bool) {
	t, err := domain.ParseAttackType(mux.Vars(r)["type"])
	if err != nil || t == domain.AttackNone {
		writeError(w, http.StatusBadRequest, "Unknown attack type")
		return domain.AttackNone, false
	}
	return t, true
}

// HandleStart starts the attack named in the path, stopping whatever runs.
func (h *AttackHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	t, ok := attackFromPath(w, r)
	if !ok {
		return
	}
	if err := h.Service.StartAttack(t); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, BuildStatus(h.Service))
}

// HandleSelect records the attack the toggle starts.
func (h *AttackHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	t, ok := attackFromPath(w, r)
	if !ok {
		return
	}
	h.Service.SelectAttack(t)
	writeJSON(w, http.StatusOK, BuildStatus(h.Service))
}

func (h *AttackHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.Service.StopAttack()
	writeJSON(w, http.StatusOK, BuildStatus(h.Service))
}

// HandleToggle starts the selected attack or stops the running one.
func (h *AttackHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ToggleAttack(); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, BuildStatus(h.Service))
}

func (h *AttackHandler) HandleNudge(w http.ResponseWriter, r *http.Request) {
	h.Service.NudgeRickroll()
	writeJSON(w, http.StatusOK, BuildStatus(h.Service))
}

// HandleObservations returns the live probe sniff table.
func (h *AttackHandler) HandleObservations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"observations": NewObservationViews(h.Service.Observations()),
	})
}
