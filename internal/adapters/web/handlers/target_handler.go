package handlers

import (
	"fmt"
	"net/http"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

// TargetHandler configures deauth targets, the evil twin network and the
// beacon SSID list.
type TargetHandler struct {
	Service ports.AttackService
}

// NewTargetHandler creates a new TargetHandler
func NewTargetHandler(service ports.AttackService) *TargetHandler {
	return &TargetHandler{Service: service}
}

// HandleAddDeauthTarget adds one (AP, client) pair; an empty client is broadcast.
func (h *TargetHandler) HandleAddDeauthTarget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BSSID   string `json:"bssid"`
		Client  string `json:"client,omitempty"`
		Channel int    `json:"channel,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := domain.NewTarget(req.BSSID, req.Client)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Channel != 0 {
		if !domain.IsValidChannel(req.Channel) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid channel %d", req.Channel))
			return
		}
		t.Channel = req.Channel
	}
	if err := h.Service.AddDeauthTarget(t); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, TargetView{
		BSSID:   domain.FormatMAC(t.BSSID),
		Client:  domain.FormatMAC(t.Client),
		Channel: t.Channel,
	})
}

func (h *TargetHandler) HandleClearDeauthTargets(w http.ResponseWriter, r *http.Request) {
	h.Service.ClearDeauthTargets()
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetNetwork selects the network the evil twin clones.
func (h *TargetHandler) HandleSetNetwork(w http.ResponseWriter, r *http.Request) {
	var req NetworkView
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := domain.NewNetwork(req.SSID, req.BSSID, req.Channel)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Service.SetTarget(n); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, NetworkView{SSID: n.SSID, BSSID: domain.FormatMAC(n.BSSID), Channel: n.Channel})
}

// HandleAddSSID appends one SSID to the beacon spam list.
func (h *TargetHandler) HandleAddSSID(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SSID string `json:"ssid"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !domain.IsValidSSID(req.SSID) || req.SSID == "" {
		writeError(w, http.StatusBadRequest, "Invalid ssid")
		return
	}
	if err := h.Service.AddBeaconSSID(req.SSID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"ssid": req.SSID})
}

func (h *TargetHandler) HandleClearSSIDs(w http.ResponseWriter, r *http.Request) {
	h.Service.ClearBeaconSSIDs()
	w.WriteHeader(http.StatusNoContent)
}
