package handlers

import (
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
)

// StatsView is AttackStats with the duration in milliseconds.
type StatsView struct {
	PacketsTotal        uint32 `json:"packets_total"`
	ClientsAffected     uint32 `json:"clients_affected"`
	CredentialsCaptured uint32 `json:"credentials_captured"`
	ProbesCollected     uint32 `json:"probes_collected"`
	DurationMs          int64  `json:"duration_ms"`
}

func NewStatsView(s domain.AttackStats) StatsView {
	return StatsView{
		PacketsTotal:        s.PacketsTotal,
		ClientsAffected:     s.ClientsAffected,
		CredentialsCaptured: s.CredentialsCaptured,
		ProbesCollected:     s.ProbesCollected,
		DurationMs:          s.Duration.Milliseconds(),
	}
}

// TargetView renders a deauth target with printable addresses.
type TargetView struct {
	BSSID       string `json:"bssid"`
	Client      string `json:"client"`
	Channel     int    `json:"channel,omitempty"`
	PacketsSent uint32 `json:"packets_sent"`
}

// NetworkView renders a network with a printable BSSID.
type NetworkView struct {
	SSID    string `json:"ssid"`
	BSSID   string `json:"bssid"`
	Channel int    `json:"channel"`
}

// ObservationView renders one probing client.
type ObservationView struct {
	Client    string    `json:"client"`
	SSIDs     []string  `json:"ssids"`
	Signal    int       `json:"signal"`
	Random    bool      `json:"randomized"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Sightings int       `json:"sightings"`
}

func NewObservationViews(obs []domain.Observation) []ObservationView {
	out := make([]ObservationView, 0, len(obs))
	for _, o := range obs {
		out = append(out, ObservationView{
			Client:    domain.FormatMAC(o.Client),
			SSIDs:     o.SSIDs,
			Signal:    o.Signal,
			Random:    domain.IsRandomizedMAC(o.Client),
			FirstSeen: o.FirstSeen,
			LastSeen:  o.LastSeen,
			Sightings: o.Sightings,
		})
	}
	return out
}

// SessionView is the JSON form of the live session.
type SessionView struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	StartTime time.Time      `json:"start_time"`
	Running   bool           `json:"running"`
	Stats     StatsView      `json:"stats"`
	Details   map[string]any `json:"details,omitempty"`
}

func NewSessionView(s domain.Session) SessionView {
	return SessionView{
		ID:        s.ID,
		Type:      s.Type.String(),
		StartTime: s.StartTime,
		Running:   s.Running,
		Stats:     NewStatsView(s.Stats),
		Details:   variantDetails(s.Variant),
	}
}

func variantDetails(v domain.SessionVariant) map[string]any {
	switch v := v.(type) {
	case domain.DeauthVariant:
		targets := make([]TargetView, 0, len(v.Targets))
		for _, t := range v.Targets {
			targets = append(targets, TargetView{
				BSSID:       domain.FormatMAC(t.BSSID),
				Client:      domain.FormatMAC(t.Client),
				Channel:     t.Channel,
				PacketsSent: t.PacketsSent,
			})
		}
		return map[string]any{"targets": targets, "channel": v.Channel, "packets_per_burst": v.Burst}
	case domain.BeaconSpamVariant:
		return map[string]any{"ssids": v.SSIDs, "interval_ms": v.Interval.Milliseconds(), "channel": v.Channel}
	case domain.RickrollVariant:
		return map[string]any{"current_line": v.CurrentLine, "interval_ms": v.Interval.Milliseconds(), "channel": v.Channel}
	case domain.ProbeSniffVariant:
		return map[string]any{"observations": len(v.Observations), "channel": v.Channel}
	case domain.EvilTwinVariant:
		return map[string]any{
			"stage":   v.Stage.String(),
			"target":  NetworkView{SSID: v.Target.SSID, BSSID: domain.FormatMAC(v.Target.BSSID), Channel: v.Target.Channel},
			"clients": v.Clients,
		}
	}
	return nil
}

// StatusView is the engine summary returned by /api/status and pushed over /ws.
type StatusView struct {
	Current  string       `json:"current"`
	Selected string       `json:"selected"`
	Status   string       `json:"status"`
	Progress int          `json:"progress"`
	Stats    StatsView    `json:"stats"`
	Session  *SessionView `json:"session,omitempty"`
}

// StatusSource is the read side of the attack service.
type StatusSource interface {
	CurrentAttack() domain.AttackType
	SelectedAttack() domain.AttackType
	Session() (domain.Session, bool)
	Stats() domain.AttackStats
	Progress() int
	Status() string
}

// BuildStatus snapshots svc.
func BuildStatus(svc StatusSource) StatusView {
	v := StatusView{
		Current:  svc.CurrentAttack().String(),
		Selected: svc.SelectedAttack().String(),
		Status:   svc.Status(),
		Progress: svc.Progress(),
		Stats:    NewStatsView(svc.Stats()),
	}
	if s, ok := svc.Session(); ok {
		sv := NewSessionView(s)
		v.Session = &sv
	}
	return v
}

// SettingsView is AttackSettings with durations in milliseconds.
type SettingsView struct {
	DeauthPacketsPerBurst int   `json:"deauth_packets_per_burst"`
	BeaconIntervalMs      int64 `json:"beacon_interval_ms"`
	MaxBeaconSSIDs        int   `json:"max_beacon_ssids"`
	MaxProbes             int   `json:"max_probes"`
	RickrollSpeed         int   `json:"rickroll_speed"`
	ChannelHopping        bool  `json:"channel_hopping"`
	RandomizeMAC          bool  `json:"randomize_mac"`
	MinSignal             int   `json:"min_signal"`
	DeviceTimeoutMs       int64 `json:"device_timeout_ms"`
	FilterDuplicates      bool  `json:"filter_duplicates"`
	SaveProbes            bool  `json:"save_probes"`
}

func NewSettingsView(s domain.AttackSettings) SettingsView {
	return SettingsView{
		DeauthPacketsPerBurst: s.DeauthPacketsPerBurst,
		BeaconIntervalMs:      s.BeaconInterval.Milliseconds(),
		MaxBeaconSSIDs:        s.MaxBeaconSSIDs,
		MaxProbes:             s.MaxProbes,
		RickrollSpeed:         s.RickrollSpeed,
		ChannelHopping:        s.ChannelHopping,
		RandomizeMAC:          s.RandomizeMAC,
		MinSignal:             s.MinSignal,
		DeviceTimeoutMs:       s.DeviceTimeout.Milliseconds(),
		FilterDuplicates:      s.FilterDuplicates,
		SaveProbes:            s.SaveProbes,
	}
}

func (v SettingsView) Settings() domain.AttackSettings {
	return domain.AttackSettings{
		DeauthPacketsPerBurst: v.DeauthPacketsPerBurst,
		BeaconInterval:        time.Duration(v.BeaconIntervalMs) * time.Millisecond,
		MaxBeaconSSIDs:        v.MaxBeaconSSIDs,
		MaxProbes:             v.MaxProbes,
		RickrollSpeed:         v.RickrollSpeed,
		ChannelHopping:        v.ChannelHopping,
		RandomizeMAC:          v.RandomizeMAC,
		MinSignal:             v.MinSignal,
		DeviceTimeout:         time.Duration(v.DeviceTimeoutMs) * time.Millisecond,
		FilterDuplicates:      v.FilterDuplicates,
		SaveProbes:            v.SaveProbes,
	}
}
