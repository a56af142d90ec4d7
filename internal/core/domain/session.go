package domain

import (
	"net"
	"time"
)

// Session is the single live attack session owned by the orchestrator.
// Per-type state lives in Variant.
type Session struct {
	ID        string         `json:"id"`
	Type      AttackType     `json:"type"`
	StartTime time.Time      `json:"start_time"`
	Running   bool           `json:"running"`
	Stats     AttackStats    `json:"stats"`
	Variant   SessionVariant `json:"variant,omitempty"`
}

// Elapsed returns the wall-clock duration of the session at now.
func (s Session) Elapsed(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return now.Sub(s.StartTime)
}

// SessionVariant is the per-attack payload of a Session.
type SessionVariant interface {
	AttackType() AttackType
}

// DeauthVariant describes a running deauth session.
type DeauthVariant struct {
	Targets []Target `json:"targets"`
	Channel int      `json:"channel"`
	Burst   int      `json:"packets_per_burst"`
}

func (DeauthVariant) AttackType() AttackType { return AttackDeauth }

// BeaconSpamVariant describes a running beacon spam session.
type BeaconSpamVariant struct {
	SSIDs    []string      `json:"ssids"`
	Interval time.Duration `json:"interval"`
	Channel  int           `json:"channel"`
}

func (BeaconSpamVariant) AttackType() AttackType { return AttackBeaconSpam }

// RickrollVariant describes a running rickroll beacon session.
type RickrollVariant struct {
	CurrentLine string        `json:"current_line"`
	Interval    time.Duration `json:"interval"`
	Channel     int           `json:"channel"`
}

func (RickrollVariant) AttackType() AttackType { return AttackRickrollBeacon }

// ProbeSniffVariant describes a running probe sniff session.
type ProbeSniffVariant struct {
	Observations []Observation `json:"observations"`
	Channel      int           `json:"channel"`
}

func (ProbeSniffVariant) AttackType() AttackType { return AttackProbeSniff }

// EvilTwinStage is the progress of the evil twin sequence. It only advances
// Idle -> Deauthing -> PortalActive, and returns to Idle on stop.
type EvilTwinStage int

const (
	StageIdle EvilTwinStage = iota
	StageDeauthing
	StagePortalActive
)

func (s EvilTwinStage) String() string {
	switch s {
	case StageDeauthing:
		return "deauthing"
	case StagePortalActive:
		return "portal_active"
	}
	return "idle"
}

// EvilTwinVariant describes a running evil twin session.
type EvilTwinVariant struct {
	Stage    EvilTwinStage `json:"stage"`
	Target   Network       `json:"target"`
	Original ApIdentity    `json:"original"`
	Clients  int           `json:"clients"`
}

func (EvilTwinVariant) AttackType() AttackType { return AttackEvilTwin }

// ApIdentity is the advertised identity of the local access point.
type ApIdentity struct {
	SSID    string           `json:"ssid"`
	HWAddr  net.HardwareAddr `json:"hw_addr"`
	Channel int              `json:"channel"`
}

// Equal reports whether both identities advertise the same SSID, address and channel.
func (a ApIdentity) Equal(b ApIdentity) bool {
	return a.SSID == b.SSID && a.Channel == b.Channel && a.HWAddr.String() == b.HWAddr.String()
}

// Clone returns a deep copy, detaching the hardware address slice.
func (a ApIdentity) Clone() ApIdentity {
	c := a
	if a.HWAddr != nil {
		c.HWAddr = append(net.HardwareAddr(nil), a.HWAddr...)
	}
	return c
}
