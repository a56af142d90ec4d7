package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AttackType identifies one of the attack state machines.
type AttackType int

const (
	AttackNone AttackType = iota
	AttackDeauth
	AttackBeaconSpam
	AttackProbeSniff
	AttackRickrollBeacon
	AttackEvilTwin
)

var attackNames = map[AttackType]string{
	AttackNone:           "none",
	AttackDeauth:         "deauth",
	AttackBeaconSpam:     "beacon_spam",
	AttackProbeSniff:     "probe_sniff",
	AttackRickrollBeacon: "rickroll_beacon",
	AttackEvilTwin:       "evil_twin",
}

func (t AttackType) String() string {
	if name, ok := attackNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseAttackType accepts the names returned by String (case-insensitive, '-' or '_').
func ParseAttackType(s string) (AttackType, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for t, name := range attackNames {
		if name == norm {
			return t, nil
		}
	}
	return AttackNone, fmt.Errorf("%w: %q", ErrUnknownAttack, s)
}

// AttackStatus represents the lifecycle state of an attack state machine.
type AttackStatus string

const (
	AttackIdle    AttackStatus = "idle"
	AttackRunning AttackStatus = "running"
)

// Domain errors returned by attack configuration and start.
var (
	ErrUnknownAttack = errors.New("unknown attack type")
	ErrNoTargets     = errors.New("no deauth targets configured")
	ErrNoNetwork     = errors.New("no target network configured")
	ErrTargetLimit   = errors.New("target limit reached")
	ErrSSIDTooLong   = errors.New("ssid longer than 32 bytes")
	ErrInvalidMAC    = errors.New("invalid hardware address")
	ErrRadio         = errors.New("radio operation failed")
)

// AttackStats aggregates the counters reported for the active session.
// Values are recomputed from the active machine on every tick.
type AttackStats struct {
	PacketsTotal        uint32        `json:"packets_total"`
	ClientsAffected     uint32        `json:"clients_affected"`
	CredentialsCaptured uint32        `json:"credentials_captured"`
	ProbesCollected     uint32        `json:"probes_collected"`
	Duration            time.Duration `json:"duration"`
}
