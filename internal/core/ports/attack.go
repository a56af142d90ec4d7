package ports

import (
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
)

// SettingsSource provides a read-only snapshot of the attack settings.
type SettingsSource interface {
	AttackSettings() domain.AttackSettings
}

// AttackMachine is the common lifecycle of every attack state machine.
// Start leaves the machine Idle when it returns an error. Stop is idempotent.
// Tick is safe in every state and never blocks.
type AttackMachine interface {
	Start(now time.Time) error
	Stop()
	Tick(now time.Time)
	Running() bool
	Stats() domain.AttackStats
	Snapshot() domain.SessionVariant
}

// ConfigurableMachine takes the operator settings before every Start.
type ConfigurableMachine interface {
	AttackMachine
	ApplySettings(s domain.AttackSettings)
}

// DeauthMachine owns the deauth target set.
type DeauthMachine interface {
	ConfigurableMachine
	AddTarget(t domain.Target) error
	ClearTargets()
	PacketsSent() uint32
}

// BeaconMachine owns the advertised SSID list.
type BeaconMachine interface {
	ConfigurableMachine
	AddSSID(ssid string) error
	ClearSSIDs()
	SSIDs() []string
}

// ProbeMachine exposes the observation table.
type ProbeMachine interface {
	ConfigurableMachine
	Observations() []domain.Observation
}

// RickrollMachine can be sped up while running.
type RickrollMachine interface {
	ConfigurableMachine
	Nudge()
	Beacons() uint32
}

// EvilTwinMachine clones one network.
type EvilTwinMachine interface {
	ConfigurableMachine
	SetTarget(n domain.Network) error
	Credentials() uint32
}

// AttackService is the orchestrator surface consumed by the control API,
// the health service and the CLI.
type AttackService interface {
	SelectAttack(t domain.AttackType)
	SelectedAttack() domain.AttackType
	StartAttack(t domain.AttackType) error
	StopAttack()
	ToggleAttack() error
	CurrentAttack() domain.AttackType
	Session() (domain.Session, bool)
	Stats() domain.AttackStats
	Progress() int
	Status() string

	AddDeauthTarget(t domain.Target) error
	ClearDeauthTargets()
	SetTarget(n domain.Network) error
	AddBeaconSSID(ssid string) error
	ClearBeaconSSIDs()
	NudgeRickroll()
	Observations() []domain.Observation
}

// SettingsStore is a SettingsSource the operator can update.
// Update clamps s and returns what was stored.
type SettingsStore interface {
	SettingsSource
	UpdateAttackSettings(s domain.AttackSettings) domain.AttackSettings
}
