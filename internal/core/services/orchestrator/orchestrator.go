package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"github.com/lcalzada-xor/airstrike/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// progressCeiling is the deauth packet count reported as 100%.
const progressCeiling = 1000

// Machines are the attack state machines the orchestrator routes to.
type Machines struct {
	Deauth     ports.DeauthMachine
	BeaconSpam ports.BeaconMachine
	ProbeSniff ports.ProbeMachine
	Rickroll   ports.RickrollMachine
	EvilTwin   ports.EvilTwinMachine
}

// Orchestrator keeps at most one attack running. All methods are safe for
// concurrent use; the host loop calls Tick, the control API everything else.
type Orchestrator struct {
	mu       sync.Mutex
	m        Machines
	byType   map[domain.AttackType]ports.ConfigurableMachine
	settings ports.SettingsSource
	audit    ports.AuditService
	clock    func() time.Time

	selected domain.AttackType
	active   domain.AttackType
	session  domain.Session
	stats    domain.AttackStats
}

var _ ports.AttackService = (*Orchestrator)(nil)

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithAudit records lifecycle events.
func WithAudit(a ports.AuditService) Option {
	return func(o *Orchestrator) { o.audit = a }
}

// New creates an orchestrator with nothing running.
func New(m Machines, settings ports.SettingsSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		m:        m,
		settings: settings,
		clock:    time.Now,
		byType:   make(map[domain.AttackType]ports.ConfigurableMachine),
	}
	if m.Deauth != nil {
		o.byType[domain.AttackDeauth] = m.Deauth
	}
	if m.BeaconSpam != nil {
		o.byType[domain.AttackBeaconSpam] = m.BeaconSpam
	}
	if m.ProbeSniff != nil {
		o.byType[domain.AttackProbeSniff] = m.ProbeSniff
	}
	if m.Rickroll != nil {
		o.byType[domain.AttackRickrollBeacon] = m.Rickroll
	}
	if m.EvilTwin != nil {
		o.byType[domain.AttackEvilTwin] = m.EvilTwin
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SelectAttack records the attack ToggleAttack will start.
func (o *Orchestrator) SelectAttack(t domain.AttackType) {
	o.mu.Lock()
	o.selected = t
	o.mu.Unlock()
	o.record(domain.ActionInfo, t.String(), "selected")
}

// SelectedAttack returns the recorded intent.
func (o *Orchestrator) SelectedAttack() domain.AttackType {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selected
}

// StartAttack stops whatever runs, resets statistics and starts t with the
// current settings. On error nothing is left running.
func (o *Orchestrator) StartAttack(t domain.AttackType) error {
	_, span := telemetry.Tracer("orchestrator").Start(context.Background(), "StartAttack")
	defer span.End()
	span.SetAttributes(attribute.String("attack.type", t.String()))

	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clock()
	o.stopLocked(now)
	o.stats = domain.AttackStats{}

	if t == domain.AttackNone {
		return nil
	}
	machine, ok := o.byType[t]
	if !ok {
		err := fmt.Errorf("%w: %s", domain.ErrUnknownAttack, t)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	settings := domain.DefaultAttackSettings()
	if o.settings != nil {
		settings = o.settings.AttackSettings()
	}
	machine.ApplySettings(settings.Clamp())

	if err := machine.Start(now); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Printf("[ORCHESTRATOR] Start %s rejected: %v", t, err)
		return err
	}

	o.active = t
	o.selected = t
	o.session = domain.Session{
		ID:        uuid.New().String(),
		Type:      t,
		StartTime: now,
		Running:   true,
	}
	span.SetAttributes(attribute.String("session.id", o.session.ID))
	telemetry.AttacksStarted.WithLabelValues(t.String()).Inc()
	log.Printf("[ORCHESTRATOR] Started %s (session %s)", t, o.session.ID)
	go o.record(domain.ActionAttackStart, t.String(), "session "+o.session.ID)
	return nil
}

// StopAttack stops the running attack. Statistics stay frozen until the next start.
func (o *Orchestrator) StopAttack() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked(o.clock())
}

func (o *Orchestrator) stopLocked(now time.Time) {
	if o.active == domain.AttackNone {
		return
	}
	machine := o.byType[o.active]
	final := machine.Stats()
	machine.Stop()
	final.Duration = o.session.Elapsed(now)
	o.stats = final

	t, id := o.active, o.session.ID
	o.active = domain.AttackNone
	o.session = domain.Session{}
	log.Printf("[ORCHESTRATOR] Stopped %s (session %s)", t, id)
	go o.record(domain.ActionAttackStop, t.String(), fmt.Sprintf("session %s, %d packets", id, final.PacketsTotal))
}

// ToggleAttack stops the running attack, or starts the selected one.
func (o *Orchestrator) ToggleAttack() error {
	o.mu.Lock()
	active, selected := o.active, o.selected
	o.mu.Unlock()

	if active != domain.AttackNone {
		o.StopAttack()
		return nil
	}
	if selected == domain.AttackNone {
		return fmt.Errorf("%w: nothing selected", domain.ErrUnknownAttack)
	}
	return o.StartAttack(selected)
}

// Tick advances the active machine at the current clock.
func (o *Orchestrator) Tick() {
	o.TickAt(o.clock())
}

// TickAt advances the active machine and recomputes the aggregate statistics from it.
func (o *Orchestrator) TickAt(now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == domain.AttackNone {
		return
	}
	machine := o.byType[o.active]
	machine.Tick(now)
	st := machine.Stats()
	st.Duration = o.session.Elapsed(now)
	o.stats = st
	o.session.Stats = st
}

// CurrentAttack returns the running attack type, or AttackNone.
func (o *Orchestrator) CurrentAttack() domain.AttackType {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Session returns the live session with its per-type variant.
func (o *Orchestrator) Session() (domain.Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == domain.AttackNone {
		return domain.Session{}, false
	}
	s := o.session
	s.Stats = o.stats
	s.Variant = o.byType[o.active].Snapshot()
	return s, true
}

// Stats returns the aggregate statistics of the current or last session.
func (o *Orchestrator) Stats() domain.AttackStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// Progress is a coarse 0..100 indicator: continuous attacks report 50,
// deauth scales packets against a fixed ceiling.
func (o *Orchestrator) Progress() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.active {
	case domain.AttackNone:
		return 0
	case domain.AttackDeauth:
		p := int(o.stats.PacketsTotal) * 100 / progressCeiling
		if p > 100 {
			p = 100
		}
		return p
	}
	return 50
}

// Status is a one-line summary of the running attack.
func (o *Orchestrator) Status() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.active {
	case domain.AttackDeauth:
		return fmt.Sprintf("Deauth: %d pkts", o.stats.PacketsTotal)
	case domain.AttackBeaconSpam:
		return fmt.Sprintf("Beacon: %d SSIDs", len(o.m.BeaconSpam.SSIDs()))
	case domain.AttackProbeSniff:
		return fmt.Sprintf("Probes: %d", o.stats.ProbesCollected)
	case domain.AttackEvilTwin:
		return fmt.Sprintf("Evil Twin: %d creds", o.stats.CredentialsCaptured)
	case domain.AttackRickrollBeacon:
		return fmt.Sprintf("Rickroll: %d beacons", o.stats.PacketsTotal)
	}
	return "No attack running"
}

// AddDeauthTarget configures the deauth target set.
func (o *Orchestrator) AddDeauthTarget(t domain.Target) error {
	if o.m.Deauth == nil {
		return fmt.Errorf("%w: deauth", domain.ErrUnknownAttack)
	}
	if err := o.m.Deauth.AddTarget(t); err != nil {
		return err
	}
	o.record(domain.ActionTargetChange, domain.FormatMAC(t.BSSID), "deauth target added")
	return nil
}

func (o *Orchestrator) ClearDeauthTargets() {
	if o.m.Deauth != nil {
		o.m.Deauth.ClearTargets()
	}
}

// SetTarget selects the network the evil twin clones.
func (o *Orchestrator) SetTarget(n domain.Network) error {
	if o.m.EvilTwin == nil {
		return fmt.Errorf("%w: evil twin", domain.ErrUnknownAttack)
	}
	if err := o.m.EvilTwin.SetTarget(n); err != nil {
		return err
	}
	o.record(domain.ActionTargetChange, n.SSID, "evil twin target set")
	return nil
}

func (o *Orchestrator) AddBeaconSSID(ssid string) error {
	if o.m.BeaconSpam == nil {
		return fmt.Errorf("%w: beacon spam", domain.ErrUnknownAttack)
	}
	return o.m.BeaconSpam.AddSSID(ssid)
}

func (o *Orchestrator) ClearBeaconSSIDs() {
	if o.m.BeaconSpam != nil {
		o.m.BeaconSpam.ClearSSIDs()
	}
}

// NudgeRickroll speeds up the rickroll cadence.
func (o *Orchestrator) NudgeRickroll() {
	if o.m.Rickroll != nil {
		o.m.Rickroll.Nudge()
	}
}

// Observations returns the probe sniff table.
func (o *Orchestrator) Observations() []domain.Observation {
	if o.m.ProbeSniff == nil {
		return nil
	}
	return o.m.ProbeSniff.Observations()
}

func (o *Orchestrator) record(action domain.AuditAction, target, details string) {
	if o.audit == nil {
		return
	}
	if err := o.audit.Log(context.Background(), action, target, details); err != nil {
		log.Printf("[ORCHESTRATOR] Audit failed: %v", err)
	}
}
