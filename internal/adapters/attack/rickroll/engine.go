package rickroll

import (
	"fmt"
	"log"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/adapters/attack"
	"github.com/lcalzada-xor/airstrike/internal/adapters/frame"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

// Lyrics are advertised in order, one name per interval.
var Lyrics = []string{
	"Never gonna give you up",
	"Never gonna let you down",
	"Never gonna run around",
	"And desert you",
	"Never gonna make you cry",
	"Never gonna say goodbye",
	"Never gonna tell a lie",
	"And hurt you",
	"Rick Astley WiFi",
	"(Get Rickrolled)",
	"We're no strangers to love",
	"You know the rules",
	"And so do I",
	"A full commitment's",
	"What I'm thinking of",
	"You wouldn't get this",
	"From any other guy",
}

const (
	// MinInterval is the fastest cadence allowed.
	MinInterval = 500 * time.Millisecond
	// nudgeStep is removed by Nudge; below MinInterval the cadence wraps to nudgeWrap.
	nudgeStep = 500 * time.Millisecond
	nudgeWrap = 2000 * time.Millisecond
	baseSpeed = 3000 * time.Millisecond
)

// fixedSource is used when address randomization is off.
var fixedSource = net.HardwareAddr{0x02, 0x02, 0x03, 0x04, 0x05, 0x06}

// IntervalForSpeed maps speed 1..5 to 3000/speed ms, never below MinInterval.
func IntervalForSpeed(speed int) time.Duration {
	if speed < 1 {
		speed = 1
	}
	if speed > 5 {
		speed = 5
	}
	d := baseSpeed / time.Duration(speed)
	if d < MinInterval {
		d = MinInterval
	}
	return d
}

// Options tune an Engine.
type Options struct {
	FrameGap time.Duration
	Rand     *rand.Rand
}

// Engine advertises the lyrics as network names, one line per interval.
type Engine struct {
	mu    sync.Mutex
	sched ports.ChannelScheduler
	tx    *attack.Emitter
	rng   *rand.Rand

	interval  time.Duration
	randomize bool
	hopping   bool
	channel   int

	running    bool
	pinned     bool
	line       int
	started    time.Time
	lastChange time.Time
	lastTick   time.Time
	beacons    uint32
}

var _ ports.RickrollMachine = (*Engine)(nil)

func NewEngine(radio ports.FrameInjector, sched ports.ChannelScheduler, opts Options) *Engine {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		sched:     sched,
		tx:        attack.NewEmitter(radio, domain.AttackRickrollBeacon.String(), opts.FrameGap),
		rng:       opts.Rand,
		interval:  IntervalForSpeed(2),
		randomize: true,
		hopping:   true,
	}
}

// SetSpeed sets the cadence from a 1..5 speed.
func (e *Engine) SetSpeed(speed int) {
	e.mu.Lock()
	e.interval = IntervalForSpeed(speed)
	e.mu.Unlock()
}

// Nudge shortens the cadence by 500ms, wrapping to 2s below the floor.
func (e *Engine) Nudge() {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.interval - nudgeStep
	if next < MinInterval {
		next = nudgeWrap
	}
	e.interval = next
}

// Interval returns the current cadence.
func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

func (e *Engine) SetRandomizeMAC(enabled bool) {
	e.mu.Lock()
	e.randomize = enabled
	e.mu.Unlock()
}

func (e *Engine) SetHopping(enabled bool) {
	e.mu.Lock()
	e.hopping = enabled
	e.mu.Unlock()
}

// SetChannel pins ch (1..14). 0 follows the scheduler.
func (e *Engine) SetChannel(ch int) error {
	if ch != 0 && !domain.IsValidChannel(ch) {
		return fmt.Errorf("invalid channel %d", ch)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.channel = ch
	if e.running && e.sched != nil && ch != 0 {
		if err := e.sched.Pin(ch); err == nil {
			e.pinned = true
		}
	}
	return nil
}

// ApplySettings takes the speed, hopping and address preferences.
func (e *Engine) ApplySettings(s domain.AttackSettings) {
	e.SetSpeed(s.RickrollSpeed)
	e.SetHopping(s.ChannelHopping)
	e.SetRandomizeMAC(s.RandomizeMAC)
}

func (e *Engine) Start(now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	e.running = true
	e.line = 0
	e.beacons = 0
	e.started = now
	e.lastChange = now
	e.lastTick = now
	e.pinned = false
	if e.sched != nil {
		if e.channel != 0 {
			if err := e.sched.Pin(e.channel); err != nil {
				log.Printf("[RICKROLL] Pin channel %d failed: %v", e.channel, err)
			} else {
				e.pinned = true
			}
		} else {
			e.sched.SetHopping(e.hopping)
		}
	}
	log.Printf("[RICKROLL] Started, interval=%v", e.interval)
	return nil
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	if e.pinned && e.sched != nil {
		e.sched.Unpin()
	}
	e.pinned = false
	log.Printf("[RICKROLL] Stopped after %d beacons", e.beacons)
}

// Tick broadcasts the current line and advances once the interval has elapsed.
// A rejected frame leaves the line in place for the next tick.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.lastTick = now
	ch := e.channel
	if e.sched != nil {
		e.sched.Tick(now)
		if ch == 0 {
			ch = e.sched.Current()
		}
	}
	if ch == 0 {
		ch = 1
	}
	if !attack.Due(now, e.lastChange, e.interval) {
		return
	}
	e.lastChange = now

	src := fixedSource
	if e.randomize {
		src = frame.RandomSourceAddress(e.rng)
	}
	f, err := frame.BuildBeacon(Lyrics[e.line], ch, src)
	if err != nil || !e.tx.Send("beacon", f) {
		return
	}
	e.beacons++
	e.line = (e.line + 1) % len(Lyrics)
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// CurrentLine is the next name to be advertised.
func (e *Engine) CurrentLine() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Lyrics[e.line]
}

// Beacons returns the session beacon counter.
func (e *Engine) Beacons() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.beacons
}

func (e *Engine) Stats() domain.AttackStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	var d time.Duration
	if !e.started.IsZero() {
		d = e.lastTick.Sub(e.started)
	}
	return domain.AttackStats{PacketsTotal: e.beacons, Duration: d}
}

func (e *Engine) Snapshot() domain.SessionVariant {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := e.channel
	if ch == 0 && e.sched != nil {
		ch = e.sched.Current()
	}
	return domain.RickrollVariant{
		CurrentLine: Lyrics[e.line],
		Interval:    e.interval,
		Channel:     ch,
	}
}
