package beaconspam

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

const (
	MinInterval     = 100 * time.Millisecond
	MaxInterval     = time.Second
	DefaultMaxSSIDs = 20
	maxSSIDLimit    = 50
	// seedCount random names are generated when starting with an empty list.
	seedCount = 10
)

// Options tune an Engine.
type Options struct {
	Interval time.Duration
	FrameGap time.Duration
	MaxSSIDs int
	// Rand drives SSID and address generation; seeded from the clock when nil.
	Rand *rand.Rand
}

// Engine broadcasts one beacon per SSID every interval, each from a fresh
// random source address.
type Engine struct {
	mu    sync.Mutex
	sched ports.ChannelScheduler
	tx    *attack.Emitter
	rng   *rand.Rand

	ssids     []string
	max       int
	interval  time.Duration
	channel   int
	hopping   bool
	randomize bool
	fixedSrc  net.HardwareAddr

	running  bool
	pinned   bool
	started  time.Time
	lastSend time.Time
	lastTick time.Time
	beacons  uint32
}

var _ ports.BeaconMachine = (*Engine)(nil)

// NewEngine creates an idle engine transmitting through radio.
func NewEngine(radio ports.FrameInjector, sched ports.ChannelScheduler, opts Options) *Engine {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.MaxSSIDs <= 0 {
		opts.MaxSSIDs = DefaultMaxSSIDs
	}
	e := &Engine{
		sched:     sched,
		tx:        attack.NewEmitter(radio, domain.AttackBeaconSpam.String(), opts.FrameGap),
		rng:       opts.Rand,
		max:       opts.MaxSSIDs,
		interval:  MinInterval,
		hopping:   true,
		randomize: true,
	}
	e.SetMaxSSIDs(opts.MaxSSIDs)
	if opts.Interval > 0 {
		e.SetInterval(opts.Interval)
	}
	return e
}

// AddSSID appends ssid. Duplicates are ignored.
func (e *Engine) AddSSID(ssid string) error {
	if !domain.IsValidSSID(ssid) {
		return fmt.Errorf("%w: %d bytes", domain.ErrSSIDTooLong, len(ssid))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.ssids {
		if s == ssid {
			return nil
		}
	}
	if len(e.ssids) >= e.max {
		return domain.ErrTargetLimit
	}
	e.ssids = append(e.ssids, ssid)
	return nil
}

// AddRandomSSID appends a random 8 to 14 character name and returns it.
func (e *Engine) AddRandomSSID() (string, error) {
	e.mu.Lock()
	ssid := frame.RandomSSID(e.rng)
	e.mu.Unlock()
	return ssid, e.AddSSID(ssid)
}

// ClearSSIDs empties the list.
func (e *Engine) ClearSSIDs() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ssids = nil
}

// SSIDs returns a copy of the list.
func (e *Engine) SSIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ssids...)
}

// SetMaxSSIDs bounds the list to 1..50 entries, truncating if needed.
func (e *Engine) SetMaxSSIDs(n int) {
	if n < 1 {
		n = 1
	}
	if n > maxSSIDLimit {
		n = maxSSIDLimit
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.max = n
	if len(e.ssids) > n {
		e.ssids = e.ssids[:n]
	}
}

// SetInterval sets the beacon cadence, clamped to 100ms..1s.
func (e *Engine) SetInterval(d time.Duration) {
	if d < MinInterval {
		d = MinInterval
	}
	if d > MaxInterval {
		d = MaxInterval
	}
	e.mu.Lock()
	e.interval = d
	e.mu.Unlock()
}

// SetChannel advertises and pins ch. 0 follows the scheduler.
func (e *Engine) SetChannel(ch int) error {
	if ch != 0 && !domain.IsValidChannel(ch) {
		return fmt.Errorf("invalid channel %d", ch)
	}
	e.mu.Lock()
	e.channel = ch
	e.mu.Unlock()
	return nil
}

func (e *Engine) SetHopping(enabled bool) {
	e.mu.Lock()
	e.hopping = enabled
	e.mu.Unlock()
}

// SetRandomizeMAC selects a fresh source per beacon or one source per session.
func (e *Engine) SetRandomizeMAC(enabled bool) {
	e.mu.Lock()
	e.randomize = enabled
	e.mu.Unlock()
}

// ApplySettings takes the cadence, list bound, hopping and address preferences.
func (e *Engine) ApplySettings(s domain.AttackSettings) {
	e.SetInterval(s.BeaconInterval)
	e.SetMaxSSIDs(s.MaxBeaconSSIDs)
	e.SetHopping(s.ChannelHopping)
	e.SetRandomizeMAC(s.RandomizeMAC)
}

// Start seeds random names when the list is empty and arms the interval.
func (e *Engine) Start(now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	if len(e.ssids) == 0 {
		n := seedCount
		if n > e.max {
			n = e.max
		}
		for i := 0; i < n; i++ {
			e.ssids = append(e.ssids, frame.RandomSSID(e.rng))
		}
	}
	e.fixedSrc = frame.RandomSourceAddress(e.rng)
	e.beacons = 0
	e.started = now
	e.lastSend = now
	e.lastTick = now
	e.running = true
	e.pinned = false

	if e.sched != nil {
		if e.channel != 0 {
			if err := e.sched.Pin(e.channel); err != nil {
				log.Printf("[BEACONSPAM] Pin channel %d failed: %v", e.channel, err)
			} else {
				e.pinned = true
			}
		} else {
			e.sched.SetHopping(e.hopping)
		}
	}
	log.Printf("[BEACONSPAM] Started with %d SSIDs every %v", len(e.ssids), e.interval)
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
	log.Printf("[BEACONSPAM] Stopped after %d beacons", e.beacons)
}

// Tick emits one beacon per SSID when the interval has elapsed.
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
	if !attack.Due(now, e.lastSend, e.interval) {
		return
	}
	e.lastSend = now

	for _, ssid := range e.ssids {
		src := e.fixedSrc
		if e.randomize {
			src = frame.RandomSourceAddress(e.rng)
		}
		f, err := frame.BuildBeacon(ssid, ch, src)
		if err != nil {
			continue
		}
		if !e.tx.Send("beacon", f) {
			return
		}
		e.beacons++
	}
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Beacons returns the monotonic beacon counter of the session.
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
	return domain.BeaconSpamVariant{
		SSIDs:    append([]string(nil), e.ssids...),
		Interval: e.interval,
		Channel:  ch,
	}
}
