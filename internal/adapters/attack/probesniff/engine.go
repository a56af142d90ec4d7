package probesniff

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/adapters/frame"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"github.com/lcalzada-xor/airstrike/internal/telemetry"
)

const (
	DefaultMaxProbes     = 100
	DefaultDeviceTimeout = 60 * time.Second
	DefaultMinSignal     = -85
	DefaultQueueSize     = 512
)

// Options tune an Engine.
type Options struct {
	MaxProbes        int
	DeviceTimeout    time.Duration
	MinSignal        int
	FilterDuplicates bool
	SaveProbes       bool
	QueueSize        int
}

// DefaultOptions mirrors the device defaults.
func DefaultOptions() Options {
	return Options{
		MaxProbes:        DefaultMaxProbes,
		DeviceTimeout:    DefaultDeviceTimeout,
		MinSignal:        DefaultMinSignal,
		FilterDuplicates: true,
		SaveProbes:       true,
		QueueSize:        DefaultQueueSize,
	}
}

type captured struct {
	frame []byte
	rssi  int
}

// Engine listens in promiscuous mode and keeps one Observation per probing client.
// The capture callback only enqueues; Tick is the single writer of the table.
type Engine struct {
	mu    sync.Mutex
	radio ports.Radio
	sched ports.ChannelScheduler
	sink  ports.RecordPersister

	queue  chan captured
	parser frame.CaptureParser
	opts   Options

	channel        int
	hopping        bool
	table          map[string]*domain.Observation
	running        bool
	pinned         bool
	promiscPending bool
	started        time.Time
	lastTick       time.Time
	sightings      uint32
}

var _ ports.ProbeMachine = (*Engine)(nil)

// NewEngine creates an idle sniffer. sink may be nil.
func NewEngine(radio ports.Radio, sched ports.ChannelScheduler, sink ports.RecordPersister, opts Options) *Engine {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	e := &Engine{
		radio:   radio,
		sched:   sched,
		sink:    sink,
		queue:   make(chan captured, opts.QueueSize),
		hopping: true,
		table:   make(map[string]*domain.Observation),
	}
	e.Configure(opts)
	return e
}

// Configure replaces the tunables. MaxProbes and DeviceTimeout fall back to defaults when unset.
func (e *Engine) Configure(opts Options) {
	if opts.MaxProbes <= 0 {
		opts.MaxProbes = DefaultMaxProbes
	}
	if opts.DeviceTimeout <= 0 {
		opts.DeviceTimeout = DefaultDeviceTimeout
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	opts.QueueSize = cap(e.queue)
	e.opts = opts
	e.parser = frame.CaptureParser{MinSignal: opts.MinSignal}
}

// ApplySettings takes the table limits, filters and hopping preference.
func (e *Engine) ApplySettings(s domain.AttackSettings) {
	e.Configure(Options{
		MaxProbes:        s.MaxProbes,
		DeviceTimeout:    s.DeviceTimeout,
		MinSignal:        s.MinSignal,
		FilterDuplicates: s.FilterDuplicates,
		SaveProbes:       s.SaveProbes,
	})
	e.SetHopping(s.ChannelHopping)
}

func (e *Engine) SetHopping(enabled bool) {
	e.mu.Lock()
	e.hopping = enabled
	e.mu.Unlock()
}

// SetChannel listens on ch only. 0 follows the scheduler.
func (e *Engine) SetChannel(ch int) error {
	if ch != 0 && !domain.IsValidChannel(ch) {
		return fmt.Errorf("invalid channel %d", ch)
	}
	e.mu.Lock()
	e.channel = ch
	e.mu.Unlock()
	return nil
}

// onFrame runs on the driver goroutine. The frame is copied because drivers reuse buffers.
func (e *Engine) onFrame(f []byte, rssi int) {
	telemetry.FramesCaptured.Inc()
	select {
	case e.queue <- captured{frame: append([]byte(nil), f...), rssi: rssi}:
	default:
		telemetry.CaptureDropped.Inc()
	}
}

// Start clears the table and enables promiscuous capture.
func (e *Engine) Start(now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}
	if e.radio == nil {
		return fmt.Errorf("probe sniff: %w: no radio", domain.ErrRadio)
	}
	e.drop()
	e.table = make(map[string]*domain.Observation)
	e.sightings = 0
	e.started = now
	e.lastTick = now
	e.running = true
	e.pinned = false

	e.radio.SetCaptureHandler(e.onFrame)
	e.enablePromiscuous()

	if e.sched != nil {
		if e.channel != 0 {
			if err := e.sched.Pin(e.channel); err == nil {
				e.pinned = true
			}
		} else {
			e.sched.SetHopping(e.hopping)
		}
	}
	log.Printf("[PROBESNIFF] Started (max=%d, timeout=%v, min signal=%d dBm)", e.opts.MaxProbes, e.opts.DeviceTimeout, e.opts.MinSignal)
	return nil
}

func (e *Engine) enablePromiscuous() {
	if err := e.radio.SetPromiscuous(true); err != nil {
		if !e.promiscPending {
			log.Printf("[PROBESNIFF] Enabling promiscuous mode failed, retrying: %v", err)
		}
		e.promiscPending = true
		return
	}
	e.promiscPending = false
}

// Stop disables capture and hands every observation to the sink when saving is on.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	e.radio.SetCaptureHandler(nil)
	if err := e.radio.SetPromiscuous(false); err != nil {
		log.Printf("[PROBESNIFF] Disabling promiscuous mode failed: %v", err)
	}
	e.promiscPending = false
	e.drop()
	if e.pinned && e.sched != nil {
		e.sched.Unpin()
	}
	e.pinned = false

	if e.opts.SaveProbes && e.sink != nil {
		for _, o := range e.sorted() {
			e.sink.Persist(domain.NewProbeRecord(o))
		}
	}
	log.Printf("[PROBESNIFF] Stopped with %d devices", len(e.table))
}

// drop discards queued frames.
func (e *Engine) drop() {
	for {
		select {
		case <-e.queue:
		default:
			return
		}
	}
}

// Tick evicts stale observations then folds queued frames into the table.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.lastTick = now
	if e.promiscPending {
		e.enablePromiscuous()
	}
	if e.sched != nil {
		e.sched.Tick(now)
	}
	e.evict(now)

	for n := len(e.queue); n > 0; n-- {
		c := <-e.queue
		s, ok := e.parser.Parse(c.frame, c.rssi)
		if !ok {
			continue
		}
		e.record(s, now)
	}
}

func (e *Engine) evict(now time.Time) {
	for mac, o := range e.table {
		if now.Sub(o.LastSeen) > e.opts.DeviceTimeout {
			delete(e.table, mac)
			telemetry.ObservationsEvicted.Inc()
		}
	}
}

// record updates an existing client or, below capacity, adds a new one.
func (e *Engine) record(s domain.ProbeSighting, now time.Time) {
	key := domain.FormatMAC(s.Client)
	o, ok := e.table[key]
	if !ok {
		if len(e.table) >= e.opts.MaxProbes {
			return
		}
		o = &domain.Observation{
			Client:    s.Client,
			Signal:    s.Signal,
			FirstSeen: now,
		}
		e.table[key] = o
	} else {
		o.Signal = domain.SmoothSignal(o.Signal, s.Signal)
	}
	o.LastSeen = now
	o.Sightings++
	e.sightings++
	if !e.opts.FilterDuplicates || !o.HasSSID(s.SSID) {
		o.SSIDs = append(o.SSIDs, s.SSID)
	}
}

func (e *Engine) sorted() []domain.Observation {
	out := make([]domain.Observation, 0, len(e.table))
	for _, o := range e.table {
		c := *o
		c.SSIDs = append([]string(nil), o.SSIDs...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FirstSeen.Equal(out[j].FirstSeen) {
			return out[i].FirstSeen.Before(out[j].FirstSeen)
		}
		return out[i].Client.String() < out[j].Client.String()
	})
	return out
}

// Observations returns a copy of the table ordered by first sighting.
func (e *Engine) Observations() []domain.Observation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sorted()
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
		ProbesCollected: uint32(len(e.table)),
		PacketsTotal:    e.sightings,
		Duration:        d,
	}
}

func (e *Engine) Snapshot() domain.SessionVariant {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := e.channel
	if ch == 0 && e.sched != nil {
		ch = e.sched.Current()
	}
	return domain.ProbeSniffVariant{Observations: e.sorted(), Channel: ch}
}
