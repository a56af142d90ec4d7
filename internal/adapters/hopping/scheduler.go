package hopping

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

// DefaultInterval is the dwell time per channel.
const DefaultInterval = 500 * time.Millisecond

// Channels24GHz is the hop set used when none is configured.
var Channels24GHz = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}

// Scheduler advances the shared radio channel on a fixed cadence.
// It never sleeps: Tick compares the injected clock against the last hop.
type Scheduler struct {
	radio    ports.ChannelSetter
	interval time.Duration

	mu         sync.Mutex
	channels   []int
	index      int
	current    int
	lastHop    time.Time
	state      stateCell
	hopping    bool
	errorCount int
}

// NewScheduler creates an idle scheduler. Call SetHopping(true) to start hopping.
func NewScheduler(radio ports.ChannelSetter, channels []int, interval time.Duration) *Scheduler {
	if len(channels) == 0 {
		channels = Channels24GHz
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		radio:    radio,
		channels: append([]int(nil), channels...),
		interval: interval,
		current:  channels[0],
	}
}

// Tick hops to the next channel once the interval has elapsed.
// It reports whether the radio channel changed.
func (s *Scheduler) Tick(now time.Time) bool {
	if s.state.Get() != StateHopping {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastHop.IsZero() {
		s.lastHop = now
		return false
	}
	if now.Sub(s.lastHop) < s.interval {
		return false
	}
	s.lastHop = now

	next := (s.index + 1) % len(s.channels)
	ch := s.channels[next]
	if err := s.radio.SetChannel(ch); err != nil {
		s.errorCount++
		if s.errorCount == 1 || s.errorCount%10 == 0 {
			log.Printf("[HOPPER] Failed to set channel %d: %v (consecutive errors: %d)", ch, err, s.errorCount)
		}
		return false
	}
	if s.errorCount > 0 {
		log.Printf("[HOPPER] Recovered after %d errors", s.errorCount)
		s.errorCount = 0
	}
	s.index = next
	s.current = ch
	return true
}

// Pin tunes the radio to ch and suspends hopping until Unpin.
func (s *Scheduler) Pin(ch int) error {
	if ch < 1 || ch > 14 {
		return fmt.Errorf("invalid channel %d", ch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.radio.SetChannel(ch); err != nil {
		return fmt.Errorf("pin channel %d: %w", ch, err)
	}
	s.current = ch
	for i, c := range s.channels {
		if c == ch {
			s.index = i
			break
		}
	}
	s.state.Set(StateLocked)
	return nil
}

// Unpin releases a pinned channel and restores the hopping preference.
// The hop timer keeps running across short pins.
func (s *Scheduler) Unpin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Get() != StateLocked {
		return
	}
	s.state.Set(s.preferred())
}

// SetHopping enables or disables hopping. A pinned channel stays pinned.
func (s *Scheduler) SetHopping(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hopping = enabled
	if s.state.Get() == StateLocked {
		return
	}
	s.lastHop = time.Time{}
	s.state.Set(s.preferred())
}

func (s *Scheduler) preferred() SchedulerState {
	if s.hopping {
		return StateHopping
	}
	return StateIdle
}

// Current returns the channel the radio was last tuned to.
func (s *Scheduler) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// State returns the scheduler state.
func (s *Scheduler) State() SchedulerState {
	return s.state.Get()
}

// SetChannels replaces the hop set and restarts from its first entry.
func (s *Scheduler) SetChannels(channels []int) {
	if len(channels) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = append([]int(nil), channels...)
	s.index = len(s.channels) - 1
	log.Printf("[HOPPER] Channel set updated to: %v", channels)
}

// Channels returns a copy of the hop set.
func (s *Scheduler) Channels() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.channels...)
}
