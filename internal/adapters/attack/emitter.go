// Package attack holds what the attack state machines share: frame emission
// with failure accounting.
package attack

import (
	"log"
	"strings"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"github.com/lcalzada-xor/airstrike/internal/telemetry"
)

// DefaultFrameGap is the pause after each transmitted frame.
const DefaultFrameGap = time.Millisecond

// Emitter injects frames for one attack and counts failures.
// Not safe for concurrent use; each machine owns its emitter.
type Emitter struct {
	radio  ports.FrameInjector
	attack string
	prefix string
	gap    time.Duration
	sleep  func(time.Duration)

	errorCount int
}

// NewEmitter binds an emitter to radio. gap is slept after every accepted frame.
func NewEmitter(radio ports.FrameInjector, attack string, gap time.Duration) *Emitter {
	return &Emitter{
		radio:  radio,
		attack: attack,
		prefix: "[" + strings.ToUpper(strings.ReplaceAll(attack, "_", "")) + "]",
		gap:    gap,
		sleep:  time.Sleep,
	}
}

// Send injects frame and reports whether the radio accepted it.
// Failures are logged on the first and every tenth consecutive error.
func (e *Emitter) Send(kind string, frame []byte) bool {
	if e.radio == nil {
		return false
	}
	if err := e.radio.Inject(frame); err != nil {
		e.errorCount++
		telemetry.InjectionErrors.WithLabelValues(e.attack).Inc()
		if e.errorCount == 1 || e.errorCount%10 == 0 {
			log.Printf("%s Injection failed: %v (consecutive errors: %d)", e.prefix, err, e.errorCount)
		}
		return false
	}
	if e.errorCount > 0 {
		log.Printf("%s Radio recovered after %d errors", e.prefix, e.errorCount)
		e.errorCount = 0
	}
	telemetry.FramesInjected.WithLabelValues(e.attack, kind).Inc()
	if e.gap > 0 {
		e.sleep(e.gap)
	}
	return true
}

// ConsecutiveErrors returns the current failure streak.
func (e *Emitter) ConsecutiveErrors() int {
	return e.errorCount
}

// Due reports whether interval has elapsed since last.
func Due(now, last time.Time, interval time.Duration) bool {
	return !now.Before(last.Add(interval))
}
