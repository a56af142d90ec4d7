package ports

import (
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
)

// CaptureHandler receives one raw 802.11 frame (no radiotap) and its RSSI in dBm.
// It is invoked on the driver's own goroutine.
type CaptureHandler func(frame []byte, rssi int)

// FrameInjector transmits raw 802.11 frames.
type FrameInjector interface {
	// Inject queues the frame for transmission. It must not block on the air.
	Inject(frame []byte) error
}

// ChannelSetter tunes the radio.
type ChannelSetter interface {
	SetChannel(ch int) error
}

// Radio is the control surface of the wireless driver.
type Radio interface {
	FrameInjector
	ChannelSetter

	// Channel returns the last channel successfully set.
	Channel() int

	// SetPromiscuous switches passive receive of all frames on or off.
	SetPromiscuous(enabled bool) error

	// SetCaptureHandler registers the capture callback. nil unregisters it.
	SetCaptureHandler(h CaptureHandler)

	// SetAPIdentity re-identifies the local access point.
	SetAPIdentity(id domain.ApIdentity) error

	// APIdentity returns the identity currently advertised.
	APIdentity() domain.ApIdentity

	// ConnectedClients reports stations associated to the local access point.
	ConnectedClients() int

	Close() error
}

// ChannelScheduler owns the shared radio channel between attack machines.
type ChannelScheduler interface {
	// Tick hops when due and reports whether the channel changed.
	Tick(now time.Time) bool
	Pin(ch int) error
	Unpin()
	SetHopping(enabled bool)
	Current() int
}
