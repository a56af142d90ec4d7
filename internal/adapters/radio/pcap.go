package radio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/gopacket/pcap"
	"github.com/lcalzada-xor/airstrike/internal/adapters/hopping"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"github.com/lcalzada-xor/airstrike/internal/telemetry"
)

const (
	snapLen     = 65536
	readTimeout = 100 * time.Millisecond
)

// APController owns the access point personality of the interface.
type APController interface {
	Apply(id domain.ApIdentity) error
	Identity() domain.ApIdentity
	Stations() (int, error)
	Close() error
}

// PcapRadio is a monitor-mode interface driven through libpcap.
// Channel changes go through iw, the access point through an APController.
type PcapRadio struct {
	iface    string
	handle   *pcap.Handle
	switcher *hopping.IWSwitcher
	ap       APController

	injectMu sync.Mutex

	mu      sync.RWMutex
	promisc bool
	handler ports.CaptureHandler

	cancel context.CancelFunc
	done   chan struct{}
}

var _ ports.Radio = (*PcapRadio)(nil)

// OpenPcap opens iface (already in monitor mode) and starts the capture loop.
// ap may be nil when the evil twin is not used.
func OpenPcap(iface string, ap APController) (*PcapRadio, error) {
	handle, err := pcap.OpenLive(iface, snapLen, true, readTimeout)
	if err != nil {
		return nil, fmt.Errorf("pcap open %s: %w: %v", iface, domain.ErrRadio, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &PcapRadio{
		iface:    iface,
		handle:   handle,
		switcher: hopping.NewIWSwitcher(iface),
		ap:       ap,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go r.captureLoop(ctx)
	return r, nil
}

func (r *PcapRadio) captureLoop(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		data, _, err := r.handle.ReadPacketData()
		if err != nil {
			if errors.Is(err, pcap.NextErrorTimeoutExpired) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.Printf("[RADIO] Capture on %s failed: %v", r.iface, err)
			time.Sleep(readTimeout)
			continue
		}
		r.deliver(data)
	}
}

func (r *PcapRadio) deliver(data []byte) {
	r.mu.RLock()
	promisc, handler := r.promisc, r.handler
	r.mu.RUnlock()
	if !promisc || handler == nil {
		return
	}
	frame, rssi, ok := StripRadiotap(data)
	if !ok {
		return
	}
	telemetry.FramesCaptured.Inc()
	handler(frame, rssi)
}

// Inject transmits one raw 802.11 frame.
func (r *PcapRadio) Inject(frame []byte) error {
	pkt, err := WrapRadiotap(frame)
	if err != nil {
		return err
	}
	r.injectMu.Lock()
	defer r.injectMu.Unlock()
	if err := r.handle.WritePacketData(pkt); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRadio, err)
	}
	return nil
}

func (r *PcapRadio) SetChannel(ch int) error {
	if !domain.IsValidChannel(ch) {
		return fmt.Errorf("invalid channel %d", ch)
	}
	return r.switcher.SetChannel(ch)
}

func (r *PcapRadio) Channel() int {
	return r.switcher.Channel()
}

// SetPromiscuous gates delivery of captured frames to the handler.
func (r *PcapRadio) SetPromiscuous(enabled bool) error {
	r.mu.Lock()
	r.promisc = enabled
	r.mu.Unlock()
	return nil
}

func (r *PcapRadio) SetCaptureHandler(h ports.CaptureHandler) {
	r.mu.Lock()
	r.handler = h
	r.mu.Unlock()
}

func (r *PcapRadio) SetAPIdentity(id domain.ApIdentity) error {
	if r.ap == nil {
		return fmt.Errorf("%w: no access point controller", domain.ErrRadio)
	}
	return r.ap.Apply(id)
}

func (r *PcapRadio) APIdentity() domain.ApIdentity {
	if r.ap == nil {
		return domain.ApIdentity{}
	}
	return r.ap.Identity()
}

func (r *PcapRadio) ConnectedClients() int {
	if r.ap == nil {
		return 0
	}
	n, err := r.ap.Stations()
	if err != nil {
		return 0
	}
	return n
}

func (r *PcapRadio) Close() error {
	r.cancel()
	<-r.done
	r.handle.Close()
	if r.ap != nil {
		return r.ap.Close()
	}
	return nil
}
