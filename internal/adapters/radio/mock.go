package radio

import (
	"sync"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

// MockRadio implements ports.Radio in memory.
// Injected frames are recorded and captured frames are fed through Deliver.
type MockRadio struct {
	mu          sync.Mutex
	ReqPackets  [][]byte
	Channels    []int
	channel     int
	promiscuous bool
	handler     ports.CaptureHandler
	identity    domain.ApIdentity
	identities  []domain.ApIdentity
	clients     int
	closed      bool

	// InjectErr, ChannelErr and IdentityErr are returned by the matching calls when set.
	InjectErr   error
	ChannelErr  error
	IdentityErr error
}

var _ ports.Radio = (*MockRadio)(nil)

// NewMockRadio creates a mock advertising identity.
func NewMockRadio(identity domain.ApIdentity) *MockRadio {
	return &MockRadio{identity: identity.Clone(), channel: identity.Channel}
}

// Inject stores a copy of the frame.
func (m *MockRadio) Inject(frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InjectErr != nil {
		return m.InjectErr
	}
	p := make([]byte, len(frame))
	copy(p, frame)
	m.ReqPackets = append(m.ReqPackets, p)
	return nil
}

func (m *MockRadio) SetChannel(ch int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ChannelErr != nil {
		return m.ChannelErr
	}
	m.channel = ch
	m.Channels = append(m.Channels, ch)
	return nil
}

func (m *MockRadio) Channel() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channel
}

func (m *MockRadio) SetPromiscuous(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promiscuous = enabled
	return nil
}

// Promiscuous reports the receive mode.
func (m *MockRadio) Promiscuous() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.promiscuous
}

func (m *MockRadio) SetCaptureHandler(h ports.CaptureHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// Deliver invokes the capture handler as the driver would. It reports false
// when promiscuous mode is off or no handler is registered.
func (m *MockRadio) Deliver(frame []byte, rssi int) bool {
	m.mu.Lock()
	h, on := m.handler, m.promiscuous
	m.mu.Unlock()
	if h == nil || !on {
		return false
	}
	h(frame, rssi)
	return true
}

func (m *MockRadio) SetAPIdentity(id domain.ApIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IdentityErr != nil {
		return m.IdentityErr
	}
	m.identity = id.Clone()
	m.identities = append(m.identities, id.Clone())
	return nil
}

func (m *MockRadio) APIdentity() domain.ApIdentity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity.Clone()
}

// IdentityHistory returns every identity applied through SetAPIdentity.
func (m *MockRadio) IdentityHistory() []domain.ApIdentity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ApIdentity(nil), m.identities...)
}

// SetConnectedClients fixes the value ConnectedClients returns.
func (m *MockRadio) SetConnectedClients(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients = n
}

func (m *MockRadio) ConnectedClients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clients
}

func (m *MockRadio) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// GetPackets returns a copy of the injected frames.
func (m *MockRadio) GetPackets() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	packets := make([][]byte, len(m.ReqPackets))
	for i, p := range m.ReqPackets {
		packets[i] = append([]byte(nil), p...)
	}
	return packets
}

// ClearPackets clears the injected frames buffer.
func (m *MockRadio) ClearPackets() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReqPackets = nil
}

// SetInjectErr swaps the injection error under the lock.
func (m *MockRadio) SetInjectErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InjectErr = err
}
