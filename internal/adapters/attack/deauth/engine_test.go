package deauth

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/adapters/hopping"
	"github.com/lcalzada-xor/airstrike/internal/adapters/radio"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	apMAC     = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	clientMAC = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
)

func newTestEngine(t *testing.T) (*Engine, *radio.MockRadio, *hopping.Scheduler) {
	t.Helper()
	r := radio.NewMockRadio(domain.ApIdentity{Channel: 1})
	s := hopping.NewScheduler(r, nil, 500*time.Millisecond)
	return NewEngine(r, s, Options{}), r, s
}

func TestEngine_StartWithoutTargetsStaysIdle(t *testing.T) {
	e, _, _ := newTestEngine(t)
	err := e.Start(time.Now())
	assert.ErrorIs(t, err, domain.ErrNoTargets)
	assert.False(t, e.Running())
}

func TestEngine_TwentyPacketsAfterOneInterval(t *testing.T) {
	e, r, _ := newTestEngine(t)
	require.NoError(t, e.AddTarget(domain.Target{BSSID: apMAC, Client: clientMAC}))
	e.SetPacketsPerBurst(10)

	t0 := time.Unix(100, 0)
	require.NoError(t, e.Start(t0))

	e.Tick(t0.Add(50 * time.Millisecond))
	assert.Zero(t, e.PacketsSent(), "no burst before the interval")

	e.Tick(t0.Add(DefaultInterval))
	assert.Equal(t, uint32(20), e.PacketsSent())
	assert.Equal(t, uint32(20), e.Targets()[0].PacketsSent)

	packets := r.GetPackets()
	require.Len(t, packets, 30)
	assert.Equal(t, byte(0xC0), packets[0][0])
	assert.Equal(t, []byte(clientMAC), packets[0][4:10])
	assert.Equal(t, byte(0xC0), packets[1][0])
	assert.Equal(t, []byte(apMAC), packets[1][4:10])
	assert.Equal(t, byte(0xA0), packets[2][0])

	e.Stop()
	assert.False(t, e.Running())
	e.Tick(t0.Add(time.Second))
	assert.Equal(t, uint32(20), e.PacketsSent(), "counter frozen after stop")
	assert.Empty(t, e.Targets())
}

func TestEngine_BurstClamp(t *testing.T) {
	e, r, _ := newTestEngine(t)
	require.NoError(t, e.AddTarget(domain.Target{BSSID: apMAC}))
	e.SetPacketsPerBurst(500)

	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	e.Tick(t0.Add(DefaultInterval))
	assert.Equal(t, uint32(100), e.PacketsSent())
	assert.Len(t, r.GetPackets(), 150)

	e.SetPacketsPerBurst(0)
	e.Tick(t0.Add(2 * DefaultInterval))
	assert.Equal(t, uint32(102), e.PacketsSent())
}

func TestEngine_BroadcastDefault(t *testing.T) {
	e, r, _ := newTestEngine(t)
	require.NoError(t, e.AddTarget(domain.Target{BSSID: apMAC}))
	e.SetPacketsPerBurst(1)

	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	e.Tick(t0.Add(DefaultInterval))
	assert.Equal(t, []byte(domain.BroadcastMAC), r.GetPackets()[0][4:10])
}

func TestEngine_RejectsBadTargets(t *testing.T) {
	e, _, _ := newTestEngine(t)
	assert.ErrorIs(t, e.AddTarget(domain.Target{BSSID: net.HardwareAddr{1, 2}}), domain.ErrInvalidMAC)
	assert.ErrorIs(t, e.AddTarget(domain.Target{BSSID: apMAC, Client: net.HardwareAddr{1}}), domain.ErrInvalidMAC)

	small := NewEngine(nil, nil, Options{MaxTargets: 1})
	require.NoError(t, small.AddTarget(domain.Target{BSSID: apMAC}))
	assert.ErrorIs(t, small.AddTarget(domain.Target{BSSID: apMAC}), domain.ErrTargetLimit)
}

func TestEngine_RadioFailureKeepsRunning(t *testing.T) {
	e, r, _ := newTestEngine(t)
	require.NoError(t, e.AddTarget(domain.Target{BSSID: apMAC}))
	e.SetPacketsPerBurst(2)
	r.SetInjectErr(errors.New("tx queue full"))

	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	e.Tick(t0.Add(DefaultInterval))
	assert.True(t, e.Running())
	assert.Zero(t, e.PacketsSent())

	r.SetInjectErr(nil)
	e.Tick(t0.Add(2 * DefaultInterval))
	assert.Equal(t, uint32(4), e.PacketsSent())
}

func TestEngine_ChannelPinAndHopping(t *testing.T) {
	e, _, s := newTestEngine(t)
	require.NoError(t, e.AddTarget(domain.Target{BSSID: apMAC}))
	require.NoError(t, e.SetChannel(6))
	assert.Error(t, e.SetChannel(15))

	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	assert.Equal(t, hopping.StateLocked, s.State())
	assert.Equal(t, 6, s.Current())

	e.Stop()
	assert.NotEqual(t, hopping.StateLocked, s.State())

	require.NoError(t, e.SetChannel(0))
	require.NoError(t, e.AddTarget(domain.Target{BSSID: apMAC}))
	require.NoError(t, e.Start(t0))
	assert.Equal(t, hopping.StateHopping, s.State())

	e.Tick(t0.Add(100 * time.Millisecond))
	e.Tick(t0.Add(600 * time.Millisecond))
	assert.NotEqual(t, 6, s.Current())
}

func TestEngine_TargetChannelPinsScheduler(t *testing.T) {
	e, _, s := newTestEngine(t)
	require.NoError(t, e.AddTarget(domain.Target{BSSID: apMAC, Channel: 11}))

	require.NoError(t, e.Start(time.Unix(0, 0)))
	assert.Equal(t, 11, s.Current())
	assert.Equal(t, hopping.StateLocked, s.State())
}

func TestEngine_StopIsIdempotent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.Stop()
	require.NoError(t, e.AddTarget(domain.Target{BSSID: apMAC}))
	require.NoError(t, e.Start(time.Unix(0, 0)))
	e.Stop()
	e.Stop()
	assert.False(t, e.Running())
}

func TestEngine_StatsAndSnapshot(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.AddTarget(domain.Target{BSSID: apMAC, Client: clientMAC}))
	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	e.Tick(t0.Add(250 * time.Millisecond))

	st := e.Stats()
	assert.Equal(t, uint32(1), st.ClientsAffected)
	assert.Equal(t, 250*time.Millisecond, st.Duration)

	v, ok := e.Snapshot().(domain.DeauthVariant)
	require.True(t, ok)
	assert.Len(t, v.Targets, 1)
	assert.Equal(t, 10, v.Burst)
}

func TestEngine_MixedChannelsKeepHopping(t *testing.T) {
	e, r, s := newTestEngine(t)
	other := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x66}
	require.NoError(t, e.AddTarget(domain.Target{BSSID: apMAC, Channel: 6}))
	require.NoError(t, e.AddTarget(domain.Target{BSSID: other}))
	e.SetPacketsPerBurst(1)

	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	for i := 1; i <= 20; i++ {
		e.Tick(t0.Add(time.Duration(i) * DefaultInterval))
		assert.Equal(t, hopping.StateHopping, s.State(), "tick %d", i)
	}

	assert.NotEqual(t, 6, s.Current(), "radio returns to the hop channel after each round")
	assert.Contains(t, r.Channels, 2)
	assert.Contains(t, r.Channels, 3)
	for _, tgt := range e.Targets() {
		assert.NotZero(t, tgt.PacketsSent, domain.FormatMAC(tgt.BSSID))
	}
}

func TestEngine_FrameBudgetSpansTicks(t *testing.T) {
	r := radio.NewMockRadio(domain.ApIdentity{Channel: 1})
	e := NewEngine(r, nil, Options{FramesPerTick: 30})
	other := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x66}
	require.NoError(t, e.AddTarget(domain.Target{BSSID: apMAC}))
	require.NoError(t, e.AddTarget(domain.Target{BSSID: other}))
	e.SetPacketsPerBurst(10)

	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	e.Tick(t0.Add(DefaultInterval))
	assert.Len(t, r.GetPackets(), 30)
	assert.Equal(t, uint32(20), e.PacketsSent())

	e.Tick(t0.Add(DefaultInterval + 10*time.Millisecond))
	assert.Len(t, r.GetPackets(), 60)
	assert.Equal(t, uint32(40), e.PacketsSent())

	e.Tick(t0.Add(DefaultInterval + 20*time.Millisecond))
	assert.Len(t, r.GetPackets(), 60, "round finished, waiting for the next interval")
}

func TestEngine_FailedSendResumesOnNextTick(t *testing.T) {
	e, r, _ := newTestEngine(t)
	other := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x66}
	require.NoError(t, e.AddTarget(domain.Target{BSSID: apMAC}))
	require.NoError(t, e.AddTarget(domain.Target{BSSID: other}))
	e.SetPacketsPerBurst(2)

	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	r.SetInjectErr(errors.New("tx queue full"))
	e.Tick(t0.Add(DefaultInterval))
	assert.Zero(t, e.PacketsSent())

	r.SetInjectErr(nil)
	e.Tick(t0.Add(DefaultInterval + 10*time.Millisecond))
	assert.Equal(t, uint32(8), e.PacketsSent())
	for _, tgt := range e.Targets() {
		assert.Equal(t, uint32(4), tgt.PacketsSent)
	}
}
