package rickroll

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/adapters/frame"
	"github.com/lcalzada-xor/airstrike/internal/adapters/hopping"
	"github.com/lcalzada-xor/airstrike/internal/adapters/radio"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *radio.MockRadio, *hopping.Scheduler) {
	t.Helper()
	r := radio.NewMockRadio(domain.ApIdentity{Channel: 1})
	s := hopping.NewScheduler(r, nil, 500*time.Millisecond)
	return NewEngine(r, s, Options{Rand: rand.New(rand.NewSource(3))}), r, s
}

func TestIntervalForSpeed(t *testing.T) {
	assert.Equal(t, 3000*time.Millisecond, IntervalForSpeed(1))
	assert.Equal(t, 1500*time.Millisecond, IntervalForSpeed(2))
	assert.Equal(t, 1000*time.Millisecond, IntervalForSpeed(3))
	assert.Equal(t, 600*time.Millisecond, IntervalForSpeed(5))
	assert.Equal(t, 600*time.Millisecond, IntervalForSpeed(9))
	assert.Equal(t, 3000*time.Millisecond, IntervalForSpeed(0))
}

func TestEngine_Nudge(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetSpeed(3)
	e.Nudge()
	assert.Equal(t, 500*time.Millisecond, e.Interval())
	e.Nudge()
	assert.Equal(t, 2000*time.Millisecond, e.Interval())
	e.Nudge()
	assert.Equal(t, 1500*time.Millisecond, e.Interval())
}

func TestEngine_CyclesLyrics(t *testing.T) {
	e, r, _ := newTestEngine(t)
	e.SetSpeed(5)
	require.NoError(t, e.SetChannel(3))

	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	now := t0
	for i := 0; i < len(Lyrics)+1; i++ {
		now = now.Add(600 * time.Millisecond)
		e.Tick(now)
	}

	pkts := r.GetPackets()
	require.Len(t, pkts, len(Lyrics)+1)
	for i, p := range pkts {
		want := Lyrics[i%len(Lyrics)]
		n := int(p[frame.BeaconFixedLen+1])
		assert.Equal(t, want, string(p[frame.BeaconSSIDOffset:frame.BeaconSSIDOffset+n]))
		assert.Equal(t, byte(3), p[frame.BeaconChannelOffset(n)+2])
	}
	assert.Equal(t, uint32(len(Lyrics)+1), e.Beacons())
	assert.Equal(t, Lyrics[1], e.CurrentLine())
}

func TestEngine_NoBeaconBeforeInterval(t *testing.T) {
	e, r, _ := newTestEngine(t)
	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	e.Tick(t0.Add(1499 * time.Millisecond))
	assert.Empty(t, r.GetPackets())
	e.Tick(t0.Add(1500 * time.Millisecond))
	assert.Len(t, r.GetPackets(), 1)
}

func TestEngine_FailedSendKeepsLine(t *testing.T) {
	e, r, _ := newTestEngine(t)
	r.SetInjectErr(errors.New("busy"))
	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	e.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, Lyrics[0], e.CurrentLine())
	assert.True(t, e.Running())
}

func TestEngine_FixedSource(t *testing.T) {
	e, r, _ := newTestEngine(t)
	e.SetRandomizeMAC(false)
	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	e.Tick(t0.Add(2 * time.Second))
	p := r.GetPackets()[0]
	assert.Equal(t, []byte(fixedSource), p[10:16])
	assert.Equal(t, []byte(fixedSource), p[16:22])
}

func TestEngine_StopUnpins(t *testing.T) {
	e, _, s := newTestEngine(t)
	require.NoError(t, e.SetChannel(9))
	require.NoError(t, e.Start(time.Unix(0, 0)))
	assert.Equal(t, hopping.StateLocked, s.State())
	e.Stop()
	assert.NotEqual(t, hopping.StateLocked, s.State())
	e.Stop()

	v, ok := e.Snapshot().(domain.RickrollVariant)
	require.True(t, ok)
	assert.Equal(t, 9, v.Channel)
}
