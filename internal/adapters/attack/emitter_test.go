package attack

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubInjector struct {
	frames [][]byte
	err    error
}

func (s *stubInjector) Inject(f []byte) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, f)
	return nil
}

func TestEmitter_SendAndGap(t *testing.T) {
	radio := &stubInjector{}
	e := NewEmitter(radio, "deauth", 2*time.Millisecond)
	var slept time.Duration
	e.sleep = func(d time.Duration) { slept += d }

	assert.True(t, e.Send("deauth", []byte{1}))
	assert.True(t, e.Send("deauth", []byte{2}))
	assert.Len(t, radio.frames, 2)
	assert.Equal(t, 4*time.Millisecond, slept)
}

func TestEmitter_CountsFailures(t *testing.T) {
	radio := &stubInjector{err: errors.New("busy")}
	e := NewEmitter(radio, "beacon_spam", 0)

	for i := 0; i < 3; i++ {
		assert.False(t, e.Send("beacon", []byte{1}))
	}
	assert.Equal(t, 3, e.ConsecutiveErrors())

	radio.err = nil
	assert.True(t, e.Send("beacon", []byte{1}))
	assert.Equal(t, 0, e.ConsecutiveErrors())
}

func TestEmitter_NilRadio(t *testing.T) {
	assert.False(t, NewEmitter(nil, "x", 0).Send("x", nil))
}

func TestDue(t *testing.T) {
	t0 := time.Unix(0, 0)
	assert.False(t, Due(t0.Add(99*time.Millisecond), t0, 100*time.Millisecond))
	assert.True(t, Due(t0.Add(100*time.Millisecond), t0, 100*time.Millisecond))
}
