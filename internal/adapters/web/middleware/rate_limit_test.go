package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.Now
	t.Cleanup(rl.Close)
	return rl, clock
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl, _ := newTestLimiter(t, 5, time.Minute)

	for i := 0; i < 5; i++ {
		require.True(t, rl.Allow("192.168.4.2"), "login attempt %d", i+1)
	}
	assert.False(t, rl.Allow("192.168.4.2"))
	assert.True(t, rl.Allow("192.168.4.3"), "other clients keep their own budget")
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute)

	require.True(t, rl.Allow("10.0.0.1"))
	clock.Advance(30 * time.Second)
	require.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// Only the first request has left the window.
	clock.Advance(31 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	rl, clock := newTestLimiter(t, 5, 100*time.Millisecond)

	rl.Allow("192.168.4.2")
	rl.Allow("192.168.4.3")
	clock.Advance(50 * time.Millisecond)
	rl.Allow("192.168.4.4")

	clock.Advance(60 * time.Millisecond)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.requests, 1)
	assert.Contains(t, rl.requests, "192.168.4.4")
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl, _ := newTestLimiter(t, 30, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if rl.Allow("192.168.4.2") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 30, allowed)
}

func TestRetryAfter(t *testing.T) {
	for _, tc := range []struct {
		window time.Duration
		want   int
	}{
		{time.Minute, 60},
		{1500 * time.Millisecond, 2},
		{10 * time.Millisecond, 1},
	} {
		rl, _ := newTestLimiter(t, 1, tc.window)
		assert.Equal(t, tc.want, rl.RetryAfter(), tc.window.String())
	}
}

func TestRateLimitMiddleware_KeysOnHost(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)
	h := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	first.RemoteAddr = "10.0.0.5:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Same host on a new source port is still the same client.
	second := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	second.RemoteAddr = "10.0.0.5:40001"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "[fe80::1]:5353"
	assert.Equal(t, "fe80::1", ClientIP(r))

	r.RemoteAddr = "unix"
	assert.Equal(t, "unix", ClientIP(r))
}
