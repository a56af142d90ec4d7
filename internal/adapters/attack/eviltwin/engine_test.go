package eviltwin

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/adapters/hopping"
	"github.com/lcalzada-xor/airstrike/internal/adapters/radio"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaptive struct {
	mu     sync.Mutex
	dnsIP  net.IP
	routes *ports.PortalRoutes
	calls  []string
	dnsErr error
}

func (f *fakeCaptive) StartRedirectAllDNS(ip net.IP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "dns-start")
	if f.dnsErr != nil {
		return f.dnsErr
	}
	f.dnsIP = ip
	return nil
}

func (f *fakeCaptive) StopDNS() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "dns-stop")
	f.dnsIP = nil
	return nil
}

func (f *fakeCaptive) StartHTTPServer(r ports.PortalRoutes) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "http-start")
	f.routes = &r
	return nil
}

func (f *fakeCaptive) StopHTTPServer() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "http-stop")
	f.routes = nil
	return nil
}

type memSink struct {
	mu   sync.Mutex
	recs []domain.Record
}

func (m *memSink) Persist(r domain.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, r)
}

var (
	originalID = domain.ApIdentity{
		SSID:    "WiFi-Watchdog",
		HWAddr:  net.HardwareAddr{0x5c, 0xcf, 0x7f, 0x00, 0x00, 0x01},
		Channel: 1,
	}
	targetNet = domain.Network{
		SSID:    "CoffeeShop",
		BSSID:   net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		Channel: 6,
	}
)

type fixture struct {
	engine  *Engine
	radio   *radio.MockRadio
	sched   *hopping.Scheduler
	captive *fakeCaptive
	sink    *memSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := radio.NewMockRadio(originalID)
	s := hopping.NewScheduler(r, nil, 500*time.Millisecond)
	c := &fakeCaptive{}
	sink := &memSink{}
	return &fixture{
		engine:  NewEngine(r, s, c, sink, Options{}),
		radio:   r,
		sched:   s,
		captive: c,
		sink:    sink,
	}
}

func TestEngine_StartWithoutTarget(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.engine.Start(time.Now()), domain.ErrNoNetwork)
	assert.False(t, f.engine.Running())
	assert.Equal(t, domain.StageIdle, f.engine.Stage())
}

func TestEngine_SetTargetValidation(t *testing.T) {
	f := newFixture(t)
	bad := targetNet
	bad.BSSID = net.HardwareAddr{1, 2, 3}
	assert.ErrorIs(t, f.engine.SetTarget(bad), domain.ErrInvalidMAC)
	bad = targetNet
	bad.Channel = 0
	assert.Error(t, f.engine.SetTarget(bad))
	require.NoError(t, f.engine.SetTarget(targetNet))
}

func TestEngine_StagesAdvance(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.SetTarget(targetNet))

	t0 := time.Unix(0, 0)
	require.NoError(t, f.engine.Start(t0))
	assert.Equal(t, domain.StageDeauthing, f.engine.Stage())
	assert.Equal(t, 6, f.sched.Current(), "deauth stage runs on the target channel")

	f.engine.Tick(t0.Add(time.Second))
	assert.Equal(t, domain.StageDeauthing, f.engine.Stage())
	pkts := f.radio.GetPackets()
	require.NotEmpty(t, pkts)
	assert.Equal(t, []byte(targetNet.BSSID), pkts[0][16:22])
	assert.True(t, originalID.Equal(f.radio.APIdentity()), "stage one never touches the identity")

	f.engine.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, domain.StagePortalActive, f.engine.Stage())

	id := f.radio.APIdentity()
	assert.Equal(t, "CoffeeShop", id.SSID)
	assert.Equal(t, targetNet.BSSID.String(), id.HWAddr.String())
	assert.Equal(t, 6, id.Channel)
	assert.Equal(t, hopping.StateLocked, f.sched.State())
	assert.True(t, DefaultPortalIP.Equal(f.captive.dnsIP))
	require.NotNil(t, f.captive.routes)

	// Deauth stops once the portal is up.
	n := len(f.radio.GetPackets())
	f.engine.Tick(t0.Add(5 * time.Second))
	assert.Len(t, f.radio.GetPackets(), n)
}

func TestEngine_StopFromDeauthingRestoresIdentity(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.SetTarget(targetNet))
	t0 := time.Unix(0, 0)
	require.NoError(t, f.engine.Start(t0))
	f.engine.Tick(t0.Add(time.Second))

	f.engine.Stop()
	assert.False(t, f.engine.Running())
	assert.Equal(t, domain.StageIdle, f.engine.Stage())
	assert.True(t, originalID.Equal(f.radio.APIdentity()))
	assert.Empty(t, f.captive.calls, "responders were never started")
	assert.NotEqual(t, hopping.StateLocked, f.sched.State())
}

func TestEngine_StopFromPortalRestoresEverything(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.SetTarget(targetNet))
	t0 := time.Unix(0, 0)
	require.NoError(t, f.engine.Start(t0))
	f.engine.Tick(t0.Add(2 * time.Second))
	require.Equal(t, domain.StagePortalActive, f.engine.Stage())

	f.engine.Stop()
	f.engine.Stop()
	assert.True(t, originalID.Equal(f.radio.APIdentity()))
	assert.Equal(t, []string{"dns-start", "http-start", "dns-stop", "http-stop"}, f.captive.calls)
	assert.Equal(t, domain.StageIdle, f.engine.Stage())
	assert.NotEqual(t, hopping.StateLocked, f.sched.State())
}

func TestEngine_CloneFailureRetries(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.SetTarget(targetNet))
	f.radio.IdentityErr = errors.New("hostapd down")
	t0 := time.Unix(0, 0)
	require.NoError(t, f.engine.Start(t0))

	f.engine.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, domain.StageDeauthing, f.engine.Stage())
	assert.True(t, f.engine.Running())

	f.radio.IdentityErr = nil
	f.engine.Tick(t0.Add(2500 * time.Millisecond))
	assert.Equal(t, domain.StageDeauthing, f.engine.Stage(), "retry is throttled")
	f.engine.Tick(t0.Add(3 * time.Second))
	assert.Equal(t, domain.StagePortalActive, f.engine.Stage())
}

func TestEngine_DNSFailureRetried(t *testing.T) {
	f := newFixture(t)
	f.captive.dnsErr = errors.New("port 53 in use")
	require.NoError(t, f.engine.SetTarget(targetNet))
	t0 := time.Unix(0, 0)
	require.NoError(t, f.engine.Start(t0))
	f.engine.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, domain.StagePortalActive, f.engine.Stage())

	f.captive.mu.Lock()
	f.captive.dnsErr = nil
	f.captive.mu.Unlock()
	f.engine.Tick(t0.Add(3 * time.Second))
	assert.NotNil(t, f.captive.dnsIP)
	assert.Equal(t, []string{"dns-start", "http-start", "dns-start"}, f.captive.calls)
}

func TestEngine_PortalCapturesCredentials(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.SetTarget(targetNet))
	t0 := time.Unix(0, 0)
	require.NoError(t, f.engine.Start(t0))
	f.engine.Tick(t0.Add(2 * time.Second))
	routes := f.captive.routes
	require.NotNil(t, routes)

	rec := httptest.NewRecorder()
	routes.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "action='/login'")
	assert.Contains(t, rec.Body.String(), "CoffeeShop")

	form := url.Values{"username": {"alice"}, "password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "192.168.4.2:51000"
	rec = httptest.NewRecorder()
	routes.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, LoginFailedBody, rec.Body.String())
	assert.Equal(t, uint32(1), f.engine.Credentials())
	assert.Equal(t, uint32(1), f.engine.Stats().CredentialsCaptured)

	require.Len(t, f.sink.recs, 1)
	cred, ok := f.sink.recs[0].(domain.CredentialRecord)
	require.True(t, ok)
	assert.Equal(t, "CoffeeShop", cred.SSID)
	assert.Equal(t, map[string]string{"username": "alice", "password": "hunter2"}, cred.Fields)
	assert.Equal(t, "192.168.4.2", cred.RemoteAddr)

	rec = httptest.NewRecorder()
	routes.Login(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestEngine_ClientsInStats(t *testing.T) {
	f := newFixture(t)
	f.radio.SetConnectedClients(3)
	require.NoError(t, f.engine.SetTarget(targetNet))
	t0 := time.Unix(0, 0)
	require.NoError(t, f.engine.Start(t0))
	assert.Zero(t, f.engine.Stats().ClientsAffected)

	f.engine.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, uint32(3), f.engine.Stats().ClientsAffected)

	v, ok := f.engine.Snapshot().(domain.EvilTwinVariant)
	require.True(t, ok)
	assert.Equal(t, domain.StagePortalActive, v.Stage)
	assert.Equal(t, "WiFi-Watchdog", v.Original.SSID)
	assert.Equal(t, 3, v.Clients)
}

// countingRadio counts station queries, which hostapd answers by running iw.
type countingRadio struct {
	*radio.MockRadio
	mu      sync.Mutex
	queries int
}

func (c *countingRadio) ConnectedClients() int {
	c.mu.Lock()
	c.queries++
	c.mu.Unlock()
	return c.MockRadio.ConnectedClients()
}

func (c *countingRadio) Queries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queries
}

func TestEngine_PortalPollsClientsOncePerSecond(t *testing.T) {
	r := &countingRadio{MockRadio: radio.NewMockRadio(originalID)}
	r.SetConnectedClients(2)
	s := hopping.NewScheduler(r, nil, 500*time.Millisecond)
	e := NewEngine(r, s, &fakeCaptive{}, nil, Options{})
	require.NoError(t, e.SetTarget(targetNet))

	t0 := time.Unix(0, 0)
	require.NoError(t, e.Start(t0))
	active := t0.Add(DefaultSettleDelay)
	e.Tick(active)
	require.Equal(t, domain.StagePortalActive, e.Stage())
	require.Equal(t, 1, r.Queries(), "counted once on activation")

	for i := 1; i <= 100; i++ {
		e.Tick(active.Add(time.Duration(i) * 10 * time.Millisecond))
		e.Stats()
		e.Snapshot()
	}
	assert.Less(t, r.Queries()-1, 2, "100 ticks over one second")
	assert.Equal(t, uint32(2), e.Stats().ClientsAffected)

	r.SetConnectedClients(5)
	e.Tick(active.Add(2 * time.Second))
	assert.Equal(t, uint32(5), e.Stats().ClientsAffected)
}
