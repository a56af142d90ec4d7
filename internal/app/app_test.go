package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/adapters/radio"
	"github.com/lcalzada-xor/airstrike/internal/adapters/storage"
	"github.com/lcalzada-xor/airstrike/internal/config"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/services/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.MockMode = true
	cfg.MockScenario = "basic"
	cfg.DBPath = filepath.Join(t.TempDir(), "db", "airstrike.db")
	cfg.OUIDBPath = filepath.Join(t.TempDir(), "missing.db")
	cfg.Addr = "127.0.0.1:0"
	cfg.GRPCPort = 0
	cfg.PasswordHash = ""
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNew_MockMode(t *testing.T) {
	app, err := New(mockConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.closeResources() })

	assert.IsType(t, &radio.MockRadio{}, app.Radio)
	assert.Nil(t, app.AuthService)
	assert.Nil(t, app.WebServer.AuthService)
	assert.Equal(t, domain.AttackNone, app.Orchestrator.CurrentAttack())
	assert.Equal(t, "airstrike", app.Radio.APIdentity().SSID)
}

func TestNew_RejectsPlaintextPassword(t *testing.T) {
	cfg := mockConfig(t)
	cfg.PasswordHash = "hunter2"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_WithPassword(t *testing.T) {
	cfg := mockConfig(t)
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	cfg.PasswordHash = hash

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.closeResources() })
	assert.NotNil(t, app.WebServer.AuthService)
}

func TestRun_TicksActiveAttackAndShutsDown(t *testing.T) {
	cfg := mockConfig(t)
	cfg.TickInterval = time.Millisecond
	app, err := New(cfg)
	require.NoError(t, err)

	mock := app.Radio.(*radio.MockRadio)
	require.NoError(t, app.Orchestrator.AddBeaconSSID("FreeWiFi"))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()

	require.NoError(t, app.Orchestrator.StartAttack(domain.AttackBeaconSpam))
	assert.Eventually(t, func() bool {
		return len(mock.GetPackets()) > 0
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, domain.AttackNone, app.Orchestrator.CurrentAttack())
}

func TestRun_MockTrafficFeedsProbeSniff(t *testing.T) {
	cfg := mockConfig(t)
	cfg.TickInterval = time.Millisecond
	app, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.Traffic)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()

	require.NoError(t, app.Orchestrator.StartAttack(domain.AttackProbeSniff))
	assert.Eventually(t, func() bool {
		return len(app.Orchestrator.Observations()) > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}

func TestNew_UnknownMockScenario(t *testing.T) {
	cfg := mockConfig(t)
	cfg.MockScenario = "stadium"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRun_ShutdownPersistsProbeSniffRecords(t *testing.T) {
	cfg := mockConfig(t)
	cfg.TickInterval = time.Millisecond
	app, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()

	require.NoError(t, app.Orchestrator.StartAttack(domain.AttackProbeSniff))
	assert.Eventually(t, func() bool {
		return len(app.Orchestrator.Observations()) > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)

	store, err := storage.NewSQLiteAdapter(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	n, err := store.Count(context.Background(), domain.KindProbe)
	require.NoError(t, err)
	assert.Positive(t, n, "observations handed over at stop reach the database")
}
