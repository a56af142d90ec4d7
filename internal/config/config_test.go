package config

import (
	"sync"
	"testing"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_FromEnv(t *testing.T) {
	t.Setenv("AIRSTRIKE_INTERFACE", "wlan1")
	t.Setenv("AIRSTRIKE_DB", "/tmp/x.db")
	t.Setenv("AIRSTRIKE_GRPC", "9100")
	t.Setenv("AIRSTRIKE_DEBUG", "true")
	t.Setenv("AIRSTRIKE_BEACON_INTERVAL", "250")
	t.Setenv("AIRSTRIKE_DEVICE_TIMEOUT", "90s")
	t.Setenv("AIRSTRIKE_CHANNEL_HOPPING", "false")
	t.Setenv("AIRSTRIKE_ALLOWED_ORIGINS", "http://a, http://b ,")

	cfg := Default()
	assert.Equal(t, "wlan1", cfg.Interface)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 9100, cfg.GRPCPort)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 250*time.Millisecond, cfg.Attack.BeaconInterval)
	assert.Equal(t, 90*time.Second, cfg.Attack.DeviceTimeout)
	assert.False(t, cfg.Attack.ChannelHopping)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.AllowedOrigins)
}

func TestDefault_IgnoresMalformedEnv(t *testing.T) {
	t.Setenv("AIRSTRIKE_GRPC", "lots")
	t.Setenv("AIRSTRIKE_DEAUTH_BURST", "x")
	t.Setenv("AIRSTRIKE_MOCK", "maybe")

	cfg := Default()
	assert.Equal(t, 9000, cfg.GRPCPort)
	assert.Equal(t, 10, cfg.Attack.DeauthPacketsPerBurst)
	assert.False(t, cfg.MockMode)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Interface = "wlan0"
	cfg.Attack.DeauthPacketsPerBurst = 500
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "wlan0", cfg.APInterface)
	assert.Equal(t, 50, cfg.AttackSettings().DeauthPacketsPerBurst)

	cfg.PortalIP = "fe80::1"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Interface = "wlan0; rm -rf /"
	assert.Error(t, cfg.Validate())

	cfg.MockMode = true
	assert.NoError(t, cfg.Validate())

	cfg.APChannel = 15
	assert.Error(t, cfg.Validate())

	cfg.APChannel = 6
	cfg.APSSID = ""
	assert.Error(t, cfg.Validate())
}

func TestUpdateAttackSettings(t *testing.T) {
	cfg := Default()
	s := domain.DefaultAttackSettings()
	s.RickrollSpeed = 9
	s.BeaconInterval = 5 * time.Second

	got := cfg.UpdateAttackSettings(s)
	assert.Equal(t, 5, got.RickrollSpeed)
	assert.Equal(t, time.Second, got.BeaconInterval)
	assert.Equal(t, got, cfg.AttackSettings())
}

func TestSettings_ConcurrentAccess(t *testing.T) {
	cfg := Default()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			s := cfg.AttackSettings()
			s.DeauthPacketsPerBurst = n + 1
			cfg.UpdateAttackSettings(s)
		}(i)
		go func() {
			defer wg.Done()
			_ = cfg.AttackSettings()
		}()
	}
	wg.Wait()
	assert.InDelta(t, 4.5, cfg.AttackSettings().DeauthPacketsPerBurst, 4.5)
}
