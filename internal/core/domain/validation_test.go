package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidMAC(t *testing.T) {
	tests := []struct {
		mac   string
		valid bool
	}{
		{"AA:BB:CC:DD:EE:FF", true},
		{"aa:bb:cc:dd:ee:ff", true},
		{"00-11-22-33-44-55", true},
		{"invalid", false},
		{"AA:BB:CC:DD:EE", false},
		{"AA:BB:CC:DD:EE:FF:GG", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidMAC(tt.mac), tt.mac)
	}
}

func TestIsValidInterface(t *testing.T) {
	tests := []struct {
		iface string
		valid bool
	}{
		{"wlan0", true},
		{"wlan0mon", true},
		{"eth0.100", false},
		{"very_long_interface_name_that_should_fail", false},
		{"; rm -rf /", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidInterface(tt.iface), tt.iface)
	}
}

func TestParseHardwareAddr(t *testing.T) {
	hw, err := ParseHardwareAddr("aabbccddeeff")
	require.NoError(t, err)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", FormatMAC(hw))

	_, err = ParseHardwareAddr("zz:bb:cc:dd:ee:ff")
	assert.ErrorIs(t, err, ErrInvalidMAC)
}

func TestNewTarget_DefaultsToBroadcast(t *testing.T) {
	tgt, err := NewTarget("AA:BB:CC:DD:EE:FF", "")
	require.NoError(t, err)
	assert.True(t, tgt.IsBroadcast())

	_, err = NewTarget("bad", "")
	assert.ErrorIs(t, err, ErrInvalidMAC)
}

func TestNewNetwork_RejectsLongSSID(t *testing.T) {
	_, err := NewNetwork("0123456789012345678901234567890123", "AA:BB:CC:DD:EE:FF", 6)
	assert.ErrorIs(t, err, ErrSSIDTooLong)

	n, err := NewNetwork("CoffeeShop", "AA:BB:CC:DD:EE:FF", 6)
	require.NoError(t, err)
	assert.Equal(t, 6, n.Channel)
}

func TestSmoothSignal(t *testing.T) {
	assert.Equal(t, -50, SmoothSignal(-50, -50))
	assert.Equal(t, -53, SmoothSignal(-50, -74))
}

func TestAttackSettingsClamp(t *testing.T) {
	s := AttackSettings{DeauthPacketsPerBurst: 99, BeaconInterval: time.Millisecond, RickrollSpeed: 0, MaxBeaconSSIDs: 0}
	c := s.Clamp()
	assert.Equal(t, 50, c.DeauthPacketsPerBurst)
	assert.Equal(t, 100*time.Millisecond, c.BeaconInterval)
	assert.Equal(t, 1, c.RickrollSpeed)
	assert.Equal(t, 1, c.MaxBeaconSSIDs)
	assert.Equal(t, 60*time.Second, c.DeviceTimeout)

	assert.Equal(t, DefaultAttackSettings(), DefaultAttackSettings().Clamp())
}

func TestParseAttackType(t *testing.T) {
	at, err := ParseAttackType("Evil-Twin")
	require.NoError(t, err)
	assert.Equal(t, AttackEvilTwin, at)

	_, err = ParseAttackType("karma")
	assert.ErrorIs(t, err, ErrUnknownAttack)
}

func TestNewAuditLog(t *testing.T) {
	_, err := NewAuditLog("", ActionAttackStart, "", "", "")
	assert.ErrorIs(t, err, ErrMissingActor)

	_, err = NewAuditLog("operator", AuditAction("NOPE"), "", "", "")
	assert.ErrorIs(t, err, ErrInvalidAction)

	l, err := NewAuditLog("operator", ActionAttackStart, "deauth", "", "127.0.0.1")
	require.NoError(t, err)
	assert.False(t, l.Timestamp.IsZero())
}

func TestChannelFrequency(t *testing.T) {
	assert.Equal(t, 2412, ChannelFrequency(1))
	assert.Equal(t, 2437, ChannelFrequency(6))
	assert.Equal(t, 2472, ChannelFrequency(13))
	assert.Equal(t, 2484, ChannelFrequency(14))
	assert.Zero(t, ChannelFrequency(0))
	assert.Zero(t, ChannelFrequency(36))
}
