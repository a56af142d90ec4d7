package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lcalzada-xor/airstrike/internal/adapters/storage"
	"github.com/lcalzada-xor/airstrike/internal/core/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	cmd := newRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFrameCmd_Deauth(t *testing.T) {
	out, err := execute(t, "frame", "deauth", "--bssid", "aa:bb:cc:dd:ee:ff", "--client", "11:22:33:44:55:66")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "deauth frame"))
	assert.Contains(t, out, "c0 00")
	assert.Contains(t, out, "a0 00")
}

func TestFrameCmd_Beacon(t *testing.T) {
	out, err := execute(t, "frame", "beacon", "--ssid", "FreeWiFi", "--channel", "6")
	require.NoError(t, err)
	assert.Contains(t, out, `"FreeWiFi" ch6`)
	assert.Contains(t, out, "FreeWiFi")
}

func TestFrameCmd_Rejects(t *testing.T) {
	_, err := execute(t, "frame", "deauth", "--bssid", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidMAC)

	_, err = execute(t, "frame", "probe")
	assert.Error(t, err)
}

func TestHashPasswordCmd(t *testing.T) {
	out, err := execute(t, "hash-password", "hunter2")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))
}

func TestProbesCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "airstrike.db")
	store, err := storage.NewSQLiteAdapter(dbPath)
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, store.Save(context.Background(), domain.ProbeRecord{
		Client:    "aa:bb:cc:dd:ee:ff",
		SSIDs:     []string{"HomeNet", "CoffeeShop"},
		Signal:    -40,
		Vendor:    "Apple",
		FirstSeen: now,
		LastSeen:  now,
	}))
	require.NoError(t, store.Close())

	out, err := execute(t, "probes", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "CLIENT")
	assert.Contains(t, out, "aa:bb:cc:dd:ee:ff")
	assert.Contains(t, out, "HomeNet, CoffeeShop")
}

func TestProbesCmd_MissingDatabase(t *testing.T) {
	_, err := execute(t, "probes", "--db", filepath.Join(t.TempDir(), "none.db"))
	assert.Error(t, err)
}
