package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupInMemoryDB creates a new SQLiteAdapter used for testing
func setupInMemoryDB(t *testing.T) *SQLiteAdapter {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&ProbeModel{}, &CredentialModel{}, &domain.AuditLog{})
	require.NoError(t, err)

	return &SQLiteAdapter{db: db}
}

func TestSaveBatch_MixedKinds(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()

	err := adapter.SaveBatch(ctx, []domain.Record{
		domain.ProbeRecord{Client: "11:11:11:11:11:11", SSIDs: []string{"A"}, LastSeen: time.Now()},
		domain.ProbeRecord{Client: "22:22:22:22:22:22", SSIDs: []string{"B"}, LastSeen: time.Now()},
		domain.CredentialRecord{SSID: "Cafe", Fields: map[string]string{"password": "pw"}, CapturedAt: time.Now()},
	})
	require.NoError(t, err)

	n, err := adapter.Count(ctx, domain.KindProbe)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = adapter.Count(ctx, domain.KindCredential)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	creds, err := adapter.ListCredentials(ctx, 10)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "pw", creds[0].Fields["password"])
}

func TestSave_ProbeUpsertMergesSSIDs(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()
	t0 := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, adapter.Save(ctx, domain.ProbeRecord{Client: "AA:AA:AA:AA:AA:AA", SSIDs: []string{"HomeWiFi"}, FirstSeen: t0, LastSeen: t0}))
	require.NoError(t, adapter.Save(ctx, domain.ProbeRecord{Client: "AA:AA:AA:AA:AA:AA", SSIDs: []string{"OfficeWiFi"}, FirstSeen: t0.Add(time.Hour), LastSeen: t0.Add(time.Hour)}))

	probes, err := adapter.ListProbes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, probes, 1)
	assert.ElementsMatch(t, []string{"HomeWiFi", "OfficeWiFi"}, probes[0].SSIDs)
	assert.True(t, probes[0].FirstSeen.Equal(t0))
}

func TestListProbes_OrderAndLimit(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()
	t0 := time.Now()
	for i, mac := range []string{"01:00:00:00:00:00", "02:00:00:00:00:00", "03:00:00:00:00:00"} {
		require.NoError(t, adapter.Save(ctx, domain.ProbeRecord{Client: mac, LastSeen: t0.Add(time.Duration(i) * time.Minute)}))
	}
	probes, err := adapter.ListProbes(ctx, 2)
	require.NoError(t, err)
	require.Len(t, probes, 2)
	assert.Equal(t, "03:00:00:00:00:00", probes[0].Client)
}

func TestAuditLogs(t *testing.T) {
	adapter := setupInMemoryDB(t)
	ctx := context.Background()

	entry, err := domain.NewAuditLog("operator", domain.ActionAttackStart, "deauth", "", "")
	require.NoError(t, err)
	require.NoError(t, adapter.SaveAuditLog(ctx, *entry))

	stop, err := domain.NewAuditLog("system", domain.ActionAttackStop, "deauth", "", "")
	require.NoError(t, err)
	require.NoError(t, adapter.SaveAuditLog(ctx, *stop))

	logs, err := adapter.ListAuditLogs(ctx, domain.AuditQuery{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = adapter.ListAuditLogs(ctx, domain.AuditQuery{Action: domain.ActionAttackStart})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "operator", logs[0].Actor)

	logs, err = adapter.ListAuditLogs(ctx, domain.AuditQuery{Since: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestNewSQLiteAdapter_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airstrike.db")
	store, err := NewSQLiteAdapter(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), domain.CredentialRecord{SSID: "Cafe", CapturedAt: time.Now()}))
	require.NoError(t, store.Close())

	store2, err := NewSQLiteAdapter(path)
	require.NoError(t, err)
	defer store2.Close()
	n, err := store2.Count(context.Background(), domain.KindCredential)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
