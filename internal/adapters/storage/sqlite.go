package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteAdapter implements ports.Storage using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// ProbeModel is one row per client. Re-saving a client merges its SSIDs.
type ProbeModel struct {
	Client    string `gorm:"primaryKey"`
	SSIDs     string // JSON encoded []string
	Signal    int
	Vendor    string
	Random    bool
	FirstSeen time.Time
	LastSeen  time.Time `gorm:"index"`
}

// CredentialModel stores one portal submission.
type CredentialModel struct {
	ID         uint   `gorm:"primaryKey"`
	SSID       string `gorm:"index"`
	Fields     string // JSON encoded map[string]string
	RemoteAddr string
	CapturedAt time.Time `gorm:"index"`
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("gorm tracing: %w", err)
	}
	if err := db.AutoMigrate(&ProbeModel{}, &CredentialModel{}, &domain.AuditLog{}); err != nil {
		return nil, err
	}
	return &SQLiteAdapter{db: db}, nil
}

// Save persists one record under its kind.
func (a *SQLiteAdapter) Save(ctx context.Context, rec domain.Record) error {
	return a.SaveBatch(ctx, []domain.Record{rec})
}

// SaveBatch saves multiple records in a single transaction.
func (a *SQLiteAdapter) SaveBatch(ctx context.Context, recs []domain.Record) error {
	if len(recs) == 0 {
		return nil
	}
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range recs {
			var err error
			switch r := rec.(type) {
			case domain.ProbeRecord:
				err = upsertProbe(tx, r)
			case *domain.ProbeRecord:
				err = upsertProbe(tx, *r)
			case domain.CredentialRecord:
				err = tx.Create(toCredentialModel(r)).Error
			case *domain.CredentialRecord:
				err = tx.Create(toCredentialModel(*r)).Error
			default:
				err = fmt.Errorf("unsupported record kind %q", rec.Kind())
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertProbe(tx *gorm.DB, r domain.ProbeRecord) error {
	var existing ProbeModel
	err := tx.First(&existing, "client = ?", r.Client).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return err
	default:
		r = mergeProbe(toProbeRecord(existing), r)
	}
	model := toProbeModel(r)
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error
}

// Count returns the number of stored records of kind.
func (a *SQLiteAdapter) Count(ctx context.Context, kind domain.RecordKind) (int64, error) {
	var n int64
	q := a.db.WithContext(ctx)
	switch kind {
	case domain.KindProbe:
		q = q.Model(&ProbeModel{})
	case domain.KindCredential:
		q = q.Model(&CredentialModel{})
	default:
		return 0, fmt.Errorf("unsupported record kind %q", kind)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// ListProbes returns the most recently seen clients first.
func (a *SQLiteAdapter) ListProbes(ctx context.Context, limit int) ([]domain.ProbeRecord, error) {
	var models []ProbeModel
	if err := a.db.WithContext(ctx).Order("last_seen desc").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ProbeRecord, len(models))
	for i, m := range models {
		out[i] = toProbeRecord(m)
	}
	return out, nil
}

// ListCredentials returns the newest submissions first.
func (a *SQLiteAdapter) ListCredentials(ctx context.Context, limit int) ([]domain.CredentialRecord, error) {
	var models []CredentialModel
	if err := a.db.WithContext(ctx).Order("captured_at desc").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CredentialRecord, len(models))
	for i, m := range models {
		out[i] = toCredentialRecord(m)
	}
	return out, nil
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure interface compliance
var _ ports.Storage = (*SQLiteAdapter)(nil)
