package storage

import (
	"context"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

var _ ports.AuditRepository = (*SQLiteAdapter)(nil)

// SaveAuditLog appends one entry.
func (a *SQLiteAdapter) SaveAuditLog(ctx context.Context, entry domain.AuditLog) error {
	return a.db.WithContext(ctx).Create(&entry).Error
}

// ListAuditLogs returns the newest entries matching q.
func (a *SQLiteAdapter) ListAuditLogs(ctx context.Context, q domain.AuditQuery) ([]domain.AuditLog, error) {
	tx := a.db.WithContext(ctx).Order("timestamp desc")
	if q.Action != "" {
		tx = tx.Where("action = ?", q.Action)
	}
	if !q.Since.IsZero() {
		tx = tx.Where("timestamp >= ?", q.Since)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var logs []domain.AuditLog
	if err := tx.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
