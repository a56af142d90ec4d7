package ports

import (
	"context"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
)

// AuditService records attack lifecycle and operator changes. The actor and
// client address come from ctx.
type AuditService interface {
	Log(ctx context.Context, action domain.AuditAction, target, details string) error
	GetLogs(ctx context.Context, q domain.AuditQuery) ([]domain.AuditLog, error)
}

// AuditRepository stores audit entries, newest first on listing.
type AuditRepository interface {
	SaveAuditLog(ctx context.Context, log domain.AuditLog) error
	ListAuditLogs(ctx context.Context, q domain.AuditQuery) ([]domain.AuditLog, error)
}
