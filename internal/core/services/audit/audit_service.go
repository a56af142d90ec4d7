package audit

import (
	"context"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

const (
	// SystemActor is recorded when no operator is attached to the context.
	SystemActor = "system"
	// DefaultLimit bounds listings that do not set one.
	DefaultLimit = 100
)

type actorKey struct{}
type remoteAddrKey struct{}

// WithActor attaches the operator name used for audit entries.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// WithRemoteAddr attaches the client address used for audit entries.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteAddrKey{}, addr)
}

// ActorFrom returns the operator in ctx, or SystemActor.
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return SystemActor
}

// AuditService stamps entries with the actor and address carried by ctx.
type AuditService struct {
	repo ports.AuditRepository
}

var _ ports.AuditService = (*AuditService)(nil)

func NewAuditService(repo ports.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Log validates and stores one entry.
func (s *AuditService) Log(ctx context.Context, action domain.AuditAction, target, details string) error {
	ip, _ := ctx.Value(remoteAddrKey{}).(string)

	entry, err := domain.NewAuditLog(ActorFrom(ctx), action, target, details, ip)
	if err != nil {
		return err
	}
	return s.repo.SaveAuditLog(ctx, *entry)
}

// GetLogs lists entries matching q; a non-positive limit means DefaultLimit.
func (s *AuditService) GetLogs(ctx context.Context, q domain.AuditQuery) ([]domain.AuditLog, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	return s.repo.ListAuditLogs(ctx, q)
}
