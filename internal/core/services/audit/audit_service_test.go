package audit

import (
	"context"
	"testing"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) SaveAuditLog(ctx context.Context, entry domain.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListAuditLogs(ctx context.Context, q domain.AuditQuery) ([]domain.AuditLog, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

func TestLog_SystemActorByDefault(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo)

	repo.On("SaveAuditLog", mock.Anything, mock.MatchedBy(func(l domain.AuditLog) bool {
		return l.Action == domain.ActionAttackStop && l.Target == "rickroll" && l.Actor == SystemActor && l.IPAddress == ""
	})).Return(nil)

	require.NoError(t, svc.Log(context.Background(), domain.ActionAttackStop, "rickroll", "beacons=120"))
	repo.AssertExpectations(t)
}

func TestLog_OperatorFromContext(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo)

	ctx := WithRemoteAddr(WithActor(context.Background(), "operator"), "192.168.4.2")

	repo.On("SaveAuditLog", mock.Anything, mock.MatchedBy(func(l domain.AuditLog) bool {
		return l.Action == domain.ActionSettingsChange && l.Actor == "operator" && l.IPAddress == "192.168.4.2"
	})).Return(nil)

	require.NoError(t, svc.Log(ctx, domain.ActionSettingsChange, "settings", "deauth_burst=20"))
	repo.AssertExpectations(t)
	assert.Equal(t, "operator", ActorFrom(ctx))
}

func TestLog_RejectsUnknownAction(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo)

	err := svc.Log(context.Background(), domain.AuditAction("DROP_TABLES"), "t", "d")
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
	repo.AssertNotCalled(t, "SaveAuditLog", mock.Anything, mock.Anything)
}

func TestGetLogs_DefaultsLimit(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo)

	logs := []domain.AuditLog{{ID: 1, Action: domain.ActionAttackStart}}
	repo.On("ListAuditLogs", mock.Anything, domain.AuditQuery{Limit: DefaultLimit, Action: domain.ActionAttackStart}).Return(logs, nil)

	res, err := svc.GetLogs(context.Background(), domain.AuditQuery{Action: domain.ActionAttackStart})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, domain.ActionAttackStart, res[0].Action)
	repo.AssertExpectations(t)
}

func TestParseAuditAction(t *testing.T) {
	a, err := domain.ParseAuditAction("EXPORT")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionExport, a)

	_, err = domain.ParseAuditAction("export")
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
}
