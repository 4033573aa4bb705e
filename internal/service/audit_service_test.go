package service_test

import (
	"context"
	"testing"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockAuditRepo struct{ mock.Mock }

func (m *mockAuditRepo) Append(ctx context.Context, tx *gorm.DB, e *model.AuditLog) error {
	return m.Called(ctx, tx, e).Error(0)
}

func (m *mockAuditRepo) List(ctx context.Context, filter dto.AuditFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]model.AuditLog)
	return rows, args.Error(1)
}

func TestAuditRecord_StampsTime(t *testing.T) {
	clock := newClock()
	repo := &mockAuditRepo{}
	repo.On("Append", mock.Anything, mock.Anything, mock.MatchedBy(func(e *model.AuditLog) bool {
		return e.EventType == model.EventDriverPoints &&
			e.CreatedAt.Equal(clock.Now()) &&
			e.DriverCode != nil && *e.DriverCode == 7
	})).Return(nil).Once()

	svc := service.NewAuditService(repo, service.WithClock(clock.Now))
	driver := uint(7)
	err := svc.Record(context.Background(), nil, service.AuditEntry{
		EventType: model.EventDriverPoints, Details: "acme awarded 10 points", DriverCode: &driver,
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAuditRecord_PropagatesStoreErrors(t *testing.T) {
	repo := &mockAuditRepo{}
	repo.On("Append", mock.Anything, mock.Anything, mock.Anything).Return(errBoom)

	err := service.NewAuditService(repo).Record(context.Background(), nil, service.AuditEntry{EventType: model.EventLogin})
	assert.ErrorIs(t, err, errBoom)
}

func TestPointHistory_FiltersByEventType(t *testing.T) {
	repo := &mockAuditRepo{}
	sponsor := uint(3)
	repo.On("List", mock.Anything, dto.AuditFilter{EventType: model.EventDriverPoints, SponsorCode: &sponsor}).
		Return([]model.AuditLog{{ID: 1, EventType: model.EventDriverPoints, Details: "x"}}, nil)

	list, err := service.NewAuditService(repo).PointHistory(context.Background(), nil, &sponsor)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint(1), list[0].ID)
}
