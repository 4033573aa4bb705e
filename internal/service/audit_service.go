package service

import (
	"context"
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AuditEntry is one event to append. DriverCode / SponsorCode are optional
// references that make the entry show up in point history views.
type AuditEntry struct {
	EventType   string
	Details     string
	DriverCode  *uint
	SponsorCode *uint
}

// AuditRecorder appends entries, inside tx when one is open.
type AuditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, e AuditEntry) error
}

type AuditService interface {
	AuditRecorder
	List(ctx context.Context, filter dto.AuditFilter) ([]dto.AuditLogResponse, error)
	// PointHistory lists DRIVER_POINTS entries for a driver and/or sponsor.
	PointHistory(ctx context.Context, driverCode, sponsorCode *uint) ([]dto.AuditLogResponse, error)
}

type auditService struct {
	repo repository.AuditLogRepository
	now  func() time.Time
}

func NewAuditService(repo repository.AuditLogRepository, opts ...Option) AuditService {
	o := applyOptions(opts)
	return &auditService{repo: repo, now: o.now}
}

func (s *auditService) Record(ctx context.Context, tx *gorm.DB, e AuditEntry) error {
	row := &model.AuditLog{
		EventType:   e.EventType,
		Details:     e.Details,
		DriverCode:  e.DriverCode,
		SponsorCode: e.SponsorCode,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Append(ctx, tx, row); err != nil {
		return err
	}
	log.Info().Str("event_type", e.EventType).Msg("audit: " + e.Details)
	return nil
}

func (s *auditService) List(ctx context.Context, filter dto.AuditFilter) ([]dto.AuditLogResponse, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.AuditLogResponse, len(rows))
	for i, r := range rows {
		resp[i] = auditToResponse(r)
	}
	return resp, nil
}

func (s *auditService) PointHistory(ctx context.Context, driverCode, sponsorCode *uint) ([]dto.AuditLogResponse, error) {
	return s.List(ctx, dto.AuditFilter{
		EventType:   model.EventDriverPoints,
		DriverCode:  driverCode,
		SponsorCode: sponsorCode,
	})
}

func auditToResponse(r model.AuditLog) dto.AuditLogResponse {
	return dto.AuditLogResponse{
		ID:          r.ID,
		EventType:   r.EventType,
		Details:     r.Details,
		DriverCode:  r.DriverCode,
		SponsorCode: r.SponsorCode,
		CreatedAt:   r.CreatedAt,
	}
}

func ref(code uint) *uint { return &code }
