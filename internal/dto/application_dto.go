package dto

import (
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
)

type ApplyRequest struct {
	SponsorCode uint    `json:"sponsor_code" validate:"required"`
	Reason      *string `json:"reason"       validate:"omitempty,max=500"`
}

type ApplicationDecisionRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=accept reject"`
	Reason   *string `json:"reason"   validate:"omitempty,max=500"`
}

type ApplicationResponse struct {
	ID          uint                    `json:"id"`
	DriverCode  uint                    `json:"driver_code"`
	DriverName  string                  `json:"driver_name,omitempty"`
	SponsorCode uint                    `json:"sponsor_code"`
	Status      model.ApplicationStatus `json:"status"`
	Reason      *string                 `json:"reason"`
	AppliedAt   time.Time               `json:"applied_at"`
	DecidedAt   *time.Time              `json:"decided_at,omitempty"`
}

// SponsorSummary lists an approved sponsor from a driver's point of view.
type SponsorSummary struct {
	Code       uint   `json:"code"`
	OrgName    string `json:"org_name"`
	Associated bool   `json:"associated"`
	Points     int    `json:"points"`
}
