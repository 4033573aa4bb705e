package dto

import "github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"

type CreateAccountRequest struct {
	Role          model.Role `json:"role"       validate:"required,oneof=driver sponsor administrator"`
	Username      string     `json:"username"   validate:"required,min=3,max=150"`
	Email         string     `json:"email"      validate:"required,email,max=255"`
	FirstName     string     `json:"first_name" validate:"required,min=1,max=100"`
	LastName      string     `json:"last_name"  validate:"required,min=1,max=100"`
	Phone         *string    `json:"phone"      validate:"omitempty,max=30"`
	OrgName       string     `json:"org_name"   validate:"required_if=Role sponsor,max=150"`
	LicenseNumber string     `json:"license_number" validate:"omitempty,max=50"`
	RoleTitle     string     `json:"role_title" validate:"omitempty,max=100"`
}

// SponsorCreateDriverRequest provisions a driver already associated with the
// calling sponsor.
type SponsorCreateDriverRequest struct {
	Username      string  `json:"username"   validate:"required,min=3,max=150"`
	Email         string  `json:"email"      validate:"required,email,max=255"`
	FirstName     string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName      string  `json:"last_name"  validate:"required,min=1,max=100"`
	Phone         *string `json:"phone"      validate:"omitempty,max=30"`
	LicenseNumber string  `json:"license_number" validate:"omitempty,max=50"`
}

type CreateAccountResponse struct {
	Account           AccountResponse `json:"account"`
	TemporaryPassword string          `json:"temporary_password"`
}

type UpdateAccountRequest struct {
	Username      *string `json:"username"   validate:"omitempty,min=3,max=150"`
	Email         *string `json:"email"      validate:"omitempty,email,max=255"`
	FirstName     *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName      *string `json:"last_name"  validate:"omitempty,min=1,max=100"`
	Phone         *string `json:"phone"      validate:"omitempty,max=30"`
	OrgName       *string `json:"org_name"   validate:"omitempty,min=1,max=150"`
	LicenseNumber *string `json:"license_number" validate:"omitempty,max=50"`
	RoleTitle     *string `json:"role_title" validate:"omitempty,max=100"`
}

type TimeoutRequest struct {
	Minutes int `json:"minutes" validate:"required,min=1,max=525600"`
}

type AccountFilter struct {
	Role            string `form:"role"`
	Query           string `form:"q"`
	IncludeInactive bool   `form:"include_inactive"`
}

type SponsorReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

type ResetPasswordResponse struct {
	TemporaryPassword string `json:"temporary_password"`
}

type UnlockAllResponse struct {
	Unlocked int64 `json:"unlocked"`
}
