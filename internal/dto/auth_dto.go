package dto

import (
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	// Username accepts either the username or the email address.
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=1"`
	TOTPCode string `json:"totp_code" validate:"omitempty,len=6,numeric"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RegisterRequest struct {
	Username      string  `json:"username"   validate:"required,min=3,max=150"`
	Email         string  `json:"email"      validate:"required,email,max=255"`
	FirstName     string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName      string  `json:"last_name"  validate:"required,min=1,max=100"`
	Phone         *string `json:"phone"      validate:"omitempty,max=30"`
	Password      string  `json:"password"   validate:"required"`
	LicenseNumber string  `json:"license_number" validate:"omitempty,max=50"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// UpdateContactRequest is the self-service edit of the caller's own contact
// details. Nil fields are left unchanged.
type UpdateContactRequest struct {
	Email         *string `json:"email"          validate:"omitempty,email,max=255"`
	Phone         *string `json:"phone"          validate:"omitempty,max=30"`
	FirstName     *string `json:"first_name"     validate:"omitempty,min=1,max=100"`
	LastName      *string `json:"last_name"      validate:"omitempty,min=1,max=100"`
	LicenseNumber *string `json:"license_number" validate:"omitempty,max=50"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
}

type NotificationSettingsRequest struct {
	WantsPointNotifications *bool `json:"wants_point_notifications"`
	WantsOrderNotifications *bool `json:"wants_order_notifications"`
}

// TOTPCodeRequest carries a current one-time code to enable or disable the
// second factor.
type TOTPCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AccountResponse struct {
	Code           uint       `json:"code"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Phone          *string    `json:"phone"`
	Role           model.Role `json:"role"`
	Active         bool       `json:"active"`
	LockoutState   string     `json:"lockout_state"`
	LockoutReason  string     `json:"lockout_reason,omitempty"`
	LockoutUntil   *time.Time `json:"lockout_until,omitempty"`
	FailedAttempts int        `json:"failed_attempts"`

	LicenseNumber *string `json:"license_number,omitempty"`
	OrgName       *string `json:"org_name,omitempty"`
	SponsorStatus *string `json:"sponsor_status,omitempty"`
	RoleTitle     *string `json:"role_title,omitempty"`

	WantsPointNotifications bool `json:"wants_point_notifications"`
	WantsOrderNotifications bool `json:"wants_order_notifications"`
	TOTPEnabled             bool `json:"totp_enabled"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"` // seconds
	User         AccountResponse `json:"user"`
	Impersonator *model.Identity `json:"impersonator,omitempty"`
	Redirect     string          `json:"redirect"`
}

type TOTPSetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
