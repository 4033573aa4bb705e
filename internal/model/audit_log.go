package model

import "time"

// Audit event types.
const (
	EventLogin              = "LOGIN_EVENT"
	EventRegistration       = "ACCOUNT_REGISTERED"
	EventLockout            = "LOCKOUT_EVENT"
	EventPasswordReset      = "PASSWORD_RESET"
	EventDriverPoints       = "DRIVER_POINTS"
	EventSalesBySponsor     = "SALES_BY_SPONSOR"
	EventSalesByDriver      = "SALES_BY_DRIVER"
	EventApplication        = "DRIVER_APPLICATION"
	EventImpersonation      = "IMPERSONATION"
	EventAdminCreateUser    = "ADMIN_CREATE_USER"
	EventAdminCreateSponsor = "ADMIN_CREATE_SPONSOR"
	EventAdminUnlockUser    = "ADMIN_UNLOCK_USER"
	EventAdminUnlockAll     = "ADMIN_UNLOCK_ALL"
	EventAdminEditUser      = "ADMIN_EDIT_USER"
	EventAdminDisableUser   = "ADMIN_DISABLE_USER"
	EventAdminEnableUser    = "ADMIN_ENABLE_USER"
	EventAdminResetPassword = "ADMIN_RESET_PASSWORD"
	EventAdminSponsorReview = "ADMIN_SPONSOR_REVIEW"
	EventAdminTimeout       = "ADMIN_TIMEOUT"
	EventAdminClearTimeout  = "ADMIN_CLEAR_TIMEOUT"
	EventSponsorCreateUser  = "SPONSOR_CREATE_USER"
	EventContactUpdate      = "CONTACT_UPDATE"
)

// AuditLog is append-only: rows are never updated or deleted.
// DriverCode and SponsorCode are optional references used by the point
// history views.
type AuditLog struct {
	ID          uint      `gorm:"primaryKey"`
	EventType   string    `gorm:"type:varchar(50);not null;index"`
	Details     string    `gorm:"type:text;not null"`
	DriverCode  *uint     `gorm:"index"`
	SponsorCode *uint     `gorm:"index"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

// ImpersonationAction: "start" | "stop"
type ImpersonationAction string

const (
	ImpersonationStart ImpersonationAction = "start"
	ImpersonationStop  ImpersonationAction = "stop"
)

type ImpersonationLog struct {
	ID         uint                `gorm:"primaryKey"`
	ActorCode  uint                `gorm:"not null;index"`
	TargetCode uint                `gorm:"not null;index"`
	Action     ImpersonationAction `gorm:"type:varchar(10);not null"`
	CreatedAt  time.Time           `gorm:"not null"`
}
