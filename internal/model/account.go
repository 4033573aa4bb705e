package model

import "time"

// Account stores every login identity. Role-specific data lives in the
// matching profile table keyed by the same Code.
type Account struct {
	Code         uint    `gorm:"primaryKey;autoIncrement"`
	Username     string  `gorm:"type:varchar(150);uniqueIndex;not null"`
	Email        string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName    string  `gorm:"type:varchar(100);not null"`
	LastName     string  `gorm:"type:varchar(100);not null"`
	Phone        *string `gorm:"type:varchar(30)"`
	PasswordHash *string
	Role         Role `gorm:"type:varchar(20);not null;index"`
	Active       bool `gorm:"not null;default:true"`

	Lockout `gorm:"embedded"`

	ResetToken         *string `gorm:"type:varchar(100);uniqueIndex"`
	ResetTokenIssuedAt *time.Time

	WantsPointNotifications bool `gorm:"not null;default:true"`
	WantsOrderNotifications bool `gorm:"not null;default:true"`

	TOTPSecret  *string `gorm:"column:totp_secret;type:varchar(64)"`
	TOTPEnabled bool    `gorm:"column:totp_enabled;not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Driver  *DriverProfile  `gorm:"foreignKey:Code;references:Code"`
	Sponsor *SponsorProfile `gorm:"foreignKey:Code;references:Code"`
	Admin   *AdminProfile   `gorm:"foreignKey:Code;references:Code"`
}

func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Identity is the minimal view of an account carried in tokens.
func (a *Account) Identity() Identity {
	return Identity{Code: a.Code, Username: a.Username, Role: a.Role}
}

type DriverProfile struct {
	Code          uint   `gorm:"primaryKey"`
	LicenseNumber string `gorm:"type:varchar(50)"`
}

// SponsorStatus: "pending" | "approved" | "rejected"
type SponsorStatus string

const (
	SponsorPending  SponsorStatus = "pending"
	SponsorApproved SponsorStatus = "approved"
	SponsorRejected SponsorStatus = "rejected"
)

type SponsorProfile struct {
	Code    uint          `gorm:"primaryKey"`
	OrgName string        `gorm:"type:varchar(150);not null"`
	Status  SponsorStatus `gorm:"type:varchar(20);not null;default:'pending'"`
}

type AdminProfile struct {
	Code      uint   `gorm:"primaryKey"`
	RoleTitle string `gorm:"type:varchar(100)"`
}
