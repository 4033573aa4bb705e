package model

import "time"

// Association links a driver to a sponsor and holds the driver's point
// balance with that sponsor. Points never go below zero.
type Association struct {
	DriverCode  uint `gorm:"primaryKey"`
	SponsorCode uint `gorm:"primaryKey;index"`
	Points      int  `gorm:"not null;default:0;check:points >= 0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Driver  *Account `gorm:"foreignKey:DriverCode;references:Code"`
	Sponsor *Account `gorm:"foreignKey:SponsorCode;references:Code"`
}

func (Association) TableName() string { return "driver_sponsor_associations" }

// ApplicationStatus: "pending" | "accepted" | "rejected"
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// DriverApplication is a driver's request to join a sponsor's program.
type DriverApplication struct {
	ID          uint              `gorm:"primaryKey"`
	DriverCode  uint              `gorm:"not null;index:idx_application_pair"`
	SponsorCode uint              `gorm:"not null;index:idx_application_pair"`
	Status      ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Reason      *string           `gorm:"type:text"`
	AppliedAt   time.Time         `gorm:"not null"`
	DecidedAt   *time.Time

	Driver *Account `gorm:"foreignKey:DriverCode;references:Code"`
}
