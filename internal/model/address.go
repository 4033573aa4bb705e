package model

import "time"

// Address is a driver's shipping address. At most one per account is the
// default.
type Address struct {
	ID          uint   `gorm:"primaryKey"`
	AccountCode uint   `gorm:"not null;index"`
	Street      string `gorm:"type:varchar(255);not null"`
	City        string `gorm:"type:varchar(100);not null"`
	State       string `gorm:"type:varchar(100);not null"`
	ZipCode     string `gorm:"type:varchar(20);not null"`
	IsDefault   bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
