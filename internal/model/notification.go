package model

import "time"

// Notification is an in-app message. SenderCode is nil for system messages.
type Notification struct {
	ID            uint      `gorm:"primaryKey"`
	SenderCode    *uint     `gorm:"index"`
	RecipientCode uint      `gorm:"not null;index"`
	Message       string    `gorm:"type:text;not null"`
	IsRead        bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time `gorm:"not null;index"`
}
