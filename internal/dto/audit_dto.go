package dto

import "time"

const MaxAuditRows = 500

type AuditFilter struct {
	EventType   string     `form:"type"`
	From        *time.Time `form:"from" time_format:"2006-01-02"`
	To          *time.Time `form:"to"   time_format:"2006-01-02"`
	DriverCode  *uint      `form:"driver_code"`
	SponsorCode *uint      `form:"sponsor_code"`
	Limit       int        `form:"limit"`
}

type AuditLogResponse struct {
	ID          uint      `json:"id"`
	EventType   string    `json:"event_type"`
	Details     string    `json:"details"`
	DriverCode  *uint     `json:"driver_code,omitempty"`
	SponsorCode *uint     `json:"sponsor_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
