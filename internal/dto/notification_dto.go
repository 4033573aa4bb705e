package dto

import "time"

type SendNotificationRequest struct {
	Message        string `json:"message"         validate:"required,max=1000"`
	RecipientCodes []uint `json:"recipient_codes" validate:"required_without=AllDrivers"`
	AllDrivers     bool   `json:"all_drivers"`
}

type SendNotificationResponse struct {
	Sent int `json:"sent"`
}

type NotificationResponse struct {
	ID         uint      `json:"id"`
	SenderCode *uint     `json:"sender_code"`
	Message    string    `json:"message"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
