package dto

import (
	"time"

	"github.com/google/uuid"
)

type PointsAdjustRequest struct {
	DriverCode uint `json:"driver_code" validate:"required"`
	// SponsorCode is only read for administrators; sponsors always act on
	// their own program.
	SponsorCode *uint  `json:"sponsor_code"`
	Amount      int    `json:"amount"      validate:"required"`
	Reason      string `json:"reason"      validate:"required,max=255"`
}

type PointsAdjustResponse struct {
	DriverCode  uint     `json:"driver_code"`
	SponsorCode uint     `json:"sponsor_code"`
	Balance     int      `json:"balance"`
	Warnings    []string `json:"warnings,omitempty"`
}

type BalanceResponse struct {
	SponsorCode uint   `json:"sponsor_code"`
	OrgName     string `json:"org_name"`
	Points      int    `json:"points"`
}

type SponsorDriverResponse struct {
	DriverCode uint   `json:"driver_code"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Points     int    `json:"points"`
}

type CheckoutResponse struct {
	OrderID     uuid.UUID          `json:"order_id"`
	SponsorCode uint               `json:"sponsor_code"`
	TotalPoints int                `json:"total_points"`
	Balance     int                `json:"balance"`
	Items       []PurchaseResponse `json:"items"`
	Warnings    []string           `json:"warnings,omitempty"`
}

type PurchaseResponse struct {
	ID          uint      `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	AccountCode uint      `json:"account_code"`
	SponsorCode uint      `json:"sponsor_code"`
	ItemID      string    `json:"item_id"`
	Title       string    `json:"title"`
	Points      int       `json:"points"`
	Quantity    int       `json:"quantity"`
	PurchasedAt time.Time `json:"purchased_at"`
}
