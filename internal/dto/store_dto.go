package dto

import "github.com/shopspring/decimal"

type CatalogQuery struct {
	Keywords string   `form:"q"         validate:"omitempty,max=100"`
	MinPrice *float64 `form:"min_price" validate:"omitempty,gte=0"`
	MaxPrice *float64 `form:"max_price" validate:"omitempty,gte=0"`
	Limit    int      `form:"limit"     validate:"omitempty,gte=1,lte=50"`
}

type CatalogItem struct {
	ItemID   string          `json:"item_id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Points   int             `json:"points"`
	ImageURL *string         `json:"image_url"`
}

type AddCartItemRequest struct {
	ItemID   string `json:"item_id"  validate:"required,max=100"`
	Quantity int    `json:"quantity" validate:"omitempty,gte=1,lte=99"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=99"`
}

type CartItemResponse struct {
	ID        uint            `json:"id"`
	ItemID    string          `json:"item_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Points    int             `json:"points"`
	Quantity  int             `json:"quantity"`
	LineTotal int             `json:"line_total"`
	ImageURL  *string         `json:"image_url"`
}

type CartResponse struct {
	SponsorCode uint               `json:"sponsor_code"`
	Items       []CartItemResponse `json:"items"`
	TotalPoints int                `json:"total_points"`
	Balance     int                `json:"balance"`
}

type WishlistAddRequest struct {
	SponsorCode uint   `json:"sponsor_code" validate:"required"`
	ItemID      string `json:"item_id"      validate:"required,max=100"`
}

type MoveToCartRequest struct {
	SponsorCode uint `json:"sponsor_code" validate:"required"`
}

type WishlistItemResponse struct {
	ID       uint            `json:"id"`
	ItemID   string          `json:"item_id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	ImageURL *string         `json:"image_url"`
}

type StoreSettingsRequest struct {
	CategoryID string          `json:"category_id" validate:"required,numeric,max=20"`
	PointRatio decimal.Decimal `json:"point_ratio" validate:"required,gt=0"`
}

type StoreSettingsResponse struct {
	SponsorCode uint            `json:"sponsor_code"`
	CategoryID  string          `json:"category_id"`
	PointRatio  decimal.Decimal `json:"point_ratio"`
}
