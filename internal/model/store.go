package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultCategoryID = "2984"
	DefaultPointRatio = 10
)

// StoreSettings configures a sponsor's catalog: which marketplace category is
// offered and how many points one currency unit costs.
type StoreSettings struct {
	ID          uint            `gorm:"primaryKey"`
	SponsorCode uint            `gorm:"uniqueIndex;not null"`
	CategoryID  string          `gorm:"type:varchar(20);not null;default:'2984'"`
	PointRatio  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:10"`
	UpdatedAt   time.Time
}

// CartItem is a mutable pre-checkout row per (account, sponsor, item).
// MaxCartQuantity bounds a single cart line.
const MaxCartQuantity = 99

type CartItem struct {
	ID          uint            `gorm:"primaryKey"`
	AccountCode uint            `gorm:"not null;uniqueIndex:idx_cart_line"`
	SponsorCode uint            `gorm:"not null;uniqueIndex:idx_cart_line"`
	ItemID      string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_cart_line"`
	Title       string          `gorm:"type:varchar(255);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Points      int             `gorm:"not null"`
	ImageURL    *string         `gorm:"type:varchar(500)"`
	Quantity    int             `gorm:"not null;default:1"`
	CreatedAt   time.Time
}

func (c CartItem) LineTotal() int { return c.Points * c.Quantity }

type WishlistItem struct {
	ID          uint            `gorm:"primaryKey"`
	AccountCode uint            `gorm:"not null;uniqueIndex:idx_wishlist_line"`
	ItemID      string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_wishlist_line"`
	Title       string          `gorm:"type:varchar(255);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ImageURL    *string         `gorm:"type:varchar(500)"`
	CreatedAt   time.Time
}

// Purchase is an immutable line of a completed checkout. Lines of the same
// checkout share OrderID.
type Purchase struct {
	ID          uint            `gorm:"primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:varchar(36);not null;index"`
	AccountCode uint            `gorm:"not null;index"`
	SponsorCode uint            `gorm:"not null;index"`
	ItemID      string          `gorm:"type:varchar(100);not null"`
	Title       string          `gorm:"type:varchar(255);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Points      int             `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	PurchasedAt time.Time       `gorm:"not null;index"`
}
