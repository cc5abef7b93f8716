package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountFixed   DiscountKind = "fixed"
)

// PromoCode is looked up by its case-normalized code. UsageCount never
// exceeds UsageLimit when a limit is set; the usage row per consuming
// booking is unique on (promo_id, booking_id).
type PromoCode struct {
	ID             int64           `json:"id"`
	Code           string          `json:"code"`
	Discount       DiscountKind    `json:"discount"`
	Value          decimal.Decimal `json:"value"`
	MinOrderTHB    decimal.Decimal `json:"min_order_thb"`
	MaxDiscountTHB decimal.Decimal `json:"max_discount_thb"` // zero = uncapped
	UsageLimit     int             `json:"usage_limit"`      // zero = unlimited
	MaxUsesPerUser int             `json:"max_uses_per_user"`
	UsageCount     int             `json:"usage_count"`
	ValidFrom      time.Time       `json:"valid_from"`
	ValidUntil     time.Time       `json:"valid_until"`
	Scope          RuleScope       `json:"scope"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (p *PromoCode) WithinWindow(now time.Time) bool {
	return !now.Before(p.ValidFrom) && !now.After(p.ValidUntil)
}

// PromoUsage records one consumption of a code by one booking.
type PromoUsage struct {
	ID        int64           `json:"id"`
	PromoID   int64           `json:"promo_id"`
	BookingID int64           `json:"booking_id"`
	UserID    int64           `json:"user_id"`
	Discount  decimal.Decimal `json:"discount"`
	CreatedAt time.Time       `json:"created_at"`
}
