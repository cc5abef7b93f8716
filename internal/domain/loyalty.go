package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoyaltyTier thresholds and benefits. A user's tier is derived from
// their completed-booking history on read, never stored.
type LoyaltyTier struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"name"`
	MinBookings          int             `json:"min_bookings"`
	MinLifetimeSpendTHB  decimal.Decimal `json:"min_lifetime_spend_thb"`
	CashbackPercent      decimal.Decimal `json:"cashback_percent"`
	ExtraDiscountPercent decimal.Decimal `json:"extra_discount_percent"`
	FreeCancellationHrs  int             `json:"free_cancellation_hours"`
	CreatedAt            time.Time       `json:"created_at"`
}
