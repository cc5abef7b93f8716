package booking

import (
	"time"

	"bluewave/internal/domain"
	"bluewave/internal/modules/pricing"

	"github.com/shopspring/decimal"
)

type AddOnRequest struct {
	ID       int64 `json:"id" validate:"required"`
	Quantity int   `json:"quantity" validate:"required,min=1"`
}

// QuoteRequest is the typed, already-validated command a quote or a
// confirmation is computed from.
type QuoteRequest struct {
	UserID       int64              `json:"-"`
	Bookable     domain.BookableRef `json:"bookable" validate:"required"`
	StartTime    time.Time          `json:"start_time" validate:"required"`
	EndTime      time.Time          `json:"end_time" validate:"required"`
	Adults       int                `json:"adults" validate:"required,min=1"`
	Children     int                `json:"children" validate:"min=0"`
	AddOns       []AddOnRequest     `json:"addons" validate:"dive"`
	PromoCode    string             `json:"promo_code"`
	GiftCardCode string             `json:"gift_card_code"`
	CashbackTHB  decimal.Decimal    `json:"cashback_thb"`

	// Now anchors lead-time and validity-window checks; zero means
	// the wall clock.
	Now time.Time `json:"-"`
}

func (r QuoteRequest) now() time.Time {
	if r.Now.IsZero() {
		return time.Now()
	}
	return r.Now
}

func (r QuoteRequest) partySize() int { return r.Adults + r.Children }

// QuoteResult carries everything Confirm needs to persist the booking
// without recomputing: the itemized pricing pass and the resolved
// promo, gift card and tier.
type QuoteResult struct {
	Price    domain.PriceBreakdown `json:"price"`
	Pricing  pricing.Breakdown     `json:"pricing"`
	Tier     *domain.LoyaltyTier   `json:"tier,omitempty"`
	Promo    *domain.PromoCode     `json:"-"`
	GiftCard *domain.GiftCard      `json:"-"`
	Category string                `json:"-"`
}

type TransitionRequest struct {
	NewStatus domain.BookingStatus `json:"new_status" validate:"required"`
	Reason    string               `json:"reason"`
}
