package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingPaid       BookingStatus = "paid"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
	BookingRefunded   BookingStatus = "refunded"
	BookingNoShow     BookingStatus = "no_show"
)

// Terminal reports whether no further transition leaves the status.
// Completed is terminal for operational purposes but may still move
// to refunded.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingRefunded || s == BookingNoShow
}

type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorAdmin  ActorType = "admin"
	ActorSystem ActorType = "system"
	ActorVendor ActorType = "vendor"
)

type Actor struct {
	Type ActorType `json:"type"`
	ID   int64     `json:"id,omitempty"`
}

// PriceBreakdown is the itemized price stored with a booking. The
// invariant FinalTotal = Base + AddOnsTotal + DynamicAdjustment −
// PromoDiscount − GiftCardAmount − LoyaltyDiscount − CashbackSpent
// holds at all times, and FinalTotal is never negative.
type PriceBreakdown struct {
	Base              decimal.Decimal `json:"base"`
	AddOnsTotal       decimal.Decimal `json:"addons_total"`
	DynamicAdjustment decimal.Decimal `json:"dynamic_adjustment"`
	PromoDiscount     decimal.Decimal `json:"promo_discount"`
	GiftCardAmount    decimal.Decimal `json:"gift_card_amount"`
	LoyaltyDiscount   decimal.Decimal `json:"loyalty_discount"`
	CashbackEarned    decimal.Decimal `json:"cashback_earned"`
	CashbackSpent     decimal.Decimal `json:"cashback_spent"`
	FinalTotal        decimal.Decimal `json:"final_total"`
}

type Booking struct {
	ID           int64         `json:"id"`
	Reference    string        `json:"reference"`
	BookableType BookableType  `json:"bookable_type"`
	BookableID   int64         `json:"bookable_id"`
	UserID       int64         `json:"user_id"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Adults       int           `json:"adults"`
	Children     int           `json:"children"`
	Price        PriceBreakdown `json:"price"`
	Status       BookingStatus `json:"status"`

	PromoCodeID *int64 `json:"promo_code_id,omitempty"`
	PromoCode   string `json:"promo_code,omitempty"`
	GiftCardID  *int64 `json:"gift_card_id,omitempty"`

	PaymentMethod string `json:"payment_method,omitempty"`
	PaymentRef    string `json:"payment_ref,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Notes []AdminNote `json:"notes,omitempty"`
}

func (b *Booking) PartySize() int { return b.Adults + b.Children }

// AdminNote is a free-form note attached to a booking by staff.
type AdminNote struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id"`
	Text      string    `json:"text"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingStatusHistory is the append-only audit trail: one row per
// transition, never mutated or deleted.
type BookingStatusHistory struct {
	ID        int64         `json:"id"`
	BookingID int64         `json:"booking_id"`
	OldStatus BookingStatus `json:"old_status"`
	NewStatus BookingStatus `json:"new_status"`
	ActorType ActorType     `json:"actor_type"`
	ActorID   int64         `json:"actor_id,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
