package admin

import (
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
)

// RuleConditionRequest carries the union of condition fields; only the
// ones matching the rule type are read.
type RuleConditionRequest struct {
	From        *time.Time      `json:"from,omitempty"`
	To          *time.Time      `json:"to,omitempty"`
	Days        []time.Weekday  `json:"days,omitempty"`
	MinLeadDays int             `json:"min_lead_days,omitempty"`
	MaxLeadDays int             `json:"max_lead_days,omitempty"`
	MinParty    int             `json:"min_party,omitempty"`
	MaxParty    int             `json:"max_party,omitempty"`
	MinHours    decimal.Decimal `json:"min_hours,omitempty"`
	MaxHours    decimal.Decimal `json:"max_hours,omitempty"`
	Dates       []time.Time     `json:"dates,omitempty"`
}

type CreateRuleRequest struct {
	Name       string                `json:"name" validate:"required"`
	Type       domain.RuleType       `json:"type" validate:"required"`
	Scope      domain.RuleScope      `json:"scope"`
	Condition  RuleConditionRequest  `json:"condition"`
	Adjustment domain.AdjustmentKind `json:"adjustment" validate:"required,oneof=percent fixed"`
	Value      decimal.Decimal       `json:"value" validate:"required"`
	Priority   int                   `json:"priority"`
	Stackable  bool                  `json:"stackable"`
}

type CreatePromoRequest struct {
	Code           string              `json:"code" validate:"required"`
	Discount       domain.DiscountKind `json:"discount" validate:"required,oneof=percent fixed"`
	Value          decimal.Decimal     `json:"value" validate:"required"`
	MinOrderTHB    decimal.Decimal     `json:"min_order_thb"`
	MaxDiscountTHB decimal.Decimal     `json:"max_discount_thb"`
	UsageLimit     int                 `json:"usage_limit"`
	MaxUsesPerUser int                 `json:"max_uses_per_user"`
	ValidFrom      time.Time           `json:"valid_from" validate:"required"`
	ValidUntil     time.Time           `json:"valid_until" validate:"required"`
	Scope          domain.RuleScope    `json:"scope"`
}

type CreateGiftCardRequest struct {
	Amount     decimal.Decimal  `json:"amount" validate:"required"`
	ValidFrom  time.Time        `json:"valid_from" validate:"required"`
	ValidUntil time.Time        `json:"valid_until" validate:"required"`
	Scope      domain.RuleScope `json:"scope"`
}

type CreateTierRequest struct {
	Name                 string          `json:"name" validate:"required"`
	MinBookings          int             `json:"min_bookings"`
	MinLifetimeSpendTHB  decimal.Decimal `json:"min_lifetime_spend_thb"`
	CashbackPercent      decimal.Decimal `json:"cashback_percent"`
	ExtraDiscountPercent decimal.Decimal `json:"extra_discount_percent"`
	FreeCancellationHrs  int             `json:"free_cancellation_hours"`
}

type AdjustCashbackRequest struct {
	UserID int64           `json:"user_id" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Reason string          `json:"reason" validate:"required"`
}

type AddNoteRequest struct {
	Text string `json:"text" validate:"required"`
}
