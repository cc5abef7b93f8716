package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type GiftCardStatus string

const (
	GiftCardPending   GiftCardStatus = "pending"
	GiftCardActive    GiftCardStatus = "active"
	GiftCardUsed      GiftCardStatus = "used"
	GiftCardExpired   GiftCardStatus = "expired"
	GiftCardCancelled GiftCardStatus = "cancelled"
)

// GiftCard balance only moves through GiftCardTransaction rows and
// always satisfies 0 <= Balance <= InitialAmount.
type GiftCard struct {
	ID            int64           `json:"id"`
	Code          string          `json:"code"`
	InitialAmount decimal.Decimal `json:"initial_amount"`
	Balance       decimal.Decimal `json:"balance"`
	ValidFrom     time.Time       `json:"valid_from"`
	ValidUntil    time.Time       `json:"valid_until"`
	Scope         RuleScope       `json:"scope"`
	Status        GiftCardStatus  `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (g *GiftCard) WithinWindow(now time.Time) bool {
	return !now.Before(g.ValidFrom) && !now.After(g.ValidUntil)
}
