package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEntryType string

const (
	LedgerEarn   LedgerEntryType = "earn"
	LedgerSpend  LedgerEntryType = "spend"
	LedgerRefund LedgerEntryType = "refund"
	LedgerExpire LedgerEntryType = "expire"
	LedgerAdjust LedgerEntryType = "adjust"
)

// CashbackTransaction is one append-only ledger row. ResultingBalance
// equals the previous row's ResultingBalance plus Amount (signed),
// forming a verifiable chain from zero.
type CashbackTransaction struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"user_id"`
	BookingRef       string          `json:"booking_ref,omitempty"`
	Type             LedgerEntryType `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
	Reason           string          `json:"reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// GiftCardTransaction mirrors CashbackTransaction for a card's balance.
type GiftCardTransaction struct {
	ID               int64           `json:"id"`
	GiftCardID       int64           `json:"gift_card_id"`
	BookingRef       string          `json:"booking_ref,omitempty"`
	Type             LedgerEntryType `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
	Reason           string          `json:"reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
