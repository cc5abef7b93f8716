package giftcard

import (
	"context"
	"errors"
	"time"

	"bluewave/internal/domain"
	"bluewave/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Candidate mirrors promo.Candidate for gift-card applicability.
type Candidate struct {
	BookableType domain.BookableType
	Category     string
	BookableID   int64
	Now          time.Time
}

type Service struct {
	cards *repository.GiftCardRepository
}

func NewService(cards *repository.GiftCardRepository) *Service {
	return &Service{cards: cards}
}

// Validate checks the card without touching its balance.
func (s *Service) Validate(ctx context.Context, code string, cand Candidate) (*domain.GiftCard, error) {
	g, err := s.cards.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := check(g, cand); err != nil {
		return nil, err
	}
	return g, nil
}

func check(g *domain.GiftCard, cand Candidate) error {
	if g.Status != domain.GiftCardActive {
		return ErrNotActive
	}
	now := cand.Now
	if now.IsZero() {
		now = time.Now()
	}
	if now.Before(g.ValidFrom) {
		return ErrNotStarted
	}
	if now.After(g.ValidUntil) {
		return ErrExpired
	}
	if !g.Scope.Matches(cand.BookableType, cand.Category, cand.BookableID) {
		return ErrScope
	}
	return nil
}

// Redeemable returns how much of remaining the card can cover.
func Redeemable(g *domain.GiftCard, remaining decimal.Decimal) decimal.Decimal {
	if g.Balance.LessThan(remaining) {
		return g.Balance
	}
	return remaining
}

// RedeemTx spends amount from the card inside the caller's
// transaction. The card row is locked, the checks rerun against the
// locked row, and one ledger row is appended whose resulting balance
// chains from the previous one. Spending past the balance is rejected,
// never clamped.
func (s *Service) RedeemTx(ctx context.Context, tx *gorm.DB, code string, amount decimal.Decimal, bookingRef string, cand Candidate) (*domain.GiftCard, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	cards := s.cards.WithTx(tx)

	g, err := cards.GetByCodeForUpdate(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := check(g, cand); err != nil {
		return nil, err
	}
	if g.Balance.LessThan(amount) {
		return nil, ErrInsufficientBalance
	}

	g.Balance = g.Balance.Sub(amount)
	if g.Balance.IsZero() {
		g.Status = domain.GiftCardUsed
	}

	entry := &domain.GiftCardTransaction{
		GiftCardID:       g.ID,
		BookingRef:       bookingRef,
		Type:             domain.LedgerSpend,
		Amount:           amount.Neg(),
		ResultingBalance: g.Balance,
		Reason:           "redeemed against booking",
	}
	if err := cards.SetBalance(ctx, g, entry); err != nil {
		return nil, err
	}
	return g, nil
}

// Transactions lists the card's ledger, oldest first.
func (s *Service) Transactions(ctx context.Context, giftCardID int64) ([]domain.GiftCardTransaction, error) {
	return s.cards.Transactions(ctx, giftCardID)
}
