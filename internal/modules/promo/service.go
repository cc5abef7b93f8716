package promo

import (
	"context"
	"errors"
	"time"

	"bluewave/internal/domain"
	"bluewave/internal/modules/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Candidate is the booking-to-be a code is validated against.
type Candidate struct {
	UserID       int64
	BookableType domain.BookableType
	Category     string
	BookableID   int64
	OrderTotal   decimal.Decimal
	Now          time.Time
}

type Service struct {
	codes CodeReader
}

func NewService(codes CodeReader) *Service {
	return &Service{codes: codes}
}

// Validate checks a code's applicability against the candidate and
// computes the discount. It mutates nothing; the same checks run again
// under lock when the consuming booking is confirmed.
func (s *Service) Validate(ctx context.Context, code string, cand Candidate) (decimal.Decimal, *domain.PromoCode, error) {
	p, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil, ErrNotFound
		}
		return decimal.Zero, nil, err
	}

	if err := s.check(ctx, p, cand); err != nil {
		return decimal.Zero, nil, err
	}

	return Discount(p, cand.OrderTotal), p, nil
}

func (s *Service) check(ctx context.Context, p *domain.PromoCode, cand Candidate) error {
	if !p.Active {
		return ErrInactive
	}
	now := cand.Now
	if now.IsZero() {
		now = time.Now()
	}
	if now.Before(p.ValidFrom) {
		return ErrNotStarted
	}
	if now.After(p.ValidUntil) {
		return ErrExpired
	}
	if cand.OrderTotal.LessThan(p.MinOrderTHB) {
		return ErrMinOrder
	}
	if !p.Scope.Matches(cand.BookableType, cand.Category, cand.BookableID) {
		return ErrScope
	}
	if p.UsageLimit > 0 && p.UsageCount >= p.UsageLimit {
		return ErrUsageLimit
	}
	if p.MaxUsesPerUser > 0 {
		used, err := s.codes.CountUsesByUser(ctx, p.ID, cand.UserID)
		if err != nil {
			return err
		}
		if used >= p.MaxUsesPerUser {
			return ErrUserLimit
		}
	}
	return nil
}

// Recheck re-runs the applicability checks against a fresh row, for
// the consumption phase inside the confirming transaction.
func (s *Service) Recheck(ctx context.Context, p *domain.PromoCode, cand Candidate) error {
	return s.check(ctx, p, cand)
}

// Discount computes the code's discount for the given order total,
// capped by the code's max discount when one is set. Never exceeds the
// order total.
func Discount(p *domain.PromoCode, orderTotal decimal.Decimal) decimal.Decimal {
	var amt decimal.Decimal
	if p.Discount == domain.DiscountPercent {
		amt = pricing.PercentOf(orderTotal, p.Value)
	} else {
		amt = p.Value.Round(2)
	}
	if p.MaxDiscountTHB.IsPositive() && amt.GreaterThan(p.MaxDiscountTHB) {
		amt = p.MaxDiscountTHB
	}
	if amt.GreaterThan(orderTotal) {
		amt = orderTotal
	}
	if amt.IsNegative() {
		amt = decimal.Zero
	}
	return amt
}
