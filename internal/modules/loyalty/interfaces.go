package loyalty

import (
	"context"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
)

type TierReader interface {
	ListTiers(ctx context.Context) ([]domain.LoyaltyTier, error)
}

type StatsReader interface {
	UserStats(ctx context.Context, userID int64) (int, decimal.Decimal, error)
}
