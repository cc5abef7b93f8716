package loyalty

import (
	"context"
	"errors"

	"bluewave/internal/domain"
)

var ErrNoTiers = errors.New("no loyalty tiers configured")

type Service struct {
	tiers TierReader
	stats StatsReader
}

func NewService(tiers TierReader, stats StatsReader) *Service {
	return &Service{tiers: tiers, stats: stats}
}

// TierFor derives the user's current tier from their completed-booking
// count and lifetime spend. A tier qualifies only when the user meets
// both of its thresholds, the lowest tier included; of the qualifying
// tiers the highest one wins, and a user qualifying for none has no
// tier. Tiers are recomputed on every read so history edits and
// refunds take effect immediately.
func (s *Service) TierFor(ctx context.Context, userID int64) (*domain.LoyaltyTier, error) {
	tiers, err := s.tiers.ListTiers(ctx)
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, ErrNoTiers
	}

	completed, spend, err := s.stats.UserStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	// ListTiers returns ascending by threshold; walk up keeping the
	// last tier the user still qualifies for.
	var current *domain.LoyaltyTier
	for i := range tiers {
		t := tiers[i]
		if completed >= t.MinBookings && spend.GreaterThanOrEqual(t.MinLifetimeSpendTHB) {
			current = &t
		}
	}
	return current, nil
}

func (s *Service) Tiers(ctx context.Context) ([]domain.LoyaltyTier, error) {
	return s.tiers.ListTiers(ctx)
}
