package promo

import (
	"context"

	"bluewave/internal/domain"
)

// CodeReader is the read-only slice of the promo repository the
// validator needs. Consumption is not here: usage counters move only
// inside the booking confirmation transaction.
type CodeReader interface {
	GetByCode(ctx context.Context, code string) (*domain.PromoCode, error)
	CountUsesByUser(ctx context.Context, promoID, userID int64) (int, error)
}
