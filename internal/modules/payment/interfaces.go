package payment

import (
	"context"
	"time"

	"bluewave/internal/domain"
)

type paymentRepo interface {
	Create(ctx context.Context, p *domain.GatewayPayment) error
	GetByInvID(ctx context.Context, invID int64) (*domain.GatewayPayment, error)
	MarkPaidIdempotent(ctx context.Context, invID int64, rawBody string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, invID int64, reason string) error
}

type bookingReader interface {
	Get(ctx context.Context, ref string) (*domain.Booking, error)
}

// bookingTransitioner is the state machine the paid callback drives.
type bookingTransitioner interface {
	Transition(ctx context.Context, ref string, newStatus domain.BookingStatus, actor domain.Actor, reason string) (*domain.Booking, []domain.OutboundEvent, error)
}
