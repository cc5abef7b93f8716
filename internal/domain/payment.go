package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
)

// GatewayPayment is one initiated gateway payment for a booking.
// InvID is the gateway invoice id; callbacks dedupe on it before the
// booking transition is attempted.
type GatewayPayment struct {
	ID            int64           `json:"id"`
	BookingRef    string          `json:"booking_ref"`
	InvID         int64           `json:"inv_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	ResultRaw     string          `json:"-"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
