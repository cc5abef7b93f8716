package repository

import (
	"context"
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type gatewayPaymentModel struct {
	ID            int64           `gorm:"column:id;primaryKey"`
	BookingRef    string          `gorm:"column:booking_ref;index"`
	InvID         int64           `gorm:"column:inv_id;uniqueIndex"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(12,2)"`
	Status        string          `gorm:"column:status"`
	FailureReason *string         `gorm:"column:failure_reason"`
	ResultRaw     *string         `gorm:"column:result_raw"`
	PaidAt        *time.Time      `gorm:"column:paid_at"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (gatewayPaymentModel) TableName() string { return "gateway_payments" }

func toDomainPayment(m gatewayPaymentModel) *domain.GatewayPayment {
	var reason, raw string
	if m.FailureReason != nil {
		reason = *m.FailureReason
	}
	if m.ResultRaw != nil {
		raw = *m.ResultRaw
	}
	return &domain.GatewayPayment{
		ID:            m.ID,
		BookingRef:    m.BookingRef,
		InvID:         m.InvID,
		Amount:        m.Amount,
		Status:        domain.PaymentStatus(m.Status),
		FailureReason: reason,
		ResultRaw:     raw,
		PaidAt:        m.PaidAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.GatewayPayment) error {
	m := gatewayPaymentModel{
		BookingRef: p.BookingRef,
		InvID:      p.InvID,
		Amount:     p.Amount,
		Status:     string(p.Status),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*p = *toDomainPayment(m)
	return nil
}

func (r *PaymentRepository) GetByInvID(ctx context.Context, invID int64) (*domain.GatewayPayment, error) {
	var m gatewayPaymentModel
	if err := r.db.WithContext(ctx).Where("inv_id = ?", invID).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainPayment(m), nil
}

// MarkPaidIdempotent flips the payment to paid exactly once. The
// second delivery of the same gateway callback observes paid under the
// row lock and reports changed=false.
func (r *PaymentRepository) MarkPaidIdempotent(ctx context.Context, invID int64, rawBody string, paidAt time.Time) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m gatewayPaymentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("inv_id = ?", invID).
			First(&m).Error; err != nil {
			return err
		}
		if m.Status == string(domain.PaymentPaid) {
			changed = false
			return nil
		}
		res := tx.Model(&gatewayPaymentModel{}).
			Where("inv_id = ?", invID).
			Updates(map[string]interface{}{
				"status":     string(domain.PaymentPaid),
				"result_raw": rawBody,
				"paid_at":    paidAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		changed = true
		return nil
	})
	return changed, err
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, invID int64, reason string) error {
	return r.db.WithContext(ctx).
		Model(&gatewayPaymentModel{}).
		Where("inv_id = ?", invID).
		Updates(map[string]interface{}{
			"status":         string(domain.PaymentFailed),
			"failure_reason": reason,
		}).Error
}
