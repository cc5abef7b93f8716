package repository

import (
	"context"
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LoyaltyRepository struct {
	db *gorm.DB
}

func NewLoyaltyRepository(db *gorm.DB) *LoyaltyRepository {
	return &LoyaltyRepository{db: db}
}

type loyaltyTierModel struct {
	ID                   int64           `gorm:"column:id;primaryKey"`
	Name                 string          `gorm:"column:name;uniqueIndex"`
	MinBookings          int             `gorm:"column:min_bookings"`
	MinLifetimeSpendTHB  decimal.Decimal `gorm:"column:min_lifetime_spend_thb;type:decimal(12,2)"`
	CashbackPercent      decimal.Decimal `gorm:"column:cashback_percent;type:decimal(5,2)"`
	ExtraDiscountPercent decimal.Decimal `gorm:"column:extra_discount_percent;type:decimal(5,2)"`
	FreeCancellationHrs  int             `gorm:"column:free_cancellation_hours"`
	CreatedAt            time.Time       `gorm:"column:created_at"`
}

func (loyaltyTierModel) TableName() string { return "loyalty_tiers" }

func toDomainTier(m loyaltyTierModel) domain.LoyaltyTier {
	return domain.LoyaltyTier{
		ID:                   m.ID,
		Name:                 m.Name,
		MinBookings:          m.MinBookings,
		MinLifetimeSpendTHB:  m.MinLifetimeSpendTHB,
		CashbackPercent:      m.CashbackPercent,
		ExtraDiscountPercent: m.ExtraDiscountPercent,
		FreeCancellationHrs:  m.FreeCancellationHrs,
		CreatedAt:            m.CreatedAt,
	}
}

// ListTiers returns all tiers ordered from lowest to highest threshold.
func (r *LoyaltyRepository) ListTiers(ctx context.Context) ([]domain.LoyaltyTier, error) {
	var ms []loyaltyTierModel
	if err := r.db.WithContext(ctx).
		Order("min_bookings, min_lifetime_spend_thb").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.LoyaltyTier, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomainTier(m))
	}
	return out, nil
}

func (r *LoyaltyRepository) CreateTier(ctx context.Context, t *domain.LoyaltyTier) error {
	m := loyaltyTierModel{
		Name:                 t.Name,
		MinBookings:          t.MinBookings,
		MinLifetimeSpendTHB:  t.MinLifetimeSpendTHB,
		CashbackPercent:      t.CashbackPercent,
		ExtraDiscountPercent: t.ExtraDiscountPercent,
		FreeCancellationHrs:  t.FreeCancellationHrs,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*t = toDomainTier(m)
	return nil
}
