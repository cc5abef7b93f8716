package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrUsageExhausted is returned when a guarded usage_count increment
// finds no remaining slot.
var ErrUsageExhausted = errors.New("promo usage limit exhausted")

// ErrUsageDuplicate is returned when a (promo, booking) usage row
// already exists.
var ErrUsageDuplicate = errors.New("promo already consumed by booking")

type PromoRepository struct {
	db *gorm.DB
}

func NewPromoRepository(db *gorm.DB) *PromoRepository {
	return &PromoRepository{db: db}
}

func (r *PromoRepository) WithTx(tx *gorm.DB) *PromoRepository {
	return &PromoRepository{db: tx}
}

type promoCodeModel struct {
	ID             int64           `gorm:"column:id;primaryKey"`
	Code           string          `gorm:"column:code;uniqueIndex"`
	Discount       string          `gorm:"column:discount"`
	Value          decimal.Decimal `gorm:"column:value;type:decimal(12,2)"`
	MinOrderTHB    decimal.Decimal `gorm:"column:min_order_thb;type:decimal(12,2)"`
	MaxDiscountTHB decimal.Decimal `gorm:"column:max_discount_thb;type:decimal(12,2)"`
	UsageLimit     int             `gorm:"column:usage_limit"`
	MaxUsesPerUser int             `gorm:"column:max_uses_per_user"`
	UsageCount     int             `gorm:"column:usage_count"`
	ValidFrom      time.Time       `gorm:"column:valid_from"`
	ValidUntil     time.Time       `gorm:"column:valid_until"`
	Scope          datatypes.JSON  `gorm:"column:scope"`
	Active         bool            `gorm:"column:active"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (promoCodeModel) TableName() string { return "promo_codes" }

type promoUsageModel struct {
	ID        int64           `gorm:"column:id;primaryKey"`
	PromoID   int64           `gorm:"column:promo_id;uniqueIndex:idx_promo_usage_once,priority:1"`
	BookingID int64           `gorm:"column:booking_id;uniqueIndex:idx_promo_usage_once,priority:2"`
	UserID    int64           `gorm:"column:user_id;index"`
	Discount  decimal.Decimal `gorm:"column:discount;type:decimal(12,2)"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (promoUsageModel) TableName() string { return "promo_usages" }

// NormalizeCode is the single place promo codes are case-normalized.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func toDomainPromo(m promoCodeModel) (*domain.PromoCode, error) {
	var scope domain.RuleScope
	if len(m.Scope) > 0 {
		if err := json.Unmarshal(m.Scope, &scope); err != nil {
			return nil, fmt.Errorf("promo %d scope: %w", m.ID, err)
		}
	}
	return &domain.PromoCode{
		ID:             m.ID,
		Code:           m.Code,
		Discount:       domain.DiscountKind(m.Discount),
		Value:          m.Value,
		MinOrderTHB:    m.MinOrderTHB,
		MaxDiscountTHB: m.MaxDiscountTHB,
		UsageLimit:     m.UsageLimit,
		MaxUsesPerUser: m.MaxUsesPerUser,
		UsageCount:     m.UsageCount,
		ValidFrom:      m.ValidFrom,
		ValidUntil:     m.ValidUntil,
		Scope:          scope,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}, nil
}

func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	var m promoCodeModel
	if err := r.db.WithContext(ctx).Where("code = ?", NormalizeCode(code)).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainPromo(m)
}

func (r *PromoRepository) GetByID(ctx context.Context, id int64) (*domain.PromoCode, error) {
	var m promoCodeModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return toDomainPromo(m)
}

func (r *PromoRepository) CountUsesByUser(ctx context.Context, promoID, userID int64) (int, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&promoUsageModel{}).
		Where("promo_id = ? AND user_id = ?", promoID, userID).
		Count(&cnt).Error
	return int(cnt), err
}

// Consume performs the guarded usage_count increment and writes the
// usage row. Run inside the confirming transaction (via WithTx). The
// WHERE guard keeps usage_count <= usage_limit even when N concurrent
// confirmations race for the last slot; the unique (promo, booking)
// index makes double-counting on retry structurally impossible.
func (r *PromoRepository) Consume(ctx context.Context, u *domain.PromoUsage, usageLimit int) error {
	q := r.db.WithContext(ctx).
		Model(&promoCodeModel{}).
		Where("id = ?", u.PromoID)
	if usageLimit > 0 {
		q = q.Where("usage_count < ?", usageLimit)
	}
	res := q.Update("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUsageExhausted
	}

	m := promoUsageModel{
		PromoID:   u.PromoID,
		BookingID: u.BookingID,
		UserID:    u.UserID,
		Discount:  u.Discount,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if IsDuplicate(err) {
			return ErrUsageDuplicate
		}
		return err
	}
	u.ID = m.ID
	u.CreatedAt = m.CreatedAt
	return nil
}

func (r *PromoRepository) Create(ctx context.Context, p *domain.PromoCode) error {
	scope, err := json.Marshal(p.Scope)
	if err != nil {
		return err
	}
	m := promoCodeModel{
		Code:           NormalizeCode(p.Code),
		Discount:       string(p.Discount),
		Value:          p.Value,
		MinOrderTHB:    p.MinOrderTHB,
		MaxDiscountTHB: p.MaxDiscountTHB,
		UsageLimit:     p.UsageLimit,
		MaxUsesPerUser: p.MaxUsesPerUser,
		ValidFrom:      p.ValidFrom,
		ValidUntil:     p.ValidUntil,
		Scope:          scope,
		Active:         p.Active,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	created, err := toDomainPromo(m)
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

func (r *PromoRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&promoCodeModel{}).
		Where("id = ?", id).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PromoRepository) List(ctx context.Context, limit, offset int) ([]domain.PromoCode, error) {
	var ms []promoCodeModel
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PromoCode, 0, len(ms))
	for _, m := range ms {
		p, err := toDomainPromo(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}
