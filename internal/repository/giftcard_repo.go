package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GiftCardRepository struct {
	db *gorm.DB
}

func NewGiftCardRepository(db *gorm.DB) *GiftCardRepository {
	return &GiftCardRepository{db: db}
}

func (r *GiftCardRepository) WithTx(tx *gorm.DB) *GiftCardRepository {
	return &GiftCardRepository{db: tx}
}

type giftCardModel struct {
	ID            int64           `gorm:"column:id;primaryKey"`
	Code          string          `gorm:"column:code;uniqueIndex"`
	InitialAmount decimal.Decimal `gorm:"column:initial_amount;type:decimal(12,2)"`
	Balance       decimal.Decimal `gorm:"column:balance;type:decimal(12,2)"`
	ValidFrom     time.Time       `gorm:"column:valid_from"`
	ValidUntil    time.Time       `gorm:"column:valid_until"`
	Scope         datatypes.JSON  `gorm:"column:scope"`
	Status        string          `gorm:"column:status;index"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (giftCardModel) TableName() string { return "gift_cards" }

type giftCardTxModel struct {
	ID               int64           `gorm:"column:id;primaryKey"`
	GiftCardID       int64           `gorm:"column:gift_card_id;index"`
	BookingRef       *string         `gorm:"column:booking_ref"`
	Type             string          `gorm:"column:type"`
	Amount           decimal.Decimal `gorm:"column:amount;type:decimal(12,2)"`
	ResultingBalance decimal.Decimal `gorm:"column:resulting_balance;type:decimal(12,2)"`
	Reason           *string         `gorm:"column:reason"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
}

func (giftCardTxModel) TableName() string { return "gift_card_transactions" }

func toDomainGiftCard(m giftCardModel) (*domain.GiftCard, error) {
	var scope domain.RuleScope
	if len(m.Scope) > 0 {
		if err := json.Unmarshal(m.Scope, &scope); err != nil {
			return nil, fmt.Errorf("gift card %d scope: %w", m.ID, err)
		}
	}
	return &domain.GiftCard{
		ID:            m.ID,
		Code:          m.Code,
		InitialAmount: m.InitialAmount,
		Balance:       m.Balance,
		ValidFrom:     m.ValidFrom,
		ValidUntil:    m.ValidUntil,
		Scope:         scope,
		Status:        domain.GiftCardStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}

func (r *GiftCardRepository) GetByCode(ctx context.Context, code string) (*domain.GiftCard, error) {
	var m giftCardModel
	if err := r.db.WithContext(ctx).Where("code = ?", NormalizeCode(code)).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainGiftCard(m)
}

// GetByCodeForUpdate locks the card row; redemption and the appended
// transaction row must share the surrounding transaction.
func (r *GiftCardRepository) GetByCodeForUpdate(ctx context.Context, code string) (*domain.GiftCard, error) {
	var m giftCardModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", NormalizeCode(code)).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return toDomainGiftCard(m)
}

// SetBalance writes the card's new balance (and status, when the card
// is exhausted or expired) and appends the matching ledger row.
func (r *GiftCardRepository) SetBalance(ctx context.Context, card *domain.GiftCard, entry *domain.GiftCardTransaction) error {
	updates := map[string]interface{}{
		"balance": card.Balance,
		"status":  string(card.Status),
	}
	res := r.db.WithContext(ctx).
		Model(&giftCardModel{}).
		Where("id = ?", card.ID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	var ref, reason *string
	if entry.BookingRef != "" {
		v := entry.BookingRef
		ref = &v
	}
	if entry.Reason != "" {
		v := entry.Reason
		reason = &v
	}
	m := giftCardTxModel{
		GiftCardID:       entry.GiftCardID,
		BookingRef:       ref,
		Type:             string(entry.Type),
		Amount:           entry.Amount,
		ResultingBalance: entry.ResultingBalance,
		Reason:           reason,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	entry.ID = m.ID
	entry.CreatedAt = m.CreatedAt
	return nil
}

func (r *GiftCardRepository) Transactions(ctx context.Context, giftCardID int64) ([]domain.GiftCardTransaction, error) {
	var ms []giftCardTxModel
	if err := r.db.WithContext(ctx).
		Where("gift_card_id = ?", giftCardID).
		Order("id").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.GiftCardTransaction, 0, len(ms))
	for _, m := range ms {
		var ref, reason string
		if m.BookingRef != nil {
			ref = *m.BookingRef
		}
		if m.Reason != nil {
			reason = *m.Reason
		}
		out = append(out, domain.GiftCardTransaction{
			ID:               m.ID,
			GiftCardID:       m.GiftCardID,
			BookingRef:       ref,
			Type:             domain.LedgerEntryType(m.Type),
			Amount:           m.Amount,
			ResultingBalance: m.ResultingBalance,
			Reason:           reason,
			CreatedAt:        m.CreatedAt,
		})
	}
	return out, nil
}

func (r *GiftCardRepository) Create(ctx context.Context, g *domain.GiftCard) error {
	scope, err := json.Marshal(g.Scope)
	if err != nil {
		return err
	}
	m := giftCardModel{
		Code:          NormalizeCode(g.Code),
		InitialAmount: g.InitialAmount,
		Balance:       g.Balance,
		ValidFrom:     g.ValidFrom,
		ValidUntil:    g.ValidUntil,
		Scope:         scope,
		Status:        string(g.Status),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	created, err := toDomainGiftCard(m)
	if err != nil {
		return err
	}
	*g = *created
	return nil
}

func (r *GiftCardRepository) List(ctx context.Context, limit, offset int) ([]domain.GiftCard, error) {
	var ms []giftCardModel
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.GiftCard, 0, len(ms))
	for _, m := range ms {
		g, err := toDomainGiftCard(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, nil
}

func (r *GiftCardRepository) SetStatus(ctx context.Context, id int64, status domain.GiftCardStatus) error {
	res := r.db.WithContext(ctx).
		Model(&giftCardModel{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
