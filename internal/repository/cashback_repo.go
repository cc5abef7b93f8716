package repository

import (
	"context"
	"errors"
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CashbackRepository struct {
	db *gorm.DB
}

func NewCashbackRepository(db *gorm.DB) *CashbackRepository {
	return &CashbackRepository{db: db}
}

func (r *CashbackRepository) WithTx(tx *gorm.DB) *CashbackRepository {
	return &CashbackRepository{db: tx}
}

// cashbackAccountModel exists so there is a single lockable row per
// owner; the balance column must always agree with the transaction
// chain.
type cashbackAccountModel struct {
	ID        int64           `gorm:"column:id;primaryKey"`
	UserID    int64           `gorm:"column:user_id;uniqueIndex"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(12,2)"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (cashbackAccountModel) TableName() string { return "cashback_accounts" }

type cashbackTxModel struct {
	ID               int64           `gorm:"column:id;primaryKey"`
	UserID           int64           `gorm:"column:user_id;index"`
	BookingRef       *string         `gorm:"column:booking_ref"`
	Type             string          `gorm:"column:type"`
	Amount           decimal.Decimal `gorm:"column:amount;type:decimal(12,2)"`
	ResultingBalance decimal.Decimal `gorm:"column:resulting_balance;type:decimal(12,2)"`
	Reason           *string         `gorm:"column:reason"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
}

func (cashbackTxModel) TableName() string { return "cashback_transactions" }

// LockAccount loads the owner's account under FOR UPDATE, creating it
// with a zero balance on first touch. Must run inside a transaction.
func (r *CashbackRepository) LockAccount(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var m cashbackAccountModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&m).Error
	if err == nil {
		return m.Balance, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, err
	}

	m = cashbackAccountModel{UserID: userID, Balance: decimal.Zero}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if !IsDuplicate(err) {
			return decimal.Zero, err
		}
		// Lost the creation race; lock the winner's row.
		err = r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&m).Error
		if err != nil {
			return decimal.Zero, err
		}
	}
	return m.Balance, nil
}

// Append writes the new balance and its ledger row. Callers must hold
// the account lock taken by LockAccount in the same transaction.
func (r *CashbackRepository) Append(ctx context.Context, entry *domain.CashbackTransaction) error {
	res := r.db.WithContext(ctx).
		Model(&cashbackAccountModel{}).
		Where("user_id = ?", entry.UserID).
		Update("balance", entry.ResultingBalance)
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
	m := cashbackTxModel{
		UserID:           entry.UserID,
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

// Balance reads the stored account balance without locking.
func (r *CashbackRepository) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var m cashbackAccountModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return m.Balance, nil
}

// LatestBalance returns the resulting balance of the owner's newest
// ledger row, or zero when the ledger is empty.
func (r *CashbackRepository) LatestBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var m cashbackTxModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return m.ResultingBalance, nil
}

// SumAmounts reconstructs the balance as the sum of all signed amounts
// from zero. Must always agree with LatestBalance.
func (r *CashbackRepository) SumAmounts(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&cashbackTxModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *CashbackRepository) Transactions(ctx context.Context, userID int64, limit, offset int) ([]domain.CashbackTransaction, error) {
	var ms []cashbackTxModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CashbackTransaction, 0, len(ms))
	for _, m := range ms {
		var ref, reason string
		if m.BookingRef != nil {
			ref = *m.BookingRef
		}
		if m.Reason != nil {
			reason = *m.Reason
		}
		out = append(out, domain.CashbackTransaction{
			ID:               m.ID,
			UserID:           m.UserID,
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
