package ledger

import (
	"context"

	"bluewave/internal/domain"
	"bluewave/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service owns the customer cashback ledger. Every balance change goes
// through Credit or Debit so the account row and the append-only
// transaction chain never diverge.
type Service struct {
	db       *gorm.DB
	cashback *repository.CashbackRepository
}

func NewService(db *gorm.DB, cashback *repository.CashbackRepository) *Service {
	return &Service{db: db, cashback: cashback}
}

// Credit adds amount to the owner's balance in its own transaction.
func (s *Service) Credit(ctx context.Context, userID int64, amount decimal.Decimal, typ domain.LedgerEntryType, bookingRef, reason string) (*domain.CashbackTransaction, error) {
	var entry *domain.CashbackTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.CreditTx(ctx, tx, userID, amount, typ, bookingRef, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit removes amount from the owner's balance in its own transaction.
func (s *Service) Debit(ctx context.Context, userID int64, amount decimal.Decimal, typ domain.LedgerEntryType, bookingRef, reason string) (*domain.CashbackTransaction, error) {
	var entry *domain.CashbackTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = s.DebitTx(ctx, tx, userID, amount, typ, bookingRef, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditTx is the composable form of Credit for callers that already
// hold a transaction.
func (s *Service) CreditTx(ctx context.Context, tx *gorm.DB, userID int64, amount decimal.Decimal, typ domain.LedgerEntryType, bookingRef, reason string) (*domain.CashbackTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	repo := s.cashback.WithTx(tx)
	balance, err := repo.LockAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	entry := &domain.CashbackTransaction{
		UserID:           userID,
		BookingRef:       bookingRef,
		Type:             typ,
		Amount:           amount,
		ResultingBalance: balance.Add(amount),
		Reason:           reason,
	}
	if err := repo.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DebitTx is the composable form of Debit. The amount is recorded as a
// negative ledger entry; overdrawing is rejected before anything is
// written.
func (s *Service) DebitTx(ctx context.Context, tx *gorm.DB, userID int64, amount decimal.Decimal, typ domain.LedgerEntryType, bookingRef, reason string) (*domain.CashbackTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	repo := s.cashback.WithTx(tx)
	balance, err := repo.LockAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(amount) {
		return nil, ErrInsufficientBalance
	}
	entry := &domain.CashbackTransaction{
		UserID:           userID,
		BookingRef:       bookingRef,
		Type:             typ,
		Amount:           amount.Neg(),
		ResultingBalance: balance.Sub(amount),
		Reason:           reason,
	}
	if err := repo.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// BalanceOf returns the owner's current balance, zero for owners that
// never earned anything.
func (s *Service) BalanceOf(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.cashback.Balance(ctx, userID)
}

func (s *Service) History(ctx context.Context, userID int64, limit, offset int) ([]domain.CashbackTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.cashback.Transactions(ctx, userID, limit, offset)
}
