package ledger

import "errors"

var (
	ErrInsufficientBalance = errors.New("cashback balance is insufficient")
	ErrInvalidAmount       = errors.New("amount must be positive")
)
