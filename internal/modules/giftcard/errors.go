package giftcard

import "errors"

var (
	ErrNotFound            = errors.New("gift card not found")
	ErrNotActive           = errors.New("gift card is not active")
	ErrNotStarted          = errors.New("gift card is not yet valid")
	ErrExpired             = errors.New("gift card has expired")
	ErrScope               = errors.New("gift card does not apply to this bookable")
	ErrInsufficientBalance = errors.New("gift card balance is insufficient")
	ErrInvalidAmount       = errors.New("amount must be positive")
)
