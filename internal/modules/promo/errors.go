package promo

import "errors"

var (
	ErrNotFound   = errors.New("promo code not found")
	ErrInactive   = errors.New("promo code is not active")
	ErrNotStarted = errors.New("promo code is not yet valid")
	ErrExpired    = errors.New("promo code has expired")
	ErrMinOrder   = errors.New("order total below promo code minimum")
	ErrScope      = errors.New("promo code does not apply to this bookable")
	ErrUsageLimit = errors.New("promo code usage limit reached")
	ErrUserLimit  = errors.New("promo code already used the maximum number of times")
)
