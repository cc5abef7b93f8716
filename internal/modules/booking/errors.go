package booking

import (
	"errors"
	"fmt"

	"bluewave/internal/domain"
)

var (
	ErrNotFound         = errors.New("booking not found")
	ErrBookableNotFound = errors.New("bookable not found")
	ErrBookableInactive = errors.New("bookable is not available")
	ErrCapacityExceeded = errors.New("party size exceeds capacity")
	ErrInvalidParty     = errors.New("at least one adult is required")
	ErrInvalidWindow    = errors.New("end time must be after start time")
	ErrAddOnNotFound    = errors.New("unknown or inactive add-on")
	ErrInvalidQuantity  = errors.New("add-on quantity must be positive")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrReasonRequired    = errors.New("a reason is required for this transition")
	ErrActorNotAllowed   = errors.New("actor is not allowed to perform this transition")
)

// InvalidTransitionError names the rejected pair so callers can show
// the user exactly what was attempted.
type InvalidTransitionError struct {
	From domain.BookingStatus
	To   domain.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
