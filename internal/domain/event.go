package domain

import "time"

type EventType string

const (
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingPaid      EventType = "booking.paid"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingRefunded  EventType = "booking.refunded"
	EventBookingCompleted EventType = "booking.completed"
	EventBookingNoShow    EventType = "booking.no_show"
	EventAdminAlert       EventType = "admin.alert"
)

// OutboundEvent is returned from a committed transition for the caller
// to forward to the notification dispatcher. The core never dispatches
// anything itself.
type OutboundEvent struct {
	Type       EventType     `json:"type"`
	BookingRef string        `json:"booking_ref"`
	UserID     int64         `json:"user_id"`
	OldStatus  BookingStatus `json:"old_status"`
	NewStatus  BookingStatus `json:"new_status"`
	Reason     string        `json:"reason,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}
