package booking

import "bluewave/internal/domain"

// EventSink receives the outbound events of a committed transition.
// Publishing is fire-and-forget; a sink must never block the caller or
// fail the transition.
type EventSink interface {
	Publish(events []domain.OutboundEvent)
}
