package notification

import (
	"context"
	"fmt"
	"log"

	"bluewave/internal/domain"
	"bluewave/internal/repository"
)

// Service stores in-app notifications and acts as the dispatcher for
// outbound booking events. Delivery is fire-and-forget: a failure is
// logged and never propagates to the transition that produced the
// event.
type Service struct {
	repo *repository.NotificationRepository
}

func NewService(repo *repository.NotificationRepository) *Service {
	return &Service{repo: repo}
}

// Publish implements booking.EventSink. It runs asynchronously so the
// HTTP response of the committed transition is never held up by
// notification storage.
func (s *Service) Publish(events []domain.OutboundEvent) {
	if len(events) == 0 {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("level=error msg=notification dispatch panic err=%v", r)
			}
		}()
		ctx := context.Background()
		for _, ev := range events {
			if err := s.store(ctx, ev); err != nil {
				log.Printf("level=error msg=notification store failed event=%s booking_ref=%s err=%v",
					ev.Type, ev.BookingRef, err)
			}
		}
	}()
}

func (s *Service) store(ctx context.Context, ev domain.OutboundEvent) error {
	n := &domain.Notification{
		UserID: ev.UserID,
		Type:   ev.Type,
		Data: map[string]any{
			"booking_ref": ev.BookingRef,
			"old_status":  string(ev.OldStatus),
			"new_status":  string(ev.NewStatus),
		},
	}
	if ev.Reason != "" {
		n.Data["reason"] = ev.Reason
	}

	switch ev.Type {
	case domain.EventBookingConfirmed:
		n.Title = "Booking confirmed"
		n.Message = fmt.Sprintf("Your booking %s has been confirmed", ev.BookingRef)
	case domain.EventBookingPaid:
		n.Title = "Payment received"
		n.Message = fmt.Sprintf("Payment for booking %s has been received", ev.BookingRef)
	case domain.EventBookingCancelled:
		n.Title = "Booking cancelled"
		n.Message = fmt.Sprintf("Your booking %s has been cancelled", ev.BookingRef)
		if ev.Reason != "" {
			n.Message += ". Reason: " + ev.Reason
		}
	case domain.EventBookingRefunded:
		n.Title = "Booking refunded"
		n.Message = fmt.Sprintf("Your booking %s has been refunded", ev.BookingRef)
	case domain.EventBookingCompleted:
		n.Title = "Trip completed"
		n.Message = fmt.Sprintf("We hope you enjoyed your trip, booking %s", ev.BookingRef)
	case domain.EventAdminAlert:
		// Staff feed row, not tied to the customer.
		n.UserID = 0
		n.Title = "Booking needs attention"
		n.Message = fmt.Sprintf("Booking %s moved %s -> %s", ev.BookingRef, ev.OldStatus, ev.NewStatus)
	default:
		n.Title = "Booking update"
		n.Message = fmt.Sprintf("Booking %s moved to %s", ev.BookingRef, ev.NewStatus)
	}

	return s.repo.Create(ctx, n)
}

func (s *Service) ListForUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		unread = 0
	}
	return list, unread, nil
}

// StaffFeed returns the shared staff alerts.
func (s *Service) StaffFeed(ctx context.Context, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, 0, limit)
}

func (s *Service) MarkRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllRead(ctx, userID)
}
