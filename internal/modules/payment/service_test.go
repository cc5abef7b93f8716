package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
)

type mockBookingReader struct {
	booking *domain.Booking
}

func (m *mockBookingReader) Get(ctx context.Context, ref string) (*domain.Booking, error) {
	if m.booking == nil || m.booking.Reference != ref {
		return nil, errors.New("not found")
	}
	return m.booking, nil
}

type mockMachine struct {
	calls      int
	lastStatus domain.BookingStatus
	lastActor  domain.Actor
	err        error
}

func (m *mockMachine) Transition(ctx context.Context, ref string, newStatus domain.BookingStatus, actor domain.Actor, reason string) (*domain.Booking, []domain.OutboundEvent, error) {
	m.calls++
	m.lastStatus = newStatus
	m.lastActor = actor
	if m.err != nil {
		return nil, nil, m.err
	}
	return &domain.Booking{Reference: ref, Status: newStatus},
		[]domain.OutboundEvent{{Type: domain.EventBookingPaid, BookingRef: ref}}, nil
}

type mockPaymentRepo struct {
	payment         *domain.GatewayPayment
	created         int
	markPaidCalls   int
	markPaidAlready bool
	failedCalls     int
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *domain.GatewayPayment) error {
	m.created++
	m.payment = p
	return nil
}

func (m *mockPaymentRepo) GetByInvID(ctx context.Context, invID int64) (*domain.GatewayPayment, error) {
	if m.payment == nil || m.payment.InvID != invID {
		return nil, errors.New("not found")
	}
	return m.payment, nil
}

func (m *mockPaymentRepo) MarkPaidIdempotent(ctx context.Context, invID int64, rawBody string, paidAt time.Time) (bool, error) {
	m.markPaidCalls++
	return !m.markPaidAlready, nil
}

func (m *mockPaymentRepo) MarkFailed(ctx context.Context, invID int64, reason string) error {
	m.failedCalls++
	return nil
}

func newTestPaymentService(repo *mockPaymentRepo, bookings *mockBookingReader, machine *mockMachine) *Service {
	return &Service{
		payments:      repo,
		bookings:      bookings,
		machine:       machine,
		loggerf:       func(string, ...interface{}) {},
		merchantLogin: "bluewave",
		password1:     "p1",
		password2:     "p2",
		baseURL:       "https://gateway.test/pay",
		isTest:        "1",
	}
}

func TestHandleResultCallback_PaidDrivesTransition(t *testing.T) {
	repo := &mockPaymentRepo{payment: &domain.GatewayPayment{
		InvID:      99,
		BookingRef: "BW-TEST0001",
		Amount:     decimal.RequireFromString("1190.00"),
	}}
	machine := &mockMachine{}
	svc := newTestPaymentService(repo, &mockBookingReader{}, machine)

	sig := svc.signatureForResult("1190.00", 99)
	reply, events, err := svc.HandleResultCallback(context.Background(), "1190.00", 99, sig, "raw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "OK99" {
		t.Fatalf("expected OK99 reply, got %q", reply)
	}
	if machine.calls != 1 || machine.lastStatus != domain.BookingPaid {
		t.Fatalf("expected one transition to paid, got %d calls to %s", machine.calls, machine.lastStatus)
	}
	if machine.lastActor.Type != domain.ActorSystem {
		t.Fatalf("expected system actor, got %s", machine.lastActor.Type)
	}
	if len(events) != 1 || events[0].Type != domain.EventBookingPaid {
		t.Fatalf("expected paid event, got %+v", events)
	}
}

func TestHandleResultCallback_InvalidSignature(t *testing.T) {
	repo := &mockPaymentRepo{payment: &domain.GatewayPayment{InvID: 99, Amount: decimal.RequireFromString("100.00")}}
	machine := &mockMachine{}
	svc := newTestPaymentService(repo, &mockBookingReader{}, machine)

	_, _, err := svc.HandleResultCallback(context.Background(), "100.00", 99, "WRONG", "raw")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if machine.calls != 0 {
		t.Fatalf("transition must not run on invalid signature")
	}
	if repo.failedCalls != 1 {
		t.Fatalf("expected payment marked failed")
	}
}

func TestHandleResultCallback_AmountMismatch(t *testing.T) {
	repo := &mockPaymentRepo{payment: &domain.GatewayPayment{InvID: 99, Amount: decimal.RequireFromString("100.00")}}
	machine := &mockMachine{}
	svc := newTestPaymentService(repo, &mockBookingReader{}, machine)

	sig := svc.signatureForResult("50.00", 99)
	_, _, err := svc.HandleResultCallback(context.Background(), "50.00", 99, sig, "raw")
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}
	if machine.calls != 0 {
		t.Fatalf("transition must not run on amount mismatch")
	}
}

func TestHandleResultCallback_ReplayStillAnswersOK(t *testing.T) {
	repo := &mockPaymentRepo{
		payment:         &domain.GatewayPayment{InvID: 7, BookingRef: "BW-TEST0002", Amount: decimal.RequireFromString("500.00")},
		markPaidAlready: true,
	}
	machine := &mockMachine{}
	svc := newTestPaymentService(repo, &mockBookingReader{}, machine)

	sig := svc.signatureForResult("500.00", 7)
	reply, _, err := svc.HandleResultCallback(context.Background(), "500.00", 7, sig, "raw")
	if err != nil {
		t.Fatalf("replayed callback must succeed, got %v", err)
	}
	if reply != "OK7" {
		t.Fatalf("expected OK7, got %q", reply)
	}
	// The machine is still invoked; its own idempotency makes it a no-op.
	if machine.calls != 1 {
		t.Fatalf("expected transition attempt on replay")
	}
}

func TestInitPayment_RejectsUnpayableBooking(t *testing.T) {
	repo := &mockPaymentRepo{}
	bookings := &mockBookingReader{booking: &domain.Booking{
		Reference: "BW-TEST0003",
		Status:    domain.BookingPaid,
		Price:     domain.PriceBreakdown{FinalTotal: decimal.RequireFromString("500.00")},
	}}
	svc := newTestPaymentService(repo, bookings, &mockMachine{})

	_, err := svc.InitPayment(context.Background(), InitPaymentRequest{BookingRef: "BW-TEST0003"})
	if !errors.Is(err, ErrNotPayable) {
		t.Fatalf("expected ErrNotPayable, got %v", err)
	}
	if repo.created != 0 {
		t.Fatalf("no payment row should be created")
	}
}

func TestInitPayment_BuildsSignedURL(t *testing.T) {
	repo := &mockPaymentRepo{}
	bookings := &mockBookingReader{booking: &domain.Booking{
		Reference: "BW-TEST0004",
		Status:    domain.BookingPending,
		Price:     domain.PriceBreakdown{FinalTotal: decimal.RequireFromString("1190.00")},
	}}
	svc := newTestPaymentService(repo, bookings, &mockMachine{})

	resp, err := svc.InitPayment(context.Background(), InitPaymentRequest{BookingRef: "BW-TEST0004", Description: "Island trip"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Signature != svc.signatureForInit("1190.00", resp.InvID) {
		t.Fatalf("signature does not match the init chain")
	}
	if repo.created != 1 || repo.payment.BookingRef != "BW-TEST0004" {
		t.Fatalf("payment row not recorded")
	}
}
