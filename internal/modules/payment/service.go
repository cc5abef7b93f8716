package payment

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrAmountMismatch   = errors.New("amount mismatch")
	ErrNotPayable       = errors.New("booking is not payable")
)

// Service turns gateway callbacks into booking transitions. It dedupes
// by invoice id before calling the state machine; the machine's
// idempotent no-op is the second line of defense against replays.
type Service struct {
	payments paymentRepo
	bookings bookingReader
	machine  bookingTransitioner
	loggerf  func(format string, args ...interface{})

	merchantLogin string
	password1     string
	password2     string
	baseURL       string
	resultURL     string
	successURL    string
	isTest        string
}

func NewService(payments paymentRepo, bookings bookingReader, machine bookingTransitioner, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		payments:      payments,
		bookings:      bookings,
		machine:       machine,
		loggerf:       loggerf,
		merchantLogin: os.Getenv("GATEWAY_MERCHANT_LOGIN"),
		password1:     os.Getenv("GATEWAY_PASSWORD1"),
		password2:     os.Getenv("GATEWAY_PASSWORD2"),
		baseURL:       envOrDefault("GATEWAY_BASE_URL", "https://auth.robokassa.ru/Merchant/Index.aspx"),
		resultURL:     os.Getenv("GATEWAY_RESULT_URL"),
		successURL:    os.Getenv("GATEWAY_SUCCESS_URL"),
		isTest:        envOrDefault("GATEWAY_IS_TEST", "1"),
	}
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// InitPayment creates a gateway invoice for a booking awaiting payment
// and returns the hosted payment page URL.
func (s *Service) InitPayment(ctx context.Context, req InitPaymentRequest) (*InitPaymentResponse, error) {
	if s.merchantLogin == "" || s.password1 == "" || s.password2 == "" {
		return nil, fmt.Errorf("gateway credentials are not configured")
	}
	b, err := s.bookings.Get(ctx, req.BookingRef)
	if err != nil {
		return nil, fmt.Errorf("booking check failed: %w", err)
	}
	if b.Status != domain.BookingPending && b.Status != domain.BookingConfirmed {
		return nil, ErrNotPayable
	}
	if !b.Price.FinalTotal.IsPositive() {
		return nil, ErrNotPayable
	}

	outSum := b.Price.FinalTotal.StringFixed(2)
	invID := time.Now().UnixNano()
	signature := s.signatureForInit(outSum, invID)

	u := url.Values{}
	u.Set("MerchantLogin", s.merchantLogin)
	u.Set("OutSum", outSum)
	u.Set("InvId", strconv.FormatInt(invID, 10))
	u.Set("Description", req.Description)
	u.Set("SignatureValue", signature)
	u.Set("IsTest", s.isTest)
	if s.resultURL != "" {
		u.Set("ResultURL", s.resultURL)
	}
	if s.successURL != "" {
		u.Set("SuccessURL", s.successURL)
	}
	paymentURL := s.baseURL + "?" + u.Encode()

	p := &domain.GatewayPayment{
		BookingRef: b.Reference,
		InvID:      invID,
		Amount:     b.Price.FinalTotal,
		Status:     domain.PaymentInitiated,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment failed: %w", err)
	}

	return &InitPaymentResponse{
		InvID:      invID,
		PaymentURL: paymentURL,
		Signature:  signature,
		Status:     string(domain.PaymentInitiated),
	}, nil
}

// HandleResultCallback processes the gateway's server-to-server result
// notification. On a valid paid callback it marks the invoice paid and
// drives the booking to paid as the system actor. The returned events
// are for the caller to dispatch after the transition committed.
func (s *Service) HandleResultCallback(ctx context.Context, outSum string, invID int64, signature string, rawBody string) (string, []domain.OutboundEvent, error) {
	valid := strings.EqualFold(signature, s.signatureForResult(outSum, invID))
	s.loggerf("level=info msg=gateway result signature validation inv_id=%d signature_valid=%t", invID, valid)
	if !valid {
		_ = s.payments.MarkFailed(ctx, invID, "invalid signature")
		return "", nil, ErrInvalidSignature
	}

	p, err := s.payments.GetByInvID(ctx, invID)
	if err != nil {
		return "", nil, err
	}
	if !amountEqual(outSum, p.Amount) {
		reason := fmt.Sprintf("amount mismatch callback=%s expected=%s", outSum, p.Amount.StringFixed(2))
		_ = s.payments.MarkFailed(ctx, invID, reason)
		return "", nil, ErrAmountMismatch
	}

	changed, err := s.payments.MarkPaidIdempotent(ctx, invID, rawBody, time.Now().UTC())
	if err != nil {
		return "", nil, err
	}
	if !changed {
		s.loggerf("level=info msg=idempotent callback already paid inv_id=%d", invID)
	}

	// The transition itself is an idempotent no-op when the booking is
	// already paid, so a replayed callback is harmless here too.
	_, events, err := s.machine.Transition(ctx, p.BookingRef, domain.BookingPaid, domain.Actor{Type: domain.ActorSystem}, "")
	if err != nil {
		return "", nil, err
	}

	return "OK" + strconv.FormatInt(invID, 10), events, nil
}

func (s *Service) signatureForInit(outSum string, invID int64) string {
	return md5Hex(strings.Join([]string{s.merchantLogin, outSum, strconv.FormatInt(invID, 10), s.password1}, ":"))
}

func (s *Service) signatureForResult(outSum string, invID int64) string {
	return md5Hex(strings.Join([]string{outSum, strconv.FormatInt(invID, 10), s.password2}, ":"))
}

func amountEqual(callback string, expected decimal.Decimal) bool {
	v, err := decimal.NewFromString(strings.TrimSpace(callback))
	if err != nil {
		return false
	}
	return v.Equal(expected)
}

func md5Hex(s string) string {
	h := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(h[:]))
}
