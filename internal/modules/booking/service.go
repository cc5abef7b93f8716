package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"bluewave/internal/domain"
	"bluewave/internal/modules/giftcard"
	"bluewave/internal/modules/ledger"
	"bluewave/internal/modules/loyalty"
	"bluewave/internal/modules/pricing"
	"bluewave/internal/modules/promo"
	"bluewave/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service owns the booking lifecycle: quoting, confirmation, and every
// subsequent status change. It is the only component that consumes
// promo usage, redeems gift cards, or moves cashback.
type Service struct {
	db        *gorm.DB
	bookings  *repository.BookingRepository
	bookables *repository.BookableRepository
	rules     *repository.PricingRuleRepository
	promos    *repository.PromoRepository
	promoSvc  *promo.Service
	giftSvc   *giftcard.Service
	ledger    *ledger.Service
	loyalty   *loyalty.Service
}

func NewService(
	db *gorm.DB,
	bookings *repository.BookingRepository,
	bookables *repository.BookableRepository,
	rules *repository.PricingRuleRepository,
	promos *repository.PromoRepository,
	promoSvc *promo.Service,
	giftSvc *giftcard.Service,
	ledgerSvc *ledger.Service,
	loyaltySvc *loyalty.Service,
) *Service {
	return &Service{
		db:        db,
		bookings:  bookings,
		bookables: bookables,
		rules:     rules,
		promos:    promos,
		promoSvc:  promoSvc,
		giftSvc:   giftSvc,
		ledger:    ledgerSvc,
		loyalty:   loyaltySvc,
	}
}

type resolvedBookable struct {
	category      string
	capacity      int
	basePrice     decimal.Decimal
	durationHours decimal.Decimal
}

func (s *Service) resolveBookable(ctx context.Context, req QuoteRequest) (*resolvedBookable, error) {
	switch req.Bookable.Type {
	case domain.BookableVessel:
		v, err := s.bookables.GetVessel(ctx, req.Bookable.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrBookableNotFound
			}
			return nil, err
		}
		if !v.Active {
			return nil, ErrBookableInactive
		}
		hours := decimal.NewFromFloat(req.EndTime.Sub(req.StartTime).Hours())
		return &resolvedBookable{
			category:      v.Category,
			capacity:      v.Capacity,
			basePrice:     v.BasePrice,
			durationHours: hours,
		}, nil
	case domain.BookableTour:
		t, err := s.bookables.GetTour(ctx, req.Bookable.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrBookableNotFound
			}
			return nil, err
		}
		if !t.Active {
			return nil, ErrBookableInactive
		}
		return &resolvedBookable{
			category:      t.Category,
			capacity:      t.Capacity,
			basePrice:     t.BasePrice,
			durationHours: t.DurationHours,
		}, nil
	default:
		return nil, ErrBookableNotFound
	}
}

func (s *Service) resolveAddOns(ctx context.Context, reqs []AddOnRequest) ([]pricing.AddOnSelection, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		if r.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		ids = append(ids, r.ID)
	}
	addons, err := s.bookables.ListAddOns(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.AddOn, len(addons))
	for _, a := range addons {
		byID[a.ID] = a
	}
	out := make([]pricing.AddOnSelection, 0, len(reqs))
	for _, r := range reqs {
		a, ok := byID[r.ID]
		if !ok || !a.Active {
			return nil, ErrAddOnNotFound
		}
		out = append(out, pricing.AddOnSelection{AddOn: a, Quantity: r.Quantity})
	}
	return out, nil
}

// Quote computes a full price breakdown without mutating anything.
// Discounts apply in a fixed order, each clamped so the running total
// never drops below zero: promo, loyalty, gift card, spent cashback.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidWindow
	}
	if req.Adults < 1 || req.Children < 0 {
		return nil, ErrInvalidParty
	}

	bk, err := s.resolveBookable(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.partySize() > bk.capacity {
		return nil, ErrCapacityExceeded
	}

	selections, err := s.resolveAddOns(ctx, req.AddOns)
	if err != nil {
		return nil, err
	}

	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	now := req.now()
	leadDays := int(req.StartTime.Sub(now).Hours() / 24)
	if leadDays < 0 {
		leadDays = 0
	}

	breakdown := pricing.Compute(pricing.Input{
		BasePrice:     bk.basePrice,
		AddOns:        selections,
		Date:          req.StartTime,
		LeadTimeDays:  leadDays,
		Adults:        req.Adults,
		Children:      req.Children,
		DurationHours: bk.durationHours,
		BookableType:  req.Bookable.Type,
		Category:      bk.category,
		BookableID:    req.Bookable.ID,
	}, rules)

	tier, err := s.loyalty.TierFor(ctx, req.UserID)
	if err != nil && !errors.Is(err, loyalty.ErrNoTiers) {
		return nil, err
	}

	res := &QuoteResult{
		Pricing:  breakdown,
		Tier:     tier,
		Category: bk.category,
		Price: domain.PriceBreakdown{
			Base:              breakdown.Base,
			AddOnsTotal:       breakdown.AddOnsTotal,
			DynamicAdjustment: breakdown.DynamicAdjustment,
		},
	}
	remaining := breakdown.Subtotal

	if req.PromoCode != "" {
		discount, p, err := s.promoSvc.Validate(ctx, req.PromoCode, promo.Candidate{
			UserID:       req.UserID,
			BookableType: req.Bookable.Type,
			Category:     bk.category,
			BookableID:   req.Bookable.ID,
			OrderTotal:   breakdown.Subtotal,
			Now:          now,
		})
		if err != nil {
			return nil, err
		}
		if discount.GreaterThan(remaining) {
			discount = remaining
		}
		res.Price.PromoDiscount = discount
		res.Promo = p
		remaining = remaining.Sub(discount)
	}

	if tier != nil && tier.ExtraDiscountPercent.IsPositive() {
		d := pricing.PercentOf(breakdown.Subtotal, tier.ExtraDiscountPercent)
		if d.GreaterThan(remaining) {
			d = remaining
		}
		res.Price.LoyaltyDiscount = d
		remaining = remaining.Sub(d)
	}

	if req.GiftCardCode != "" {
		card, err := s.giftSvc.Validate(ctx, req.GiftCardCode, giftcard.Candidate{
			BookableType: req.Bookable.Type,
			Category:     bk.category,
			BookableID:   req.Bookable.ID,
			Now:          now,
		})
		if err != nil {
			return nil, err
		}
		amount := giftcard.Redeemable(card, remaining)
		res.Price.GiftCardAmount = amount
		res.GiftCard = card
		remaining = remaining.Sub(amount)
	}

	if req.CashbackTHB.IsPositive() {
		balance, err := s.ledger.BalanceOf(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		spend := decimal.Min(req.CashbackTHB, balance, remaining)
		if spend.IsPositive() {
			res.Price.CashbackSpent = spend
			remaining = remaining.Sub(spend)
		}
	}

	res.Price.FinalTotal = remaining
	if tier != nil && tier.CashbackPercent.IsPositive() {
		res.Price.CashbackEarned = pricing.PercentOf(remaining, tier.CashbackPercent)
	}
	return res, nil
}

func newReference() string {
	return "BW-" + strings.ToUpper(uuid.NewString()[:8])
}

// Confirm recomputes the quote and persists it as a pending booking.
// Promo consumption, gift-card redemption, and the cashback debit all
// commit atomically with the booking row; any of them failing rolls
// the whole confirmation back.
func (s *Service) Confirm(ctx context.Context, req QuoteRequest) (*domain.Booking, error) {
	quote, err := s.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		Reference:    newReference(),
		BookableType: req.Bookable.Type,
		BookableID:   req.Bookable.ID,
		UserID:       req.UserID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Adults:       req.Adults,
		Children:     req.Children,
		Price:        quote.Price,
		Status:       domain.BookingPending,
	}
	if quote.Promo != nil {
		b.PromoCodeID = &quote.Promo.ID
		b.PromoCode = quote.Promo.Code
	}
	if quote.GiftCard != nil {
		b.GiftCardID = &quote.GiftCard.ID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		bookings := s.bookings.WithTx(tx)

		for attempt := 0; ; attempt++ {
			if err := bookings.Create(ctx, b); err == nil {
				break
			} else if !repository.IsDuplicate(err) || attempt >= 2 {
				return err
			}
			b.Reference = newReference()
		}

		if quote.Promo != nil && b.Price.PromoDiscount.IsPositive() {
			usage := &domain.PromoUsage{
				PromoID:   quote.Promo.ID,
				BookingID: b.ID,
				UserID:    req.UserID,
				Discount:  b.Price.PromoDiscount,
			}
			if err := s.promos.WithTx(tx).Consume(ctx, usage, quote.Promo.UsageLimit); err != nil {
				if errors.Is(err, repository.ErrUsageExhausted) {
					return promo.ErrUsageLimit
				}
				return err
			}
		}

		if quote.GiftCard != nil && b.Price.GiftCardAmount.IsPositive() {
			_, err := s.giftSvc.RedeemTx(ctx, tx, quote.GiftCard.Code, b.Price.GiftCardAmount, b.Reference, giftcard.Candidate{
				BookableType: req.Bookable.Type,
				Category:     quote.Category,
				BookableID:   req.Bookable.ID,
				Now:          req.now(),
			})
			if err != nil {
				return err
			}
		}

		if b.Price.CashbackSpent.IsPositive() {
			_, err := s.ledger.DebitTx(ctx, tx, req.UserID, b.Price.CashbackSpent,
				domain.LedgerSpend, b.Reference, "spent on booking")
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Transition moves a booking to newStatus under a row lock, firing the
// transition's ledger effects in the same transaction as the status
// write and the history row. It returns the outbound events for the
// caller to dispatch after commit; the core never dispatches anything.
//
// Re-invoking a transition whose target status the booking already
// holds is a no-op success with no events, so replayed payment
// webhooks are harmless.
func (s *Service) Transition(ctx context.Context, ref string, newStatus domain.BookingStatus, actor domain.Actor, reason string) (*domain.Booking, []domain.OutboundEvent, error) {
	var (
		b      *domain.Booking
		events []domain.OutboundEvent
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		bookings := s.bookings.WithTx(tx)

		var err error
		b, err = bookings.GetByReferenceForUpdate(ctx, ref)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		if b.Status == newStatus {
			return nil
		}

		rule, ok := transitionTable[transitionKey{b.Status, newStatus}]
		if !ok {
			return &InvalidTransitionError{From: b.Status, To: newStatus}
		}
		if !rule.allows(actor.Type) {
			return ErrActorNotAllowed
		}
		if rule.reasonRequired && strings.TrimSpace(reason) == "" {
			return ErrReasonRequired
		}

		for _, eff := range rule.effects {
			if err := s.applyEffect(ctx, tx, b, eff); err != nil {
				return err
			}
		}

		oldStatus := b.Status
		now := time.Now()
		b.Status = newStatus
		stampMilestone(b, newStatus, now)

		if err := bookings.Save(ctx, b); err != nil {
			return err
		}
		if err := bookings.AppendHistory(ctx, &domain.BookingStatusHistory{
			BookingID: b.ID,
			OldStatus: oldStatus,
			NewStatus: newStatus,
			ActorType: actor.Type,
			ActorID:   actor.ID,
			Reason:    reason,
		}); err != nil {
			return err
		}

		for _, et := range rule.events {
			events = append(events, domain.OutboundEvent{
				Type:       et,
				BookingRef: b.Reference,
				UserID:     b.UserID,
				OldStatus:  oldStatus,
				NewStatus:  newStatus,
				Reason:     reason,
				OccurredAt: now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return b, events, nil
}

func (s *Service) applyEffect(ctx context.Context, tx *gorm.DB, b *domain.Booking, eff effect) error {
	switch eff {
	case effectRefundSpentCashback:
		if !b.Price.CashbackSpent.IsPositive() {
			return nil
		}
		_, err := s.ledger.CreditTx(ctx, tx, b.UserID, b.Price.CashbackSpent,
			domain.LedgerRefund, b.Reference, "cashback returned on cancellation")
		return err
	case effectCreditEarnedCashback:
		if !b.Price.CashbackEarned.IsPositive() {
			return nil
		}
		_, err := s.ledger.CreditTx(ctx, tx, b.UserID, b.Price.CashbackEarned,
			domain.LedgerEarn, b.Reference, "earned on booking")
		return err
	case effectDeductEarnedCashback:
		if !b.Price.CashbackEarned.IsPositive() {
			return nil
		}
		_, err := s.ledger.DebitTx(ctx, tx, b.UserID, b.Price.CashbackEarned,
			domain.LedgerAdjust, b.Reference, "earned cashback reversed")
		return err
	}
	return nil
}

// stampMilestone sets the milestone timestamp for the new status once;
// an already-set timestamp is never overwritten.
func stampMilestone(b *domain.Booking, status domain.BookingStatus, now time.Time) {
	switch status {
	case domain.BookingConfirmed:
		if b.ConfirmedAt == nil {
			b.ConfirmedAt = &now
		}
	case domain.BookingPaid:
		if b.PaidAt == nil {
			b.PaidAt = &now
		}
	case domain.BookingCompleted:
		if b.CompletedAt == nil {
			b.CompletedAt = &now
		}
	case domain.BookingCancelled, domain.BookingRefunded:
		if b.CancelledAt == nil {
			b.CancelledAt = &now
		}
	}
}

func (s *Service) Get(ctx context.Context, ref string) (*domain.Booking, error) {
	b, err := s.bookings.GetByReference(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

// HistoryOf returns the booking's audit trail in transition order.
func (s *Service) HistoryOf(ctx context.Context, ref string) ([]domain.BookingStatusHistory, error) {
	b, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.bookings.HistoryOf(ctx, b.ID)
}

func (s *Service) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.bookings.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) AddNote(ctx context.Context, ref, text string, authorID int64) (*domain.AdminNote, error) {
	b, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	n := &domain.AdminNote{BookingID: b.ID, Text: text, AuthorID: authorID}
	if err := s.bookings.AddNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) NotesOf(ctx context.Context, ref string) ([]domain.AdminNote, error) {
	b, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.bookings.NotesOf(ctx, b.ID)
}
