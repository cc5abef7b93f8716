package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bluewave/internal/database"
	"bluewave/internal/domain"
	"bluewave/internal/modules/giftcard"
	"bluewave/internal/modules/ledger"
	"bluewave/internal/modules/loyalty"
	"bluewave/internal/modules/promo"
	"bluewave/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type env struct {
	db        *gorm.DB
	svc       *Service
	bookings  *repository.BookingRepository
	bookables *repository.BookableRepository
	rules     *repository.PricingRuleRepository
	promos    *repository.PromoRepository
	cards     *repository.GiftCardRepository
	tiers     *repository.LoyaltyRepository
	ledger    *ledger.Service
}

var dbSeq int

func newEnv(t *testing.T) *env {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:booking_test_%d?mode=memory&cache=shared", dbSeq)
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	e := &env{
		db:        db,
		bookings:  repository.NewBookingRepository(db),
		bookables: repository.NewBookableRepository(db),
		rules:     repository.NewPricingRuleRepository(db),
		promos:    repository.NewPromoRepository(db),
		cards:     repository.NewGiftCardRepository(db),
		tiers:     repository.NewLoyaltyRepository(db),
	}
	e.ledger = ledger.NewService(db, repository.NewCashbackRepository(db))
	e.svc = NewService(
		db,
		e.bookings,
		e.bookables,
		e.rules,
		e.promos,
		promo.NewService(e.promos),
		giftcard.NewService(e.cards),
		e.ledger,
		loyalty.NewService(e.tiers, e.bookings),
	)
	return e
}

// tripDate is far enough out that the early-bird rule in the worked
// example matches; quoteNow anchors the 30-day lead time.
var (
	tripDate = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	quoteNow = tripDate.AddDate(0, 0, -30)
)

func (e *env) seedTour(t *testing.T) *domain.Tour {
	t.Helper()
	tour := &domain.Tour{
		Name:          "Phi Phi Island Day Trip",
		Category:      "island",
		Capacity:      10,
		DurationHours: d("6"),
		BasePrice:     d("1000.00"),
		Active:        true,
	}
	require.NoError(t, e.bookables.CreateTour(context.Background(), tour))
	return tour
}

func (e *env) seedPerPersonAddOn(t *testing.T) *domain.AddOn {
	t.Helper()
	a := &domain.AddOn{
		Name:      "Seafood lunch",
		Pricing:   domain.AddOnPerPerson,
		UnitPrice: d("200.00"),
		Active:    true,
	}
	require.NoError(t, e.bookables.CreateAddOn(context.Background(), a))
	return a
}

func (e *env) seedWorkedExampleRules(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.rules.Create(ctx, &domain.PricingRule{
		Name:       "Weekend uplift",
		Type:       domain.RuleDayOfWeek,
		Scope:      domain.RuleScope{AppliesTo: domain.ScopeAll},
		Condition:  domain.DayOfWeekCondition{Days: []time.Weekday{tripDate.Weekday()}},
		Adjustment: domain.AdjustPercent,
		Value:      d("10"),
		Stackable:  true,
		Active:     true,
	}))
	require.NoError(t, e.rules.Create(ctx, &domain.PricingRule{
		Name:       "Early bird",
		Type:       domain.RuleEarlyBird,
		Scope:      domain.RuleScope{AppliesTo: domain.ScopeAll},
		Condition:  domain.EarlyBirdCondition{MinLeadDays: 14},
		Adjustment: domain.AdjustPercent,
		Value:      d("-10"),
		Stackable:  true,
		Active:     true,
	}))
}

func (e *env) seedBaseTier(t *testing.T, cashbackPct string) {
	t.Helper()
	require.NoError(t, e.tiers.CreateTier(context.Background(), &domain.LoyaltyTier{
		Name:                "Crew",
		MinBookings:         0,
		MinLifetimeSpendTHB: decimal.Zero,
		CashbackPercent:     d(cashbackPct),
	}))
}

func (e *env) baseRequest(tour *domain.Tour, addOn *domain.AddOn) QuoteRequest {
	req := QuoteRequest{
		UserID:    1,
		Bookable:  domain.BookableRef{Type: domain.BookableTour, ID: tour.ID},
		StartTime: tripDate,
		EndTime:   tripDate.Add(6 * time.Hour),
		Adults:    2,
		Now:       quoteNow,
	}
	if addOn != nil {
		req.AddOns = []AddOnRequest{{ID: addOn.ID, Quantity: 1}}
	}
	return req
}

func TestQuoteAndConfirm_WorkedExample(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tour := e.seedTour(t)
	addOn := e.seedPerPersonAddOn(t)
	e.seedWorkedExampleRules(t)
	require.NoError(t, e.promos.Create(ctx, &domain.PromoCode{
		Code:       "SAVE15",
		Discount:   domain.DiscountPercent,
		Value:      d("15"),
		ValidFrom:  quoteNow.AddDate(0, -1, 0),
		ValidUntil: tripDate.AddDate(0, 1, 0),
		Scope:      domain.RuleScope{AppliesTo: domain.ScopeAll},
		Active:     true,
	}))

	req := e.baseRequest(tour, addOn)
	req.PromoCode = "SAVE15"

	quote, err := e.svc.Quote(ctx, req)
	require.NoError(t, err)

	assert.True(t, quote.Price.Base.Equal(d("1000.00")))
	assert.True(t, quote.Price.AddOnsTotal.Equal(d("400.00")), "got %s", quote.Price.AddOnsTotal)
	// +10% and -10% both computed against 1400 cancel out exactly.
	assert.True(t, quote.Price.DynamicAdjustment.IsZero(), "got %s", quote.Price.DynamicAdjustment)
	assert.True(t, quote.Pricing.Subtotal.Equal(d("1400.00")))
	assert.True(t, quote.Price.PromoDiscount.Equal(d("210.00")))
	assert.True(t, quote.Price.FinalTotal.Equal(d("1190.00")), "got %s", quote.Price.FinalTotal)

	b, err := e.svc.Confirm(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Regexp(t, `^BW-[0-9A-F]{8}$`, b.Reference)

	// Round-trip: the persisted breakdown matches the quote exactly.
	stored, err := e.svc.Get(ctx, b.Reference)
	require.NoError(t, err)
	assert.True(t, stored.Price.FinalTotal.Equal(quote.Price.FinalTotal))
	assert.True(t, stored.Price.PromoDiscount.Equal(quote.Price.PromoDiscount))
	assert.True(t, stored.Price.DynamicAdjustment.Equal(quote.Price.DynamicAdjustment))
	require.NotNil(t, stored.PromoCodeID)

	p, err := e.promos.GetByCode(ctx, "SAVE15")
	require.NoError(t, err)
	assert.Equal(t, 1, p.UsageCount)
}

func TestConfirm_GiftCardAndCashback(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tour := e.seedTour(t)
	addOn := e.seedPerPersonAddOn(t)
	e.seedBaseTier(t, "5")

	require.NoError(t, e.cards.Create(ctx, &domain.GiftCard{
		Code:          "GIFT-XYZ",
		InitialAmount: d("300.00"),
		Balance:       d("300.00"),
		ValidFrom:     quoteNow.AddDate(0, -1, 0),
		ValidUntil:    tripDate.AddDate(0, 6, 0),
		Scope:         domain.RuleScope{AppliesTo: domain.ScopeAll},
		Status:        domain.GiftCardActive,
	}))
	_, err := e.ledger.Credit(ctx, 1, d("100.00"), domain.LedgerEarn, "", "welcome bonus")
	require.NoError(t, err)

	req := e.baseRequest(tour, addOn)
	req.GiftCardCode = "GIFT-XYZ"
	req.CashbackTHB = d("50.00")

	b, err := e.svc.Confirm(ctx, req)
	require.NoError(t, err)

	// 1400 gross, 300 gift card, 50 cashback spent.
	assert.True(t, b.Price.GiftCardAmount.Equal(d("300.00")))
	assert.True(t, b.Price.CashbackSpent.Equal(d("50.00")))
	assert.True(t, b.Price.FinalTotal.Equal(d("1050.00")), "got %s", b.Price.FinalTotal)
	assert.True(t, b.Price.CashbackEarned.Equal(d("52.50")), "got %s", b.Price.CashbackEarned)

	card, err := e.cards.GetByCode(ctx, "GIFT-XYZ")
	require.NoError(t, err)
	assert.True(t, card.Balance.IsZero())
	assert.Equal(t, domain.GiftCardUsed, card.Status)

	balance, err := e.ledger.BalanceOf(ctx, 1)
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("50.00")), "got %s", balance)
}

func TestConfirm_PromoUsageLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tour := e.seedTour(t)
	require.NoError(t, e.promos.Create(ctx, &domain.PromoCode{
		Code:       "ONCE",
		Discount:   domain.DiscountFixed,
		Value:      d("100"),
		UsageLimit: 1,
		ValidFrom:  quoteNow.AddDate(0, -1, 0),
		ValidUntil: tripDate.AddDate(0, 1, 0),
		Scope:      domain.RuleScope{AppliesTo: domain.ScopeAll},
		Active:     true,
	}))

	req := e.baseRequest(tour, nil)
	req.PromoCode = "ONCE"

	_, err := e.svc.Confirm(ctx, req)
	require.NoError(t, err)

	req.UserID = 2
	_, err = e.svc.Confirm(ctx, req)
	assert.ErrorIs(t, err, promo.ErrUsageLimit)

	p, err := e.promos.GetByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, p.UsageCount)
}

func TestConfirm_PromoUsageLimitUnderConcurrency(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tour := e.seedTour(t)
	require.NoError(t, e.promos.Create(ctx, &domain.PromoCode{
		Code:       "LAST",
		Discount:   domain.DiscountFixed,
		Value:      d("100"),
		UsageLimit: 1,
		ValidFrom:  quoteNow.AddDate(0, -1, 0),
		ValidUntil: tripDate.AddDate(0, 1, 0),
		Scope:      domain.RuleScope{AppliesTo: domain.ScopeAll},
		Active:     true,
	}))

	// sqlite permits one writer; a single-connection pool queues the
	// racing transactions instead of surfacing busy errors.
	sqlDB, err := e.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const racers = 8
	results := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			req := e.baseRequest(tour, nil)
			req.UserID = userID
			req.PromoCode = "LAST"
			_, err := e.svc.Confirm(ctx, req)
			results <- err
		}(int64(i + 1))
	}
	wg.Wait()
	close(results)

	var wins, limited int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, promo.ErrUsageLimit):
			limited++
		default:
			t.Fatalf("unexpected confirm error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one confirmation may take the last slot")
	assert.Equal(t, racers-1, limited)

	p, err := e.promos.GetByCode(ctx, "LAST")
	require.NoError(t, err)
	assert.Equal(t, 1, p.UsageCount)
}

func TestConfirm_CashbackSpendCappedByBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tour := e.seedTour(t)

	_, err := e.ledger.Credit(ctx, 1, d("30.00"), domain.LedgerEarn, "", "")
	require.NoError(t, err)

	req := e.baseRequest(tour, nil)
	req.CashbackTHB = d("500.00")

	b, err := e.svc.Confirm(ctx, req)
	require.NoError(t, err)
	assert.True(t, b.Price.CashbackSpent.Equal(d("30.00")))
	assert.True(t, b.Price.FinalTotal.Equal(d("970.00")))

	balance, err := e.ledger.BalanceOf(ctx, 1)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestQuote_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tour := e.seedTour(t)

	tests := []struct {
		name    string
		mutate  func(*QuoteRequest)
		wantErr error
	}{
		{"unknown bookable", func(r *QuoteRequest) { r.Bookable.ID = 999 }, ErrBookableNotFound},
		{"party over capacity", func(r *QuoteRequest) { r.Adults = 11 }, ErrCapacityExceeded},
		{"no adults", func(r *QuoteRequest) { r.Adults = 0 }, ErrInvalidParty},
		{"inverted window", func(r *QuoteRequest) { r.EndTime = r.StartTime }, ErrInvalidWindow},
		{"unknown add-on", func(r *QuoteRequest) {
			r.AddOns = []AddOnRequest{{ID: 42, Quantity: 1}}
		}, ErrAddOnNotFound},
		{"zero quantity", func(r *QuoteRequest) {
			r.AddOns = []AddOnRequest{{ID: 1, Quantity: 0}}
		}, ErrInvalidQuantity},
		{"unknown promo", func(r *QuoteRequest) { r.PromoCode = "NOPE" }, promo.ErrNotFound},
		{"unknown gift card", func(r *QuoteRequest) { r.GiftCardCode = "NOPE" }, giftcard.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := e.baseRequest(tour, nil)
			tt.mutate(&req)
			_, err := e.svc.Quote(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
