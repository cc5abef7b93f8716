package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bluewave/internal/domain"
	"bluewave/internal/modules/ledger"
	"bluewave/internal/repository"

	"github.com/google/uuid"
)

var ErrUnknownRuleType = errors.New("unknown pricing rule type")

// Service is the back-office surface: pricing rules, promo codes, gift
// cards, loyalty tiers, and manual ledger corrections. Booking status
// changes go through the state machine like everyone else's.
type Service struct {
	rules  *repository.PricingRuleRepository
	promos *repository.PromoRepository
	cards  *repository.GiftCardRepository
	tiers  *repository.LoyaltyRepository
	books  *repository.BookingRepository
	ledger *ledger.Service
}

func NewService(
	rules *repository.PricingRuleRepository,
	promos *repository.PromoRepository,
	cards *repository.GiftCardRepository,
	tiers *repository.LoyaltyRepository,
	books *repository.BookingRepository,
	ledgerSvc *ledger.Service,
) *Service {
	return &Service{
		rules:  rules,
		promos: promos,
		cards:  cards,
		tiers:  tiers,
		books:  books,
		ledger: ledgerSvc,
	}
}

// buildCondition maps the request onto the typed variant for the rule
// type. The switch is exhaustive over the closed set of types.
func buildCondition(t domain.RuleType, req RuleConditionRequest) (domain.RuleCondition, error) {
	switch t {
	case domain.RuleSeason:
		if req.From == nil || req.To == nil {
			return nil, fmt.Errorf("season rule requires from and to")
		}
		return domain.SeasonCondition{From: *req.From, To: *req.To}, nil
	case domain.RuleDayOfWeek:
		if len(req.Days) == 0 {
			return nil, fmt.Errorf("day-of-week rule requires days")
		}
		return domain.DayOfWeekCondition{Days: req.Days}, nil
	case domain.RuleEarlyBird:
		return domain.EarlyBirdCondition{MinLeadDays: req.MinLeadDays}, nil
	case domain.RuleLastMinute:
		return domain.LastMinuteCondition{MaxLeadDays: req.MaxLeadDays}, nil
	case domain.RuleGroupSize:
		return domain.GroupSizeCondition{Min: req.MinParty, Max: req.MaxParty}, nil
	case domain.RuleDuration:
		return domain.DurationCondition{MinHours: req.MinHours, MaxHours: req.MaxHours}, nil
	case domain.RuleSpecialDate:
		if len(req.Dates) == 0 {
			return nil, fmt.Errorf("special-date rule requires dates")
		}
		return domain.SpecialDateCondition{Dates: req.Dates}, nil
	default:
		return nil, ErrUnknownRuleType
	}
}

func (s *Service) CreateRule(ctx context.Context, req CreateRuleRequest) (*domain.PricingRule, error) {
	cond, err := buildCondition(req.Type, req.Condition)
	if err != nil {
		return nil, err
	}
	scope := req.Scope
	if scope.AppliesTo == "" {
		scope.AppliesTo = domain.ScopeAll
	}
	rule := &domain.PricingRule{
		Name:       req.Name,
		Type:       req.Type,
		Scope:      scope,
		Condition:  cond,
		Adjustment: req.Adjustment,
		Value:      req.Value,
		Priority:   req.Priority,
		Stackable:  req.Stackable,
		Active:     true,
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *Service) ListRules(ctx context.Context) ([]domain.PricingRule, error) {
	return s.rules.List(ctx)
}

// SetRuleActive deactivates or reactivates a rule; rules are never
// deleted.
func (s *Service) SetRuleActive(ctx context.Context, id int64, active bool) error {
	return s.rules.SetActive(ctx, id, active)
}

func (s *Service) CreatePromo(ctx context.Context, req CreatePromoRequest) (*domain.PromoCode, error) {
	scope := req.Scope
	if scope.AppliesTo == "" {
		scope.AppliesTo = domain.ScopeAll
	}
	p := &domain.PromoCode{
		Code:           repository.NormalizeCode(req.Code),
		Discount:       req.Discount,
		Value:          req.Value,
		MinOrderTHB:    req.MinOrderTHB,
		MaxDiscountTHB: req.MaxDiscountTHB,
		UsageLimit:     req.UsageLimit,
		MaxUsesPerUser: req.MaxUsesPerUser,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
		Scope:          scope,
		Active:         true,
	}
	if err := s.promos.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListPromos(ctx context.Context, limit, offset int) ([]domain.PromoCode, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.promos.List(ctx, limit, offset)
}

func (s *Service) SetPromoActive(ctx context.Context, id int64, active bool) error {
	return s.promos.SetActive(ctx, id, active)
}

// CreateGiftCard issues a new card with a generated code, active
// immediately.
func (s *Service) CreateGiftCard(ctx context.Context, req CreateGiftCardRequest) (*domain.GiftCard, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("gift card amount must be positive")
	}
	scope := req.Scope
	if scope.AppliesTo == "" {
		scope.AppliesTo = domain.ScopeAll
	}
	g := &domain.GiftCard{
		Code:          newGiftCardCode(),
		InitialAmount: req.Amount.Round(2),
		Balance:       req.Amount.Round(2),
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		Scope:         scope,
		Status:        domain.GiftCardActive,
	}
	if err := s.cards.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func newGiftCardCode() string {
	return "GC-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *Service) ListGiftCards(ctx context.Context, limit, offset int) ([]domain.GiftCard, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.cards.List(ctx, limit, offset)
}

func (s *Service) SetGiftCardStatus(ctx context.Context, id int64, status domain.GiftCardStatus) error {
	return s.cards.SetStatus(ctx, id, status)
}

func (s *Service) CreateTier(ctx context.Context, req CreateTierRequest) (*domain.LoyaltyTier, error) {
	t := &domain.LoyaltyTier{
		Name:                 req.Name,
		MinBookings:          req.MinBookings,
		MinLifetimeSpendTHB:  req.MinLifetimeSpendTHB,
		CashbackPercent:      req.CashbackPercent,
		ExtraDiscountPercent: req.ExtraDiscountPercent,
		FreeCancellationHrs:  req.FreeCancellationHrs,
	}
	if err := s.tiers.CreateTier(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// AdjustCashback applies a signed manual correction to a user's
// balance, recorded as an adjust ledger entry with the admin's reason.
func (s *Service) AdjustCashback(ctx context.Context, req AdjustCashbackRequest) (*domain.CashbackTransaction, error) {
	if req.Amount.IsPositive() {
		return s.ledger.Credit(ctx, req.UserID, req.Amount, domain.LedgerAdjust, "", req.Reason)
	}
	return s.ledger.Debit(ctx, req.UserID, req.Amount.Neg(), domain.LedgerAdjust, "", req.Reason)
}

func (s *Service) ListBookings(ctx context.Context, status domain.BookingStatus, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.books.List(ctx, status, limit, offset)
}
