package pricing

import (
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Input carries everything a price computation needs. The engine does
// no I/O: callers resolve the bookable, its add-ons and the active
// rule set first.
type Input struct {
	BasePrice     decimal.Decimal
	AddOns        []AddOnSelection
	Date          time.Time
	LeadTimeDays  int
	Adults        int
	Children      int
	DurationHours decimal.Decimal

	BookableType domain.BookableType
	Category     string
	BookableID   int64
}

func (in Input) partySize() int { return in.Adults + in.Children }

type AddOnSelection struct {
	AddOn    domain.AddOn
	Quantity int
}

// AppliedRule records one rule's contribution to the adjustment.
type AppliedRule struct {
	RuleID    int64           `json:"rule_id"`
	Name      string          `json:"name"`
	Stackable bool            `json:"stackable"`
	Amount    decimal.Decimal `json:"amount"`
}

type Breakdown struct {
	Base              decimal.Decimal `json:"base"`
	AddOnsTotal       decimal.Decimal `json:"addons_total"`
	Applied           []AppliedRule   `json:"applied_rules,omitempty"`
	DynamicAdjustment decimal.Decimal `json:"dynamic_adjustment"`
	Subtotal          decimal.Decimal `json:"subtotal"`
}

// Compute produces the itemized pre-discount breakdown. Among
// non-stackable matches only the highest-priority rule applies (ties
// broken by highest rule id); every stackable match is computed
// against the original base+addons and summed, so stacked percentages
// never compound. The subtotal is floored at zero.
func Compute(in Input, rules []domain.PricingRule) Breakdown {
	base := in.BasePrice.Round(2)
	addons := addOnsTotal(in)
	gross := base.Add(addons)

	ctx := domain.RuleContext{
		Date:          in.Date,
		LeadTimeDays:  in.LeadTimeDays,
		PartySize:     in.partySize(),
		DurationHours: in.DurationHours,
	}

	var winner *domain.PricingRule
	var stackable []domain.PricingRule
	for i := range rules {
		r := rules[i]
		if !r.Active || r.Condition == nil {
			continue
		}
		if !r.Scope.Matches(in.BookableType, in.Category, in.BookableID) {
			continue
		}
		if !r.Condition.Matches(ctx) {
			continue
		}
		if r.Stackable {
			stackable = append(stackable, r)
			continue
		}
		if winner == nil || r.Priority > winner.Priority ||
			(r.Priority == winner.Priority && r.ID > winner.ID) {
			winner = &rules[i]
		}
	}

	var applied []AppliedRule
	adjustment := decimal.Zero
	if winner != nil {
		amt := ruleAmount(*winner, gross)
		adjustment = adjustment.Add(amt)
		applied = append(applied, AppliedRule{
			RuleID: winner.ID,
			Name:   winner.Name,
			Amount: amt,
		})
	}
	for _, r := range stackable {
		amt := ruleAmount(r, gross)
		adjustment = adjustment.Add(amt)
		applied = append(applied, AppliedRule{
			RuleID:    r.ID,
			Name:      r.Name,
			Stackable: true,
			Amount:    amt,
		})
	}

	subtotal := gross.Add(adjustment)
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}

	return Breakdown{
		Base:              base,
		AddOnsTotal:       addons,
		Applied:           applied,
		DynamicAdjustment: adjustment,
		Subtotal:          subtotal,
	}
}

func addOnsTotal(in Input) decimal.Decimal {
	total := decimal.Zero
	party := decimal.NewFromInt(int64(in.partySize()))
	for _, sel := range in.AddOns {
		unit := sel.AddOn.UnitPrice
		var amt decimal.Decimal
		switch sel.AddOn.Pricing {
		case domain.AddOnFixed:
			amt = unit
		case domain.AddOnPerPerson:
			amt = unit.Mul(party)
		case domain.AddOnPerHour:
			amt = unit.Mul(in.DurationHours)
		case domain.AddOnPerItem:
			amt = unit.Mul(decimal.NewFromInt(int64(sel.Quantity)))
		default:
			amt = unit
		}
		total = total.Add(amt.Round(2))
	}
	return total
}

// ruleAmount computes a rule's signed contribution against gross.
// Percentages round half-up to the nearest 0.01.
func ruleAmount(r domain.PricingRule, gross decimal.Decimal) decimal.Decimal {
	if r.Adjustment == domain.AdjustPercent {
		return gross.Mul(r.Value).Div(hundred).Round(2)
	}
	return r.Value.Round(2)
}

// PercentOf is the shared percentage helper for promo, loyalty and
// cashback amounts: value% of amount, rounded half-up to 0.01.
func PercentOf(amount, value decimal.Decimal) decimal.Decimal {
	return amount.Mul(value).Div(hundred).Round(2)
}
