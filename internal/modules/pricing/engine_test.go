package pricing

import (
	"testing"
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Saturday.
var saturday = time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)

func weekendRule(id int64, value string) domain.PricingRule {
	return domain.PricingRule{
		ID:        id,
		Name:      "weekend surcharge",
		Type:      domain.RuleDayOfWeek,
		Scope:     domain.RuleScope{AppliesTo: domain.ScopeAll},
		Condition: domain.DayOfWeekCondition{Days: []time.Weekday{time.Saturday, time.Sunday}},
		Adjustment: domain.AdjustPercent,
		Value:     d(value),
		Stackable: true,
		Active:    true,
	}
}

func earlyBirdRule(id int64, value string, minLead int) domain.PricingRule {
	return domain.PricingRule{
		ID:        id,
		Name:      "early bird",
		Type:      domain.RuleEarlyBird,
		Scope:     domain.RuleScope{AppliesTo: domain.ScopeAll},
		Condition: domain.EarlyBirdCondition{MinLeadDays: minLead},
		Adjustment: domain.AdjustPercent,
		Value:     d(value),
		Stackable: true,
		Active:    true,
	}
}

func TestCompute_AddOnsTotalPerPricingType(t *testing.T) {
	in := Input{
		BasePrice:     d("1000.00"),
		Date:          saturday,
		Adults:        2,
		Children:      1,
		DurationHours: d("4"),
		BookableType:  domain.BookableVessel,
		AddOns: []AddOnSelection{
			{AddOn: domain.AddOn{Pricing: domain.AddOnFixed, UnitPrice: d("300")}},
			{AddOn: domain.AddOn{Pricing: domain.AddOnPerPerson, UnitPrice: d("200")}},
			{AddOn: domain.AddOn{Pricing: domain.AddOnPerHour, UnitPrice: d("50")}},
			{AddOn: domain.AddOn{Pricing: domain.AddOnPerItem, UnitPrice: d("120")}, Quantity: 3},
		},
	}

	out := Compute(in, nil)

	// 300 + 200*3 + 50*4 + 120*3
	assert.True(t, out.AddOnsTotal.Equal(d("1460.00")), "got %s", out.AddOnsTotal)
	assert.True(t, out.Subtotal.Equal(d("2460.00")), "got %s", out.Subtotal)
}

func TestCompute_StackableRulesAgainstOriginalGross(t *testing.T) {
	// Tour at 1000 with one per-person add-on (200 x party of 2):
	// gross 1400, +10% weekend and -10% early bird cancel out exactly
	// because both are computed against the original gross.
	in := Input{
		BasePrice:    d("1000.00"),
		Date:         saturday,
		LeadTimeDays: 45,
		Adults:       2,
		BookableType: domain.BookableTour,
		AddOns: []AddOnSelection{
			{AddOn: domain.AddOn{Pricing: domain.AddOnPerPerson, UnitPrice: d("200")}},
		},
	}
	rules := []domain.PricingRule{
		weekendRule(1, "10"),
		earlyBirdRule(2, "-10", 30),
	}

	out := Compute(in, rules)

	assert.True(t, out.AddOnsTotal.Equal(d("400.00")), "got %s", out.AddOnsTotal)
	assert.True(t, out.DynamicAdjustment.IsZero(), "got %s", out.DynamicAdjustment)
	assert.True(t, out.Subtotal.Equal(d("1400.00")), "got %s", out.Subtotal)
	assert.Len(t, out.Applied, 2)
}

func TestCompute_NonStackableHighestPriorityWins(t *testing.T) {
	mk := func(id int64, prio int, value string) domain.PricingRule {
		r := weekendRule(id, value)
		r.Stackable = false
		r.Priority = prio
		return r
	}

	tests := []struct {
		name    string
		rules   []domain.PricingRule
		wantID  int64
		wantAdj string
	}{
		{
			name:    "higher priority wins",
			rules:   []domain.PricingRule{mk(1, 1, "10"), mk(2, 5, "20")},
			wantID:  2,
			wantAdj: "200.00",
		},
		{
			name:    "priority tie broken by newest rule id",
			rules:   []domain.PricingRule{mk(7, 3, "10"), mk(9, 3, "25"), mk(8, 3, "15")},
			wantID:  9,
			wantAdj: "250.00",
		},
	}

	in := Input{BasePrice: d("1000.00"), Date: saturday, Adults: 1, BookableType: domain.BookableVessel}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Compute(in, tt.rules)
			assert.Len(t, out.Applied, 1)
			assert.Equal(t, tt.wantID, out.Applied[0].RuleID)
			assert.True(t, out.DynamicAdjustment.Equal(d(tt.wantAdj)), "got %s", out.DynamicAdjustment)
		})
	}
}

func TestCompute_NonStackableAndStackableCombine(t *testing.T) {
	winner := weekendRule(1, "20")
	winner.Stackable = false
	stack := earlyBirdRule(2, "-10", 30)

	in := Input{
		BasePrice:    d("1000.00"),
		Date:         saturday,
		LeadTimeDays: 60,
		Adults:       1,
		BookableType: domain.BookableVessel,
	}

	out := Compute(in, []domain.PricingRule{winner, stack})

	// +200 (winner) - 100 (stackable), both against 1000.
	assert.True(t, out.DynamicAdjustment.Equal(d("100.00")), "got %s", out.DynamicAdjustment)
	assert.True(t, out.Subtotal.Equal(d("1100.00")), "got %s", out.Subtotal)
}

func TestCompute_SubtotalFlooredAtZero(t *testing.T) {
	discount := domain.PricingRule{
		ID:         1,
		Name:       "absurd discount",
		Type:       domain.RuleLastMinute,
		Scope:      domain.RuleScope{AppliesTo: domain.ScopeAll},
		Condition:  domain.LastMinuteCondition{MaxLeadDays: 3},
		Adjustment: domain.AdjustFixed,
		Value:      d("-99999"),
		Stackable:  true,
		Active:     true,
	}

	in := Input{BasePrice: d("500.00"), Date: saturday, LeadTimeDays: 1, Adults: 1, BookableType: domain.BookableTour}
	out := Compute(in, []domain.PricingRule{discount})

	assert.True(t, out.Subtotal.IsZero(), "got %s", out.Subtotal)
}

func TestCompute_ScopeAndConditionFiltering(t *testing.T) {
	vesselOnly := weekendRule(1, "10")
	vesselOnly.Scope = domain.RuleScope{AppliesTo: domain.ScopeVessels}

	catamarans := weekendRule(2, "10")
	catamarans.Scope = domain.RuleScope{AppliesTo: domain.ScopeVessels, Categories: []string{"catamaran"}}

	group := domain.PricingRule{
		ID:         3,
		Name:       "group discount",
		Type:       domain.RuleGroupSize,
		Scope:      domain.RuleScope{AppliesTo: domain.ScopeAll},
		Condition:  domain.GroupSizeCondition{Min: 10},
		Adjustment: domain.AdjustPercent,
		Value:      d("-5"),
		Stackable:  true,
		Active:     true,
	}

	inactive := weekendRule(4, "50")
	inactive.Active = false

	in := Input{
		BasePrice:    d("1000.00"),
		Date:         saturday,
		Adults:       2,
		BookableType: domain.BookableTour,
		Category:     "island-hopping",
	}

	out := Compute(in, []domain.PricingRule{vesselOnly, catamarans, group, inactive})

	// Vessel-scoped rules skip a tour; the group rule needs 10 guests;
	// inactive rules never apply.
	assert.Empty(t, out.Applied)
	assert.True(t, out.DynamicAdjustment.IsZero())
}

func TestCompute_PercentRoundsHalfUp(t *testing.T) {
	r := weekendRule(1, "0.1") // 0.1% of 333 = 0.333 -> 0.33
	in := Input{BasePrice: d("333.00"), Date: saturday, Adults: 1, BookableType: domain.BookableVessel}

	out := Compute(in, []domain.PricingRule{r})
	assert.True(t, out.DynamicAdjustment.Equal(d("0.33")), "got %s", out.DynamicAdjustment)

	r2 := weekendRule(2, "0.15") // 0.15% of 1010 = 1.515 -> 1.52
	in2 := Input{BasePrice: d("1010.00"), Date: saturday, Adults: 1, BookableType: domain.BookableVessel}
	out2 := Compute(in2, []domain.PricingRule{r2})
	assert.True(t, out2.DynamicAdjustment.Equal(d("1.52")), "got %s", out2.DynamicAdjustment)
}

func TestRuleConditions(t *testing.T) {
	ctx := domain.RuleContext{
		Date:          time.Date(2026, 12, 25, 9, 0, 0, 0, time.UTC), // Friday
		LeadTimeDays:  14,
		PartySize:     6,
		DurationHours: d("8"),
	}

	tests := []struct {
		name string
		cond domain.RuleCondition
		want bool
	}{
		{"season in range", domain.SeasonCondition{From: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2027, 2, 28, 0, 0, 0, 0, time.UTC)}, true},
		{"season out of range", domain.SeasonCondition{From: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)}, false},
		{"weekday match", domain.DayOfWeekCondition{Days: []time.Weekday{time.Friday}}, true},
		{"weekday miss", domain.DayOfWeekCondition{Days: []time.Weekday{time.Monday}}, false},
		{"early bird met", domain.EarlyBirdCondition{MinLeadDays: 14}, true},
		{"early bird unmet", domain.EarlyBirdCondition{MinLeadDays: 15}, false},
		{"last minute met", domain.LastMinuteCondition{MaxLeadDays: 14}, true},
		{"last minute unmet", domain.LastMinuteCondition{MaxLeadDays: 13}, false},
		{"group size in range", domain.GroupSizeCondition{Min: 4, Max: 8}, true},
		{"group size unbounded max", domain.GroupSizeCondition{Min: 2}, true},
		{"group size below min", domain.GroupSizeCondition{Min: 7}, false},
		{"duration in range", domain.DurationCondition{MinHours: d("4"), MaxHours: d("8")}, true},
		{"duration above max", domain.DurationCondition{MinHours: d("1"), MaxHours: d("7.5")}, false},
		{"special date match", domain.SpecialDateCondition{Dates: []time.Time{time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)}}, true},
		{"special date miss", domain.SpecialDateCondition{Dates: []time.Time{time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Matches(ctx))
		})
	}
}
