package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RuleType string

const (
	RuleSeason      RuleType = "season"
	RuleDayOfWeek   RuleType = "day_of_week"
	RuleEarlyBird   RuleType = "early_bird"
	RuleLastMinute  RuleType = "last_minute"
	RuleGroupSize   RuleType = "group_size"
	RuleDuration    RuleType = "duration"
	RuleSpecialDate RuleType = "special_date"
)

type AdjustmentKind string

const (
	AdjustPercent AdjustmentKind = "percent"
	AdjustFixed   AdjustmentKind = "fixed"
)

type RuleAppliesTo string

const (
	ScopeAll     RuleAppliesTo = "all"
	ScopeVessels RuleAppliesTo = "vessels"
	ScopeTours   RuleAppliesTo = "tours"
)

// RuleScope narrows which bookables a rule or code applies to. Empty
// lists mean no narrowing within the AppliesTo class.
type RuleScope struct {
	AppliesTo   RuleAppliesTo `json:"applies_to"`
	Categories  []string      `json:"categories,omitempty"`
	BookableIDs []int64       `json:"bookable_ids,omitempty"`
}

func (s RuleScope) Matches(t BookableType, category string, id int64) bool {
	switch s.AppliesTo {
	case ScopeVessels:
		if t != BookableVessel {
			return false
		}
	case ScopeTours:
		if t != BookableTour {
			return false
		}
	}
	if len(s.Categories) > 0 {
		found := false
		for _, c := range s.Categories {
			if c == category {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(s.BookableIDs) > 0 {
		found := false
		for _, bid := range s.BookableIDs {
			if bid == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// RuleContext carries the facts a condition is evaluated against.
type RuleContext struct {
	Date          time.Time
	LeadTimeDays  int
	PartySize     int
	DurationHours decimal.Decimal
}

// RuleCondition is the closed set of per-type matching conditions.
// One concrete type exists per RuleType, so "does this rule apply"
// is an exhaustive match rather than a map lookup.
type RuleCondition interface {
	Type() RuleType
	Matches(ctx RuleContext) bool
}

// SeasonCondition matches bookings whose date falls inside [From, To].
type SeasonCondition struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (SeasonCondition) Type() RuleType { return RuleSeason }

func (c SeasonCondition) Matches(ctx RuleContext) bool {
	d := ctx.Date
	return !d.Before(c.From) && !d.After(c.To)
}

// DayOfWeekCondition matches bookings on any of the listed weekdays.
type DayOfWeekCondition struct {
	Days []time.Weekday `json:"days"`
}

func (DayOfWeekCondition) Type() RuleType { return RuleDayOfWeek }

func (c DayOfWeekCondition) Matches(ctx RuleContext) bool {
	wd := ctx.Date.Weekday()
	for _, d := range c.Days {
		if d == wd {
			return true
		}
	}
	return false
}

// EarlyBirdCondition matches bookings made at least MinLeadDays ahead.
type EarlyBirdCondition struct {
	MinLeadDays int `json:"min_lead_days"`
}

func (EarlyBirdCondition) Type() RuleType { return RuleEarlyBird }

func (c EarlyBirdCondition) Matches(ctx RuleContext) bool {
	return ctx.LeadTimeDays >= c.MinLeadDays
}

// LastMinuteCondition matches bookings made at most MaxLeadDays ahead.
type LastMinuteCondition struct {
	MaxLeadDays int `json:"max_lead_days"`
}

func (LastMinuteCondition) Type() RuleType { return RuleLastMinute }

func (c LastMinuteCondition) Matches(ctx RuleContext) bool {
	return ctx.LeadTimeDays <= c.MaxLeadDays
}

// GroupSizeCondition matches party sizes within [Min, Max]. Max zero
// means unbounded above.
type GroupSizeCondition struct {
	Min int `json:"min"`
	Max int `json:"max,omitempty"`
}

func (GroupSizeCondition) Type() RuleType { return RuleGroupSize }

func (c GroupSizeCondition) Matches(ctx RuleContext) bool {
	if ctx.PartySize < c.Min {
		return false
	}
	return c.Max == 0 || ctx.PartySize <= c.Max
}

// DurationCondition matches durations within [MinHours, MaxHours].
// MaxHours zero means unbounded above.
type DurationCondition struct {
	MinHours decimal.Decimal `json:"min_hours"`
	MaxHours decimal.Decimal `json:"max_hours,omitempty"`
}

func (DurationCondition) Type() RuleType { return RuleDuration }

func (c DurationCondition) Matches(ctx RuleContext) bool {
	if ctx.DurationHours.LessThan(c.MinHours) {
		return false
	}
	return c.MaxHours.IsZero() || ctx.DurationHours.LessThanOrEqual(c.MaxHours)
}

// SpecialDateCondition matches an explicit list of calendar days.
type SpecialDateCondition struct {
	Dates []time.Time `json:"dates"`
}

func (SpecialDateCondition) Type() RuleType { return RuleSpecialDate }

func (c SpecialDateCondition) Matches(ctx RuleContext) bool {
	y, m, d := ctx.Date.Date()
	for _, sd := range c.Dates {
		sy, sm, sdd := sd.Date()
		if y == sy && m == sm && d == sdd {
			return true
		}
	}
	return false
}

// PricingRule is a named dynamic-pricing adjustment. Rules are created
// and edited by admins, read-only to the pricing engine, and
// deactivated rather than deleted.
type PricingRule struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Type       RuleType        `json:"type"`
	Scope      RuleScope       `json:"scope"`
	Condition  RuleCondition   `json:"condition"`
	Adjustment AdjustmentKind  `json:"adjustment"`
	Value      decimal.Decimal `json:"value"`
	Priority   int             `json:"priority"`
	Stackable  bool            `json:"stackable"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
