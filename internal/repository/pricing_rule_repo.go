package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PricingRuleRepository struct {
	db *gorm.DB
}

func NewPricingRuleRepository(db *gorm.DB) *PricingRuleRepository {
	return &PricingRuleRepository{db: db}
}

type pricingRuleModel struct {
	ID         int64           `gorm:"column:id;primaryKey"`
	Name       string          `gorm:"column:name"`
	Type       string          `gorm:"column:type;index"`
	Scope      datatypes.JSON  `gorm:"column:scope"`
	Condition  datatypes.JSON  `gorm:"column:condition"`
	Adjustment string          `gorm:"column:adjustment"`
	Value      decimal.Decimal `gorm:"column:value;type:decimal(12,2)"`
	Priority   int             `gorm:"column:priority"`
	Stackable  bool            `gorm:"column:stackable"`
	Active     bool            `gorm:"column:active;index"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at"`
}

func (pricingRuleModel) TableName() string { return "pricing_rules" }

// decodeCondition deserializes the per-type condition payload. The
// switch is exhaustive over domain.RuleType; an unknown type is a data
// corruption error, not a silent no-match.
func decodeCondition(t domain.RuleType, raw []byte) (domain.RuleCondition, error) {
	switch t {
	case domain.RuleSeason:
		var c domain.SeasonCondition
		return c, json.Unmarshal(raw, &c)
	case domain.RuleDayOfWeek:
		var c domain.DayOfWeekCondition
		return c, json.Unmarshal(raw, &c)
	case domain.RuleEarlyBird:
		var c domain.EarlyBirdCondition
		return c, json.Unmarshal(raw, &c)
	case domain.RuleLastMinute:
		var c domain.LastMinuteCondition
		return c, json.Unmarshal(raw, &c)
	case domain.RuleGroupSize:
		var c domain.GroupSizeCondition
		return c, json.Unmarshal(raw, &c)
	case domain.RuleDuration:
		var c domain.DurationCondition
		return c, json.Unmarshal(raw, &c)
	case domain.RuleSpecialDate:
		var c domain.SpecialDateCondition
		return c, json.Unmarshal(raw, &c)
	default:
		return nil, fmt.Errorf("unknown rule type %q", t)
	}
}

func toDomainRule(m pricingRuleModel) (*domain.PricingRule, error) {
	var scope domain.RuleScope
	if len(m.Scope) > 0 {
		if err := json.Unmarshal(m.Scope, &scope); err != nil {
			return nil, fmt.Errorf("rule %d scope: %w", m.ID, err)
		}
	}
	cond, err := decodeCondition(domain.RuleType(m.Type), m.Condition)
	if err != nil {
		return nil, fmt.Errorf("rule %d condition: %w", m.ID, err)
	}

	return &domain.PricingRule{
		ID:         m.ID,
		Name:       m.Name,
		Type:       domain.RuleType(m.Type),
		Scope:      scope,
		Condition:  cond,
		Adjustment: domain.AdjustmentKind(m.Adjustment),
		Value:      m.Value,
		Priority:   m.Priority,
		Stackable:  m.Stackable,
		Active:     m.Active,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

func toRuleModel(r *domain.PricingRule) (pricingRuleModel, error) {
	scope, err := json.Marshal(r.Scope)
	if err != nil {
		return pricingRuleModel{}, err
	}
	if r.Condition == nil {
		return pricingRuleModel{}, fmt.Errorf("rule %q has no condition", r.Name)
	}
	if r.Condition.Type() != r.Type {
		return pricingRuleModel{}, fmt.Errorf("rule %q condition type %q does not match rule type %q",
			r.Name, r.Condition.Type(), r.Type)
	}
	cond, err := json.Marshal(r.Condition)
	if err != nil {
		return pricingRuleModel{}, err
	}

	return pricingRuleModel{
		ID:         r.ID,
		Name:       r.Name,
		Type:       string(r.Type),
		Scope:      scope,
		Condition:  cond,
		Adjustment: string(r.Adjustment),
		Value:      r.Value,
		Priority:   r.Priority,
		Stackable:  r.Stackable,
		Active:     r.Active,
	}, nil
}

func (r *PricingRuleRepository) ListActive(ctx context.Context) ([]domain.PricingRule, error) {
	var ms []pricingRuleModel
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PricingRule, 0, len(ms))
	for _, m := range ms {
		rule, err := toDomainRule(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *rule)
	}
	return out, nil
}

func (r *PricingRuleRepository) List(ctx context.Context) ([]domain.PricingRule, error) {
	var ms []pricingRuleModel
	if err := r.db.WithContext(ctx).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PricingRule, 0, len(ms))
	for _, m := range ms {
		rule, err := toDomainRule(m)
		if err != nil {
			return nil, err
		}
		out = append(out, *rule)
	}
	return out, nil
}

func (r *PricingRuleRepository) GetByID(ctx context.Context, id int64) (*domain.PricingRule, error) {
	var m pricingRuleModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return toDomainRule(m)
}

func (r *PricingRuleRepository) Create(ctx context.Context, rule *domain.PricingRule) error {
	m, err := toRuleModel(rule)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	created, err := toDomainRule(m)
	if err != nil {
		return err
	}
	*rule = *created
	return nil
}

func (r *PricingRuleRepository) Update(ctx context.Context, rule *domain.PricingRule) error {
	m, err := toRuleModel(rule)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&pricingRuleModel{}).
		Where("id = ?", rule.ID).
		Updates(map[string]interface{}{
			"name":       m.Name,
			"type":       m.Type,
			"scope":      m.Scope,
			"condition":  m.Condition,
			"adjustment": m.Adjustment,
			"value":      m.Value,
			"priority":   m.Priority,
			"stackable":  m.Stackable,
		}).Error
}

// SetActive deactivates or reactivates a rule. Rules are never deleted.
func (r *PricingRuleRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&pricingRuleModel{}).
		Where("id = ?", id).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
