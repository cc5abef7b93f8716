package repository

import (
	"context"
	"time"

	"bluewave/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookableRepository struct {
	db *gorm.DB
}

func NewBookableRepository(db *gorm.DB) *BookableRepository {
	return &BookableRepository{db: db}
}

type vesselModel struct {
	ID        int64           `gorm:"column:id;primaryKey"`
	Name      string          `gorm:"column:name"`
	Category  string          `gorm:"column:category"`
	Capacity  int             `gorm:"column:capacity"`
	BasePrice decimal.Decimal `gorm:"column:base_price;type:decimal(12,2)"`
	Active    bool            `gorm:"column:active"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (vesselModel) TableName() string { return "vessels" }

type tourModel struct {
	ID            int64           `gorm:"column:id;primaryKey"`
	Name          string          `gorm:"column:name"`
	Category      string          `gorm:"column:category"`
	Capacity      int             `gorm:"column:capacity"`
	DurationHours decimal.Decimal `gorm:"column:duration_hours;type:decimal(6,2)"`
	BasePrice     decimal.Decimal `gorm:"column:base_price;type:decimal(12,2)"`
	Active        bool            `gorm:"column:active"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (tourModel) TableName() string { return "tours" }

type addOnModel struct {
	ID        int64           `gorm:"column:id;primaryKey"`
	Name      string          `gorm:"column:name"`
	Pricing   string          `gorm:"column:pricing"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2)"`
	Active    bool            `gorm:"column:active"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (addOnModel) TableName() string { return "add_ons" }

func toDomainVessel(m vesselModel) *domain.Vessel {
	return &domain.Vessel{
		ID:        m.ID,
		Name:      m.Name,
		Category:  m.Category,
		Capacity:  m.Capacity,
		BasePrice: m.BasePrice,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toDomainTour(m tourModel) *domain.Tour {
	return &domain.Tour{
		ID:            m.ID,
		Name:          m.Name,
		Category:      m.Category,
		Capacity:      m.Capacity,
		DurationHours: m.DurationHours,
		BasePrice:     m.BasePrice,
		Active:        m.Active,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toDomainAddOn(m addOnModel) domain.AddOn {
	return domain.AddOn{
		ID:        m.ID,
		Name:      m.Name,
		Pricing:   domain.AddOnPricing(m.Pricing),
		UnitPrice: m.UnitPrice,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}
}

func (r *BookableRepository) GetVessel(ctx context.Context, id int64) (*domain.Vessel, error) {
	var m vesselModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return toDomainVessel(m), nil
}

func (r *BookableRepository) GetTour(ctx context.Context, id int64) (*domain.Tour, error) {
	var m tourModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return toDomainTour(m), nil
}

func (r *BookableRepository) ListVessels(ctx context.Context) ([]domain.Vessel, error) {
	var ms []vesselModel
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("name").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Vessel, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainVessel(m))
	}
	return out, nil
}

func (r *BookableRepository) ListTours(ctx context.Context) ([]domain.Tour, error) {
	var ms []tourModel
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("name").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Tour, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainTour(m))
	}
	return out, nil
}

func (r *BookableRepository) ListAddOns(ctx context.Context, ids []int64) ([]domain.AddOn, error) {
	var ms []addOnModel
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	if err := q.Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.AddOn, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomainAddOn(m))
	}
	return out, nil
}

func (r *BookableRepository) CreateVessel(ctx context.Context, v *domain.Vessel) error {
	m := vesselModel{
		Name:      v.Name,
		Category:  v.Category,
		Capacity:  v.Capacity,
		BasePrice: v.BasePrice,
		Active:    v.Active,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*v = *toDomainVessel(m)
	return nil
}

func (r *BookableRepository) CreateTour(ctx context.Context, t *domain.Tour) error {
	m := tourModel{
		Name:          t.Name,
		Category:      t.Category,
		Capacity:      t.Capacity,
		DurationHours: t.DurationHours,
		BasePrice:     t.BasePrice,
		Active:        t.Active,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*t = *toDomainTour(m)
	return nil
}

func (r *BookableRepository) CreateAddOn(ctx context.Context, a *domain.AddOn) error {
	m := addOnModel{
		Name:      a.Name,
		Pricing:   string(a.Pricing),
		UnitPrice: a.UnitPrice,
		Active:    a.Active,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*a = toDomainAddOn(m)
	return nil
}
