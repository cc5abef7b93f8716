package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookableType string

const (
	BookableVessel BookableType = "vessel"
	BookableTour   BookableType = "tour"
)

// BookableRef identifies a vessel or tour without loading it.
type BookableRef struct {
	Type BookableType `json:"type" validate:"required,oneof=vessel tour"`
	ID   int64        `json:"id" validate:"required"`
}

type Vessel struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Capacity  int             `json:"capacity"`
	BasePrice decimal.Decimal `json:"base_price"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Tour struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Capacity      int             `json:"capacity"`
	DurationHours decimal.Decimal `json:"duration_hours"`
	BasePrice     decimal.Decimal `json:"base_price"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type AddOnPricing string

const (
	AddOnFixed     AddOnPricing = "fixed"
	AddOnPerPerson AddOnPricing = "per_person"
	AddOnPerHour   AddOnPricing = "per_hour"
	AddOnPerItem   AddOnPricing = "per_item"
)

type AddOn struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Pricing   AddOnPricing    `json:"pricing"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}
