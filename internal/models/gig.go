package models

import (
	"time"

	"github.com/google/uuid"
)

// Gig описывает готовую услугу мастера с фиксированными пакетами.
type Gig struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	FixerID     uuid.UUID    `db:"fixer_id" json:"fixer_id"`
	Title       string       `db:"title" json:"title"`
	Description string       `db:"description" json:"description"`
	IsActive    bool         `db:"is_active" json:"is_active"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
	Packages    []GigPackage `json:"packages,omitempty"`
}

// GigPackage описывает тариф услуги: цена, срок, лимит правок.
type GigPackage struct {
	ID               uuid.UUID `db:"id" json:"id"`
	GigID            uuid.UUID `db:"gig_id" json:"gig_id"`
	Tier             string    `db:"tier" json:"tier"`
	Title            string    `db:"title" json:"title"`
	Price            float64   `db:"price" json:"price"`
	DeliveryDays     int       `db:"delivery_days" json:"delivery_days"`
	RevisionsAllowed int       `db:"revisions_allowed" json:"revisions_allowed"`
}
