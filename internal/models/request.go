package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceRequest описывает заявку клиента на разовую работу.
type ServiceRequest struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ClientID       uuid.UUID  `db:"client_id" json:"client_id"`
	NeighborhoodID *uuid.UUID `db:"neighborhood_id" json:"neighborhood_id,omitempty"`
	Title          string     `db:"title" json:"title"`
	Description    string     `db:"description" json:"description"`
	BudgetMin      *float64   `db:"budget_min" json:"budget_min,omitempty"`
	BudgetMax      *float64   `db:"budget_max" json:"budget_max,omitempty"`
	Status         string     `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	QuotesCount    *int       `db:"quotes_count" json:"quotes_count,omitempty"`
}
