package models

import (
	"time"

	"github.com/google/uuid"
)

// Agent описывает агента — партнёра, который приводит клиентов
// и мастеров в своих районах и получает комиссию со сделок.
type Agent struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	UserID               uuid.UUID  `db:"user_id" json:"user_id"`
	Status               string     `db:"status" json:"status"`
	CommissionPercentage float64    `db:"commission_percentage" json:"commission_percentage"`
	MaxFixers            int        `db:"max_fixers" json:"max_fixers"`
	MaxClients           int        `db:"max_clients" json:"max_clients"`
	PendingChanges       bool       `db:"pending_changes" json:"pending_changes"`
	StatusReason         *string    `db:"status_reason" json:"status_reason,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
	Neighborhoods        []AgentNeighborhood `json:"neighborhoods,omitempty"`
}

// Neighborhood описывает район — единицу территории агента.
type Neighborhood struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
	City string    `db:"city" json:"city"`
}

// AgentNeighborhood связывает агента с районом.
// Статус различает запрошенные при подаче заявки районы (requested),
// утверждённые администратором (approved) и дозапрошенные уже
// активным агентом (pending). Для начисления комиссии учитываются
// только approved районы.
type AgentNeighborhood struct {
	AgentID        uuid.UUID `db:"agent_id" json:"agent_id"`
	NeighborhoodID uuid.UUID `db:"neighborhood_id" json:"neighborhood_id"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Commission описывает начисление комиссии агенту по заказу.
type Commission struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AgentID   uuid.UUID `db:"agent_id" json:"agent_id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	Amount    float64   `db:"amount" json:"amount"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AgentReferral связывает агента с приведённым пользователем.
type AgentReferral struct {
	AgentID   uuid.UUID `db:"agent_id" json:"agent_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
