package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы escrow
const (
	EscrowStatusHeld     = "held"
	EscrowStatusReleased = "released"
	EscrowStatusRefunded = "refunded"
	EscrowStatusSplit    = "split"
)

// Escrow представляет средства, списанные с клиента и удерживаемые
// платформой до расчёта с мастером.
type Escrow struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	OrderID    uuid.UUID  `db:"order_id" json:"order_id"`
	ClientID   uuid.UUID  `db:"client_id" json:"client_id"`
	FixerID    uuid.UUID  `db:"fixer_id" json:"fixer_id"`
	Amount     float64    `db:"amount" json:"amount"`
	Status     string     `db:"status" json:"status"`
	IntentID   *string    `db:"intent_id" json:"intent_id,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ReleasedAt *time.Time `db:"released_at" json:"released_at,omitempty"`
}
