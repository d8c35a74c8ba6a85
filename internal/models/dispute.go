package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Dispute описывает спор по заказу. Пока спор открыт
// (open/under_review/escalated), обычные переходы заказа заморожены.
type Dispute struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	OrderID      uuid.UUID      `db:"order_id" json:"order_id"`
	InitiatorID  uuid.UUID      `db:"initiator_id" json:"initiator_id"`
	Reason       string         `db:"reason" json:"reason"`
	Description  string         `db:"description" json:"description"`
	Evidence     pq.StringArray `db:"evidence" json:"evidence"`
	Status       string         `db:"status" json:"status"`
	Resolution   *string        `db:"resolution" json:"resolution,omitempty"`
	RefundAmount *float64       `db:"refund_amount" json:"refund_amount,omitempty"`
	ReleaseTo    *string        `db:"release_to" json:"release_to,omitempty"`
	ResolvedBy   *uuid.UUID     `db:"resolved_by" json:"resolved_by,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	ResolvedAt   *time.Time     `db:"resolved_at" json:"resolved_at,omitempty"`
}

// IsOpen сообщает, блокирует ли спор переходы заказа.
func (d *Dispute) IsOpen() bool {
	switch d.Status {
	case DisputeStatusOpen, DisputeStatusUnderReview, DisputeStatusEscalated:
		return true
	}
	return false
}

// DisputeMessage описывает сообщение в треде спора.
// Сообщения с IsAdminNote видны только администраторам.
type DisputeMessage struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DisputeID   uuid.UUID `db:"dispute_id" json:"dispute_id"`
	SenderID    uuid.UUID `db:"sender_id" json:"sender_id"`
	Message     string    `db:"message" json:"message"`
	IsAdminNote bool      `db:"is_admin_note" json:"is_admin_note"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
