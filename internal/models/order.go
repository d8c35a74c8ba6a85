package models

import (
	"time"

	"github.com/google/uuid"
)

// Order описывает заказ между клиентом и мастером.
// Заказ порождается либо принятой сметой (QuoteID), либо покупкой
// пакета услуги (PackageID) — ровно одно из двух полей заполнено.
type Order struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	ClientID          uuid.UUID  `db:"client_id" json:"client_id"`
	FixerID           uuid.UUID  `db:"fixer_id" json:"fixer_id"`
	QuoteID           *uuid.UUID `db:"quote_id" json:"quote_id,omitempty"`
	PackageID         *uuid.UUID `db:"package_id" json:"package_id,omitempty"`
	Title             string     `db:"title" json:"title"`
	TotalAmount       float64    `db:"total_amount" json:"total_amount"`
	PlatformFee       float64    `db:"platform_fee" json:"platform_fee"`
	FixerAmount       float64    `db:"fixer_amount" json:"fixer_amount"`
	Status            string     `db:"status" json:"status"`
	DeliveryNote      *string    `db:"delivery_note" json:"delivery_note,omitempty"`
	DeliveredAt       *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	AcceptedAt        *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	RevisionsAllowed  int        `db:"revisions_allowed" json:"revisions_allowed"`
	RevisionsUsed     int        `db:"revisions_used" json:"revisions_used"`
	RevisionRequested bool       `db:"revision_requested" json:"revision_requested"`
	RevisionNote      *string    `db:"revision_note" json:"revision_note,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
	DeliveryFiles     []DeliveryFile `json:"delivery_files,omitempty"`
}

// IsTerminal сообщает, достиг ли заказ конечного статуса.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusSettled || o.Status == OrderStatusCancelled
}

// DeliveryFile описывает файл, прикреплённый мастером к сдаче работы.
type DeliveryFile struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	OrderID   uuid.UUID  `db:"order_id" json:"order_id"`
	MediaID   uuid.UUID  `db:"media_id" json:"media_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Media     *MediaFile `json:"media,omitempty"`
}
