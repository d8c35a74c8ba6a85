package models

import (
	"time"

	"github.com/google/uuid"
)

// Оценка отзыва по шкале платформы.
const (
	ReviewRatingMin = 1
	ReviewRatingMax = 4
)

// Review описывает отзыв по заказу. Клиент обязан оставить отзыв
// до принятия работы и оплаты (review-before-pay).
type Review struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OrderID    uuid.UUID `db:"order_id" json:"order_id"`
	ReviewerID uuid.UUID `db:"reviewer_id" json:"reviewer_id"`
	ReviewedID uuid.UUID `db:"reviewed_id" json:"reviewed_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
