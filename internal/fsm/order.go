// Package fsm содержит явные конечные автоматы жизненных циклов
// заказа, спора и агента. Все проверки допустимости переходов
// проходят через эти таблицы — хэндлеры и сервисы не дублируют
// проверки статусов.
package fsm

import (
	"errors"
	"fmt"

	"github.com/fixly-app/fixly-backend/internal/models"
)

// ErrInvalidTransition возвращается при недопустимом переходе.
var ErrInvalidTransition = errors.New("invalid transition")

// OrderEvent — событие жизненного цикла заказа.
type OrderEvent string

const (
	OrderEventStartWork       OrderEvent = "start_work"
	OrderEventDeliver         OrderEvent = "deliver"
	OrderEventRequestRevision OrderEvent = "request_revision"
	OrderEventAccept          OrderEvent = "accept"
	OrderEventSettle          OrderEvent = "settle"
	OrderEventCancel          OrderEvent = "cancel"
)

// orderTransitions — таблица переходов заказа.
// Повторная сдача после запроса правок и сам запрос правок —
// петли на статусе completed.
var orderTransitions = map[string]map[OrderEvent]string{
	models.OrderStatusPending: {
		OrderEventStartWork: models.OrderStatusInProgress,
		OrderEventCancel:    models.OrderStatusCancelled,
	},
	models.OrderStatusInProgress: {
		OrderEventDeliver: models.OrderStatusCompleted,
	},
	models.OrderStatusCompleted: {
		OrderEventDeliver:         models.OrderStatusCompleted,
		OrderEventRequestRevision: models.OrderStatusCompleted,
		OrderEventAccept:          models.OrderStatusPaid,
	},
	models.OrderStatusPaid: {
		OrderEventSettle: models.OrderStatusSettled,
	},
}

// NextOrderStatus возвращает статус заказа после события
// или ErrInvalidTransition, если переход не разрешён.
func NextOrderStatus(from string, event OrderEvent) (string, error) {
	events, ok := orderTransitions[from]
	if !ok {
		return "", fmt.Errorf("fsm: заказ в статусе %q: %w", from, ErrInvalidTransition)
	}
	to, ok := events[event]
	if !ok {
		return "", fmt.Errorf("fsm: событие %q недопустимо для заказа в статусе %q: %w", event, from, ErrInvalidTransition)
	}
	return to, nil
}

// CanOrderEvent проверяет допустимость события без применения.
func CanOrderEvent(from string, event OrderEvent) bool {
	_, err := NextOrderStatus(from, event)
	return err == nil
}
