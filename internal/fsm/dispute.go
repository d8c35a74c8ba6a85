package fsm

import (
	"fmt"

	"github.com/fixly-app/fixly-backend/internal/models"
)

// disputeTransitions — таблица переходов спора.
// escalated не является терминальным: спор возвращается на рассмотрение
// или закрывается решением администратора.
var disputeTransitions = map[string]map[string]struct{}{
	models.DisputeStatusOpen: {
		models.DisputeStatusUnderReview: {},
		models.DisputeStatusEscalated:   {},
		models.DisputeStatusResolved:    {},
		models.DisputeStatusClosed:      {},
	},
	models.DisputeStatusUnderReview: {
		models.DisputeStatusEscalated: {},
		models.DisputeStatusResolved:  {},
		models.DisputeStatusClosed:    {},
	},
	models.DisputeStatusEscalated: {
		models.DisputeStatusUnderReview: {},
		models.DisputeStatusResolved:    {},
		models.DisputeStatusClosed:      {},
	},
}

// ValidateDisputeTransition проверяет переход спора from → to.
func ValidateDisputeTransition(from, to string) error {
	targets, ok := disputeTransitions[from]
	if !ok {
		return fmt.Errorf("fsm: спор в статусе %q терминален: %w", from, ErrInvalidTransition)
	}
	if _, ok := targets[to]; !ok {
		return fmt.Errorf("fsm: переход спора %q → %q недопустим: %w", from, to, ErrInvalidTransition)
	}
	return nil
}

// IsDisputeTerminal сообщает, терминален ли статус спора.
func IsDisputeTerminal(status string) bool {
	return status == models.DisputeStatusResolved || status == models.DisputeStatusClosed
}
