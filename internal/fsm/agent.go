package fsm

import (
	"fmt"

	"github.com/fixly-app/fixly-backend/internal/models"
)

// agentTransitions — таблица переходов агента.
// Бан доступен из любого небанного статуса и терминален.
var agentTransitions = map[string]map[string]struct{}{
	models.AgentStatusPending: {
		models.AgentStatusActive:   {},
		models.AgentStatusRejected: {},
		models.AgentStatusBanned:   {},
	},
	models.AgentStatusActive: {
		models.AgentStatusSuspended: {},
		models.AgentStatusBanned:    {},
	},
	models.AgentStatusSuspended: {
		models.AgentStatusActive: {},
		models.AgentStatusBanned: {},
	},
	models.AgentStatusRejected: {
		models.AgentStatusBanned: {},
	},
}

// ValidateAgentTransition проверяет переход агента from → to.
func ValidateAgentTransition(from, to string) error {
	targets, ok := agentTransitions[from]
	if !ok {
		return fmt.Errorf("fsm: агент в статусе %q: %w", from, ErrInvalidTransition)
	}
	if _, ok := targets[to]; !ok {
		return fmt.Errorf("fsm: переход агента %q → %q недопустим: %w", from, to, ErrInvalidTransition)
	}
	return nil
}

// AgentTransitionRequiresReason сообщает, обязательна ли причина
// для перехода (приостановка и бан всегда с причиной).
func AgentTransitionRequiresReason(to string) bool {
	return to == models.AgentStatusSuspended || to == models.AgentStatusBanned
}
