package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fixly-app/fixly-backend/internal/models"
)

func TestNextOrderStatus_HappyPath(t *testing.T) {
	cases := []struct {
		from  string
		event OrderEvent
		to    string
	}{
		{models.OrderStatusPending, OrderEventStartWork, models.OrderStatusInProgress},
		{models.OrderStatusPending, OrderEventCancel, models.OrderStatusCancelled},
		{models.OrderStatusInProgress, OrderEventDeliver, models.OrderStatusCompleted},
		{models.OrderStatusCompleted, OrderEventDeliver, models.OrderStatusCompleted},
		{models.OrderStatusCompleted, OrderEventRequestRevision, models.OrderStatusCompleted},
		{models.OrderStatusCompleted, OrderEventAccept, models.OrderStatusPaid},
		{models.OrderStatusPaid, OrderEventSettle, models.OrderStatusSettled},
	}

	for _, tc := range cases {
		got, err := NextOrderStatus(tc.from, tc.event)
		assert.NoError(t, err, "%s + %s", tc.from, tc.event)
		assert.Equal(t, tc.to, got)
	}
}

func TestNextOrderStatus_Rejected(t *testing.T) {
	cases := []struct {
		from  string
		event OrderEvent
	}{
		{models.OrderStatusInProgress, OrderEventCancel},
		{models.OrderStatusCompleted, OrderEventCancel},
		{models.OrderStatusPaid, OrderEventCancel},
		{models.OrderStatusPending, OrderEventAccept},
		{models.OrderStatusPending, OrderEventSettle},
		{models.OrderStatusInProgress, OrderEventAccept},
		{models.OrderStatusPaid, OrderEventDeliver},
		{models.OrderStatusSettled, OrderEventSettle},
		{models.OrderStatusCancelled, OrderEventStartWork},
	}

	for _, tc := range cases {
		_, err := NextOrderStatus(tc.from, tc.event)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s + %s", tc.from, tc.event)
	}
}

func TestValidateDisputeTransition(t *testing.T) {
	assert.NoError(t, ValidateDisputeTransition(models.DisputeStatusOpen, models.DisputeStatusUnderReview))
	assert.NoError(t, ValidateDisputeTransition(models.DisputeStatusOpen, models.DisputeStatusEscalated))
	assert.NoError(t, ValidateDisputeTransition(models.DisputeStatusUnderReview, models.DisputeStatusResolved))
	assert.NoError(t, ValidateDisputeTransition(models.DisputeStatusEscalated, models.DisputeStatusUnderReview))
	assert.NoError(t, ValidateDisputeTransition(models.DisputeStatusEscalated, models.DisputeStatusClosed))

	// Терминальные статусы никуда не переходят.
	assert.ErrorIs(t, ValidateDisputeTransition(models.DisputeStatusResolved, models.DisputeStatusOpen), ErrInvalidTransition)
	assert.ErrorIs(t, ValidateDisputeTransition(models.DisputeStatusClosed, models.DisputeStatusUnderReview), ErrInvalidTransition)
	// Возврат в open невозможен.
	assert.ErrorIs(t, ValidateDisputeTransition(models.DisputeStatusUnderReview, models.DisputeStatusOpen), ErrInvalidTransition)
}

func TestIsDisputeTerminal(t *testing.T) {
	assert.True(t, IsDisputeTerminal(models.DisputeStatusResolved))
	assert.True(t, IsDisputeTerminal(models.DisputeStatusClosed))
	assert.False(t, IsDisputeTerminal(models.DisputeStatusEscalated))
	assert.False(t, IsDisputeTerminal(models.DisputeStatusOpen))
	assert.False(t, IsDisputeTerminal(models.DisputeStatusUnderReview))
}

func TestValidateAgentTransition(t *testing.T) {
	assert.NoError(t, ValidateAgentTransition(models.AgentStatusPending, models.AgentStatusActive))
	assert.NoError(t, ValidateAgentTransition(models.AgentStatusPending, models.AgentStatusRejected))
	assert.NoError(t, ValidateAgentTransition(models.AgentStatusActive, models.AgentStatusSuspended))
	assert.NoError(t, ValidateAgentTransition(models.AgentStatusSuspended, models.AgentStatusActive))
	assert.NoError(t, ValidateAgentTransition(models.AgentStatusRejected, models.AgentStatusBanned))

	// Бан терминален.
	assert.ErrorIs(t, ValidateAgentTransition(models.AgentStatusBanned, models.AgentStatusActive), ErrInvalidTransition)
	// pending нельзя приостановить, минуя активацию.
	assert.ErrorIs(t, ValidateAgentTransition(models.AgentStatusPending, models.AgentStatusSuspended), ErrInvalidTransition)
	// suspended → rejected не существует.
	assert.ErrorIs(t, ValidateAgentTransition(models.AgentStatusSuspended, models.AgentStatusRejected), ErrInvalidTransition)
}

func TestAgentTransitionRequiresReason(t *testing.T) {
	assert.True(t, AgentTransitionRequiresReason(models.AgentStatusSuspended))
	assert.True(t, AgentTransitionRequiresReason(models.AgentStatusBanned))
	assert.False(t, AgentTransitionRequiresReason(models.AgentStatusActive))
	assert.False(t, AgentTransitionRequiresReason(models.AgentStatusRejected))
}
