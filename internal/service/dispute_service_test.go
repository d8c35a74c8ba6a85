package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixly-app/fixly-backend/internal/fsm"
	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/repository"
)

// mockDisputeRepository реализует DisputeRepository в памяти.
type mockDisputeRepository struct {
	disputes map[uuid.UUID]*models.Dispute
	messages map[uuid.UUID][]models.DisputeMessage
}

func newMockDisputeRepository() *mockDisputeRepository {
	return &mockDisputeRepository{
		disputes: make(map[uuid.UUID]*models.Dispute),
		messages: make(map[uuid.UUID][]models.DisputeMessage),
	}
}

func (m *mockDisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.disputes[d.ID] = d
	return nil
}

func (m *mockDisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	if d, ok := m.disputes[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, repository.ErrDisputeNotFound
}

func (m *mockDisputeRepository) GetOpenByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	for _, d := range m.disputes {
		if d.OrderID == orderID && !fsm.IsDisputeTerminal(d.Status) {
			copied := *d
			return &copied, nil
		}
	}
	return nil, repository.ErrDisputeNotFound
}

func (m *mockDisputeRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error) {
	var result []models.Dispute
	for _, d := range m.disputes {
		if d.OrderID == orderID {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var result []models.Dispute
	for _, d := range m.disputes {
		if d.InitiatorID == userID {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDisputeRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error) {
	var result []models.Dispute
	for _, d := range m.disputes {
		if d.Status == status {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDisputeRepository) UpdateResolution(ctx context.Context, id uuid.UUID, status, resolution string, refundAmount *float64, releaseTo *string, resolvedBy *uuid.UUID, resolvedAt *time.Time) error {
	d, ok := m.disputes[id]
	if !ok {
		return repository.ErrDisputeNotFound
	}
	d.Status = status
	if resolution != "" {
		d.Resolution = &resolution
	}
	d.RefundAmount = refundAmount
	d.ReleaseTo = releaseTo
	d.ResolvedBy = resolvedBy
	d.ResolvedAt = resolvedAt
	return nil
}

func (m *mockDisputeRepository) AddMessage(ctx context.Context, msg *models.DisputeMessage) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	m.messages[msg.DisputeID] = append(m.messages[msg.DisputeID], *msg)
	return nil
}

func (m *mockDisputeRepository) ListMessages(ctx context.Context, disputeID uuid.UUID, includeAdminNotes bool) ([]models.DisputeMessage, error) {
	var result []models.DisputeMessage
	for _, msg := range m.messages[disputeID] {
		if msg.IsAdminNote && !includeAdminNotes {
			continue
		}
		result = append(result, msg)
	}
	return result, nil
}

type disputeFixture struct {
	service *DisputeService
	repo    *mockDisputeRepository
	orders  *mockOrderRepository
	order   *models.Order
}

func newDisputeFixture(t *testing.T, orderStatus string) *disputeFixture {
	t.Helper()

	repo := newMockDisputeRepository()
	orders := newMockOrderRepository()

	order := &models.Order{
		ClientID:    uuid.New(),
		FixerID:     uuid.New(),
		Title:       "Покраска забора",
		TotalAmount: 200,
		Status:      orderStatus,
	}
	require.NoError(t, orders.Create(context.Background(), order))

	return &disputeFixture{
		service: NewDisputeService(repo, orders),
		repo:    repo,
		orders:  orders,
		order:   order,
	}
}

func (f *disputeFixture) openDispute(t *testing.T) *models.Dispute {
	t.Helper()

	dispute, err := f.service.OpenDispute(context.Background(), OpenDisputeInput{
		OrderID:     f.order.ID,
		InitiatorID: f.order.ClientID,
		Reason:      "quality",
		Description: "Забор покрашен наполовину, краска подтекает",
	})
	require.NoError(t, err)
	return dispute
}

func TestDisputeService_OpenDispute(t *testing.T) {
	f := newDisputeFixture(t, models.OrderStatusInProgress)

	dispute := f.openDispute(t)
	assert.Equal(t, models.DisputeStatusOpen, dispute.Status)
	assert.Equal(t, f.order.ID, dispute.OrderID)
}

func TestDisputeService_OpenDisputeOnlyParty(t *testing.T) {
	f := newDisputeFixture(t, models.OrderStatusInProgress)

	_, err := f.service.OpenDispute(context.Background(), OpenDisputeInput{
		OrderID:     f.order.ID,
		InitiatorID: uuid.New(),
		Reason:      "quality",
		Description: "Я просто мимо проходил, но мне не нравится",
	})
	assert.ErrorIs(t, err, ErrNotOrderParty)
}

func TestDisputeService_OpenDisputeUnknownReason(t *testing.T) {
	f := newDisputeFixture(t, models.OrderStatusInProgress)

	_, err := f.service.OpenDispute(context.Background(), OpenDisputeInput{
		OrderID:     f.order.ID,
		InitiatorID: f.order.ClientID,
		Reason:      "bad_weather",
		Description: "Причина не из перечня, спор открыться не должен",
	})
	require.Error(t, err)
}

func TestDisputeService_OpenDisputePendingOrder(t *testing.T) {
	f := newDisputeFixture(t, models.OrderStatusPending)

	_, err := f.service.OpenDispute(context.Background(), OpenDisputeInput{
		OrderID:     f.order.ID,
		InitiatorID: f.order.ClientID,
		Reason:      "quality",
		Description: "Работа ещё не началась, спорить не о чем",
	})
	require.Error(t, err)
}

func TestDisputeService_SecondOpenDisputeRejected(t *testing.T) {
	f := newDisputeFixture(t, models.OrderStatusInProgress)
	f.openDispute(t)

	_, err := f.service.OpenDispute(context.Background(), OpenDisputeInput{
		OrderID:     f.order.ID,
		InitiatorID: f.order.FixerID,
		Reason:      "communication",
		Description: "Встречный спор по тому же заказу",
	})
	assert.ErrorIs(t, err, ErrDisputeAlreadyOpen)
}

func TestDisputeService_UpdateStatusAddsAdminNote(t *testing.T) {
	f := newDisputeFixture(t, models.OrderStatusInProgress)
	dispute := f.openDispute(t)
	adminID := uuid.New()
	ctx := context.Background()

	updated, err := f.service.UpdateStatus(ctx, dispute.ID, adminID, models.DisputeStatusUnderReview)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusUnderReview, updated.Status)
	require.NotNil(t, updated.Resolution)
	assert.Equal(t, "Status updated to under_review", *updated.Resolution)

	stored, err := f.repo.GetByID(ctx, dispute.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Resolution)
	assert.Equal(t, "Status updated to under_review", *stored.Resolution)
	assert.Nil(t, stored.ResolvedAt)

	notes, err := f.repo.ListMessages(ctx, dispute.ID, true)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.True(t, notes[0].IsAdminNote)

	visible, err := f.repo.ListMessages(ctx, dispute.ID, false)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestDisputeService_UpdateStatusRejectsTerminal(t *testing.T) {
	f := newDisputeFixture(t, models.OrderStatusInProgress)
	dispute := f.openDispute(t)

	_, err := f.service.UpdateStatus(context.Background(), dispute.ID, uuid.New(), models.DisputeStatusResolved)
	require.Error(t, err)
}

func TestDisputeService_Resolve(t *testing.T) {
	f := newDisputeFixture(t, models.OrderStatusInProgress)
	dispute := f.openDispute(t)
	adminID := uuid.New()
	ctx := context.Background()

	_, err := f.service.UpdateStatus(ctx, dispute.ID, adminID, models.DisputeStatusUnderReview)
	require.NoError(t, err)

	releaseTo := models.ReleaseToClient
	resolved, err := f.service.Resolve(ctx, ResolveInput{
		DisputeID:    dispute.ID,
		AdminID:      adminID,
		Status:       models.DisputeStatusResolved,
		Resolution:   "Возврат клиенту: работа не завершена",
		RefundAmount: floatPtr(150),
		ReleaseTo:    &releaseTo,
	})
	require.NoError(t, err)

	assert.Equal(t, models.DisputeStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, adminID, *resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)
}

func TestDisputeService_ResolveRequiresResolutionText(t *testing.T) {
	f := newDisputeFixture(t, models.OrderStatusInProgress)
	dispute := f.openDispute(t)
	ctx := context.Background()

	_, err := f.service.UpdateStatus(ctx, dispute.ID, uuid.New(), models.DisputeStatusUnderReview)
	require.NoError(t, err)

	_, err = f.service.Resolve(ctx, ResolveInput{
		DisputeID: dispute.ID,
		AdminID:   uuid.New(),
		Status:    models.DisputeStatusClosed,
	})
	require.Error(t, err)
}

func TestDisputeService_ResolveRefundBounds(t *testing.T) {
	f := newDisputeFixture(t, models.OrderStatusInProgress)
	dispute := f.openDispute(t)
	ctx := context.Background()

	_, err := f.service.UpdateStatus(ctx, dispute.ID, uuid.New(), models.DisputeStatusUnderReview)
	require.NoError(t, err)

	// Сумма сверх заказа.
	releaseTo := models.ReleaseToClient
	_, err = f.service.Resolve(ctx, ResolveInput{
		DisputeID:    dispute.ID,
		AdminID:      uuid.New(),
		Status:       models.DisputeStatusResolved,
		Resolution:   "Решение",
		RefundAmount: floatPtr(1000),
		ReleaseTo:    &releaseTo,
	})
	require.Error(t, err)

	// Возврат без направления выплаты.
	_, err = f.service.Resolve(ctx, ResolveInput{
		DisputeID:    dispute.ID,
		AdminID:      uuid.New(),
		Status:       models.DisputeStatusResolved,
		Resolution:   "Решение",
		RefundAmount: floatPtr(50),
	})
	require.Error(t, err)
}

func TestDisputeService_MessagesClosedForPartiesAfterResolve(t *testing.T) {
	f := newDisputeFixture(t, models.OrderStatusInProgress)
	dispute := f.openDispute(t)
	adminID := uuid.New()
	ctx := context.Background()

	_, err := f.service.AddMessage(ctx, dispute.ID, f.order.FixerID, "Предоставлю фото выполненных работ", false, false)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(ctx, dispute.ID, adminID, models.DisputeStatusUnderReview)
	require.NoError(t, err)

	_, err = f.service.Resolve(ctx, ResolveInput{
		DisputeID:  dispute.ID,
		AdminID:    adminID,
		Status:     models.DisputeStatusClosed,
		Resolution: "Стороны договорились самостоятельно",
	})
	require.NoError(t, err)

	_, err = f.service.AddMessage(ctx, dispute.ID, f.order.ClientID, "Хочу добавить ещё аргумент", false, false)
	require.Error(t, err)

	// Администратор может дописать заметку и после закрытия.
	_, err = f.service.AddMessage(ctx, dispute.ID, adminID, "Итоговая заметка по кейсу", true, true)
	require.NoError(t, err)
}

func TestDisputeService_AdminNoteFlagIgnoredForParties(t *testing.T) {
	f := newDisputeFixture(t, models.OrderStatusInProgress)
	dispute := f.openDispute(t)

	msg, err := f.service.AddMessage(context.Background(), dispute.ID, f.order.ClientID, "Пытаюсь выдать себя за администратора", false, true)
	require.NoError(t, err)
	assert.False(t, msg.IsAdminNote)
}
