package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/payments"
	"github.com/fixly-app/fixly-backend/internal/repository"
)

// mockOrderRepository реализует OrderRepository в памяти.
type mockOrderRepository struct {
	orders map[uuid.UUID]*models.Order
	files  map[uuid.UUID][]models.DeliveryFile
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders: make(map[uuid.UUID]*models.Order),
		files:  make(map[uuid.UUID][]models.DeliveryFile),
	}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := m.orders[id]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (m *mockOrderRepository) SaveDelivery(ctx context.Context, id uuid.UUID, note string) error {
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = models.OrderStatusCompleted
	order.DeliveryNote = &note
	order.RevisionRequested = false
	return nil
}

func (m *mockOrderRepository) SaveRevisionRequest(ctx context.Context, id uuid.UUID, note string) error {
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.RevisionsUsed++
	order.RevisionRequested = true
	order.RevisionNote = &note
	return nil
}

func (m *mockOrderRepository) SaveAcceptance(ctx context.Context, id uuid.UUID) error {
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = models.OrderStatusPaid
	return nil
}

func (m *mockOrderRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var result []models.Order
	for _, order := range m.orders {
		if order.ClientID == clientID {
			result = append(result, *order)
		}
	}
	return result, nil
}

func (m *mockOrderRepository) ListByFixer(ctx context.Context, fixerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var result []models.Order
	for _, order := range m.orders {
		if order.FixerID == fixerID {
			result = append(result, *order)
		}
	}
	return result, nil
}

func (m *mockOrderRepository) AddDeliveryFile(ctx context.Context, file *models.DeliveryFile) error {
	file.ID = uuid.New()
	m.files[file.OrderID] = append(m.files[file.OrderID], *file)
	return nil
}

func (m *mockOrderRepository) ListDeliveryFiles(ctx context.Context, orderID uuid.UUID) ([]models.DeliveryFile, error) {
	return m.files[orderID], nil
}

// mockDisputeGuard отдаёт активный спор по заказу, если он задан.
type mockDisputeGuard struct {
	open map[uuid.UUID]*models.Dispute
}

func newMockDisputeGuard() *mockDisputeGuard {
	return &mockDisputeGuard{open: make(map[uuid.UUID]*models.Dispute)}
}

func (m *mockDisputeGuard) GetOpenByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	if d, ok := m.open[orderID]; ok {
		return d, nil
	}
	return nil, repository.ErrDisputeNotFound
}

// mockEscrowStore хранит escrow по заказу.
type mockEscrowStore struct {
	escrows map[uuid.UUID]*models.Escrow
}

func newMockEscrowStore() *mockEscrowStore {
	return &mockEscrowStore{escrows: make(map[uuid.UUID]*models.Escrow)}
}

func (m *mockEscrowStore) CreateEscrow(ctx context.Context, e *models.Escrow) error {
	e.ID = uuid.New()
	m.escrows[e.OrderID] = e
	return nil
}

func (m *mockEscrowStore) GetEscrowByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Escrow, error) {
	if e, ok := m.escrows[orderID]; ok {
		return e, nil
	}
	return nil, repository.ErrEscrowNotFound
}

func (m *mockEscrowStore) SettleEscrow(ctx context.Context, orderID uuid.UUID, status string) (*models.Escrow, error) {
	e, ok := m.escrows[orderID]
	if !ok {
		return nil, repository.ErrEscrowNotFound
	}
	if e.Status != models.EscrowStatusHeld {
		return nil, repository.ErrEscrowNotHeld
	}
	e.Status = status
	return e, nil
}

// mockGateway имитирует платёжный шлюз.
type mockGateway struct {
	decline    bool
	failPayout bool
	failRefund bool
	payouts    []float64
	refunds    []float64
	captured   []string
}

func (m *mockGateway) CreateIntent(ctx context.Context, orderID uuid.UUID, amount float64) (*payments.Intent, error) {
	if m.decline {
		return nil, payments.ErrDeclined
	}
	return &payments.Intent{ID: uuid.NewString(), Amount: amount, Status: "created"}, nil
}

func (m *mockGateway) Capture(ctx context.Context, intentID string) error {
	if m.decline {
		return payments.ErrDeclined
	}
	m.captured = append(m.captured, intentID)
	return nil
}

func (m *mockGateway) Payout(ctx context.Context, fixerID uuid.UUID, amount float64) error {
	if m.failPayout {
		return errors.New("шлюз недоступен")
	}
	m.payouts = append(m.payouts, amount)
	return nil
}

func (m *mockGateway) Refund(ctx context.Context, intentID string, amount float64) error {
	if m.failRefund {
		return errors.New("шлюз недоступен")
	}
	m.refunds = append(m.refunds, amount)
	return nil
}

// mockReviewChecker хранит отзывы по паре заказ+автор.
type mockReviewChecker struct {
	reviews map[string]*models.Review
}

func newMockReviewChecker() *mockReviewChecker {
	return &mockReviewChecker{reviews: make(map[string]*models.Review)}
}

func (m *mockReviewChecker) add(orderID, reviewerID uuid.UUID) {
	m.reviews[orderID.String()+reviewerID.String()] = &models.Review{
		OrderID:    orderID,
		ReviewerID: reviewerID,
		Rating:     4,
	}
}

func (m *mockReviewChecker) GetByOrderAndReviewer(ctx context.Context, orderID, reviewerID uuid.UUID) (*models.Review, error) {
	if r, ok := m.reviews[orderID.String()+reviewerID.String()]; ok {
		return r, nil
	}
	return nil, repository.ErrReviewNotFound
}

// mockCommissionStore хранит рефералов агентов и начисления.
type mockCommissionStore struct {
	agents      map[uuid.UUID]*models.Agent
	commissions []models.Commission
}

func newMockCommissionStore() *mockCommissionStore {
	return &mockCommissionStore{agents: make(map[uuid.UUID]*models.Agent)}
}

func (m *mockCommissionStore) GetAgentForUserReferral(ctx context.Context, userID uuid.UUID) (*models.Agent, error) {
	if a, ok := m.agents[userID]; ok {
		return a, nil
	}
	return nil, repository.ErrAgentNotFound
}

func (m *mockCommissionStore) CreateCommission(ctx context.Context, c *models.Commission) error {
	c.ID = uuid.New()
	m.commissions = append(m.commissions, *c)
	return nil
}

type orderFixture struct {
	service  *OrderService
	repo     *mockOrderRepository
	disputes *mockDisputeGuard
	escrow   *mockEscrowStore
	gateway  *mockGateway
	reviews  *mockReviewChecker
	agents   *mockCommissionStore
	order    *models.Order
}

func newOrderFixture(t *testing.T, status string) *orderFixture {
	t.Helper()

	repo := newMockOrderRepository()
	disputes := newMockDisputeGuard()
	escrow := newMockEscrowStore()
	gateway := &mockGateway{}
	reviews := newMockReviewChecker()
	agents := newMockCommissionStore()

	order := &models.Order{
		ClientID:         uuid.New(),
		FixerID:          uuid.New(),
		Title:            "Замена смесителя",
		TotalAmount:      100,
		PlatformFee:      10,
		FixerAmount:      90,
		Status:           status,
		RevisionsAllowed: 1,
	}
	require.NoError(t, repo.Create(context.Background(), order))

	return &orderFixture{
		service:  NewOrderService(repo, disputes, escrow, gateway, reviews, agents),
		repo:     repo,
		disputes: disputes,
		escrow:   escrow,
		gateway:  gateway,
		reviews:  reviews,
		agents:   agents,
		order:    order,
	}
}

func TestOrderService_Lifecycle(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending)
	ctx := context.Background()

	order, err := f.service.StartWork(ctx, f.order.ID, f.order.FixerID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, order.Status)

	order, err = f.service.Deliver(ctx, DeliverInput{
		OrderID: f.order.ID,
		FixerID: f.order.FixerID,
		Note:    "Работа выполнена",
		FileIDs: []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.DeliveryNote)

	f.reviews.add(f.order.ID, f.order.ClientID)

	order, err = f.service.Accept(ctx, f.order.ID, f.order.ClientID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)

	escrow, err := f.escrow.GetEscrowByOrderID(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusHeld, escrow.Status)
	assert.Equal(t, 100.0, escrow.Amount)

	order, err = f.service.Settle(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusSettled, order.Status)
	assert.Equal(t, []float64{90}, f.gateway.payouts)

	escrow, err = f.escrow.GetEscrowByOrderID(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusReleased, escrow.Status)
}

func TestOrderService_StartWorkOnlyFixer(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending)

	_, err := f.service.StartWork(context.Background(), f.order.ID, f.order.ClientID)
	assert.ErrorIs(t, err, ErrNotOrderParty)
}

func TestOrderService_DisputeBlocksLifecycle(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusCompleted)
	f.disputes.open[f.order.ID] = &models.Dispute{OrderID: f.order.ID, Status: models.DisputeStatusOpen}
	ctx := context.Background()

	_, err := f.service.Deliver(ctx, DeliverInput{OrderID: f.order.ID, FixerID: f.order.FixerID, Note: "повтор"})
	assert.ErrorIs(t, err, ErrOrderDisputed)

	_, err = f.service.RequestRevision(ctx, f.order.ID, f.order.ClientID, "исправьте, пожалуйста")
	assert.ErrorIs(t, err, ErrOrderDisputed)

	_, err = f.service.Accept(ctx, f.order.ID, f.order.ClientID)
	assert.ErrorIs(t, err, ErrOrderDisputed)
}

func TestOrderService_RevisionQuota(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusCompleted)
	ctx := context.Background()

	order, err := f.service.RequestRevision(ctx, f.order.ID, f.order.ClientID, "нужно доработать кран")
	require.NoError(t, err)
	assert.Equal(t, 1, order.RevisionsUsed)
	assert.True(t, order.RevisionRequested)

	_, err = f.service.RequestRevision(ctx, f.order.ID, f.order.ClientID, "и ещё раз доработать")
	assert.ErrorIs(t, err, ErrRevisionsUsedUp)
}

func TestOrderService_RevisionNoteTooShort(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusCompleted)

	_, err := f.service.RequestRevision(context.Background(), f.order.ID, f.order.ClientID, "мало")
	require.Error(t, err)
}

func TestOrderService_AcceptRequiresReview(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusCompleted)

	_, err := f.service.Accept(context.Background(), f.order.ID, f.order.ClientID)
	assert.ErrorIs(t, err, ErrReviewRequired)
}

func TestOrderService_AcceptDeclinedStaysCompleted(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusCompleted)
	f.reviews.add(f.order.ID, f.order.ClientID)
	f.gateway.decline = true
	ctx := context.Background()

	_, err := f.service.Accept(ctx, f.order.ID, f.order.ClientID)
	assert.ErrorIs(t, err, ErrPaymentDeclined)

	order, err := f.repo.GetByID(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
}

func TestOrderService_CancelOnlyPending(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending)
	ctx := context.Background()

	order, err := f.service.Cancel(ctx, f.order.ID, f.order.ClientID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)

	f2 := newOrderFixture(t, models.OrderStatusInProgress)
	_, err = f2.service.Cancel(ctx, f2.order.ID, f2.order.ClientID)
	require.Error(t, err)
}

func TestOrderService_CancelByFixerRejected(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending)
	ctx := context.Background()

	_, err := f.service.Cancel(ctx, f.order.ID, f.order.FixerID)
	assert.ErrorIs(t, err, ErrNotOrderParty)

	order, err := f.repo.GetByID(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestOrderService_SettlePayoutFailureKeepsEscrowHeld(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPaid)
	ctx := context.Background()
	require.NoError(t, f.escrow.CreateEscrow(ctx, &models.Escrow{
		OrderID:  f.order.ID,
		ClientID: f.order.ClientID,
		FixerID:  f.order.FixerID,
		Amount:   f.order.TotalAmount,
		Status:   models.EscrowStatusHeld,
	}))
	f.gateway.failPayout = true

	_, err := f.service.Settle(ctx, f.order.ID)
	require.Error(t, err)

	escrow, err := f.escrow.GetEscrowByOrderID(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusHeld, escrow.Status)

	order, err := f.repo.GetByID(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, order.Status)

	// После восстановления шлюза повторный расчёт проходит.
	f.gateway.failPayout = false
	order, err = f.service.Settle(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusSettled, order.Status)
	assert.Equal(t, []float64{90}, f.gateway.payouts)
}

func TestOrderService_SettleAccruesCommission(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPaid)
	require.NoError(t, f.escrow.CreateEscrow(context.Background(), &models.Escrow{
		OrderID:  f.order.ID,
		ClientID: f.order.ClientID,
		FixerID:  f.order.FixerID,
		Amount:   f.order.TotalAmount,
		Status:   models.EscrowStatusHeld,
	}))

	agent := &models.Agent{ID: uuid.New(), Status: models.AgentStatusActive, CommissionPercentage: 50}
	f.agents.agents[f.order.FixerID] = agent

	_, err := f.service.Settle(context.Background(), f.order.ID)
	require.NoError(t, err)

	require.Len(t, f.agents.commissions, 1)
	assert.Equal(t, agent.ID, f.agents.commissions[0].AgentID)
	assert.Equal(t, 5.0, f.agents.commissions[0].Amount)
}

func TestOrderService_GetOrderPartyOnly(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending)
	ctx := context.Background()

	_, err := f.service.GetOrder(ctx, f.order.ID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrNotOrderParty)

	order, err := f.service.GetOrder(ctx, f.order.ID, uuid.New(), true)
	require.NoError(t, err)
	assert.Equal(t, f.order.ID, order.ID)
}
