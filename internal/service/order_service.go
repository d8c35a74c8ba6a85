package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fixly-app/fixly-backend/internal/fsm"
	"github.com/fixly-app/fixly-backend/internal/logger"
	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/payments"
	"github.com/fixly-app/fixly-backend/internal/repository"
	"github.com/fixly-app/fixly-backend/internal/ws"
)

// Ошибки жизненного цикла заказа.
var (
	ErrOrderDisputed   = errors.New("по заказу открыт спор")
	ErrReviewRequired  = errors.New("перед оплатой необходимо оставить отзыв")
	ErrRevisionsUsedUp = errors.New("лимит доработок исчерпан")
	ErrPaymentDeclined = errors.New("платёж отклонён")
	ErrNotOrderParty   = errors.New("вы не являетесь стороной заказа")
)

// OrderRepository описывает взаимодействие сервиса с хранилищем заказов.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SaveDelivery(ctx context.Context, id uuid.UUID, note string) error
	SaveRevisionRequest(ctx context.Context, id uuid.UUID, note string) error
	SaveAcceptance(ctx context.Context, id uuid.UUID) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Order, error)
	ListByFixer(ctx context.Context, fixerID uuid.UUID, limit, offset int) ([]models.Order, error)
	AddDeliveryFile(ctx context.Context, file *models.DeliveryFile) error
	ListDeliveryFiles(ctx context.Context, orderID uuid.UUID) ([]models.DeliveryFile, error)
}

// DisputeGuard сообщает, есть ли по заказу активный спор.
type DisputeGuard interface {
	GetOpenByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error)
}

// EscrowStore описывает взаимодействие с удержанными средствами.
type EscrowStore interface {
	CreateEscrow(ctx context.Context, e *models.Escrow) error
	GetEscrowByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Escrow, error)
	SettleEscrow(ctx context.Context, orderID uuid.UUID, status string) (*models.Escrow, error)
}

// PaymentGateway описывает минимальный контракт платёжного шлюза.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, orderID uuid.UUID, amount float64) (*payments.Intent, error)
	Capture(ctx context.Context, intentID string) error
	Payout(ctx context.Context, fixerID uuid.UUID, amount float64) error
}

// ReviewChecker проверяет наличие отзыва по заказу.
type ReviewChecker interface {
	GetByOrderAndReviewer(ctx context.Context, orderID, reviewerID uuid.UUID) (*models.Review, error)
}

// CommissionStore начисляет агентскую комиссию при расчёте.
type CommissionStore interface {
	GetAgentForUserReferral(ctx context.Context, userID uuid.UUID) (*models.Agent, error)
	CreateCommission(ctx context.Context, c *models.Commission) error
}

// WSNotifier интерфейс для отправки WebSocket уведомлений.
type WSNotifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data interface{}) error
}

// OrderService содержит бизнес-логику жизненного цикла заказа.
type OrderService struct {
	repo     OrderRepository
	disputes DisputeGuard
	escrow   EscrowStore
	gateway  PaymentGateway
	reviews  ReviewChecker
	agents   CommissionStore
	hub      WSNotifier
}

// NewOrderService создаёт новый сервис заказов.
func NewOrderService(repo OrderRepository, disputes DisputeGuard, escrow EscrowStore, gateway PaymentGateway, reviews ReviewChecker, agents CommissionStore) *OrderService {
	return &OrderService{
		repo:     repo,
		disputes: disputes,
		escrow:   escrow,
		gateway:  gateway,
		reviews:  reviews,
		agents:   agents,
	}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *OrderService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// DeliverInput описывает сдачу работы мастером.
type DeliverInput struct {
	OrderID uuid.UUID
	FixerID uuid.UUID
	Note    string
	FileIDs []uuid.UUID
}

// GetOrder возвращает заказ стороне сделки или администратору.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && order.ClientID != userID && order.FixerID != userID {
		return nil, ErrNotOrderParty
	}

	files, err := s.repo.ListDeliveryFiles(ctx, orderID)
	if err == nil {
		order.DeliveryFiles = files
	}

	return order, nil
}

// ListMyOrders возвращает заказы пользователя как клиента и как мастера.
func (s *OrderService) ListMyOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, []models.Order, error) {
	limit, offset = normalizePage(limit, offset)

	asClient, err := s.repo.ListByClient(ctx, userID, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	asFixer, err := s.repo.ListByFixer(ctx, userID, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	return asClient, asFixer, nil
}

// StartWork переводит заказ в работу. Доступно только мастеру заказа.
func (s *OrderService) StartWork(ctx context.Context, orderID, fixerID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.FixerID != fixerID {
		return nil, ErrNotOrderParty
	}

	next, err := fsm.NextOrderStatus(order.Status, fsm.OrderEventStartWork)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, err
	}
	order.Status = next

	s.notify(order.ClientID, ws.EventOrderStarted, order.ID)

	return order, nil
}

// Deliver фиксирует сдачу работы мастером. Повторная сдача после
// запроса правок разрешена из статуса completed.
func (s *OrderService) Deliver(ctx context.Context, in DeliverInput) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	if order.FixerID != in.FixerID {
		return nil, ErrNotOrderParty
	}

	if err := s.ensureNoOpenDispute(ctx, in.OrderID); err != nil {
		return nil, err
	}

	if _, err := fsm.NextOrderStatus(order.Status, fsm.OrderEventDeliver); err != nil {
		return nil, err
	}

	if err := s.repo.SaveDelivery(ctx, in.OrderID, in.Note); err != nil {
		return nil, err
	}

	for _, mediaID := range in.FileIDs {
		file := &models.DeliveryFile{OrderID: in.OrderID, MediaID: mediaID}
		if err := s.repo.AddDeliveryFile(ctx, file); err != nil {
			return nil, err
		}
	}

	s.notify(order.ClientID, ws.EventOrderDelivered, order.ID)

	return s.repo.GetByID(ctx, in.OrderID)
}

// RequestRevision регистрирует запрос клиента на доработку.
// Квота доработок задаётся сметой или пакетом услуги.
func (s *OrderService) RequestRevision(ctx context.Context, orderID, clientID uuid.UUID, note string) (*models.Order, error) {
	if len([]rune(note)) < 10 {
		return nil, fmt.Errorf("order service: текст запроса на доработку должен быть не менее 10 символов")
	}

	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.ClientID != clientID {
		return nil, ErrNotOrderParty
	}

	if err := s.ensureNoOpenDispute(ctx, orderID); err != nil {
		return nil, err
	}

	if _, err := fsm.NextOrderStatus(order.Status, fsm.OrderEventRequestRevision); err != nil {
		return nil, err
	}

	if order.RevisionsUsed >= order.RevisionsAllowed {
		return nil, ErrRevisionsUsedUp
	}

	if err := s.repo.SaveRevisionRequest(ctx, orderID, note); err != nil {
		return nil, err
	}

	s.notify(order.FixerID, ws.EventOrderRevisionRequested, order.ID)

	return s.repo.GetByID(ctx, orderID)
}

// Accept принимает работу и списывает оплату. Требуется отзыв
// клиента по заказу; отказ шлюза оставляет заказ в completed.
func (s *OrderService) Accept(ctx context.Context, orderID, clientID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.ClientID != clientID {
		return nil, ErrNotOrderParty
	}

	if err := s.ensureNoOpenDispute(ctx, orderID); err != nil {
		return nil, err
	}

	if _, err := fsm.NextOrderStatus(order.Status, fsm.OrderEventAccept); err != nil {
		return nil, err
	}

	if _, err := s.reviews.GetByOrderAndReviewer(ctx, orderID, clientID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewRequired
		}
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, orderID, order.TotalAmount)
	if err != nil {
		if errors.Is(err, payments.ErrDeclined) {
			return nil, ErrPaymentDeclined
		}
		return nil, err
	}

	if err := s.gateway.Capture(ctx, intent.ID); err != nil {
		if errors.Is(err, payments.ErrDeclined) {
			return nil, ErrPaymentDeclined
		}
		return nil, err
	}

	escrow := &models.Escrow{
		OrderID:  orderID,
		ClientID: order.ClientID,
		FixerID:  order.FixerID,
		Amount:   order.TotalAmount,
		Status:   models.EscrowStatusHeld,
		IntentID: &intent.ID,
	}
	if err := s.escrow.CreateEscrow(ctx, escrow); err != nil {
		return nil, err
	}

	if err := s.repo.SaveAcceptance(ctx, orderID); err != nil {
		return nil, err
	}

	s.notify(order.FixerID, ws.EventOrderPaid, order.ID)

	return s.repo.GetByID(ctx, orderID)
}

// Cancel отменяет заказ. Допустимо только клиенту и только
// до начала работ.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.ClientID != userID {
		return nil, ErrNotOrderParty
	}

	if err := s.ensureNoOpenDispute(ctx, orderID); err != nil {
		return nil, err
	}

	next, err := fsm.NextOrderStatus(order.Status, fsm.OrderEventCancel)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, err
	}
	order.Status = next

	s.notify(order.FixerID, ws.EventOrderCancelled, order.ID)

	return order, nil
}

// Settle выполняет расчёт по оплаченному заказу: средства из escrow
// уходят мастеру, агент реферала получает комиссию с платформенного сбора.
func (s *OrderService) Settle(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNoOpenDispute(ctx, orderID); err != nil {
		return nil, err
	}

	next, err := fsm.NextOrderStatus(order.Status, fsm.OrderEventSettle)
	if err != nil {
		return nil, err
	}

	escrow, err := s.escrow.GetEscrowByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if escrow.Status != models.EscrowStatusHeld {
		return nil, repository.ErrEscrowNotHeld
	}

	// Сначала выплата: escrow переходит в терминальный статус только
	// после успешного ответа шлюза, иначе повторный расчёт невозможен.
	if err := s.gateway.Payout(ctx, order.FixerID, order.FixerAmount); err != nil {
		return nil, err
	}

	if _, err := s.escrow.SettleEscrow(ctx, orderID, models.EscrowStatusReleased); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, err
	}
	order.Status = next

	s.accrueCommission(ctx, order)

	s.notify(order.FixerID, ws.EventOrderSettled, order.ID)

	return order, nil
}

// ensureNoOpenDispute блокирует операции жизненного цикла, пока по
// заказу идёт спор.
func (s *OrderService) ensureNoOpenDispute(ctx context.Context, orderID uuid.UUID) error {
	_, err := s.disputes.GetOpenByOrderID(ctx, orderID)
	if err == nil {
		return ErrOrderDisputed
	}
	if errors.Is(err, repository.ErrDisputeNotFound) {
		return nil
	}
	return err
}

// accrueCommission начисляет комиссию агенту, приведшему мастера,
// либо агенту клиента, если мастер пришёл сам. Ошибка начисления
// расчёт не отменяет.
func (s *OrderService) accrueCommission(ctx context.Context, order *models.Order) {
	agent, err := s.agents.GetAgentForUserReferral(ctx, order.FixerID)
	if errors.Is(err, repository.ErrAgentNotFound) {
		agent, err = s.agents.GetAgentForUserReferral(ctx, order.ClientID)
	}
	if err != nil {
		return
	}

	commission := &models.Commission{
		AgentID: agent.ID,
		OrderID: order.ID,
		Amount:  order.PlatformFee * agent.CommissionPercentage / 100,
	}
	if err := s.agents.CreateCommission(ctx, commission); err != nil {
		if logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"order_id": order.ID,
				"agent_id": agent.ID,
				"error":    err.Error(),
			}).Warn("order service: не удалось начислить комиссию агенту")
		}
	}
}

// notify отправляет событие пользователю, если hub подключён.
func (s *OrderService) notify(userID uuid.UUID, event string, orderID uuid.UUID) {
	if s.hub == nil {
		return
	}
	_ = s.hub.BroadcastToUser(userID, event, map[string]interface{}{
		"order_id": orderID,
	})
}

// normalizePage приводит параметры пагинации к безопасным значениям.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
