package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fixly-app/fixly-backend/internal/fsm"
	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/repository"
	"github.com/fixly-app/fixly-backend/internal/validation"
	"github.com/fixly-app/fixly-backend/internal/ws"
)

// ErrDisputeAlreadyOpen возвращается при повторном открытии спора по заказу.
var ErrDisputeAlreadyOpen = errors.New("по заказу уже идёт спор")

// DisputeRepository описывает взаимодействие сервиса споров с хранилищем.
type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetOpenByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error)
	UpdateResolution(ctx context.Context, id uuid.UUID, status, resolution string, refundAmount *float64, releaseTo *string, resolvedBy *uuid.UUID, resolvedAt *time.Time) error
	AddMessage(ctx context.Context, m *models.DisputeMessage) error
	ListMessages(ctx context.Context, disputeID uuid.UUID, includeAdminNotes bool) ([]models.DisputeMessage, error)
}

// OrderReader читает заказы при открытии и разрешении споров.
type OrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// DisputeService содержит бизнес-логику споров.
type DisputeService struct {
	repo   DisputeRepository
	orders OrderReader
	hub    WSNotifier
}

// NewDisputeService создаёт сервис споров.
func NewDisputeService(repo DisputeRepository, orders OrderReader) *DisputeService {
	return &DisputeService{
		repo:   repo,
		orders: orders,
	}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *DisputeService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// OpenDisputeInput описывает открытие спора.
type OpenDisputeInput struct {
	OrderID     uuid.UUID
	InitiatorID uuid.UUID
	Reason      string
	Description string
	Evidence    []string
}

// ResolveInput описывает решение администратора по спору.
type ResolveInput struct {
	DisputeID    uuid.UUID
	AdminID      uuid.UUID
	Status       string
	Resolution   string
	RefundAmount *float64
	ReleaseTo    *string
}

// OpenDispute открывает спор по заказу. Открыть спор может только
// сторона сделки, по активному заказу и только один активный спор.
func (s *DisputeService) OpenDispute(ctx context.Context, in OpenDisputeInput) (*models.Dispute, error) {
	if _, ok := models.ValidDisputeReasons[in.Reason]; !ok {
		return nil, fmt.Errorf("dispute service: неизвестная причина спора %q", in.Reason)
	}

	if err := validation.ValidateDisputeDescription(in.Description); err != nil {
		return nil, fmt.Errorf("dispute service: %w", err)
	}

	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	if order.ClientID != in.InitiatorID && order.FixerID != in.InitiatorID {
		return nil, ErrNotOrderParty
	}

	if order.Status == models.OrderStatusPending || order.IsTerminal() {
		return nil, fmt.Errorf("dispute service: спор открывается только по заказу в работе")
	}

	if _, err := s.repo.GetOpenByOrderID(ctx, in.OrderID); err == nil {
		return nil, ErrDisputeAlreadyOpen
	} else if !errors.Is(err, repository.ErrDisputeNotFound) {
		return nil, err
	}

	dispute := &models.Dispute{
		OrderID:     in.OrderID,
		InitiatorID: in.InitiatorID,
		Reason:      in.Reason,
		Description: in.Description,
		Evidence:    in.Evidence,
		Status:      models.DisputeStatusOpen,
	}

	if err := s.repo.Create(ctx, dispute); err != nil {
		return nil, err
	}

	counterparty := order.ClientID
	if in.InitiatorID == order.ClientID {
		counterparty = order.FixerID
	}
	if s.hub != nil {
		_ = s.hub.BroadcastToUser(counterparty, ws.EventDisputeOpened, map[string]interface{}{
			"dispute_id": dispute.ID,
			"order_id":   order.ID,
		})
	}

	return dispute, nil
}

// GetDispute возвращает спор стороне сделки или администратору.
func (s *DisputeService) GetDispute(ctx context.Context, disputeID, userID uuid.UUID, isAdmin bool) (*models.Dispute, error) {
	dispute, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if !isAdmin {
		if err := s.ensureParty(ctx, dispute, userID); err != nil {
			return nil, err
		}
	}

	return dispute, nil
}

// ListMyDisputes возвращает споры, где пользователь — сторона сделки.
func (s *DisputeService) ListMyDisputes(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// ListByStatus возвращает очередь споров для администратора.
func (s *DisputeService) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error) {
	if _, ok := models.ValidDisputeStatuses[status]; !ok {
		return nil, fmt.Errorf("dispute service: неизвестный статус спора %q", status)
	}
	limit, offset = normalizePage(limit, offset)
	return s.repo.ListByStatus(ctx, status, limit, offset)
}

// UpdateStatus переводит спор в нетерминальный статус
// (взятие на рассмотрение, эскалация, возврат с эскалации).
// Переход фиксируется служебной заметкой в треде.
func (s *DisputeService) UpdateStatus(ctx context.Context, disputeID, adminID uuid.UUID, status string) (*models.Dispute, error) {
	dispute, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if err := fsm.ValidateDisputeTransition(dispute.Status, status); err != nil {
		return nil, err
	}

	if fsm.IsDisputeTerminal(status) {
		return nil, fmt.Errorf("dispute service: терминальный статус требует решения по спору")
	}

	resolution := fmt.Sprintf("Status updated to %s", status)

	if err := s.repo.UpdateResolution(ctx, disputeID, status, resolution, dispute.RefundAmount, dispute.ReleaseTo, nil, nil); err != nil {
		return nil, err
	}

	note := &models.DisputeMessage{
		DisputeID:   disputeID,
		SenderID:    adminID,
		Message:     resolution,
		IsAdminNote: true,
	}
	if err := s.repo.AddMessage(ctx, note); err != nil {
		return nil, err
	}

	dispute.Status = status
	dispute.Resolution = &resolution
	return dispute, nil
}

// Resolve выносит решение по спору. Терминальный статус требует
// текста решения; возврат средств требует направления выплаты.
// Движение денег выполняется отдельными операциями по escrow.
func (s *DisputeService) Resolve(ctx context.Context, in ResolveInput) (*models.Dispute, error) {
	dispute, err := s.repo.GetByID(ctx, in.DisputeID)
	if err != nil {
		return nil, err
	}

	if err := fsm.ValidateDisputeTransition(dispute.Status, in.Status); err != nil {
		return nil, err
	}

	if !fsm.IsDisputeTerminal(in.Status) {
		return nil, fmt.Errorf("dispute service: решение выносится только в терминальный статус")
	}

	if err := validation.ValidateNonEmpty("текст решения", in.Resolution); err != nil {
		return nil, fmt.Errorf("dispute service: %w", err)
	}

	if in.RefundAmount != nil {
		order, err := s.orders.GetByID(ctx, dispute.OrderID)
		if err != nil {
			return nil, err
		}
		if *in.RefundAmount < 0 || *in.RefundAmount > order.TotalAmount {
			return nil, fmt.Errorf("dispute service: сумма возврата выходит за пределы суммы заказа")
		}
		if *in.RefundAmount > 0 {
			if in.ReleaseTo == nil {
				return nil, fmt.Errorf("dispute service: возврат требует направления выплаты")
			}
			if _, ok := models.ValidReleaseTo[*in.ReleaseTo]; !ok {
				return nil, fmt.Errorf("dispute service: неизвестное направление выплаты %q", *in.ReleaseTo)
			}
		}
	}

	now := time.Now()
	if err := s.repo.UpdateResolution(ctx, in.DisputeID, in.Status, in.Resolution, in.RefundAmount, in.ReleaseTo, &in.AdminID, &now); err != nil {
		return nil, err
	}

	dispute.Status = in.Status
	dispute.Resolution = &in.Resolution
	dispute.RefundAmount = in.RefundAmount
	dispute.ReleaseTo = in.ReleaseTo
	dispute.ResolvedBy = &in.AdminID
	dispute.ResolvedAt = &now

	if order, err := s.orders.GetByID(ctx, dispute.OrderID); err == nil && s.hub != nil {
		payload := map[string]interface{}{
			"dispute_id": dispute.ID,
			"status":     dispute.Status,
		}
		_ = s.hub.BroadcastToUser(order.ClientID, ws.EventDisputeResolved, payload)
		_ = s.hub.BroadcastToUser(order.FixerID, ws.EventDisputeResolved, payload)
	}

	return dispute, nil
}

// AddMessage добавляет сообщение в тред спора. Стороны пишут обычные
// сообщения, администраторы могут оставлять служебные заметки.
func (s *DisputeService) AddMessage(ctx context.Context, disputeID, senderID uuid.UUID, message string, isAdmin, asAdminNote bool) (*models.DisputeMessage, error) {
	if err := validation.ValidateMessageContent(message); err != nil {
		return nil, fmt.Errorf("dispute service: %w", err)
	}

	dispute, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if !isAdmin {
		if err := s.ensureParty(ctx, dispute, senderID); err != nil {
			return nil, err
		}
		asAdminNote = false
	}

	if fsm.IsDisputeTerminal(dispute.Status) && !isAdmin {
		return nil, fmt.Errorf("dispute service: спор закрыт для обсуждения")
	}

	msg := &models.DisputeMessage{
		DisputeID:   disputeID,
		SenderID:    senderID,
		Message:     message,
		IsAdminNote: asAdminNote,
	}

	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// ListMessages возвращает тред спора. Служебные заметки видят только
// администраторы.
func (s *DisputeService) ListMessages(ctx context.Context, disputeID, userID uuid.UUID, isAdmin bool) ([]models.DisputeMessage, error) {
	dispute, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if !isAdmin {
		if err := s.ensureParty(ctx, dispute, userID); err != nil {
			return nil, err
		}
	}

	return s.repo.ListMessages(ctx, disputeID, isAdmin)
}

// ensureParty проверяет, что пользователь — сторона заказа спора.
func (s *DisputeService) ensureParty(ctx context.Context, dispute *models.Dispute, userID uuid.UUID) error {
	order, err := s.orders.GetByID(ctx, dispute.OrderID)
	if err != nil {
		return err
	}
	if order.ClientID != userID && order.FixerID != userID {
		return ErrNotOrderParty
	}
	return nil
}
