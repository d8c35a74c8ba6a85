package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fixly-app/fixly-backend/internal/logger"
	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/repository"
)

// EscrowAdminStore расширяет EscrowStore операциями администратора.
type EscrowAdminStore interface {
	EscrowStore
	ListEscrowsByStatus(ctx context.Context, status string, limit, offset int) ([]models.Escrow, error)
	HeldOrderIDsByFixer(ctx context.Context, fixerID uuid.UUID) ([]uuid.UUID, error)
}

// RefundGateway расширяет платёжный контракт возвратом средств.
type RefundGateway interface {
	PaymentGateway
	Refund(ctx context.Context, intentID string, amount float64) error
}

// OrderSettler выполняет расчёт по одному заказу.
type OrderSettler interface {
	Settle(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// PaymentService содержит операции над удержанными средствами.
// Обычный расчёт идёт через OrderService; здесь живут денежные
// развязки решений по спорам и массовый расчёт.
type PaymentService struct {
	escrow  EscrowAdminStore
	gateway RefundGateway
	orders  OrderReader
	settler OrderSettler
}

// NewPaymentService создаёт сервис платежей.
func NewPaymentService(escrow EscrowAdminStore, gateway RefundGateway, orders OrderReader, settler OrderSettler) *PaymentService {
	return &PaymentService{
		escrow:  escrow,
		gateway: gateway,
		orders:  orders,
		settler: settler,
	}
}

// GetEscrow возвращает запись об удержанных средствах стороне сделки.
func (s *PaymentService) GetEscrow(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*models.Escrow, error) {
	escrow, err := s.escrow.GetEscrowByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && escrow.ClientID != userID && escrow.FixerID != userID {
		return nil, ErrNotOrderParty
	}

	return escrow, nil
}

// ListHeld возвращает удержанные средства (очередь администратора).
func (s *PaymentService) ListHeld(ctx context.Context, limit, offset int) ([]models.Escrow, error) {
	limit, offset = normalizePage(limit, offset)
	return s.escrow.ListEscrowsByStatus(ctx, models.EscrowStatusHeld, limit, offset)
}

// ReleaseToFixer отдаёт удержанные средства мастеру целиком.
// Применяется при решении спора в пользу мастера.
func (s *PaymentService) ReleaseToFixer(ctx context.Context, orderID uuid.UUID) (*models.Escrow, error) {
	order, err := s.orders.GetByID(ctx, orderID)
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

	// Терминальный статус ставим только после успешного ответа шлюза,
	// иначе средства окажутся заперты без фактической выплаты.
	if err := s.gateway.Payout(ctx, escrow.FixerID, order.FixerAmount); err != nil {
		return nil, err
	}

	return s.escrow.SettleEscrow(ctx, orderID, models.EscrowStatusReleased)
}

// RefundToClient возвращает удержанные средства клиенту целиком.
// Применяется при решении спора в пользу клиента.
func (s *PaymentService) RefundToClient(ctx context.Context, orderID uuid.UUID) (*models.Escrow, error) {
	escrow, err := s.escrow.GetEscrowByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if escrow.IntentID == nil {
		return nil, fmt.Errorf("payment service: у escrow нет платёжного намерения")
	}
	if escrow.Status != models.EscrowStatusHeld {
		return nil, repository.ErrEscrowNotHeld
	}

	if err := s.gateway.Refund(ctx, *escrow.IntentID, escrow.Amount); err != nil {
		return nil, err
	}

	return s.escrow.SettleEscrow(ctx, orderID, models.EscrowStatusRefunded)
}

// Split делит удержанные средства: refundAmount возвращается клиенту,
// остаток уходит мастеру. Применяется при частичном решении спора.
func (s *PaymentService) Split(ctx context.Context, orderID uuid.UUID, refundAmount float64) (*models.Escrow, error) {
	escrow, err := s.escrow.GetEscrowByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if refundAmount <= 0 || refundAmount >= escrow.Amount {
		return nil, fmt.Errorf("payment service: сумма возврата должна быть в пределах удержанной суммы")
	}
	if escrow.IntentID == nil {
		return nil, fmt.Errorf("payment service: у escrow нет платёжного намерения")
	}
	if escrow.Status != models.EscrowStatusHeld {
		return nil, repository.ErrEscrowNotHeld
	}

	if err := s.gateway.Refund(ctx, *escrow.IntentID, refundAmount); err != nil {
		return nil, err
	}

	if err := s.gateway.Payout(ctx, escrow.FixerID, escrow.Amount-refundAmount); err != nil {
		return nil, err
	}

	return s.escrow.SettleEscrow(ctx, orderID, models.EscrowStatusSplit)
}

// SettleAllForFixer выполняет расчёт по всем оплаченным заказам
// мастера. Заказы с активным спором пропускаются.
func (s *PaymentService) SettleAllForFixer(ctx context.Context, fixerID uuid.UUID) ([]models.Order, error) {
	orderIDs, err := s.escrow.HeldOrderIDsByFixer(ctx, fixerID)
	if err != nil {
		return nil, err
	}

	settled := make([]models.Order, 0, len(orderIDs))
	for _, orderID := range orderIDs {
		order, err := s.settler.Settle(ctx, orderID)
		if err != nil {
			if errors.Is(err, ErrOrderDisputed) {
				continue
			}
			if logger.Log != nil {
				logger.Log.WithFields(map[string]interface{}{
					"order_id": orderID,
					"error":    err.Error(),
				}).Warn("payment service: не удалось рассчитать заказ")
			}
			continue
		}
		settled = append(settled, *order)
	}

	return settled, nil
}
