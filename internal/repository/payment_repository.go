package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fixly-app/fixly-backend/internal/models"
)

// Ошибки escrow.
var (
	ErrEscrowNotFound = errors.New("escrow not found")
	ErrEscrowNotHeld  = errors.New("escrow is not in held status")
)

// PaymentRepository отвечает за работу с таблицей escrows.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository создаёт экземпляр репозитория.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const escrowColumns = `id, order_id, client_id, fixer_id, amount, status, intent_id, created_at, released_at`

// CreateEscrow сохраняет удержанные средства по заказу.
func (r *PaymentRepository) CreateEscrow(ctx context.Context, e *models.Escrow) error {
	query := `
		INSERT INTO escrows (order_id, client_id, fixer_id, amount, status, intent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		e.OrderID, e.ClientID, e.FixerID, e.Amount, e.Status, e.IntentID,
	).Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("payment repository: create escrow %w", err)
	}
	return nil
}

// GetEscrowByOrderID возвращает escrow по заказу.
func (r *PaymentRepository) GetEscrowByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Escrow, error) {
	var e models.Escrow
	query := `SELECT ` + escrowColumns + ` FROM escrows WHERE order_id = $1`
	if err := r.db.GetContext(ctx, &e, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEscrowNotFound
		}
		return nil, fmt.Errorf("payment repository: get escrow by order id %w", err)
	}
	return &e, nil
}

// SettleEscrow переводит escrow из held в терминальный статус.
// Блокировка строки исключает двойной расчёт при гонке.
func (r *PaymentRepository) SettleEscrow(ctx context.Context, orderID uuid.UUID, status string) (*models.Escrow, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var e models.Escrow
	query := `SELECT ` + escrowColumns + ` FROM escrows WHERE order_id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &e, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEscrowNotFound
		}
		return nil, fmt.Errorf("payment repository: settle escrow lock %w", err)
	}

	if e.Status != models.EscrowStatusHeld {
		return nil, ErrEscrowNotHeld
	}

	if err := tx.QueryRowxContext(ctx, `
		UPDATE escrows SET status = $2, released_at = NOW() WHERE id = $1
		RETURNING released_at
	`, e.ID, status).Scan(&e.ReleasedAt); err != nil {
		return nil, fmt.Errorf("payment repository: settle escrow update %w", err)
	}
	e.Status = status

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("payment repository: settle escrow commit %w", err)
	}

	return &e, nil
}

// ListEscrowsByStatus возвращает escrow в указанном статусе.
func (r *PaymentRepository) ListEscrowsByStatus(ctx context.Context, status string, limit, offset int) ([]models.Escrow, error) {
	var escrows []models.Escrow
	query := `SELECT ` + escrowColumns + ` FROM escrows WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &escrows, query, status, limit, offset); err != nil {
		return nil, fmt.Errorf("payment repository: list escrows by status %w", err)
	}
	return escrows, nil
}

// HeldOrderIDsByFixer возвращает заказы мастера с удержанными средствами.
func (r *PaymentRepository) HeldOrderIDsByFixer(ctx context.Context, fixerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT order_id FROM escrows WHERE fixer_id = $1 AND status = $2 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &ids, query, fixerID, models.EscrowStatusHeld); err != nil {
		return nil, fmt.Errorf("payment repository: held order ids by fixer %w", err)
	}
	return ids, nil
}
