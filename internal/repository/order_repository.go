package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fixly-app/fixly-backend/internal/models"
)

// ErrOrderNotFound возвращается, когда заказ не найден.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository отвечает за работу с таблицами orders и delivery_files.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт экземпляр репозитория.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, client_id, fixer_id, quote_id, package_id, title, total_amount, platform_fee, fixer_amount,
	status, delivery_note, delivered_at, accepted_at, revisions_allowed, revisions_used,
	revision_requested, revision_note, created_at, updated_at`

// Create создаёт заказ.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (client_id, fixer_id, quote_id, package_id, title, total_amount, platform_fee, fixer_amount, status, revisions_allowed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		order.ClientID, order.FixerID, order.QuoteID, order.PackageID, order.Title,
		order.TotalAmount, order.PlatformFee, order.FixerAmount, order.Status, order.RevisionsAllowed,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("order repository: create %w", err)
	}

	return nil
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}

	return &order, nil
}

// GetByQuoteID возвращает заказ, порождённый сметой.
func (r *OrderRepository) GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE quote_id = $1`
	if err := r.db.GetContext(ctx, &order, query, quoteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by quote id %w", err)
	}

	return &order, nil
}

// UpdateStatus переводит заказ в новый статус.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("order repository: update status %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: update status rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// SaveDelivery фиксирует сдачу работы: статус completed, заметка мастера,
// delivered_at только при первой сдаче, флаг правок снимается.
func (r *OrderRepository) SaveDelivery(ctx context.Context, id uuid.UUID, note string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2,
			delivery_note = $3,
			delivered_at = COALESCE(delivered_at, NOW()),
			revision_requested = FALSE,
			updated_at = NOW()
		WHERE id = $1
	`, id, models.OrderStatusCompleted, note)
	if err != nil {
		return fmt.Errorf("order repository: save delivery %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: save delivery rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// SaveRevisionRequest фиксирует запрос правок и расходует квоту.
func (r *OrderRepository) SaveRevisionRequest(ctx context.Context, id uuid.UUID, note string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET revisions_used = revisions_used + 1,
			revision_requested = TRUE,
			revision_note = $2,
			updated_at = NOW()
		WHERE id = $1 AND revisions_used < revisions_allowed
	`, id, note)
	if err != nil {
		return fmt.Errorf("order repository: save revision request %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: save revision request rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// SaveAcceptance помечает заказ оплаченным и проставляет accepted_at.
func (r *OrderRepository) SaveAcceptance(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, accepted_at = $3, updated_at = NOW() WHERE id = $1
	`, id, models.OrderStatusPaid, now)
	if err != nil {
		return fmt.Errorf("order repository: save acceptance %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: save acceptance rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// ListByClient возвращает заказы клиента.
func (r *OrderRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &orders, query, clientID, limit, offset); err != nil {
		return nil, fmt.Errorf("order repository: list by client %w", err)
	}
	return orders, nil
}

// ListByFixer возвращает заказы мастера.
func (r *OrderRepository) ListByFixer(ctx context.Context, fixerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE fixer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &orders, query, fixerID, limit, offset); err != nil {
		return nil, fmt.Errorf("order repository: list by fixer %w", err)
	}
	return orders, nil
}

// ListByStatus возвращает заказы в указанном статусе (для расчётов администратором).
func (r *OrderRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &orders, query, status, limit, offset); err != nil {
		return nil, fmt.Errorf("order repository: list by status %w", err)
	}
	return orders, nil
}

// AddDeliveryFile прикрепляет файл к сдаче работы.
func (r *OrderRepository) AddDeliveryFile(ctx context.Context, file *models.DeliveryFile) error {
	query := `
		INSERT INTO delivery_files (order_id, media_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, file.OrderID, file.MediaID).
		Scan(&file.ID, &file.CreatedAt); err != nil {
		return fmt.Errorf("order repository: add delivery file %w", err)
	}
	return nil
}

// ListDeliveryFiles возвращает файлы сдачи по заказу.
func (r *OrderRepository) ListDeliveryFiles(ctx context.Context, orderID uuid.UUID) ([]models.DeliveryFile, error) {
	var files []models.DeliveryFile
	query := `SELECT id, order_id, media_id, created_at FROM delivery_files WHERE order_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &files, query, orderID); err != nil {
		return nil, fmt.Errorf("order repository: list delivery files %w", err)
	}
	return files, nil
}
