package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fixly-app/fixly-backend/internal/models"
)

// ErrDisputeNotFound возвращается, когда спор не найден.
var ErrDisputeNotFound = errors.New("dispute not found")

// DisputeRepository отвечает за работу с таблицами disputes и dispute_messages.
type DisputeRepository struct {
	db *sqlx.DB
}

// NewDisputeRepository создаёт экземпляр репозитория.
func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

const disputeColumns = `id, order_id, initiator_id, reason, description, evidence, status,
	resolution, refund_amount, release_to, resolved_by, created_at, resolved_at`

// Create создаёт спор.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (order_id, initiator_id, reason, description, evidence, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		d.OrderID, d.InitiatorID, d.Reason, d.Description, pq.Array(d.Evidence), d.Status,
	).Scan(&d.ID, &d.CreatedAt); err != nil {
		return fmt.Errorf("dispute repository: create %w", err)
	}
	return nil
}

// GetByID возвращает спор по идентификатору.
func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("dispute repository: get by id %w", err)
	}
	return &d, nil
}

// GetOpenByOrderID возвращает активный спор по заказу (open/under_review/escalated).
func (r *DisputeRepository) GetOpenByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE order_id = $1 AND status IN ($2, $3, $4)`
	err := r.db.GetContext(ctx, &d, query, orderID,
		models.DisputeStatusOpen, models.DisputeStatusUnderReview, models.DisputeStatusEscalated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispute repository: get open by order id %w", err)
	}
	return &d, nil
}

// ListByOrderID возвращает все споры по заказу.
func (r *DisputeRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Dispute, error) {
	var disputes []models.Dispute
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE order_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &disputes, query, orderID); err != nil {
		return nil, fmt.Errorf("dispute repository: list by order id %w", err)
	}
	return disputes, nil
}

// ListByUser возвращает споры, в которых пользователь — сторона сделки.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	query := `
		SELECT d.id, d.order_id, d.initiator_id, d.reason, d.description, d.evidence, d.status,
			d.resolution, d.refund_amount, d.release_to, d.resolved_by, d.created_at, d.resolved_at
		FROM disputes d
		JOIN orders o ON d.order_id = o.id
		WHERE o.client_id = $1 OR o.fixer_id = $1
		ORDER BY d.created_at DESC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &disputes, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("dispute repository: list by user %w", err)
	}
	return disputes, nil
}

// ListByStatus возвращает споры в указанном статусе (админская очередь).
func (r *DisputeRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &disputes, query, status, limit, offset); err != nil {
		return nil, fmt.Errorf("dispute repository: list by status %w", err)
	}
	return disputes, nil
}

// UpdateResolution сохраняет решение по спору. resolvedAt/resolvedBy
// передаются только для терминальных статусов.
func (r *DisputeRepository) UpdateResolution(ctx context.Context, id uuid.UUID, status, resolution string, refundAmount *float64, releaseTo *string, resolvedBy *uuid.UUID, resolvedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE disputes
		SET status = $2, resolution = $3, refund_amount = $4, release_to = $5, resolved_by = $6, resolved_at = $7
		WHERE id = $1
	`, id, status, resolution, refundAmount, releaseTo, resolvedBy, resolvedAt)
	if err != nil {
		return fmt.Errorf("dispute repository: update resolution %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("dispute repository: update resolution rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrDisputeNotFound
	}

	return nil
}

// AddMessage добавляет сообщение в тред спора.
func (r *DisputeRepository) AddMessage(ctx context.Context, m *models.DisputeMessage) error {
	query := `
		INSERT INTO dispute_messages (dispute_id, sender_id, message, is_admin_note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, m.DisputeID, m.SenderID, m.Message, m.IsAdminNote).
		Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("dispute repository: add message %w", err)
	}
	return nil
}

// ListMessages возвращает сообщения треда в порядке создания.
// При includeAdminNotes = false служебные заметки отфильтровываются —
// стороны спора их не видят.
func (r *DisputeRepository) ListMessages(ctx context.Context, disputeID uuid.UUID, includeAdminNotes bool) ([]models.DisputeMessage, error) {
	query := `
		SELECT id, dispute_id, sender_id, message, is_admin_note, created_at
		FROM dispute_messages
		WHERE dispute_id = $1
	`
	if !includeAdminNotes {
		query += ` AND is_admin_note = FALSE`
	}
	query += ` ORDER BY created_at ASC`

	var messages []models.DisputeMessage
	if err := r.db.SelectContext(ctx, &messages, query, disputeID); err != nil {
		return nil, fmt.Errorf("dispute repository: list messages %w", err)
	}
	return messages, nil
}
