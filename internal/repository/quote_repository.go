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

// Ошибки смет.
var (
	ErrQuoteNotFound        = errors.New("quote not found")
	ErrQuoteAlreadyAccepted = errors.New("quote already accepted")
)

// QuoteRepository отвечает за работу с таблицей quotes.
type QuoteRepository struct {
	db *sqlx.DB
}

// NewQuoteRepository создаёт экземпляр репозитория.
func NewQuoteRepository(db *sqlx.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

const quoteColumns = `id, request_id, fixer_id, type, labor_cost, material_cost, other_costs, inspection_fee,
	down_payment_percent, down_payment_reason, is_revised, is_accepted, revisions_allowed, created_at, updated_at`

// Create создаёт смету.
func (r *QuoteRepository) Create(ctx context.Context, quote *models.Quote) error {
	query := `
		INSERT INTO quotes (request_id, fixer_id, type, labor_cost, material_cost, other_costs, inspection_fee,
			down_payment_percent, down_payment_reason, is_revised, revisions_allowed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		quote.RequestID, quote.FixerID, quote.Type,
		quote.LaborCost, quote.MaterialCost, quote.OtherCosts, quote.InspectionFee,
		quote.DownPaymentPercent, quote.DownPaymentReason, quote.IsRevised, quote.RevisionsAllowed,
	).Scan(&quote.ID, &quote.CreatedAt, &quote.UpdatedAt); err != nil {
		return fmt.Errorf("quote repository: create %w", err)
	}

	return nil
}

// GetByID возвращает смету по идентификатору.
func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`
	if err := r.db.GetContext(ctx, &quote, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("quote repository: get by id %w", err)
	}

	return &quote, nil
}

// ListByRequest возвращает сметы по заявке.
func (r *QuoteRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Quote, error) {
	var quotes []models.Quote
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE request_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &quotes, query, requestID); err != nil {
		return nil, fmt.Errorf("quote repository: list by request %w", err)
	}
	return quotes, nil
}

// ListByFixer возвращает сметы мастера.
func (r *QuoteRepository) ListByFixer(ctx context.Context, fixerID uuid.UUID, limit, offset int) ([]models.Quote, error) {
	var quotes []models.Quote
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE fixer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &quotes, query, fixerID, limit, offset); err != nil {
		return nil, fmt.Errorf("quote repository: list by fixer %w", err)
	}
	return quotes, nil
}

// MarkAccepted помечает смету принятой. Переход одноразовый:
// повторное принятие отклоняется на уровне условия WHERE.
func (r *QuoteRepository) MarkAccepted(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE quotes SET is_accepted = TRUE, updated_at = NOW()
		WHERE id = $1 AND is_accepted = FALSE
	`, id)
	if err != nil {
		return fmt.Errorf("quote repository: mark accepted %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("quote repository: mark accepted rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrQuoteAlreadyAccepted
	}

	return nil
}
