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

// ErrRequestNotFound возвращается, когда заявка не найдена.
var ErrRequestNotFound = errors.New("service request not found")

// RequestRepository отвечает за работу с таблицей service_requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository создаёт экземпляр репозитория.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create создаёт заявку клиента.
func (r *RequestRepository) Create(ctx context.Context, req *models.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (client_id, neighborhood_id, title, description, budget_min, budget_max, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		req.ClientID, req.NeighborhoodID, req.Title, req.Description, req.BudgetMin, req.BudgetMax, req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return fmt.Errorf("request repository: create %w", err)
	}

	return nil
}

// GetByID возвращает заявку по идентификатору.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	query := `
		SELECT id, client_id, neighborhood_id, title, description, budget_min, budget_max, status, created_at, updated_at
		FROM service_requests WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repository: get by id %w", err)
	}

	return &req, nil
}

// List возвращает открытые заявки с количеством смет.
func (r *RequestRepository) List(ctx context.Context, limit, offset int) ([]models.ServiceRequest, error) {
	var requests []models.ServiceRequest
	query := `
		SELECT sr.id, sr.client_id, sr.neighborhood_id, sr.title, sr.description, sr.budget_min, sr.budget_max,
			sr.status, sr.created_at, sr.updated_at,
			COUNT(q.id) AS quotes_count
		FROM service_requests sr
		LEFT JOIN quotes q ON q.request_id = sr.id
		WHERE sr.status = $1
		GROUP BY sr.id
		ORDER BY sr.created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &requests, query, models.RequestStatusOpen, limit, offset); err != nil {
		return nil, fmt.Errorf("request repository: list %w", err)
	}
	return requests, nil
}

// ListByClient возвращает заявки клиента.
func (r *RequestRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error) {
	var requests []models.ServiceRequest
	query := `
		SELECT id, client_id, neighborhood_id, title, description, budget_min, budget_max, status, created_at, updated_at
		FROM service_requests WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &requests, query, clientID, limit, offset); err != nil {
		return nil, fmt.Errorf("request repository: list by client %w", err)
	}
	return requests, nil
}

// UpdateStatus переводит заявку в новый статус.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE service_requests SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("request repository: update status %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("request repository: update status rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrRequestNotFound
	}

	return nil
}
