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

// Ошибки отзывов.
var (
	ErrReviewNotFound      = errors.New("review not found")
	ErrReviewAlreadyExists = errors.New("review already exists for this order")
)

// ReviewRepository отвечает за работу с таблицей reviews.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository создаёт экземпляр репозитория.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create создаёт отзыв. Повторный отзыв по тому же заказу от того же
// автора отклоняется ограничением уникальности.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (order_id, reviewer_id, reviewed_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		review.OrderID, review.ReviewerID, review.ReviewedID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrReviewAlreadyExists
		}
		return fmt.Errorf("review repository: create %w", err)
	}
	return nil
}

// GetByID возвращает отзыв по идентификатору.
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	query := `SELECT id, order_id, reviewer_id, reviewed_id, rating, comment, created_at, updated_at FROM reviews WHERE id = $1`
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("review repository: get by id %w", err)
	}
	return &review, nil
}

// GetByOrderAndReviewer возвращает отзыв автора по заказу.
func (r *ReviewRepository) GetByOrderAndReviewer(ctx context.Context, orderID, reviewerID uuid.UUID) (*models.Review, error) {
	var review models.Review
	query := `
		SELECT id, order_id, reviewer_id, reviewed_id, rating, comment, created_at, updated_at
		FROM reviews WHERE order_id = $1 AND reviewer_id = $2
	`
	if err := r.db.GetContext(ctx, &review, query, orderID, reviewerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("review repository: get by order and reviewer %w", err)
	}
	return &review, nil
}

// ListByReviewed возвращает отзывы о пользователе.
func (r *ReviewRepository) ListByReviewed(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	query := `
		SELECT id, order_id, reviewer_id, reviewed_id, rating, comment, created_at, updated_at
		FROM reviews WHERE reviewed_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &reviews, query, reviewedID, limit, offset); err != nil {
		return nil, fmt.Errorf("review repository: list by reviewed %w", err)
	}
	return reviews, nil
}

// AverageRating возвращает среднюю оценку пользователя и количество отзывов.
func (r *ReviewRepository) AverageRating(ctx context.Context, reviewedID uuid.UUID) (float64, int, error) {
	var result struct {
		Avg   sql.NullFloat64 `db:"avg"`
		Count int             `db:"count"`
	}
	query := `SELECT COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count FROM reviews WHERE reviewed_id = $1`
	if err := r.db.GetContext(ctx, &result, query, reviewedID); err != nil {
		return 0, 0, fmt.Errorf("review repository: average rating %w", err)
	}
	return result.Avg.Float64, result.Count, nil
}
