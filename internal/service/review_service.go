package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/validation"
)

// ReviewRepository описывает взаимодействие сервиса отзывов с хранилищем.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	GetByOrderAndReviewer(ctx context.Context, orderID, reviewerID uuid.UUID) (*models.Review, error)
	ListByReviewed(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error)
	AverageRating(ctx context.Context, reviewedID uuid.UUID) (float64, int, error)
}

// ReviewService содержит бизнес-логику отзывов.
type ReviewService struct {
	repo   ReviewRepository
	orders OrderReader
}

// NewReviewService создаёт сервис отзывов.
func NewReviewService(repo ReviewRepository, orders OrderReader) *ReviewService {
	return &ReviewService{
		repo:   repo,
		orders: orders,
	}
}

// CreateReviewInput описывает новый отзыв.
type CreateReviewInput struct {
	OrderID    uuid.UUID
	ReviewerID uuid.UUID
	Rating     int
	Comment    string
}

// CreateReview создаёт отзыв по заказу. Отзыв оставляет сторона сделки
// о второй стороне, оценка по шкале от 1 до 4, текст обязателен.
// Клиент пишет отзыв на сданную работу до её принятия.
func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if in.Rating < models.ReviewRatingMin || in.Rating > models.ReviewRatingMax {
		return nil, fmt.Errorf("review service: оценка должна быть от %d до %d", models.ReviewRatingMin, models.ReviewRatingMax)
	}

	if err := validation.ValidateReviewComment(in.Comment); err != nil {
		return nil, fmt.Errorf("review service: %w", err)
	}

	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	var reviewedID uuid.UUID
	switch in.ReviewerID {
	case order.ClientID:
		reviewedID = order.FixerID
		// Клиент оценивает работу после сдачи.
		if order.Status != models.OrderStatusCompleted && order.Status != models.OrderStatusPaid && order.Status != models.OrderStatusSettled {
			return nil, fmt.Errorf("review service: отзыв оставляется после сдачи работы")
		}
	case order.FixerID:
		reviewedID = order.ClientID
		// Мастер оценивает клиента после оплаты.
		if order.Status != models.OrderStatusPaid && order.Status != models.OrderStatusSettled {
			return nil, fmt.Errorf("review service: отзыв о клиенте оставляется после оплаты")
		}
	default:
		return nil, ErrNotOrderParty
	}

	review := &models.Review{
		OrderID:    in.OrderID,
		ReviewerID: in.ReviewerID,
		ReviewedID: reviewedID,
		Rating:     in.Rating,
		Comment:    in.Comment,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

// ListUserReviews возвращает отзывы о пользователе.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.ListByReviewed(ctx, userID, limit, offset)
}

// UserRating возвращает среднюю оценку и количество отзывов.
func (s *ReviewService) UserRating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	return s.repo.AverageRating(ctx, userID)
}
