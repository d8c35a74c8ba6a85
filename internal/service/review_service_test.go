package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/repository"
)

// mockReviewRepository реализует ReviewRepository в памяти.
type mockReviewRepository struct {
	reviews map[uuid.UUID]*models.Review
}

func newMockReviewRepository() *mockReviewRepository {
	return &mockReviewRepository{reviews: make(map[uuid.UUID]*models.Review)}
}

func (m *mockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	for _, r := range m.reviews {
		if r.OrderID == review.OrderID && r.ReviewerID == review.ReviewerID {
			return repository.ErrReviewAlreadyExists
		}
	}
	review.ID = uuid.New()
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	if r, ok := m.reviews[id]; ok {
		return r, nil
	}
	return nil, repository.ErrReviewNotFound
}

func (m *mockReviewRepository) GetByOrderAndReviewer(ctx context.Context, orderID, reviewerID uuid.UUID) (*models.Review, error) {
	for _, r := range m.reviews {
		if r.OrderID == orderID && r.ReviewerID == reviewerID {
			return r, nil
		}
	}
	return nil, repository.ErrReviewNotFound
}

func (m *mockReviewRepository) ListByReviewed(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var result []models.Review
	for _, r := range m.reviews {
		if r.ReviewedID == reviewedID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReviewRepository) AverageRating(ctx context.Context, reviewedID uuid.UUID) (float64, int, error) {
	var sum, count int
	for _, r := range m.reviews {
		if r.ReviewedID == reviewedID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

type reviewFixture struct {
	service *ReviewService
	repo    *mockReviewRepository
	orders  *mockOrderRepository
	order   *models.Order
}

func newReviewFixture(t *testing.T, orderStatus string) *reviewFixture {
	t.Helper()

	repo := newMockReviewRepository()
	orders := newMockOrderRepository()

	order := &models.Order{
		ClientID: uuid.New(),
		FixerID:  uuid.New(),
		Title:    "Сборка шкафа",
		Status:   orderStatus,
	}
	require.NoError(t, orders.Create(context.Background(), order))

	return &reviewFixture{
		service: NewReviewService(repo, orders),
		repo:    repo,
		orders:  orders,
		order:   order,
	}
}

func TestReviewService_ClientReviewsCompletedWork(t *testing.T) {
	f := newReviewFixture(t, models.OrderStatusCompleted)

	review, err := f.service.CreateReview(context.Background(), CreateReviewInput{
		OrderID:    f.order.ID,
		ReviewerID: f.order.ClientID,
		Rating:     3,
		Comment:    "Шкаф собран аккуратно, но позже срока",
	})
	require.NoError(t, err)
	assert.Equal(t, f.order.FixerID, review.ReviewedID)
}

func TestReviewService_RatingBounds(t *testing.T) {
	f := newReviewFixture(t, models.OrderStatusCompleted)
	ctx := context.Background()

	for _, rating := range []int{0, 5, -1} {
		_, err := f.service.CreateReview(ctx, CreateReviewInput{
			OrderID:    f.order.ID,
			ReviewerID: f.order.ClientID,
			Rating:     rating,
			Comment:    "Оценка вне шкалы платформы",
		})
		require.Error(t, err, "rating %d", rating)
	}
}

func TestReviewService_OnlyPartyCanReview(t *testing.T) {
	f := newReviewFixture(t, models.OrderStatusCompleted)

	_, err := f.service.CreateReview(context.Background(), CreateReviewInput{
		OrderID:    f.order.ID,
		ReviewerID: uuid.New(),
		Rating:     2,
		Comment:    "Сторонний наблюдатель оценок не ставит",
	})
	assert.ErrorIs(t, err, ErrNotOrderParty)
}

func TestReviewService_ClientCannotReviewBeforeDelivery(t *testing.T) {
	f := newReviewFixture(t, models.OrderStatusInProgress)

	_, err := f.service.CreateReview(context.Background(), CreateReviewInput{
		OrderID:    f.order.ID,
		ReviewerID: f.order.ClientID,
		Rating:     4,
		Comment:    "Работа ещё не сдана, отзыв преждевременный",
	})
	require.Error(t, err)
}

func TestReviewService_FixerReviewsAfterPayment(t *testing.T) {
	f := newReviewFixture(t, models.OrderStatusCompleted)
	ctx := context.Background()

	_, err := f.service.CreateReview(ctx, CreateReviewInput{
		OrderID:    f.order.ID,
		ReviewerID: f.order.FixerID,
		Rating:     4,
		Comment:    "Отзыв мастера до оплаты не принимается",
	})
	require.Error(t, err)

	f.orders.orders[f.order.ID].Status = models.OrderStatusPaid

	review, err := f.service.CreateReview(ctx, CreateReviewInput{
		OrderID:    f.order.ID,
		ReviewerID: f.order.FixerID,
		Rating:     4,
		Comment:    "Клиент вежливый, задача описана чётко",
	})
	require.NoError(t, err)
	assert.Equal(t, f.order.ClientID, review.ReviewedID)
}

func TestReviewService_DuplicateReviewRejected(t *testing.T) {
	f := newReviewFixture(t, models.OrderStatusCompleted)
	ctx := context.Background()

	in := CreateReviewInput{
		OrderID:    f.order.ID,
		ReviewerID: f.order.ClientID,
		Rating:     4,
		Comment:    "Отличная работа, рекомендую мастера",
	}

	_, err := f.service.CreateReview(ctx, in)
	require.NoError(t, err)

	_, err = f.service.CreateReview(ctx, in)
	assert.ErrorIs(t, err, repository.ErrReviewAlreadyExists)
}

func TestReviewService_UserRating(t *testing.T) {
	f := newReviewFixture(t, models.OrderStatusCompleted)
	ctx := context.Background()

	_, err := f.service.CreateReview(ctx, CreateReviewInput{
		OrderID:    f.order.ID,
		ReviewerID: f.order.ClientID,
		Rating:     4,
		Comment:    "Всё сделано быстро и качественно",
	})
	require.NoError(t, err)

	avg, count, err := f.service.UserRating(ctx, f.order.FixerID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 1, count)

	avg, count, err = f.service.UserRating(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, avg)
	assert.Zero(t, count)
}
