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

// mockGigRepository реализует GigRepository в памяти.
type mockGigRepository struct {
	gigs     map[uuid.UUID]*models.Gig
	packages map[uuid.UUID]*models.GigPackage
}

func newMockGigRepository() *mockGigRepository {
	return &mockGigRepository{
		gigs:     make(map[uuid.UUID]*models.Gig),
		packages: make(map[uuid.UUID]*models.GigPackage),
	}
}

func (m *mockGigRepository) Create(ctx context.Context, gig *models.Gig) error {
	gig.ID = uuid.New()
	gig.IsActive = true
	for i := range gig.Packages {
		gig.Packages[i].ID = uuid.New()
		gig.Packages[i].GigID = gig.ID
		pkg := gig.Packages[i]
		m.packages[pkg.ID] = &pkg
	}
	m.gigs[gig.ID] = gig
	return nil
}

func (m *mockGigRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	if g, ok := m.gigs[id]; ok {
		copied := *g
		return &copied, nil
	}
	return nil, repository.ErrGigNotFound
}

func (m *mockGigRepository) GetPackage(ctx context.Context, packageID uuid.UUID) (*models.GigPackage, error) {
	if p, ok := m.packages[packageID]; ok {
		return p, nil
	}
	return nil, repository.ErrPackageNotFound
}

func (m *mockGigRepository) List(ctx context.Context, limit, offset int) ([]models.Gig, error) {
	var result []models.Gig
	for _, g := range m.gigs {
		if g.IsActive {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGigRepository) ListByFixer(ctx context.Context, fixerID uuid.UUID) ([]models.Gig, error) {
	var result []models.Gig
	for _, g := range m.gigs {
		if g.FixerID == fixerID {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGigRepository) SetActive(ctx context.Context, id uuid.UUID, fixerID uuid.UUID, active bool) error {
	g, ok := m.gigs[id]
	if !ok || g.FixerID != fixerID {
		return repository.ErrGigNotFound
	}
	g.IsActive = active
	return nil
}

func validPackages() []models.GigPackage {
	return []models.GigPackage{
		{Tier: "basic", Title: "Базовый", Price: 1000, DeliveryDays: 2, RevisionsAllowed: 1},
		{Tier: "standard", Title: "Стандарт", Price: 2000, DeliveryDays: 3, RevisionsAllowed: 2},
		{Tier: "premium", Title: "Премиум", Price: 4000, DeliveryDays: 5, RevisionsAllowed: 3},
	}
}

func TestGigService_CreateGig(t *testing.T) {
	repo := newMockGigRepository()
	service := NewGigService(repo, newMockOrderRepository(), 10)

	gig, err := service.CreateGig(context.Background(), CreateGigInput{
		FixerID:     uuid.New(),
		Title:       "Мелкий бытовой ремонт",
		Description: "Розетки, смесители, полки",
		Packages:    validPackages(),
	})
	require.NoError(t, err)
	assert.Len(t, gig.Packages, 3)
	assert.True(t, gig.IsActive)
}

func TestGigService_CreateGigValidation(t *testing.T) {
	repo := newMockGigRepository()
	service := NewGigService(repo, newMockOrderRepository(), 10)
	ctx := context.Background()
	fixerID := uuid.New()

	cases := []struct {
		name     string
		packages []models.GigPackage
	}{
		{"без пакетов", nil},
		{"больше трёх пакетов", append(validPackages(), models.GigPackage{Tier: "basic", Price: 1, DeliveryDays: 1})},
		{"неизвестный тариф", []models.GigPackage{{Tier: "deluxe", Price: 1000, DeliveryDays: 2}}},
		{"дубликат тарифа", []models.GigPackage{
			{Tier: "basic", Price: 1000, DeliveryDays: 2},
			{Tier: "basic", Price: 2000, DeliveryDays: 3},
		}},
		{"нулевая цена", []models.GigPackage{{Tier: "basic", Price: 0, DeliveryDays: 2}}},
		{"нулевой срок", []models.GigPackage{{Tier: "basic", Price: 1000, DeliveryDays: 0}}},
		{"отрицательные доработки", []models.GigPackage{{Tier: "basic", Price: 1000, DeliveryDays: 2, RevisionsAllowed: -1}}},
	}

	for _, tc := range cases {
		_, err := service.CreateGig(ctx, CreateGigInput{
			FixerID:  fixerID,
			Title:    "Услуга",
			Packages: tc.packages,
		})
		require.Error(t, err, tc.name)
	}
}

func TestGigService_OrderPackage(t *testing.T) {
	repo := newMockGigRepository()
	orders := newMockOrderRepository()
	service := NewGigService(repo, orders, 10)
	ctx := context.Background()

	gig, err := service.CreateGig(ctx, CreateGigInput{
		FixerID:  uuid.New(),
		Title:    "Сборка мебели",
		Packages: validPackages(),
	})
	require.NoError(t, err)

	clientID := uuid.New()
	order, err := service.OrderPackage(ctx, gig.Packages[1].ID, clientID)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "Сборка мебели (standard)", order.Title)
	assert.Equal(t, 2000.0, order.TotalAmount)
	assert.Equal(t, 200.0, order.PlatformFee)
	assert.Equal(t, 1800.0, order.FixerAmount)
	assert.Equal(t, 2, order.RevisionsAllowed)
	require.NotNil(t, order.PackageID)
	assert.Equal(t, gig.Packages[1].ID, *order.PackageID)
}

func TestGigService_OrderPackageOwnGigRejected(t *testing.T) {
	repo := newMockGigRepository()
	service := NewGigService(repo, newMockOrderRepository(), 10)
	ctx := context.Background()

	fixerID := uuid.New()
	gig, err := service.CreateGig(ctx, CreateGigInput{
		FixerID:  fixerID,
		Title:    "Сборка мебели",
		Packages: validPackages(),
	})
	require.NoError(t, err)

	_, err = service.OrderPackage(ctx, gig.Packages[0].ID, fixerID)
	require.Error(t, err)
}

func TestGigService_OrderInactiveGigRejected(t *testing.T) {
	repo := newMockGigRepository()
	service := NewGigService(repo, newMockOrderRepository(), 10)
	ctx := context.Background()

	gig, err := service.CreateGig(ctx, CreateGigInput{
		FixerID:  uuid.New(),
		Title:    "Сборка мебели",
		Packages: validPackages(),
	})
	require.NoError(t, err)

	require.NoError(t, service.SetActive(ctx, gig.ID, gig.FixerID, false))

	_, err = service.OrderPackage(ctx, gig.Packages[0].ID, uuid.New())
	require.Error(t, err)
}
