package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fixly-app/fixly-backend/internal/models"
)

// Тарифы пакетов услуги.
var validTiers = map[string]struct{}{
	"basic":    {},
	"standard": {},
	"premium":  {},
}

// GigRepository описывает взаимодействие сервиса услуг с хранилищем.
type GigRepository interface {
	Create(ctx context.Context, gig *models.Gig) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
	GetPackage(ctx context.Context, packageID uuid.UUID) (*models.GigPackage, error)
	List(ctx context.Context, limit, offset int) ([]models.Gig, error)
	ListByFixer(ctx context.Context, fixerID uuid.UUID) ([]models.Gig, error)
	SetActive(ctx context.Context, id uuid.UUID, fixerID uuid.UUID, active bool) error
}

// GigService содержит бизнес-логику услуг с фиксированными пакетами.
type GigService struct {
	repo       GigRepository
	orders     OrderCreator
	feePercent float64
}

// NewGigService создаёт сервис услуг.
func NewGigService(repo GigRepository, orders OrderCreator, feePercent float64) *GigService {
	return &GigService{
		repo:       repo,
		orders:     orders,
		feePercent: feePercent,
	}
}

// CreateGigInput описывает новую услугу.
type CreateGigInput struct {
	FixerID     uuid.UUID
	Title       string
	Description string
	Packages    []models.GigPackage
}

// CreateGig публикует услугу мастера с пакетами.
func (s *GigService) CreateGig(ctx context.Context, in CreateGigInput) (*models.Gig, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("gig service: название услуги обязательно")
	}
	if len(in.Packages) == 0 || len(in.Packages) > 3 {
		return nil, fmt.Errorf("gig service: услуга содержит от одного до трёх пакетов")
	}

	seen := make(map[string]struct{}, len(in.Packages))
	for _, pkg := range in.Packages {
		if _, ok := validTiers[pkg.Tier]; !ok {
			return nil, fmt.Errorf("gig service: неизвестный тариф %q", pkg.Tier)
		}
		if _, dup := seen[pkg.Tier]; dup {
			return nil, fmt.Errorf("gig service: тариф %q указан дважды", pkg.Tier)
		}
		seen[pkg.Tier] = struct{}{}

		if pkg.Price <= 0 {
			return nil, fmt.Errorf("gig service: цена пакета должна быть положительной")
		}
		if pkg.DeliveryDays <= 0 {
			return nil, fmt.Errorf("gig service: срок выполнения должен быть положительным")
		}
		if pkg.RevisionsAllowed < 0 {
			return nil, fmt.Errorf("gig service: лимит доработок не может быть отрицательным")
		}
	}

	gig := &models.Gig{
		FixerID:     in.FixerID,
		Title:       in.Title,
		Description: in.Description,
		Packages:    in.Packages,
	}

	if err := s.repo.Create(ctx, gig); err != nil {
		return nil, err
	}

	return gig, nil
}

// GetGig возвращает услугу с пакетами.
func (s *GigService) GetGig(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	return s.repo.GetByID(ctx, id)
}

// ListGigs возвращает активные услуги.
func (s *GigService) ListGigs(ctx context.Context, limit, offset int) ([]models.Gig, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.List(ctx, limit, offset)
}

// ListMyGigs возвращает услуги мастера.
func (s *GigService) ListMyGigs(ctx context.Context, fixerID uuid.UUID) ([]models.Gig, error) {
	return s.repo.ListByFixer(ctx, fixerID)
}

// SetActive включает или выключает услугу.
func (s *GigService) SetActive(ctx context.Context, gigID, fixerID uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, gigID, fixerID, active)
}

// OrderPackage создаёт заказ из пакета услуги по фиксированной цене.
func (s *GigService) OrderPackage(ctx context.Context, packageID, clientID uuid.UUID) (*models.Order, error) {
	pkg, err := s.repo.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}

	gig, err := s.repo.GetByID(ctx, pkg.GigID)
	if err != nil {
		return nil, err
	}

	if !gig.IsActive {
		return nil, fmt.Errorf("gig service: услуга снята с публикации")
	}

	if gig.FixerID == clientID {
		return nil, fmt.Errorf("gig service: нельзя заказать собственную услугу")
	}

	fee := pkg.Price * s.feePercent / 100

	order := &models.Order{
		ClientID:         clientID,
		FixerID:          gig.FixerID,
		PackageID:        &pkg.ID,
		Title:            fmt.Sprintf("%s (%s)", gig.Title, pkg.Tier),
		TotalAmount:      pkg.Price,
		PlatformFee:      fee,
		FixerAmount:      pkg.Price - fee,
		Status:           models.OrderStatusPending,
		RevisionsAllowed: pkg.RevisionsAllowed,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}
