package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/validation"
)

// RequestRepository описывает взаимодействие сервиса заявок с хранилищем.
type RequestRepository interface {
	Create(ctx context.Context, req *models.ServiceRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	List(ctx context.Context, limit, offset int) ([]models.ServiceRequest, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// RequestService содержит бизнес-логику заявок клиентов.
type RequestService struct {
	repo RequestRepository
}

// NewRequestService создаёт сервис заявок.
func NewRequestService(repo RequestRepository) *RequestService {
	return &RequestService{repo: repo}
}

// CreateRequestInput описывает новую заявку.
type CreateRequestInput struct {
	ClientID       uuid.UUID
	NeighborhoodID *uuid.UUID
	Title          string
	Description    string
	BudgetMin      *float64
	BudgetMax      *float64
}

// CreateRequest публикует заявку клиента.
func (s *RequestService) CreateRequest(ctx context.Context, in CreateRequestInput) (*models.ServiceRequest, error) {
	if err := validation.ValidateRequestTitle(in.Title); err != nil {
		return nil, fmt.Errorf("request service: %w", err)
	}
	if err := validation.ValidateRequestDescription(in.Description); err != nil {
		return nil, fmt.Errorf("request service: %w", err)
	}
	if err := validation.ValidateBudget(in.BudgetMin, in.BudgetMax); err != nil {
		return nil, fmt.Errorf("request service: %w", err)
	}

	request := &models.ServiceRequest{
		ClientID:       in.ClientID,
		NeighborhoodID: in.NeighborhoodID,
		Title:          in.Title,
		Description:    in.Description,
		BudgetMin:      in.BudgetMin,
		BudgetMax:      in.BudgetMax,
		Status:         models.RequestStatusOpen,
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}

	return request, nil
}

// GetRequest возвращает заявку по идентификатору.
func (s *RequestService) GetRequest(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	return s.repo.GetByID(ctx, id)
}

// ListOpenRequests возвращает открытые заявки для мастеров.
func (s *RequestService) ListOpenRequests(ctx context.Context, limit, offset int) ([]models.ServiceRequest, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.List(ctx, limit, offset)
}

// ListMyRequests возвращает заявки клиента.
func (s *RequestService) ListMyRequests(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.ListByClient(ctx, clientID, limit, offset)
}

// CancelRequest снимает открытую заявку с публикации.
func (s *RequestService) CancelRequest(ctx context.Context, id, clientID uuid.UUID) error {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if request.ClientID != clientID {
		return fmt.Errorf("request service: отменить заявку может только её автор")
	}

	if request.Status != models.RequestStatusOpen {
		return fmt.Errorf("request service: заявка уже закрыта")
	}

	return s.repo.UpdateStatus(ctx, id, models.RequestStatusCancelled)
}
