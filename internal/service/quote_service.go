package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/repository"
	"github.com/fixly-app/fixly-backend/internal/validation"
)

// ErrQuoteTaken возвращается при повторном принятии сметы.
var ErrQuoteTaken = errors.New("смета уже принята")

// QuoteRepository описывает взаимодействие сервиса смет с хранилищем.
type QuoteRepository interface {
	Create(ctx context.Context, quote *models.Quote) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Quote, error)
	ListByFixer(ctx context.Context, fixerID uuid.UUID, limit, offset int) ([]models.Quote, error)
	MarkAccepted(ctx context.Context, id uuid.UUID) error
}

// RequestReader читает заявки при выставлении и принятии смет.
type RequestReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// OrderCreator порождает заказ из принятой сметы.
type OrderCreator interface {
	Create(ctx context.Context, order *models.Order) error
	GetByQuoteID(ctx context.Context, quoteID uuid.UUID) (*models.Order, error)
}

// QuoteService содержит бизнес-логику смет и их превращения в заказы.
type QuoteService struct {
	repo       QuoteRepository
	requests   RequestReader
	orders     OrderCreator
	feePercent float64
}

// NewQuoteService создаёт сервис смет. feePercent — платформенный сбор
// в процентах от суммы заказа.
func NewQuoteService(repo QuoteRepository, requests RequestReader, orders OrderCreator, feePercent float64) *QuoteService {
	return &QuoteService{
		repo:       repo,
		requests:   requests,
		orders:     orders,
		feePercent: feePercent,
	}
}

// SubmitQuoteInput описывает смету мастера.
type SubmitQuoteInput struct {
	RequestID          uuid.UUID
	FixerID            uuid.UUID
	Type               string
	LaborCost          *float64
	MaterialCost       *float64
	OtherCosts         *float64
	InspectionFee      *float64
	DownPaymentPercent *float64
	DownPaymentReason  *string
	IsRevised          bool
	RevisionsAllowed   int
}

// SubmitQuote выставляет смету на открытую заявку.
// Прямая смета требует разбивку стоимости, смета с осмотром — только
// стоимость осмотра. Аванс выше нуля требует обоснования.
func (s *QuoteService) SubmitQuote(ctx context.Context, in SubmitQuoteInput) (*models.Quote, error) {
	request, err := s.requests.GetByID(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}

	if request.Status != models.RequestStatusOpen {
		return nil, fmt.Errorf("quote service: заявка закрыта для смет")
	}

	if request.ClientID == in.FixerID {
		return nil, fmt.Errorf("quote service: нельзя выставить смету на свою заявку")
	}

	switch in.Type {
	case models.QuoteTypeDirect:
		if in.LaborCost == nil {
			return nil, fmt.Errorf("quote service: прямая смета требует стоимость работ")
		}
		if err := validation.ValidateAmount("стоимость работ", *in.LaborCost); err != nil {
			return nil, fmt.Errorf("quote service: %w", err)
		}
		if in.MaterialCost != nil {
			if err := validation.ValidateAmount("стоимость материалов", *in.MaterialCost); err != nil {
				return nil, fmt.Errorf("quote service: %w", err)
			}
		}
		if in.OtherCosts != nil {
			if err := validation.ValidateAmount("прочие расходы", *in.OtherCosts); err != nil {
				return nil, fmt.Errorf("quote service: %w", err)
			}
		}
		if in.InspectionFee != nil {
			return nil, fmt.Errorf("quote service: прямая смета не содержит стоимости осмотра")
		}
	case models.QuoteTypeInspectionRequired:
		if in.InspectionFee == nil || *in.InspectionFee <= 0 {
			return nil, fmt.Errorf("quote service: смета с осмотром требует стоимость осмотра")
		}
		if in.LaborCost != nil || in.MaterialCost != nil || in.OtherCosts != nil {
			return nil, fmt.Errorf("quote service: разбивка стоимости указывается после осмотра")
		}
	default:
		return nil, fmt.Errorf("quote service: неизвестный тип сметы %q", in.Type)
	}

	if in.DownPaymentPercent != nil {
		if err := validation.ValidatePercent("процент аванса", *in.DownPaymentPercent); err != nil {
			return nil, fmt.Errorf("quote service: %w", err)
		}
		if *in.DownPaymentPercent > 0 && (in.DownPaymentReason == nil || *in.DownPaymentReason == "") {
			return nil, fmt.Errorf("quote service: аванс требует обоснования")
		}
	}

	if in.RevisionsAllowed < 0 {
		return nil, fmt.Errorf("quote service: лимит доработок не может быть отрицательным")
	}

	quote := &models.Quote{
		RequestID:          in.RequestID,
		FixerID:            in.FixerID,
		Type:               in.Type,
		LaborCost:          in.LaborCost,
		MaterialCost:       in.MaterialCost,
		OtherCosts:         in.OtherCosts,
		InspectionFee:      in.InspectionFee,
		DownPaymentPercent: in.DownPaymentPercent,
		DownPaymentReason:  in.DownPaymentReason,
		IsRevised:          in.IsRevised,
		RevisionsAllowed:   in.RevisionsAllowed,
	}

	if err := s.repo.Create(ctx, quote); err != nil {
		return nil, err
	}

	return quote, nil
}

// AcceptQuote принимает смету и порождает заказ. Принятие одноразовое:
// гонка двух принятий разрешается на уровне хранилища.
func (s *QuoteService) AcceptQuote(ctx context.Context, quoteID, clientID uuid.UUID) (*models.Order, error) {
	quote, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	request, err := s.requests.GetByID(ctx, quote.RequestID)
	if err != nil {
		return nil, err
	}

	if request.ClientID != clientID {
		return nil, fmt.Errorf("quote service: принять смету может только автор заявки")
	}

	if err := s.repo.MarkAccepted(ctx, quoteID); err != nil {
		if errors.Is(err, repository.ErrQuoteAlreadyAccepted) {
			return nil, ErrQuoteTaken
		}
		return nil, err
	}

	total := quote.Total()
	fee := total * s.feePercent / 100

	order := &models.Order{
		ClientID:         request.ClientID,
		FixerID:          quote.FixerID,
		QuoteID:          &quote.ID,
		Title:            request.Title,
		TotalAmount:      total,
		PlatformFee:      fee,
		FixerAmount:      total - fee,
		Status:           models.OrderStatusPending,
		RevisionsAllowed: quote.RevisionsAllowed,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	// Заявка закрывается: остальные сметы теряют силу.
	if err := s.requests.UpdateStatus(ctx, request.ID, models.RequestStatusClosed); err != nil {
		return nil, err
	}

	return order, nil
}

// ListQuotesForRequest возвращает сметы по заявке её автору.
func (s *QuoteService) ListQuotesForRequest(ctx context.Context, requestID, userID uuid.UUID) ([]models.Quote, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request.ClientID != userID {
		return nil, fmt.Errorf("quote service: сметы видит только автор заявки")
	}

	return s.repo.ListByRequest(ctx, requestID)
}

// ListMyQuotes возвращает сметы мастера.
func (s *QuoteService) ListMyQuotes(ctx context.Context, fixerID uuid.UUID, limit, offset int) ([]models.Quote, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.ListByFixer(ctx, fixerID, limit, offset)
}

// GetQuote возвращает смету её мастеру или автору заявки.
func (s *QuoteService) GetQuote(ctx context.Context, quoteID, userID uuid.UUID) (*models.Quote, error) {
	quote, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if quote.FixerID != userID {
		request, err := s.requests.GetByID(ctx, quote.RequestID)
		if err != nil {
			return nil, err
		}
		if request.ClientID != userID {
			return nil, fmt.Errorf("quote service: у вас нет доступа к этой смете")
		}
	}

	return quote, nil
}
