package dto

import (
	"github.com/google/uuid"
)

// RegisterRequest — тело запроса регистрации.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginRequest — тело запроса входа.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest — тело запроса обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AddRoleRequest — запрос на добавление роли пользователю.
type AddRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// CreateRequestRequest — заявка клиента на разовую работу.
type CreateRequestRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description" binding:"required"`
	NeighborhoodID *string  `json:"neighborhood_id"`
	BudgetMin      *float64 `json:"budget_min"`
	BudgetMax      *float64 `json:"budget_max"`
}

// ParseNeighborhoodID возвращает идентификатор района, если он задан.
func (r *CreateRequestRequest) ParseNeighborhoodID() (*uuid.UUID, error) {
	return parseOptionalUUID(r.NeighborhoodID)
}

// SubmitQuoteRequest — смета мастера на заявку.
type SubmitQuoteRequest struct {
	Type               string   `json:"type" binding:"required"`
	LaborCost          *float64 `json:"labor_cost"`
	MaterialCost       *float64 `json:"material_cost"`
	OtherCosts         *float64 `json:"other_costs"`
	InspectionFee      *float64 `json:"inspection_fee"`
	DownPaymentPercent *float64 `json:"down_payment_percent"`
	DownPaymentReason  *string  `json:"down_payment_reason"`
	IsRevised          bool     `json:"is_revised"`
	RevisionsAllowed   int      `json:"revisions_allowed"`
}

// CreateGigRequest — услуга мастера с пакетами.
type CreateGigRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Packages    []GigPackageRequest `json:"packages" binding:"required"`
}

// GigPackageRequest — пакет услуги.
type GigPackageRequest struct {
	Tier             string  `json:"tier" binding:"required"`
	Title            string  `json:"title"`
	Price            float64 `json:"price" binding:"required"`
	DeliveryDays     int     `json:"delivery_days" binding:"required"`
	RevisionsAllowed int     `json:"revisions_allowed"`
}

// SetGigActiveRequest — включение/выключение услуги.
type SetGigActiveRequest struct {
	Active bool `json:"active"`
}

// DeliverOrderRequest — сдача работы мастером.
type DeliverOrderRequest struct {
	Note    string   `json:"note"`
	FileIDs []string `json:"file_ids"`
}

// ParseFileIDs возвращает идентификаторы прикреплённых файлов.
func (r *DeliverOrderRequest) ParseFileIDs() ([]uuid.UUID, error) {
	return parseUUIDSlice(r.FileIDs)
}

// RevisionRequest — запрос клиента на доработку.
type RevisionRequest struct {
	Note string `json:"note" binding:"required"`
}

// OpenDisputeRequest — открытие спора по заказу.
type OpenDisputeRequest struct {
	Reason      string   `json:"reason" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Evidence    []string `json:"evidence"`
}

// DisputeMessageRequest — сообщение в треде спора.
type DisputeMessageRequest struct {
	Message     string `json:"message" binding:"required"`
	IsAdminNote bool   `json:"is_admin_note"`
}

// UpdateDisputeStatusRequest — перевод спора в нетерминальный статус.
type UpdateDisputeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ResolveDisputeRequest — решение администратора по спору.
type ResolveDisputeRequest struct {
	Status       string   `json:"status" binding:"required"`
	Resolution   string   `json:"resolution" binding:"required"`
	RefundAmount *float64 `json:"refund_amount"`
	ReleaseTo    *string  `json:"release_to"`
}

// CreateReviewRequest — отзыв по заказу.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

// AgentApplyRequest — заявка на статус агента.
type AgentApplyRequest struct {
	NeighborhoodIDs []string `json:"neighborhood_ids" binding:"required"`
}

// ParseNeighborhoodIDs возвращает идентификаторы запрошенных районов.
func (r *AgentApplyRequest) ParseNeighborhoodIDs() ([]uuid.UUID, error) {
	return parseUUIDSlice(r.NeighborhoodIDs)
}

// AgentStatusRequest — административный переход статуса агента.
type AgentStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Reason *string `json:"reason"`
}

// AgentCommissionRequest — изменение ставки комиссии агента.
type AgentCommissionRequest struct {
	Percentage float64 `json:"percentage"`
}

// AgentReferralRequest — привязка приведённого пользователя.
type AgentReferralRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// SplitEscrowRequest — частичный возврат средств по решению спора.
type SplitEscrowRequest struct {
	RefundAmount float64 `json:"refund_amount" binding:"required"`
}

// parseOptionalUUID разбирает необязательный UUID из строки.
func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseUUIDSlice разбирает список UUID из строк.
func parseUUIDSlice(strs []string) ([]uuid.UUID, error) {
	if strs == nil {
		return nil, nil
	}

	var uuids []uuid.UUID
	for _, str := range strs {
		if str == "" {
			continue
		}
		parsed, err := uuid.Parse(str)
		if err != nil {
			return nil, err
		}
		uuids = append(uuids, parsed)
	}
	return uuids, nil
}
