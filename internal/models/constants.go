package models

// Роли пользователей платформы
const (
	RoleClient = "client"
	RoleFixer  = "fixer"
	RoleAgent  = "agent"
	RoleAdmin  = "admin"
)

// OrderStatus константы статусов заказов
const (
	OrderStatusPending    = "pending"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusPaid       = "paid"
	OrderStatusSettled    = "settled"
	OrderStatusCancelled  = "cancelled"
)

// DisputeStatus константы статусов споров
const (
	DisputeStatusOpen        = "open"
	DisputeStatusUnderReview = "under_review"
	DisputeStatusResolved    = "resolved"
	DisputeStatusClosed      = "closed"
	DisputeStatusEscalated   = "escalated"
)

// AgentStatus константы статусов агентов
const (
	AgentStatusPending   = "pending"
	AgentStatusActive    = "active"
	AgentStatusSuspended = "suspended"
	AgentStatusRejected  = "rejected"
	AgentStatusBanned    = "banned"
)

// QuoteType константы типов смет
const (
	QuoteTypeDirect             = "direct"
	QuoteTypeInspectionRequired = "inspection_required"
)

// RequestStatus константы статусов заявок на услуги
const (
	RequestStatusOpen      = "open"
	RequestStatusClosed    = "closed"
	RequestStatusCancelled = "cancelled"
)

// ReleaseTo варианты распределения средств при разрешении спора
const (
	ReleaseToClient  = "client"
	ReleaseToFixer   = "fixer"
	ReleaseToPartial = "partial"
)

// NeighborhoodStatus статусы привязки района к агенту
const (
	NeighborhoodStatusRequested = "requested"
	NeighborhoodStatusApproved  = "approved"
	NeighborhoodStatusPending   = "pending"
)

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleClient: {},
	RoleFixer:  {},
	RoleAgent:  {},
	RoleAdmin:  {},
}

// ValidOrderStatuses список валидных статусов заказов
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusPending:    {},
	OrderStatusInProgress: {},
	OrderStatusCompleted:  {},
	OrderStatusPaid:       {},
	OrderStatusSettled:    {},
	OrderStatusCancelled:  {},
}

// ValidDisputeStatuses список валидных статусов споров
var ValidDisputeStatuses = map[string]struct{}{
	DisputeStatusOpen:        {},
	DisputeStatusUnderReview: {},
	DisputeStatusResolved:    {},
	DisputeStatusClosed:      {},
	DisputeStatusEscalated:   {},
}

// ValidAgentStatuses список валидных статусов агентов
var ValidAgentStatuses = map[string]struct{}{
	AgentStatusPending:   {},
	AgentStatusActive:    {},
	AgentStatusSuspended: {},
	AgentStatusRejected:  {},
	AgentStatusBanned:    {},
}

// ValidDisputeReasons закрытый перечень причин спора
var ValidDisputeReasons = map[string]struct{}{
	"quality":        {},
	"not_delivered":  {},
	"overcharged":    {},
	"communication":  {},
	"scope_mismatch": {},
	"other":          {},
}

// ValidReleaseTo список валидных направлений выплаты
var ValidReleaseTo = map[string]struct{}{
	ReleaseToClient:  {},
	ReleaseToFixer:   {},
	ReleaseToPartial: {},
}
