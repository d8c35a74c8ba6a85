package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fixly-app/fixly-backend/internal/fsm"
	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/repository"
	"github.com/fixly-app/fixly-backend/internal/validation"
)

// Лимиты агента по умолчанию.
const (
	defaultAgentCommission = 10.0
	defaultMaxFixers       = 20
	defaultMaxClients      = 100
)

// ErrAgentNotActive возвращается для операций, требующих активного агента.
var ErrAgentNotActive = errors.New("агент не активен")

// AgentRepository описывает взаимодействие сервиса агентов с хранилищем.
type AgentRepository interface {
	Create(ctx context.Context, agent *models.Agent, neighborhoodIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Agent, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Agent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string) error
	UpdateCommission(ctx context.Context, id uuid.UUID, percentage float64) error
	SetPendingChanges(ctx context.Context, id uuid.UUID, pending bool) error
	ListNeighborhoods(ctx context.Context, agentID uuid.UUID) ([]models.AgentNeighborhood, error)
	AddNeighborhoods(ctx context.Context, agentID uuid.UUID, neighborhoodIDs []uuid.UUID, status string) error
	ApproveNeighborhoods(ctx context.Context, agentID uuid.UUID, neighborhoodIDs []uuid.UUID) error
	CreateReferral(ctx context.Context, ref *models.AgentReferral) error
	CountReferralsByRole(ctx context.Context, agentID uuid.UUID, role string) (int, error)
	ListCommissions(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]models.Commission, error)
	ListNeighborhoodsDirectory(ctx context.Context) ([]models.Neighborhood, error)
}

// RoleGranter добавляет роль пользователю при активации агента.
type RoleGranter interface {
	AddRole(ctx context.Context, userID uuid.UUID, role string) error
}

// AgentService содержит бизнес-логику агентской программы.
type AgentService struct {
	repo  AgentRepository
	users RoleGranter
}

// NewAgentService создаёт сервис агентов.
func NewAgentService(repo AgentRepository, users RoleGranter) *AgentService {
	return &AgentService{
		repo:  repo,
		users: users,
	}
}

// Apply подаёт заявку на статус агента с запрошенными районами.
func (s *AgentService) Apply(ctx context.Context, userID uuid.UUID, neighborhoodIDs []uuid.UUID) (*models.Agent, error) {
	if len(neighborhoodIDs) == 0 {
		return nil, fmt.Errorf("agent service: заявка требует хотя бы один район")
	}

	agent := &models.Agent{
		UserID:               userID,
		Status:               models.AgentStatusPending,
		CommissionPercentage: defaultAgentCommission,
		MaxFixers:            defaultMaxFixers,
		MaxClients:           defaultMaxClients,
	}

	if err := s.repo.Create(ctx, agent, neighborhoodIDs); err != nil {
		return nil, err
	}

	return agent, nil
}

// GetMyAgent возвращает агентский профиль пользователя с районами.
func (s *AgentService) GetMyAgent(ctx context.Context, userID uuid.UUID) (*models.Agent, error) {
	agent, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	links, err := s.repo.ListNeighborhoods(ctx, agent.ID)
	if err == nil {
		agent.Neighborhoods = links
	}

	return agent, nil
}

// ListByStatus возвращает агентов в статусе (очередь администратора).
func (s *AgentService) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Agent, error) {
	if _, ok := models.ValidAgentStatuses[status]; !ok {
		return nil, fmt.Errorf("agent service: неизвестный статус агента %q", status)
	}
	limit, offset = normalizePage(limit, offset)
	return s.repo.ListByStatus(ctx, status, limit, offset)
}

// Approve утверждает заявку агента: статус active, запрошенные районы
// становятся утверждёнными, пользователю добавляется роль agent.
func (s *AgentService) Approve(ctx context.Context, agentID uuid.UUID) (*models.Agent, error) {
	agent, err := s.repo.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	if err := fsm.ValidateAgentTransition(agent.Status, models.AgentStatusActive); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, agentID, models.AgentStatusActive, nil); err != nil {
		return nil, err
	}

	links, err := s.repo.ListNeighborhoods(ctx, agentID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		if link.Status == models.NeighborhoodStatusRequested {
			ids = append(ids, link.NeighborhoodID)
		}
	}
	if len(ids) > 0 {
		if err := s.repo.ApproveNeighborhoods(ctx, agentID, ids); err != nil {
			return nil, err
		}
	}

	if err := s.users.AddRole(ctx, agent.UserID, models.RoleAgent); err != nil {
		return nil, err
	}

	agent.Status = models.AgentStatusActive
	return agent, nil
}

// ChangeStatus выполняет административный переход статуса агента.
// Приостановка и бан требуют причины.
func (s *AgentService) ChangeStatus(ctx context.Context, agentID uuid.UUID, status string, reason *string) (*models.Agent, error) {
	agent, err := s.repo.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	if err := fsm.ValidateAgentTransition(agent.Status, status); err != nil {
		return nil, err
	}

	if fsm.AgentTransitionRequiresReason(status) && (reason == nil || *reason == "") {
		return nil, fmt.Errorf("agent service: переход в статус %s требует причины", status)
	}

	if err := s.repo.UpdateStatus(ctx, agentID, status, reason); err != nil {
		return nil, err
	}

	agent.Status = status
	agent.StatusReason = reason
	return agent, nil
}

// UpdateCommission меняет ставку комиссии агента. Значение вне
// диапазона [0, 100] отклоняется, а не обрезается.
func (s *AgentService) UpdateCommission(ctx context.Context, agentID uuid.UUID, percentage float64) error {
	if err := validation.ValidatePercent("процент комиссии", percentage); err != nil {
		return fmt.Errorf("agent service: %w", err)
	}

	return s.repo.UpdateCommission(ctx, agentID, percentage)
}

// SubmitProfileChanges помечает профиль агента ожидающим модерации.
func (s *AgentService) SubmitProfileChanges(ctx context.Context, userID uuid.UUID) error {
	agent, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if agent.Status != models.AgentStatusActive {
		return ErrAgentNotActive
	}

	return s.repo.SetPendingChanges(ctx, agent.ID, true)
}

// ApproveProfileChanges снимает флаг модерации профиля.
func (s *AgentService) ApproveProfileChanges(ctx context.Context, agentID uuid.UUID) error {
	return s.repo.SetPendingChanges(ctx, agentID, false)
}

// RequestNeighborhoods дозапрашивает районы для активного агента.
// Новые привязки ждут утверждения администратором.
func (s *AgentService) RequestNeighborhoods(ctx context.Context, userID uuid.UUID, neighborhoodIDs []uuid.UUID) error {
	if len(neighborhoodIDs) == 0 {
		return fmt.Errorf("agent service: не указаны районы")
	}

	agent, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if agent.Status != models.AgentStatusActive {
		return ErrAgentNotActive
	}

	return s.repo.AddNeighborhoods(ctx, agent.ID, neighborhoodIDs, models.NeighborhoodStatusPending)
}

// ApproveNeighborhoods утверждает запрошенные районы агента.
func (s *AgentService) ApproveNeighborhoods(ctx context.Context, agentID uuid.UUID, neighborhoodIDs []uuid.UUID) error {
	if len(neighborhoodIDs) == 0 {
		return fmt.Errorf("agent service: не указаны районы")
	}
	return s.repo.ApproveNeighborhoods(ctx, agentID, neighborhoodIDs)
}

// ReferUser привязывает приведённого пользователя к активному агенту
// с учётом лимитов на количество мастеров и клиентов.
func (s *AgentService) ReferUser(ctx context.Context, agentUserID, userID uuid.UUID, role string) error {
	if role != models.RoleClient && role != models.RoleFixer {
		return fmt.Errorf("agent service: реферал может быть клиентом или мастером")
	}

	agent, err := s.repo.GetByUserID(ctx, agentUserID)
	if err != nil {
		return err
	}

	if agent.Status != models.AgentStatusActive {
		return ErrAgentNotActive
	}

	count, err := s.repo.CountReferralsByRole(ctx, agent.ID, role)
	if err != nil {
		return err
	}

	limit := agent.MaxClients
	if role == models.RoleFixer {
		limit = agent.MaxFixers
	}
	if count >= limit {
		return fmt.Errorf("agent service: лимит рефералов с ролью %s исчерпан", role)
	}

	return s.repo.CreateReferral(ctx, &models.AgentReferral{
		AgentID: agent.ID,
		UserID:  userID,
		Role:    role,
	})
}

// ListMyCommissions возвращает начисления агента.
func (s *AgentService) ListMyCommissions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Commission, error) {
	agent, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit, offset = normalizePage(limit, offset)
	return s.repo.ListCommissions(ctx, agent.ID, limit, offset)
}

// ListNeighborhoodsDirectory возвращает справочник районов.
func (s *AgentService) ListNeighborhoodsDirectory(ctx context.Context) ([]models.Neighborhood, error) {
	return s.repo.ListNeighborhoodsDirectory(ctx)
}

// IsActiveAgent сообщает, является ли пользователь активным агентом.
func (s *AgentService) IsActiveAgent(ctx context.Context, userID uuid.UUID) (bool, error) {
	agent, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrAgentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return agent.Status == models.AgentStatusActive, nil
}
