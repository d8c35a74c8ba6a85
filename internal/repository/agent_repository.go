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

// Ошибки агентов.
var (
	ErrAgentNotFound      = errors.New("agent not found")
	ErrAgentAlreadyExists = errors.New("agent already exists for this user")
)

// AgentRepository отвечает за работу с таблицами agents,
// agent_neighborhoods, agent_referrals и commissions.
type AgentRepository struct {
	db *sqlx.DB
}

// NewAgentRepository создаёт экземпляр репозитория.
func NewAgentRepository(db *sqlx.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

const agentColumns = `id, user_id, status, commission_percentage, max_fixers, max_clients,
	pending_changes, status_reason, created_at, updated_at`

// Create создаёт заявку агента вместе с запрошенными районами.
func (r *AgentRepository) Create(ctx context.Context, agent *models.Agent, neighborhoodIDs []uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO agents (user_id, status, commission_percentage, max_fixers, max_clients)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, agent.UserID, agent.Status, agent.CommissionPercentage, agent.MaxFixers, agent.MaxClients).
		Scan(&agent.ID, &agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAgentAlreadyExists
		}
		return fmt.Errorf("agent repository: create %w", err)
	}

	for _, nid := range neighborhoodIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO agent_neighborhoods (agent_id, neighborhood_id, status)
			VALUES ($1, $2, $3)
		`, agent.ID, nid, models.NeighborhoodStatusRequested); err != nil {
			return fmt.Errorf("agent repository: create neighborhood link %w", err)
		}
	}

	return tx.Commit()
}

// GetByID возвращает агента по идентификатору.
func (r *AgentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`
	if err := r.db.GetContext(ctx, &agent, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("agent repository: get by id %w", err)
	}
	return &agent, nil
}

// GetByUserID возвращает агента по пользователю.
func (r *AgentRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	query := `SELECT ` + agentColumns + ` FROM agents WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &agent, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("agent repository: get by user id %w", err)
	}
	return &agent, nil
}

// ListByStatus возвращает агентов в указанном статусе.
func (r *AgentRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Agent, error) {
	var agents []models.Agent
	query := `SELECT ` + agentColumns + ` FROM agents WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &agents, query, status, limit, offset); err != nil {
		return nil, fmt.Errorf("agent repository: list by status %w", err)
	}
	return agents, nil
}

// UpdateStatus переводит агента в новый статус с причиной.
func (r *AgentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE agents SET status = $2, status_reason = $3, updated_at = NOW() WHERE id = $1
	`, id, status, reason)
	if err != nil {
		return fmt.Errorf("agent repository: update status %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("agent repository: update status rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrAgentNotFound
	}

	return nil
}

// UpdateCommission обновляет ставку комиссии.
func (r *AgentRepository) UpdateCommission(ctx context.Context, id uuid.UUID, percentage float64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE agents SET commission_percentage = $2, updated_at = NOW() WHERE id = $1
	`, id, percentage)
	if err != nil {
		return fmt.Errorf("agent repository: update commission %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("agent repository: update commission rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrAgentNotFound
	}

	return nil
}

// SetPendingChanges выставляет или снимает флаг изменений профиля.
func (r *AgentRepository) SetPendingChanges(ctx context.Context, id uuid.UUID, pending bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE agents SET pending_changes = $2, updated_at = NOW() WHERE id = $1
	`, id, pending)
	if err != nil {
		return fmt.Errorf("agent repository: set pending changes %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("agent repository: set pending changes rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrAgentNotFound
	}

	return nil
}

// ListNeighborhoods возвращает привязки районов агента.
func (r *AgentRepository) ListNeighborhoods(ctx context.Context, agentID uuid.UUID) ([]models.AgentNeighborhood, error) {
	var links []models.AgentNeighborhood
	query := `
		SELECT agent_id, neighborhood_id, status, created_at
		FROM agent_neighborhoods WHERE agent_id = $1 ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &links, query, agentID); err != nil {
		return nil, fmt.Errorf("agent repository: list neighborhoods %w", err)
	}
	return links, nil
}

// AddNeighborhoods добавляет привязки районов в указанном статусе.
func (r *AgentRepository) AddNeighborhoods(ctx context.Context, agentID uuid.UUID, neighborhoodIDs []uuid.UUID, status string) error {
	for _, nid := range neighborhoodIDs {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO agent_neighborhoods (agent_id, neighborhood_id, status)
			VALUES ($1, $2, $3)
			ON CONFLICT (agent_id, neighborhood_id) DO NOTHING
		`, agentID, nid, status); err != nil {
			return fmt.Errorf("agent repository: add neighborhoods %w", err)
		}
	}
	return nil
}

// ApproveNeighborhoods переводит привязки requested/pending в approved.
func (r *AgentRepository) ApproveNeighborhoods(ctx context.Context, agentID uuid.UUID, neighborhoodIDs []uuid.UUID) error {
	for _, nid := range neighborhoodIDs {
		if _, err := r.db.ExecContext(ctx, `
			UPDATE agent_neighborhoods SET status = $3
			WHERE agent_id = $1 AND neighborhood_id = $2 AND status IN ($4, $5)
		`, agentID, nid, models.NeighborhoodStatusApproved,
			models.NeighborhoodStatusRequested, models.NeighborhoodStatusPending); err != nil {
			return fmt.Errorf("agent repository: approve neighborhoods %w", err)
		}
	}
	return nil
}

// GetAgentForUserReferral возвращает активного агента, к которому
// привязан пользователь (клиент или мастер).
func (r *AgentRepository) GetAgentForUserReferral(ctx context.Context, userID uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	query := `
		SELECT a.id, a.user_id, a.status, a.commission_percentage, a.max_fixers, a.max_clients,
			a.pending_changes, a.status_reason, a.created_at, a.updated_at
		FROM agents a
		JOIN agent_referrals ar ON ar.agent_id = a.id
		WHERE ar.user_id = $1 AND a.status = $2
	`
	if err := r.db.GetContext(ctx, &agent, query, userID, models.AgentStatusActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAgentNotFound
		}
		return nil, fmt.Errorf("agent repository: get agent for user referral %w", err)
	}
	return &agent, nil
}

// CreateReferral привязывает приведённого пользователя к агенту.
func (r *AgentRepository) CreateReferral(ctx context.Context, ref *models.AgentReferral) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO agent_referrals (agent_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`, ref.AgentID, ref.UserID, ref.Role); err != nil {
		return fmt.Errorf("agent repository: create referral %w", err)
	}
	return nil
}

// CountReferralsByRole возвращает количество приведённых агентом
// пользователей с указанной ролью.
func (r *AgentRepository) CountReferralsByRole(ctx context.Context, agentID uuid.UUID, role string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM agent_referrals WHERE agent_id = $1 AND role = $2
	`, agentID, role); err != nil {
		return 0, fmt.Errorf("agent repository: count referrals by role %w", err)
	}
	return count, nil
}

// CreateCommission начисляет комиссию агенту по заказу.
func (r *AgentRepository) CreateCommission(ctx context.Context, c *models.Commission) error {
	query := `
		INSERT INTO commissions (agent_id, order_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, c.AgentID, c.OrderID, c.Amount).
		Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("agent repository: create commission %w", err)
	}
	return nil
}

// ListCommissions возвращает начисления агента.
func (r *AgentRepository) ListCommissions(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]models.Commission, error) {
	var commissions []models.Commission
	query := `
		SELECT id, agent_id, order_id, amount, created_at
		FROM commissions WHERE agent_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &commissions, query, agentID, limit, offset); err != nil {
		return nil, fmt.Errorf("agent repository: list commissions %w", err)
	}
	return commissions, nil
}

// ListNeighborhoodsDirectory возвращает справочник районов.
func (r *AgentRepository) ListNeighborhoodsDirectory(ctx context.Context) ([]models.Neighborhood, error) {
	var neighborhoods []models.Neighborhood
	if err := r.db.SelectContext(ctx, &neighborhoods, `SELECT id, name, city FROM neighborhoods ORDER BY city, name`); err != nil {
		return nil, fmt.Errorf("agent repository: list neighborhoods directory %w", err)
	}
	return neighborhoods, nil
}
