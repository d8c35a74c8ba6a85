package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixly-app/fixly-backend/internal/fsm"
	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/repository"
)

// mockAgentRepository реализует AgentRepository в памяти.
type mockAgentRepository struct {
	agents        map[uuid.UUID]*models.Agent
	byUser        map[uuid.UUID]uuid.UUID
	neighborhoods map[uuid.UUID][]models.AgentNeighborhood
	referrals     []models.AgentReferral
	commissions   map[uuid.UUID][]models.Commission
}

func newMockAgentRepository() *mockAgentRepository {
	return &mockAgentRepository{
		agents:        make(map[uuid.UUID]*models.Agent),
		byUser:        make(map[uuid.UUID]uuid.UUID),
		neighborhoods: make(map[uuid.UUID][]models.AgentNeighborhood),
		commissions:   make(map[uuid.UUID][]models.Commission),
	}
}

func (m *mockAgentRepository) Create(ctx context.Context, agent *models.Agent, neighborhoodIDs []uuid.UUID) error {
	if _, ok := m.byUser[agent.UserID]; ok {
		return repository.ErrAgentAlreadyExists
	}
	agent.ID = uuid.New()
	m.agents[agent.ID] = agent
	m.byUser[agent.UserID] = agent.ID
	for _, nid := range neighborhoodIDs {
		m.neighborhoods[agent.ID] = append(m.neighborhoods[agent.ID], models.AgentNeighborhood{
			AgentID:        agent.ID,
			NeighborhoodID: nid,
			Status:         models.NeighborhoodStatusRequested,
		})
	}
	return nil
}

func (m *mockAgentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	if a, ok := m.agents[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, repository.ErrAgentNotFound
}

func (m *mockAgentRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Agent, error) {
	if id, ok := m.byUser[userID]; ok {
		return m.GetByID(ctx, id)
	}
	return nil, repository.ErrAgentNotFound
}

func (m *mockAgentRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Agent, error) {
	var result []models.Agent
	for _, a := range m.agents {
		if a.Status == status {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAgentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, reason *string) error {
	a, ok := m.agents[id]
	if !ok {
		return repository.ErrAgentNotFound
	}
	a.Status = status
	a.StatusReason = reason
	return nil
}

func (m *mockAgentRepository) UpdateCommission(ctx context.Context, id uuid.UUID, percentage float64) error {
	a, ok := m.agents[id]
	if !ok {
		return repository.ErrAgentNotFound
	}
	a.CommissionPercentage = percentage
	return nil
}

func (m *mockAgentRepository) SetPendingChanges(ctx context.Context, id uuid.UUID, pending bool) error {
	a, ok := m.agents[id]
	if !ok {
		return repository.ErrAgentNotFound
	}
	a.PendingChanges = pending
	return nil
}

func (m *mockAgentRepository) ListNeighborhoods(ctx context.Context, agentID uuid.UUID) ([]models.AgentNeighborhood, error) {
	return m.neighborhoods[agentID], nil
}

func (m *mockAgentRepository) AddNeighborhoods(ctx context.Context, agentID uuid.UUID, neighborhoodIDs []uuid.UUID, status string) error {
	for _, nid := range neighborhoodIDs {
		m.neighborhoods[agentID] = append(m.neighborhoods[agentID], models.AgentNeighborhood{
			AgentID:        agentID,
			NeighborhoodID: nid,
			Status:         status,
		})
	}
	return nil
}

func (m *mockAgentRepository) ApproveNeighborhoods(ctx context.Context, agentID uuid.UUID, neighborhoodIDs []uuid.UUID) error {
	links := m.neighborhoods[agentID]
	for i := range links {
		for _, nid := range neighborhoodIDs {
			if links[i].NeighborhoodID == nid {
				links[i].Status = models.NeighborhoodStatusApproved
			}
		}
	}
	return nil
}

func (m *mockAgentRepository) CreateReferral(ctx context.Context, ref *models.AgentReferral) error {
	m.referrals = append(m.referrals, *ref)
	return nil
}

func (m *mockAgentRepository) CountReferralsByRole(ctx context.Context, agentID uuid.UUID, role string) (int, error) {
	count := 0
	for _, ref := range m.referrals {
		if ref.AgentID == agentID && ref.Role == role {
			count++
		}
	}
	return count, nil
}

func (m *mockAgentRepository) ListCommissions(ctx context.Context, agentID uuid.UUID, limit, offset int) ([]models.Commission, error) {
	return m.commissions[agentID], nil
}

func (m *mockAgentRepository) ListNeighborhoodsDirectory(ctx context.Context) ([]models.Neighborhood, error) {
	return nil, nil
}

// mockRoleGranter записывает выданные роли.
type mockRoleGranter struct {
	granted map[uuid.UUID][]string
}

func newMockRoleGranter() *mockRoleGranter {
	return &mockRoleGranter{granted: make(map[uuid.UUID][]string)}
}

func (m *mockRoleGranter) AddRole(ctx context.Context, userID uuid.UUID, role string) error {
	m.granted[userID] = append(m.granted[userID], role)
	return nil
}

type agentFixture struct {
	service *AgentService
	repo    *mockAgentRepository
	users   *mockRoleGranter
}

func newAgentFixture(t *testing.T) *agentFixture {
	t.Helper()
	repo := newMockAgentRepository()
	users := newMockRoleGranter()
	return &agentFixture{
		service: NewAgentService(repo, users),
		repo:    repo,
		users:   users,
	}
}

func (f *agentFixture) apply(t *testing.T) *models.Agent {
	t.Helper()
	agent, err := f.service.Apply(context.Background(), uuid.New(), []uuid.UUID{uuid.New(), uuid.New()})
	require.NoError(t, err)
	return agent
}

func TestAgentService_ApplyDefaults(t *testing.T) {
	f := newAgentFixture(t)

	agent := f.apply(t)
	assert.Equal(t, models.AgentStatusPending, agent.Status)
	assert.Equal(t, 10.0, agent.CommissionPercentage)
	assert.Equal(t, 20, agent.MaxFixers)
	assert.Equal(t, 100, agent.MaxClients)
}

func TestAgentService_ApplyRequiresNeighborhoods(t *testing.T) {
	f := newAgentFixture(t)

	_, err := f.service.Apply(context.Background(), uuid.New(), nil)
	require.Error(t, err)
}

func TestAgentService_ApproveActivatesAndGrantsRole(t *testing.T) {
	f := newAgentFixture(t)
	agent := f.apply(t)
	ctx := context.Background()

	approved, err := f.service.Approve(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AgentStatusActive, approved.Status)

	links, err := f.repo.ListNeighborhoods(ctx, agent.ID)
	require.NoError(t, err)
	for _, link := range links {
		assert.Equal(t, models.NeighborhoodStatusApproved, link.Status)
	}

	assert.Contains(t, f.users.granted[agent.UserID], models.RoleAgent)
}

func TestAgentService_StatusMachine(t *testing.T) {
	f := newAgentFixture(t)
	agent := f.apply(t)
	ctx := context.Background()

	// Приостановка без причины отклоняется.
	_, err := f.service.Approve(ctx, agent.ID)
	require.NoError(t, err)

	_, err = f.service.ChangeStatus(ctx, agent.ID, models.AgentStatusSuspended, nil)
	require.Error(t, err)

	reason := "Жалобы от пользователей района"
	suspended, err := f.service.ChangeStatus(ctx, agent.ID, models.AgentStatusSuspended, &reason)
	require.NoError(t, err)
	assert.Equal(t, models.AgentStatusSuspended, suspended.Status)
	require.NotNil(t, suspended.StatusReason)

	// Возврат в active допустим, бан терминален.
	_, err = f.service.ChangeStatus(ctx, agent.ID, models.AgentStatusActive, nil)
	require.NoError(t, err)

	banReason := "Мошенничество"
	_, err = f.service.ChangeStatus(ctx, agent.ID, models.AgentStatusBanned, &banReason)
	require.NoError(t, err)

	_, err = f.service.ChangeStatus(ctx, agent.ID, models.AgentStatusActive, nil)
	assert.ErrorIs(t, err, fsm.ErrInvalidTransition)
}

func TestAgentService_CommissionRange(t *testing.T) {
	f := newAgentFixture(t)
	agent := f.apply(t)
	ctx := context.Background()

	require.Error(t, f.service.UpdateCommission(ctx, agent.ID, -1))
	require.Error(t, f.service.UpdateCommission(ctx, agent.ID, 101))
	require.NoError(t, f.service.UpdateCommission(ctx, agent.ID, 25))

	got, err := f.repo.GetByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, got.CommissionPercentage)
}

func TestAgentService_ReferralCaps(t *testing.T) {
	f := newAgentFixture(t)
	agent := f.apply(t)
	ctx := context.Background()

	_, err := f.service.Approve(ctx, agent.ID)
	require.NoError(t, err)

	stored := f.repo.agents[agent.ID]
	stored.MaxFixers = 1

	require.NoError(t, f.service.ReferUser(ctx, agent.UserID, uuid.New(), models.RoleFixer))
	require.Error(t, f.service.ReferUser(ctx, agent.UserID, uuid.New(), models.RoleFixer))

	// Лимит клиентов считается отдельно.
	require.NoError(t, f.service.ReferUser(ctx, agent.UserID, uuid.New(), models.RoleClient))

	require.Error(t, f.service.ReferUser(ctx, agent.UserID, uuid.New(), models.RoleAdmin))
}

func TestAgentService_ReferUserRequiresActiveAgent(t *testing.T) {
	f := newAgentFixture(t)
	agent := f.apply(t)

	err := f.service.ReferUser(context.Background(), agent.UserID, uuid.New(), models.RoleClient)
	assert.ErrorIs(t, err, ErrAgentNotActive)
}

func TestAgentService_RequestNeighborhoodsPendingStatus(t *testing.T) {
	f := newAgentFixture(t)
	agent := f.apply(t)
	ctx := context.Background()

	// До активации дозапрос недоступен.
	err := f.service.RequestNeighborhoods(ctx, agent.UserID, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, ErrAgentNotActive)

	_, err = f.service.Approve(ctx, agent.ID)
	require.NoError(t, err)

	extra := uuid.New()
	require.NoError(t, f.service.RequestNeighborhoods(ctx, agent.UserID, []uuid.UUID{extra}))

	links, err := f.repo.ListNeighborhoods(ctx, agent.ID)
	require.NoError(t, err)

	var found bool
	for _, link := range links {
		if link.NeighborhoodID == extra {
			found = true
			assert.Equal(t, models.NeighborhoodStatusPending, link.Status)
		}
	}
	assert.True(t, found)
}

func TestAgentService_IsActiveAgent(t *testing.T) {
	f := newAgentFixture(t)
	agent := f.apply(t)
	ctx := context.Background()

	active, err := f.service.IsActiveAgent(ctx, agent.UserID)
	require.NoError(t, err)
	assert.False(t, active)

	_, err = f.service.Approve(ctx, agent.ID)
	require.NoError(t, err)

	active, err = f.service.IsActiveAgent(ctx, agent.UserID)
	require.NoError(t, err)
	assert.True(t, active)

	// Для пользователя без агентского профиля ошибки нет.
	active, err = f.service.IsActiveAgent(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, active)
}
