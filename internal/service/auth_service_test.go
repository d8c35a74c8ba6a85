package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/repository"
)

// mockAuthRepository реализует AuthRepository в памяти.
type mockAuthRepository struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
	sessions     map[string]*models.Session
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
		sessions:     make(map[string]*models.Session),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) AddRole(ctx context.Context, userID uuid.UUID, role string) error {
	user, ok := m.usersByID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if !user.HasRole(role) {
		user.Roles = append(user.Roles, role)
	}
	return nil
}

func (m *mockAuthRepository) CreateSession(ctx context.Context, session *models.Session) error {
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	m.sessions[session.RefreshToken] = session
	return nil
}

func (m *mockAuthRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	delete(m.sessions, refreshToken)
	return nil
}

func (m *mockAuthRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if user, ok := m.usersByID[userID]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func (m *mockAuthRepository) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			sessions = append(sessions, *s)
		}
	}
	return sessions, nil
}

func (m *mockAuthRepository) DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) error {
	for token, s := range m.sessions {
		if s.ID == sessionID && s.UserID == userID {
			delete(m.sessions, token)
			return nil
		}
	}
	return nil
}

func newAuthFixture() (*AuthService, *mockAuthRepository, *TokenManager) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	return NewAuthService(repo, tokenManager), repo, tokenManager
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	service, repo, _ := newAuthFixture()
	ctx := context.Background()

	res, err := service.Register(ctx, RegisterInput{
		Email:    "client@example.com",
		Password: "Password1",
		Role:     models.RoleClient,
	}, map[string]string{"ip": "127.0.0.1"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, res.User.ID)
	assert.True(t, res.User.HasRole(models.RoleClient))
	assert.Equal(t, "client", res.User.Username)
	assert.NotEmpty(t, res.TokenPair.AccessToken)
	assert.Len(t, repo.sessions, 1)

	loginRes, err := service.Login(ctx, LoginInput{
		Email:    "client@example.com",
		Password: "Password1",
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, loginRes.TokenPair.RefreshToken)

	_, err = service.Login(ctx, LoginInput{
		Email:    "client@example.com",
		Password: "WrongPass1",
	}, nil)
	require.Error(t, err)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	service, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "Password1"}, nil)
	require.NoError(t, err)

	_, err = service.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "Password1"}, nil)
	require.Error(t, err)
}

func TestAuthService_RegisterRejectsPrivilegedRoles(t *testing.T) {
	service, _, _ := newAuthFixture()
	ctx := context.Background()

	for _, role := range []string{models.RoleAgent, models.RoleAdmin} {
		_, err := service.Register(ctx, RegisterInput{
			Email:    role + "@example.com",
			Password: "Password1",
			Role:     role,
		}, nil)
		require.Error(t, err, "role %s", role)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	service, repo, tokenManager := newAuthFixture()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("Password1"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: string(hash),
		Roles:        []string{models.RoleFixer},
		IsActive:     true,
	}
	repo.usersByEmail[user.Email] = user
	repo.usersByID[user.ID] = user

	tokenPair, accessExp, refreshExp, err := tokenManager.GeneratePair(user)
	require.NoError(t, err)
	assert.True(t, accessExp.Before(refreshExp))

	repo.sessions[tokenPair.RefreshToken] = &models.Session{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    refreshExp,
	}

	newPair, err := service.Refresh(ctx, tokenPair.RefreshToken, nil)
	require.NoError(t, err)
	assert.NotEqual(t, tokenPair.RefreshToken, newPair.RefreshToken)

	_, ok := repo.sessions[tokenPair.RefreshToken]
	assert.False(t, ok, "старая сессия должна быть удалена")
}

func TestAuthService_AddRole(t *testing.T) {
	service, repo, _ := newAuthFixture()
	ctx := context.Background()

	res, err := service.Register(ctx, RegisterInput{Email: "multi@example.com", Password: "Password1"}, nil)
	require.NoError(t, err)

	require.NoError(t, service.AddRole(ctx, res.User.ID, models.RoleFixer))
	user := repo.usersByID[res.User.ID]
	assert.True(t, user.HasRole(models.RoleClient))
	assert.True(t, user.HasRole(models.RoleFixer))

	require.Error(t, service.AddRole(ctx, res.User.ID, models.RoleAdmin))
}

func TestAuthService_InactiveUserCannotLogin(t *testing.T) {
	service, repo, _ := newAuthFixture()
	ctx := context.Background()

	res, err := service.Register(ctx, RegisterInput{Email: "blocked@example.com", Password: "Password1"}, nil)
	require.NoError(t, err)

	repo.usersByID[res.User.ID].IsActive = false

	_, err = service.Login(ctx, LoginInput{Email: "blocked@example.com", Password: "Password1"}, nil)
	require.Error(t, err)
}

func TestTokenManager_ParseAccessRoles(t *testing.T) {
	tokenManager := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)

	user := &models.User{
		ID:    uuid.New(),
		Roles: []string{models.RoleClient, models.RoleAgent},
	}

	pair, _, _, err := tokenManager.GeneratePair(user)
	require.NoError(t, err)

	userID, roles, err := tokenManager.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, []string{models.RoleClient, models.RoleAgent}, roles)

	_, _, err = tokenManager.ParseAccess("not-a-token")
	require.Error(t, err)
}
