package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type mockUserRepo struct {
	items      map[string]*models.UserAccount
	byUsername map[string]string
	activeSet  map[string]bool
	listResult []models.UserAccount
	listTotal  int
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.UserAccount, int, error) {
	return m.listResult, m.listTotal, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.UserAccount, error) {
	if user, ok := m.items[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	if id, ok := m.byUsername[username]; ok {
		return m.FindByID(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.UserAccount) error {
	if m.items == nil {
		m.items = make(map[string]*models.UserAccount)
	}
	if m.byUsername == nil {
		m.byUsername = make(map[string]string)
	}
	user.ID = "user-generated"
	cp := *user
	m.items[user.ID] = &cp
	m.byUsername[user.Username] = user.ID
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.UserAccount) error {
	cp := *user
	m.items[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	if m.activeSet == nil {
		m.activeSet = make(map[string]bool)
	}
	m.activeSet[id] = active
	m.items[id].Active = active
	return nil
}

func newUserService(repo *mockUserRepo) *UserService {
	clock := NewClock("Australia/Melbourne", 10, zap.NewNop())
	return NewUserService(repo, clock, validator.New(), zap.NewNop())
}

func TestUserServiceCreate(t *testing.T) {
	repo := &mockUserRepo{}
	service := newUserService(repo)

	user, err := service.Create(context.Background(), CreateUserRequest{
		Username: "staff1",
		Email:    "staff1@scimind.example",
		Password: "longenough1",
		Role:     "STAFF",
	})
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.NotEmpty(t, user.PasswordHash)
	stored := repo.items["user-generated"]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("longenough1")))
}

func TestUserServiceCreateDuplicateUsername(t *testing.T) {
	repo := &mockUserRepo{
		items:      map[string]*models.UserAccount{"user-1": {ID: "user-1", Username: "staff1"}},
		byUsername: map[string]string{"staff1": "user-1"},
	}
	service := newUserService(repo)

	_, err := service.Create(context.Background(), CreateUserRequest{
		Username: "staff1",
		Email:    "other@scimind.example",
		Password: "longenough1",
		Role:     "STAFF",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateKeepsUsername(t *testing.T) {
	repo := &mockUserRepo{
		items:      map[string]*models.UserAccount{"user-1": {ID: "user-1", Username: "staff1", Role: models.RoleStaff}},
		byUsername: map[string]string{"staff1": "user-1"},
	}
	service := newUserService(repo)

	role := "ADMIN"
	user, err := service.Update(context.Background(), "user-1", UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "staff1", user.Username)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestUserServiceDeactivateReactivate(t *testing.T) {
	repo := &mockUserRepo{
		items: map[string]*models.UserAccount{"user-1": {ID: "user-1", Username: "staff1", Active: true}},
	}
	service := newUserService(repo)

	require.NoError(t, service.Deactivate(context.Background(), "user-1"))
	assert.False(t, repo.items["user-1"].Active)

	require.NoError(t, service.Reactivate(context.Background(), "user-1"))
	assert.True(t, repo.items["user-1"].Active)
}

func TestUserServiceDeactivateMissing(t *testing.T) {
	service := newUserService(&mockUserRepo{})

	err := service.Deactivate(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
