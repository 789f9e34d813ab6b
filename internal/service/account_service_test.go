package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type mockAccountRepo struct {
	items   map[string]*models.IntegrationAccount
	perms   map[string]*models.AccountPermission
	deleted []string
	revoked []string
}

func (m *mockAccountRepo) List(ctx context.Context) ([]models.IntegrationAccount, error) {
	var accounts []models.IntegrationAccount
	for _, account := range m.items {
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*models.IntegrationAccount, error) {
	if account, ok := m.items[id]; ok {
		cp := *account
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) Create(ctx context.Context, account *models.IntegrationAccount) error {
	if m.items == nil {
		m.items = make(map[string]*models.IntegrationAccount)
	}
	account.ID = "acct-generated"
	cp := *account
	m.items[account.ID] = &cp
	return nil
}

func (m *mockAccountRepo) Update(ctx context.Context, account *models.IntegrationAccount) error {
	cp := *account
	m.items[account.ID] = &cp
	return nil
}

func (m *mockAccountRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func (m *mockAccountRepo) ListPermissions(ctx context.Context, accountID string) ([]models.AccountPermission, error) {
	var perms []models.AccountPermission
	for _, perm := range m.perms {
		if perm.IntegrationAccountID == accountID {
			perms = append(perms, *perm)
		}
	}
	return perms, nil
}

func (m *mockAccountRepo) GrantPermission(ctx context.Context, perm *models.AccountPermission) error {
	if m.perms == nil {
		m.perms = make(map[string]*models.AccountPermission)
	}
	perm.ID = "perm-generated"
	cp := *perm
	m.perms[perm.ID] = &cp
	return nil
}

func (m *mockAccountRepo) RevokePermission(ctx context.Context, id string) error {
	m.revoked = append(m.revoked, id)
	delete(m.perms, id)
	return nil
}

func newAccountService(repo *mockAccountRepo) *AccountService {
	clock := NewClock("Australia/Melbourne", 10, zap.NewNop())
	return NewAccountService(repo, clock, validator.New(), zap.NewNop())
}

func TestAccountServiceCreate(t *testing.T) {
	repo := &mockAccountRepo{}
	service := newAccountService(repo)

	account, err := service.Create(context.Background(), CreateAccountRequest{
		AccountName:  "Tutoring channel",
		GoogleEmail:  "channel@scimind.edu",
		RefreshToken: "refresh",
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "acct-generated", account.ID)
	assert.Equal(t, "user-1", account.OwnerUserID)
	assert.False(t, account.CreatedAt.IsZero())
}

func TestAccountServiceCreateRejectsBadEmail(t *testing.T) {
	service := newAccountService(&mockAccountRepo{})

	_, err := service.Create(context.Background(), CreateAccountRequest{
		AccountName:  "Tutoring channel",
		GoogleEmail:  "not-an-email",
		RefreshToken: "refresh",
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceGrantPermissionDefaultsLevel(t *testing.T) {
	repo := &mockAccountRepo{items: map[string]*models.IntegrationAccount{
		"acct-1": {ID: "acct-1", AccountName: "Tutoring channel"},
	}}
	service := newAccountService(repo)

	perm, err := service.GrantPermission(context.Background(), "acct-1", GrantPermissionRequest{UserID: "user-2"})
	require.NoError(t, err)
	assert.Equal(t, "uploader", perm.PermissionLevel)
	assert.Equal(t, "acct-1", perm.IntegrationAccountID)
}

func TestAccountServiceGrantPermissionUnknownAccount(t *testing.T) {
	service := newAccountService(&mockAccountRepo{})

	_, err := service.GrantPermission(context.Background(), "acct-gone", GrantPermissionRequest{UserID: "user-2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceGrantPermissionRejectsUnknownLevel(t *testing.T) {
	repo := &mockAccountRepo{items: map[string]*models.IntegrationAccount{
		"acct-1": {ID: "acct-1"},
	}}
	service := newAccountService(repo)

	_, err := service.GrantPermission(context.Background(), "acct-1", GrantPermissionRequest{
		UserID:          "user-2",
		PermissionLevel: "owner",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAccountServiceUpdateKeepsTokensWhenAbsent(t *testing.T) {
	repo := &mockAccountRepo{items: map[string]*models.IntegrationAccount{
		"acct-1": {ID: "acct-1", AccountName: "Tutoring channel", GoogleEmail: "channel@scimind.edu", RefreshToken: "refresh"},
	}}
	service := newAccountService(repo)

	name := "Secondary channel"
	account, err := service.Update(context.Background(), "acct-1", UpdateAccountRequest{AccountName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Secondary channel", account.AccountName)
	assert.Equal(t, "refresh", account.RefreshToken)
}

func TestAccountServiceDeleteMissing(t *testing.T) {
	service := newAccountService(&mockAccountRepo{})

	err := service.Delete(context.Background(), "acct-gone")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
