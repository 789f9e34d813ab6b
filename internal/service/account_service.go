package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type accountRepository interface {
	List(ctx context.Context) ([]models.IntegrationAccount, error)
	FindByID(ctx context.Context, id string) (*models.IntegrationAccount, error)
	Create(ctx context.Context, account *models.IntegrationAccount) error
	Update(ctx context.Context, account *models.IntegrationAccount) error
	Delete(ctx context.Context, id string) error
	ListPermissions(ctx context.Context, accountID string) ([]models.AccountPermission, error)
	GrantPermission(ctx context.Context, perm *models.AccountPermission) error
	RevokePermission(ctx context.Context, id string) error
}

// CreateAccountRequest captures the creation payload. Tokens are accepted
// opaque and never echoed back.
type CreateAccountRequest struct {
	AccountName  string `json:"account_name" validate:"required"`
	GoogleEmail  string `json:"google_email" validate:"required,email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UpdateAccountRequest carries a partial update; nil fields are left alone.
type UpdateAccountRequest struct {
	AccountName  *string `json:"account_name"`
	GoogleEmail  *string `json:"google_email" validate:"omitempty,email"`
	AccessToken  *string `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
}

// GrantPermissionRequest grants a user access to an integration account.
type GrantPermissionRequest struct {
	UserID          string `json:"user_id" validate:"required"`
	PermissionLevel string `json:"permission_level" validate:"omitempty,oneof=uploader manager"`
}

// AccountService administers integration accounts and permission grants.
type AccountService struct {
	repo      accountRepository
	clock     *Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccountService constructs AccountService.
func NewAccountService(repo accountRepository, clock *Clock, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{repo: repo, clock: clock, validator: validate, logger: logger}
}

// List returns all integration accounts.
func (s *AccountService) List(ctx context.Context) ([]models.IntegrationAccount, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list integration accounts")
	}
	return accounts, nil
}

// Get returns one integration account.
func (s *AccountService) Get(ctx context.Context, id string) (*models.IntegrationAccount, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "integration account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load integration account")
	}
	return account, nil
}

// Create registers an integration account owned by the caller.
func (s *AccountService) Create(ctx context.Context, req CreateAccountRequest, callerID string) (*models.IntegrationAccount, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid account payload")
	}

	account := &models.IntegrationAccount{
		AccountName:  req.AccountName,
		GoogleEmail:  req.GoogleEmail,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		OwnerUserID:  callerID,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create integration account")
	}
	return account, nil
}

// Update applies a partial update.
func (s *AccountService) Update(ctx context.Context, id string, req UpdateAccountRequest) (*models.IntegrationAccount, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid account payload")
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "integration account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load integration account")
	}

	if req.AccountName != nil {
		account.AccountName = *req.AccountName
	}
	if req.GoogleEmail != nil {
		account.GoogleEmail = *req.GoogleEmail
	}
	if req.AccessToken != nil {
		account.AccessToken = *req.AccessToken
	}
	if req.RefreshToken != nil {
		account.RefreshToken = *req.RefreshToken
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update integration account")
	}
	return account, nil
}

// Delete removes an account along with its permission grants.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "integration account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load integration account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete integration account")
	}
	return nil
}

// ListPermissions returns all grants for an account.
func (s *AccountService) ListPermissions(ctx context.Context, accountID string) ([]models.AccountPermission, error) {
	if _, err := s.repo.FindByID(ctx, accountID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "integration account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load integration account")
	}
	perms, err := s.repo.ListPermissions(ctx, accountID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list permissions")
	}
	return perms, nil
}

// GrantPermission allows a user to act through an account.
func (s *AccountService) GrantPermission(ctx context.Context, accountID string, req GrantPermissionRequest) (*models.AccountPermission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid permission payload")
	}
	if _, err := s.repo.FindByID(ctx, accountID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "integration account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load integration account")
	}

	level := req.PermissionLevel
	if level == "" {
		level = "uploader"
	}
	perm := &models.AccountPermission{
		IntegrationAccountID: accountID,
		UserID:               req.UserID,
		PermissionLevel:      level,
	}
	if err := s.repo.GrantPermission(ctx, perm); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grant permission")
	}
	return perm, nil
}

// RevokePermission removes a grant.
func (s *AccountService) RevokePermission(ctx context.Context, permissionID string) error {
	if err := s.repo.RevokePermission(ctx, permissionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke permission")
	}
	return nil
}
