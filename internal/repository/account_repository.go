package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scimind/portal-api/internal/models"
)

// AccountRepository handles integration accounts and their permissions.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository constructs the repository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, account_name, google_email, access_token, refresh_token, owner_user_id, created_at, last_synced`

// List returns all integration accounts.
func (r *AccountRepository) List(ctx context.Context) ([]models.IntegrationAccount, error) {
	query := fmt.Sprintf(`SELECT %s FROM integration_accounts ORDER BY created_at`, accountColumns)
	var accounts []models.IntegrationAccount
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("list integration accounts: %w", err)
	}
	return accounts, nil
}

// FindByID returns one integration account.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.IntegrationAccount, error) {
	query := fmt.Sprintf(`SELECT %s FROM integration_accounts WHERE id = $1`, accountColumns)
	var account models.IntegrationAccount
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByGoogleEmail returns the account registered under a Google email.
func (r *AccountRepository) FindByGoogleEmail(ctx context.Context, email string) (*models.IntegrationAccount, error) {
	query := fmt.Sprintf(`SELECT %s FROM integration_accounts WHERE google_email = $1`, accountColumns)
	var account models.IntegrationAccount
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		return nil, err
	}
	return &account, nil
}

// Create persists an integration account.
func (r *AccountRepository) Create(ctx context.Context, account *models.IntegrationAccount) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	const query = `INSERT INTO integration_accounts (id, account_name, google_email, access_token, refresh_token, owner_user_id, created_at, last_synced)
VALUES (:id, :account_name, :google_email, :access_token, :refresh_token, :owner_user_id, :created_at, :last_synced)`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("create integration account: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an account.
func (r *AccountRepository) Update(ctx context.Context, account *models.IntegrationAccount) error {
	const query = `UPDATE integration_accounts SET account_name = :account_name, google_email = :google_email,
access_token = :access_token, refresh_token = :refresh_token WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, account)
	if err != nil {
		return fmt.Errorf("update integration account: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("integration account %s not found", account.ID)
	}
	return nil
}

// UpdateLastSynced stamps the account after a successful reconciliation.
func (r *AccountRepository) UpdateLastSynced(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE integration_accounts SET last_synced = $1 WHERE id = $2`, at, id); err != nil {
		return fmt.Errorf("stamp last synced: %w", err)
	}
	return nil
}

// Delete removes an account and its permission grants.
func (r *AccountRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin account delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM account_permissions WHERE integration_account_id = $1`, id); err != nil {
		return fmt.Errorf("delete account permissions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM integration_accounts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete integration account: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit account delete: %w", err)
	}
	return nil
}

// ListPermissions returns all grants for an account.
func (r *AccountRepository) ListPermissions(ctx context.Context, accountID string) ([]models.AccountPermission, error) {
	var perms []models.AccountPermission
	query := `SELECT id, integration_account_id, user_id, permission_level FROM account_permissions WHERE integration_account_id = $1`
	if err := r.db.SelectContext(ctx, &perms, query, accountID); err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

// FirstAccountForUser resolves the integration account a user may act through,
// picking the earliest grant when several exist.
func (r *AccountRepository) FirstAccountForUser(ctx context.Context, userID string) (*models.IntegrationAccount, error) {
	const query = `SELECT a.id, a.account_name, a.google_email, a.access_token, a.refresh_token, a.owner_user_id, a.created_at, a.last_synced
FROM integration_accounts a
JOIN account_permissions p ON p.integration_account_id = a.id
WHERE p.user_id = $1
ORDER BY a.created_at
LIMIT 1`
	var account models.IntegrationAccount
	if err := r.db.GetContext(ctx, &account, query, userID); err != nil {
		return nil, err
	}
	return &account, nil
}

// GrantPermission inserts a permission row.
func (r *AccountRepository) GrantPermission(ctx context.Context, perm *models.AccountPermission) error {
	if perm.ID == "" {
		perm.ID = uuid.NewString()
	}
	const query = `INSERT INTO account_permissions (id, integration_account_id, user_id, permission_level)
VALUES (:id, :integration_account_id, :user_id, :permission_level)`
	if _, err := r.db.NamedExecContext(ctx, query, perm); err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}

// RevokePermission removes a permission row.
func (r *AccountRepository) RevokePermission(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM account_permissions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}
	return nil
}
