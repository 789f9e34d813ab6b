package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func accountRow(id, email string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "account_name", "google_email", "access_token", "refresh_token", "owner_user_id", "created_at", "last_synced",
	}).AddRow(id, "Tutoring channel", email, "access", "refresh", "user-1", time.Now(), nil)
}

func TestAccountRepositoryFirstAccountForUser(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery("JOIN account_permissions p ON p.integration_account_id = a.id").
		WithArgs("user-1").
		WillReturnRows(accountRow("acct-1", "channel@scimind.edu"))

	account, err := repo.FirstAccountForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", account.ID)
	assert.Equal(t, "channel@scimind.edu", account.GoogleEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryFirstAccountForUserNoGrant(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectQuery("JOIN account_permissions p ON p.integration_account_id = a.id").
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FirstAccountForUser(context.Background(), "user-2")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryUpdateLastSynced(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE integration_accounts SET last_synced = $1 WHERE id = $2")).
		WithArgs(at, "acct-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLastSynced(context.Background(), "acct-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryDeleteRemovesPermissions(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM account_permissions WHERE integration_account_id").
		WithArgs("acct-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM integration_accounts WHERE id").
		WithArgs("acct-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "acct-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepositoryDeleteRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newAccountMock(t)
	defer cleanup()
	repo := NewAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM account_permissions WHERE integration_account_id").
		WithArgs("acct-1").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	require.Error(t, repo.Delete(context.Background(), "acct-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
