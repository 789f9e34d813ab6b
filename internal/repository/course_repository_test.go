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

	"github.com/scimind/portal-api/internal/models"
)

func newCourseMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryReconcile(t *testing.T) {
	db, mock, cleanup := newCourseMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	userID := "user-1"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM classroom_courses WHERE course_id").
		WithArgs("course-new").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO classroom_courses").
		WithArgs(sqlmock.AnyArg(), "course-new", "Maths Term 3", "Year 10", "join-1", "acct-1", &userID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT id FROM classroom_courses WHERE course_id").
		WithArgs("course-known").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("mirror-3"))
	mock.ExpectExec("UPDATE classroom_courses SET name(.+)integration_account_id").
		WithArgs("Physics Term 3", "Year 12", "join-2", "acct-1", "mirror-3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Reconcile(context.Background(), []models.ExternalCourse{
		{CourseID: "course-new", Name: "Maths Term 3", Section: "Year 10", JoinCode: "join-1"},
		{CourseID: "course-known", Name: "Physics Term 3", Section: "Year 12", JoinCode: "join-2"},
	}, "acct-1", &userID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryReconcileSecondPassUpdates(t *testing.T) {
	db, mock, cleanup := newCourseMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	batch := []models.ExternalCourse{
		{CourseID: "course-1", Name: "Maths Term 3", Section: "Year 10", JoinCode: "join-1"},
		{CourseID: "course-2", Name: "Physics Term 3", Section: "Year 12", JoinCode: "join-2"},
	}

	mock.ExpectBegin()
	for _, c := range batch {
		mock.ExpectQuery("SELECT id FROM classroom_courses WHERE course_id").
			WithArgs(c.CourseID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec("INSERT INTO classroom_courses").
			WithArgs(sqlmock.AnyArg(), c.CourseID, c.Name, c.Section, c.JoinCode, "acct-1", nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	first, err := repo.Reconcile(context.Background(), batch, "acct-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Added)
	assert.Zero(t, first.Updated)

	mock.ExpectBegin()
	for i, c := range batch {
		id := []string{"mirror-1", "mirror-2"}[i]
		mock.ExpectQuery("SELECT id FROM classroom_courses WHERE course_id").
			WithArgs(c.CourseID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
		mock.ExpectExec("UPDATE classroom_courses SET name(.+)integration_account_id").
			WithArgs(c.Name, c.Section, c.JoinCode, "acct-2", id).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	second, err := repo.Reconcile(context.Background(), batch, "acct-2", nil)
	require.NoError(t, err)
	assert.Zero(t, second.Added)
	assert.Equal(t, 2, second.Updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryReconcileRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newCourseMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM classroom_courses WHERE course_id").
		WithArgs("course-new").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO classroom_courses").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.Reconcile(context.Background(), []models.ExternalCourse{
		{CourseID: "course-new", Name: "Maths Term 3"},
	}, "acct-1", nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateClassLink(t *testing.T) {
	db, mock, cleanup := newCourseMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE classroom_courses SET class_id = $1 WHERE course_id = $2")).
		WithArgs("class-1", "course-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateClassLink(context.Background(), "course-1", "class-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryUpdateClassLinkMissingCourse(t *testing.T) {
	db, mock, cleanup := newCourseMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE classroom_courses SET class_id = $1 WHERE course_id = $2")).
		WithArgs("class-1", "course-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateClassLink(context.Background(), "course-missing", "class-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryLatestByClass(t *testing.T) {
	db, mock, cleanup := newCourseMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "course_id", "name", "section", "join_code", "class_id", "integration_account_id", "created_by", "created_at",
	}).AddRow("mirror-1", "course-1", "Maths Term 3", "Year 10", "join-1", "class-1", "acct-1", nil, time.Now())

	mock.ExpectQuery("SELECT (.+) FROM classroom_courses WHERE class_id").
		WithArgs("class-1").
		WillReturnRows(rows)

	course, err := repo.LatestByClass(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, "course-1", course.CourseID)
	assert.Equal(t, "join-1", course.JoinCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
