package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimind/portal-api/internal/models"
)

func newClassMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func classRow(id, code string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "class_code", "class_name", "subject", "year_level", "batch", "sub_batch", "class_type", "description", "status", "playlist_id", "teacher_id", "class_day", "class_time", "location", "created_at", "updated_by", "updated_at"}).
		AddRow(id, code, "Math - Year 10 - A", "Math", "Year 10", "A", "", "Group", "", "active", nil, nil, "", "", "", now, nil, now)
}

func TestClassRepositoryFindByCode(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE class_code = $1")).
		WithArgs("MAT10AG").
		WillReturnRows(classRow("class-1", "MAT10AG"))

	class, err := repo.FindByCode(context.Background(), "MAT10AG")
	require.NoError(t, err)
	assert.Equal(t, "class-1", class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryExistsByTuple(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery("SELECT 1 FROM classes WHERE subject").
		WithArgs("Math", "Year 10", "A", "", "Group").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByTuple(context.Background(), models.ClassTuple{
		Subject: "Math", YearLevel: "Year 10", Batch: "A", ClassType: "Group",
	})
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM classes WHERE subject").
		WithArgs("Physics", "Year 12", "B", "", "Group").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsByTuple(context.Background(), models.ClassTuple{
		Subject: "Physics", YearLevel: "Year 12", Batch: "B", ClassType: "Group",
	})
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO classes").
		WillReturnResult(sqlmock.NewResult(1, 1))

	class := &models.Class{
		ClassCode: "MAT10AG",
		ClassName: "Math - Year 10 - A",
		Subject:   "Math",
		YearLevel: "Year 10",
		Batch:     "A",
		ClassType: "Group",
		Status:    models.ClassStatusActive,
	}
	require.NoError(t, repo.Create(context.Background(), class))
	assert.NotEmpty(t, class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryDeleteCascade(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM enrollments WHERE class_id").
		WithArgs("class-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM videos WHERE class_id").
		WithArgs("class-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM classroom_courses WHERE class_id").
		WithArgs("class-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM student_fees WHERE class_id").
		WithArgs("class-1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM attendance WHERE class_id").
		WithArgs("class-1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("DELETE FROM classes WHERE id").
		WithArgs("class-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	summary, err := repo.DeleteCascade(context.Background(), "class-1")
	require.NoError(t, err)
	assert.True(t, summary.Deleted)
	assert.Equal(t, 3, summary.Enrollments)
	assert.Equal(t, 2, summary.Videos)
	assert.Equal(t, 1, summary.Courses)
	assert.Equal(t, 4, summary.Fees)
	assert.Equal(t, 5, summary.Attendance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryDeleteCascadeRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM enrollments WHERE class_id").
		WithArgs("class-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM videos WHERE class_id").
		WithArgs("class-1").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	summary, err := repo.DeleteCascade(context.Background(), "class-1")
	require.Error(t, err)
	assert.False(t, summary.Deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classes WHERE status = $1")).
		WithArgs(models.ClassStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountByStatus(context.Background(), models.ClassStatusActive)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
