package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scimind/portal-api/internal/models"
)

// CourseRepository handles persistence of classroom course mirrors.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, course_id, name, section, join_code, class_id, integration_account_id, created_by, created_at`

// List returns all course mirrors, newest first.
func (r *CourseRepository) List(ctx context.Context) ([]models.ClassroomCourse, error) {
	query := fmt.Sprintf(`SELECT %s FROM classroom_courses ORDER BY created_at DESC`, courseColumns)
	var courses []models.ClassroomCourse
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByCourseID returns the mirror for an external course id.
func (r *CourseRepository) FindByCourseID(ctx context.Context, courseID string) (*models.ClassroomCourse, error) {
	query := fmt.Sprintf(`SELECT %s FROM classroom_courses WHERE course_id = $1`, courseColumns)
	var course models.ClassroomCourse
	if err := r.db.GetContext(ctx, &course, query, courseID); err != nil {
		return nil, err
	}
	return &course, nil
}

// LatestByClass returns the most recently created mirror linked to a class.
func (r *CourseRepository) LatestByClass(ctx context.Context, classID string) (*models.ClassroomCourse, error) {
	query := fmt.Sprintf(`SELECT %s FROM classroom_courses WHERE class_id = $1 ORDER BY created_at DESC LIMIT 1`, courseColumns)
	var course models.ClassroomCourse
	if err := r.db.GetContext(ctx, &course, query, classID); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create persists a course mirror.
func (r *CourseRepository) Create(ctx context.Context, course *models.ClassroomCourse) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	const query = `INSERT INTO classroom_courses (id, course_id, name, section, join_code, class_id, integration_account_id, created_by, created_at)
VALUES (:id, :course_id, :name, :section, :join_code, :class_id, :integration_account_id, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course mirror: %w", err)
	}
	return nil
}

// UpdateClassLink points an existing mirror at a class.
func (r *CourseRepository) UpdateClassLink(ctx context.Context, courseID, classID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE classroom_courses SET class_id = $1 WHERE course_id = $2`, classID, courseID)
	if err != nil {
		return fmt.Errorf("link course mirror: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Reconcile merges externally reported courses into local mirrors, keyed by
// course id. The whole batch commits in one transaction; mirrors absent
// upstream are left alone.
func (r *CourseRepository) Reconcile(ctx context.Context, courses []models.ExternalCourse, accountID string, userID *string) (result models.SyncResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin course reconcile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, c := range courses {
		var existingID string
		findErr := tx.GetContext(ctx, &existingID, `SELECT id FROM classroom_courses WHERE course_id = $1`, c.CourseID)
		switch {
		case findErr == sql.ErrNoRows:
			_, err = tx.ExecContext(ctx, `INSERT INTO classroom_courses (id, course_id, name, section, join_code, class_id, integration_account_id, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, NULL, $6, $7, $8)`,
				uuid.NewString(), c.CourseID, c.Name, c.Section, c.JoinCode, accountID, userID, now)
			if err != nil {
				err = fmt.Errorf("insert course mirror: %w", err)
				return result, err
			}
			result.Added++
		case findErr != nil:
			err = fmt.Errorf("find course mirror: %w", findErr)
			return result, err
		default:
			if _, err = tx.ExecContext(ctx, `UPDATE classroom_courses SET name = $1, section = $2, join_code = $3, integration_account_id = $4 WHERE id = $5`,
				c.Name, c.Section, c.JoinCode, accountID, existingID); err != nil {
				err = fmt.Errorf("update course mirror: %w", err)
				return result, err
			}
			result.Updated++
		}
	}

	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("commit course reconcile: %w", err)
	}
	return result, nil
}
