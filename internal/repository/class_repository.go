package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scimind/portal-api/internal/models"
)

// ClassRepository manages persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `id, class_code, class_name, subject, year_level, batch, sub_batch, class_type, description, status, playlist_id, teacher_id, class_day, class_time, location, created_at, updated_by, updated_at`

// List returns classes matching filter criteria.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	base := "FROM classes WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(class_name) LIKE $%d OR LOWER(class_code) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"class_code": true,
		"class_name": true,
		"subject":    true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", classColumns, base, sortBy, order, size, offset)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByCode returns a class record by its class code.
func (r *ClassRepository) FindByCode(ctx context.Context, code string) (*models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes WHERE class_code = $1`, classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, code); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindDetailByCode returns a class with its latest linked course mirror.
func (r *ClassRepository) FindDetailByCode(ctx context.Context, code string) (*models.ClassDetail, error) {
	const query = `SELECT c.id, c.class_code, c.class_name, c.subject, c.year_level, c.batch, c.sub_batch, c.class_type, c.description, c.status, c.playlist_id, c.teacher_id, c.class_day, c.class_time, c.location, c.created_at, c.updated_by, c.updated_at,
        g.course_id AS course_id, g.join_code AS course_join_code, g.name AS course_name, g.section AS course_section
        FROM classes c
        LEFT JOIN LATERAL (
            SELECT course_id, join_code, name, section FROM classroom_courses
            WHERE class_id = c.id ORDER BY created_at DESC LIMIT 1
        ) g ON true
        WHERE c.class_code = $1`
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, code); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByTuple checks whether a class with the identical identifying tuple
// already exists.
func (r *ClassRepository) ExistsByTuple(ctx context.Context, tuple models.ClassTuple) (bool, error) {
	const query = `SELECT 1 FROM classes WHERE subject = $1 AND year_level = $2 AND batch = $3 AND sub_batch = $4 AND class_type = $5 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, tuple.Subject, tuple.YearLevel, tuple.Batch, tuple.SubBatch, tuple.ClassType); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class tuple: %w", err)
	}
	return true, nil
}

// CountByStatus returns the number of classes in a status.
func (r *ClassRepository) CountByStatus(ctx context.Context, status models.ClassStatus) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM classes WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return count, nil
}

// Create persists a class record. The classes table carries a unique index
// on class_code; violations surface as pq unique-violation errors.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}

	const query = `INSERT INTO classes (id, class_code, class_name, subject, year_level, batch, sub_batch, class_type, description, status, playlist_id, teacher_id, class_day, class_time, location, created_at, updated_by, updated_at)
VALUES (:id, :class_code, :class_name, :subject, :year_level, :batch, :sub_batch, :class_type, :description, :status, :playlist_id, :teacher_id, :class_day, :class_time, :location, :created_at, :updated_by, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies a class record. The class code is immutable and not part
// of the update set.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	const query = `UPDATE classes SET class_name = :class_name, subject = :subject, year_level = :year_level, batch = :batch, sub_batch = :sub_batch, class_type = :class_type, description = :description, status = :status, playlist_id = :playlist_id, teacher_id = :teacher_id, class_day = :class_day, class_time = :class_time, location = :location, updated_by = :updated_by, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// UpdatePlaylist records the playlist a class's videos are collected under.
func (r *ClassRepository) UpdatePlaylist(ctx context.Context, classID, playlistID string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE classes SET playlist_id = $1 WHERE id = $2`, playlistID, classID); err != nil {
		return fmt.Errorf("update class playlist: %w", err)
	}
	return nil
}

// DeleteCascade removes a class together with every row referencing it, in
// one transaction. A failure on any table rolls back the whole cascade.
func (r *ClassRepository) DeleteCascade(ctx context.Context, classID string) (summary models.CascadeSummary, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("begin cascade delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cascade := []struct {
		query string
		count *int
	}{
		{`DELETE FROM enrollments WHERE class_id = $1`, &summary.Enrollments},
		{`DELETE FROM videos WHERE class_id = $1`, &summary.Videos},
		{`DELETE FROM classroom_courses WHERE class_id = $1`, &summary.Courses},
		{`DELETE FROM student_fees WHERE class_id = $1`, &summary.Fees},
		{`DELETE FROM attendance WHERE class_id = $1`, &summary.Attendance},
	}
	for _, step := range cascade {
		res, execErr := tx.ExecContext(ctx, step.query, classID)
		if execErr != nil {
			err = fmt.Errorf("cascade delete dependents: %w", execErr)
			return summary, err
		}
		if affected, raErr := res.RowsAffected(); raErr == nil {
			*step.count = int(affected)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, classID); err != nil {
		err = fmt.Errorf("delete class: %w", err)
		return summary, err
	}

	if err = tx.Commit(); err != nil {
		return summary, fmt.Errorf("commit cascade delete: %w", err)
	}
	summary.Deleted = true
	return summary, nil
}
