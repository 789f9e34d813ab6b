package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/codes"
	"github.com/scimind/portal-api/internal/models"
)

// ErrStudentCodeTaken reports that both the generated student code and its
// one retry collided with existing rows.
var ErrStudentCodeTaken = errors.New("student code already taken")

// StudentRepository manages persistence for students.
type StudentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStudentRepository constructs a new student repository.
func NewStudentRepository(db *sqlx.DB, logger *zap.Logger) *StudentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentRepository{db: db, logger: logger}
}

const studentColumns = `id, student_code, first_name, last_name, dob, gender, contact_number, grade_school, email, address, notes, status, created_at, updated_by, updated_at`

// List returns students matching filter criteria.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(student_code) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"student_code": true,
		"last_name":    true,
		"created_at":   true,
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, base, sortBy, order, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student record by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// CountByStatus returns the number of students in a status.
func (r *StudentRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// Create persists a student, generating the student code inside the same
// transaction as the insert. The sequence read locks matching rows so two
// concurrent creations cannot compute the same code; a unique-index
// violation is still retried once with a freshly recomputed code.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student, year int) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}

	for attempt := 0; attempt < 2; attempt++ {
		err := r.createOnce(ctx, student, year)
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) {
			r.logger.Warn("student code collision, retrying",
				zap.String("student_code", student.StudentCode))
			continue
		}
		return err
	}
	return ErrStudentCodeTaken
}

func (r *StudentRepository) createOnce(ctx context.Context, student *models.Student, year int) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prefix := codes.StudentCodePrefix(year)
	var lastCode string
	const seqQuery = `SELECT student_code FROM students WHERE student_code LIKE $1 ORDER BY student_code DESC LIMIT 1 FOR UPDATE`
	if err = tx.GetContext(ctx, &lastCode, seqQuery, prefix+"%"); err != nil {
		if err != sql.ErrNoRows {
			return fmt.Errorf("read last student code: %w", err)
		}
		lastCode = ""
		err = nil
	}

	seq, parseErr := codes.NextStudentSeq(lastCode)
	if parseErr != nil {
		// Recoverable: restart the sequence rather than block creation.
		r.logger.Warn("unparseable student code, restarting sequence",
			zap.String("last_code", lastCode), zap.Error(parseErr))
	}
	student.StudentCode = codes.StudentCode(year, seq)

	const insertQuery = `INSERT INTO students (id, student_code, first_name, last_name, dob, gender, contact_number, grade_school, email, address, notes, status, created_at, updated_by, updated_at)
VALUES (:id, :student_code, :first_name, :last_name, :dob, :gender, :contact_number, :grade_school, :email, :address, :notes, :status, :created_at, :updated_by, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit student create: %w", err)
	}
	return nil
}

// Update modifies a student record.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, dob = :dob, gender = :gender, contact_number = :contact_number, grade_school = :grade_school, email = :email, address = :address, notes = :notes, status = :status, updated_by = :updated_by, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student record.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
