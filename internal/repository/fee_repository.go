package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scimind/portal-api/internal/models"
)

// FeeRepository handles persistence of student fees.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

const feeColumns = `id, student_id, class_id, fee_type, amount_due, amount_paid, discount, due_date, payment_status, notes, updated_by, updated_at`

// List returns fees filtered by the provided criteria.
func (r *FeeRepository) List(ctx context.Context, filter models.FeeFilter) ([]models.StudentFee, int, error) {
	base := "FROM student_fees WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.PaymentStatus != "" {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", len(args)+1))
		args = append(args, filter.PaymentStatus)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY due_date ASC NULLS LAST LIMIT %d OFFSET %d", feeColumns, base, size, offset)
	var fees []models.StudentFee
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fees: %w", err)
	}
	return fees, total, nil
}

// ListByStudent returns every fee raised against a student, oldest first.
func (r *FeeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentFee, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_fees WHERE student_id = $1 ORDER BY due_date ASC NULLS LAST`, feeColumns)
	var fees []models.StudentFee
	if err := r.db.SelectContext(ctx, &fees, query, studentID); err != nil {
		return nil, fmt.Errorf("list student fees: %w", err)
	}
	return fees, nil
}

// FindByID returns a fee record by ID.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.StudentFee, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_fees WHERE id = $1`, feeColumns)
	var fee models.StudentFee
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// Create persists a fee record.
func (r *FeeRepository) Create(ctx context.Context, fee *models.StudentFee) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	const query = `INSERT INTO student_fees (id, student_id, class_id, fee_type, amount_due, amount_paid, discount, due_date, payment_status, notes, updated_by, updated_at)
VALUES (:id, :student_id, :class_id, :fee_type, :amount_due, :amount_paid, :discount, :due_date, :payment_status, :notes, :updated_by, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("create fee: %w", err)
	}
	return nil
}

// Update modifies a fee record.
func (r *FeeRepository) Update(ctx context.Context, fee *models.StudentFee) error {
	const query = `UPDATE student_fees SET student_id = :student_id, class_id = :class_id, fee_type = :fee_type, amount_due = :amount_due, amount_paid = :amount_paid, discount = :discount, due_date = :due_date, payment_status = :payment_status, notes = :notes, updated_by = :updated_by, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("update fee: %w", err)
	}
	return nil
}

// Delete removes a fee record.
func (r *FeeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM student_fees WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete fee: %w", err)
	}
	return nil
}

// CountUnpaid returns the number of fees not yet fully settled.
func (r *FeeRepository) CountUnpaid(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM student_fees WHERE payment_status <> $1`, models.FeeStatusPaid); err != nil {
		return 0, fmt.Errorf("count unpaid fees: %w", err)
	}
	return count, nil
}
