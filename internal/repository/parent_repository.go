package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scimind/portal-api/internal/models"
)

// ParentRepository manages guardian contacts.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a new parent repository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// ListByStudent returns the guardians attached to a student.
func (r *ParentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Parent, error) {
	const query = `SELECT id, student_id, name, relationship, contact_number, email FROM parents WHERE student_id = $1 ORDER BY name`
	var parents []models.Parent
	if err := r.db.SelectContext(ctx, &parents, query, studentID); err != nil {
		return nil, fmt.Errorf("list parents: %w", err)
	}
	return parents, nil
}

// FindByID returns a parent record by ID.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	const query = `SELECT id, student_id, name, relationship, contact_number, email FROM parents WHERE id = $1`
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		return nil, err
	}
	return &parent, nil
}

// Create persists a parent record.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	const query = `INSERT INTO parents (id, student_id, name, relationship, contact_number, email) VALUES (:id, :student_id, :name, :relationship, :contact_number, :email)`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return nil
}

// Update modifies a parent record.
func (r *ParentRepository) Update(ctx context.Context, parent *models.Parent) error {
	const query = `UPDATE parents SET name = :name, relationship = :relationship, contact_number = :contact_number, email = :email WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("update parent: %w", err)
	}
	return nil
}

// Delete removes a parent record.
func (r *ParentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM parents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete parent: %w", err)
	}
	return nil
}
