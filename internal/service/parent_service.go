package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type parentRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Parent, error)
	FindByID(ctx context.Context, id string) (*models.Parent, error)
	Create(ctx context.Context, parent *models.Parent) error
	Update(ctx context.Context, parent *models.Parent) error
	Delete(ctx context.Context, id string) error
}

// CreateParentRequest captures the creation payload.
type CreateParentRequest struct {
	StudentID     string `json:"student_id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Relationship  string `json:"relationship"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email" validate:"omitempty,email"`
}

// UpdateParentRequest carries a partial update; nil fields are left alone.
type UpdateParentRequest struct {
	Name          *string `json:"name"`
	Relationship  *string `json:"relationship"`
	ContactNumber *string `json:"contact_number"`
	Email         *string `json:"email" validate:"omitempty,email"`
}

// ParentService coordinates guardian contact operations.
type ParentService struct {
	repo      parentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewParentService constructs ParentService.
func NewParentService(repo parentRepository, validate *validator.Validate, logger *zap.Logger) *ParentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParentService{repo: repo, validator: validate, logger: logger}
}

// ListByStudent returns all guardians of a student.
func (s *ParentService) ListByStudent(ctx context.Context, studentID string) ([]models.Parent, error) {
	parents, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents")
	}
	return parents, nil
}

// Create adds a guardian contact.
func (s *ParentService) Create(ctx context.Context, req CreateParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}

	parent := &models.Parent{
		StudentID:     req.StudentID,
		Name:          req.Name,
		Relationship:  req.Relationship,
		ContactNumber: req.ContactNumber,
		Email:         req.Email,
	}
	if err := s.repo.Create(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parent")
	}
	return parent, nil
}

// Update applies a partial update.
func (s *ParentService) Update(ctx context.Context, id string, req UpdateParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}

	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}

	if req.Name != nil {
		parent.Name = *req.Name
	}
	if req.Relationship != nil {
		parent.Relationship = *req.Relationship
	}
	if req.ContactNumber != nil {
		parent.ContactNumber = *req.ContactNumber
	}
	if req.Email != nil {
		parent.Email = *req.Email
	}

	if err := s.repo.Update(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update parent")
	}
	return parent, nil
}

// Delete removes a guardian contact.
func (s *ParentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete parent")
	}
	return nil
}
