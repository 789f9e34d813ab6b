package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id string) error
}

// CreateEnrollmentRequest captures the creation payload. Window dates are
// plain strings parsed leniently; malformed values are dropped.
type CreateEnrollmentRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	ClassID      string `json:"class_id" validate:"required"`
	EnrolledFrom string `json:"enrolled_from"`
	EnrolledTo   string `json:"enrolled_to"`
	IsPrimary    bool   `json:"is_primary"`
}

// UpdateEnrollmentRequest carries a partial update; nil fields are left alone.
type UpdateEnrollmentRequest struct {
	EnrolledFrom *string `json:"enrolled_from"`
	EnrolledTo   *string `json:"enrolled_to"`
	IsPrimary    *bool   `json:"is_primary"`
}

// EnrollmentService coordinates enrollment operations.
type EnrollmentService struct {
	repo      enrollmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, validator: validate, logger: logger}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return rows, pagination, nil
}

// Create assigns a student to a class.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	enrollment := &models.Enrollment{
		StudentID:    req.StudentID,
		ClassID:      req.ClassID,
		EnrolledFrom: s.parseDate(req.EnrolledFrom, "enrolled_from"),
		EnrolledTo:   s.parseDate(req.EnrolledTo, "enrolled_to"),
		IsPrimary:    req.IsPrimary,
	}
	if err := validateWindow(enrollment.EnrolledFrom, enrollment.EnrolledTo); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	return enrollment, nil
}

// Update applies a partial update to the validity window.
func (s *EnrollmentService) Update(ctx context.Context, id string, req UpdateEnrollmentRequest) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if req.EnrolledFrom != nil {
		enrollment.EnrolledFrom = s.parseDate(*req.EnrolledFrom, "enrolled_from")
	}
	if req.EnrolledTo != nil {
		enrollment.EnrolledTo = s.parseDate(*req.EnrolledTo, "enrolled_to")
	}
	if req.IsPrimary != nil {
		enrollment.IsPrimary = *req.IsPrimary
	}
	if err := validateWindow(enrollment.EnrolledFrom, enrollment.EnrolledTo); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	return enrollment, nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	return nil
}

func validateWindow(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return appErrors.Clone(appErrors.ErrValidation, "enrolled_to must not precede enrolled_from")
	}
	return nil
}

func (s *EnrollmentService) parseDate(value, field string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		s.logger.Warn("ignoring malformed date", zap.String("field", field), zap.String("value", value), zap.Error(err))
		return nil
	}
	return &parsed
}
