package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	"github.com/scimind/portal-api/internal/repository"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student, year int) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest captures the creation payload. The date of birth is a
// plain string parsed leniently; a malformed value is dropped, not rejected.
type CreateStudentRequest struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	DOB           string `json:"dob"`
	Gender        string `json:"gender"`
	ContactNumber string `json:"contact_number"`
	GradeSchool   string `json:"grade_school"`
	Email         string `json:"email" validate:"omitempty,email"`
	Address       string `json:"address"`
	Notes         string `json:"notes"`
}

// UpdateStudentRequest carries a partial update; nil fields are left alone.
type UpdateStudentRequest struct {
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	DOB           *string `json:"dob"`
	Gender        *string `json:"gender"`
	ContactNumber *string `json:"contact_number"`
	GradeSchool   *string `json:"grade_school"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Address       *string `json:"address"`
	Notes         *string `json:"notes"`
	Status        *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// StudentService coordinates student operations.
type StudentService struct {
	repo      studentRepository
	dashboard snapshotInvalidator
	clock     *Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService. A nil dashboard skips snapshot
// invalidation.
func NewStudentService(repo studentRepository, dashboard snapshotInvalidator, clock *Clock, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, dashboard: dashboard, clock: clock, validator: validate, logger: logger}
}

func (s *StudentService) invalidateDashboard(ctx context.Context) {
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
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
	return students, pagination, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create adds a student. The student code is generated inside the insert
// transaction; an exhausted retry surfaces as a conflict.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest, callerID string) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	now := s.clock.Now()
	student := &models.Student{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		DOB:           s.parseDate(req.DOB, "dob"),
		Gender:        req.Gender,
		ContactNumber: req.ContactNumber,
		GradeSchool:   req.GradeSchool,
		Email:         req.Email,
		Address:       req.Address,
		Notes:         req.Notes,
		Status:        "active",
		CreatedAt:     now,
		UpdatedBy:     &callerID,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, student, s.clock.Year()); err != nil {
		if errors.Is(err, repository.ErrStudentCodeTaken) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student code allocation conflicted, retry the request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.invalidateDashboard(ctx)
	return student, nil
}

// Update applies a partial update. The student code never changes.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest, callerID string) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.DOB != nil {
		student.DOB = s.parseDate(*req.DOB, "dob")
	}
	if req.Gender != nil {
		student.Gender = *req.Gender
	}
	if req.ContactNumber != nil {
		student.ContactNumber = *req.ContactNumber
	}
	if req.GradeSchool != nil {
		student.GradeSchool = *req.GradeSchool
	}
	if req.Email != nil {
		student.Email = *req.Email
	}
	if req.Address != nil {
		student.Address = *req.Address
	}
	if req.Notes != nil {
		student.Notes = *req.Notes
	}
	if req.Status != nil {
		student.Status = *req.Status
	}
	student.UpdatedAt = s.clock.Now()
	student.UpdatedBy = &callerID

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.invalidateDashboard(ctx)
	return student, nil
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// parseDate parses a YYYY-MM-DD string. A malformed value is logged and
// dropped rather than failing the request.
func (s *StudentService) parseDate(value, field string) *time.Time {
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
