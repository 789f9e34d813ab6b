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

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error)
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	Create(ctx context.Context, row *models.Attendance) error
	Update(ctx context.Context, row *models.Attendance) error
	Delete(ctx context.Context, id string) error
}

// CreateAttendanceRequest captures the creation payload.
type CreateAttendanceRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	Date      string `json:"date"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
	Notes     string `json:"notes"`
}

// UpdateAttendanceRequest carries a partial update; nil fields are left alone.
type UpdateAttendanceRequest struct {
	Date   *string `json:"date"`
	Status *string `json:"status" validate:"omitempty,oneof=present absent late excused"`
	Notes  *string `json:"notes"`
}

// AttendanceService coordinates attendance operations.
type AttendanceService struct {
	repo      attendanceRepository
	clock     *Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, clock *Clock, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, clock: clock, validator: validate, logger: logger}
}

// List returns attendance rows with pagination metadata.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
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

// Create records attendance. A missing or malformed date defaults to today
// in the portal zone.
func (s *AttendanceService) Create(ctx context.Context, req CreateAttendanceRequest, callerID string) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	date := s.parseDate(req.Date, "date")
	if date == nil {
		today := s.clock.Now().Truncate(24 * time.Hour)
		date = &today
	}
	row := &models.Attendance{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		Date:      date,
		Status:    req.Status,
		Notes:     req.Notes,
		UpdatedBy: &callerID,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance")
	}
	return row, nil
}

// Update applies a partial update.
func (s *AttendanceService) Update(ctx context.Context, id string, req UpdateAttendanceRequest, callerID string) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}

	if req.Date != nil {
		if parsed := s.parseDate(*req.Date, "date"); parsed != nil {
			row.Date = parsed
		}
	}
	if req.Status != nil {
		row.Status = *req.Status
	}
	if req.Notes != nil {
		row.Notes = *req.Notes
	}
	row.UpdatedAt = s.clock.Now()
	row.UpdatedBy = &callerID

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance record")
	}
	return row, nil
}

// Delete removes an attendance record.
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	return nil
}

func (s *AttendanceService) parseDate(value, field string) *time.Time {
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
