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

type feeRepository interface {
	List(ctx context.Context, filter models.FeeFilter) ([]models.StudentFee, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentFee, error)
	FindByID(ctx context.Context, id string) (*models.StudentFee, error)
	Create(ctx context.Context, fee *models.StudentFee) error
	Update(ctx context.Context, fee *models.StudentFee) error
	Delete(ctx context.Context, id string) error
}

// CreateFeeRequest captures the creation payload.
type CreateFeeRequest struct {
	StudentID  string  `json:"student_id" validate:"required"`
	ClassID    *string `json:"class_id"`
	FeeType    string  `json:"fee_type" validate:"required"`
	AmountDue  float64 `json:"amount_due" validate:"gte=0"`
	AmountPaid float64 `json:"amount_paid" validate:"gte=0"`
	Discount   float64 `json:"discount" validate:"gte=0"`
	DueDate    string  `json:"due_date"`
	Notes      string  `json:"notes"`
}

// UpdateFeeRequest carries a partial update; nil fields are left alone.
type UpdateFeeRequest struct {
	FeeType       *string  `json:"fee_type"`
	AmountDue     *float64 `json:"amount_due" validate:"omitempty,gte=0"`
	AmountPaid    *float64 `json:"amount_paid" validate:"omitempty,gte=0"`
	Discount      *float64 `json:"discount" validate:"omitempty,gte=0"`
	DueDate       *string  `json:"due_date"`
	PaymentStatus *string  `json:"payment_status" validate:"omitempty,oneof=unpaid partial paid"`
	Notes         *string  `json:"notes"`
}

// FeeService coordinates fee operations.
type FeeService struct {
	repo      feeRepository
	dashboard snapshotInvalidator
	clock     *Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeService constructs FeeService. A nil dashboard skips snapshot
// invalidation.
func NewFeeService(repo feeRepository, dashboard snapshotInvalidator, clock *Clock, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{repo: repo, dashboard: dashboard, clock: clock, validator: validate, logger: logger}
}

func (s *FeeService) invalidateDashboard(ctx context.Context) {
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}

// List returns fees with pagination metadata.
func (s *FeeService) List(ctx context.Context, filter models.FeeFilter) ([]models.StudentFee, *models.Pagination, error) {
	fees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fees")
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
	return fees, pagination, nil
}

// Get returns one fee.
func (s *FeeService) Get(ctx context.Context, id string) (*models.StudentFee, error) {
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee")
	}
	return fee, nil
}

// Create raises a fee against a student.
func (s *FeeService) Create(ctx context.Context, req CreateFeeRequest, callerID string) (*models.StudentFee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}

	fee := &models.StudentFee{
		StudentID:     req.StudentID,
		ClassID:       req.ClassID,
		FeeType:       req.FeeType,
		AmountDue:     req.AmountDue,
		AmountPaid:    req.AmountPaid,
		Discount:      req.Discount,
		DueDate:       s.parseDate(req.DueDate, "due_date"),
		PaymentStatus: settlementStatus(req.AmountDue, req.AmountPaid, req.Discount),
		Notes:         req.Notes,
		UpdatedBy:     &callerID,
		UpdatedAt:     s.clock.Now(),
	}
	if err := s.repo.Create(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee")
	}
	s.invalidateDashboard(ctx)
	return fee, nil
}

// Update applies a partial update and recomputes the settlement status unless
// the payload pins it explicitly.
func (s *FeeService) Update(ctx context.Context, id string, req UpdateFeeRequest, callerID string) (*models.StudentFee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}

	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee")
	}

	if req.FeeType != nil {
		fee.FeeType = *req.FeeType
	}
	if req.AmountDue != nil {
		fee.AmountDue = *req.AmountDue
	}
	if req.AmountPaid != nil {
		fee.AmountPaid = *req.AmountPaid
	}
	if req.Discount != nil {
		fee.Discount = *req.Discount
	}
	if req.DueDate != nil {
		fee.DueDate = s.parseDate(*req.DueDate, "due_date")
	}
	if req.Notes != nil {
		fee.Notes = *req.Notes
	}
	if req.PaymentStatus != nil {
		fee.PaymentStatus = *req.PaymentStatus
	} else {
		fee.PaymentStatus = settlementStatus(fee.AmountDue, fee.AmountPaid, fee.Discount)
	}
	fee.UpdatedAt = s.clock.Now()
	fee.UpdatedBy = &callerID

	if err := s.repo.Update(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee")
	}
	s.invalidateDashboard(ctx)
	return fee, nil
}

// Delete removes a fee.
func (s *FeeService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "fee not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee")
	}
	s.invalidateDashboard(ctx)
	return nil
}

func settlementStatus(due, paid, discount float64) string {
	owed := due - discount
	switch {
	case paid <= 0 && owed > 0:
		return models.FeeStatusUnpaid
	case paid < owed:
		return models.FeeStatusPartial
	default:
		return models.FeeStatusPaid
	}
}

func (s *FeeService) parseDate(value, field string) *time.Time {
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
