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

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id string) error
}

type feeLookup interface {
	FindByID(ctx context.Context, id string) (*models.StudentFee, error)
	Update(ctx context.Context, fee *models.StudentFee) error
}

// CreatePaymentRequest captures the creation payload.
type CreatePaymentRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	FeeID     *string `json:"fee_id"`
	Amount    float64 `json:"amount" validate:"gt=0"`
	PaidAt    string  `json:"paid_at"`
	Method    string  `json:"method"`
	Reference string  `json:"reference"`
	Notes     string  `json:"notes"`
}

// UpdatePaymentRequest carries a partial update; nil fields are left alone.
type UpdatePaymentRequest struct {
	Amount    *float64 `json:"amount" validate:"omitempty,gt=0"`
	PaidAt    *string  `json:"paid_at"`
	Method    *string  `json:"method"`
	Reference *string  `json:"reference"`
	Notes     *string  `json:"notes"`
}

// PaymentService coordinates payment operations. Recording a payment against
// a fee rolls the amount into the fee and recomputes its settlement status.
type PaymentService struct {
	repo      paymentRepository
	fees      feeLookup
	dashboard snapshotInvalidator
	clock     *Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs PaymentService. A nil dashboard skips snapshot
// invalidation.
func NewPaymentService(repo paymentRepository, fees feeLookup, dashboard snapshotInvalidator, clock *Clock, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, fees: fees, dashboard: dashboard, clock: clock, validator: validate, logger: logger}
}

// List returns payments with pagination metadata.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
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
	return payments, pagination, nil
}

// Create records a payment. A linked fee is updated best-effort; a failure
// there is logged, not surfaced, since the payment row is already persisted.
func (s *PaymentService) Create(ctx context.Context, req CreatePaymentRequest, callerID string) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	if req.FeeID != nil {
		if _, err := s.fees.FindByID(ctx, *req.FeeID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "fee not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee")
		}
	}

	paidAt := s.parseDate(req.PaidAt, "paid_at")
	if paidAt == nil {
		now := s.clock.Now()
		paidAt = &now
	}
	payment := &models.Payment{
		StudentID: req.StudentID,
		FeeID:     req.FeeID,
		Amount:    req.Amount,
		PaidAt:    paidAt,
		Method:    req.Method,
		Reference: req.Reference,
		Notes:     req.Notes,
		UpdatedBy: &callerID,
		UpdatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}

	if req.FeeID != nil {
		if err := s.applyToFee(ctx, *req.FeeID, req.Amount, callerID); err != nil {
			s.logger.Warn("payment recorded but fee update failed",
				zap.String("payment_id", payment.ID),
				zap.String("fee_id", *req.FeeID),
				zap.Error(err))
		}
	}
	return payment, nil
}

func (s *PaymentService) applyToFee(ctx context.Context, feeID string, amount float64, callerID string) error {
	fee, err := s.fees.FindByID(ctx, feeID)
	if err != nil {
		return err
	}
	fee.AmountPaid += amount
	fee.PaymentStatus = settlementStatus(fee.AmountDue, fee.AmountPaid, fee.Discount)
	fee.UpdatedAt = s.clock.Now()
	fee.UpdatedBy = &callerID
	if err := s.fees.Update(ctx, fee); err != nil {
		return err
	}
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
	return nil
}

// Update applies a partial update to a payment record. The linked fee is not
// re-balanced on edit.
func (s *PaymentService) Update(ctx context.Context, id string, req UpdatePaymentRequest, callerID string) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	if req.Amount != nil {
		payment.Amount = *req.Amount
	}
	if req.PaidAt != nil {
		if parsed := s.parseDate(*req.PaidAt, "paid_at"); parsed != nil {
			payment.PaidAt = parsed
		}
	}
	if req.Method != nil {
		payment.Method = *req.Method
	}
	if req.Reference != nil {
		payment.Reference = *req.Reference
	}
	if req.Notes != nil {
		payment.Notes = *req.Notes
	}
	payment.UpdatedAt = s.clock.Now()
	payment.UpdatedBy = &callerID

	if err := s.repo.Update(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}
	return payment, nil
}

// Delete removes a payment record.
func (s *PaymentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete payment")
	}
	return nil
}

func (s *PaymentService) parseDate(value, field string) *time.Time {
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
