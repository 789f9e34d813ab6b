package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type mockFeeRepo struct {
	items   map[string]*models.StudentFee
	deleted []string
}

func (m *mockFeeRepo) List(ctx context.Context, filter models.FeeFilter) ([]models.StudentFee, int, error) {
	return nil, 0, nil
}

func (m *mockFeeRepo) ListByStudent(ctx context.Context, studentID string) ([]models.StudentFee, error) {
	var fees []models.StudentFee
	for _, fee := range m.items {
		if fee.StudentID == studentID {
			fees = append(fees, *fee)
		}
	}
	return fees, nil
}

func (m *mockFeeRepo) FindByID(ctx context.Context, id string) (*models.StudentFee, error) {
	if fee, ok := m.items[id]; ok {
		cp := *fee
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFeeRepo) Create(ctx context.Context, fee *models.StudentFee) error {
	if m.items == nil {
		m.items = make(map[string]*models.StudentFee)
	}
	fee.ID = "fee-generated"
	cp := *fee
	m.items[fee.ID] = &cp
	return nil
}

func (m *mockFeeRepo) Update(ctx context.Context, fee *models.StudentFee) error {
	cp := *fee
	m.items[fee.ID] = &cp
	return nil
}

func (m *mockFeeRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func newFeeService(repo *mockFeeRepo) *FeeService {
	clock := NewClock("Australia/Melbourne", 10, zap.NewNop())
	return NewFeeService(repo, nil, clock, validator.New(), zap.NewNop())
}

func TestSettlementStatus(t *testing.T) {
	tests := []struct {
		name     string
		due      float64
		paid     float64
		discount float64
		want     string
	}{
		{"nothing paid", 100, 0, 0, models.FeeStatusUnpaid},
		{"partially paid", 100, 40, 0, models.FeeStatusPartial},
		{"fully paid", 100, 100, 0, models.FeeStatusPaid},
		{"discount settles remainder", 100, 80, 20, models.FeeStatusPaid},
		{"discount covers everything", 100, 0, 100, models.FeeStatusPaid},
		{"paid despite partial discount", 100, 90, 20, models.FeeStatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, settlementStatus(tt.due, tt.paid, tt.discount))
		})
	}
}

func TestFeeServiceCreateDerivesStatus(t *testing.T) {
	repo := &mockFeeRepo{}
	service := newFeeService(repo)

	fee, err := service.Create(context.Background(), CreateFeeRequest{
		StudentID: "student-1",
		FeeType:   "tuition",
		AmountDue: 500,
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusUnpaid, fee.PaymentStatus)
	require.NotNil(t, fee.UpdatedBy)
	assert.Equal(t, "user-1", *fee.UpdatedBy)
}

func TestFeeServiceCreateRejectsNegativeAmount(t *testing.T) {
	service := newFeeService(&mockFeeRepo{})

	_, err := service.Create(context.Background(), CreateFeeRequest{
		StudentID: "student-1",
		FeeType:   "tuition",
		AmountDue: -10,
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceUpdateRecomputesStatus(t *testing.T) {
	repo := &mockFeeRepo{items: map[string]*models.StudentFee{
		"fee-1": {ID: "fee-1", StudentID: "student-1", FeeType: "tuition", AmountDue: 500, PaymentStatus: models.FeeStatusUnpaid},
	}}
	service := newFeeService(repo)

	paid := 500.0
	fee, err := service.Update(context.Background(), "fee-1", UpdateFeeRequest{AmountPaid: &paid}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusPaid, fee.PaymentStatus)
}

func TestFeeServiceUpdatePinnedStatusWins(t *testing.T) {
	repo := &mockFeeRepo{items: map[string]*models.StudentFee{
		"fee-1": {ID: "fee-1", StudentID: "student-1", FeeType: "tuition", AmountDue: 500, AmountPaid: 500, PaymentStatus: models.FeeStatusPaid},
	}}
	service := newFeeService(repo)

	status := models.FeeStatusPartial
	fee, err := service.Update(context.Background(), "fee-1", UpdateFeeRequest{PaymentStatus: &status}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusPartial, fee.PaymentStatus)
}

func TestFeeServiceGetMissing(t *testing.T) {
	service := newFeeService(&mockFeeRepo{})

	_, err := service.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceCreateInvalidatesDashboard(t *testing.T) {
	repo := &mockFeeRepo{}
	dash := &mockInvalidator{}
	clock := NewClock("Australia/Melbourne", 10, zap.NewNop())
	service := NewFeeService(repo, dash, clock, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateFeeRequest{
		StudentID: "student-1",
		FeeType:   "tuition",
		AmountDue: 500,
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, dash.calls)
}
