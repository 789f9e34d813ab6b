package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	items   map[string]*models.Enrollment
	deleted []string
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if enrollment, ok := m.items[id]; ok {
		cp := *enrollment
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.items == nil {
		m.items = make(map[string]*models.Enrollment)
	}
	enrollment.ID = "enrollment-generated"
	cp := *enrollment
	m.items[enrollment.ID] = &cp
	return nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	cp := *enrollment
	m.items[enrollment.ID] = &cp
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func TestEnrollmentServiceCreate(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	service := NewEnrollmentService(repo, validator.New(), zap.NewNop())

	enrollment, err := service.Create(context.Background(), CreateEnrollmentRequest{
		StudentID:    "student-1",
		ClassID:      "class-1",
		EnrolledFrom: "2026-01-01",
		EnrolledTo:   "2026-06-30",
		IsPrimary:    true,
	})
	require.NoError(t, err)
	require.NotNil(t, enrollment.EnrolledFrom)
	require.NotNil(t, enrollment.EnrolledTo)
	assert.True(t, enrollment.IsPrimary)
}

func TestEnrollmentServiceCreateInvertedWindow(t *testing.T) {
	service := NewEnrollmentService(&mockEnrollmentRepo{}, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), CreateEnrollmentRequest{
		StudentID:    "student-1",
		ClassID:      "class-1",
		EnrolledFrom: "2026-06-30",
		EnrolledTo:   "2026-01-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceCreateDropsMalformedDates(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	service := NewEnrollmentService(repo, validator.New(), zap.NewNop())

	enrollment, err := service.Create(context.Background(), CreateEnrollmentRequest{
		StudentID:    "student-1",
		ClassID:      "class-1",
		EnrolledFrom: "tomorrow",
	})
	require.NoError(t, err)
	assert.Nil(t, enrollment.EnrolledFrom)
}

func TestEnrollmentServiceUpdateWindowValidatedAgainstStored(t *testing.T) {
	from := mustDate(t, "2026-03-01")
	repo := &mockEnrollmentRepo{items: map[string]*models.Enrollment{
		"enrollment-1": {ID: "enrollment-1", StudentID: "student-1", ClassID: "class-1", EnrolledFrom: &from},
	}}
	service := NewEnrollmentService(repo, validator.New(), zap.NewNop())

	to := "2026-01-01"
	_, err := service.Update(context.Background(), "enrollment-1", UpdateEnrollmentRequest{EnrolledTo: &to})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceDeleteMissing(t *testing.T) {
	service := NewEnrollmentService(&mockEnrollmentRepo{}, validator.New(), zap.NewNop())

	err := service.Delete(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
