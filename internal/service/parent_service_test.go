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

type mockParentRepo struct {
	items   map[string]*models.Parent
	deleted []string
}

func (m *mockParentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Parent, error) {
	var parents []models.Parent
	for _, parent := range m.items {
		if parent.StudentID == studentID {
			parents = append(parents, *parent)
		}
	}
	return parents, nil
}

func (m *mockParentRepo) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	if parent, ok := m.items[id]; ok {
		cp := *parent
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockParentRepo) Create(ctx context.Context, parent *models.Parent) error {
	if m.items == nil {
		m.items = make(map[string]*models.Parent)
	}
	parent.ID = "parent-generated"
	cp := *parent
	m.items[parent.ID] = &cp
	return nil
}

func (m *mockParentRepo) Update(ctx context.Context, parent *models.Parent) error {
	cp := *parent
	m.items[parent.ID] = &cp
	return nil
}

func (m *mockParentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func newParentService(repo *mockParentRepo) *ParentService {
	return NewParentService(repo, validator.New(), zap.NewNop())
}

func TestParentServiceCreate(t *testing.T) {
	repo := &mockParentRepo{}
	service := newParentService(repo)

	parent, err := service.Create(context.Background(), CreateParentRequest{
		StudentID:    "student-1",
		Name:         "Dana Lee",
		Relationship: "mother",
		Email:        "dana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "parent-generated", parent.ID)
	assert.Equal(t, "Dana Lee", repo.items["parent-generated"].Name)
}

func TestParentServiceCreateRejectsBadEmail(t *testing.T) {
	service := newParentService(&mockParentRepo{})

	_, err := service.Create(context.Background(), CreateParentRequest{
		StudentID: "student-1",
		Name:      "Dana Lee",
		Email:     "not-an-email",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestParentServiceUpdatePartial(t *testing.T) {
	repo := &mockParentRepo{items: map[string]*models.Parent{
		"parent-1": {ID: "parent-1", StudentID: "student-1", Name: "Dana Lee", Relationship: "mother"},
	}}
	service := newParentService(repo)

	contact := "0400 000 000"
	parent, err := service.Update(context.Background(), "parent-1", UpdateParentRequest{ContactNumber: &contact})
	require.NoError(t, err)
	assert.Equal(t, "0400 000 000", parent.ContactNumber)
	assert.Equal(t, "Dana Lee", parent.Name)
	assert.Equal(t, "mother", parent.Relationship)
}

func TestParentServiceListByStudent(t *testing.T) {
	repo := &mockParentRepo{items: map[string]*models.Parent{
		"parent-1": {ID: "parent-1", StudentID: "student-1", Name: "Dana Lee"},
		"parent-2": {ID: "parent-2", StudentID: "student-2", Name: "Sam Wu"},
	}}
	service := newParentService(repo)

	parents, err := service.ListByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, "Dana Lee", parents[0].Name)
}

func TestParentServiceDeleteMissing(t *testing.T) {
	service := newParentService(&mockParentRepo{})

	err := service.Delete(context.Background(), "parent-gone")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
