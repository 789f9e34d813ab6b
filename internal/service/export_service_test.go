package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
	"github.com/scimind/portal-api/pkg/export"
)

func newExportService(students *mockStudentRepo, fees *mockFeeRepo) *ExportService {
	return NewExportService(students, fees, export.NewCSVExporter(), export.NewPDFExporter(), zap.NewNop())
}

func TestExportServiceStudentRoster(t *testing.T) {
	dob := time.Date(2010, 4, 2, 0, 0, 0, 0, time.UTC)
	students := &mockStudentRepo{
		listResult: []models.Student{
			{StudentCode: "STU-2026-0001", FirstName: "Ava", LastName: "Chen", DOB: &dob, Email: "ava@example.com", Status: "active"},
			{StudentCode: "STU-2026-0002", FirstName: "Liam", LastName: "Patel", Status: "active"},
		},
		listTotal: 2,
	}
	service := newExportService(students, &mockFeeRepo{})

	file, err := service.StudentRoster(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, "student_roster.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	body := string(file.Content)
	assert.Contains(t, body, "Student Code")
	assert.Contains(t, body, "STU-2026-0001")
	assert.Contains(t, body, "2010-04-02")
	assert.Contains(t, body, "Liam")
}

func TestExportServiceFeeStatement(t *testing.T) {
	students := &mockStudentRepo{items: map[string]*models.Student{
		"student-1": {ID: "student-1", StudentCode: "STU-2026-0001", FirstName: "Ava", LastName: "Chen"},
	}}
	fees := &mockFeeRepo{items: map[string]*models.StudentFee{
		"fee-1": {ID: "fee-1", StudentID: "student-1", FeeType: "tuition", AmountDue: 1000, AmountPaid: 400, PaymentStatus: models.FeeStatusPartial},
	}}
	service := newExportService(students, fees)

	file, err := service.FeeStatement(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "fee_statement_STU-2026-0001.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	require.NotEmpty(t, file.Content)
	assert.Equal(t, "%PDF", string(file.Content[:4]))
}

func TestExportServiceFeeStatementUnknownStudent(t *testing.T) {
	service := newExportService(&mockStudentRepo{}, &mockFeeRepo{})

	_, err := service.FeeStatement(context.Background(), "student-gone")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
