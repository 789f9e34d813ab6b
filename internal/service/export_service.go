package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
	"github.com/scimind/portal-api/pkg/export"
)

type exportStudentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type exportFeeRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentFee, error)
}

// ExportFile is a rendered document ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders roster and fee statement documents.
type ExportService struct {
	students exportStudentRepository
	fees     exportFeeRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(students exportStudentRepository, fees exportFeeRepository, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{students: students, fees: fees, csv: csv, pdf: pdf, logger: logger}
}

// StudentRoster renders the full student roster as CSV.
func (s *ExportService) StudentRoster(ctx context.Context, filter models.StudentFilter) (*ExportFile, error) {
	filter.Page = 1
	filter.PageSize = 100
	var rows []map[string]string
	for {
		students, total, err := s.students.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
		}
		for _, st := range students {
			dob := ""
			if st.DOB != nil {
				dob = st.DOB.Format("2006-01-02")
			}
			rows = append(rows, map[string]string{
				"Student Code": st.StudentCode,
				"First Name":   st.FirstName,
				"Last Name":    st.LastName,
				"DOB":          dob,
				"Contact":      st.ContactNumber,
				"Email":        st.Email,
				"School":       st.GradeSchool,
				"Status":       st.Status,
			})
		}
		if filter.Page*filter.PageSize >= total {
			break
		}
		filter.Page++
	}

	content, err := s.csv.Render(export.Dataset{
		Headers: []string{"Student Code", "First Name", "Last Name", "DOB", "Contact", "Email", "School", "Status"},
		Rows:    rows,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	return &ExportFile{
		Filename:    "student_roster.csv",
		ContentType: "text/csv",
		Content:     content,
	}, nil
}

// FeeStatement renders a PDF statement of all fees raised against a student.
func (s *ExportService) FeeStatement(ctx context.Context, studentID string) (*ExportFile, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	fees, err := s.fees.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fees")
	}

	rows := make([]map[string]string, 0, len(fees))
	var totalDue, totalPaid float64
	for _, fee := range fees {
		due := ""
		if fee.DueDate != nil {
			due = fee.DueDate.Format("2006-01-02")
		}
		rows = append(rows, map[string]string{
			"Fee Type": fee.FeeType,
			"Due":      strconv.FormatFloat(fee.AmountDue, 'f', 2, 64),
			"Discount": strconv.FormatFloat(fee.Discount, 'f', 2, 64),
			"Paid":     strconv.FormatFloat(fee.AmountPaid, 'f', 2, 64),
			"Due Date": due,
			"Status":   fee.PaymentStatus,
		})
		totalDue += fee.AmountDue - fee.Discount
		totalPaid += fee.AmountPaid
	}
	rows = append(rows, map[string]string{
		"Fee Type": "TOTAL",
		"Due":      strconv.FormatFloat(totalDue, 'f', 2, 64),
		"Paid":     strconv.FormatFloat(totalPaid, 'f', 2, 64),
	})

	title := fmt.Sprintf("Fee Statement - %s %s (%s)", student.FirstName, student.LastName, student.StudentCode)
	content, err := s.pdf.Render(export.Dataset{
		Headers: []string{"Fee Type", "Due", "Discount", "Paid", "Due Date", "Status"},
		Rows:    rows,
	}, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render fee statement")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("fee_statement_%s.pdf", student.StudentCode),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}
