package google

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/classroom/v1"
	"google.golang.org/api/option"

	"github.com/scimind/portal-api/internal/models"
)

// ClassroomClient talks to Google Classroom on behalf of integration
// accounts. It satisfies the service layer's CourseService interface.
type ClassroomClient struct {
	cfg    Config
	logger *zap.Logger
}

// NewClassroomClient constructs the client.
func NewClassroomClient(cfg Config, logger *zap.Logger) *ClassroomClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomClient{cfg: cfg, logger: logger}
}

func (c *ClassroomClient) service(ctx context.Context, account *models.IntegrationAccount) (*classroom.Service, error) {
	client := httpClient(ctx, c.cfg, account, c.cfg.ClassroomScopes)
	svc, err := classroom.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("build classroom service: %w", err)
	}
	return svc, nil
}

// CreateCourse creates a course owned by the account and returns its mirror
// fields, including the enrollment code students join with.
func (c *ClassroomClient) CreateCourse(ctx context.Context, account *models.IntegrationAccount, name, section string) (*models.ExternalCourse, error) {
	svc, err := c.service(ctx, account)
	if err != nil {
		return nil, err
	}

	created, err := svc.Courses.Create(&classroom.Course{
		Name:        name,
		Section:     section,
		OwnerId:     "me",
		CourseState: "ACTIVE",
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	c.logger.Info("classroom course created",
		zap.String("course_id", created.Id),
		zap.String("account", account.GoogleEmail))
	return &models.ExternalCourse{
		CourseID: created.Id,
		Name:     created.Name,
		Section:  created.Section,
		JoinCode: created.EnrollmentCode,
	}, nil
}

// ListCourses returns every course the account teaches.
func (c *ClassroomClient) ListCourses(ctx context.Context, account *models.IntegrationAccount) ([]models.ExternalCourse, error) {
	svc, err := c.service(ctx, account)
	if err != nil {
		return nil, err
	}

	var courses []models.ExternalCourse
	call := svc.Courses.List().TeacherId("me").PageSize(100)
	for {
		page, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("list courses: %w", err)
		}
		for _, course := range page.Courses {
			courses = append(courses, models.ExternalCourse{
				CourseID: course.Id,
				Name:     course.Name,
				Section:  course.Section,
				JoinCode: course.EnrollmentCode,
			})
		}
		if page.NextPageToken == "" {
			return courses, nil
		}
		call = call.PageToken(page.NextPageToken)
	}
}

// AnnounceVideo posts an announcement linking to the video on the course
// stream.
func (c *ClassroomClient) AnnounceVideo(ctx context.Context, account *models.IntegrationAccount, courseID, title, watchURL string) error {
	svc, err := c.service(ctx, account)
	if err != nil {
		return err
	}

	announcement := &classroom.Announcement{
		Text: fmt.Sprintf("New video: %s\n%s", title, watchURL),
		Materials: []*classroom.Material{
			{Link: &classroom.Link{Url: watchURL, Title: title}},
		},
	}
	if _, err := svc.Courses.Announcements.Create(courseID, announcement).Context(ctx).Do(); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}
