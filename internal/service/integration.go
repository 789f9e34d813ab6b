package service

import (
	"context"
	"io"

	"github.com/scimind/portal-api/internal/models"
)

// CourseService abstracts the classroom platform. Implementations act on
// behalf of a specific integration account; calls never run inside a
// database transaction.
type CourseService interface {
	CreateCourse(ctx context.Context, account *models.IntegrationAccount, name, section string) (*models.ExternalCourse, error)
	ListCourses(ctx context.Context, account *models.IntegrationAccount) ([]models.ExternalCourse, error)
	AnnounceVideo(ctx context.Context, account *models.IntegrationAccount, courseID, title, watchURL string) error
}

// VideoPlatformService abstracts the video platform.
type VideoPlatformService interface {
	EnsurePlaylist(ctx context.Context, account *models.IntegrationAccount, title string) (string, error)
	Upload(ctx context.Context, account *models.IntegrationAccount, file io.Reader, title, description, playlistID, privacy string) (string, error)
	ListPlaylists(ctx context.Context, account *models.IntegrationAccount) ([]models.ExternalPlaylist, error)
	WatchURL(videoID string) string
}
