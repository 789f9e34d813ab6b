package service

import (
	"context"
	"database/sql"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
	"github.com/scimind/portal-api/pkg/storage"
)

type videoRepository interface {
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error)
	FindByID(ctx context.Context, id string) (*models.Video, error)
	Create(ctx context.Context, video *models.Video) error
	SetCoursePosted(ctx context.Context, id string, posted bool) error
	Delete(ctx context.Context, id string) error
}

type videoClassRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Class, error)
	UpdatePlaylist(ctx context.Context, classID, playlistID string) error
}

// UploadVideoRequest captures the multipart upload payload. The file itself
// arrives as a stream alongside the form fields.
type UploadVideoRequest struct {
	ClassCode       string `validate:"required"`
	Title           string `validate:"required"`
	Description     string
	Filename        string `validate:"required"`
	PostToClassroom bool
	File            io.Reader `validate:"required"`
}

// VideoService runs the upload pipeline: stage locally, push to the video
// platform, record the mirror, then optionally announce on the classroom.
type VideoService struct {
	repo      videoRepository
	classes   videoClassRepository
	courses   courseMirrorRepository
	accounts  integrationAccountResolver
	platform  VideoPlatformService
	classroom CourseService
	staging   *storage.LocalStorage
	privacy   string
	clock     *Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVideoService constructs VideoService.
func NewVideoService(repo videoRepository, classes videoClassRepository, courses courseMirrorRepository, accounts integrationAccountResolver, platform VideoPlatformService, classroom CourseService, staging *storage.LocalStorage, privacy string, clock *Clock, validate *validator.Validate, logger *zap.Logger) *VideoService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if privacy == "" {
		privacy = "unlisted"
	}
	return &VideoService{repo: repo, classes: classes, courses: courses, accounts: accounts, platform: platform, classroom: classroom, staging: staging, privacy: privacy, clock: clock, validator: validate, logger: logger}
}

// List returns videos with pagination metadata.
func (s *VideoService) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, *models.Pagination, error) {
	videos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list videos")
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
	return videos, pagination, nil
}

// Upload stages the file, uploads it into the class playlist and records the
// mirror row. A classroom announcement failure degrades to a status string;
// the upload itself has already succeeded at that point.
func (s *VideoService) Upload(ctx context.Context, req UploadVideoRequest, callerID string) (*models.UploadResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload")
	}

	class, err := s.classes.FindByCode(ctx, req.ClassCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	account, err := s.accounts.FirstAccountForUser(ctx, callerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no integration account available for this user")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve integration account")
	}

	staged, err := s.staging.SaveStream(req.Filename, req.File)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage upload")
	}
	defer func() {
		if err := s.staging.Delete(staged); err != nil {
			s.logger.Warn("failed to remove staged upload", zap.String("file", staged), zap.Error(err))
		}
	}()

	playlistID, err := s.resolvePlaylist(ctx, class, account)
	if err != nil {
		return nil, err
	}

	f, err := s.staging.Open(staged)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open staged upload")
	}
	defer f.Close()

	videoID, err := s.platform.Upload(ctx, account, f, req.Title, req.Description, playlistID, s.privacy)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "video upload failed")
	}

	video := &models.Video{
		VideoID:              videoID,
		Title:                req.Title,
		ClassID:              &class.ID,
		PlaylistID:           &playlistID,
		IntegrationAccountID: account.ID,
		UploadedBy:           &callerID,
		PublishedAt:          s.clock.Now(),
	}
	if err := s.repo.Create(ctx, video); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record video")
	}

	courseStatus := "not requested"
	if req.PostToClassroom {
		courseStatus = s.announce(ctx, video, class, account)
	}

	return &models.UploadResult{
		VideoID:      videoID,
		Title:        req.Title,
		WatchURL:     s.platform.WatchURL(videoID),
		PlaylistID:   playlistID,
		CourseStatus: courseStatus,
	}, nil
}

// resolvePlaylist reuses the class playlist or creates one named after the
// class, persisting the linkage.
func (s *VideoService) resolvePlaylist(ctx context.Context, class *models.Class, account *models.IntegrationAccount) (string, error) {
	if class.PlaylistID != nil && *class.PlaylistID != "" {
		return *class.PlaylistID, nil
	}
	playlistID, err := s.platform.EnsurePlaylist(ctx, account, class.ClassName)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "playlist creation failed")
	}
	if err := s.classes.UpdatePlaylist(ctx, class.ID, playlistID); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record class playlist")
	}
	return playlistID, nil
}

func (s *VideoService) announce(ctx context.Context, video *models.Video, class *models.Class, account *models.IntegrationAccount) string {
	mirror, err := s.courses.LatestByClass(ctx, class.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "class has no linked classroom course"
		}
		s.logger.Warn("failed to load course mirror for announcement", zap.Error(err))
		return "classroom lookup failed"
	}
	if err := s.classroom.AnnounceVideo(ctx, account, mirror.CourseID, video.Title, s.platform.WatchURL(video.VideoID)); err != nil {
		s.logger.Warn("classroom announcement failed",
			zap.String("video_id", video.VideoID),
			zap.String("course_id", mirror.CourseID),
			zap.Error(err))
		return "classroom announcement failed"
	}
	if err := s.repo.SetCoursePosted(ctx, video.ID, true); err != nil {
		s.logger.Warn("failed to flag video as posted", zap.String("video_id", video.VideoID), zap.Error(err))
	}
	return "posted"
}

// PostToCourse announces an already uploaded video on its class's linked
// course. Unlike upload-time posting, a platform failure here fails the call.
func (s *VideoService) PostToCourse(ctx context.Context, videoRowID, callerID string) error {
	video, err := s.repo.FindByID(ctx, videoRowID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	if video.ClassID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "video is not linked to a class")
	}

	account, err := s.accounts.FirstAccountForUser(ctx, callerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "no integration account available for this user")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve integration account")
	}

	mirror, err := s.courses.LatestByClass(ctx, *video.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class has no linked classroom course")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course mirror")
	}

	if err := s.classroom.AnnounceVideo(ctx, account, mirror.CourseID, video.Title, s.platform.WatchURL(video.VideoID)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "classroom announcement failed")
	}
	if err := s.repo.SetCoursePosted(ctx, video.ID, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to flag video as posted")
	}
	return nil
}

// Delete removes a video mirror row. The platform copy is left alone.
func (s *VideoService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "video not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load video")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete video")
	}
	return nil
}
