package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type syncAccountRepository interface {
	FindByGoogleEmail(ctx context.Context, email string) (*models.IntegrationAccount, error)
	UpdateLastSynced(ctx context.Context, id string, at time.Time) error
}

type syncCourseRepository interface {
	Reconcile(ctx context.Context, courses []models.ExternalCourse, accountID string, userID *string) (models.SyncResult, error)
}

type syncVideoRepository interface {
	ReconcilePlaylists(ctx context.Context, playlists []models.ExternalPlaylist, accountID string, userID *string) (models.SyncResult, error)
}

// SyncService pulls courses and playlists from the platforms into local
// mirrors. Reconciliation is one-way and additive: upstream is the source of
// truth for what exists, but nothing local is ever deleted.
type SyncService struct {
	accounts  syncAccountRepository
	courses   syncCourseRepository
	videos    syncVideoRepository
	classroom CourseService
	platform  VideoPlatformService
	logger    *zap.Logger
}

// NewSyncService constructs SyncService.
func NewSyncService(accounts syncAccountRepository, courses syncCourseRepository, videos syncVideoRepository, classroom CourseService, platform VideoPlatformService, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{accounts: accounts, courses: courses, videos: videos, classroom: classroom, platform: platform, logger: logger}
}

// ReconcileCourses merges the classroom course list for a teacher's account
// into local mirrors and reports how many rows were added and updated.
func (s *SyncService) ReconcileCourses(ctx context.Context, teacherEmail string, callerID string) (*models.SyncResult, error) {
	account, err := s.resolveAccount(ctx, teacherEmail)
	if err != nil {
		return nil, err
	}

	upstream, err := s.classroom.ListCourses(ctx, account)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list classroom courses")
	}

	result, err := s.courses.Reconcile(ctx, upstream, account.ID, &callerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "course reconciliation failed")
	}
	s.stamp(ctx, account.ID)

	s.logger.Info("course reconciliation complete",
		zap.String("account", account.GoogleEmail),
		zap.Int("added", result.Added),
		zap.Int("updated", result.Updated))
	return &result, nil
}

// ReconcilePlaylists merges the playlist list for a teacher's account into
// local placeholder video rows.
func (s *SyncService) ReconcilePlaylists(ctx context.Context, teacherEmail string, callerID string) (*models.SyncResult, error) {
	account, err := s.resolveAccount(ctx, teacherEmail)
	if err != nil {
		return nil, err
	}

	upstream, err := s.platform.ListPlaylists(ctx, account)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list playlists")
	}

	result, err := s.videos.ReconcilePlaylists(ctx, upstream, account.ID, &callerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "playlist reconciliation failed")
	}
	s.stamp(ctx, account.ID)

	s.logger.Info("playlist reconciliation complete",
		zap.String("account", account.GoogleEmail),
		zap.Int("added", result.Added),
		zap.Int("updated", result.Updated))
	return &result, nil
}

func (s *SyncService) resolveAccount(ctx context.Context, teacherEmail string) (*models.IntegrationAccount, error) {
	if teacherEmail == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher email is required")
	}
	account, err := s.accounts.FindByGoogleEmail(ctx, teacherEmail)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no integration account for this email")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve integration account")
	}
	return account, nil
}

func (s *SyncService) stamp(ctx context.Context, accountID string) {
	if err := s.accounts.UpdateLastSynced(ctx, accountID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to stamp last synced", zap.String("account_id", accountID), zap.Error(err))
	}
}
