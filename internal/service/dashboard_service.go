package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

const dashboardCacheKey = "portal:dashboard:summary"

type dashboardClassCounter interface {
	CountByStatus(ctx context.Context, status models.ClassStatus) (int, error)
}

type dashboardStudentCounter interface {
	CountByStatus(ctx context.Context, status string) (int, error)
}

type dashboardVideoCounter interface {
	Count(ctx context.Context) (int, error)
}

type dashboardFeeCounter interface {
	CountUnpaid(ctx context.Context) (int, error)
}

// snapshotInvalidator is what mutating services hold to drop the cached
// dashboard snapshot after a write.
type snapshotInvalidator interface {
	Invalidate(ctx context.Context)
}

// DashboardSummary is the cached headline view.
type DashboardSummary struct {
	ActiveClasses  int       `json:"active_classes"`
	ActiveStudents int       `json:"active_students"`
	Videos         int       `json:"videos"`
	UnpaidFees     int       `json:"unpaid_fees"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// DashboardService aggregates headline counts, serving them from redis when
// a fresh snapshot exists.
type DashboardService struct {
	classes  dashboardClassCounter
	students dashboardStudentCounter
	videos   dashboardVideoCounter
	fees     dashboardFeeCounter
	cache    *redis.Client
	ttl      time.Duration
	metrics  *MetricsService
	clock    *Clock
	logger   *zap.Logger
}

// NewDashboardService constructs DashboardService. A nil cache client
// disables caching.
func NewDashboardService(classes dashboardClassCounter, students dashboardStudentCounter, videos dashboardVideoCounter, fees dashboardFeeCounter, cache *redis.Client, ttl time.Duration, metrics *MetricsService, clock *Clock, logger *zap.Logger) *DashboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{classes: classes, students: students, videos: videos, fees: fees, cache: cache, ttl: ttl, metrics: metrics, clock: clock, logger: logger}
}

// Summary returns the headline counts and whether they came from cache.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, bool, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, true, nil
	}

	summary := &DashboardSummary{GeneratedAt: s.clock.Now()}
	var err error
	start := time.Now()
	if summary.ActiveClasses, err = s.classes.CountByStatus(ctx, models.ClassStatusActive); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}
	s.metrics.ObserveDBQuery("count_active_classes", time.Since(start))
	start = time.Now()
	if summary.ActiveStudents, err = s.students.CountByStatus(ctx, "active"); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	s.metrics.ObserveDBQuery("count_active_students", time.Since(start))
	start = time.Now()
	if summary.Videos, err = s.videos.Count(ctx); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count videos")
	}
	s.metrics.ObserveDBQuery("count_videos", time.Since(start))
	start = time.Now()
	if summary.UnpaidFees, err = s.fees.CountUnpaid(ctx); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unpaid fees")
	}
	s.metrics.ObserveDBQuery("count_unpaid_fees", time.Since(start))

	s.store(ctx, summary)
	return summary, false, nil
}

// Invalidate drops the cached snapshot, forcing a recount on the next read.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, dashboardCacheKey).Err(); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) fromCache(ctx context.Context) *DashboardSummary {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		return nil
	}
	var summary DashboardSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		s.logger.Warn("dashboard cache payload corrupt", zap.Error(err))
		return nil
	}
	return &summary
}

func (s *DashboardService) store(ctx context.Context, summary *DashboardSummary) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn("dashboard cache encode failed", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
}
