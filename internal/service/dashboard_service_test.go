package service

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type mockClassCounter struct {
	count int
	err   error
}

func (m *mockClassCounter) CountByStatus(ctx context.Context, status models.ClassStatus) (int, error) {
	return m.count, m.err
}

type mockStudentCounter struct {
	count int
}

func (m *mockStudentCounter) CountByStatus(ctx context.Context, status string) (int, error) {
	return m.count, nil
}

type mockVideoCounter struct {
	count int
}

func (m *mockVideoCounter) Count(ctx context.Context) (int, error) {
	return m.count, nil
}

type mockFeeCounter struct {
	count int
}

func (m *mockFeeCounter) CountUnpaid(ctx context.Context) (int, error) {
	return m.count, nil
}

func newDashboardService(classes *mockClassCounter, metrics *MetricsService) *DashboardService {
	clock := NewClock("Australia/Melbourne", 10, zap.NewNop())
	return NewDashboardService(classes, &mockStudentCounter{count: 42}, &mockVideoCounter{count: 7}, &mockFeeCounter{count: 3}, nil, time.Minute, metrics, clock, zap.NewNop())
}

func TestDashboardServiceSummaryCounts(t *testing.T) {
	service := newDashboardService(&mockClassCounter{count: 5}, nil)

	summary, cached, err := service.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 5, summary.ActiveClasses)
	assert.Equal(t, 42, summary.ActiveStudents)
	assert.Equal(t, 7, summary.Videos)
	assert.Equal(t, 3, summary.UnpaidFees)
	assert.False(t, summary.GeneratedAt.IsZero())
}

func TestDashboardServiceSummaryCounterFailure(t *testing.T) {
	service := newDashboardService(&mockClassCounter{err: assert.AnError}, nil)

	_, _, err := service.Summary(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestDashboardServiceSummaryRecordsQueryTimings(t *testing.T) {
	metrics := NewMetricsService()
	service := newDashboardService(&mockClassCounter{count: 1}, metrics)

	_, _, err := service.Summary(context.Background())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `db_query_duration_seconds_count{query="count_active_classes"} 1`)
	assert.Contains(t, body, `db_query_duration_seconds_count{query="count_unpaid_fees"} 1`)
}

func TestDashboardServiceInvalidateWithoutCache(t *testing.T) {
	service := newDashboardService(&mockClassCounter{count: 1}, nil)

	assert.NotPanics(t, func() {
		service.Invalidate(context.Background())
	})
}
