package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type mockSyncAccountRepo struct {
	byEmail map[string]*models.IntegrationAccount
	stamped []string
}

func (m *mockSyncAccountRepo) FindByGoogleEmail(ctx context.Context, email string) (*models.IntegrationAccount, error) {
	if account, ok := m.byEmail[email]; ok {
		return account, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSyncAccountRepo) UpdateLastSynced(ctx context.Context, id string, at time.Time) error {
	m.stamped = append(m.stamped, id)
	return nil
}

type mockSyncCourseRepo struct {
	received []models.ExternalCourse
	result   models.SyncResult
}

func (m *mockSyncCourseRepo) Reconcile(ctx context.Context, courses []models.ExternalCourse, accountID string, userID *string) (models.SyncResult, error) {
	m.received = courses
	return m.result, nil
}

type mockSyncVideoRepo struct {
	received []models.ExternalPlaylist
	result   models.SyncResult
}

func (m *mockSyncVideoRepo) ReconcilePlaylists(ctx context.Context, playlists []models.ExternalPlaylist, accountID string, userID *string) (models.SyncResult, error) {
	m.received = playlists
	return m.result, nil
}

type mockVideoPlatform struct {
	playlists   []models.ExternalPlaylist
	ensured     map[string]string
	uploadedIDs []string
	listErr     error
	uploadErr   error
	ensureErr   error
}

func (m *mockVideoPlatform) EnsurePlaylist(ctx context.Context, account *models.IntegrationAccount, title string) (string, error) {
	if m.ensureErr != nil {
		return "", m.ensureErr
	}
	if m.ensured == nil {
		m.ensured = make(map[string]string)
	}
	id := "PL-" + title
	m.ensured[title] = id
	return id, nil
}

func (m *mockVideoPlatform) Upload(ctx context.Context, account *models.IntegrationAccount, file io.Reader, title, description, playlistID, privacy string) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	id := "vid-" + title
	m.uploadedIDs = append(m.uploadedIDs, id)
	return id, nil
}

func (m *mockVideoPlatform) ListPlaylists(ctx context.Context, account *models.IntegrationAccount) ([]models.ExternalPlaylist, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.playlists, nil
}

func (m *mockVideoPlatform) WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func TestSyncServiceReconcileCourses(t *testing.T) {
	accounts := &mockSyncAccountRepo{byEmail: map[string]*models.IntegrationAccount{
		"teach@scimind.example": {ID: "acct-1", GoogleEmail: "teach@scimind.example"},
	}}
	courses := &mockSyncCourseRepo{result: models.SyncResult{Added: 2, Updated: 1}}
	classroom := &mockCourseService{courses: []models.ExternalCourse{
		{CourseID: "c1", Name: "Maths"},
		{CourseID: "c2", Name: "Physics"},
		{CourseID: "c3", Name: "Chemistry"},
	}}
	service := NewSyncService(accounts, courses, &mockSyncVideoRepo{}, classroom, &mockVideoPlatform{}, zap.NewNop())

	result, err := service.ReconcileCourses(context.Background(), "teach@scimind.example", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 1, result.Updated)
	assert.Len(t, courses.received, 3)
	assert.Equal(t, []string{"acct-1"}, accounts.stamped)
}

func TestSyncServiceReconcilePlaylists(t *testing.T) {
	accounts := &mockSyncAccountRepo{byEmail: map[string]*models.IntegrationAccount{
		"teach@scimind.example": {ID: "acct-1", GoogleEmail: "teach@scimind.example"},
	}}
	videos := &mockSyncVideoRepo{result: models.SyncResult{Added: 1}}
	platform := &mockVideoPlatform{playlists: []models.ExternalPlaylist{{PlaylistID: "PL1", Title: "Year 10 Maths"}}}
	service := NewSyncService(accounts, &mockSyncCourseRepo{}, videos, &mockCourseService{}, platform, zap.NewNop())

	result, err := service.ReconcilePlaylists(context.Background(), "teach@scimind.example", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Len(t, videos.received, 1)
}

func TestSyncServiceRequiresEmail(t *testing.T) {
	service := NewSyncService(&mockSyncAccountRepo{}, &mockSyncCourseRepo{}, &mockSyncVideoRepo{}, &mockCourseService{}, &mockVideoPlatform{}, zap.NewNop())

	_, err := service.ReconcileCourses(context.Background(), "", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSyncServiceUnknownAccount(t *testing.T) {
	service := NewSyncService(&mockSyncAccountRepo{}, &mockSyncCourseRepo{}, &mockSyncVideoRepo{}, &mockCourseService{}, &mockVideoPlatform{}, zap.NewNop())

	_, err := service.ReconcileCourses(context.Background(), "ghost@scimind.example", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSyncServiceUpstreamFailure(t *testing.T) {
	accounts := &mockSyncAccountRepo{byEmail: map[string]*models.IntegrationAccount{
		"teach@scimind.example": {ID: "acct-1"},
	}}
	platform := &mockVideoPlatform{listErr: errors.New("quota exceeded")}
	service := NewSyncService(accounts, &mockSyncCourseRepo{}, &mockSyncVideoRepo{}, &mockCourseService{}, platform, zap.NewNop())

	_, err := service.ReconcilePlaylists(context.Background(), "teach@scimind.example", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
	assert.Empty(t, accounts.stamped)
}
