package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type mockClassRepo struct {
	items      map[string]*models.Class
	tuples     map[models.ClassTuple]bool
	createErr  error
	playlists  map[string]string
	cascades   map[string]models.CascadeSummary
	deleted    []string
	listResult []models.Class
	listTotal  int
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	return m.listResult, m.listTotal, nil
}

func (m *mockClassRepo) FindByCode(ctx context.Context, code string) (*models.Class, error) {
	if class, ok := m.items[code]; ok {
		cp := *class
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) FindDetailByCode(ctx context.Context, code string) (*models.ClassDetail, error) {
	if class, ok := m.items[code]; ok {
		return &models.ClassDetail{Class: *class}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) ExistsByTuple(ctx context.Context, tuple models.ClassTuple) (bool, error) {
	return m.tuples[tuple], nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.items == nil {
		m.items = make(map[string]*models.Class)
	}
	if class.ID == "" {
		class.ID = "class-generated"
	}
	cp := *class
	m.items[class.ClassCode] = &cp
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	cp := *class
	m.items[class.ClassCode] = &cp
	return nil
}

func (m *mockClassRepo) UpdatePlaylist(ctx context.Context, classID, playlistID string) error {
	if m.playlists == nil {
		m.playlists = make(map[string]string)
	}
	m.playlists[classID] = playlistID
	return nil
}

func (m *mockClassRepo) DeleteCascade(ctx context.Context, classID string) (models.CascadeSummary, error) {
	m.deleted = append(m.deleted, classID)
	return m.cascades[classID], nil
}

type mockCourseMirrorRepo struct {
	created   []*models.ClassroomCourse
	linked    map[string]string
	latest    map[string]*models.ClassroomCourse
	linkErr   error
	createErr error
}

func (m *mockCourseMirrorRepo) Create(ctx context.Context, course *models.ClassroomCourse) error {
	if m.createErr != nil {
		return m.createErr
	}
	course.ID = "mirror-generated"
	m.created = append(m.created, course)
	if m.latest == nil {
		m.latest = make(map[string]*models.ClassroomCourse)
	}
	if course.ClassID != nil {
		m.latest[*course.ClassID] = course
	}
	return nil
}

func (m *mockCourseMirrorRepo) UpdateClassLink(ctx context.Context, courseID, classID string) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	if m.linked == nil {
		m.linked = make(map[string]string)
	}
	m.linked[courseID] = classID
	return nil
}

func (m *mockCourseMirrorRepo) LatestByClass(ctx context.Context, classID string) (*models.ClassroomCourse, error) {
	if mirror, ok := m.latest[classID]; ok {
		return mirror, nil
	}
	return nil, sql.ErrNoRows
}

type mockPlaylistVideoRepo struct {
	assigned map[string]string
	count    int
}

func (m *mockPlaylistVideoRepo) AssignClassByPlaylist(ctx context.Context, playlistID, classID string) (int, error) {
	if m.assigned == nil {
		m.assigned = make(map[string]string)
	}
	m.assigned[playlistID] = classID
	return m.count, nil
}

type mockAccountResolver struct {
	accounts map[string]*models.IntegrationAccount
}

func (m *mockAccountResolver) FirstAccountForUser(ctx context.Context, userID string) (*models.IntegrationAccount, error) {
	if account, ok := m.accounts[userID]; ok {
		return account, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseService struct {
	courses     []models.ExternalCourse
	created     []string
	announced   []string
	createErr   error
	listErr     error
	announceErr error
}

func (m *mockCourseService) CreateCourse(ctx context.Context, account *models.IntegrationAccount, name, section string) (*models.ExternalCourse, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, name)
	return &models.ExternalCourse{CourseID: "course-1", Name: name, Section: section, JoinCode: "abc123"}, nil
}

func (m *mockCourseService) ListCourses(ctx context.Context, account *models.IntegrationAccount) ([]models.ExternalCourse, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.courses, nil
}

func (m *mockCourseService) AnnounceVideo(ctx context.Context, account *models.IntegrationAccount, courseID, title, watchURL string) error {
	if m.announceErr != nil {
		return m.announceErr
	}
	m.announced = append(m.announced, courseID)
	return nil
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) Invalidate(ctx context.Context) {
	m.calls++
}

func newClassService(repo *mockClassRepo, courses *mockCourseMirrorRepo, videos *mockPlaylistVideoRepo, accounts *mockAccountResolver, classroom *mockCourseService) *ClassService {
	clock := NewClock("Australia/Melbourne", 10, zap.NewNop())
	return NewClassService(repo, courses, videos, accounts, classroom, nil, clock, validator.New(), zap.NewNop())
}

func TestClassServiceCreateDerivesCode(t *testing.T) {
	repo := &mockClassRepo{}
	service := newClassService(repo, &mockCourseMirrorRepo{}, &mockPlaylistVideoRepo{}, &mockAccountResolver{}, &mockCourseService{})

	class, warning, err := service.Create(context.Background(), CreateClassRequest{
		Subject:   "Mathematics",
		YearLevel: "10",
		Batch:     "A",
		SubBatch:  "G",
		ClassType: "regular",
	}, "user-1")
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, "MAT10AGR", class.ClassCode)
	assert.Equal(t, models.ClassStatusActive, class.Status)
	require.NotNil(t, class.UpdatedBy)
	assert.Equal(t, "user-1", *class.UpdatedBy)
}

func TestClassServiceCreateDuplicateTuple(t *testing.T) {
	tuple := models.ClassTuple{Subject: "Mathematics", YearLevel: "10", Batch: "A", ClassType: "regular"}
	repo := &mockClassRepo{tuples: map[models.ClassTuple]bool{tuple: true}}
	service := newClassService(repo, &mockCourseMirrorRepo{}, &mockPlaylistVideoRepo{}, &mockAccountResolver{}, &mockCourseService{})

	_, _, err := service.Create(context.Background(), CreateClassRequest{
		Subject:   "Mathematics",
		YearLevel: "10",
		Batch:     "A",
		ClassType: "regular",
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestClassServiceCreateClassroomFailureDegradesToWarning(t *testing.T) {
	repo := &mockClassRepo{}
	classroom := &mockCourseService{createErr: errors.New("classroom down")}
	accounts := &mockAccountResolver{accounts: map[string]*models.IntegrationAccount{
		"user-1": {ID: "acct-1", GoogleEmail: "teach@scimind.example"},
	}}
	service := newClassService(repo, &mockCourseMirrorRepo{}, &mockPlaylistVideoRepo{}, accounts, classroom)

	class, warning, err := service.Create(context.Background(), CreateClassRequest{
		Subject:       "Chemistry",
		YearLevel:     "12",
		Batch:         "B",
		ClassType:     "regular",
		LinkClassroom: true,
	}, "user-1")
	require.NoError(t, err)
	require.NotNil(t, class)
	assert.Contains(t, warning, "classroom link failed")
	assert.Len(t, repo.items, 1)
}

func TestClassServiceCreateWithClassroomPersistsMirror(t *testing.T) {
	repo := &mockClassRepo{}
	courses := &mockCourseMirrorRepo{}
	classroom := &mockCourseService{}
	accounts := &mockAccountResolver{accounts: map[string]*models.IntegrationAccount{
		"user-1": {ID: "acct-1"},
	}}
	service := newClassService(repo, courses, &mockPlaylistVideoRepo{}, accounts, classroom)

	_, warning, err := service.Create(context.Background(), CreateClassRequest{
		Subject:       "Physics",
		YearLevel:     "11",
		Batch:         "A",
		ClassType:     "regular",
		LinkClassroom: true,
	}, "user-1")
	require.NoError(t, err)
	assert.Empty(t, warning)
	require.Len(t, courses.created, 1)
	assert.Equal(t, "course-1", courses.created[0].CourseID)
	assert.Equal(t, "acct-1", courses.created[0].IntegrationAccountID)
}

func TestClassServiceUpdateRecomputesNameKeepsCode(t *testing.T) {
	repo := &mockClassRepo{items: map[string]*models.Class{
		"MAT10AG": {
			ID:        "class-1",
			ClassCode: "MAT10AG",
			ClassName: "Mathematics Yr10 A-G",
			Subject:   "Mathematics",
			YearLevel: "10",
			Batch:     "A",
			SubBatch:  "G",
			ClassType: "regular",
			Status:    models.ClassStatusActive,
		},
	}}
	service := newClassService(repo, &mockCourseMirrorRepo{}, &mockPlaylistVideoRepo{}, &mockAccountResolver{}, &mockCourseService{})

	subject := "Chemistry"
	class, err := service.Update(context.Background(), "MAT10AG", UpdateClassRequest{Subject: &subject}, "user-2")
	require.NoError(t, err)
	assert.Equal(t, "MAT10AG", class.ClassCode)
	assert.Equal(t, "Chemistry", class.Subject)
	assert.NotEqual(t, "Mathematics Yr10 A-G", class.ClassName)
}

func TestClassServiceUpdateRejectsUnknownStatus(t *testing.T) {
	repo := &mockClassRepo{items: map[string]*models.Class{"MAT10AG": {ID: "class-1", ClassCode: "MAT10AG"}}}
	service := newClassService(repo, &mockCourseMirrorRepo{}, &mockPlaylistVideoRepo{}, &mockAccountResolver{}, &mockCourseService{})

	status := "archived"
	_, err := service.Update(context.Background(), "MAT10AG", UpdateClassRequest{Status: &status}, "user-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassServiceDeleteCascades(t *testing.T) {
	repo := &mockClassRepo{
		items: map[string]*models.Class{"MAT10AG": {ID: "class-1", ClassCode: "MAT10AG"}},
		cascades: map[string]models.CascadeSummary{
			"class-1": {Enrollments: 3, Videos: 2, Deleted: true},
		},
	}
	service := newClassService(repo, &mockCourseMirrorRepo{}, &mockPlaylistVideoRepo{}, &mockAccountResolver{}, &mockCourseService{})

	summary, err := service.Delete(context.Background(), "MAT10AG")
	require.NoError(t, err)
	assert.True(t, summary.Deleted)
	assert.Equal(t, 3, summary.Enrollments)
	assert.Equal(t, []string{"class-1"}, repo.deleted)
}

func TestClassServiceDeleteAbsentClassIsNoop(t *testing.T) {
	repo := &mockClassRepo{}
	service := newClassService(repo, &mockCourseMirrorRepo{}, &mockPlaylistVideoRepo{}, &mockAccountResolver{}, &mockCourseService{})

	summary, err := service.Delete(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.False(t, summary.Deleted)
	assert.Empty(t, repo.deleted)
}

func TestClassServiceLinkClassroomUpstreamFailure(t *testing.T) {
	repo := &mockClassRepo{items: map[string]*models.Class{"MAT10AG": {ID: "class-1", ClassCode: "MAT10AG"}}}
	classroom := &mockCourseService{createErr: errors.New("timeout")}
	accounts := &mockAccountResolver{accounts: map[string]*models.IntegrationAccount{"user-1": {ID: "acct-1"}}}
	service := newClassService(repo, &mockCourseMirrorRepo{}, &mockPlaylistVideoRepo{}, accounts, classroom)

	_, err := service.LinkClassroom(context.Background(), "MAT10AG", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErrors.FromError(err).Code)
}

func TestClassServiceMapResources(t *testing.T) {
	repo := &mockClassRepo{items: map[string]*models.Class{"MAT10AG": {ID: "class-1", ClassCode: "MAT10AG"}}}
	courses := &mockCourseMirrorRepo{}
	videos := &mockPlaylistVideoRepo{count: 4}
	service := newClassService(repo, courses, videos, &mockAccountResolver{}, &mockCourseService{})

	courseID := "course-9"
	playlistID := "PL123"
	result, err := service.MapResources(context.Background(), MapResourcesRequest{
		ClassCode:  "MAT10AG",
		CourseID:   &courseID,
		PlaylistID: &playlistID,
	})
	require.NoError(t, err)
	assert.True(t, result.CourseLinked)
	assert.Equal(t, 4, result.VideosAssigned)
	assert.Equal(t, "class-1", courses.linked["course-9"])
	assert.Equal(t, "PL123", repo.playlists["class-1"])
}

func TestClassServiceMapResourcesNothingToMap(t *testing.T) {
	repo := &mockClassRepo{items: map[string]*models.Class{"MAT10AG": {ID: "class-1", ClassCode: "MAT10AG"}}}
	service := newClassService(repo, &mockCourseMirrorRepo{}, &mockPlaylistVideoRepo{}, &mockAccountResolver{}, &mockCourseService{})

	_, err := service.MapResources(context.Background(), MapResourcesRequest{ClassCode: "MAT10AG"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassServiceMutationsInvalidateDashboard(t *testing.T) {
	repo := &mockClassRepo{}
	dash := &mockInvalidator{}
	clock := NewClock("Australia/Melbourne", 10, zap.NewNop())
	service := NewClassService(repo, &mockCourseMirrorRepo{}, &mockPlaylistVideoRepo{}, &mockAccountResolver{}, &mockCourseService{}, dash, clock, validator.New(), zap.NewNop())

	_, _, err := service.Create(context.Background(), CreateClassRequest{
		Subject:   "Math",
		YearLevel: "Year 10",
		Batch:     "A",
		ClassType: "Group",
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, dash.calls)

	_, err = service.Delete(context.Background(), "MAT10AG")
	require.NoError(t, err)
	assert.Equal(t, 2, dash.calls)

	_, err = service.Delete(context.Background(), "GONE")
	require.NoError(t, err)
	assert.Equal(t, 2, dash.calls)
}
