package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/scimind/portal-api/internal/codes"
	"github.com/scimind/portal-api/internal/models"
	appErrors "github.com/scimind/portal-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByCode(ctx context.Context, code string) (*models.Class, error)
	FindDetailByCode(ctx context.Context, code string) (*models.ClassDetail, error)
	ExistsByTuple(ctx context.Context, tuple models.ClassTuple) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	UpdatePlaylist(ctx context.Context, classID, playlistID string) error
	DeleteCascade(ctx context.Context, classID string) (models.CascadeSummary, error)
}

type courseMirrorRepository interface {
	Create(ctx context.Context, course *models.ClassroomCourse) error
	UpdateClassLink(ctx context.Context, courseID, classID string) error
	LatestByClass(ctx context.Context, classID string) (*models.ClassroomCourse, error)
}

type playlistVideoRepository interface {
	AssignClassByPlaylist(ctx context.Context, playlistID, classID string) (int, error)
}

type integrationAccountResolver interface {
	FirstAccountForUser(ctx context.Context, userID string) (*models.IntegrationAccount, error)
}

// CreateClassRequest captures the creation payload. The class code and
// display name are derived server-side, never accepted from the client.
type CreateClassRequest struct {
	Subject       string  `json:"subject" validate:"required"`
	YearLevel     string  `json:"year_level" validate:"required"`
	Batch         string  `json:"batch" validate:"required"`
	SubBatch      string  `json:"sub_batch"`
	ClassType     string  `json:"class_type" validate:"required"`
	Description   string  `json:"description"`
	TeacherID     *string `json:"teacher_id"`
	ClassDay      string  `json:"class_day"`
	ClassTime     string  `json:"class_time"`
	Location      string  `json:"location"`
	LinkClassroom bool    `json:"link_classroom"`
}

// UpdateClassRequest carries a partial update; nil fields are left alone.
type UpdateClassRequest struct {
	Subject     *string `json:"subject"`
	YearLevel   *string `json:"year_level"`
	Batch       *string `json:"batch"`
	SubBatch    *string `json:"sub_batch"`
	ClassType   *string `json:"class_type"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=active inactive"`
	TeacherID   *string `json:"teacher_id"`
	ClassDay    *string `json:"class_day"`
	ClassTime   *string `json:"class_time"`
	Location    *string `json:"location"`
}

// MapResourcesRequest links previously synced platform resources to a class.
type MapResourcesRequest struct {
	ClassCode  string  `json:"class_code" validate:"required"`
	CourseID   *string `json:"course_id"`
	PlaylistID *string `json:"playlist_id"`
}

// MapResourcesResult reports what got linked.
type MapResourcesResult struct {
	CourseLinked   bool `json:"course_linked"`
	VideosAssigned int  `json:"videos_assigned"`
}

// ClassService coordinates class operations and their classroom side effects.
type ClassService struct {
	repo      classRepository
	courses   courseMirrorRepository
	videos    playlistVideoRepository
	accounts  integrationAccountResolver
	classroom CourseService
	dashboard snapshotInvalidator
	clock     *Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService. A nil dashboard skips snapshot
// invalidation.
func NewClassService(repo classRepository, courses courseMirrorRepository, videos playlistVideoRepository, accounts integrationAccountResolver, classroom CourseService, dashboard snapshotInvalidator, clock *Clock, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, courses: courses, videos: videos, accounts: accounts, classroom: classroom, dashboard: dashboard, clock: clock, validator: validate, logger: logger}
}

func (s *ClassService) invalidateDashboard(ctx context.Context) {
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
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
	return classes, pagination, nil
}

// Get returns a class with its latest linked course mirror.
func (s *ClassService) Get(ctx context.Context, code string) (*models.ClassDetail, error) {
	detail, err := s.repo.FindDetailByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return detail, nil
}

// Create adds a new class. When the payload asks for a classroom link the
// course is created only after the local insert commits; a platform failure
// then degrades to a warning rather than failing the creation.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest, callerID string) (*models.Class, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	tuple := models.ClassTuple{
		Subject:   req.Subject,
		YearLevel: req.YearLevel,
		Batch:     req.Batch,
		SubBatch:  req.SubBatch,
		ClassType: req.ClassType,
	}
	exists, err := s.repo.ExistsByTuple(ctx, tuple)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class tuple")
	}
	if exists {
		return nil, "", appErrors.Clone(appErrors.ErrConflict, "a class with this subject, year, batch and type already exists")
	}

	now := s.clock.Now()
	class := &models.Class{
		ClassCode:   codes.ClassCode(req.Subject, req.YearLevel, req.Batch, req.SubBatch, req.ClassType),
		ClassName:   codes.ClassName(req.Subject, req.YearLevel, req.Batch, req.SubBatch),
		Subject:     req.Subject,
		YearLevel:   req.YearLevel,
		Batch:       req.Batch,
		SubBatch:    req.SubBatch,
		ClassType:   req.ClassType,
		Description: req.Description,
		Status:      models.ClassStatusActive,
		TeacherID:   req.TeacherID,
		ClassDay:    req.ClassDay,
		ClassTime:   req.ClassTime,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedBy:   &callerID,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		if isUniqueViolation(err) {
			return nil, "", appErrors.Clone(appErrors.ErrConflict, "class code already exists")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}

	s.invalidateDashboard(ctx)

	var warning string
	if req.LinkClassroom {
		if err := s.linkClassroom(ctx, class, callerID); err != nil {
			s.logger.Warn("classroom link failed after class creation",
				zap.String("class_code", class.ClassCode),
				zap.Error(err))
			warning = "class created but classroom link failed: " + err.Error()
		}
	}
	return class, warning, nil
}

// Update applies a partial update and recomputes the display name. The class
// code is immutable and the uniqueness tuple is not re-checked on edit.
func (s *ClassService) Update(ctx context.Context, code string, req UpdateClassRequest, callerID string) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	if req.Subject != nil {
		class.Subject = *req.Subject
	}
	if req.YearLevel != nil {
		class.YearLevel = *req.YearLevel
	}
	if req.Batch != nil {
		class.Batch = *req.Batch
	}
	if req.SubBatch != nil {
		class.SubBatch = *req.SubBatch
	}
	if req.ClassType != nil {
		class.ClassType = *req.ClassType
	}
	if req.Description != nil {
		class.Description = *req.Description
	}
	if req.Status != nil {
		class.Status = models.ClassStatus(*req.Status)
	}
	if req.TeacherID != nil {
		class.TeacherID = req.TeacherID
	}
	if req.ClassDay != nil {
		class.ClassDay = *req.ClassDay
	}
	if req.ClassTime != nil {
		class.ClassTime = *req.ClassTime
	}
	if req.Location != nil {
		class.Location = *req.Location
	}

	class.ClassName = codes.ClassName(class.Subject, class.YearLevel, class.Batch, class.SubBatch)
	class.UpdatedAt = s.clock.Now()
	class.UpdatedBy = &callerID

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	s.invalidateDashboard(ctx)
	return class, nil
}

// Delete removes a class and all dependent rows in one transaction. Deleting
// an absent class is a no-op, not an error.
func (s *ClassService) Delete(ctx context.Context, code string) (models.CascadeSummary, error) {
	class, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.CascadeSummary{}, nil
		}
		return models.CascadeSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	summary, err := s.repo.DeleteCascade(ctx, class.ID)
	if err != nil {
		return models.CascadeSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.invalidateDashboard(ctx)
	return summary, nil
}

// LinkClassroom creates a classroom course for an existing class and persists
// the mirror. Unlike creation-time linking, a platform failure here is the
// operation's failure.
func (s *ClassService) LinkClassroom(ctx context.Context, code, callerID string) (*models.ClassroomCourse, error) {
	class, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := s.linkClassroom(ctx, class, callerID); err != nil {
		return nil, err
	}
	mirror, err := s.courses.LatestByClass(ctx, class.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course mirror")
	}
	return mirror, nil
}

func (s *ClassService) linkClassroom(ctx context.Context, class *models.Class, callerID string) error {
	account, err := s.accounts.FirstAccountForUser(ctx, callerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "no integration account available for this user")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve integration account")
	}

	course, err := s.classroom.CreateCourse(ctx, account, class.ClassName, class.ClassType)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "classroom course creation failed")
	}

	mirror := &models.ClassroomCourse{
		CourseID:             course.CourseID,
		Name:                 course.Name,
		Section:              course.Section,
		JoinCode:             course.JoinCode,
		ClassID:              &class.ID,
		IntegrationAccountID: account.ID,
		CreatedBy:            &callerID,
		CreatedAt:            s.clock.Now(),
	}
	if err := s.courses.Create(ctx, mirror); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist course mirror")
	}
	return nil
}

// MapResources points an existing course mirror and/or the videos of a
// playlist at a class.
func (s *ClassService) MapResources(ctx context.Context, req MapResourcesRequest) (*MapResourcesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mapping payload")
	}
	if req.CourseID == nil && req.PlaylistID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to map: provide course_id or playlist_id")
	}

	class, err := s.repo.FindByCode(ctx, req.ClassCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	result := &MapResourcesResult{}
	if req.CourseID != nil {
		if err := s.courses.UpdateClassLink(ctx, *req.CourseID, class.ID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course mirror not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link course")
		}
		result.CourseLinked = true
	}
	if req.PlaylistID != nil {
		assigned, err := s.videos.AssignClassByPlaylist(ctx, *req.PlaylistID, class.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign playlist videos")
		}
		if err := s.repo.UpdatePlaylist(ctx, class.ID, *req.PlaylistID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record class playlist")
		}
		result.VideosAssigned = assigned
	}
	return result, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
