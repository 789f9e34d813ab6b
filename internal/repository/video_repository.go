package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scimind/portal-api/internal/models"
)

// VideoRepository handles persistence of video mirrors.
type VideoRepository struct {
	db *sqlx.DB
}

// NewVideoRepository constructs the repository.
func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoColumns = `id, video_id, title, class_id, playlist_id, course_posted, integration_account_id, uploaded_by, published_at`

// List returns videos filtered by the provided criteria.
func (r *VideoRepository) List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error) {
	base := "FROM videos WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.PlaylistID != "" {
		conditions = append(conditions, fmt.Sprintf("playlist_id = $%d", len(args)+1))
		args = append(args, filter.PlaylistID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY published_at DESC LIMIT %d OFFSET %d", videoColumns, base, size, offset)
	var videos []models.Video
	if err := r.db.SelectContext(ctx, &videos, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list videos: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}
	return videos, total, nil
}

// FindByID returns a video record by row ID.
func (r *VideoRepository) FindByID(ctx context.Context, id string) (*models.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE id = $1`, videoColumns)
	var video models.Video
	if err := r.db.GetContext(ctx, &video, query, id); err != nil {
		return nil, err
	}
	return &video, nil
}

// Create persists a video record.
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	const query = `INSERT INTO videos (id, video_id, title, class_id, playlist_id, course_posted, integration_account_id, uploaded_by, published_at)
VALUES (:id, :video_id, :title, :class_id, :playlist_id, :course_posted, :integration_account_id, :uploaded_by, :published_at)`
	if _, err := r.db.NamedExecContext(ctx, query, video); err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

// SetCoursePosted flips the posted-to-course flag for a video.
func (r *VideoRepository) SetCoursePosted(ctx context.Context, id string, posted bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE videos SET course_posted = $1 WHERE id = $2`, posted, id); err != nil {
		return fmt.Errorf("update video course flag: %w", err)
	}
	return nil
}

// AssignClassByPlaylist points every video of a playlist at a class.
func (r *VideoRepository) AssignClassByPlaylist(ctx context.Context, playlistID, classID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE videos SET class_id = $1 WHERE playlist_id = $2`, classID, playlistID)
	if err != nil {
		return 0, fmt.Errorf("assign playlist videos: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

// Delete removes a video record.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

// Count returns the total number of video rows.
func (r *VideoRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM videos`); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return count, nil
}

// ReconcilePlaylists merges externally reported playlists into local video
// placeholder rows, keyed by playlist id. The whole batch commits in one
// transaction; rows absent upstream are never deleted.
func (r *VideoRepository) ReconcilePlaylists(ctx context.Context, playlists []models.ExternalPlaylist, accountID string, userID *string) (result models.SyncResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin playlist reconcile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, pl := range playlists {
		var existingID string
		findErr := tx.GetContext(ctx, &existingID, `SELECT id FROM videos WHERE playlist_id = $1 LIMIT 1`, pl.PlaylistID)
		switch {
		case findErr == sql.ErrNoRows:
			// Placeholder row: synthetic video id, no class linkage yet.
			_, err = tx.ExecContext(ctx, `INSERT INTO videos (id, video_id, title, class_id, playlist_id, course_posted, integration_account_id, uploaded_by, published_at)
VALUES ($1, $2, $3, NULL, $4, false, $5, $6, $7)`,
				uuid.NewString(), uuid.NewString(), pl.Title, pl.PlaylistID, accountID, userID, now)
			if err != nil {
				err = fmt.Errorf("insert playlist placeholder: %w", err)
				return result, err
			}
			result.Added++
		case findErr != nil:
			err = fmt.Errorf("find playlist mirror: %w", findErr)
			return result, err
		default:
			if _, err = tx.ExecContext(ctx, `UPDATE videos SET title = $1 WHERE id = $2`, pl.Title, existingID); err != nil {
				err = fmt.Errorf("update playlist mirror: %w", err)
				return result, err
			}
			result.Updated++
		}
	}

	if err = tx.Commit(); err != nil {
		return result, fmt.Errorf("commit playlist reconcile: %w", err)
	}
	return result, nil
}
