package google

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/scimind/portal-api/internal/models"
)

// YouTubeClient uploads videos and manages playlists on behalf of
// integration accounts. It satisfies the service layer's
// VideoPlatformService interface.
type YouTubeClient struct {
	cfg    Config
	logger *zap.Logger
}

// NewYouTubeClient constructs the client.
func NewYouTubeClient(cfg Config, logger *zap.Logger) *YouTubeClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YouTubeClient{cfg: cfg, logger: logger}
}

func (c *YouTubeClient) service(ctx context.Context, account *models.IntegrationAccount) (*youtube.Service, error) {
	client := httpClient(ctx, c.cfg, account, c.cfg.YouTubeScopes)
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("build youtube service: %w", err)
	}
	return svc, nil
}

// EnsurePlaylist finds a playlist by exact title on the account's channel,
// creating an unlisted one when it does not exist.
func (c *YouTubeClient) EnsurePlaylist(ctx context.Context, account *models.IntegrationAccount, title string) (string, error) {
	svc, err := c.service(ctx, account)
	if err != nil {
		return "", err
	}

	call := svc.Playlists.List([]string{"snippet"}).Mine(true).MaxResults(50)
	for {
		page, err := call.Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("list playlists: %w", err)
		}
		for _, pl := range page.Items {
			if pl.Snippet != nil && pl.Snippet.Title == title {
				return pl.Id, nil
			}
		}
		if page.NextPageToken == "" {
			break
		}
		call = call.PageToken(page.NextPageToken)
	}

	created, err := svc.Playlists.Insert([]string{"snippet", "status"}, &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{Title: title},
		Status:  &youtube.PlaylistStatus{PrivacyStatus: "unlisted"},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create playlist: %w", err)
	}
	c.logger.Info("playlist created",
		zap.String("playlist_id", created.Id),
		zap.String("title", title),
		zap.String("account", account.GoogleEmail))
	return created.Id, nil
}

// Upload pushes the video stream and inserts it into the target playlist.
func (c *YouTubeClient) Upload(ctx context.Context, account *models.IntegrationAccount, file io.Reader, title, description, playlistID, privacy string) (string, error) {
	svc, err := c.service(ctx, account)
	if err != nil {
		return "", err
	}
	if privacy == "" {
		privacy = "unlisted"
	}

	video, err := svc.Videos.Insert([]string{"snippet", "status"}, &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       title,
			Description: description,
			CategoryId:  "27",
		},
		Status: &youtube.VideoStatus{PrivacyStatus: privacy},
	}).Media(file).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload video: %w", err)
	}

	if playlistID != "" {
		_, err = svc.PlaylistItems.Insert([]string{"snippet"}, &youtube.PlaylistItem{
			Snippet: &youtube.PlaylistItemSnippet{
				PlaylistId: playlistID,
				ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: video.Id},
			},
		}).Context(ctx).Do()
		if err != nil {
			// The video exists at this point; report the partial failure
			// but hand the id back to the caller.
			c.logger.Warn("video uploaded but playlist insertion failed",
				zap.String("video_id", video.Id),
				zap.String("playlist_id", playlistID),
				zap.Error(err))
		}
	}

	c.logger.Info("video uploaded",
		zap.String("video_id", video.Id),
		zap.String("account", account.GoogleEmail))
	return video.Id, nil
}

// ListPlaylists returns every playlist on the account's channel.
func (c *YouTubeClient) ListPlaylists(ctx context.Context, account *models.IntegrationAccount) ([]models.ExternalPlaylist, error) {
	svc, err := c.service(ctx, account)
	if err != nil {
		return nil, err
	}

	var playlists []models.ExternalPlaylist
	call := svc.Playlists.List([]string{"snippet"}).Mine(true).MaxResults(50)
	for {
		page, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("list playlists: %w", err)
		}
		for _, pl := range page.Items {
			title := ""
			if pl.Snippet != nil {
				title = pl.Snippet.Title
			}
			playlists = append(playlists, models.ExternalPlaylist{PlaylistID: pl.Id, Title: title})
		}
		if page.NextPageToken == "" {
			return playlists, nil
		}
		call = call.PageToken(page.NextPageToken)
	}
}

// WatchURL builds the public watch link for a video id.
func (c *YouTubeClient) WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
