package models

import "time"

// Video mirrors an uploaded (or externally discovered) video. Placeholder
// rows created by playlist reconciliation carry a synthetic video id and no
// class linkage.
type Video struct {
	ID                   string    `db:"id" json:"id"`
	VideoID              string    `db:"video_id" json:"video_id"`
	Title                string    `db:"title" json:"title"`
	ClassID              *string   `db:"class_id" json:"class_id,omitempty"`
	PlaylistID           *string   `db:"playlist_id" json:"playlist_id,omitempty"`
	CoursePosted         bool      `db:"course_posted" json:"course_posted"`
	IntegrationAccountID string    `db:"integration_account_id" json:"integration_account_id"`
	UploadedBy           *string   `db:"uploaded_by" json:"uploaded_by,omitempty"`
	PublishedAt          time.Time `db:"published_at" json:"published_at"`
}

// VideoFilter captures filter criteria for listing videos.
type VideoFilter struct {
	ClassID    string
	PlaylistID string
	Page       int
	PageSize   int
}

// UploadResult is returned by the video upload flow.
type UploadResult struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	WatchURL     string `json:"watch_url"`
	PlaylistID   string `json:"playlist_id"`
	CourseStatus string `json:"course_status"`
}
