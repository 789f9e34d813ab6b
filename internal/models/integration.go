package models

import "time"

// IntegrationAccount is one credentialed Google identity used for both the
// Classroom and YouTube platforms. Tokens are stored opaque; refresh handling
// lives entirely inside the integration clients.
type IntegrationAccount struct {
	ID           string     `db:"id" json:"id"`
	AccountName  string     `db:"account_name" json:"account_name"`
	GoogleEmail  string     `db:"google_email" json:"google_email"`
	AccessToken  string     `db:"access_token" json:"-"`
	RefreshToken string     `db:"refresh_token" json:"-"`
	OwnerUserID  string     `db:"owner_user_id" json:"owner_user_id"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastSynced   *time.Time `db:"last_synced" json:"last_synced,omitempty"`
}

// AccountPermission grants a portal user the right to act through an
// integration account.
type AccountPermission struct {
	ID                   string `db:"id" json:"id"`
	IntegrationAccountID string `db:"integration_account_id" json:"integration_account_id"`
	UserID               string `db:"user_id" json:"user_id"`
	PermissionLevel      string `db:"permission_level" json:"permission_level"`
}

// ClassroomCourse mirrors an external course, optionally linked to a class.
type ClassroomCourse struct {
	ID                   string    `db:"id" json:"id"`
	CourseID             string    `db:"course_id" json:"course_id"`
	Name                 string    `db:"name" json:"name"`
	Section              string    `db:"section" json:"section"`
	JoinCode             string    `db:"join_code" json:"join_code"`
	ClassID              *string   `db:"class_id" json:"class_id,omitempty"`
	IntegrationAccountID string    `db:"integration_account_id" json:"integration_account_id"`
	CreatedBy            *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// SyncResult reports the outcome of one reconciliation batch.
type SyncResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// ExternalCourse is one course as reported by the classroom platform.
type ExternalCourse struct {
	CourseID string
	Name     string
	Section  string
	JoinCode string
}

// ExternalPlaylist is one playlist as reported by the video platform.
type ExternalPlaylist struct {
	PlaylistID string
	Title      string
}
