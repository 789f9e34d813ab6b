package models

import "time"

// ClassStatus enumerates class lifecycle states.
type ClassStatus string

const (
	ClassStatusActive   ClassStatus = "active"
	ClassStatusInactive ClassStatus = "inactive"
)

// Class represents a scheduled course offering. The class code is derived
// from the subject/year/batch tuple at creation time and never recomputed.
type Class struct {
	ID          string      `db:"id" json:"id"`
	ClassCode   string      `db:"class_code" json:"class_code"`
	ClassName   string      `db:"class_name" json:"class_name"`
	Subject     string      `db:"subject" json:"subject"`
	YearLevel   string      `db:"year_level" json:"year_level"`
	Batch       string      `db:"batch" json:"batch"`
	SubBatch    string      `db:"sub_batch" json:"sub_batch"`
	ClassType   string      `db:"class_type" json:"class_type"`
	Description string      `db:"description" json:"description"`
	Status      ClassStatus `db:"status" json:"status"`
	PlaylistID  *string     `db:"playlist_id" json:"playlist_id,omitempty"`
	TeacherID   *string     `db:"teacher_id" json:"teacher_id,omitempty"`
	ClassDay    string      `db:"class_day" json:"class_day"`
	ClassTime   string      `db:"class_time" json:"class_time"`
	Location    string      `db:"location" json:"location"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedBy   *string     `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with the latest linked classroom course mirror.
type ClassDetail struct {
	Class
	CourseID       *string `db:"course_id" json:"course_id,omitempty"`
	CourseJoinCode *string `db:"course_join_code" json:"course_join_code,omitempty"`
	CourseName     *string `db:"course_name" json:"course_name,omitempty"`
	CourseSection  *string `db:"course_section" json:"course_section,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Status    string
	Subject   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ClassTuple is the uniqueness tuple checked at class creation.
type ClassTuple struct {
	Subject   string
	YearLevel string
	Batch     string
	SubBatch  string
	ClassType string
}

// CascadeSummary reports how many dependent rows a class deletion removed.
type CascadeSummary struct {
	Enrollments int  `json:"enrollments"`
	Videos      int  `json:"videos"`
	Courses     int  `json:"courses"`
	Fees        int  `json:"fees"`
	Attendance  int  `json:"attendance"`
	Deleted     bool `json:"deleted"`
}
