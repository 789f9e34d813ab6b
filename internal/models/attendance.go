package models

import "time"

// Attendance records one student's presence for a class on a date.
type Attendance struct {
	ID        string     `db:"id" json:"id"`
	StudentID string     `db:"student_id" json:"student_id"`
	ClassID   string     `db:"class_id" json:"class_id"`
	Date      *time.Time `db:"date" json:"date,omitempty"`
	Status    string     `db:"status" json:"status"`
	Notes     string     `db:"notes" json:"notes"`
	UpdatedBy *string    `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter captures filter criteria for listing attendance rows.
type AttendanceFilter struct {
	StudentID string
	ClassID   string
	Date      string
	Page      int
	PageSize  int
}
