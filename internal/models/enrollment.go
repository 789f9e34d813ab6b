package models

import "time"

// Enrollment assigns a student to a class with a validity window. Either end
// of the window may be absent, meaning open-ended.
type Enrollment struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	ClassID      string     `db:"class_id" json:"class_id"`
	EnrolledFrom *time.Time `db:"enrolled_from" json:"enrolled_from,omitempty"`
	EnrolledTo   *time.Time `db:"enrolled_to" json:"enrolled_to,omitempty"`
	IsPrimary    bool       `db:"is_primary" json:"is_primary"`
}

// EnrollmentDetail joins in student and class names for list responses.
type EnrollmentDetail struct {
	Enrollment
	StudentName *string `db:"student_name" json:"student_name,omitempty"`
	ClassName   *string `db:"class_name" json:"class_name,omitempty"`
}

// EnrollmentFilter captures filter criteria for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	ClassID   string
	Page      int
	PageSize  int
}
