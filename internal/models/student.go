package models

import "time"

// Student represents an enrolled student. The student code follows the
// STU-<year>-<seq> format and is assigned inside the insert transaction.
type Student struct {
	ID            string     `db:"id" json:"id"`
	StudentCode   string     `db:"student_code" json:"student_code"`
	FirstName     string     `db:"first_name" json:"first_name"`
	LastName      string     `db:"last_name" json:"last_name"`
	DOB           *time.Time `db:"dob" json:"dob,omitempty"`
	Gender        string     `db:"gender" json:"gender"`
	ContactNumber string     `db:"contact_number" json:"contact_number"`
	GradeSchool   string     `db:"grade_school" json:"grade_school"`
	Email         string     `db:"email" json:"email"`
	Address       string     `db:"address" json:"address"`
	Notes         string     `db:"notes" json:"notes"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedBy     *string    `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	Status    string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Parent is a guardian contact attached to a student.
type Parent struct {
	ID            string `db:"id" json:"id"`
	StudentID     string `db:"student_id" json:"student_id"`
	Name          string `db:"name" json:"name"`
	Relationship  string `db:"relationship" json:"relationship"`
	ContactNumber string `db:"contact_number" json:"contact_number"`
	Email         string `db:"email" json:"email"`
}
