package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusWithdrawn EnrollmentStatus = "WITHDRAWN"
)

// Enrollment links a student to a section for the currently open period.
// Enrollments are transient: period closure archives them into transcript
// records and deletes the rows.
type Enrollment struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	SectionID  string           `db:"section_id" json:"section_id"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"enrolled_at"`
	Status     EnrollmentStatus `db:"status" json:"status"`
}

// EnrollmentDetail enriches Enrollment with course and section context.
type EnrollmentDetail struct {
	Enrollment
	CourseID      string `db:"course_id" json:"course_id"`
	CourseCode    string `db:"course_code" json:"course_code"`
	CourseName    string `db:"course_name" json:"course_name"`
	CourseCredits int    `db:"course_credits" json:"course_credits"`
	SectionNumber int    `db:"section_number" json:"section_number"`
	PeriodLabel   string `db:"period_label" json:"period_label"`
	StudentName   string `db:"student_name" json:"student_name"`
}

// EnrolledCourse is the read-only projection shown on the student's
// current-courses screen: the enrollment plus its assessment entries.
type EnrolledCourse struct {
	EnrollmentDetail
	Grades []Grade `json:"grades"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	SectionID string
	PeriodID  string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
}
