package models

// SectionFinal is one archivable enrollment gathered during period
// closure: the student/course pair with the latest FINAL assessment value,
// nil when no final grade was ever recorded.
type SectionFinal struct {
	EnrollmentID string   `db:"enrollment_id" json:"enrollment_id"`
	StudentID    string   `db:"student_id" json:"student_id"`
	CourseID     string   `db:"course_id" json:"course_id"`
	FinalGrade   *float64 `db:"final_grade" json:"final_grade,omitempty"`
}

// ClosureResult summarises a completed period closure.
type ClosureResult struct {
	ClosedPeriod string `json:"closed_period"`
	NextPeriod   string `json:"next_period"`
	Archived     int    `json:"archived"`
}
