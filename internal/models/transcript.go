package models

import "time"

// Outcome is the archived pass/fail classification written at period
// closure. REPEAT and REMEDIAL are reserved for administrative corrections;
// the closure engine never emits them.
type Outcome string

const (
	OutcomePassed   Outcome = "PASSED"
	OutcomeFailed   Outcome = "FAILED"
	OutcomeRepeat   Outcome = "REPEAT"
	OutcomeRemedial Outcome = "REMEDIAL"
)

// TranscriptRecord is one row of the permanent completed-course ledger.
// Rows are created by the period closure engine (or by administrative
// correction) and are never deleted in normal operation.
type TranscriptRecord struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	PeriodLabel string    `db:"period_label" json:"period_label"`
	FinalGrade  *float64  `db:"final_grade" json:"final_grade,omitempty"`
	Outcome     Outcome   `db:"outcome" json:"outcome"`
	RecordedAt  time.Time `db:"recorded_at" json:"recorded_at"`
}

// TranscriptEntry enriches a transcript record with course info for the
// academic-record report.
type TranscriptEntry struct {
	TranscriptRecord
	CourseCode    string `db:"course_code" json:"course_code"`
	CourseName    string `db:"course_name" json:"course_name"`
	CourseCredits int    `db:"course_credits" json:"course_credits"`
}

// TranscriptFilter scopes ledger queries.
type TranscriptFilter struct {
	StudentID   string
	CourseID    string
	PeriodLabel string
	Outcome     Outcome
}
