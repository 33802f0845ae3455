package models

import "time"

// Assessment identifies the grading slot a grade entry belongs to. The
// scheme is fixed: four partial assessments plus a final mark.
type Assessment string

const (
	AssessmentPartial1 Assessment = "PARTIAL_1"
	AssessmentPartial2 Assessment = "PARTIAL_2"
	AssessmentPartial3 Assessment = "PARTIAL_3"
	AssessmentPartial4 Assessment = "PARTIAL_4"
	AssessmentFinal    Assessment = "FINAL"
)

// Grading scale bounds (Venezuelan 0-20 scale).
const (
	GradeMin = 0.0
	GradeMax = 20.0
)

// ValidAssessment reports whether the tag names a known grading slot.
func ValidAssessment(a Assessment) bool {
	switch a {
	case AssessmentPartial1, AssessmentPartial2, AssessmentPartial3, AssessmentPartial4, AssessmentFinal:
		return true
	}
	return false
}

// Grade is a single assessment entry for an enrollment. At most one row
// exists per (enrollment, assessment); writes are upserts.
type Grade struct {
	ID           string     `db:"id" json:"id"`
	EnrollmentID string     `db:"enrollment_id" json:"enrollment_id"`
	Assessment   Assessment `db:"assessment" json:"assessment"`
	Value        float64    `db:"value" json:"value"`
	Comment      *string    `db:"comment" json:"comment,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// GradeFilter allows querying of grade entries.
type GradeFilter struct {
	EnrollmentID string
	SectionID    string
	Assessment   Assessment
}
