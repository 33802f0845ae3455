package models

import (
	"fmt"
	"time"
)

// SectionStatus represents the lifecycle of a section offering.
type SectionStatus string

const (
	SectionStatusActive SectionStatus = "ACTIVE"
	SectionStatusClosed SectionStatus = "CLOSED"
)

// DefaultSectionCapacity applies when a section is created without one.
const DefaultSectionCapacity = 30

// Section is an offering of a course within a period. Sections are
// transient: period closure deletes them after archiving their enrollments.
type Section struct {
	ID          string        `db:"id" json:"id"`
	CourseID    string        `db:"course_id" json:"course_id"`
	PeriodID    string        `db:"period_id" json:"period_id"`
	Number      int           `db:"number" json:"number"`
	ProfessorID *string       `db:"professor_id" json:"professor_id,omitempty"`
	Room        *string       `db:"room" json:"room,omitempty"`
	Capacity    int           `db:"capacity" json:"capacity"`
	Status      SectionStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// DisplayName renders the section number the way the UI shows it.
func (s *Section) DisplayName() string {
	return fmt.Sprintf("D%d", s.Number)
}

// SectionDetail enriches Section with course, period and professor info.
type SectionDetail struct {
	Section
	CourseCode    string  `db:"course_code" json:"course_code"`
	CourseName    string  `db:"course_name" json:"course_name"`
	CourseCredits int     `db:"course_credits" json:"course_credits"`
	PeriodLabel   string  `db:"period_label" json:"period_label"`
	ProfessorName *string `db:"professor_name" json:"professor_name,omitempty"`
	EnrolledCount int     `db:"enrolled_count" json:"enrolled_count"`
}

// SectionFilter provides filters for listing sections.
type SectionFilter struct {
	CourseID    string
	PeriodID    string
	ProfessorID string
	Status      SectionStatus
	Page        int
	PageSize    int
}
