package models

import "time"

// Student represents a learner admitted to a program. Each student owns
// exactly one user row; deleting the student cascades to it.
type Student struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Program    string    `db:"program" json:"program"`
	Semester   int       `db:"semester" json:"semester"`
	AdmittedAt time.Time `db:"admitted_at" json:"admitted_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins the owning user row onto the student.
type StudentDetail struct {
	Student
	Document string `db:"document" json:"document"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
	Active   bool   `db:"active" json:"active"`
}

// StudentFilter encapsulates search parameters for listing students.
type StudentFilter struct {
	Program   string
	Semester  int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
