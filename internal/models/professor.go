package models

import "time"

// Professor represents an instructor attached to a program.
type Professor struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Program   string    `db:"program" json:"program"`
	HiredAt   time.Time `db:"hired_at" json:"hired_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProfessorDetail joins the owning user row onto the professor.
type ProfessorDetail struct {
	Professor
	Document string `db:"document" json:"document"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
	Active   bool   `db:"active" json:"active"`
}

// ProfessorFilter captures filters for professor listings.
type ProfessorFilter struct {
	Program  string
	Search   string
	Page     int
	PageSize int
}
