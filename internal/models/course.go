package models

import (
	"strings"
	"time"
)

// Course represents a subject in a program's curriculum.
type Course struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	Credits    int       `db:"credits" json:"credits"`
	Requisites string    `db:"requisites" json:"requisites"`
	Program    string    `db:"program" json:"program"`
	Semester   int       `db:"semester" json:"semester"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures supported filters for listing courses.
type CourseFilter struct {
	Program   string
	Semester  int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Requisite is one parsed token of a course requisite expression. A token
// prefixed with "CO-" is a corequisite: it may be taken in the same period
// instead of strictly before.
type Requisite struct {
	Code        string `json:"code"`
	Corequisite bool   `json:"corequisite"`
}

const corequisitePrefix = "CO-"

// ParseRequisites splits a raw requisite expression ("MAT101/CO-FIS102")
// into tagged tokens. Empty expressions yield no requisites.
func ParseRequisites(expr string) []Requisite {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	tokens := strings.Split(expr, "/")
	requisites := make([]Requisite, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if strings.HasPrefix(token, corequisitePrefix) {
			code := strings.TrimSpace(strings.TrimPrefix(token, corequisitePrefix))
			if code == "" {
				continue
			}
			requisites = append(requisites, Requisite{Code: code, Corequisite: true})
			continue
		}
		requisites = append(requisites, Requisite{Code: token})
	}
	return requisites
}

// RequisiteList returns the parsed requisite tokens for the course.
func (c *Course) RequisiteList() []Requisite {
	return ParseRequisites(c.Requisites)
}
