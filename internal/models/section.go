package models

import "time"

// Section is a homeroom group for one grade level and school year.
type Section struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	GradeLevel int       `db:"grade_level" json:"grade_level"`
	SchoolYear string    `db:"school_year" json:"school_year"`
	Adviser    string    `db:"adviser" json:"adviser"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SectionFilter captures list parameters for sections.
type SectionFilter struct {
	GradeLevel *int
	SchoolYear string
	Search     string
	Page       int
	PageSize   int
}
