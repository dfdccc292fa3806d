package models

import "time"

// Student represents a learner registered in the school.
type Student struct {
	ID             string    `db:"id" json:"id"`
	LRN            string    `db:"lrn" json:"lrn"`
	FirstName      string    `db:"first_name" json:"first_name"`
	MiddleName     *string   `db:"middle_name" json:"middle_name,omitempty"`
	LastName       string    `db:"last_name" json:"last_name"`
	Sex            string    `db:"sex" json:"sex"`
	BirthDate      time.Time `db:"birth_date" json:"birth_date"`
	GradeLevel     int       `db:"grade_level" json:"grade_level"`
	SchoolYear     string    `db:"school_year" json:"school_year"`
	SectionID      *string   `db:"section_id" json:"section_id,omitempty"`
	GuardianName   string    `db:"guardian_name" json:"guardian_name"`
	GuardianPhone  string    `db:"guardian_phone" json:"guardian_phone"`
	Address        string    `db:"address" json:"address"`
	ElemSchool     string    `db:"elem_school" json:"elem_school"`
	ElemYearGrad   string    `db:"elem_year_graduated" json:"elem_year_graduated"`
	Active         bool      `db:"active" json:"active"`
	GeneralAverage *float64  `db:"general_average" json:"general_average"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// FullName renders the display name used in exports and event payloads.
func (s Student) FullName() string {
	name := s.FirstName
	if s.MiddleName != nil && *s.MiddleName != "" {
		name += " " + *s.MiddleName
	}
	return name + " " + s.LastName
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search     string
	GradeLevel *int
	SectionID  string
	SchoolYear string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// StudentDetail contains student information with section context.
type StudentDetail struct {
	Student
	SectionName *string `db:"section_name" json:"section_name,omitempty"`
}
