package models

import "time"

// TeacherClass ties one teacher, subject and section for a school year.
type TeacherClass struct {
	ID          string    `db:"id" json:"id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	SectionID   string    `db:"section_id" json:"section_id"`
	TeacherName string    `db:"teacher_name" json:"teacher_name"`
	SchoolYear  string    `db:"school_year" json:"school_year"`
	Schedule    string    `db:"schedule" json:"schedule"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherClassDetail joins the subject and section names for API responses.
type TeacherClassDetail struct {
	TeacherClass
	SubjectName string `db:"subject_name" json:"subject_name"`
	SectionName string `db:"section_name" json:"section_name"`
}

// TeacherClassFilter captures list parameters for teacher classes.
type TeacherClassFilter struct {
	SubjectID  string
	SectionID  string
	SchoolYear string
	Search     string
	Page       int
	PageSize   int
}
