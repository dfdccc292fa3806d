package models

import (
	"encoding/json"
	"time"
)

// Enrollment joins a student to a teacher class and carries the four quarterly scores.
type Enrollment struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	TeacherClassID string    `db:"teacher_class_id" json:"teacher_class_id"`
	SchoolYear     string    `db:"school_year" json:"school_year"`
	Q1             *float64  `db:"q1" json:"q1"`
	Q2             *float64  `db:"q2" json:"q2"`
	Q3             *float64  `db:"q3" json:"q3"`
	Q4             *float64  `db:"q4" json:"q4"`
	PreFinal       *float64  `db:"pre_final" json:"pre_final"`
	IsFinalized    bool      `db:"is_finalized" json:"is_finalized"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Quarter returns the score for quarter n (1-4), nil otherwise.
func (e Enrollment) Quarter(n int) *float64 {
	switch n {
	case 1:
		return e.Q1
	case 2:
		return e.Q2
	case 3:
		return e.Q3
	case 4:
		return e.Q4
	}
	return nil
}

// EnrollmentDetail joins class context for API responses.
type EnrollmentDetail struct {
	Enrollment
	SubjectName string `db:"subject_name" json:"subject_name"`
	SectionName string `db:"section_name" json:"section_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	StudentName string `db:"student_name" json:"student_name"`
}

// EnrollmentFilter captures list parameters for enrollments.
type EnrollmentFilter struct {
	StudentID      string
	TeacherClassID string
	SchoolYear     string
	Finalized      *bool
	Page           int
	PageSize       int
}

// SubjectFinal is the per-subject derived grade used by average recomputation.
type SubjectFinal struct {
	EnrollmentID string   `db:"id"`
	SubjectName  string   `db:"subject_name"`
	PreFinal     *float64 `db:"pre_final"`
}

// AverageUpdate carries a freshly recomputed general average to be persisted
// in the same transaction as the triggering grade write. Apply is false when
// recomputation failed and the stored value must be left untouched.
type AverageUpdate struct {
	StudentID string
	Value     *float64
	Apply     bool
}

// Score is an optional decimal that distinguishes an absent field from an
// explicit null in partial grade updates.
type Score struct {
	Set   bool
	Value *float64
}

// UnmarshalJSON marks the field as present and captures the value or null.
func (s *Score) UnmarshalJSON(data []byte) error {
	s.Set = true
	if string(data) == "null" {
		s.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.Value = &v
	return nil
}

// MarshalJSON renders the underlying value.
func (s Score) MarshalJSON() ([]byte, error) {
	if s.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*s.Value)
}
