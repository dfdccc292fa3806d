package models

import "time"

// ClinicVisit logs a student's visit to the school clinic.
type ClinicVisit struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	VisitDate time.Time `db:"visit_date" json:"visit_date"`
	Reason    string    `db:"reason" json:"reason"`
	Treatment string    `db:"treatment" json:"treatment"`
	NurseName string    `db:"nurse_name" json:"nurse_name"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClinicVisitFilter captures list parameters for clinic visits.
type ClinicVisitFilter struct {
	StudentID string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
