package models

import "time"

// BehaviorRecord logs a disciplinary or guidance incident for a student.
type BehaviorRecord struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	Date        time.Time `db:"date" json:"date"`
	Category    string    `db:"category" json:"category"`
	Description string    `db:"description" json:"description"`
	ActionTaken string    `db:"action_taken" json:"action_taken"`
	RecordedBy  string    `db:"recorded_by" json:"recorded_by"`
	Resolved    bool      `db:"resolved" json:"resolved"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// BehaviorFilter captures list parameters for behavior records.
type BehaviorFilter struct {
	StudentID string
	Category  string
	Resolved  *bool
	Page      int
	PageSize  int
}
