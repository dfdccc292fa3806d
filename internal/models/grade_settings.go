package models

import "time"

// GradeSettings is the singleton row gating quarterly grade entry.
// At most one row may exist; write paths must treat its absence as a
// server misconfiguration rather than defaulting all quarters open.
type GradeSettings struct {
	ID        string    `db:"id" json:"id"`
	Q1Open    bool      `db:"q1_open" json:"q1_open"`
	Q2Open    bool      `db:"q2_open" json:"q2_open"`
	Q3Open    bool      `db:"q3_open" json:"q3_open"`
	Q4Open    bool      `db:"q4_open" json:"q4_open"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// QuarterOpen reports whether grade entry for quarter n (1-4) is open.
func (g GradeSettings) QuarterOpen(n int) bool {
	switch n {
	case 1:
		return g.Q1Open
	case 2:
		return g.Q2Open
	case 3:
		return g.Q3Open
	case 4:
		return g.Q4Open
	}
	return false
}
