package models

import "time"

// AttendanceStatus enumerates the valid attendance states.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
	AttendanceExcused AttendanceStatus = "Excused"
)

// ValidAttendanceStatus reports whether the value is a known status.
func ValidAttendanceStatus(s AttendanceStatus) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// AttendanceRecord marks one student's attendance in one class on one date.
type AttendanceRecord struct {
	ID             string           `db:"id" json:"id"`
	TeacherClassID string           `db:"teacher_class_id" json:"teacher_class_id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	Date           time.Time        `db:"date" json:"date"`
	Status         AttendanceStatus `db:"status" json:"status"`
	Quarter        int              `db:"quarter" json:"quarter"`
	Remarks        string           `db:"remarks" json:"remarks"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter captures list parameters for attendance records.
type AttendanceFilter struct {
	TeacherClassID string
	StudentID      string
	Date           *time.Time
	Quarter        *int
	Page           int
	PageSize       int
}
