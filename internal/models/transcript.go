package models

// TranscriptRow is one learning area on the permanent record (SF10).
type TranscriptRow struct {
	Subject  string   `json:"subject"`
	Q1       *float64 `json:"q1"`
	Q2       *float64 `json:"q2"`
	Q3       *float64 `json:"q3"`
	Q4       *float64 `json:"q4"`
	Final    *float64 `json:"final"`
	Remarks  string   `json:"remarks"`
}

// Transcript is the SF10-style permanent record payload for one school year.
type Transcript struct {
	StudentID      string          `json:"student_id"`
	LRN            string          `json:"lrn"`
	StudentName    string          `json:"student_name"`
	GradeLevel     int             `json:"grade_level"`
	SchoolYear     string          `json:"school_year"`
	SectionName    string          `json:"section_name,omitempty"`
	Rows           []TranscriptRow `json:"rows"`
	GeneralAverage *float64        `json:"general_average"`
}
