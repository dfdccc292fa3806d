package models

import "time"

// DashboardSnapshot is the 4-field aggregate pushed to dashboard subscribers.
// Counts are global, not scoped to a school year or section.
type DashboardSnapshot struct {
	TotalStudents     int       `json:"total_students" db:"total_students"`
	ActiveRecords     int       `json:"active_records" db:"active_records"`
	ClinicVisitsToday int       `json:"clinic_visits_today" db:"clinic_visits_today"`
	BehavioralReports int       `json:"behavioral_reports" db:"behavioral_reports"`
	GeneratedAt       time.Time `json:"generated_at" db:"-"`
}

// SystemMetrics is a lightweight runtime snapshot for the ops endpoint.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	EventsPublished          uint64    `json:"events_published"`
	RecomputeFailures        uint64    `json:"recompute_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
