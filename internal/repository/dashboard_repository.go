package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jhs-sis-api/internal/models"
)

// DashboardRepository aggregates the counts backing the dashboard snapshot.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Counts reads the four aggregates in one round trip. The day bounds scope
// clinic visits to the school's local calendar day.
func (r *DashboardRepository) Counts(ctx context.Context, dayStart, dayEnd time.Time) (*models.DashboardSnapshot, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM students) AS total_students,
        (SELECT COUNT(*) FROM students WHERE active) AS active_records,
        (SELECT COUNT(*) FROM clinic_visits WHERE visit_date >= $1 AND visit_date < $2) AS clinic_visits_today,
        (SELECT COUNT(*) FROM behavior_records) AS behavioral_reports`
	var snapshot models.DashboardSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	return &snapshot, nil
}
