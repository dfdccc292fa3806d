package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/models"
)

type mockDashboardRepo struct {
	snapshot *models.DashboardSnapshot
	dayStart time.Time
	dayEnd   time.Time
}

func (m *mockDashboardRepo) Counts(ctx context.Context, dayStart, dayEnd time.Time) (*models.DashboardSnapshot, error) {
	m.dayStart = dayStart
	m.dayEnd = dayEnd
	return m.snapshot, nil
}

func TestDashboardServiceSnapshot(t *testing.T) {
	repo := &mockDashboardRepo{snapshot: &models.DashboardSnapshot{
		TotalStudents:     120,
		ActiveRecords:     640,
		ClinicVisitsToday: 3,
		BehavioralReports: 11,
	}}
	svc := NewDashboardService(repo, time.UTC, zap.NewNop())

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, snapshot.TotalStudents)
	assert.False(t, snapshot.GeneratedAt.IsZero())
	assert.Equal(t, 24*time.Hour, repo.dayEnd.Sub(repo.dayStart))
}

func TestLocalDayBoundsManila(t *testing.T) {
	manila, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)

	// 18:30 UTC is already past midnight in Manila (UTC+8), so "today"
	// is the next calendar day there.
	ts := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)
	start, end := localDayBounds(ts, manila)
	assert.Equal(t, time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 11, 16, 0, 0, 0, time.UTC), end)
}

func TestLocalDayBoundsUTC(t *testing.T) {
	ts := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)
	start, end := localDayBounds(ts, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), end)
}
