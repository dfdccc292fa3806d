package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
)

type dashboardRepository interface {
	Counts(ctx context.Context, dayStart, dayEnd time.Time) (*models.DashboardSnapshot, error)
}

// DashboardService produces the live overview snapshot. Counts are always
// read fresh; stale dashboards are worse than the extra query.
type DashboardService struct {
	repo     dashboardRepository
	location *time.Location
	logger   *zap.Logger
}

// NewDashboardService constructs the dashboard service. The location scopes
// "today" for clinic visit counting.
func NewDashboardService(repo dashboardRepository, location *time.Location, logger *zap.Logger) *DashboardService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, location: location, logger: logger}
}

// Snapshot reads the four aggregates for the current local day.
func (s *DashboardService) Snapshot(ctx context.Context) (*models.DashboardSnapshot, error) {
	dayStart, dayEnd := localDayBounds(time.Now(), s.location)
	snapshot, err := s.repo.Counts(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard counts")
	}
	snapshot.GeneratedAt = time.Now().UTC()
	return snapshot, nil
}

// localDayBounds returns the [start, end) of the calendar day containing ts
// in the given location, expressed in UTC for querying.
func localDayBounds(ts time.Time, loc *time.Location) (time.Time, time.Time) {
	local := ts.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}
