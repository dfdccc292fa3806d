package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	"github.com/noah-isme/jhs-sis-api/internal/realtime"
)

type recordingSink struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recordingSink) Publish(ctx context.Context, event realtime.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recordingSink) channels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Channel
	}
	return names
}

type stubSnapshotter struct{}

func (s *stubSnapshotter) Snapshot(ctx context.Context) (*models.DashboardSnapshot, error) {
	return &models.DashboardSnapshot{TotalStudents: 5}, nil
}

func startNotifier(t *testing.T, sink *recordingSink) *NotifierService {
	t.Helper()
	svc := NewNotifierService(sink, &stubSnapshotter{}, NewMetricsService(), 1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	svc.Start(ctx)
	t.Cleanup(svc.Stop)
	return svc
}

func TestNotifierGradesChangedSkipsListChannel(t *testing.T) {
	sink := &recordingSink{}
	svc := startNotifier(t, sink)

	svc.GradesChanged("s1", "enrollment.updated", nil)

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 10*time.Millisecond)
	channels := sink.channels()
	assert.Equal(t, []string{"student:s1"}, channels)
}

func TestNotifierStudentSavedBroadcasts(t *testing.T) {
	sink := &recordingSink{}
	svc := startNotifier(t, sink)

	svc.StudentSaved(&models.StudentDetail{Student: models.Student{ID: "s1"}}, "student.created")

	require.Eventually(t, func() bool { return sink.count() == 3 }, time.Second, 10*time.Millisecond)
	channels := sink.channels()
	assert.Contains(t, channels, "student:s1")
	assert.Contains(t, channels, realtime.ChannelStudentList)
	assert.Contains(t, channels, realtime.ChannelDashboard)
}

func TestNotifierClinicChangedRefreshesDashboard(t *testing.T) {
	sink := &recordingSink{}
	svc := startNotifier(t, sink)

	svc.ClinicChanged("s1", "clinic.created", nil)

	require.Eventually(t, func() bool { return sink.count() == 3 }, time.Second, 10*time.Millisecond)
	channels := sink.channels()
	assert.Contains(t, channels, realtime.ChannelClinic)
	assert.Contains(t, channels, "student:s1")
	assert.Contains(t, channels, realtime.ChannelDashboard)
}

func TestNotifierDashboardRefreshPublishesSnapshot(t *testing.T) {
	sink := &recordingSink{}
	svc := startNotifier(t, sink)

	svc.RefreshDashboard()

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 10*time.Millisecond)
	sink.mu.Lock()
	event := sink.events[0]
	sink.mu.Unlock()
	assert.Equal(t, realtime.ChannelDashboard, event.Channel)
	assert.Equal(t, "dashboard.updated", event.Type)
	snapshot, ok := event.Payload.(*models.DashboardSnapshot)
	require.True(t, ok)
	assert.Equal(t, 5, snapshot.TotalStudents)
}
