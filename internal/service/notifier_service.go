package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	"github.com/noah-isme/jhs-sis-api/internal/realtime"
	"github.com/noah-isme/jhs-sis-api/pkg/jobs"
)

type eventSink interface {
	Publish(ctx context.Context, event realtime.Event) error
}

type dashboardSnapshotter interface {
	Snapshot(ctx context.Context) (*models.DashboardSnapshot, error)
}

const (
	jobTypeEvent            = "event"
	jobTypeDashboardRefresh = "dashboard-refresh"
)

// NotifierService fans change notifications out to the realtime hub through a
// background queue so request latency never waits on delivery. Every publish
// is fire-and-forget: failures are logged and dropped, never retried, never
// surfaced to the caller.
type NotifierService struct {
	sink      eventSink
	dashboard dashboardSnapshotter
	metrics   *MetricsService
	logger    *zap.Logger
	queue     *jobs.Queue
}

// NewNotifierService constructs the notifier with its own worker queue.
func NewNotifierService(sink eventSink, dashboard dashboardSnapshotter, metrics *MetricsService, workers int, logger *zap.Logger) *NotifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotifierService{
		sink:      sink,
		dashboard: dashboard,
		metrics:   metrics,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("notifications", s.handleJob, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: -1,
		Logger:     logger,
	})
	return s
}

// Start launches the fan-out workers.
func (s *NotifierService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the fan-out workers.
func (s *NotifierService) Stop() {
	s.queue.Stop()
}

func (s *NotifierService) handleJob(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobTypeEvent:
		event, ok := job.Payload.(realtime.Event)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		if err := s.sink.Publish(ctx, event); err != nil {
			return fmt.Errorf("publish %s: %w", event.Channel, err)
		}
		s.metrics.RecordEventPublished(event.Channel)
		return nil
	case jobTypeDashboardRefresh:
		snapshot, err := s.dashboard.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("dashboard snapshot: %w", err)
		}
		event := realtime.Event{
			Channel: realtime.ChannelDashboard,
			Type:    "dashboard.updated",
			Payload: snapshot,
			At:      time.Now().UTC(),
		}
		if err := s.sink.Publish(ctx, event); err != nil {
			return fmt.Errorf("publish dashboard: %w", err)
		}
		s.metrics.RecordEventPublished(event.Channel)
		return nil
	}
	return fmt.Errorf("unknown job type %s", job.Type)
}

func (s *NotifierService) enqueue(job jobs.Job) {
	job.ID = uuid.NewString()
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification dropped", zap.String("type", job.Type), zap.Error(err))
	}
}

func (s *NotifierService) publish(channel, eventType string, payload interface{}) {
	s.enqueue(jobs.Job{
		Type: jobTypeEvent,
		Payload: realtime.Event{
			Channel: channel,
			Type:    eventType,
			Payload: payload,
			At:      time.Now().UTC(),
		},
	})
}

// RefreshDashboard broadcasts a fresh dashboard snapshot.
func (s *NotifierService) RefreshDashboard() {
	s.enqueue(jobs.Job{Type: jobTypeDashboardRefresh})
}

// StudentSaved broadcasts a created or updated student to its own channel and
// the list channel, then refreshes the dashboard.
func (s *NotifierService) StudentSaved(student *models.StudentDetail, eventType string) {
	s.publish(realtime.StudentChannel(student.ID), eventType, student)
	s.publish(realtime.ChannelStudentList, eventType, student)
	s.RefreshDashboard()
}

// StudentDeleted broadcasts the removal to the student channel and the list
// channel, then refreshes the dashboard.
func (s *NotifierService) StudentDeleted(studentID string) {
	payload := map[string]string{"id": studentID}
	s.publish(realtime.StudentChannel(studentID), "student.deleted", payload)
	s.publish(realtime.ChannelStudentList, "student.deleted", payload)
	s.RefreshDashboard()
}

// GradesChanged broadcasts an enrollment delta on the student channel only.
// The list channel stays quiet: the only student-row change is the cached
// general average refresh.
func (s *NotifierService) GradesChanged(studentID, eventType string, payload interface{}) {
	s.publish(realtime.StudentChannel(studentID), eventType, payload)
}

// AttendanceChanged broadcasts an attendance write.
func (s *NotifierService) AttendanceChanged(studentID, eventType string, payload interface{}) {
	s.publish(realtime.ChannelAttendance, eventType, payload)
	s.publish(realtime.StudentChannel(studentID), eventType, payload)
}

// ClinicChanged broadcasts a clinic visit write and refreshes the dashboard.
func (s *NotifierService) ClinicChanged(studentID, eventType string, payload interface{}) {
	s.publish(realtime.ChannelClinic, eventType, payload)
	s.publish(realtime.StudentChannel(studentID), eventType, payload)
	s.RefreshDashboard()
}

// BehaviorChanged broadcasts a behavior record write and refreshes the dashboard.
func (s *NotifierService) BehaviorChanged(studentID, eventType string, payload interface{}) {
	s.publish(realtime.ChannelBehavior, eventType, payload)
	s.publish(realtime.StudentChannel(studentID), eventType, payload)
	s.RefreshDashboard()
}
