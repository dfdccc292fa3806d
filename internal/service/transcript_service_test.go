package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
)

type stubTranscriptEnrollments struct {
	enrollments []models.EnrollmentDetail
	calls       int
}

func (m *stubTranscriptEnrollments) ListForStudentYear(ctx context.Context, studentID, schoolYear string) ([]models.EnrollmentDetail, error) {
	m.calls++
	return m.enrollments, nil
}

type stubTranscriptStudents struct {
	student *models.StudentDetail
}

func (m *stubTranscriptStudents) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if m.student == nil {
		return nil, sql.ErrNoRows
	}
	return m.student, nil
}

type memoryCache struct {
	entries  map[string][]byte
	patterns []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.Clone(appErrors.ErrCacheMiss, "cache miss")
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func subjectEnrollment(subject string, final *float64) models.EnrollmentDetail {
	return models.EnrollmentDetail{
		Enrollment:  models.Enrollment{Q1: final, Q2: final, Q3: final, Q4: final, PreFinal: final},
		SubjectName: subject,
	}
}

func transcriptFixture() (*stubTranscriptStudents, *stubTranscriptEnrollments) {
	students := &stubTranscriptStudents{student: &models.StudentDetail{
		Student: models.Student{ID: "s1", LRN: "123456789012", FirstName: "Maria", LastName: "Reyes", GradeLevel: 9, SchoolYear: "2025-2026"},
	}}
	enrollments := &stubTranscriptEnrollments{enrollments: []models.EnrollmentDetail{
		subjectEnrollment("English", fptr(90)),
		subjectEnrollment("Mathematics", fptr(74)),
		subjectEnrollment("Music", fptr(85)),
		subjectEnrollment("Arts", fptr(87)),
	}}
	return students, enrollments
}

func TestTranscriptServiceClustersMAPEH(t *testing.T) {
	students, enrollments := transcriptFixture()
	svc := NewTranscriptService(enrollments, students, nil, NewMetricsService(), time.Minute, "Rizal JHS", "300123", zap.NewNop())

	transcript, err := svc.Get(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "Maria Reyes", transcript.StudentName)
	assert.Equal(t, "2025-2026", transcript.SchoolYear)
	require.Len(t, transcript.Rows, 4)

	byName := make(map[string]models.TranscriptRow)
	for _, row := range transcript.Rows {
		byName[row.Subject] = row
	}
	assert.Equal(t, "PASSED", byName["English"].Remarks)
	assert.Equal(t, "FAILED", byName["Mathematics"].Remarks)

	// Core areas 90 and 74 plus the MAPEH cluster (85, 87 -> 86).
	require.NotNil(t, transcript.GeneralAverage)
	assert.Equal(t, 83.33, *transcript.GeneralAverage)
}

func TestTranscriptServiceCachesBuiltPayload(t *testing.T) {
	students, enrollments := transcriptFixture()
	cache := newMemoryCache()
	svc := NewTranscriptService(enrollments, students, cache, NewMetricsService(), time.Minute, "", "", zap.NewNop())

	first, err := svc.Get(context.Background(), "s1", "2025-2026")
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), "s1", "2025-2026")
	require.NoError(t, err)

	assert.Equal(t, 1, enrollments.calls)
	assert.Equal(t, first.StudentName, second.StudentName)
	assert.Contains(t, cache.entries, "transcript:s1:2025-2026")
}

func TestTranscriptServiceInvalidateStudent(t *testing.T) {
	students, enrollments := transcriptFixture()
	cache := newMemoryCache()
	svc := NewTranscriptService(enrollments, students, cache, NewMetricsService(), time.Minute, "", "", zap.NewNop())

	svc.InvalidateStudent(context.Background(), "s1")
	assert.Equal(t, []string{"transcript:s1:*"}, cache.patterns)
}

func TestTranscriptServiceExportCSV(t *testing.T) {
	students, enrollments := transcriptFixture()
	svc := NewTranscriptService(enrollments, students, nil, NewMetricsService(), time.Minute, "Rizal JHS", "300123", zap.NewNop())

	payload, filename, err := svc.ExportCSV(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "sf10-maria-reyes-2025-2026.csv", filename)
	assert.Contains(t, string(payload), "Learning Area")
	assert.Contains(t, string(payload), "Mathematics")
}
