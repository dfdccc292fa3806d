package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/grading"
	"github.com/noah-isme/jhs-sis-api/internal/models"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
	"github.com/noah-isme/jhs-sis-api/pkg/export"
)

type transcriptEnrollmentReader interface {
	ListForStudentYear(ctx context.Context, studentID, schoolYear string) ([]models.EnrollmentDetail, error)
}

type transcriptStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type transcriptCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const passingGrade = 75.0

// TranscriptService assembles SF10-style permanent records and renders CSV
// and PDF exports. Built transcripts are cached in Redis with a short TTL;
// grade writes invalidate the student's entries.
type TranscriptService struct {
	enrollments transcriptEnrollmentReader
	students    transcriptStudentReader
	cache       transcriptCache
	metrics     *MetricsService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	ttl         time.Duration
	schoolName  string
	schoolID    string
	logger      *zap.Logger
}

// NewTranscriptService constructs the transcript service. A nil cache
// disables caching.
func NewTranscriptService(enrollments transcriptEnrollmentReader, students transcriptStudentReader, cache transcriptCache, metrics *MetricsService, ttl time.Duration, schoolName, schoolID string, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TranscriptService{
		enrollments: enrollments,
		students:    students,
		cache:       cache,
		metrics:     metrics,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		ttl:         ttl,
		schoolName:  schoolName,
		schoolID:    schoolID,
		logger:      logger,
	}
}

// Get builds the transcript for a student's school year. The year defaults to
// the student's current school year.
func (s *TranscriptService) Get(ctx context.Context, studentID, schoolYear string) (*models.Transcript, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if schoolYear == "" {
		schoolYear = student.SchoolYear
	}

	key := transcriptKey(studentID, schoolYear)
	if s.cache != nil {
		var cached models.Transcript
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	enrollments, err := s.enrollments.ListForStudentYear(ctx, studentID, schoolYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	transcript := buildTranscript(student, schoolYear, enrollments)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, transcript, s.ttl); err != nil {
			s.logger.Warn("transcript cache write failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return transcript, nil
}

// ExportCSV renders the transcript as CSV bytes.
func (s *TranscriptService) ExportCSV(ctx context.Context, studentID, schoolYear string) ([]byte, string, error) {
	transcript, err := s.Get(ctx, studentID, schoolYear)
	if err != nil {
		return nil, "", err
	}
	data, meta := s.exportDataset(transcript)
	payload, err := s.csv.Render(data, meta)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, exportFilename(transcript, "csv"), nil
}

// ExportPDF renders the transcript as PDF bytes.
func (s *TranscriptService) ExportPDF(ctx context.Context, studentID, schoolYear string) ([]byte, string, error) {
	transcript, err := s.Get(ctx, studentID, schoolYear)
	if err != nil {
		return nil, "", err
	}
	data, meta := s.exportDataset(transcript)
	payload, err := s.pdf.Render(data, "Permanent Record (SF10)", meta)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, exportFilename(transcript, "pdf"), nil
}

// InvalidateStudent evicts every cached transcript for the student.
func (s *TranscriptService) InvalidateStudent(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, transcriptKey(studentID, "*")); err != nil {
		s.logger.Warn("transcript cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

func (s *TranscriptService) exportDataset(t *models.Transcript) (export.Dataset, []export.Field) {
	data := export.Dataset{
		Headers: []string{"Learning Area", "Q1", "Q2", "Q3", "Q4", "Final", "Remarks"},
	}
	for _, row := range t.Rows {
		data.Rows = append(data.Rows, map[string]string{
			"Learning Area": row.Subject,
			"Q1":            formatGrade(row.Q1),
			"Q2":            formatGrade(row.Q2),
			"Q3":            formatGrade(row.Q3),
			"Q4":            formatGrade(row.Q4),
			"Final":         formatGrade(row.Final),
			"Remarks":       row.Remarks,
		})
	}

	meta := []export.Field{
		{Label: "Learner", Value: t.StudentName},
		{Label: "LRN", Value: t.LRN},
		{Label: "Grade Level", Value: strconv.Itoa(t.GradeLevel)},
		{Label: "School Year", Value: t.SchoolYear},
	}
	if t.SectionName != "" {
		meta = append(meta, export.Field{Label: "Section", Value: t.SectionName})
	}
	if s.schoolName != "" {
		meta = append(meta, export.Field{Label: "School", Value: s.schoolName})
	}
	if s.schoolID != "" {
		meta = append(meta, export.Field{Label: "School ID", Value: s.schoolID})
	}
	meta = append(meta, export.Field{Label: "General Average", Value: formatGrade(t.GeneralAverage)})
	return data, meta
}

func buildTranscript(student *models.StudentDetail, schoolYear string, enrollments []models.EnrollmentDetail) *models.Transcript {
	transcript := &models.Transcript{
		StudentID:   student.ID,
		LRN:         student.LRN,
		StudentName: student.FullName(),
		GradeLevel:  student.GradeLevel,
		SchoolYear:  schoolYear,
	}
	if student.SectionName != nil {
		transcript.SectionName = *student.SectionName
	}

	finals := make([]grading.SubjectFinal, 0, len(enrollments))
	for _, e := range enrollments {
		transcript.Rows = append(transcript.Rows, models.TranscriptRow{
			Subject: e.SubjectName,
			Q1:      e.Q1,
			Q2:      e.Q2,
			Q3:      e.Q3,
			Q4:      e.Q4,
			Final:   e.PreFinal,
			Remarks: remarks(e.PreFinal),
		})
		finals = append(finals, grading.SubjectFinal{Subject: e.SubjectName, Final: e.PreFinal})
	}
	transcript.GeneralAverage = grading.TranscriptAverage(finals)
	return transcript
}

func remarks(final *float64) string {
	if final == nil {
		return ""
	}
	if *final >= passingGrade {
		return "PASSED"
	}
	return "FAILED"
}

func formatGrade(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func transcriptKey(studentID, schoolYear string) string {
	return fmt.Sprintf("transcript:%s:%s", studentID, schoolYear)
}

func exportFilename(t *models.Transcript, ext string) string {
	name := strings.ReplaceAll(strings.ToLower(t.StudentName), " ", "-")
	return fmt.Sprintf("sf10-%s-%s.%s", name, t.SchoolYear, ext)
}
