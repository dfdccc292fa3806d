package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/grading"
	"github.com/noah-isme/jhs-sis-api/internal/models"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ListSubjectFinals(ctx context.Context, studentID, schoolYear string) ([]models.SubjectFinal, error)
	Exists(ctx context.Context, studentID, teacherClassID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment, average models.AverageUpdate) error
	SaveScores(ctx context.Context, enrollment *models.Enrollment, average models.AverageUpdate) error
	SetFinalized(ctx context.Context, id string, finalized bool) error
	Delete(ctx context.Context, id string, average models.AverageUpdate) error
}

type enrollmentClassReader interface {
	FindByID(ctx context.Context, id string) (*models.TeacherClassDetail, error)
}

type gradeSettingsReader interface {
	Get(ctx context.Context) (*models.GradeSettings, error)
}

type gradeNotifier interface {
	GradesChanged(studentID, eventType string, payload interface{})
}

type transcriptInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID string)
}

// CreateEnrollmentRequest holds payload for enrolling a student into a class.
type CreateEnrollmentRequest struct {
	StudentID      string `json:"student_id" validate:"required"`
	TeacherClassID string `json:"teacher_class_id" validate:"required"`
}

// UpdateGradesRequest carries a partial quarterly-score update. Quarters absent
// from the payload are left untouched and never checked against locks.
type UpdateGradesRequest struct {
	Q1 models.Score `json:"q1"`
	Q2 models.Score `json:"q2"`
	Q3 models.Score `json:"q3"`
	Q4 models.Score `json:"q4"`
}

func (r UpdateGradesRequest) quarter(n int) models.Score {
	switch n {
	case 1:
		return r.Q1
	case 2:
		return r.Q2
	case 3:
		return r.Q3
	case 4:
		return r.Q4
	}
	return models.Score{}
}

// GradeChangePayload is broadcast on the student channel after grade writes.
type GradeChangePayload struct {
	Enrollment     *models.EnrollmentDetail `json:"enrollment"`
	GeneralAverage *float64                 `json:"general_average"`
}

// EnrollmentService handles enrollment and quarterly grade use-cases,
// including derived pre-final and general-average recomputation.
type EnrollmentService struct {
	repo        enrollmentRepository
	classes     enrollmentClassReader
	settings    gradeSettingsReader
	notifier    gradeNotifier
	transcripts transcriptInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs the enrollment service. transcripts may be
// nil when transcript caching is disabled.
func NewEnrollmentService(repo enrollmentRepository, classes enrollmentClassReader, settings gradeSettingsReader, notifier gradeNotifier, transcripts transcriptInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:        repo,
		classes:     classes,
		settings:    settings,
		notifier:    notifier,
		transcripts: transcripts,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// List returns enrollments and pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one enrollment with class context.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// Create enrolls a student into a teacher class with blank grades.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	class, err := s.classes.FindByID(ctx, req.TeacherClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher class")
	}
	exists, err := s.repo.Exists(ctx, req.StudentID, req.TeacherClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this class")
	}

	enrollment := &models.Enrollment{
		StudentID:      req.StudentID,
		TeacherClassID: req.TeacherClassID,
		SchoolYear:     class.SchoolYear,
	}

	// A new blank row can only invalidate the average (duplicate or missing
	// subject), so recompute with the row appended.
	average := s.recomputeAverage(ctx, req.StudentID, class.SchoolYear, "", nil, false, class.SubjectName)
	if err := s.repo.Create(ctx, enrollment, average); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	detail, err := s.repo.FindByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	s.invalidateTranscript(ctx, detail.StudentID)
	s.notifier.GradesChanged(detail.StudentID, "enrollment.created", GradeChangePayload{Enrollment: detail, GeneralAverage: average.Value})
	return detail, nil
}

// UpdateGrades applies a partial quarterly-score update, enforcing finalized
// and quarter-lock rules, then recomputes the derived grades.
func (s *EnrollmentService) UpdateGrades(ctx context.Context, id string, req UpdateGradesRequest, role models.UserRole) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if detail.IsFinalized && !role.Privileged() {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "enrollment is finalized")
	}
	if err := s.checkQuarterLocks(ctx, req, role); err != nil {
		return nil, err
	}

	enrollment := detail.Enrollment
	for n := 1; n <= 4; n++ {
		score := req.quarter(n)
		if !score.Set {
			continue
		}
		if score.Value != nil && (*score.Value < 0 || *score.Value > 100) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("q%d must be between 0 and 100", n))
		}
		switch n {
		case 1:
			enrollment.Q1 = score.Value
		case 2:
			enrollment.Q2 = score.Value
		case 3:
			enrollment.Q3 = score.Value
		case 4:
			enrollment.Q4 = score.Value
		}
	}
	enrollment.PreFinal = grading.FinalGrade(enrollment.Q1, enrollment.Q2, enrollment.Q3, enrollment.Q4)

	average := s.recomputeAverage(ctx, enrollment.StudentID, enrollment.SchoolYear, enrollment.ID, enrollment.PreFinal, false, "")
	if err := s.repo.SaveScores(ctx, &enrollment, average); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grades")
	}

	detail.Enrollment = enrollment
	s.invalidateTranscript(ctx, enrollment.StudentID)
	s.notifier.GradesChanged(enrollment.StudentID, "enrollment.updated", GradeChangePayload{Enrollment: detail, GeneralAverage: average.Value})
	return detail, nil
}

// SetFinalized toggles the finalized flag on an enrollment.
func (s *EnrollmentService) SetFinalized(ctx context.Context, id string, finalized bool) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if detail.IsFinalized == finalized {
		return detail, nil
	}
	if err := s.repo.SetFinalized(ctx, id, finalized); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	detail.IsFinalized = finalized
	eventType := "enrollment.finalized"
	if !finalized {
		eventType = "enrollment.unfinalized"
	}
	s.notifier.GradesChanged(detail.StudentID, eventType, GradeChangePayload{Enrollment: detail})
	return detail, nil
}

// Delete removes an enrollment and recomputes the student's general average.
func (s *EnrollmentService) Delete(ctx context.Context, id string, role models.UserRole) error {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if detail.IsFinalized && !role.Privileged() {
		return appErrors.Clone(appErrors.ErrFinalized, "enrollment is finalized")
	}

	average := s.recomputeAverage(ctx, detail.StudentID, detail.SchoolYear, detail.ID, nil, true, "")
	if err := s.repo.Delete(ctx, id, average); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	s.invalidateTranscript(ctx, detail.StudentID)
	s.notifier.GradesChanged(detail.StudentID, "enrollment.deleted", GradeChangePayload{Enrollment: detail, GeneralAverage: average.Value})
	return nil
}

func (s *EnrollmentService) invalidateTranscript(ctx context.Context, studentID string) {
	if s.transcripts != nil {
		s.transcripts.InvalidateStudent(ctx, studentID)
	}
}

// checkQuarterLocks enforces the grade settings for the quarters present in
// the payload. Privileged roles bypass locks entirely.
func (s *EnrollmentService) checkQuarterLocks(ctx context.Context, req UpdateGradesRequest, role models.UserRole) error {
	if role.Privileged() {
		return nil
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "grade settings are not configured")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade settings")
	}
	for n := 1; n <= 4; n++ {
		if req.quarter(n).Set && !settings.QuarterOpen(n) {
			return appErrors.Clone(appErrors.ErrQuarterLocked, fmt.Sprintf("grading for quarter %d is closed", n))
		}
	}
	return nil
}

// recomputeAverage reloads the student's subject finals, substitutes the row
// being written (or appends addedSubject for a not-yet-inserted row), and
// computes the general average. Read failures leave the stored value
// untouched: the grade write must not fail because the derived value could
// not be refreshed.
func (s *EnrollmentService) recomputeAverage(ctx context.Context, studentID, schoolYear, enrollmentID string, preFinal *float64, removed bool, addedSubject string) models.AverageUpdate {
	rows, err := s.repo.ListSubjectFinals(ctx, studentID, schoolYear)
	if err != nil {
		s.logger.Warn("general average recompute skipped",
			zap.String("student_id", studentID),
			zap.Error(err))
		s.metrics.RecordRecomputeFailure()
		return models.AverageUpdate{StudentID: studentID}
	}

	finals := make([]grading.SubjectFinal, 0, len(rows))
	for _, row := range rows {
		if row.EnrollmentID == enrollmentID {
			if removed {
				continue
			}
			finals = append(finals, grading.SubjectFinal{Subject: row.SubjectName, Final: preFinal})
			continue
		}
		finals = append(finals, grading.SubjectFinal{Subject: row.SubjectName, Final: row.PreFinal})
	}
	if addedSubject != "" {
		finals = append(finals, grading.SubjectFinal{Subject: addedSubject})
	}

	return models.AverageUpdate{
		StudentID: studentID,
		Value:     grading.GeneralAverage(finals),
		Apply:     true,
	}
}
