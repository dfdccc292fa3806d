package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	details    map[string]models.EnrollmentDetail
	finals     []models.SubjectFinal
	finalsErr  error
	exists     bool
	created    *models.Enrollment
	createdAvg models.AverageUpdate
	saved      *models.Enrollment
	savedAvg   models.AverageUpdate
	deleted    string
	deletedAvg models.AverageUpdate
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if d, ok := m.details[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ListSubjectFinals(ctx context.Context, studentID, schoolYear string) ([]models.SubjectFinal, error) {
	if m.finalsErr != nil {
		return nil, m.finalsErr
	}
	return m.finals, nil
}

func (m *mockEnrollmentRepo) Exists(ctx context.Context, studentID, teacherClassID string) (bool, error) {
	return m.exists, nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment, average models.AverageUpdate) error {
	if enrollment.ID == "" {
		enrollment.ID = "e-new"
	}
	if m.details == nil {
		m.details = make(map[string]models.EnrollmentDetail)
	}
	m.details[enrollment.ID] = models.EnrollmentDetail{Enrollment: *enrollment}
	m.created = enrollment
	m.createdAvg = average
	return nil
}

func (m *mockEnrollmentRepo) SaveScores(ctx context.Context, enrollment *models.Enrollment, average models.AverageUpdate) error {
	m.saved = enrollment
	m.savedAvg = average
	return nil
}

func (m *mockEnrollmentRepo) SetFinalized(ctx context.Context, id string, finalized bool) error {
	if d, ok := m.details[id]; ok {
		d.IsFinalized = finalized
		m.details[id] = d
	}
	return nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id string, average models.AverageUpdate) error {
	m.deleted = id
	m.deletedAvg = average
	return nil
}

type mockClassReader struct {
	class *models.TeacherClassDetail
}

func (m *mockClassReader) FindByID(ctx context.Context, id string) (*models.TeacherClassDetail, error) {
	if m.class == nil {
		return nil, sql.ErrNoRows
	}
	return m.class, nil
}

type mockSettingsReader struct {
	settings *models.GradeSettings
	err      error
}

func (m *mockSettingsReader) Get(ctx context.Context) (*models.GradeSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.settings, nil
}

type gradeEvent struct {
	studentID string
	eventType string
	payload   interface{}
}

type mockGradeNotifier struct {
	events []gradeEvent
}

func (m *mockGradeNotifier) GradesChanged(studentID, eventType string, payload interface{}) {
	m.events = append(m.events, gradeEvent{studentID, eventType, payload})
}

func fptr(v float64) *float64 {
	return &v
}

func requiredFinals(except string) []models.SubjectFinal {
	subjects := []string{
		"Filipino",
		"English",
		"Mathematics",
		"Science",
		"Araling Panlipunan (AP)",
		"Edukasyon sa Pagpapakatao (EsP)",
		"Technology and Livelihood Education (TLE)",
		"MAPEH",
	}
	finals := make([]models.SubjectFinal, 0, len(subjects))
	for i, subject := range subjects {
		id := fmt.Sprintf("enr-%d", i)
		if subject == except {
			id = "e1"
		}
		finals = append(finals, models.SubjectFinal{EnrollmentID: id, SubjectName: subject, PreFinal: fptr(90)})
	}
	return finals
}

func newGradeService(repo *mockEnrollmentRepo, classes *mockClassReader, settings *mockSettingsReader, notifier *mockGradeNotifier) *EnrollmentService {
	return NewEnrollmentService(repo, classes, settings, notifier, nil, NewMetricsService(), validator.New(), zap.NewNop())
}

func allOpenSettings() *mockSettingsReader {
	return &mockSettingsReader{settings: &models.GradeSettings{Q1Open: true, Q2Open: true, Q3Open: true, Q4Open: true}}
}

func TestEnrollmentServiceCreateDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{exists: true}
	classes := &mockClassReader{class: &models.TeacherClassDetail{TeacherClass: models.TeacherClass{SchoolYear: "2025-2026"}, SubjectName: "English"}}
	svc := newGradeService(repo, classes, allOpenSettings(), &mockGradeNotifier{})

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: "s1", TeacherClassID: "c1"})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestEnrollmentServiceCreateInvalidatesAverageOnDuplicateSubject(t *testing.T) {
	// A complete set of required subjects already exists; enrolling into a
	// second English class makes the average undefined again.
	repo := &mockEnrollmentRepo{finals: requiredFinals("")}
	classes := &mockClassReader{class: &models.TeacherClassDetail{TeacherClass: models.TeacherClass{SchoolYear: "2025-2026"}, SubjectName: "English"}}
	notifier := &mockGradeNotifier{}
	svc := newGradeService(repo, classes, allOpenSettings(), notifier)

	detail, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: "s1", TeacherClassID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", detail.SchoolYear)
	assert.True(t, repo.createdAvg.Apply)
	assert.Nil(t, repo.createdAvg.Value)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, "enrollment.created", notifier.events[0].eventType)
}

func TestEnrollmentServiceUpdateGradesFinalizedRejected(t *testing.T) {
	repo := &mockEnrollmentRepo{details: map[string]models.EnrollmentDetail{
		"e1": {Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", SchoolYear: "2025-2026", IsFinalized: true}},
	}}
	svc := newGradeService(repo, &mockClassReader{}, allOpenSettings(), &mockGradeNotifier{})

	req := UpdateGradesRequest{Q1: models.Score{Set: true, Value: fptr(88)}}
	_, err := svc.UpdateGrades(context.Background(), "e1", req, models.RoleTeacher)
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrFinalized.Code, appErr.Code)
}

func TestEnrollmentServiceUpdateGradesFinalizedAllowsRegistrar(t *testing.T) {
	repo := &mockEnrollmentRepo{
		details: map[string]models.EnrollmentDetail{
			"e1": {Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", SchoolYear: "2025-2026", IsFinalized: true}, SubjectName: "English"},
		},
		finals: requiredFinals("English"),
	}
	svc := newGradeService(repo, &mockClassReader{}, allOpenSettings(), &mockGradeNotifier{})

	req := UpdateGradesRequest{Q1: models.Score{Set: true, Value: fptr(88)}}
	detail, err := svc.UpdateGrades(context.Background(), "e1", req, models.RoleRegistrar)
	require.NoError(t, err)
	require.NotNil(t, detail.Q1)
	assert.Equal(t, 88.0, *detail.Q1)
}

func TestEnrollmentServiceUpdateGradesQuarterLocked(t *testing.T) {
	repo := &mockEnrollmentRepo{details: map[string]models.EnrollmentDetail{
		"e1": {Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", SchoolYear: "2025-2026"}},
	}}
	settings := &mockSettingsReader{settings: &models.GradeSettings{Q1Open: true}}
	svc := newGradeService(repo, &mockClassReader{}, settings, &mockGradeNotifier{})

	req := UpdateGradesRequest{Q2: models.Score{Set: true, Value: fptr(85)}}
	_, err := svc.UpdateGrades(context.Background(), "e1", req, models.RoleTeacher)
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrQuarterLocked.Code, appErr.Code)
}

func TestEnrollmentServiceUpdateGradesIgnoresLocksOnAbsentQuarters(t *testing.T) {
	repo := &mockEnrollmentRepo{details: map[string]models.EnrollmentDetail{
		"e1": {Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", SchoolYear: "2025-2026"}},
	}}
	// Q2 through Q4 closed, but the payload only touches Q1.
	settings := &mockSettingsReader{settings: &models.GradeSettings{Q1Open: true}}
	svc := newGradeService(repo, &mockClassReader{}, settings, &mockGradeNotifier{})

	req := UpdateGradesRequest{Q1: models.Score{Set: true, Value: fptr(91)}}
	detail, err := svc.UpdateGrades(context.Background(), "e1", req, models.RoleTeacher)
	require.NoError(t, err)
	require.NotNil(t, detail.Q1)
	assert.Equal(t, 91.0, *detail.Q1)
}

func TestEnrollmentServiceUpdateGradesMissingSettings(t *testing.T) {
	repo := &mockEnrollmentRepo{details: map[string]models.EnrollmentDetail{
		"e1": {Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", SchoolYear: "2025-2026"}},
	}}
	settings := &mockSettingsReader{err: sql.ErrNoRows}
	svc := newGradeService(repo, &mockClassReader{}, settings, &mockGradeNotifier{})

	req := UpdateGradesRequest{Q1: models.Score{Set: true, Value: fptr(80)}}
	_, err := svc.UpdateGrades(context.Background(), "e1", req, models.RoleTeacher)
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestEnrollmentServiceUpdateGradesRejectsOutOfRange(t *testing.T) {
	repo := &mockEnrollmentRepo{details: map[string]models.EnrollmentDetail{
		"e1": {Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", SchoolYear: "2025-2026"}},
	}}
	svc := newGradeService(repo, &mockClassReader{}, allOpenSettings(), &mockGradeNotifier{})

	req := UpdateGradesRequest{Q1: models.Score{Set: true, Value: fptr(150)}}
	_, err := svc.UpdateGrades(context.Background(), "e1", req, models.RoleTeacher)
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEnrollmentServiceUpdateGradesRecomputesDerivedValues(t *testing.T) {
	repo := &mockEnrollmentRepo{
		details: map[string]models.EnrollmentDetail{
			"e1": {
				Enrollment: models.Enrollment{
					ID: "e1", StudentID: "s1", SchoolYear: "2025-2026",
					Q1: fptr(88), Q2: fptr(88), Q3: fptr(88),
				},
				SubjectName: "English",
			},
		},
		finals: requiredFinals("English"),
	}
	notifier := &mockGradeNotifier{}
	svc := newGradeService(repo, &mockClassReader{}, allOpenSettings(), notifier)

	req := UpdateGradesRequest{Q4: models.Score{Set: true, Value: fptr(88)}}
	detail, err := svc.UpdateGrades(context.Background(), "e1", req, models.RoleTeacher)
	require.NoError(t, err)

	require.NotNil(t, detail.PreFinal)
	assert.Equal(t, 88.0, *detail.PreFinal)

	// Seven subjects at 90, English substituted with the fresh 88.
	require.True(t, repo.savedAvg.Apply)
	require.NotNil(t, repo.savedAvg.Value)
	assert.Equal(t, 89.75, *repo.savedAvg.Value)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "s1", notifier.events[0].studentID)
	assert.Equal(t, "enrollment.updated", notifier.events[0].eventType)
}

func TestEnrollmentServiceUpdateGradesKeepsAverageOnRecomputeFailure(t *testing.T) {
	repo := &mockEnrollmentRepo{
		details: map[string]models.EnrollmentDetail{
			"e1": {Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", SchoolYear: "2025-2026"}},
		},
		finalsErr: assert.AnError,
	}
	svc := newGradeService(repo, &mockClassReader{}, allOpenSettings(), &mockGradeNotifier{})

	req := UpdateGradesRequest{Q1: models.Score{Set: true, Value: fptr(80)}}
	_, err := svc.UpdateGrades(context.Background(), "e1", req, models.RoleTeacher)
	require.NoError(t, err)

	// The grade write persists; the stored average is left untouched.
	require.NotNil(t, repo.saved)
	assert.False(t, repo.savedAvg.Apply)
	assert.Equal(t, "s1", repo.savedAvg.StudentID)
}

func TestEnrollmentServiceDeleteFinalizedRejected(t *testing.T) {
	repo := &mockEnrollmentRepo{details: map[string]models.EnrollmentDetail{
		"e1": {Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", SchoolYear: "2025-2026", IsFinalized: true}},
	}}
	svc := newGradeService(repo, &mockClassReader{}, allOpenSettings(), &mockGradeNotifier{})

	err := svc.Delete(context.Background(), "e1", models.RoleTeacher)
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrFinalized.Code, appErr.Code)
	assert.Empty(t, repo.deleted)
}

func TestEnrollmentServiceDeleteRecomputesWithoutRow(t *testing.T) {
	repo := &mockEnrollmentRepo{
		details: map[string]models.EnrollmentDetail{
			"e1": {Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", SchoolYear: "2025-2026"}, SubjectName: "English"},
		},
		finals: requiredFinals("English"),
	}
	svc := newGradeService(repo, &mockClassReader{}, allOpenSettings(), &mockGradeNotifier{})

	err := svc.Delete(context.Background(), "e1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "e1", repo.deleted)
	// English is gone, so the required set is incomplete.
	assert.True(t, repo.deletedAvg.Apply)
	assert.Nil(t, repo.deletedAvg.Value)
}

func TestEnrollmentServiceFinalizeIsIdempotent(t *testing.T) {
	repo := &mockEnrollmentRepo{details: map[string]models.EnrollmentDetail{
		"e1": {Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", IsFinalized: true}},
	}}
	notifier := &mockGradeNotifier{}
	svc := newGradeService(repo, &mockClassReader{}, allOpenSettings(), notifier)

	detail, err := svc.SetFinalized(context.Background(), "e1", true)
	require.NoError(t, err)
	assert.True(t, detail.IsFinalized)
	assert.Empty(t, notifier.events)
}
