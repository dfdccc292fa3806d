package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]models.StudentDetail
	lrnTaken bool
	created  *models.Student
	updated  *models.Student
	deleted  string
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByLRN(ctx context.Context, lrn, excludeID string) (bool, error) {
	return m.lrnTaken, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "s-new"
	}
	if m.students == nil {
		m.students = make(map[string]models.StudentDetail)
	}
	m.students[student.ID] = models.StudentDetail{Student: *student}
	m.created = student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = models.StudentDetail{Student: *student}
	m.updated = student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return nil
}

type stubSectionReader struct {
	section *models.Section
}

func (m *stubSectionReader) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if m.section == nil {
		return nil, sql.ErrNoRows
	}
	return m.section, nil
}

type syncCall struct {
	studentID  string
	schoolYear string
	sectionID  *string
}

type mockSectionSyncer struct {
	calls []syncCall
}

func (m *mockSectionSyncer) SyncSection(ctx context.Context, studentID, schoolYear string, sectionID *string) error {
	m.calls = append(m.calls, syncCall{studentID, schoolYear, sectionID})
	return nil
}

type stubStudentNotifier struct {
	saved   []string
	deleted []string
}

func (m *stubStudentNotifier) StudentSaved(student *models.StudentDetail, eventType string) {
	m.saved = append(m.saved, eventType)
}

func (m *stubStudentNotifier) StudentDeleted(studentID string) {
	m.deleted = append(m.deleted, studentID)
}

func validCreateStudentRequest() CreateStudentRequest {
	return CreateStudentRequest{
		LRN:        "123456789012",
		FirstName:  "Maria",
		LastName:   "Reyes",
		Sex:        "Female",
		BirthDate:  time.Date(2012, 5, 4, 0, 0, 0, 0, time.UTC),
		GradeLevel: 7,
		SchoolYear: "2025-2026",
	}
}

func TestStudentServiceCreateDuplicateLRN(t *testing.T) {
	repo := &mockStudentRepo{lrnTaken: true}
	svc := NewStudentService(repo, &stubSectionReader{}, &mockSectionSyncer{}, &stubStudentNotifier{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), validCreateStudentRequest())
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestStudentServiceCreateSyncsSection(t *testing.T) {
	repo := &mockStudentRepo{}
	sections := &stubSectionReader{section: &models.Section{ID: "sec1", GradeLevel: 7, SchoolYear: "2025-2026"}}
	syncer := &mockSectionSyncer{}
	notifier := &stubStudentNotifier{}
	svc := NewStudentService(repo, sections, syncer, notifier, validator.New(), zap.NewNop())

	req := validCreateStudentRequest()
	sectionID := "sec1"
	req.SectionID = &sectionID

	detail, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, detail.Active)
	require.Len(t, syncer.calls, 1)
	assert.Equal(t, detail.ID, syncer.calls[0].studentID)
	assert.Equal(t, "2025-2026", syncer.calls[0].schoolYear)
	assert.Equal(t, []string{"student.created"}, notifier.saved)
}

func TestStudentServiceCreateSectionMismatch(t *testing.T) {
	repo := &mockStudentRepo{}
	sections := &stubSectionReader{section: &models.Section{ID: "sec1", GradeLevel: 8, SchoolYear: "2025-2026"}}
	svc := NewStudentService(repo, sections, &mockSectionSyncer{}, &stubStudentNotifier{}, validator.New(), zap.NewNop())

	req := validCreateStudentRequest()
	sectionID := "sec1"
	req.SectionID = &sectionID

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestStudentServiceUpdateSyncsOnSectionChange(t *testing.T) {
	oldSection := "sec1"
	repo := &mockStudentRepo{students: map[string]models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", LRN: "123456789012", GradeLevel: 7, SchoolYear: "2025-2026", SectionID: &oldSection}},
	}}
	sections := &stubSectionReader{section: &models.Section{ID: "sec2", GradeLevel: 7, SchoolYear: "2025-2026"}}
	syncer := &mockSectionSyncer{}
	svc := NewStudentService(repo, sections, syncer, &stubStudentNotifier{}, validator.New(), zap.NewNop())

	req := UpdateStudentRequest{
		LRN:        "123456789012",
		FirstName:  "Maria",
		LastName:   "Reyes",
		Sex:        "Female",
		BirthDate:  time.Date(2012, 5, 4, 0, 0, 0, 0, time.UTC),
		GradeLevel: 7,
		SchoolYear: "2025-2026",
		Active:     true,
	}
	newSection := "sec2"
	req.SectionID = &newSection

	_, err := svc.Update(context.Background(), "s1", req)
	require.NoError(t, err)
	require.Len(t, syncer.calls, 1)
	require.NotNil(t, syncer.calls[0].sectionID)
	assert.Equal(t, "sec2", *syncer.calls[0].sectionID)
}

func TestStudentServiceUpdateSkipsSyncWhenSectionUnchanged(t *testing.T) {
	sectionID := "sec1"
	repo := &mockStudentRepo{students: map[string]models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", LRN: "123456789012", GradeLevel: 7, SchoolYear: "2025-2026", SectionID: &sectionID}},
	}}
	sections := &stubSectionReader{section: &models.Section{ID: "sec1", GradeLevel: 7, SchoolYear: "2025-2026"}}
	syncer := &mockSectionSyncer{}
	svc := NewStudentService(repo, sections, syncer, &stubStudentNotifier{}, validator.New(), zap.NewNop())

	req := UpdateStudentRequest{
		LRN:        "123456789012",
		FirstName:  "Maria",
		LastName:   "Reyes",
		Sex:        "Female",
		BirthDate:  time.Date(2012, 5, 4, 0, 0, 0, 0, time.UTC),
		GradeLevel: 7,
		SchoolYear: "2025-2026",
		Active:     true,
	}
	same := "sec1"
	req.SectionID = &same

	_, err := svc.Update(context.Background(), "s1", req)
	require.NoError(t, err)
	assert.Empty(t, syncer.calls)
}

func TestStudentServiceDeleteNotifies(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1"}},
	}}
	notifier := &stubStudentNotifier{}
	svc := NewStudentService(repo, &stubSectionReader{}, &mockSectionSyncer{}, notifier, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.Equal(t, "s1", repo.deleted)
	assert.Equal(t, []string{"s1"}, notifier.deleted)
}
