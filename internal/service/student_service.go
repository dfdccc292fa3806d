package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByLRN(ctx context.Context, lrn string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type sectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type enrollmentSyncer interface {
	SyncSection(ctx context.Context, studentID, schoolYear string, sectionID *string) error
}

type studentNotifier interface {
	StudentSaved(student *models.StudentDetail, eventType string)
	StudentDeleted(studentID string)
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	LRN           string    `json:"lrn" validate:"required,len=12,numeric"`
	FirstName     string    `json:"first_name" validate:"required"`
	MiddleName    *string   `json:"middle_name"`
	LastName      string    `json:"last_name" validate:"required"`
	Sex           string    `json:"sex" validate:"required,oneof=Male Female"`
	BirthDate     time.Time `json:"birth_date" validate:"required"`
	GradeLevel    int       `json:"grade_level" validate:"required,min=7,max=10"`
	SchoolYear    string    `json:"school_year" validate:"required"`
	SectionID     *string   `json:"section_id"`
	GuardianName  string    `json:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone"`
	Address       string    `json:"address"`
	ElemSchool    string    `json:"elem_school"`
	ElemYearGrad  string    `json:"elem_year_graduated"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	LRN           string    `json:"lrn" validate:"required,len=12,numeric"`
	FirstName     string    `json:"first_name" validate:"required"`
	MiddleName    *string   `json:"middle_name"`
	LastName      string    `json:"last_name" validate:"required"`
	Sex           string    `json:"sex" validate:"required,oneof=Male Female"`
	BirthDate     time.Time `json:"birth_date" validate:"required"`
	GradeLevel    int       `json:"grade_level" validate:"required,min=7,max=10"`
	SchoolYear    string    `json:"school_year" validate:"required"`
	SectionID     *string   `json:"section_id"`
	GuardianName  string    `json:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone"`
	Address       string    `json:"address"`
	ElemSchool    string    `json:"elem_school"`
	ElemYearGrad  string    `json:"elem_year_graduated"`
	Active        bool      `json:"active"`
}

// StudentService handles student use-cases, keeping enrollments in step with
// section assignment.
type StudentService struct {
	repo        studentRepository
	sections    sectionReader
	enrollments enrollmentSyncer
	notifier    studentNotifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, sections sectionReader, enrollments enrollmentSyncer, notifier studentNotifier, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:        repo,
		sections:    sections,
		enrollments: enrollments,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student, enrolls them into their section's classes
// and broadcasts the change.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByLRN(ctx, req.LRN, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate lrn")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "lrn already registered")
	}
	if err := s.checkSection(ctx, req.SectionID, req.GradeLevel, req.SchoolYear); err != nil {
		return nil, err
	}

	student := &models.Student{
		LRN:           req.LRN,
		FirstName:     req.FirstName,
		MiddleName:    req.MiddleName,
		LastName:      req.LastName,
		Sex:           req.Sex,
		BirthDate:     req.BirthDate,
		GradeLevel:    req.GradeLevel,
		SchoolYear:    req.SchoolYear,
		SectionID:     req.SectionID,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		Address:       req.Address,
		ElemSchool:    req.ElemSchool,
		ElemYearGrad:  req.ElemYearGrad,
		Active:        true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	if student.SectionID != nil {
		if err := s.enrollments.SyncSection(ctx, student.ID, student.SchoolYear, student.SectionID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync section enrollments")
		}
	}

	detail, err := s.repo.FindByID(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	s.notifier.StudentSaved(detail, "student.created")
	return detail, nil
}

// Update modifies an existing student. A section change re-syncs enrollments:
// missing ones are added for the new section's classes, non-finalized orphans
// are removed.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	exists, err := s.repo.ExistsByLRN(ctx, req.LRN, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate lrn")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "lrn already registered")
	}
	if err := s.checkSection(ctx, req.SectionID, req.GradeLevel, req.SchoolYear); err != nil {
		return nil, err
	}

	sectionChanged := !sectionEqual(detail.SectionID, req.SectionID) || detail.SchoolYear != req.SchoolYear

	student := detail.Student
	student.LRN = req.LRN
	student.FirstName = req.FirstName
	student.MiddleName = req.MiddleName
	student.LastName = req.LastName
	student.Sex = req.Sex
	student.BirthDate = req.BirthDate
	student.GradeLevel = req.GradeLevel
	student.SchoolYear = req.SchoolYear
	student.SectionID = req.SectionID
	student.GuardianName = req.GuardianName
	student.GuardianPhone = req.GuardianPhone
	student.Address = req.Address
	student.ElemSchool = req.ElemSchool
	student.ElemYearGrad = req.ElemYearGrad
	student.Active = req.Active
	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	if sectionChanged {
		if err := s.enrollments.SyncSection(ctx, student.ID, student.SchoolYear, student.SectionID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sync section enrollments")
		}
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	s.notifier.StudentSaved(updated, "student.updated")
	return updated, nil
}

// Delete removes a student. Dependent records cascade; the list and dashboard
// channels are notified.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.notifier.StudentDeleted(id)
	return nil
}

// checkSection verifies the assigned section exists and matches the student's
// grade level and school year.
func (s *StudentService) checkSection(ctx context.Context, sectionID *string, gradeLevel int, schoolYear string) error {
	if sectionID == nil {
		return nil
	}
	section, err := s.sections.FindByID(ctx, *sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.GradeLevel != gradeLevel {
		return appErrors.Clone(appErrors.ErrValidation, "section grade level does not match student")
	}
	if section.SchoolYear != schoolYear {
		return appErrors.Clone(appErrors.ErrValidation, "section school year does not match student")
	}
	return nil
}

func sectionEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
