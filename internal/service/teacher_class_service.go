package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
)

type teacherClassRepository interface {
	List(ctx context.Context, filter models.TeacherClassFilter) ([]models.TeacherClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.TeacherClassDetail, error)
	Exists(ctx context.Context, subjectID, sectionID, schoolYear string, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.TeacherClass) error
	Update(ctx context.Context, class *models.TeacherClass) error
	Delete(ctx context.Context, id string) error
	Roster(ctx context.Context, classID string) ([]models.StudentDetail, error)
}

type classSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// TeacherClassRequest holds payload for creating and updating teacher classes.
type TeacherClassRequest struct {
	SubjectID   string `json:"subject_id" validate:"required"`
	SectionID   string `json:"section_id" validate:"required"`
	TeacherName string `json:"teacher_name" validate:"required"`
	SchoolYear  string `json:"school_year" validate:"required"`
	Schedule    string `json:"schedule"`
}

// TeacherClassService handles teacher class use-cases.
type TeacherClassService struct {
	repo      teacherClassRepository
	subjects  classSubjectReader
	sections  sectionReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherClassService constructs the teacher class service.
func NewTeacherClassService(repo teacherClassRepository, subjects classSubjectReader, sections sectionReader, validate *validator.Validate, logger *zap.Logger) *TeacherClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherClassService{
		repo:      repo,
		subjects:  subjects,
		sections:  sections,
		validator: validate,
		logger:    logger,
	}
}

// List returns teacher classes and pagination metadata.
func (s *TeacherClassService) List(ctx context.Context, filter models.TeacherClassFilter) ([]models.TeacherClassDetail, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a teacher class by ID.
func (s *TeacherClassService) Get(ctx context.Context, id string) (*models.TeacherClassDetail, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher class")
	}
	return class, nil
}

// Roster returns the students enrolled in the class.
func (s *TeacherClassService) Roster(ctx context.Context, id string) ([]models.StudentDetail, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher class")
	}
	students, err := s.repo.Roster(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class roster")
	}
	return students, nil
}

// Create registers a new teacher class.
func (s *TeacherClassService) Create(ctx context.Context, req TeacherClassRequest) (*models.TeacherClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher class payload")
	}
	if err := s.checkRefs(ctx, req); err != nil {
		return nil, err
	}
	exists, err := s.repo.Exists(ctx, req.SubjectID, req.SectionID, req.SchoolYear, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate teacher class")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject is already taught in this section for the school year")
	}
	class := &models.TeacherClass{
		SubjectID:   req.SubjectID,
		SectionID:   req.SectionID,
		TeacherName: req.TeacherName,
		SchoolYear:  req.SchoolYear,
		Schedule:    req.Schedule,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher class")
	}
	return s.Get(ctx, class.ID)
}

// Update modifies an existing teacher class.
func (s *TeacherClassService) Update(ctx context.Context, id string, req TeacherClassRequest) (*models.TeacherClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher class payload")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher class")
	}
	if err := s.checkRefs(ctx, req); err != nil {
		return nil, err
	}
	exists, err := s.repo.Exists(ctx, req.SubjectID, req.SectionID, req.SchoolYear, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate teacher class")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject is already taught in this section for the school year")
	}
	class := detail.TeacherClass
	class.SubjectID = req.SubjectID
	class.SectionID = req.SectionID
	class.TeacherName = req.TeacherName
	class.SchoolYear = req.SchoolYear
	class.Schedule = req.Schedule
	if err := s.repo.Update(ctx, &class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher class")
	}
	return s.Get(ctx, id)
}

// Delete removes a teacher class.
func (s *TeacherClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher class")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher class")
	}
	return nil
}

func (s *TeacherClassService) checkRefs(ctx context.Context, req TeacherClassRequest) error {
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	section, err := s.sections.FindByID(ctx, req.SectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section.SchoolYear != req.SchoolYear {
		return appErrors.Clone(appErrors.ErrValidation, "section school year does not match class")
	}
	return nil
}
