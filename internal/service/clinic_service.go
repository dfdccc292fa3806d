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

type clinicRepository interface {
	List(ctx context.Context, filter models.ClinicVisitFilter) ([]models.ClinicVisit, int, error)
	FindByID(ctx context.Context, id string) (*models.ClinicVisit, error)
	Create(ctx context.Context, visit *models.ClinicVisit) error
	Update(ctx context.Context, visit *models.ClinicVisit) error
	Delete(ctx context.Context, id string) error
}

type clinicNotifier interface {
	ClinicChanged(studentID, eventType string, payload interface{})
}

// ClinicVisitRequest holds payload for creating and updating clinic visits.
type ClinicVisitRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	VisitDate time.Time `json:"visit_date" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
	Treatment string    `json:"treatment"`
	NurseName string    `json:"nurse_name"`
	Notes     string    `json:"notes"`
}

// ClinicService handles clinic visit use-cases.
type ClinicService struct {
	repo      clinicRepository
	notifier  clinicNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClinicService constructs the clinic service.
func NewClinicService(repo clinicRepository, notifier clinicNotifier, validate *validator.Validate, logger *zap.Logger) *ClinicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClinicService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// List returns clinic visits and pagination metadata.
func (s *ClinicService) List(ctx context.Context, filter models.ClinicVisitFilter) ([]models.ClinicVisit, *models.Pagination, error) {
	visits, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clinic visits")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return visits, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a clinic visit by ID.
func (s *ClinicService) Get(ctx context.Context, id string) (*models.ClinicVisit, error) {
	visit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "clinic visit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clinic visit")
	}
	return visit, nil
}

// Create logs a new clinic visit.
func (s *ClinicService) Create(ctx context.Context, req ClinicVisitRequest) (*models.ClinicVisit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clinic visit payload")
	}
	visit := &models.ClinicVisit{
		StudentID: req.StudentID,
		VisitDate: req.VisitDate,
		Reason:    req.Reason,
		Treatment: req.Treatment,
		NurseName: req.NurseName,
		Notes:     req.Notes,
	}
	if err := s.repo.Create(ctx, visit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create clinic visit")
	}
	s.notifier.ClinicChanged(visit.StudentID, "clinic.created", visit)
	return visit, nil
}

// Update modifies an existing clinic visit.
func (s *ClinicService) Update(ctx context.Context, id string, req ClinicVisitRequest) (*models.ClinicVisit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clinic visit payload")
	}
	visit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "clinic visit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clinic visit")
	}
	visit.StudentID = req.StudentID
	visit.VisitDate = req.VisitDate
	visit.Reason = req.Reason
	visit.Treatment = req.Treatment
	visit.NurseName = req.NurseName
	visit.Notes = req.Notes
	if err := s.repo.Update(ctx, visit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update clinic visit")
	}
	s.notifier.ClinicChanged(visit.StudentID, "clinic.updated", visit)
	return visit, nil
}

// Delete removes a clinic visit.
func (s *ClinicService) Delete(ctx context.Context, id string) error {
	visit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "clinic visit not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clinic visit")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete clinic visit")
	}
	s.notifier.ClinicChanged(visit.StudentID, "clinic.deleted", map[string]string{"id": id, "student_id": visit.StudentID})
	return nil
}
