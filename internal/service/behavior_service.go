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

type behaviorRepository interface {
	List(ctx context.Context, filter models.BehaviorFilter) ([]models.BehaviorRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.BehaviorRecord, error)
	Create(ctx context.Context, record *models.BehaviorRecord) error
	Update(ctx context.Context, record *models.BehaviorRecord) error
	Delete(ctx context.Context, id string) error
}

type behaviorNotifier interface {
	BehaviorChanged(studentID, eventType string, payload interface{})
}

// BehaviorRequest holds payload for creating and updating behavior records.
type BehaviorRequest struct {
	StudentID   string    `json:"student_id" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Category    string    `json:"category" validate:"required"`
	Description string    `json:"description" validate:"required"`
	ActionTaken string    `json:"action_taken"`
	RecordedBy  string    `json:"recorded_by"`
	Resolved    bool      `json:"resolved"`
}

// BehaviorService handles behavior record use-cases.
type BehaviorService struct {
	repo      behaviorRepository
	notifier  behaviorNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBehaviorService constructs the behavior service.
func NewBehaviorService(repo behaviorRepository, notifier behaviorNotifier, validate *validator.Validate, logger *zap.Logger) *BehaviorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BehaviorService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// List returns behavior records and pagination metadata.
func (s *BehaviorService) List(ctx context.Context, filter models.BehaviorFilter) ([]models.BehaviorRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list behavior records")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a behavior record by ID.
func (s *BehaviorService) Get(ctx context.Context, id string) (*models.BehaviorRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "behavior record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load behavior record")
	}
	return record, nil
}

// Create logs a new behavior record.
func (s *BehaviorService) Create(ctx context.Context, req BehaviorRequest) (*models.BehaviorRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid behavior payload")
	}
	record := &models.BehaviorRecord{
		StudentID:   req.StudentID,
		Date:        req.Date,
		Category:    req.Category,
		Description: req.Description,
		ActionTaken: req.ActionTaken,
		RecordedBy:  req.RecordedBy,
		Resolved:    req.Resolved,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create behavior record")
	}
	s.notifier.BehaviorChanged(record.StudentID, "behavior.created", record)
	return record, nil
}

// Update modifies an existing behavior record.
func (s *BehaviorService) Update(ctx context.Context, id string, req BehaviorRequest) (*models.BehaviorRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid behavior payload")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "behavior record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load behavior record")
	}
	record.StudentID = req.StudentID
	record.Date = req.Date
	record.Category = req.Category
	record.Description = req.Description
	record.ActionTaken = req.ActionTaken
	record.RecordedBy = req.RecordedBy
	record.Resolved = req.Resolved
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update behavior record")
	}
	s.notifier.BehaviorChanged(record.StudentID, "behavior.updated", record)
	return record, nil
}

// Delete removes a behavior record.
func (s *BehaviorService) Delete(ctx context.Context, id string) error {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "behavior record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load behavior record")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete behavior record")
	}
	s.notifier.BehaviorChanged(record.StudentID, "behavior.deleted", map[string]string{"id": id, "student_id": record.StudentID})
	return nil
}
