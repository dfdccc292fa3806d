package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
)

type gradeSettingsRepository interface {
	Get(ctx context.Context) (*models.GradeSettings, error)
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context, settings *models.GradeSettings) error
	Update(ctx context.Context, settings *models.GradeSettings) error
}

// CreateGradeSettingsRequest holds the initial quarter flags. Q1 defaults to
// open when the payload omits it.
type CreateGradeSettingsRequest struct {
	Q1Open *bool `json:"q1_open"`
	Q2Open bool  `json:"q2_open"`
	Q3Open bool  `json:"q3_open"`
	Q4Open bool  `json:"q4_open"`
}

// UpdateGradeSettingsRequest carries a partial quarter-flag update.
type UpdateGradeSettingsRequest struct {
	Q1Open *bool `json:"q1_open"`
	Q2Open *bool `json:"q2_open"`
	Q3Open *bool `json:"q3_open"`
	Q4Open *bool `json:"q4_open"`
}

// GradeSettingsService manages the singleton grade entry gate.
type GradeSettingsService struct {
	repo      gradeSettingsRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeSettingsService constructs the grade settings service.
func NewGradeSettingsService(repo gradeSettingsRepository, validate *validator.Validate, logger *zap.Logger) *GradeSettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeSettingsService{repo: repo, validator: validate, logger: logger}
}

// Get returns the settings row, or not-found when none was created yet.
func (s *GradeSettingsService) Get(ctx context.Context) (*models.GradeSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade settings are not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade settings")
	}
	return settings, nil
}

// Create inserts the singleton row; a second create is rejected.
func (s *GradeSettingsService) Create(ctx context.Context, req CreateGradeSettingsRequest) (*models.GradeSettings, error) {
	exists, err := s.repo.Exists(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate grade settings")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "grade settings already exist")
	}
	q1 := true
	if req.Q1Open != nil {
		q1 = *req.Q1Open
	}
	settings := &models.GradeSettings{
		Q1Open: q1,
		Q2Open: req.Q2Open,
		Q3Open: req.Q3Open,
		Q4Open: req.Q4Open,
	}
	if err := s.repo.Create(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade settings")
	}
	return settings, nil
}

// Update applies a partial flag update to the singleton row.
func (s *GradeSettingsService) Update(ctx context.Context, req UpdateGradeSettingsRequest) (*models.GradeSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade settings are not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade settings")
	}
	if req.Q1Open != nil {
		settings.Q1Open = *req.Q1Open
	}
	if req.Q2Open != nil {
		settings.Q2Open = *req.Q2Open
	}
	if req.Q3Open != nil {
		settings.Q3Open = *req.Q3Open
	}
	if req.Q4Open != nil {
		settings.Q4Open = *req.Q4Open
	}
	if err := s.repo.Update(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade settings")
	}
	return settings, nil
}
