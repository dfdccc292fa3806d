package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jhs-sis-api/internal/models"
)

// GradeSettingsRepository manages the singleton grade settings row.
type GradeSettingsRepository struct {
	db *sqlx.DB
}

// NewGradeSettingsRepository constructs a GradeSettingsRepository.
func NewGradeSettingsRepository(db *sqlx.DB) *GradeSettingsRepository {
	return &GradeSettingsRepository{db: db}
}

// Get returns the settings row, or sql.ErrNoRows when none exists.
func (r *GradeSettingsRepository) Get(ctx context.Context) (*models.GradeSettings, error) {
	const query = `SELECT id, q1_open, q2_open, q3_open, q4_open, created_at, updated_at
        FROM grade_settings LIMIT 1`
	var settings models.GradeSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Exists reports whether a settings row already exists.
func (r *GradeSettingsRepository) Exists(ctx context.Context) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM grade_settings LIMIT 1`); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check grade settings: %w", err)
	}
	return true, nil
}

// Create inserts the singleton settings row.
func (r *GradeSettingsRepository) Create(ctx context.Context, settings *models.GradeSettings) error {
	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now
	const query = `INSERT INTO grade_settings (id, q1_open, q2_open, q3_open, q4_open, created_at, updated_at)
        VALUES (:id, :q1_open, :q2_open, :q3_open, :q4_open, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("create grade settings: %w", err)
	}
	return nil
}

// Update modifies the settings row.
func (r *GradeSettingsRepository) Update(ctx context.Context, settings *models.GradeSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grade_settings SET q1_open = :q1_open, q2_open = :q2_open,
        q3_open = :q3_open, q4_open = :q4_open, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("update grade settings: %w", err)
	}
	return nil
}
