package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jhs-sis-api/internal/models"
)

// ClinicRepository manages persistence for clinic visits.
type ClinicRepository struct {
	db *sqlx.DB
}

// NewClinicRepository constructs a ClinicRepository.
func NewClinicRepository(db *sqlx.DB) *ClinicRepository {
	return &ClinicRepository{db: db}
}

// List returns clinic visits matching the provided filters.
func (r *ClinicRepository) List(ctx context.Context, filter models.ClinicVisitFilter) ([]models.ClinicVisit, int, error) {
	base := "FROM clinic_visits"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("visit_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("visit_date < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_id, visit_date, reason, treatment, nurse_name, notes, created_at, updated_at
        %s ORDER BY visit_date DESC LIMIT %d OFFSET %d`, base, size, offset)

	var visits []models.ClinicVisit
	if err := r.db.SelectContext(ctx, &visits, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list clinic visits: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count clinic visits: %w", err)
	}
	return visits, total, nil
}

// FindByID fetches a clinic visit by ID.
func (r *ClinicRepository) FindByID(ctx context.Context, id string) (*models.ClinicVisit, error) {
	const query = `SELECT id, student_id, visit_date, reason, treatment, nurse_name, notes, created_at, updated_at
        FROM clinic_visits WHERE id = $1`
	var visit models.ClinicVisit
	if err := r.db.GetContext(ctx, &visit, query, id); err != nil {
		return nil, err
	}
	return &visit, nil
}

// Create inserts a new clinic visit.
func (r *ClinicRepository) Create(ctx context.Context, visit *models.ClinicVisit) error {
	if visit.ID == "" {
		visit.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if visit.CreatedAt.IsZero() {
		visit.CreatedAt = now
	}
	visit.UpdatedAt = now
	const query = `INSERT INTO clinic_visits (id, student_id, visit_date, reason, treatment, nurse_name, notes, created_at, updated_at)
        VALUES (:id, :student_id, :visit_date, :reason, :treatment, :nurse_name, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, visit); err != nil {
		return fmt.Errorf("create clinic visit: %w", err)
	}
	return nil
}

// Update modifies an existing clinic visit.
func (r *ClinicRepository) Update(ctx context.Context, visit *models.ClinicVisit) error {
	visit.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clinic_visits SET student_id = :student_id, visit_date = :visit_date, reason = :reason,
        treatment = :treatment, nurse_name = :nurse_name, notes = :notes, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, visit); err != nil {
		return fmt.Errorf("update clinic visit: %w", err)
	}
	return nil
}

// Delete removes a clinic visit.
func (r *ClinicRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM clinic_visits WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete clinic visit: %w", err)
	}
	return nil
}
