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

// BehaviorRepository manages persistence for behavior records.
type BehaviorRepository struct {
	db *sqlx.DB
}

// NewBehaviorRepository constructs a BehaviorRepository.
func NewBehaviorRepository(db *sqlx.DB) *BehaviorRepository {
	return &BehaviorRepository{db: db}
}

// List returns behavior records matching the provided filters.
func (r *BehaviorRepository) List(ctx context.Context, filter models.BehaviorFilter) ([]models.BehaviorRecord, int, error) {
	base := "FROM behavior_records"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Resolved != nil {
		conditions = append(conditions, fmt.Sprintf("resolved = $%d", len(args)+1))
		args = append(args, *filter.Resolved)
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

	query := fmt.Sprintf(`SELECT id, student_id, date, category, description, action_taken, recorded_by, resolved, created_at, updated_at
        %s ORDER BY date DESC LIMIT %d OFFSET %d`, base, size, offset)

	var records []models.BehaviorRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list behavior records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count behavior records: %w", err)
	}
	return records, total, nil
}

// FindByID fetches a behavior record by ID.
func (r *BehaviorRepository) FindByID(ctx context.Context, id string) (*models.BehaviorRecord, error) {
	const query = `SELECT id, student_id, date, category, description, action_taken, recorded_by, resolved, created_at, updated_at
        FROM behavior_records WHERE id = $1`
	var record models.BehaviorRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a new behavior record.
func (r *BehaviorRepository) Create(ctx context.Context, record *models.BehaviorRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO behavior_records (id, student_id, date, category, description, action_taken, recorded_by, resolved, created_at, updated_at)
        VALUES (:id, :student_id, :date, :category, :description, :action_taken, :recorded_by, :resolved, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create behavior record: %w", err)
	}
	return nil
}

// Update modifies an existing behavior record.
func (r *BehaviorRepository) Update(ctx context.Context, record *models.BehaviorRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE behavior_records SET student_id = :student_id, date = :date, category = :category,
        description = :description, action_taken = :action_taken, recorded_by = :recorded_by,
        resolved = :resolved, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update behavior record: %w", err)
	}
	return nil
}

// Delete removes a behavior record.
func (r *BehaviorRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM behavior_records WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete behavior record: %w", err)
	}
	return nil
}
