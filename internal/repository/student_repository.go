package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jhs-sis-api/internal/models"
)

const studentColumns = `s.id, s.lrn, s.first_name, s.middle_name, s.last_name, s.sex, s.birth_date,
        s.grade_level, s.school_year, s.section_id, s.guardian_name, s.guardian_phone, s.address,
        s.elem_school, s.elem_year_graduated, s.active, s.general_average, s.created_at, s.updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s LEFT JOIN sections sec ON sec.id = s.section_id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.GradeLevel != nil {
		conditions = append(conditions, fmt.Sprintf("s.grade_level = $%d", len(args)+1))
		args = append(args, *filter.GradeLevel)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("s.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.SchoolYear != "" {
		conditions = append(conditions, fmt.Sprintf("s.school_year = $%d", len(args)+1))
		args = append(args, filter.SchoolYear)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name) LIKE $%d OR LOWER(s.last_name) LIKE $%d OR s.lrn LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"last_name":   "s.last_name",
		"lrn":         "s.lrn",
		"grade_level": "s.grade_level",
		"created_at":  "s.created_at",
	}
	if sortBy == "" {
		sortBy = "last_name"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.last_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s, sec.name AS section_name %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		studentColumns, base, column, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student detail by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, sec.name AS section_name
        FROM students s
        LEFT JOIN sections sec ON sec.id = s.section_id
        WHERE s.id = $1`, studentColumns)
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByLRN checks if a student with the given LRN exists, optionally excluding an ID.
func (r *StudentRepository) ExistsByLRN(ctx context.Context, lrn string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE lrn = $1"
	args := []interface{}{lrn}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check lrn: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, lrn, first_name, middle_name, last_name, sex, birth_date,
        grade_level, school_year, section_id, guardian_name, guardian_phone, address,
        elem_school, elem_year_graduated, active, general_average, created_at, updated_at)
        VALUES (:id, :lrn, :first_name, :middle_name, :last_name, :sex, :birth_date,
        :grade_level, :school_year, :section_id, :guardian_name, :guardian_phone, :address,
        :elem_school, :elem_year_graduated, :active, :general_average, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET lrn = :lrn, first_name = :first_name, middle_name = :middle_name,
        last_name = :last_name, sex = :sex, birth_date = :birth_date, grade_level = :grade_level,
        school_year = :school_year, section_id = :section_id, guardian_name = :guardian_name,
        guardian_phone = :guardian_phone, address = :address, elem_school = :elem_school,
        elem_year_graduated = :elem_year_graduated, active = :active, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// UpdateGeneralAverage persists the cached derived average only.
func (r *StudentRepository) UpdateGeneralAverage(ctx context.Context, id string, average *float64) error {
	const query = `UPDATE students SET general_average = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, average, time.Now().UTC()); err != nil {
		return fmt.Errorf("update general average: %w", err)
	}
	return nil
}

// Delete removes a student. Dependent rows cascade at the schema level.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM students WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
