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

const teacherClassColumns = `tc.id, tc.subject_id, tc.section_id, tc.teacher_name, tc.school_year,
        tc.schedule, tc.created_at, tc.updated_at, sub.name AS subject_name, sec.name AS section_name`

// TeacherClassRepository manages persistence for scheduled course offerings.
type TeacherClassRepository struct {
	db *sqlx.DB
}

// NewTeacherClassRepository constructs a TeacherClassRepository.
func NewTeacherClassRepository(db *sqlx.DB) *TeacherClassRepository {
	return &TeacherClassRepository{db: db}
}

// List returns teacher classes matching the provided filters.
func (r *TeacherClassRepository) List(ctx context.Context, filter models.TeacherClassFilter) ([]models.TeacherClassDetail, int, error) {
	base := `FROM teacher_classes tc
        JOIN subjects sub ON sub.id = tc.subject_id
        JOIN sections sec ON sec.id = tc.section_id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("tc.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("tc.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.SchoolYear != "" {
		conditions = append(conditions, fmt.Sprintf("tc.school_year = $%d", len(args)+1))
		args = append(args, filter.SchoolYear)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(tc.teacher_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY sec.name, sub.name LIMIT %d OFFSET %d`,
		teacherClassColumns, base, size, offset)

	var classes []models.TeacherClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teacher classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teacher classes: %w", err)
	}
	return classes, total, nil
}

// FindByID fetches a teacher class with subject and section context.
func (r *TeacherClassRepository) FindByID(ctx context.Context, id string) (*models.TeacherClassDetail, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM teacher_classes tc
        JOIN subjects sub ON sub.id = tc.subject_id
        JOIN sections sec ON sec.id = tc.section_id
        WHERE tc.id = $1`, teacherClassColumns)
	var detail models.TeacherClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Exists checks the (subject, section, school_year) uniqueness constraint.
func (r *TeacherClassRepository) Exists(ctx context.Context, subjectID, sectionID, schoolYear string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM teacher_classes WHERE subject_id = $1 AND section_id = $2 AND school_year = $3"
	args := []interface{}{subjectID, sectionID, schoolYear}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher class uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new teacher class.
func (r *TeacherClassRepository) Create(ctx context.Context, class *models.TeacherClass) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	const query = `INSERT INTO teacher_classes (id, subject_id, section_id, teacher_name, school_year, schedule, created_at, updated_at)
        VALUES (:id, :subject_id, :section_id, :teacher_name, :school_year, :schedule, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create teacher class: %w", err)
	}
	return nil
}

// Update modifies an existing teacher class.
func (r *TeacherClassRepository) Update(ctx context.Context, class *models.TeacherClass) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teacher_classes SET subject_id = :subject_id, section_id = :section_id,
        teacher_name = :teacher_name, school_year = :school_year, schedule = :schedule, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update teacher class: %w", err)
	}
	return nil
}

// Delete removes a teacher class.
func (r *TeacherClassRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM teacher_classes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete teacher class: %w", err)
	}
	return nil
}

// Roster lists the students enrolled in the class.
func (r *TeacherClassRepository) Roster(ctx context.Context, classID string) ([]models.StudentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, sec.name AS section_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        LEFT JOIN sections sec ON sec.id = s.section_id
        WHERE e.teacher_class_id = $1
        ORDER BY s.last_name, s.first_name`, studentColumns)
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("class roster: %w", err)
	}
	return students, nil
}
