package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jhs-sis-api/internal/grading"
	"github.com/noah-isme/jhs-sis-api/internal/models"
)

const enrollmentColumns = `e.id, e.student_id, e.teacher_class_id, e.school_year, e.q1, e.q2, e.q3, e.q4,
        e.pre_final, e.is_finalized, e.created_at, e.updated_at,
        sub.name AS subject_name, sec.name AS section_name, tc.teacher_name,
        s.first_name || ' ' || s.last_name AS student_name`

const enrollmentJoins = `FROM enrollments e
        JOIN teacher_classes tc ON tc.id = e.teacher_class_id
        JOIN subjects sub ON sub.id = tc.subject_id
        JOIN sections sec ON sec.id = tc.section_id
        JOIN students s ON s.id = e.student_id`

// EnrollmentRepository manages persistence for enrollments and their derived
// grade fields. Grade writes and the student's general average land in one
// transaction so readers never observe a stale pre_final.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments matching the provided filters.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.TeacherClassID != "" {
		conditions = append(conditions, fmt.Sprintf("e.teacher_class_id = $%d", len(args)+1))
		args = append(args, filter.TeacherClassID)
	}
	if filter.SchoolYear != "" {
		conditions = append(conditions, fmt.Sprintf("e.school_year = $%d", len(args)+1))
		args = append(args, filter.SchoolYear)
	}
	if filter.Finalized != nil {
		conditions = append(conditions, fmt.Sprintf("e.is_finalized = $%d", len(args)+1))
		args = append(args, *filter.Finalized)
	}

	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY sub.name LIMIT %d OFFSET %d`,
		enrollmentColumns, enrollmentJoins, where, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", enrollmentJoins, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID fetches an enrollment with class context.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE e.id = $1`, enrollmentColumns, enrollmentJoins)
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

const subjectFinalsQuery = `SELECT e.id, sub.name AS subject_name, e.pre_final
        FROM enrollments e
        JOIN teacher_classes tc ON tc.id = e.teacher_class_id
        JOIN subjects sub ON sub.id = tc.subject_id
        WHERE e.student_id = $1 AND e.school_year = $2`

// ListSubjectFinals returns the per-subject derived grades for one student and
// school year, feeding the general average recomputation.
func (r *EnrollmentRepository) ListSubjectFinals(ctx context.Context, studentID, schoolYear string) ([]models.SubjectFinal, error) {
	var finals []models.SubjectFinal
	if err := r.db.SelectContext(ctx, &finals, subjectFinalsQuery, studentID, schoolYear); err != nil {
		return nil, fmt.Errorf("list subject finals: %w", err)
	}
	return finals, nil
}

// ListForStudentYear returns full enrollment details for the transcript view.
func (r *EnrollmentRepository) ListForStudentYear(ctx context.Context, studentID, schoolYear string) ([]models.EnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE e.student_id = $1 AND e.school_year = $2 ORDER BY sub.name`,
		enrollmentColumns, enrollmentJoins)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, schoolYear); err != nil {
		return nil, fmt.Errorf("list student year enrollments: %w", err)
	}
	return enrollments, nil
}

// Exists checks the (student, teacher_class) uniqueness constraint.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, teacherClassID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND teacher_class_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, teacherClassID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts the enrollment and applies the recomputed general average in
// one transaction.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment, average models.AverageUpdate) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO enrollments (id, student_id, teacher_class_id, school_year, q1, q2, q3, q4,
            pre_final, is_finalized, created_at, updated_at)
            VALUES (:id, :student_id, :teacher_class_id, :school_year, :q1, :q2, :q3, :q4,
            :pre_final, :is_finalized, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, enrollment); err != nil {
			return fmt.Errorf("create enrollment: %w", err)
		}
		return applyAverage(ctx, tx, average)
	})
}

// SaveScores persists the quarterly scores, the recomputed pre_final and the
// student's general average atomically.
func (r *EnrollmentRepository) SaveScores(ctx context.Context, enrollment *models.Enrollment, average models.AverageUpdate) error {
	enrollment.UpdatedAt = time.Now().UTC()
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		const query = `UPDATE enrollments SET q1 = :q1, q2 = :q2, q3 = :q3, q4 = :q4,
            pre_final = :pre_final, is_finalized = :is_finalized, updated_at = :updated_at
            WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, query, enrollment); err != nil {
			return fmt.Errorf("save enrollment scores: %w", err)
		}
		return applyAverage(ctx, tx, average)
	})
}

// SetFinalized toggles the finalized flag.
func (r *EnrollmentRepository) SetFinalized(ctx context.Context, id string, finalized bool) error {
	const query = `UPDATE enrollments SET is_finalized = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, finalized, time.Now().UTC()); err != nil {
		return fmt.Errorf("set enrollment finalized: %w", err)
	}
	return nil
}

// Delete removes the enrollment and applies the recomputed general average in
// one transaction.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string, average models.AverageUpdate) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete enrollment: %w", err)
		}
		return applyAverage(ctx, tx, average)
	})
}

// SyncSection reconciles a student's enrollments with the teacher classes of
// the assigned section: missing enrollments are inserted with blank grades,
// non-finalized enrollments for classes outside the section are removed.
// A nil section removes every non-finalized enrollment for the year. The
// student's general average is recomputed from the post-sync rows and
// persisted in the same transaction.
func (r *EnrollmentRepository) SyncSection(ctx context.Context, studentID, schoolYear string, sectionID *string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		if sectionID == nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM enrollments WHERE student_id = $1 AND school_year = $2 AND NOT is_finalized`,
				studentID, schoolYear); err != nil {
				return fmt.Errorf("clear section enrollments: %w", err)
			}
			return refreshAverage(ctx, tx, studentID, schoolYear)
		}

		now := time.Now().UTC()
		const insert = `INSERT INTO enrollments (id, student_id, teacher_class_id, school_year, is_finalized, created_at, updated_at)
            SELECT uuid_generate_v4(), $1, tc.id, $2, false, $3, $3
            FROM teacher_classes tc
            WHERE tc.section_id = $4 AND tc.school_year = $2
              AND NOT EXISTS (
                SELECT 1 FROM enrollments e WHERE e.student_id = $1 AND e.teacher_class_id = tc.id
              )`
		if _, err := tx.ExecContext(ctx, insert, studentID, schoolYear, now, *sectionID); err != nil {
			return fmt.Errorf("enroll into section classes: %w", err)
		}

		const prune = `DELETE FROM enrollments e
            USING teacher_classes tc
            WHERE e.teacher_class_id = tc.id
              AND e.student_id = $1 AND e.school_year = $2 AND NOT e.is_finalized
              AND (tc.section_id <> $3 OR tc.school_year <> $2)`
		if _, err := tx.ExecContext(ctx, prune, studentID, schoolYear, *sectionID); err != nil {
			return fmt.Errorf("prune orphaned enrollments: %w", err)
		}
		return refreshAverage(ctx, tx, studentID, schoolYear)
	})
}

// refreshAverage recomputes the student's general average from the enrollment
// rows visible in the transaction and persists it.
func refreshAverage(ctx context.Context, tx *sqlx.Tx, studentID, schoolYear string) error {
	var rows []models.SubjectFinal
	if err := tx.SelectContext(ctx, &rows, subjectFinalsQuery, studentID, schoolYear); err != nil {
		return fmt.Errorf("load subject finals: %w", err)
	}
	finals := make([]grading.SubjectFinal, 0, len(rows))
	for _, row := range rows {
		finals = append(finals, grading.SubjectFinal{Subject: row.SubjectName, Final: row.PreFinal})
	}
	return applyAverage(ctx, tx, models.AverageUpdate{
		StudentID: studentID,
		Value:     grading.GeneralAverage(finals),
		Apply:     true,
	})
}

func (r *EnrollmentRepository) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func applyAverage(ctx context.Context, tx *sqlx.Tx, average models.AverageUpdate) error {
	if !average.Apply {
		return nil
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE students SET general_average = $2, updated_at = $3 WHERE id = $1`,
		average.StudentID, average.Value, time.Now().UTC()); err != nil {
		return fmt.Errorf("apply general average: %w", err)
	}
	return nil
}
