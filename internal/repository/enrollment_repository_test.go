package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jhs-sis-api/internal/models"
)

func TestEnrollmentRepositorySaveScoresAppliesAverage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE enrollments SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE students SET general_average").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	avg := 90.12
	enrollment := &models.Enrollment{ID: "e1", StudentID: "s1"}
	err := repo.SaveScores(context.Background(), enrollment, models.AverageUpdate{
		StudentID: "s1",
		Value:     &avg,
		Apply:     true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySaveScoresSkipsAverage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE enrollments SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{ID: "e1", StudentID: "s1"}
	err := repo.SaveScores(context.Background(), enrollment, models.AverageUpdate{StudentID: "s1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDeleteRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM enrollments").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "e1", models.AverageUpdate{})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySyncSectionNilSection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM enrollments WHERE student_id").
		WithArgs("s1", "2025-2026").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery("SELECT e.id, sub.name AS subject_name, e.pre_final").
		WithArgs("s1", "2025-2026").
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_name", "pre_final"}))
	mock.ExpectExec("UPDATE students SET general_average").
		WithArgs("s1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SyncSection(context.Background(), "s1", "2025-2026", nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySyncSectionInsertsAndPrunes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	section := "sec-2"
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs("s1", "2025-2026", sqlmock.AnyArg(), section).
		WillReturnResult(sqlmock.NewResult(0, 8))
	mock.ExpectExec("DELETE FROM enrollments e").
		WithArgs("s1", "2025-2026", section).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("SELECT e.id, sub.name AS subject_name, e.pre_final").
		WithArgs("s1", "2025-2026").
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_name", "pre_final"}))
	mock.ExpectExec("UPDATE students SET general_average").
		WithArgs("s1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SyncSection(context.Background(), "s1", "2025-2026", &section)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySyncSectionNullsAverageWhenSubjectDropped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	// After the prune the student no longer has a Filipino enrollment, so the
	// stored general average must be cleared, not left at its old value.
	section := "sec-2"
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs("s1", "2025-2026", sqlmock.AnyArg(), section).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM enrollments e").
		WithArgs("s1", "2025-2026", section).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT e.id, sub.name AS subject_name, e.pre_final").
		WithArgs("s1", "2025-2026").
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject_name", "pre_final"}).
			AddRow("e1", "English", 90.0).
			AddRow("e2", "Mathematics", 88.0))
	mock.ExpectExec("UPDATE students SET general_average").
		WithArgs("s1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SyncSection(context.Background(), "s1", "2025-2026", &section)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListSubjectFinals(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	preFinal := 86.5
	rows := sqlmock.NewRows([]string{"id", "subject_name", "pre_final"}).
		AddRow("e1", "Mathematics", preFinal).
		AddRow("e2", "Science", nil)
	mock.ExpectQuery("SELECT e.id, sub.name AS subject_name, e.pre_final").
		WithArgs("s1", "2025-2026").
		WillReturnRows(rows)

	finals, err := repo.ListSubjectFinals(context.Background(), "s1", "2025-2026")
	require.NoError(t, err)
	require.Len(t, finals, 2)
	assert.Equal(t, "Mathematics", finals[0].SubjectName)
	require.NotNil(t, finals[0].PreFinal)
	assert.InDelta(t, 86.5, *finals[0].PreFinal, 0.001)
	assert.Nil(t, finals[1].PreFinal)
	assert.NoError(t, mock.ExpectationsWereMet())
}
