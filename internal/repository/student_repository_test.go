package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jhs-sis-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "lrn", "first_name", "middle_name", "last_name", "sex", "birth_date",
		"grade_level", "school_year", "section_id", "guardian_name", "guardian_phone", "address",
		"elem_school", "elem_year_graduated", "active", "general_average", "created_at", "updated_at",
		"section_name",
	})
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := studentRows().
		AddRow("s1", "109000000001", "Juan", nil, "Dela Cruz", "M", time.Now(),
			7, "2025-2026", nil, "Maria Dela Cruz", "0917", "Street",
			"Central Elem", 2025, true, nil, time.Now(), time.Now(), nil)
	mock.ExpectQuery("SELECT .* FROM students s LEFT JOIN sections sec").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM students s").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	grade := 8
	mock.ExpectQuery("SELECT .* FROM students s LEFT JOIN sections sec").
		WithArgs(grade, "2025-2026", "%reyes%").
		WillReturnRows(studentRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM students s").
		WithArgs(grade, "2025-2026", "%reyes%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.StudentFilter{
		GradeLevel: &grade,
		SchoolYear: "2025-2026",
		Search:     "Reyes",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{
		LRN:        "109000000001",
		FirstName:  "Juan",
		LastName:   "Dela Cruz",
		Sex:        "M",
		BirthDate:  time.Now(),
		GradeLevel: 7,
		SchoolYear: "2025-2026",
		Active:     true,
	}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateGeneralAverage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	avg := 88.75
	mock.ExpectExec("UPDATE students SET general_average").
		WithArgs("s1", &avg, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateGeneralAverage(context.Background(), "s1", &avg)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
