package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jhs-sis-api/internal/models"
)

func TestGradeSettingsRepositoryGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeSettingsRepository(db)

	rows := sqlmock.NewRows([]string{"id", "q1_open", "q2_open", "q3_open", "q4_open", "created_at", "updated_at"}).
		AddRow("gs1", true, false, false, false, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, q1_open, q2_open, q3_open, q4_open").
		WillReturnRows(rows)

	settings, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, settings.QuarterOpen(1))
	assert.False(t, settings.QuarterOpen(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeSettingsRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeSettingsRepository(db)

	mock.ExpectQuery("SELECT 1 FROM grade_settings").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err := repo.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeSettingsRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeSettingsRepository(db)

	mock.ExpectExec("INSERT INTO grade_settings").
		WillReturnResult(sqlmock.NewResult(1, 1))

	settings := &models.GradeSettings{Q1Open: true}
	err := repo.Create(context.Background(), settings)
	require.NoError(t, err)
	assert.NotEmpty(t, settings.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
