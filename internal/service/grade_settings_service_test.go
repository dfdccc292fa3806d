package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
)

type mockGradeSettingsRepo struct {
	settings *models.GradeSettings
	created  *models.GradeSettings
	updated  *models.GradeSettings
}

func (m *mockGradeSettingsRepo) Get(ctx context.Context) (*models.GradeSettings, error) {
	if m.settings == nil {
		return nil, sql.ErrNoRows
	}
	return m.settings, nil
}

func (m *mockGradeSettingsRepo) Exists(ctx context.Context) (bool, error) {
	return m.settings != nil, nil
}

func (m *mockGradeSettingsRepo) Create(ctx context.Context, settings *models.GradeSettings) error {
	m.settings = settings
	m.created = settings
	return nil
}

func (m *mockGradeSettingsRepo) Update(ctx context.Context, settings *models.GradeSettings) error {
	m.settings = settings
	m.updated = settings
	return nil
}

func TestGradeSettingsServiceCreateDefaultsQ1Open(t *testing.T) {
	repo := &mockGradeSettingsRepo{}
	svc := NewGradeSettingsService(repo, validator.New(), zap.NewNop())

	settings, err := svc.Create(context.Background(), CreateGradeSettingsRequest{})
	require.NoError(t, err)
	assert.True(t, settings.Q1Open)
	assert.False(t, settings.Q2Open)
	assert.False(t, settings.Q3Open)
	assert.False(t, settings.Q4Open)
}

func TestGradeSettingsServiceSecondCreateRejected(t *testing.T) {
	repo := &mockGradeSettingsRepo{settings: &models.GradeSettings{ID: "gs1", Q1Open: true}}
	svc := NewGradeSettingsService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateGradeSettingsRequest{})
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestGradeSettingsServiceGetMissing(t *testing.T) {
	svc := NewGradeSettingsService(&mockGradeSettingsRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background())
	require.Error(t, err)
	appErr, ok := err.(*appErrors.Error)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestGradeSettingsServiceUpdatePartial(t *testing.T) {
	repo := &mockGradeSettingsRepo{settings: &models.GradeSettings{ID: "gs1", Q1Open: true}}
	svc := NewGradeSettingsService(repo, validator.New(), zap.NewNop())

	open := true
	settings, err := svc.Update(context.Background(), UpdateGradeSettingsRequest{Q2Open: &open})
	require.NoError(t, err)
	assert.True(t, settings.Q1Open)
	assert.True(t, settings.Q2Open)
	assert.False(t, settings.Q3Open)
	require.NotNil(t, repo.updated)
}
