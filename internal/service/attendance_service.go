package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jhs-sis-api/internal/models"
	appErrors "github.com/noah-isme/jhs-sis-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	Exists(ctx context.Context, teacherClassID, studentID string, date time.Time, excludeID string) (bool, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	Update(ctx context.Context, record *models.AttendanceRecord) error
	Delete(ctx context.Context, id string) error
}

type attendanceNotifier interface {
	AttendanceChanged(studentID, eventType string, payload interface{})
}

// AttendanceRequest holds payload for creating and updating attendance records.
type AttendanceRequest struct {
	TeacherClassID string    `json:"teacher_class_id" validate:"required"`
	StudentID      string    `json:"student_id" validate:"required"`
	Date           time.Time `json:"date" validate:"required"`
	Status         string    `json:"status" validate:"required"`
	Quarter        int       `json:"quarter" validate:"required,min=1,max=4"`
	Remarks        string    `json:"remarks"`
}

// AttendanceService handles attendance use-cases.
type AttendanceService struct {
	repo      attendanceRepository
	notifier  attendanceNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, notifier attendanceNotifier, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// List returns attendance records and pagination metadata.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an attendance record by ID.
func (s *AttendanceService) Get(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	return record, nil
}

// Create marks a student's attendance for one class and date.
func (s *AttendanceService) Create(ctx context.Context, req AttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	exists, err := s.repo.Exists(ctx, req.TeacherClassID, req.StudentID, req.Date, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate attendance")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance is already recorded for this class and date")
	}
	record := &models.AttendanceRecord{
		TeacherClassID: req.TeacherClassID,
		StudentID:      req.StudentID,
		Date:           req.Date,
		Status:         models.AttendanceStatus(req.Status),
		Quarter:        req.Quarter,
		Remarks:        req.Remarks,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance record")
	}
	s.notifier.AttendanceChanged(record.StudentID, "attendance.created", record)
	return record, nil
}

// Update modifies an existing attendance record.
func (s *AttendanceService) Update(ctx context.Context, id string, req AttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	exists, err := s.repo.Exists(ctx, req.TeacherClassID, req.StudentID, req.Date, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate attendance")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance is already recorded for this class and date")
	}
	record.TeacherClassID = req.TeacherClassID
	record.StudentID = req.StudentID
	record.Date = req.Date
	record.Status = models.AttendanceStatus(req.Status)
	record.Quarter = req.Quarter
	record.Remarks = req.Remarks
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance record")
	}
	s.notifier.AttendanceChanged(record.StudentID, "attendance.updated", record)
	return record, nil
}

// Delete removes an attendance record.
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}
	s.notifier.AttendanceChanged(record.StudentID, "attendance.deleted", map[string]string{"id": id, "student_id": record.StudentID})
	return nil
}

func (s *AttendanceService) validateRequest(req AttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if !models.ValidAttendanceStatus(models.AttendanceStatus(req.Status)) {
		return appErrors.Clone(appErrors.ErrValidation, "status must be Present, Absent, Late or Excused")
	}
	return nil
}
