package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/siga-dev/siga-api/internal/models"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

type transcriptRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.TranscriptEntry, error)
	Create(ctx context.Context, record *models.TranscriptRecord) error
}

// CorrectionRequest carries one administrative ledger correction.
type CorrectionRequest struct {
	StudentID   string         `json:"student_id" validate:"required"`
	CourseID    string         `json:"course_id" validate:"required"`
	PeriodLabel string         `json:"period_label" validate:"required"`
	FinalGrade  *float64       `json:"final_grade" validate:"omitempty,min=0,max=20"`
	Outcome     models.Outcome `json:"outcome" validate:"required,oneof=PASSED FAILED REPEAT REMEDIAL"`
}

// TranscriptService reads the completed-course ledger and applies
// administrative corrections.
type TranscriptService struct {
	repo      transcriptRepository
	students  studentReader
	courses   courseExistenceReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTranscriptService constructs TranscriptService.
func NewTranscriptService(repo transcriptRepository, students studentReader, courses courseExistenceReader,
	validate *validator.Validate, logger *zap.Logger) *TranscriptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{repo: repo, students: students, courses: courses, validator: validate, logger: logger}
}

// ByStudent returns the student's full ledger, newest period first.
func (s *TranscriptService) ByStudent(ctx context.Context, studentID string) ([]models.TranscriptEntry, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	entries, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transcript")
	}
	return entries, nil
}

// Correct appends one ledger row outside the closure flow. Existing rows
// are left untouched.
func (s *TranscriptService) Correct(ctx context.Context, req CorrectionRequest) (*models.TranscriptRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid correction payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	record := &models.TranscriptRecord{
		StudentID:   req.StudentID,
		CourseID:    req.CourseID,
		PeriodLabel: req.PeriodLabel,
		FinalGrade:  req.FinalGrade,
		Outcome:     req.Outcome,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record correction")
	}
	return record, nil
}
