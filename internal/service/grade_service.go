package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/siga-dev/siga-api/internal/models"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

type gradeRepository interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Grade, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.Grade, error)
	Upsert(ctx context.Context, grade *models.Grade) error
}

type enrollmentReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
}

// RecordGradeRequest carries one grade entry. Value uses the 0-20 scale.
type RecordGradeRequest struct {
	EnrollmentID string            `json:"enrollment_id" validate:"required"`
	Assessment   models.Assessment `json:"assessment" validate:"required"`
	Value        float64           `json:"value" validate:"min=0,max=20"`
	Comment      *string           `json:"comment" validate:"omitempty,max=500"`
}

// GradeService records and reads assessment entries.
type GradeService struct {
	repo        gradeRepository
	enrollments enrollmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(repo gradeRepository, enrollments enrollmentReader, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, enrollments: enrollments, validator: validate, logger: logger}
}

// Record upserts the grade entry for one assessment slot. The enrollment
// must exist and be active.
func (s *GradeService) Record(ctx context.Context, req RecordGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if !models.ValidAssessment(req.Assessment) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown assessment %q", req.Assessment))
	}

	enrollment, err := s.enrollments.FindDetailByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is not active")
	}

	grade := &models.Grade{
		EnrollmentID: req.EnrollmentID,
		Assessment:   req.Assessment,
		Value:        req.Value,
		Comment:      req.Comment,
	}
	if err := s.repo.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}
	return grade, nil
}

// ByEnrollment returns the grade entries of one enrollment.
func (s *GradeService) ByEnrollment(ctx context.Context, enrollmentID string) ([]models.Grade, error) {
	if enrollmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment_id is required")
	}
	grades, err := s.repo.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// BySection returns the gradebook of a section's active enrollments.
func (s *GradeService) BySection(ctx context.Context, sectionID string) ([]models.Grade, error) {
	if sectionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section_id is required")
	}
	grades, err := s.repo.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section grades")
	}
	return grades, nil
}
