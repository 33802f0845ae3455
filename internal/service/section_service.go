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

type sectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
	FindDetailByID(ctx context.Context, id string) (*models.SectionDetail, error)
	ListAvailable(ctx context.Context, courseID, periodID string) ([]models.SectionDetail, error)
	ListByProfessor(ctx context.Context, professorID, periodID string) ([]models.SectionDetail, error)
	ExistsByKey(ctx context.Context, courseID string, number int, periodID, excludeID string) (bool, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, id string) error
	CountActiveEnrollments(ctx context.Context, id string) (int, error)
}

type courseExistenceReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateSectionRequest carries a new section payload.
type CreateSectionRequest struct {
	CourseID    string  `json:"course_id" validate:"required"`
	PeriodID    string  `json:"period_id" validate:"required"`
	Number      int     `json:"number" validate:"required,min=1,max=99"`
	ProfessorID *string `json:"professor_id"`
	Room        *string `json:"room" validate:"omitempty,max=30"`
	Capacity    int     `json:"capacity" validate:"omitempty,min=1,max=200"`
}

// UpdateSectionRequest carries a partial section update.
type UpdateSectionRequest struct {
	ProfessorID *string               `json:"professor_id"`
	Room        *string               `json:"room" validate:"omitempty,max=30"`
	Capacity    *int                  `json:"capacity" validate:"omitempty,min=1,max=200"`
	Status      *models.SectionStatus `json:"status" validate:"omitempty,oneof=ACTIVE CLOSED"`
}

// SectionService manages per-period course offerings.
type SectionService struct {
	repo      sectionRepository
	courses   courseExistenceReader
	periods   activePeriodReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs SectionService.
func NewSectionService(repo sectionRepository, courses courseExistenceReader, periods activePeriodReader,
	validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, courses: courses, periods: periods, validator: validate, logger: logger}
}

// List returns section details with pagination metadata.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, *models.Pagination, error) {
	sections, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetByID loads one section with contextual info.
func (s *SectionService) GetByID(ctx context.Context, id string) (*models.SectionDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return detail, nil
}

// Available lists the active sections of a course within a period. An
// empty periodID defaults to the active period.
func (s *SectionService) Available(ctx context.Context, courseID, periodID string) ([]models.SectionDetail, error) {
	if courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_id is required")
	}
	if periodID == "" {
		active, err := s.periods.FindActive(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "no active period")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active period")
		}
		periodID = active.ID
	}
	sections, err := s.repo.ListAvailable(ctx, courseID, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available sections")
	}
	return sections, nil
}

// ByProfessor lists the sections a professor teaches, optionally scoped to
// one period.
func (s *SectionService) ByProfessor(ctx context.Context, professorID, periodID string) ([]models.SectionDetail, error) {
	if professorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "professor_id is required")
	}
	sections, err := s.repo.ListByProfessor(ctx, professorID, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list professor sections")
	}
	return sections, nil
}

// Create registers a new section for a course and period.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.SectionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.periods.FindByID(ctx, req.PeriodID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}

	exists, err := s.repo.ExistsByKey(ctx, req.CourseID, req.Number, req.PeriodID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate section")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "section number already used for this course and period")
	}

	section := &models.Section{
		CourseID:    req.CourseID,
		PeriodID:    req.PeriodID,
		Number:      req.Number,
		ProfessorID: req.ProfessorID,
		Room:        req.Room,
		Capacity:    req.Capacity,
	}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return s.GetByID(ctx, section.ID)
}

// Update modifies instructor assignment, room, capacity or status.
func (s *SectionService) Update(ctx context.Context, id string, req UpdateSectionRequest) (*models.SectionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	if req.ProfessorID != nil {
		if *req.ProfessorID == "" {
			section.ProfessorID = nil
		} else {
			section.ProfessorID = req.ProfessorID
		}
	}
	if req.Room != nil {
		section.Room = req.Room
	}
	if req.Capacity != nil {
		enrolled, err := s.repo.CountActiveEnrollments(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate section")
		}
		if *req.Capacity < enrolled {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "capacity below current enrollment")
		}
		section.Capacity = *req.Capacity
	}
	if req.Status != nil {
		section.Status = *req.Status
	}

	if err := s.repo.Update(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
	}
	return s.GetByID(ctx, id)
}

// Delete removes a section with no active enrollments.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	enrolled, err := s.repo.CountActiveEnrollments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate section")
	}
	if enrolled > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "section has active enrollments")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	return nil
}
