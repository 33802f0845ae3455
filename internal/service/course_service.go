package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/siga-dev/siga-api/internal/models"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListByProgramSemester(ctx context.Context, program string, semester int) ([]models.Course, error)
	ExistsByKey(ctx context.Context, code, program string, semester int, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	CountSections(ctx context.Context, id string) (int, error)
}

// CreateCourseRequest carries a new course payload. Requisites uses the
// compact "/"-separated expression ("MAT101/CO-FIS102").
type CreateCourseRequest struct {
	Code       string `json:"code" validate:"required,min=2,max=20"`
	Name       string `json:"name" validate:"required,min=3,max=150"`
	Credits    int    `json:"credits" validate:"required,min=1,max=12"`
	Requisites string `json:"requisites"`
	Program    string `json:"program" validate:"required,min=2,max=100"`
	Semester   int    `json:"semester" validate:"required,min=1,max=12"`
}

// UpdateCourseRequest carries a partial course update.
type UpdateCourseRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=3,max=150"`
	Credits    *int    `json:"credits" validate:"omitempty,min=1,max=12"`
	Requisites *string `json:"requisites"`
	Semester   *int    `json:"semester" validate:"omitempty,min=1,max=12"`
}

// CourseService manages the curriculum catalogue.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetByID loads one course.
func (s *CourseService) GetByID(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Curriculum returns the program's courses for one semester.
func (s *CourseService) Curriculum(ctx context.Context, program string, semester int) ([]models.Course, error) {
	if program == "" || semester < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "program and semester are required")
	}
	courses, err := s.repo.ListByProgramSemester(ctx, program, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load curriculum")
	}
	return courses, nil
}

// Create registers a new course.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	exists, err := s.repo.ExistsByKey(ctx, req.Code, req.Program, req.Semester, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "course already exists for this program and semester")
	}

	course := &models.Course{
		Code:       req.Code,
		Name:       req.Name,
		Credits:    req.Credits,
		Requisites: strings.TrimSpace(req.Requisites),
		Program:    req.Program,
		Semester:   req.Semester,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update applies a partial update to a course.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Credits != nil {
		course.Credits = *req.Credits
	}
	if req.Requisites != nil {
		course.Requisites = strings.TrimSpace(*req.Requisites)
	}
	if req.Semester != nil && *req.Semester != course.Semester {
		exists, err := s.repo.ExistsByKey(ctx, course.Code, course.Program, *req.Semester, course.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "course already exists for this program and semester")
		}
		course.Semester = *req.Semester
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course that no section references.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountSections(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "course has sections")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}
