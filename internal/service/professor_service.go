package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/siga-dev/siga-api/internal/models"
	"github.com/siga-dev/siga-api/pkg/database"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

type professorRepository interface {
	List(ctx context.Context, filter models.ProfessorFilter) ([]models.ProfessorDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ProfessorDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.ProfessorDetail, error)
	CreateWithUser(ctx context.Context, user *models.User, professor *models.Professor) error
	Update(ctx context.Context, professor *models.Professor) error
	Delete(ctx context.Context, id string) error
}

// CreateProfessorRequest carries the hiring payload.
type CreateProfessorRequest struct {
	Document string     `json:"document" validate:"required,min=5,max=20"`
	Email    string     `json:"email" validate:"required,email"`
	FullName string     `json:"full_name" validate:"required,min=3,max=150"`
	Password string     `json:"password" validate:"required,min=8,max=72"`
	Program  string     `json:"program" validate:"required,min=2,max=100"`
	HiredAt  *time.Time `json:"hired_at"`
}

// UpdateProfessorRequest carries a partial professor update.
type UpdateProfessorRequest struct {
	Program *string    `json:"program" validate:"omitempty,min=2,max=100"`
	HiredAt *time.Time `json:"hired_at"`
}

// ProfessorService manages professor records and their owning users.
type ProfessorService struct {
	repo      professorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfessorService constructs ProfessorService.
func NewProfessorService(repo professorRepository, validate *validator.Validate, logger *zap.Logger) *ProfessorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfessorService{repo: repo, validator: validate, logger: logger}
}

// List returns professors with pagination metadata.
func (s *ProfessorService) List(ctx context.Context, filter models.ProfessorFilter) ([]models.ProfessorDetail, *models.Pagination, error) {
	professors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list professors")
	}
	return professors, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetByID loads one professor with user context.
func (s *ProfessorService) GetByID(ctx context.Context, id string) (*models.ProfessorDetail, error) {
	professor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	return professor, nil
}

// GetByUserID resolves the professor owning a user account.
func (s *ProfessorService) GetByUserID(ctx context.Context, userID string) (*models.ProfessorDetail, error) {
	professor, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	return professor, nil
}

// Create hires a new professor, creating the user and professor rows
// together.
func (s *ProfessorService) Create(ctx context.Context, req CreateProfessorRequest) (*models.ProfessorDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professor payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Document:     strings.TrimSpace(req.Document),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         models.RoleProfessor,
		Active:       true,
	}
	professor := &models.Professor{Program: req.Program}
	if req.HiredAt != nil {
		professor.HiredAt = *req.HiredAt
	}
	if err := s.repo.CreateWithUser(ctx, user, professor); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "document or email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create professor")
	}
	return s.GetByID(ctx, professor.ID)
}

// Update modifies a professor's program or hire date.
func (s *ProfessorService) Update(ctx context.Context, id string, req UpdateProfessorRequest) (*models.ProfessorDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professor payload")
	}
	detail, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	professor := detail.Professor
	if req.Program != nil {
		professor.Program = *req.Program
	}
	if req.HiredAt != nil {
		professor.HiredAt = *req.HiredAt
	}
	if err := s.repo.Update(ctx, &professor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update professor")
	}
	return s.GetByID(ctx, id)
}

// Delete removes a professor, unassigning any sections they teach.
func (s *ProfessorService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete professor")
	}
	return nil
}
