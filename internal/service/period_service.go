package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/siga-dev/siga-api/internal/models"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

type periodRepository interface {
	List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, int, error)
	FindByID(ctx context.Context, id string) (*models.Period, error)
	FindByLabel(ctx context.Context, label string) (*models.Period, error)
	FindActive(ctx context.Context) (*models.Period, error)
	ExistsByLabel(ctx context.Context, label, excludeID string) (bool, error)
	Create(ctx context.Context, period *models.Period) error
	SetActive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CountSections(ctx context.Context, id string) (int, error)
}

// CreatePeriodRequest carries a new period payload.
type CreatePeriodRequest struct {
	Label    string `json:"label" validate:"required,min=6,max=7"`
	IsActive bool   `json:"is_active"`
}

const activePeriodCacheKey = "siga:period:active"

// PeriodService manages academic periods. The active period lookup is the
// hottest read of the enrollment flow, so it is served from Redis when the
// cache is enabled; Redis failures fall through to the database.
type PeriodService struct {
	repo      periodRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs PeriodService. cache may be nil.
func NewPeriodService(repo periodRepository, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &PeriodService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns periods with pagination metadata.
func (s *PeriodService) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, *models.Pagination, error) {
	periods, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	return periods, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// GetByID loads one period.
func (s *PeriodService) GetByID(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}

// GetActive returns the single active period, cache first.
func (s *PeriodService) GetActive(ctx context.Context) (*models.Period, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, activePeriodCacheKey).Bytes()
		if err == nil {
			var cached models.Period
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("active period cache read failed", zap.Error(err))
		}
	}

	period, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active period")
	}

	if s.cache != nil {
		if raw, marshalErr := json.Marshal(period); marshalErr == nil {
			if err := s.cache.Set(ctx, activePeriodCacheKey, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("active period cache write failed", zap.Error(err))
			}
		}
	}
	return period, nil
}

// InvalidateActivePeriod drops the cached active period. Called after
// activation changes and after period closure.
func (s *PeriodService) InvalidateActivePeriod(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, activePeriodCacheKey).Err(); err != nil {
		s.logger.Warn("active period cache invalidation failed", zap.Error(err))
	}
}

// Create registers a new period. When IsActive is set the activation flag
// is moved transactionally so only one period stays active.
func (s *PeriodService) Create(ctx context.Context, req CreatePeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	if _, err := models.NextPeriodLabel(req.Label); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period label must follow YYYY-N")
	}

	exists, err := s.repo.ExistsByLabel(ctx, req.Label, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate period")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateKey, "period label already exists")
	}

	period := &models.Period{Label: req.Label}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	if req.IsActive {
		if err := s.repo.SetActive(ctx, period.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate period")
		}
		period.IsActive = true
		s.InvalidateActivePeriod(ctx)
	}
	return period, nil
}

// Activate makes the period the single active one.
func (s *PeriodService) Activate(ctx context.Context, id string) (*models.Period, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate period")
	}
	s.InvalidateActivePeriod(ctx)
	return s.GetByID(ctx, id)
}

// Delete removes a period that has no sections and is not active.
func (s *PeriodService) Delete(ctx context.Context, id string) error {
	period, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if period.IsActive {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot delete the active period")
	}
	count, err := s.repo.CountSections(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate period")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "period has sections")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete period")
	}
	return nil
}
