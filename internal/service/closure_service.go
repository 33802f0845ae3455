package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/siga-dev/siga-api/internal/models"
	"github.com/siga-dev/siga-api/pkg/database"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

type closureRepository interface {
	FinalGrades(ctx context.Context, periodID string) ([]models.SectionFinal, error)
	Close(ctx context.Context, period *models.Period, nextLabel string, records []models.TranscriptRecord) (*models.Period, error)
}

type periodCacheInvalidator interface {
	InvalidateActivePeriod(ctx context.Context)
}

// ClosureService runs period closure: it resolves every active enrollment
// of the active period to a PASSED or FAILED ledger row, purges the
// period's operational data and rolls the active flag to the successor.
type ClosureService struct {
	repo     closureRepository
	periods  activePeriodReader
	cache    periodCacheInvalidator
	audit    auditLogger
	logger   *zap.Logger
	passMark float64
	retry    database.RetryPolicy
}

// NewClosureService constructs ClosureService. passMark is the minimum
// final grade that yields a PASSED outcome (10 on the 0-20 scale).
func NewClosureService(repo closureRepository, periods activePeriodReader, cache periodCacheInvalidator,
	audit auditLogger, logger *zap.Logger, passMark float64, retry database.RetryPolicy) *ClosureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if passMark <= 0 {
		passMark = 10
	}
	return &ClosureService{
		repo:     repo,
		periods:  periods,
		cache:    cache,
		audit:    audit,
		logger:   logger,
		passMark: passMark,
		retry:    retry,
	}
}

// outcomeFor resolves one gathered final grade to a ledger outcome. A
// missing final grade fails the course.
func outcomeFor(finalGrade *float64, passMark float64) models.Outcome {
	if finalGrade == nil {
		return models.OutcomeFailed
	}
	if *finalGrade >= passMark {
		return models.OutcomePassed
	}
	return models.OutcomeFailed
}

// ClosePeriod closes the active period. actorID is recorded in the audit
// trail when non-empty.
func (s *ClosureService) ClosePeriod(ctx context.Context, actorID string) (*models.ClosureResult, error) {
	period, err := s.periods.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active period to close")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active period")
	}

	finals, err := s.repo.FinalGrades(ctx, period.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrClosureIntegrity.Code, appErrors.ErrClosureIntegrity.Status, "failed to gather final grades")
	}

	records := make([]models.TranscriptRecord, len(finals))
	for i, final := range finals {
		records[i] = models.TranscriptRecord{
			StudentID:   final.StudentID,
			CourseID:    final.CourseID,
			PeriodLabel: period.Label,
			FinalGrade:  final.FinalGrade,
			Outcome:     outcomeFor(final.FinalGrade, s.passMark),
		}
	}

	nextLabel, err := models.NextPeriodLabel(period.Label)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrClosureIntegrity.Code, appErrors.ErrClosureIntegrity.Status, "cannot derive successor period")
	}

	var next *models.Period
	err = database.WithRetry(ctx, s.retry, func(ctx context.Context) error {
		var closeErr error
		next, closeErr = s.repo.Close(ctx, period, nextLabel, records)
		return closeErr
	})
	if err != nil {
		if appErrors.Is(err, appErrors.ErrTransientStorage) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrClosureIntegrity.Code, appErrors.ErrClosureIntegrity.Status, "period closure failed")
	}

	if s.cache != nil {
		s.cache.InvalidateActivePeriod(ctx)
	}

	s.logger.Info("period closed",
		zap.String("closed_period", period.Label),
		zap.String("next_period", next.Label),
		zap.Int("archived", len(records)))

	if s.audit != nil {
		log := &models.AuditLog{
			Action:     models.AuditActionPeriodClose,
			Resource:   "period",
			ResourceID: &period.ID,
		}
		if actorID != "" {
			log.UserID = &actorID
		}
		if auditErr := s.audit.CreateAuditLog(ctx, log); auditErr != nil {
			s.logger.Warn("failed to create closure audit", zap.Error(auditErr))
		}
	}

	return &models.ClosureResult{
		ClosedPeriod: period.Label,
		NextPeriod:   next.Label,
		Archived:     len(records),
	}, nil
}
