package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siga-dev/siga-api/internal/models"
	"github.com/siga-dev/siga-api/pkg/database"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

type mockClosureRepo struct {
	finals    []models.SectionFinal
	finalsErr error
	closeErr  error
	records   []models.TranscriptRecord
	nextLabel string
	next      *models.Period
}

func (m *mockClosureRepo) FinalGrades(ctx context.Context, periodID string) ([]models.SectionFinal, error) {
	return m.finals, m.finalsErr
}

func (m *mockClosureRepo) Close(ctx context.Context, period *models.Period, nextLabel string, records []models.TranscriptRecord) (*models.Period, error) {
	if m.closeErr != nil {
		return nil, m.closeErr
	}
	m.records = records
	m.nextLabel = nextLabel
	if m.next == nil {
		m.next = &models.Period{ID: "p-next", Label: nextLabel, IsActive: true}
	}
	return m.next, nil
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) InvalidateActivePeriod(ctx context.Context) {
	m.calls++
}

func floatPtr(v float64) *float64 { return &v }

func newClosureService(repo *mockClosureRepo, periods *mockPeriodReader, cache *mockInvalidator) *ClosureService {
	return NewClosureService(repo, periods, cache, &mockAuditLogger{}, zap.NewNop(), 10, database.DefaultRetryPolicy())
}

func TestClosePeriodArchivesAndRollsForward(t *testing.T) {
	repo := &mockClosureRepo{finals: []models.SectionFinal{
		{EnrollmentID: "e1", StudentID: "s1", CourseID: "c1", FinalGrade: floatPtr(15)},
		{EnrollmentID: "e2", StudentID: "s2", CourseID: "c1", FinalGrade: floatPtr(9.99)},
		{EnrollmentID: "e3", StudentID: "s3", CourseID: "c2", FinalGrade: nil},
	}}
	periods := &mockPeriodReader{active: &models.Period{ID: "p1", Label: "2025-1", IsActive: true}}
	cache := &mockInvalidator{}
	svc := newClosureService(repo, periods, cache)

	result, err := svc.ClosePeriod(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-1", result.ClosedPeriod)
	assert.Equal(t, "2025-2", result.NextPeriod)
	assert.Equal(t, 3, result.Archived)
	assert.Equal(t, 1, cache.calls)

	require.Len(t, repo.records, 3)
	assert.Equal(t, models.OutcomePassed, repo.records[0].Outcome)
	assert.Equal(t, models.OutcomeFailed, repo.records[1].Outcome)
	assert.Equal(t, models.OutcomeFailed, repo.records[2].Outcome)
	assert.Nil(t, repo.records[2].FinalGrade)
	for _, record := range repo.records {
		assert.Equal(t, "2025-1", record.PeriodLabel)
	}
}

func TestClosePeriodYearRollover(t *testing.T) {
	repo := &mockClosureRepo{}
	periods := &mockPeriodReader{active: &models.Period{ID: "p2", Label: "2025-2", IsActive: true}}
	svc := newClosureService(repo, periods, &mockInvalidator{})

	result, err := svc.ClosePeriod(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2026-1", result.NextPeriod)
	assert.Equal(t, 0, result.Archived)
}

func TestClosePeriodNoActivePeriod(t *testing.T) {
	svc := newClosureService(&mockClosureRepo{}, &mockPeriodReader{}, &mockInvalidator{})

	_, err := svc.ClosePeriod(context.Background(), "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestClosePeriodSurfacesClosureIntegrity(t *testing.T) {
	repo := &mockClosureRepo{closeErr: errors.New("constraint violated")}
	periods := &mockPeriodReader{active: &models.Period{ID: "p1", Label: "2025-1"}}
	svc := newClosureService(repo, periods, &mockInvalidator{})

	_, err := svc.ClosePeriod(context.Background(), "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrClosureIntegrity))
}

func TestOutcomeBoundaries(t *testing.T) {
	assert.Equal(t, models.OutcomePassed, outcomeFor(floatPtr(10), 10))
	assert.Equal(t, models.OutcomeFailed, outcomeFor(floatPtr(9.99), 10))
	assert.Equal(t, models.OutcomePassed, outcomeFor(floatPtr(20), 10))
	assert.Equal(t, models.OutcomeFailed, outcomeFor(floatPtr(0), 10))
	assert.Equal(t, models.OutcomeFailed, outcomeFor(nil, 10))
}
