package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siga-dev/siga-api/internal/models"
	appErrors "github.com/siga-dev/siga-api/pkg/errors"
)

type mockPeriodRepo struct {
	periods      map[string]models.Period
	sectionCount map[string]int
	activated    []string
	deleted      []string
}

func (m *mockPeriodRepo) List(ctx context.Context, filter models.PeriodFilter) ([]models.Period, int, error) {
	out := make([]models.Period, 0, len(m.periods))
	for _, p := range m.periods {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockPeriodRepo) FindByID(ctx context.Context, id string) (*models.Period, error) {
	if p, ok := m.periods[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPeriodRepo) FindByLabel(ctx context.Context, label string) (*models.Period, error) {
	for _, p := range m.periods {
		if p.Label == label {
			found := p
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockPeriodRepo) FindActive(ctx context.Context) (*models.Period, error) {
	for _, p := range m.periods {
		if p.IsActive {
			found := p
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockPeriodRepo) ExistsByLabel(ctx context.Context, label, excludeID string) (bool, error) {
	for id, p := range m.periods {
		if p.Label == label && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPeriodRepo) Create(ctx context.Context, period *models.Period) error {
	if period.ID == "" {
		period.ID = "new-period"
	}
	if m.periods == nil {
		m.periods = make(map[string]models.Period)
	}
	m.periods[period.ID] = *period
	return nil
}

func (m *mockPeriodRepo) SetActive(ctx context.Context, id string) error {
	for key, p := range m.periods {
		p.IsActive = key == id
		m.periods[key] = p
	}
	m.activated = append(m.activated, id)
	return nil
}

func (m *mockPeriodRepo) Delete(ctx context.Context, id string) error {
	delete(m.periods, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockPeriodRepo) CountSections(ctx context.Context, id string) (int, error) {
	return m.sectionCount[id], nil
}

func newPeriodService(repo *mockPeriodRepo) *PeriodService {
	return NewPeriodService(repo, nil, 0, nil, nil)
}

func TestPeriodCreate(t *testing.T) {
	repo := &mockPeriodRepo{}
	svc := newPeriodService(repo)

	period, err := svc.Create(context.Background(), CreatePeriodRequest{Label: "2025-1"})
	require.NoError(t, err)
	assert.Equal(t, "2025-1", period.Label)
	assert.False(t, period.IsActive)
}

func TestPeriodCreateActivates(t *testing.T) {
	repo := &mockPeriodRepo{periods: map[string]models.Period{
		"p0": {ID: "p0", Label: "2024-2", IsActive: true},
	}}
	svc := newPeriodService(repo)

	period, err := svc.Create(context.Background(), CreatePeriodRequest{Label: "2025-1", IsActive: true})
	require.NoError(t, err)
	assert.True(t, period.IsActive)
	assert.False(t, repo.periods["p0"].IsActive)
}

func TestPeriodCreateRejectsMalformedLabel(t *testing.T) {
	svc := newPeriodService(&mockPeriodRepo{})

	for _, label := range []string{"20251", "abcd-1", "2025/1"} {
		_, err := svc.Create(context.Background(), CreatePeriodRequest{Label: label})
		require.Error(t, err, label)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), label)
	}
}

func TestPeriodCreateRejectsDuplicateLabel(t *testing.T) {
	repo := &mockPeriodRepo{periods: map[string]models.Period{
		"p1": {ID: "p1", Label: "2025-1"},
	}}
	svc := newPeriodService(repo)

	_, err := svc.Create(context.Background(), CreatePeriodRequest{Label: "2025-1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateKey))
}

func TestPeriodGetActiveFallsBackToDatabase(t *testing.T) {
	repo := &mockPeriodRepo{periods: map[string]models.Period{
		"p1": {ID: "p1", Label: "2025-1", IsActive: true},
	}}
	svc := newPeriodService(repo)

	period, err := svc.GetActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-1", period.Label)
}

func TestPeriodGetActiveNone(t *testing.T) {
	svc := newPeriodService(&mockPeriodRepo{})

	_, err := svc.GetActive(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestPeriodDeleteGuards(t *testing.T) {
	repo := &mockPeriodRepo{
		periods: map[string]models.Period{
			"active":        {ID: "active", Label: "2025-1", IsActive: true},
			"with-sections": {ID: "with-sections", Label: "2024-2"},
			"empty":         {ID: "empty", Label: "2024-1"},
		},
		sectionCount: map[string]int{"with-sections": 3},
	}
	svc := newPeriodService(repo)

	err := svc.Delete(context.Background(), "active")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))

	err = svc.Delete(context.Background(), "with-sections")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))

	require.NoError(t, svc.Delete(context.Background(), "empty"))
	assert.Equal(t, []string{"empty"}, repo.deleted)
}

func TestPeriodActivate(t *testing.T) {
	repo := &mockPeriodRepo{periods: map[string]models.Period{
		"p1": {ID: "p1", Label: "2025-1", IsActive: true},
		"p2": {ID: "p2", Label: "2025-2"},
	}}
	svc := newPeriodService(repo)

	period, err := svc.Activate(context.Background(), "p2")
	require.NoError(t, err)
	assert.True(t, period.IsActive)
	assert.False(t, repo.periods["p1"].IsActive)

	_, err = svc.Activate(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
