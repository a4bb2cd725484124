package store

import (
	"context"
	"testing"
	"time"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScenarios map[string]*domain.Scenario

func (s stubScenarios) Get(_ context.Context, id string) (*domain.Scenario, error) {
	sc, ok := s[id]
	if !ok {
		return nil, domain.ErrScenarioNotFound
	}
	return sc, nil
}

func testProject(sc *domain.Scenario) *domain.Project {
	beliefs := domain.NewBeliefStore()
	_, _ = beliefs.Init(domain.MustParseFD("(A) => B"), 42.5, 7.5)
	return &domain.Project{
		Scenario:     sc,
		Beliefs:      beliefs,
		Feedback:     domain.NewFeedbackHistory(),
		Stated:       []domain.StatedHypothesis{{Hypothesis: "(A) => B"}},
		CurrentRows:  []int{0, 2},
		CurrentPairs: []domain.Pair{domain.NewPair(0, 2)},
	}
}

func TestMemoryProjectStoreRoundTrip(t *testing.T) {
	sc := &domain.Scenario{ID: "toy"}
	s := NewMemoryProjectStore(stubScenarios{"toy": sc})
	ctx := context.Background()

	p := testProject(sc)
	require.NoError(t, s.Create(ctx, p))
	require.NotEqual(t, uuid.Nil, p.ID)

	got, err := s.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Same(t, sc, got.Scenario)
	assert.Equal(t, p.CurrentRows, got.CurrentRows)
	assert.Equal(t, p.CurrentPairs, got.CurrentPairs)
	b, ok := got.Beliefs.Get(domain.MustParseFD("(A) => B"))
	require.True(t, ok)
	assert.Equal(t, 42.5, b.Alpha)

	// Loads are copies.
	got.Iteration = 5
	again, err := s.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, again.Iteration)

	require.NoError(t, s.Update(ctx, got))
	again, err = s.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, again.Iteration)
}

func TestMemoryProjectStoreErrors(t *testing.T) {
	sc := &domain.Scenario{ID: "toy"}
	s := NewMemoryProjectStore(stubScenarios{"toy": sc})
	ctx := context.Background()

	_, err := s.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Update(ctx, testProject(sc)), ErrNotFound)

	p := testProject(sc)
	require.NoError(t, s.Create(ctx, p))
	assert.ErrorIs(t, s.Create(ctx, p), ErrConflict)

	assert.Error(t, s.Create(ctx, testProject(nil)))

	orphan := testProject(&domain.Scenario{ID: "gone"})
	require.NoError(t, s.Create(ctx, orphan))
	_, err = s.GetByID(ctx, orphan.ID)
	assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
}

func TestMemoryProjectStoreDeleteStale(t *testing.T) {
	sc := &domain.Scenario{ID: "toy"}
	s := NewMemoryProjectStore(stubScenarios{"toy": sc})
	ctx := context.Background()

	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now.Add(-96 * time.Hour) }
	stale := testProject(sc)
	require.NoError(t, s.Create(ctx, stale))
	finished := testProject(sc)
	finished.Done = true
	require.NoError(t, s.Create(ctx, finished))

	s.now = func() time.Time { return now }
	fresh := testProject(sc)
	require.NoError(t, s.Create(ctx, fresh))

	n, err := s.DeleteStale(ctx, now.Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 2, s.Len())

	_, err = s.GetByID(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetByID(ctx, finished.ID)
	assert.NoError(t, err)
}
