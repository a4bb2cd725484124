package service

import (
	"testing"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratioRequest(t *testing.T) SampleRequest {
	t.Helper()
	space, dirty := toySpace()
	return SampleRequest{
		Data:         dirty,
		Space:        space,
		Target:       domain.MustParseFD("(A) => B"),
		Alternatives: []domain.FD{domain.MustParseFD("(C) => D")},
		Size:         6,
		Method:       domain.SamplingRatio,
		TargetRatio:  0.5,
		AltRatio:     0.3,
	}
}

func assertDistinct(t *testing.T, rows []int) {
	t.Helper()
	seen := make(map[int]bool, len(rows))
	for _, r := range rows {
		assert.False(t, seen[r], "row %d sampled twice", r)
		seen[r] = true
	}
}

func TestRatioSample(t *testing.T) {
	req := ratioRequest(t)
	sample, err := NewSampler(7).NextSample(req)
	require.NoError(t, err)

	assert.Len(t, sample.Rows, 6)
	assertDistinct(t, sample.Rows)
	// Both target pairs and the alternative pair fit in the budget.
	assert.Subset(t, sample.Rows, []int{0, 1, 2, 3})
	assert.Equal(t, []domain.Pair{domain.NewPair(0, 2), domain.NewPair(1, 2)}, sample.Pairs)
}

func TestRatioFillerAvoidsAlternativeRows(t *testing.T) {
	rows := make([][]string, 10)
	for i := range rows {
		rows[i] = []string{"x"}
	}
	data := dataset([]string{"X"}, rows...)
	all := data.RowIDs()

	ab := primitive("(A) => B", all, []int{1}, domain.NewPair(0, 1))
	cd := primitive("(C) => D", all, []int{3, 5, 7},
		domain.NewPair(2, 3), domain.NewPair(4, 5), domain.NewPair(6, 7))
	space, err := ComposeHypothesisSpace(ComposeInput{Primitives: []*domain.Hypothesis{ab, cd}, MaxAntecedent: 2})
	require.NoError(t, err)

	req := SampleRequest{
		Data:         data,
		Space:        space,
		Target:       ab.FD,
		Alternatives: []domain.FD{cd.FD},
		Size:         6,
		Method:       domain.SamplingRatio,
		TargetRatio:  0.5,
	}
	for seed := int64(1); seed <= 20; seed++ {
		sample, err := NewSampler(seed).NextSample(req)
		require.NoError(t, err)

		// No alternative pair is drawn, and rows 2..7 never fill the
		// sample even though it stays short of its size.
		assert.ElementsMatch(t, []int{0, 1, 8, 9}, sample.Rows, "seed %d", seed)
		assert.Equal(t, []domain.Pair{domain.NewPair(0, 1)}, sample.Pairs)
	}
}

func TestRatioSampleSmallBudget(t *testing.T) {
	req := ratioRequest(t)
	req.Size = 2
	req.AltRatio = 0

	sample, err := NewSampler(3).NextSample(req)
	require.NoError(t, err)
	require.Len(t, sample.Pairs, 1)
	p := sample.Pairs[0]
	assert.ElementsMatch(t, []int{p.A, p.B}, sample.Rows)
}

func TestSamplerIsDeterministicForSeed(t *testing.T) {
	req := ratioRequest(t)
	a, err := NewSampler(42).NextSample(req)
	require.NoError(t, err)
	b, err := NewSampler(42).NextSample(req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWeightedSample(t *testing.T) {
	space, dirty := toySpace()
	beliefs, err := InitializeBeliefs(space, domain.NotSure, 0.15, 0.0025)
	require.NoError(t, err)
	target := domain.MustParseFD("(A) => B")
	ab, _ := space.Find(target)

	for seed := int64(1); seed <= 20; seed++ {
		sample, err := NewSampler(seed).NextSample(SampleRequest{
			Data:    dirty,
			Space:   space,
			Beliefs: beliefs,
			Target:  target,
			Size:    5,
			Method:  domain.SamplingWeighted,
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(sample.Rows), 5)
		assertDistinct(t, sample.Rows)

		rows := domain.NewRowSet(sample.Rows...)
		for _, p := range sample.Pairs {
			assert.True(t, ab.ViolationPairs.Has(p))
			assert.True(t, rows.Has(p.A) && rows.Has(p.B))
		}
	}
}

func TestWeightedSampleUnderFills(t *testing.T) {
	space, dirty := toySpace()
	beliefs, err := InitializeBeliefs(space, domain.NotSure, 0.15, 0.0025)
	require.NoError(t, err)

	// Every hypothesis has at most one violating row, so all draws come
	// from the two weighted rows.
	sample, err := NewSampler(5).NextSample(SampleRequest{
		Data:       dirty,
		Space:      space,
		Beliefs:    beliefs,
		Target:     domain.MustParseFD("(A) => B"),
		Size:       5,
		Method:     domain.SamplingWeighted,
		RowWeights: map[int]float64{0: 1, 1: 2, 4: 0},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1}, sample.Rows)
	assert.Empty(t, sample.Pairs)
}

func TestWeightedSampleKeepsPairsWhole(t *testing.T) {
	rows := make([][]string, 6)
	for i := range rows {
		rows[i] = []string{"x"}
	}
	data := dataset([]string{"X"}, rows...)
	pairs := []domain.Pair{domain.NewPair(0, 1), domain.NewPair(2, 3), domain.NewPair(4, 5)}
	ab := primitive("(A) => B", data.RowIDs(), []int{1, 3, 5}, pairs...)
	space, err := ComposeHypothesisSpace(ComposeInput{Primitives: []*domain.Hypothesis{ab}, MaxAntecedent: 2})
	require.NoError(t, err)

	for seed := int64(1); seed <= 20; seed++ {
		// Every draw is a disjoint pair, so an odd size leaves one slot
		// that no pair fits in.
		sample, err := NewSampler(seed).NextSample(SampleRequest{
			Data:   data,
			Space:  space,
			Target: ab.FD,
			Size:   3,
			Method: domain.SamplingWeighted,
		})
		require.NoError(t, err)
		require.Len(t, sample.Rows, 2, "seed %d", seed)
		require.Len(t, sample.Pairs, 1)
		p := sample.Pairs[0]
		assert.ElementsMatch(t, []int{p.A, p.B}, sample.Rows)
	}
}

func TestNextSampleUnknownHypothesis(t *testing.T) {
	req := ratioRequest(t)
	req.Target = domain.MustParseFD("(B) => A")
	_, err := NewSampler(1).NextSample(req)
	assert.ErrorIs(t, err, domain.ErrUnmatchedHypothesis)

	req = ratioRequest(t)
	req.Alternatives = []domain.FD{domain.MustParseFD("(D) => C")}
	_, err = NewSampler(1).NextSample(req)
	assert.ErrorIs(t, err, domain.ErrUnmatchedHypothesis)
}

func TestSampleView(t *testing.T) {
	_, dirty := toySpace()
	view := Sample{Rows: []int{3, 0}}.View(dirty)
	require.Len(t, view, 2)
	assert.Equal(t, 3, view[0].ID)
	assert.Equal(t, "a2", view[0].Values["A"])
	assert.Equal(t, "b1", view[1].Values["B"])
}
