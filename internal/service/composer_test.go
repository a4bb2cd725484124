package service

import (
	"errors"
	"testing"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func primitive(fd string, support []int, vios []int, pairs ...domain.Pair) *domain.Hypothesis {
	return &domain.Hypothesis{
		FD:             domain.MustParseFD(fd),
		Support:        support,
		Violations:     domain.NewRowSet(vios...),
		ViolationPairs: domain.NewPairSet(pairs...),
	}
}

func TestComposeFromPrimitivesOnly(t *testing.T) {
	ab := primitive("(A) => B", []int{0, 1, 2, 3}, []int{2}, domain.NewPair(1, 2))
	cd := primitive("(C) => D", []int{1, 2, 3, 4}, []int{3}, domain.NewPair(3, 4))

	space, err := ComposeHypothesisSpace(ComposeInput{
		Primitives:    []*domain.Hypothesis{ab, cd},
		MaxAntecedent: 3,
	})
	require.NoError(t, err)
	require.Equal(t, 3, space.Len())

	composed, ok := space.Find(domain.MustParseFD("(A, C) => B, D"))
	require.True(t, ok)
	assert.Equal(t, "(A, C) => B, D", composed.FD.String())
	assert.Equal(t, []int{2, 3}, composed.Violations.Sorted())
	assert.Equal(t, []domain.Pair{{A: 1, B: 2}, {A: 3, B: 4}}, composed.ViolationPairs.Sorted())
	assert.Equal(t, []int{1, 2, 3}, composed.Support)

	got, _ := space.Find(ab.FD)
	assert.Same(t, ab, got, "primitives are kept as given")
}

func TestComposeSharedSupport(t *testing.T) {
	ab := primitive("(A) => B", []int{1, 2, 3}, []int{3})
	cd := primitive("(C) => D", []int{1, 2, 3}, []int{2})

	space, err := ComposeHypothesisSpace(ComposeInput{
		Primitives:    []*domain.Hypothesis{ab, cd},
		MaxAntecedent: 2,
	})
	require.NoError(t, err)
	// Only one composed pair exists, so nothing composes a second time.
	require.Equal(t, 3, space.Len())

	composed, ok := space.Find(domain.MustParseFD("(A, C) => B, D"))
	require.True(t, ok)
	assert.Equal(t, []int{2, 3}, composed.Violations.Sorted())
	assert.Equal(t, []int{1, 2, 3}, composed.Support)
	for _, h := range space.Hypotheses {
		assert.LessOrEqual(t, len(h.FD.LHS), 2, h.FD.String())
	}
}

func TestComposeClosure(t *testing.T) {
	space, _ := toySpace()

	// Composing any two members again yields nothing new.
	again, err := ComposeHypothesisSpace(ComposeInput{
		Primitives:    space.Hypotheses,
		PriorSpace:    space,
		MaxAntecedent: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, space.Len(), again.Len())
	for i, h := range space.Hypotheses {
		assert.True(t, h.FD.Equal(again.Hypotheses[i].FD))
	}
}

func TestComposeRecomputesFromDirtyData(t *testing.T) {
	space, _ := toySpace()
	composed, ok := space.Find(domain.MustParseFD("(C, A) => D, B"))
	require.True(t, ok)
	assert.Empty(t, composed.Violations)
	assert.Len(t, composed.Support, 8)
}

func TestComposeRespectsLimits(t *testing.T) {
	ab := primitive("(A) => B", []int{0}, nil)
	cd := primitive("(C) => D", []int{0}, nil)
	ef := primitive("(E) => F", []int{0}, nil)

	space, err := ComposeHypothesisSpace(ComposeInput{
		Primitives:    []*domain.Hypothesis{ab, cd, ef},
		MaxAntecedent: 2,
	})
	require.NoError(t, err)
	for _, h := range space.Hypotheses {
		assert.LessOrEqual(t, len(h.FD.LHS), 2, h.FD.String())
	}
	_, ok := space.Find(domain.MustParseFD("(A, C) => B, D"))
	assert.True(t, ok)
	_, ok = space.Find(domain.MustParseFD("(A, C, E) => B, D, F"))
	assert.False(t, ok)
}

func TestComposeSkipsChains(t *testing.T) {
	ab := primitive("(A) => B", []int{0}, nil)
	bc := primitive("(B) => C", []int{0}, nil)

	space, err := ComposeHypothesisSpace(ComposeInput{
		Primitives:    []*domain.Hypothesis{ab, bc},
		MaxAntecedent: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, space.Len())
}

func TestComposeMinConfidence(t *testing.T) {
	dirty, clean := toyData()
	space, err := ComposeHypothesisSpace(ComposeInput{
		Primitives: []*domain.Hypothesis{
			NewHypothesis(dirty, clean, domain.MustParseFD("(A) => B")),
			NewHypothesis(dirty, clean, domain.MustParseFD("(C) => D")),
		},
		Dirty:         dirty,
		Clean:         clean,
		MinConfidence: 0.9,
		MaxAntecedent: 3,
	})
	require.NoError(t, err)
	// 7/8 = 0.875 for both primitives; the composition has no violations.
	assert.Equal(t, 1, space.Len())
	assert.Equal(t, "(A, C) => B, D", space.Hypotheses[0].FD.String())
}

func TestComposeRejectsMalformed(t *testing.T) {
	bad := &domain.Hypothesis{FD: domain.FD{LHS: []string{"A"}, RHS: []string{"A"}}}
	_, err := ComposeHypothesisSpace(ComposeInput{Primitives: []*domain.Hypothesis{bad}, MaxAntecedent: 3})
	assert.True(t, errors.Is(err, domain.ErrMalformedHypothesis))
}
