package service

import (
	"testing"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeBeliefs(t *testing.T) {
	store := domain.NewBeliefStore()
	_, err := store.Init(domain.MustParseFD("(A) => B"), 42.5, 7.5)
	require.NoError(t, err)
	_, err = store.Init(domain.MustParseFD("(C) => D"), 1, 1)
	require.NoError(t, err)

	narrow := SummarizeBeliefs(store, 0.5)
	wide := SummarizeBeliefs(store, 0.95)
	require.Len(t, narrow, 2)

	for i := range narrow {
		assert.Less(t, wide[i].Lower, narrow[i].Lower)
		assert.Greater(t, wide[i].Upper, narrow[i].Upper)
	}

	// A flat prior has a symmetric interval.
	assert.InDelta(t, 0.25, narrow[1].Lower, 1e-9)
	assert.InDelta(t, 0.75, narrow[1].Upper, 1e-9)
	assert.InDelta(t, 0.85, narrow[0].Conf, 1e-12)
}

func TestSummarizeBeliefsDefaultLevel(t *testing.T) {
	store := domain.NewBeliefStore()
	_, err := store.Init(domain.MustParseFD("(A) => B"), 3, 5)
	require.NoError(t, err)

	assert.Equal(t, SummarizeBeliefs(store, DefaultCredibleLevel), SummarizeBeliefs(store, 0))
	assert.Equal(t, SummarizeBeliefs(store, DefaultCredibleLevel), SummarizeBeliefs(store, 1.5))
}
