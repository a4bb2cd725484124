package service

import (
	"fmt"
	"math"

	"github.com/Harshitk-cp/duo/internal/domain"
)

const (
	DefaultBayesianSmoothing = 0.15
	DefaultPriorVariance     = 0.0025
)

// InitialPrior moment-matches a Beta distribution to mean mu and variance.
func InitialPrior(mu, variance float64) (alpha, beta float64) {
	switch {
	case mu >= 1:
		mu = 0.9999
	case mu <= 0:
		mu = 0.0001
	}
	beta = (1 - mu) * ((mu * (1 - mu) / variance) - 1)
	alpha = (mu * beta) / (1 - mu)
	return math.Abs(alpha), math.Abs(beta)
}

// InitializeBeliefs creates one belief per hypothesis with a prior centred
// on the user's stated hypothesis. stated may be domain.NotSure.
func InitializeBeliefs(space *domain.HypothesisSpace, stated string, smoothing, variance float64) (*domain.BeliefStore, error) {
	statedFD, sure, err := domain.ParseStated(stated)
	if err != nil {
		return nil, err
	}

	var statedH *domain.Hypothesis
	if sure {
		h, ok := space.Find(statedFD)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnmatchedHypothesis, statedFD)
		}
		statedH = h
	}

	others := 0
	if sure {
		for _, h := range space.Hypotheses {
			if !h.FD.IsLenientMatch(statedH.FD) {
				others++
			}
		}
	}

	store := domain.NewBeliefStore()
	mus := make([]float64, 0, space.Len())
	for _, h := range space.Hypotheses {
		var mu, alpha, beta float64
		switch {
		case !sure:
			mu = 1 / float64(space.Len())
			alpha, beta = 1, 1
		case h.FD.Equal(statedH.FD):
			mu = 1 - smoothing
			alpha, beta = InitialPrior(mu, variance)
		case h.FD.IsLenientMatch(statedH.FD):
			mu = (1 - smoothing) * (1 - math.Abs(h.F1-statedH.F1))
			alpha, beta = InitialPrior(mu, variance)
		default:
			if others > 0 {
				mu = smoothing / float64(others)
			}
			alpha, beta = InitialPrior(mu, variance)
		}
		if _, err := store.Init(h.FD, alpha, beta); err != nil {
			return nil, err
		}
		mus = append(mus, mu)
	}
	store.Normalize(mus, 0, 0)
	return store, nil
}
