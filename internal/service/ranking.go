package service

import (
	"math"
	"sort"

	"github.com/Harshitk-cp/duo/internal/domain"
)

// predictionSize is how many hypotheses each model predicts.
const predictionSize = 5

// TopK returns the k hypotheses of space with the highest score. Ties keep
// hypothesis-space order.
func TopK(space *domain.HypothesisSpace, k int, score func(h *domain.Hypothesis) float64) []*domain.Hypothesis {
	ranked := append([]*domain.Hypothesis(nil), space.Hypotheses...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return score(ranked[i]) > score(ranked[j])
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// ScoreOutput scores a ranked prediction against the user's stated
// hypothesis. Lenient relatives of stated are credited at
// 1 - |F1(relative) - F1(stated)|.
func ScoreOutput(stated *domain.Hypothesis, ranked []*domain.Hypothesis) domain.Score {
	var s domain.Score
	if len(ranked) == 0 {
		return s
	}

	for n, h := range ranked {
		if h.FD.Equal(stated.FD) {
			if n == 0 {
				s.Match = 1
			}
			s.MRR = 1 / float64(n+1)
			break
		}
	}

	top := ranked[0]
	switch {
	case top.FD.Equal(stated.FD):
		s.Penalty = 1
	case top.FD.IsLenientMatch(stated.FD):
		s.Penalty = 1 - math.Abs(top.F1-stated.F1)
	}

	for n, h := range ranked {
		if h.FD.Equal(stated.FD) || h.FD.IsLenientMatch(stated.FD) {
			s.MRRPenalty = (1 / float64(n+1)) * (1 - math.Abs(h.F1-stated.F1))
			break
		}
	}
	return s
}

func truncate(hs []*domain.Hypothesis, k int) []*domain.Hypothesis {
	if len(hs) > k {
		return hs[:k]
	}
	return hs
}
