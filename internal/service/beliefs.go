package service

import (
	"github.com/Harshitk-cp/duo/internal/domain"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultCredibleLevel is the mass of the reported belief interval.
const DefaultCredibleLevel = 0.9

// BeliefSummary is the current state of one belief with an equal-tailed
// credible interval of its Beta distribution.
type BeliefSummary struct {
	FD         string  `json:"fd"`
	Alpha      float64 `json:"alpha"`
	Beta       float64 `json:"beta"`
	Conf       float64 `json:"conf"`
	Normalized float64 `json:"normalized_conf"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
}

// SummarizeBeliefs reports every belief of store in store order. level
// outside (0, 1) falls back to DefaultCredibleLevel.
func SummarizeBeliefs(store *domain.BeliefStore, level float64) []BeliefSummary {
	if level <= 0 || level >= 1 {
		level = DefaultCredibleLevel
	}
	tail := (1 - level) / 2

	out := make([]BeliefSummary, 0, store.Len())
	for _, b := range store.Beliefs {
		dist := distuv.Beta{Alpha: b.Alpha, Beta: b.Beta}
		out = append(out, BeliefSummary{
			FD:         b.FD.String(),
			Alpha:      b.Alpha,
			Beta:       b.Beta,
			Conf:       b.Conf,
			Normalized: b.Normalized,
			Lower:      dist.Quantile(tail),
			Upper:      dist.Quantile(1 - tail),
		})
	}
	return out
}
