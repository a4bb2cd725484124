package service

import (
	"github.com/Harshitk-cp/duo/internal/domain"
	"go.uber.org/zap"
)

// Evidence is the outcome of one iteration of feedback for one hypothesis.
type Evidence struct {
	Successes int
	Failures  int
}

// CountEvidence scores the rows of a sample against h. Rows the user
// marked are skipped. A row is a success when it is clean under h or when
// it belongs to a violation pair of h the user caught by marking either
// member.
func CountEvidence(h *domain.Hypothesis, marked domain.RowSet, sample []int, pairs []domain.Pair) Evidence {
	caught := make(domain.PairSet)
	for _, p := range pairs {
		if !h.ViolationPairs.Has(p) {
			continue
		}
		if marked.Has(p.A) || marked.Has(p.B) {
			caught.Add(p)
		}
	}

	var ev Evidence
	for _, r := range sample {
		if marked.Has(r) {
			continue
		}
		if !h.Violations.Has(r) || caught.Involving(r) {
			ev.Successes++
		} else {
			ev.Failures++
		}
	}
	return ev
}

// ApplyFeedback folds one iteration of marks into every belief of store.
// pairs are the violation pairs relevant to the sample.
func ApplyFeedback(store *domain.BeliefStore, space *domain.HypothesisSpace, marks domain.Marks, sample []int, pairs []domain.Pair, iter int, elapsed float64, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	marked := marks.MarkedRows()
	for _, h := range space.Hypotheses {
		ev := CountEvidence(h, marked, sample, pairs)
		b, err := store.Observe(h.FD, ev.Successes, ev.Failures, iter, elapsed)
		if err != nil {
			return err
		}
		logger.Debug("belief updated",
			zap.String("fd", h.FD.String()),
			zap.Int("iter", iter),
			zap.Int("successes", ev.Successes),
			zap.Int("failures", ev.Failures),
			zap.Float64("alpha", b.Alpha),
			zap.Float64("beta", b.Beta),
			zap.Float64("conf", b.Conf),
		)
	}
	return nil
}
