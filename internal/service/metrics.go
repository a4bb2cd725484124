package service

import (
	"fmt"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/montanaflynn/stats"
)

const (
	DefaultHPMemory            = 1
	DefaultHPDecisionThreshold = 0.95
)

// DeriveInput is the full recorded history of a run.
type DeriveInput struct {
	Space *domain.HypothesisSpace
	// Beliefs, when set, supplies the canonical textual form of predicted
	// hypotheses. It is never mutated.
	Beliefs  *domain.BeliefStore
	Target   domain.FD
	Samples  domain.SampleHistory
	Feedback *domain.FeedbackHistory
	// Stated[0] is the initial statement; Stated[i] the one made after
	// sample i.
	Stated []domain.StatedHypothesis

	// Config is used as given; the zero value selects DefaultStudyConfig.
	Config StudyConfig
	// MaxIters limits derivation to the first MaxIters samples when > 0.
	MaxIters int
}

func (in *DeriveInput) defaults() {
	if in.Config == (StudyConfig{}) {
		in.Config = DefaultStudyConfig()
	}
	if in.Feedback == nil {
		in.Feedback = domain.NewFeedbackHistory()
	}
}

// DeriveMetrics replays a run from its initial statement and returns the
// study metrics, the rebuilt belief store and whether the run should stop.
// The same input always yields the same output.
func DeriveMetrics(in DeriveInput) (*domain.StudyMetrics, *domain.BeliefStore, bool, error) {
	in.defaults()
	if err := in.Config.Validate(); err != nil {
		return nil, nil, false, err
	}
	if len(in.Stated) == 0 {
		return nil, nil, false, fmt.Errorf("%w: no initial statement", domain.ErrMalformedHypothesis)
	}

	target, ok := in.Space.Find(in.Target)
	if !ok {
		return nil, nil, false, fmt.Errorf("%w: target %s", domain.ErrUnmatchedHypothesis, in.Target)
	}

	initialFD, initialSure, err := domain.ParseStated(in.Stated[0].Hypothesis)
	if err != nil {
		return nil, nil, false, err
	}
	var initial *domain.Hypothesis
	if initialSure {
		if initial, ok = in.Space.Find(initialFD); !ok {
			return nil, nil, false, fmt.Errorf("%w: %s", domain.ErrUnmatchedHypothesis, initialFD)
		}
	}

	store, err := InitializeBeliefs(in.Space, in.Stated[0].Hypothesis, in.Config.Smoothing, in.Config.Variance)
	if err != nil {
		return nil, nil, false, err
	}

	d := &derivation{in: in, store: store, target: target, metrics: domain.NewStudyMetrics()}
	var first []*domain.Hypothesis
	if initial != nil {
		first = []*domain.Hypothesis{initial}
	}
	d.hpPrev = first
	d.metrics.BayesianPrediction = append(d.metrics.BayesianPrediction, d.prediction(0, in.Stated[0].ElapsedTime, first))
	d.metrics.HPPrediction = append(d.metrics.HPPrediction, d.prediction(0, in.Stated[0].ElapsedTime, first))

	iters := len(in.Samples)
	if in.MaxIters > 0 && in.MaxIters < iters {
		iters = in.MaxIters
	}
	for i := 1; i <= iters; i++ {
		if err := d.iterate(i, first); err != nil {
			return nil, nil, false, err
		}
	}
	if err := d.rates(); err != nil {
		return nil, nil, false, err
	}

	st := d.metrics.ShortTerm()
	lastMarkedEmpty := len(st.Marked) == 0 || len(st.Marked[len(st.Marked)-1].Value) == 0
	done := ShouldTerminate(domain.Values(st.Precision), domain.Values(st.Recall), lastMarkedEmpty)
	return d.metrics, store, done, nil
}

type derivation struct {
	in      DeriveInput
	store   *domain.BeliefStore
	target  *domain.Hypothesis
	metrics *domain.StudyMetrics
	hpPrev  []*domain.Hypothesis
}

func (d *derivation) iterate(i int, initial []*domain.Hypothesis) error {
	rec := d.in.Samples[i-1]
	curr := domain.NewRowSet(rec.Rows...)
	elapsed := rec.ElapsedTime
	marked := d.in.Feedback.At(i).MarkedRows()

	targetBelief, _ := d.store.Get(d.target.FD)
	targetBelief.PairsInSample = append(targetBelief.PairsInSample,
		domain.Metric[[]domain.Pair]{IterNum: i, Value: d.target.PairsWithin(curr).Sorted(), ElapsedTime: elapsed})
	targetRecent := recentPairs(targetBelief, d.in.Config.HPMemory)

	for _, h := range d.in.Space.Hypotheses {
		b, ok := d.store.Get(h.FD)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnmatchedHypothesis, h.FD)
		}
		inSample := h.PairsWithin(curr).Sorted()
		ev := CountEvidence(h, marked, rec.Rows, inSample)
		if _, err := d.store.Observe(h.FD, ev.Successes, ev.Failures, i, elapsed); err != nil {
			return err
		}
		if b != targetBelief {
			b.PairsInSample = append(b.PairsInSample, domain.Metric[[]domain.Pair]{IterNum: i, Value: inSample, ElapsedTime: elapsed})
		}

		p, r, f := HypothesisAccuracy(recentPairs(b, d.in.Config.HPMemory), targetRecent)
		b.PrecisionHistory = append(b.PrecisionHistory, domain.Metric[float64]{IterNum: i, Value: p, ElapsedTime: elapsed})
		b.RecallHistory = append(b.RecallHistory, domain.Metric[float64]{IterNum: i, Value: r, ElapsedTime: elapsed})
		b.F1History = append(b.F1History, domain.Metric[float64]{IterNum: i, Value: f, ElapsedTime: elapsed})
	}
	d.store.Normalize(d.store.Confidences(), i, elapsed)

	bayesian := TopK(d.in.Space, predictionSize, func(h *domain.Hypothesis) float64 {
		b, _ := d.store.Get(h.FD)
		return b.Normalized
	})
	latestF1 := func(h *domain.Hypothesis) float64 {
		b, _ := d.store.Get(h.FD)
		return b.LatestF1()
	}
	hp := TopK(d.in.Space, predictionSize, latestF1)
	f1s := make([]float64, len(hp))
	for k, h := range hp {
		f1s[k] = latestF1(h)
	}
	if mean, err := stats.Mean(f1s); err != nil || mean < d.in.Config.HPThreshold {
		if i == 1 {
			hp = initial
		} else {
			hp = d.hpPrev
		}
	}
	d.hpPrev = hp
	d.metrics.BayesianPrediction = append(d.metrics.BayesianPrediction, d.prediction(i, elapsed, bayesian))
	d.metrics.HPPrediction = append(d.metrics.HPPrediction, d.prediction(i, elapsed, hp))

	if err := d.score(i, bayesian, hp); err != nil {
		return err
	}
	d.windows(i, curr, elapsed)
	d.cumulative(i, elapsed)
	return nil
}

// recentPairs unions the in-sample pairs of the last memory+1 iterations.
func recentPairs(b *domain.Belief, memory int) domain.PairSet {
	out := make(domain.PairSet)
	from := len(b.PairsInSample) - (memory + 1)
	if from < 0 {
		from = 0
	}
	for _, m := range b.PairsInSample[from:] {
		for _, p := range m.Value {
			out.Add(p)
		}
	}
	return out
}

func (d *derivation) prediction(i int, elapsed float64, hs []*domain.Hypothesis) domain.Metric[[]string] {
	out := make([]string, len(hs))
	for k, h := range hs {
		out[k] = h.FD.String()
		if b, ok := d.in.Beliefs.Get(h.FD); ok {
			out[k] = b.FD.String()
		}
	}
	return domain.Metric[[]string]{IterNum: i, Value: out, ElapsedTime: elapsed}
}

// statedAt returns the statement made after sample i, falling back to the
// latest one recorded.
func (d *derivation) statedAt(i int) domain.StatedHypothesis {
	if i < len(d.in.Stated) {
		return d.in.Stated[i]
	}
	return d.in.Stated[len(d.in.Stated)-1]
}

func (d *derivation) score(i int, bayesian, hp []*domain.Hypothesis) error {
	fd, sure, err := domain.ParseStated(d.statedAt(i).Hypothesis)
	if err != nil {
		return err
	}
	var stated *domain.Hypothesis
	if sure {
		var ok bool
		if stated, ok = d.in.Space.Find(fd); !ok {
			return fmt.Errorf("%w: %s at iteration %d", domain.ErrUnmatchedHypothesis, fd, i)
		}
	}

	for model, ranked := range map[string][]*domain.Hypothesis{domain.ModelBayesian: bayesian, domain.ModelHP: hp} {
		for _, k := range domain.Cutoffs {
			var s domain.Score
			if stated != nil {
				s = ScoreOutput(stated, truncate(ranked, k))
			}
			ms := d.metrics.Scores[model][k]
			ms.Iterations = append(ms.Iterations, s)
		}
	}
	return nil
}

func (d *derivation) windows(i int, curr domain.RowSet, elapsed float64) {
	attrs := d.target.FD.Attributes()
	rowMarked := func(row int) bool {
		for _, a := range attrs {
			if d.in.Feedback.Marked(row, a, i) {
				return true
			}
		}
		return false
	}

	for _, w := range domain.Windows {
		window := d.in.Samples.Window(i-1, w.Back)
		marked, found, total := ViolationStats(curr, window, rowMarked, d.target.ViolationPairs)
		p := Precision(len(found), len(marked))
		r := Recall(len(found), len(total))

		wm := d.metrics.Windows[w.Name]
		wm.Precision = append(wm.Precision, domain.Metric[float64]{IterNum: i, Value: p, ElapsedTime: elapsed})
		wm.Recall = append(wm.Recall, domain.Metric[float64]{IterNum: i, Value: r, ElapsedTime: elapsed})
		wm.F1 = append(wm.F1, domain.Metric[float64]{IterNum: i, Value: F1(p, r), ElapsedTime: elapsed})
		wm.Marked = append(wm.Marked, domain.Metric[domain.PairSet]{IterNum: i, Value: marked, ElapsedTime: elapsed})
		wm.Found = append(wm.Found, domain.Metric[domain.PairSet]{IterNum: i, Value: found, ElapsedTime: elapsed})
		wm.Total = append(wm.Total, domain.Metric[domain.PairSet]{IterNum: i, Value: total, ElapsedTime: elapsed})
	}
}

// cumulative accumulates the short-term sets over every iteration so far,
// once counting repeats and once as distinct pairs.
func (d *derivation) cumulative(i int, elapsed float64) {
	st := d.metrics.ShortTerm()
	var p, r, pNo, rNo float64
	if i == 1 {
		p, r = st.Precision[0].Value, st.Recall[0].Value
		pNo, rNo = p, r
	} else {
		var found, marked, total int
		foundSet, markedSet, totalSet := make(domain.PairSet), make(domain.PairSet), make(domain.PairSet)
		for k := range st.Found {
			found += len(st.Found[k].Value)
			marked += len(st.Marked[k].Value)
			total += len(st.Total[k].Value)
			foundSet.Union(st.Found[k].Value)
			markedSet.Union(st.Marked[k].Value)
			totalSet.Union(st.Total[k].Value)
		}
		p, r = Precision(found, marked), Recall(found, total)
		pNo, rNo = Precision(len(foundSet), len(markedSet)), Recall(len(foundSet), len(totalSet))
	}
	appendAccuracy(&d.metrics.Cumulative, i, elapsed, p, r)
	appendAccuracy(&d.metrics.CumulativeNoOverlap, i, elapsed, pNo, rNo)
}

func appendAccuracy(a *domain.Accuracy, i int, elapsed, p, r float64) {
	a.Precision = append(a.Precision, domain.Metric[float64]{IterNum: i, Value: p, ElapsedTime: elapsed})
	a.Recall = append(a.Recall, domain.Metric[float64]{IterNum: i, Value: r, ElapsedTime: elapsed})
	a.F1 = append(a.F1, domain.Metric[float64]{IterNum: i, Value: F1(p, r), ElapsedTime: elapsed})
}

// rates averages every score series over the iterations derived.
func (d *derivation) rates() error {
	for _, byCutoff := range d.metrics.Scores {
		for _, ms := range byCutoff {
			if len(ms.Iterations) == 0 {
				continue
			}
			series := make([][]float64, 4)
			for _, s := range ms.Iterations {
				series[0] = append(series[0], s.Match)
				series[1] = append(series[1], s.MRR)
				series[2] = append(series[2], s.Penalty)
				series[3] = append(series[3], s.MRRPenalty)
			}
			means := make([]float64, 4)
			for k, xs := range series {
				m, err := stats.Mean(xs)
				if err != nil {
					return err
				}
				means[k] = m
			}
			ms.Rate = domain.Score{Match: means[0], MRR: means[1], Penalty: means[2], MRRPenalty: means[3]}
		}
	}
	return nil
}
