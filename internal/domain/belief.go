package domain

import "fmt"

// Metric is one iteration-stamped value of a study series.
type Metric[T any] struct {
	IterNum     int     `json:"iter_num"`
	Value       T       `json:"value"`
	ElapsedTime float64 `json:"elapsed_time"`
}

// Belief is the Beta-distribution confidence that a user is applying FD.
// Conf is always Alpha/(Alpha+Beta); Normalized is the comparison
// confidence across the whole store.
type Belief struct {
	FD         FD      `json:"fd"`
	Alpha      float64 `json:"alpha"`
	Beta       float64 `json:"beta"`
	Conf       float64 `json:"conf"`
	Normalized float64 `json:"normalized_conf"`

	AlphaHistory      []Metric[float64] `json:"alpha_history"`
	BetaHistory       []Metric[float64] `json:"beta_history"`
	ConfHistory       []Metric[float64] `json:"conf_history"`
	NormalizedHistory []Metric[float64] `json:"normalized_conf_history"`
	PrecisionHistory  []Metric[float64] `json:"precision_history"`
	RecallHistory     []Metric[float64] `json:"recall_history"`
	F1History         []Metric[float64] `json:"f1_history"`
	PairsInSample     []Metric[[]Pair]  `json:"vios_in_sample"`
}

func newBelief(fd FD, alpha, beta float64) *Belief {
	conf := alpha / (alpha + beta)
	return &Belief{
		FD:           fd,
		Alpha:        alpha,
		Beta:         beta,
		Conf:         conf,
		AlphaHistory: []Metric[float64]{{IterNum: 0, Value: alpha}},
		BetaHistory:  []Metric[float64]{{IterNum: 0, Value: beta}},
		ConfHistory:  []Metric[float64]{{IterNum: 0, Value: conf}},
	}
}

// LatestF1 returns the most recent F1 value, 0 before the first iteration.
func (b *Belief) LatestF1() float64 {
	if len(b.F1History) == 0 {
		return 0
	}
	return b.F1History[len(b.F1History)-1].Value
}

// BeliefStore owns the belief records of one run, one per hypothesis, in
// hypothesis-space order. Records are never removed.
type BeliefStore struct {
	Beliefs []*Belief `json:"beliefs"`
	index   map[string]int
}

func NewBeliefStore() *BeliefStore {
	return &BeliefStore{index: make(map[string]int)}
}

// Init creates the record for fd with its prior parameters.
func (s *BeliefStore) Init(fd FD, alpha, beta float64) (*Belief, error) {
	s.ensureIndex()
	if _, ok := s.index[fd.Key()]; ok {
		return nil, fmt.Errorf("belief for %s already initialised", fd)
	}
	b := newBelief(fd, alpha, beta)
	s.index[fd.Key()] = len(s.Beliefs)
	s.Beliefs = append(s.Beliefs, b)
	return b, nil
}

func (s *BeliefStore) ensureIndex() {
	if s.index != nil && len(s.index) == len(s.Beliefs) {
		return
	}
	s.index = make(map[string]int, len(s.Beliefs))
	for i, b := range s.Beliefs {
		s.index[b.FD.Key()] = i
	}
}

// Get returns the record whose FD has the same sets as fd.
func (s *BeliefStore) Get(fd FD) (*Belief, bool) {
	if s == nil {
		return nil, false
	}
	s.ensureIndex()
	i, ok := s.index[fd.Key()]
	if !ok {
		return nil, false
	}
	return s.Beliefs[i], true
}

func (s *BeliefStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Beliefs)
}

// AdoptDerived replaces the normalised confidence and the accuracy series
// of every record with those of the matching record in derived. Records
// without a match are left as they are.
func (s *BeliefStore) AdoptDerived(derived *BeliefStore) {
	if derived == nil {
		return
	}
	for _, b := range s.Beliefs {
		d, ok := derived.Get(b.FD)
		if !ok {
			continue
		}
		b.Normalized = d.Normalized
		b.NormalizedHistory = d.NormalizedHistory
		b.PrecisionHistory = d.PrecisionHistory
		b.RecallHistory = d.RecallHistory
		b.F1History = d.F1History
		b.PairsInSample = d.PairsInSample
	}
}

// Observe accumulates one iteration of evidence into fd's record.
func (s *BeliefStore) Observe(fd FD, successes, failures, iter int, elapsed float64) (*Belief, error) {
	b, ok := s.Get(fd)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnmatchedHypothesis, fd)
	}
	if successes < 0 || failures < 0 {
		return nil, fmt.Errorf("negative evidence for %s: %d/%d", fd, successes, failures)
	}
	b.Alpha += float64(successes)
	b.Beta += float64(failures)
	b.Conf = b.Alpha / (b.Alpha + b.Beta)
	b.AlphaHistory = append(b.AlphaHistory, Metric[float64]{IterNum: iter, Value: b.Alpha, ElapsedTime: elapsed})
	b.BetaHistory = append(b.BetaHistory, Metric[float64]{IterNum: iter, Value: b.Beta, ElapsedTime: elapsed})
	b.ConfHistory = append(b.ConfHistory, Metric[float64]{IterNum: iter, Value: b.Conf, ElapsedTime: elapsed})
	return b, nil
}

// Normalize rescales every record's comparison confidence so the store
// sums to 1, starting from weights (one per record, store order), and
// stamps the result into each NormalizedHistory.
func (s *BeliefStore) Normalize(weights []float64, iter int, elapsed float64) {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	for i, b := range s.Beliefs {
		v := 0.0
		if sum > 0 {
			v = weights[i] / sum
		}
		b.Normalized = v
		b.NormalizedHistory = append(b.NormalizedHistory, Metric[float64]{IterNum: iter, Value: v, ElapsedTime: elapsed})
	}
}

// Confidences returns each record's current Conf in store order.
func (s *BeliefStore) Confidences() []float64 {
	out := make([]float64, len(s.Beliefs))
	for i, b := range s.Beliefs {
		out[i] = b.Conf
	}
	return out
}
