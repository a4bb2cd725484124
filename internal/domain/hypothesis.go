package domain

// Hypothesis is one candidate constraint with its support and violations
// over the dirty dataset. Conf and F1 are ground-truth scores supplied by
// the scenario when a clean reference exists.
type Hypothesis struct {
	FD             FD      `json:"fd"`
	Support        []int   `json:"support"`
	Violations     RowSet  `json:"vios"`
	ViolationPairs PairSet `json:"vio_pairs"`
	Conf           float64 `json:"conf"`
	F1             float64 `json:"f1"`
}

// Confidence is (|support| - |violations|) / |support|, 0 for empty support.
func (h *Hypothesis) Confidence() float64 {
	if len(h.Support) == 0 {
		return 0
	}
	return float64(len(h.Support)-len(h.Violations)) / float64(len(h.Support))
}

// PairsWithin returns the violation pairs whose rows are both in rows.
func (h *Hypothesis) PairsWithin(rows RowSet) PairSet {
	out := make(PairSet)
	for p := range h.ViolationPairs {
		if rows.Has(p.A) && rows.Has(p.B) {
			out.Add(p)
		}
	}
	return out
}

// HypothesisSpace is the ordered, static set of candidate constraints of a
// run. Lookups use set identity.
type HypothesisSpace struct {
	Hypotheses []*Hypothesis `json:"hypotheses"`
	index      map[string]int
}

func NewHypothesisSpace(hs ...*Hypothesis) *HypothesisSpace {
	s := &HypothesisSpace{}
	for _, h := range hs {
		s.Add(h)
	}
	return s
}

// Add appends h unless a hypothesis with the same identity exists.
// It reports whether h was added.
func (s *HypothesisSpace) Add(h *Hypothesis) bool {
	s.ensureIndex()
	k := h.FD.Key()
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.Hypotheses)
	s.Hypotheses = append(s.Hypotheses, h)
	return true
}

func (s *HypothesisSpace) ensureIndex() {
	if s.index != nil && len(s.index) == len(s.Hypotheses) {
		return
	}
	s.index = make(map[string]int, len(s.Hypotheses))
	for i, h := range s.Hypotheses {
		s.index[h.FD.Key()] = i
	}
}

// Find returns the hypothesis with the same LHS and RHS sets as fd.
func (s *HypothesisSpace) Find(fd FD) (*Hypothesis, bool) {
	if s == nil {
		return nil, false
	}
	s.ensureIndex()
	i, ok := s.index[fd.Key()]
	if !ok {
		return nil, false
	}
	return s.Hypotheses[i], true
}

// FindLHS returns the first hypothesis whose LHS set equals that of fd.
func (s *HypothesisSpace) FindLHS(fd FD) (*Hypothesis, bool) {
	if s == nil {
		return nil, false
	}
	k := fd.LHSKey()
	for _, h := range s.Hypotheses {
		if h.FD.LHSKey() == k {
			return h, true
		}
	}
	return nil, false
}

func (s *HypothesisSpace) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Hypotheses)
}
