package service

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/duo/internal/domain"
)

// drawsPerRow bounds the weighted policy's attempts at size*drawsPerRow.
const drawsPerRow = 100

// SampleRequest describes the next batch of rows to draw.
type SampleRequest struct {
	Data         *domain.Dataset
	Space        *domain.HypothesisSpace
	Beliefs      *domain.BeliefStore
	Target       domain.FD
	Alternatives []domain.FD
	Size         int
	Method       domain.SamplingMethod
	TargetRatio  float64
	AltRatio     float64
	// RowWeights drive the weighted policy. Nil means uniform.
	RowWeights map[int]float64
}

// Sample is a drawn batch and the target violation pairs it carries.
type Sample struct {
	Rows  []int         `json:"rows"`
	Pairs []domain.Pair `json:"pairs"`
}

// SampleRow is one sampled row with its cell values.
type SampleRow struct {
	ID     int               `json:"id"`
	Values map[string]string `json:"values"`
}

// View returns the rows of s as they appear in data, in sample order.
func (s Sample) View(data *domain.Dataset) []SampleRow {
	out := make([]SampleRow, 0, len(s.Rows))
	for _, r := range s.Rows {
		out = append(out, SampleRow{ID: r, Values: data.Row(r)})
	}
	return out
}

// Sampler draws samples from a single seeded source. It is safe for
// concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a sampler seeded with seed, or with the clock when
// seed is 0.
func NewSampler(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// NextSample draws rows according to req.Method.
func (s *Sampler) NextSample(req SampleRequest) (Sample, error) {
	target, ok := req.Space.Find(req.Target)
	if !ok {
		return Sample{}, domain.ErrUnmatchedHypothesis
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Method == domain.SamplingWeighted {
		return s.weighted(req, target), nil
	}

	alt := make(domain.PairSet)
	for _, fd := range req.Alternatives {
		h, ok := req.Space.Find(fd)
		if !ok {
			return Sample{}, domain.ErrUnmatchedHypothesis
		}
		alt.Union(h.ViolationPairs)
	}
	return s.ratio(req, target, alt), nil
}

func (s *Sampler) ratio(req SampleRequest, target *domain.Hypothesis, alt domain.PairSet) Sample {
	budget := float64(req.Size) / 2

	rows := make(domain.RowSet)
	var order []int
	add := func(r int) {
		if !rows.Has(r) {
			rows.Add(r)
			order = append(order, r)
		}
	}

	altOut := s.choosePairs(alt.Sorted(), int(math.Ceil(req.AltRatio*budget)))
	for _, p := range altOut {
		add(p.A)
		add(p.B)
	}
	targetOut := s.choosePairs(target.ViolationPairs.Sorted(), int(math.Ceil(req.TargetRatio*budget)))
	for _, p := range targetOut {
		add(p.A)
		add(p.B)
	}

	// Filler rows avoid the alternative pairs and the target pairs picked
	// above. Target pairs left out of this sample are not excluded.
	excluded := domain.NewPairSet(targetOut...)
	excluded.Union(alt)
	busy := make(domain.RowSet)
	for p := range excluded {
		busy.Add(p.A)
		busy.Add(p.B)
	}
	var pool []int
	for _, r := range req.Data.RowIDs() {
		if !busy.Has(r) && !rows.Has(r) {
			pool = append(pool, r)
		}
	}
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	for _, r := range pool {
		if len(order) >= req.Size {
			break
		}
		add(r)
	}

	s.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	domain.SortPairs(targetOut)
	return Sample{Rows: order, Pairs: targetOut}
}

// choosePairs draws k pairs without replacement, or all of them when there
// are not more than k.
func (s *Sampler) choosePairs(pairs []domain.Pair, k int) []domain.Pair {
	if k <= 0 {
		return nil
	}
	if len(pairs) <= k {
		return append([]domain.Pair(nil), pairs...)
	}
	idx := s.rng.Perm(len(pairs))[:k]
	out := make([]domain.Pair, k)
	for i, j := range idx {
		out[i] = pairs[j]
	}
	return out
}

func (s *Sampler) weighted(req SampleRequest, target *domain.Hypothesis) Sample {
	rowIDs, rowWeights := positiveRowWeights(req.Data, req.RowWeights)
	if len(rowIDs) == 0 || req.Size <= 0 || req.Space.Len() == 0 {
		return Sample{}
	}

	fdWeights := make([]float64, req.Space.Len())
	for i, h := range req.Space.Hypotheses {
		if b, ok := req.Beliefs.Get(h.FD); ok {
			fdWeights[i] = b.Conf
		}
	}

	rows := make(domain.RowSet)
	var order []int
	add := func(r int) {
		if len(order) < req.Size && !rows.Has(r) {
			rows.Add(r)
			order = append(order, r)
		}
	}
	// A violation pair enters whole or not at all.
	addPair := func(p domain.Pair) {
		need := 0
		for _, r := range []int{p.A, p.B} {
			if !rows.Has(r) {
				need++
			}
		}
		if len(order)+need > req.Size {
			return
		}
		add(p.A)
		add(p.B)
	}

	for draws := 0; draws < req.Size*drawsPerRow; draws++ {
		h := req.Space.Hypotheses[s.pick(fdWeights)]
		if len(h.Violations) <= 1 || len(h.ViolationPairs) == 0 {
			add(rowIDs[s.pick(rowWeights)])
			add(rowIDs[s.pick(rowWeights)])
		} else {
			pairs := h.ViolationPairs.Sorted()
			addPair(pairs[s.rng.Intn(len(pairs))])
		}
		if len(order) >= req.Size || len(order) >= len(rowIDs) {
			break
		}
	}

	s.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return Sample{Rows: order, Pairs: target.PairsWithin(rows).Sorted()}
}

// pick returns an index drawn with probability proportional to weights,
// uniformly when every weight is zero.
func (s *Sampler) pick(weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return s.rng.Intn(len(weights))
	}
	x := s.rng.Float64() * total
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		x -= w
		if x < 0 {
			return i
		}
	}
	return last
}

func positiveRowWeights(data *domain.Dataset, weights map[int]float64) ([]int, []float64) {
	var ids []int
	var ws []float64
	if weights == nil {
		for _, r := range data.RowIDs() {
			ids = append(ids, r)
			ws = append(ws, 1)
		}
		return ids, ws
	}
	for r, w := range weights {
		if w > 0 {
			ids = append(ids, r)
		}
	}
	sort.Ints(ids)
	for _, r := range ids {
		ws = append(ws, weights[r])
	}
	return ids, ws
}
