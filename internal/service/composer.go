package service

import (
	"fmt"

	"github.com/Harshitk-cp/duo/internal/domain"
)

// ComposeInput describes one hypothesis space construction.
type ComposeInput struct {
	Primitives []*domain.Hypothesis
	// PriorSpace, when set, fixes the textual order of composed keys and is
	// emitted ahead of the new candidates.
	PriorSpace    *domain.HypothesisSpace
	Dirty         *domain.Dataset
	Clean         *domain.Dataset
	MinConfidence float64
	MaxAntecedent int
}

// candidate is a composed constraint together with the primitives it was
// built from.
type candidate struct {
	fd     domain.FD
	leaves []*domain.Hypothesis
}

type combo struct{ a, b string }

type composer struct {
	in     ComposeInput
	combos map[combo]bool
}

// ComposeHypothesisSpace combines primitive constraints pairwise, then once
// more over the result, into higher-arity candidates.
func ComposeHypothesisSpace(in ComposeInput) (*domain.HypothesisSpace, error) {
	for _, p := range in.Primitives {
		if err := p.FD.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedHypothesis, p.FD, err)
		}
	}

	c := &composer{in: in, combos: make(map[combo]bool)}

	first := make([]candidate, 0, len(in.Primitives))
	for _, p := range in.Primitives {
		first = append(first, candidate{fd: p.FD, leaves: []*domain.Hypothesis{p}})
	}
	first = dedupe(first)

	second := c.round(first)
	final := c.round(second)

	space := domain.NewHypothesisSpace()
	if in.PriorSpace != nil {
		for _, h := range in.PriorSpace.Hypotheses {
			space.Add(h)
		}
	}
	for _, cand := range final {
		if _, ok := space.Find(cand.fd); ok {
			continue
		}
		if len(cand.fd.LHS) > in.MaxAntecedent {
			continue
		}
		h := c.record(cand)
		if in.Clean != nil && h.Confidence() < in.MinConfidence {
			continue
		}
		space.Add(h)
	}
	return space, nil
}

func dedupe(cands []candidate) []candidate {
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		if seen[c.fd.Key()] {
			continue
		}
		seen[c.fd.Key()] = true
		out = append(out, c)
	}
	return out
}

// round returns cands followed by every new composition of two of them.
func (c *composer) round(cands []candidate) []candidate {
	out := append([]candidate(nil), cands...)
	seen := make(map[string]bool, len(cands))
	for _, cand := range cands {
		seen[cand.fd.Key()] = true
	}

	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			a, b := cands[i], cands[j]
			if a.fd.Equal(b.fd) || c.combos[combo{a.fd.Key(), b.fd.Key()}] || c.combos[combo{b.fd.Key(), a.fd.Key()}] {
				continue
			}
			if overlaps(a.fd.RHSSet(), b.fd.LHSSet()) || overlaps(b.fd.RHSSet(), a.fd.LHSSet()) {
				continue
			}
			fd, ok := c.compose(a.fd, b.fd)
			if !ok {
				continue
			}
			c.combos[combo{a.fd.Key(), b.fd.Key()}] = true
			if seen[fd.Key()] {
				continue
			}
			seen[fd.Key()] = true
			out = append(out, candidate{fd: fd, leaves: mergeLeaves(a.leaves, b.leaves)})
		}
	}
	return out
}

// compose unions both sides of a and b, reusing the token order of an
// existing prior-space entry where one matches.
func (c *composer) compose(a, b domain.FD) (domain.FD, bool) {
	fd := domain.FD{LHS: unionTokens(a.LHS, b.LHS), RHS: unionTokens(a.RHS, b.RHS)}
	if len(fd.LHS) > c.in.MaxAntecedent {
		return domain.FD{}, false
	}
	if err := fd.Validate(); err != nil {
		return domain.FD{}, false
	}
	if prior, ok := c.in.PriorSpace.FindLHS(fd); ok {
		fd.LHS = append([]string(nil), prior.FD.LHS...)
	}
	if prior, ok := c.in.PriorSpace.Find(fd); ok {
		fd.RHS = append([]string(nil), prior.FD.RHS...)
	}
	return fd, true
}

// record computes support and violations of a candidate, from the dirty
// data when available and from its primitives otherwise.
func (c *composer) record(cand candidate) *domain.Hypothesis {
	if len(cand.leaves) == 1 && cand.leaves[0].FD.Equal(cand.fd) {
		if c.in.Dirty == nil || cand.leaves[0].Support != nil {
			return cand.leaves[0]
		}
	}
	if c.in.Dirty != nil {
		return NewHypothesis(c.in.Dirty, c.in.Clean, cand.fd)
	}

	h := &domain.Hypothesis{
		FD:             cand.fd,
		Violations:     make(domain.RowSet),
		ViolationPairs: make(domain.PairSet),
	}
	for i, leaf := range cand.leaves {
		for r := range leaf.Violations {
			h.Violations.Add(r)
		}
		h.ViolationPairs.Union(leaf.ViolationPairs)
		if i == 0 {
			h.Support = append([]int(nil), leaf.Support...)
			continue
		}
		h.Support = intersect(h.Support, leaf.Support)
	}
	return h
}

func unionTokens(a, b []string) []string {
	out := append([]string(nil), a...)
	seen := make(map[string]bool, len(a)+len(b))
	for _, t := range a {
		seen[t] = true
	}
	for _, t := range b {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func overlaps(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

func mergeLeaves(a, b []*domain.Hypothesis) []*domain.Hypothesis {
	out := append([]*domain.Hypothesis(nil), a...)
	seen := make(map[string]bool, len(a)+len(b))
	for _, h := range a {
		seen[h.FD.Key()] = true
	}
	for _, h := range b {
		if !seen[h.FD.Key()] {
			seen[h.FD.Key()] = true
			out = append(out, h)
		}
	}
	return out
}

func intersect(a, b []int) []int {
	in := domain.NewRowSet(b...)
	out := make([]int, 0, len(a))
	for _, r := range a {
		if in.Has(r) {
			out = append(out, r)
		}
	}
	return out
}
