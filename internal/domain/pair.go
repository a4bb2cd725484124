package domain

import (
	"encoding/json"
	"sort"
)

// Pair is an unordered pair of row ids stored as (min, max). A == B only
// for the self pairs that record a marked row outside any violation.
type Pair struct {
	A int
	B int
}

func NewPair(x, y int) Pair {
	if x > y {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// Contains reports whether row is a member of the pair.
func (p Pair) Contains(row int) bool {
	return p.A == row || p.B == row
}

func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.A, p.B})
}

func (p *Pair) UnmarshalJSON(b []byte) error {
	var v [2]int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = NewPair(v[0], v[1])
	return nil
}

// RowSet is a set of row ids. It marshals as a sorted array.
type RowSet map[int]struct{}

func NewRowSet(rows ...int) RowSet {
	s := make(RowSet, len(rows))
	for _, r := range rows {
		s[r] = struct{}{}
	}
	return s
}

func (s RowSet) Add(row int) { s[row] = struct{}{} }

func (s RowSet) Has(row int) bool {
	_, ok := s[row]
	return ok
}

// Sorted returns the members in ascending order.
func (s RowSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Ints(out)
	return out
}

func (s RowSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *RowSet) UnmarshalJSON(b []byte) error {
	var rows []int
	if err := json.Unmarshal(b, &rows); err != nil {
		return err
	}
	*s = NewRowSet(rows...)
	return nil
}

// PairSet is a set of pairs. It marshals as a sorted array of [a, b].
type PairSet map[Pair]struct{}

func NewPairSet(pairs ...Pair) PairSet {
	s := make(PairSet, len(pairs))
	for _, p := range pairs {
		s[p] = struct{}{}
	}
	return s
}

func (s PairSet) Add(p Pair) { s[p] = struct{}{} }

func (s PairSet) Has(p Pair) bool {
	_, ok := s[p]
	return ok
}

// Union adds every pair of o to s.
func (s PairSet) Union(o PairSet) {
	for p := range o {
		s[p] = struct{}{}
	}
}

// Clone returns an independent copy.
func (s PairSet) Clone() PairSet {
	c := make(PairSet, len(s))
	c.Union(s)
	return c
}

// Involving reports whether any pair in the set contains row.
func (s PairSet) Involving(row int) bool {
	for p := range s {
		if p.Contains(row) {
			return true
		}
	}
	return false
}

// Sorted returns the pairs ordered by (A, B).
func (s PairSet) Sorted() []Pair {
	out := make([]Pair, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	SortPairs(out)
	return out
}

func (s PairSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *PairSet) UnmarshalJSON(b []byte) error {
	var pairs []Pair
	if err := json.Unmarshal(b, &pairs); err != nil {
		return err
	}
	*s = NewPairSet(pairs...)
	return nil
}

func SortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
}
