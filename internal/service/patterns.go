package service

import (
	"strings"

	"github.com/Harshitk-cp/duo/internal/domain"
)

// rowPattern renders the tokens of one side of fd for row as
// "attr=value, ...". CFD constants are kept verbatim.
func rowPattern(data *domain.Dataset, row int, tokens []string) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		if _, ok := domain.AttrConstant(t); ok {
			parts[i] = t
			continue
		}
		parts[i] = t + "=" + data.Value(row, t)
	}
	return strings.Join(parts, ", ")
}

// matchesConstants reports whether row satisfies every constant in tokens.
func matchesConstants(data *domain.Dataset, row int, tokens []string) bool {
	for _, t := range tokens {
		if v, ok := domain.AttrConstant(t); ok && data.Value(row, domain.AttrName(t)) != v {
			return false
		}
	}
	return true
}

// Support returns the rows of data the LHS of fd applies to, in dataset
// order. For a plain FD that is every row.
func Support(data *domain.Dataset, fd domain.FD) []int {
	var rows []int
	for _, r := range data.RowIDs() {
		if matchesConstants(data, r, fd.LHS) {
			rows = append(rows, r)
		}
	}
	return rows
}

// ExtractPatterns maps every LHS pattern found in rows to its most frequent
// RHS patterns. Ties are listed in the order they were first seen.
func ExtractPatterns(data *domain.Dataset, rows []int, fd domain.FD) map[string][]string {
	type tally struct {
		order  []string
		counts map[string]int
	}
	tallies := make(map[string]*tally)
	for _, r := range rows {
		lp := rowPattern(data, r, fd.LHS)
		rp := rowPattern(data, r, fd.RHS)
		t, ok := tallies[lp]
		if !ok {
			t = &tally{counts: make(map[string]int)}
			tallies[lp] = t
		}
		if t.counts[rp] == 0 {
			t.order = append(t.order, rp)
		}
		t.counts[rp]++
	}

	out := make(map[string][]string, len(tallies))
	for lp, t := range tallies {
		best := 0
		for _, rp := range t.order {
			if t.counts[rp] > best {
				best = t.counts[rp]
			}
		}
		for _, rp := range t.order {
			if t.counts[rp] == best {
				out[lp] = append(out[lp], rp)
			}
		}
	}
	return out
}

// selectPatterns picks one RHS pattern per LHS pattern: the only mode, else
// the reference pattern when it is one of the modes, else the first mode.
func selectPatterns(modes map[string][]string, reference map[string]string) map[string]string {
	out := make(map[string]string, len(modes))
	for lp, rps := range modes {
		if len(rps) == 1 {
			out[lp] = rps[0]
			continue
		}
		out[lp] = rps[0]
		if ref, ok := reference[lp]; ok {
			for _, rp := range rps {
				if rp == ref {
					out[lp] = ref
					break
				}
			}
		}
	}
	return out
}

// SupportAndViolations computes the support of fd over dirty and the rows
// whose RHS disagrees with the pattern selected for their LHS. clean, when
// given, breaks ties between equally frequent dirty patterns.
func SupportAndViolations(dirty, clean *domain.Dataset, fd domain.FD) ([]int, domain.RowSet) {
	var reference map[string]string
	if clean != nil {
		reference = selectPatterns(ExtractPatterns(clean, Support(clean, fd), fd), nil)
	}

	support := Support(dirty, fd)
	selected := selectPatterns(ExtractPatterns(dirty, support, fd), reference)

	vios := make(domain.RowSet)
	for _, r := range support {
		if !matchesConstants(dirty, r, fd.RHS) || rowPattern(dirty, r, fd.RHS) != selected[rowPattern(dirty, r, fd.LHS)] {
			vios.Add(r)
		}
	}
	return support, vios
}

// ViolationPairs returns every pair of support rows that agree on the LHS
// of fd and disagree on at least one RHS attribute.
func ViolationPairs(data *domain.Dataset, support []int, fd domain.FD) domain.PairSet {
	groups := make(map[string][]int)
	var order []string
	for _, r := range support {
		lp := rowPattern(data, r, fd.LHS)
		if _, ok := groups[lp]; !ok {
			order = append(order, lp)
		}
		groups[lp] = append(groups[lp], r)
	}

	pairs := make(domain.PairSet)
	for _, lp := range order {
		rows := groups[lp]
		for i := 0; i < len(rows); i++ {
			for j := i + 1; j < len(rows); j++ {
				if rhsConflict(data, rows[i], rows[j], fd.RHS) {
					pairs.Add(domain.NewPair(rows[i], rows[j]))
				}
			}
		}
	}
	return pairs
}

func rhsConflict(data *domain.Dataset, x, y int, rhs []string) bool {
	for _, t := range rhs {
		name := domain.AttrName(t)
		if data.Value(x, name) != data.Value(y, name) {
			return true
		}
	}
	return false
}

// NewHypothesis builds the constraint record of fd over dirty.
func NewHypothesis(dirty, clean *domain.Dataset, fd domain.FD) *domain.Hypothesis {
	support, vios := SupportAndViolations(dirty, clean, fd)
	return &domain.Hypothesis{
		FD:             fd,
		Support:        support,
		Violations:     vios,
		ViolationPairs: ViolationPairs(dirty, support, fd),
	}
}
