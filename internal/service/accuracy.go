package service

import "github.com/Harshitk-cp/duo/internal/domain"

// emptyRatio is reported for a precision or recall whose denominator is 0.
const emptyRatio = 0.5

// ViolationStats classifies the target's violation pairs against the rows
// in window and the user's marks. A pair is total when both rows are in
// window and at least one is in curr; found and marked when the user marked
// either row. Marked rows of curr outside every marked pair are added to
// marked as self pairs.
func ViolationStats(curr, window domain.RowSet, rowMarked func(row int) bool, pairs domain.PairSet) (marked, found, total domain.PairSet) {
	marked = make(domain.PairSet)
	found = make(domain.PairSet)
	total = make(domain.PairSet)

	for _, p := range pairs.Sorted() {
		if !window.Has(p.A) || !window.Has(p.B) {
			continue
		}
		if !curr.Has(p.A) && !curr.Has(p.B) {
			continue
		}
		total.Add(p)
		if !rowMarked(p.A) && !rowMarked(p.B) {
			continue
		}
		marked.Add(p)
		found.Add(p)
	}

	for _, x := range curr.Sorted() {
		if marked.Involving(x) {
			continue
		}
		if rowMarked(x) {
			marked.Add(domain.NewPair(x, x))
		}
	}
	return marked, found, total
}

// Precision is found/marked, 0.5 when nothing was marked.
func Precision(found, marked int) float64 {
	if marked == 0 {
		return emptyRatio
	}
	return float64(found) / float64(marked)
}

// Recall is found/total, 0.5 when there was nothing to find.
func Recall(found, total int) float64 {
	if total == 0 {
		return emptyRatio
	}
	return float64(found) / float64(total)
}

// F1 is the harmonic mean of p and r, 0 when both are 0.
func F1(p, r float64) float64 {
	if p <= 0 && r <= 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// HypothesisAccuracy compares the violation pairs a hypothesis surfaced in
// recent samples with the target's. Empty sets score 0 rather than 0.5.
func HypothesisAccuracy(own, target domain.PairSet) (precision, recall, f1 float64) {
	overlap := 0
	for p := range own {
		if target.Has(p) {
			overlap++
		}
	}
	if len(own) > 0 {
		precision = float64(overlap) / float64(len(own))
	}
	if len(target) > 0 {
		recall = float64(overlap) / float64(len(target))
	}
	return precision, recall, F1(precision, recall)
}
