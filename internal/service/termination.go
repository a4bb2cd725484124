package service

import "math"

const (
	terminationWindow       = 3
	terminationMinPrecision = 0.8
	terminationMaxDrift     = 0.1
	terminationHighRecall   = 0.6
	terminationLowRecall    = 0.5
	terminationTightDrift   = 0.05
)

// ShouldTerminate decides from the short-term precision and recall
// histories, oldest first, whether the user's marking has settled.
func ShouldTerminate(precision, recall []float64, lastMarkedEmpty bool) bool {
	if lastMarkedEmpty || len(precision) < terminationWindow || len(recall) < terminationWindow {
		return false
	}

	p1, p2, p3 := last3(precision)
	r1, r2, r3 := last3(recall)
	pd1, pd2 := math.Abs(p1-p2), math.Abs(p2-p3)
	rd1, rd2 := math.Abs(r1-r2), math.Abs(r2-r3)

	if p1 < terminationMinPrecision || pd1 > terminationMaxDrift || pd2 > terminationMaxDrift {
		return false
	}
	if r1 >= terminationHighRecall && rd1 <= terminationMaxDrift && rd2 <= terminationMaxDrift {
		return true
	}
	return r1 >= terminationLowRecall &&
		rd1 <= terminationTightDrift && rd2 <= terminationTightDrift &&
		pd1 <= terminationTightDrift && pd2 <= terminationTightDrift
}

// last3 returns the newest three values, newest first.
func last3(v []float64) (float64, float64, float64) {
	n := len(v)
	return v[n-1], v[n-2], v[n-3]
}
