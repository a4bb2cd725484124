package service

import "testing"

func TestShouldTerminate(t *testing.T) {
	tests := []struct {
		name        string
		precision   []float64
		recall      []float64
		markedEmpty bool
		want        bool
	}{
		{"settled", []float64{0.79, 0.80, 0.82}, []float64{0.55, 0.60, 0.65}, false, true},
		{"settled with longer history", []float64{0.1, 0.9, 0.9, 0.9}, []float64{0.2, 0.7, 0.7, 0.7}, false, true},
		{"tight drift at moderate recall", []float64{0.85, 0.86, 0.87}, []float64{0.52, 0.54, 0.55}, false, true},
		{"too few iterations", []float64{0.9, 0.9}, []float64{0.9, 0.9}, false, false},
		{"nothing marked last", []float64{0.9, 0.9, 0.9}, []float64{0.9, 0.9, 0.9}, true, false},
		{"low precision", []float64{0.9, 0.9, 0.7}, []float64{0.9, 0.9, 0.9}, false, false},
		{"precision drifting", []float64{0.6, 0.85, 0.9}, []float64{0.9, 0.9, 0.9}, false, false},
		{"recall drifting", []float64{0.9, 0.9, 0.9}, []float64{0.3, 0.5, 0.7}, false, false},
		{"moderate recall loose drift", []float64{0.78, 0.85, 0.92}, []float64{0.5, 0.52, 0.55}, false, false},
		{"low recall", []float64{0.9, 0.9, 0.9}, []float64{0.4, 0.4, 0.4}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldTerminate(tt.precision, tt.recall, tt.markedEmpty); got != tt.want {
				t.Errorf("ShouldTerminate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldTerminateListedNewestFirst(t *testing.T) {
	// The histories below are listed newest first; ShouldTerminate takes
	// them oldest first.
	precision := reversed([]float64{0.82, 0.80, 0.79})
	recall := reversed([]float64{0.65, 0.60, 0.55})

	if !ShouldTerminate(precision, recall, false) {
		t.Errorf("ShouldTerminate(%v, %v) = false, want true", precision, recall)
	}
	if ShouldTerminate(precision, recall, true) {
		t.Errorf("ShouldTerminate with nothing marked last = true, want false")
	}
}

func reversed(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[len(xs)-1-i] = x
	}
	return out
}
