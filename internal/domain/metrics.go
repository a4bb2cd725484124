package domain

// Memory windows over the samples shown so far.
const (
	WindowShortTerm = "st"
	WindowMidTerm   = "mt"
	WindowMidTerm2  = "mt_2"
	WindowMidTerm3  = "mt_3"
	WindowLongTerm  = "lt"
)

// Windows lists every memory window with the number of prior samples it
// spans. -1 spans the whole history.
var Windows = []struct {
	Name string
	Back int
}{
	{WindowShortTerm, 0},
	{WindowMidTerm, 1},
	{WindowMidTerm2, 2},
	{WindowMidTerm3, 3},
	{WindowLongTerm, -1},
}

// Prediction models.
const (
	ModelBayesian = "bayesian"
	ModelHP       = "hp"
)

// Cutoffs are the top-k lengths each prediction is scored at.
var Cutoffs = []int{1, 3, 5}

// WindowMetrics is the user's marking accuracy against the target's
// violations for one memory window, one entry per iteration.
type WindowMetrics struct {
	Precision []Metric[float64] `json:"precision"`
	Recall    []Metric[float64] `json:"recall"`
	F1        []Metric[float64] `json:"f1"`
	Marked    []Metric[PairSet] `json:"vios_marked"`
	Found     []Metric[PairSet] `json:"vios_found"`
	Total     []Metric[PairSet] `json:"vios_total"`
}

// Accuracy is a precision/recall/F1 triple series.
type Accuracy struct {
	Precision []Metric[float64] `json:"precision"`
	Recall    []Metric[float64] `json:"recall"`
	F1        []Metric[float64] `json:"f1"`
}

// Score is one ranking scored against the user's stated hypothesis.
// Penalty credits lenient (superset/subset) matches discounted by F1 gap.
type Score struct {
	Match      float64 `json:"match"`
	MRR        float64 `json:"mrr"`
	Penalty    float64 `json:"match_penalty"`
	MRRPenalty float64 `json:"mrr_penalty"`
}

// ModelScores is the score series of one model at one cutoff, with the
// per-field mean over all iterations.
type ModelScores struct {
	Iterations []Score `json:"iterations"`
	Rate       Score   `json:"rate"`
}

// StudyMetrics is everything derived from the recorded histories of a run.
type StudyMetrics struct {
	Windows             map[string]*WindowMetrics       `json:"windows"`
	Cumulative          Accuracy                        `json:"cumulative"`
	CumulativeNoOverlap Accuracy                        `json:"cumulative_noover"`
	BayesianPrediction  []Metric[[]string]              `json:"bayesian_prediction"`
	HPPrediction        []Metric[[]string]              `json:"hp_prediction"`
	Scores              map[string]map[int]*ModelScores `json:"scores"`
}

func NewStudyMetrics() *StudyMetrics {
	m := &StudyMetrics{
		Windows: make(map[string]*WindowMetrics, len(Windows)),
		Scores:  make(map[string]map[int]*ModelScores, 2),
	}
	for _, w := range Windows {
		m.Windows[w.Name] = &WindowMetrics{}
	}
	for _, model := range []string{ModelBayesian, ModelHP} {
		m.Scores[model] = make(map[int]*ModelScores, len(Cutoffs))
		for _, k := range Cutoffs {
			m.Scores[model][k] = &ModelScores{}
		}
	}
	return m
}

// ShortTerm returns the current-sample window.
func (m *StudyMetrics) ShortTerm() *WindowMetrics {
	return m.Windows[WindowShortTerm]
}

// Values strips a metric series down to its values.
func Values(ms []Metric[float64]) []float64 {
	out := make([]float64, len(ms))
	for i, m := range ms {
		out[i] = m.Value
	}
	return out
}
