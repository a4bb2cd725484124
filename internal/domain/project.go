package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrScenarioNotFound = errors.New("scenario not found")

type SamplingMethod string

const (
	SamplingRatio    SamplingMethod = "RATIO"
	SamplingWeighted SamplingMethod = "WEIGHTED"
)

func ValidSamplingMethod(s string) bool {
	switch SamplingMethod(s) {
	case SamplingRatio, SamplingWeighted:
		return true
	}
	return false
}

// Scenario is a fully built study setup: the data, the hypothesis space and
// how samples are drawn from it.
type Scenario struct {
	ID           string           `json:"id"`
	Dirty        *Dataset         `json:"dirty"`
	Clean        *Dataset         `json:"clean,omitempty"`
	Space        *HypothesisSpace `json:"hypothesis_space"`
	Target       FD               `json:"target_fd"`
	Alternatives []FD             `json:"alt_h"`
	SampleSize   int              `json:"sample_size"`
	TargetRatio  float64          `json:"target_h_sample_ratio"`
	AltRatio     float64          `json:"alt_h_sample_ratio"`
	Method       SamplingMethod   `json:"sampling_method"`
	RowWeights   map[int]float64  `json:"tuple_weights,omitempty"`
}

// Project is the persisted state of one study session.
type Project struct {
	ID           uuid.UUID          `json:"id"`
	Scenario     *Scenario          `json:"scenario,omitempty"`
	Beliefs      *BeliefStore       `json:"fd_metadata"`
	Samples      SampleHistory      `json:"sample_history"`
	Feedback     *FeedbackHistory   `json:"feedback_history"`
	Stated       []StatedHypothesis `json:"user_hypothesis_history"`
	Metrics      *StudyMetrics      `json:"study_metrics,omitempty"`
	CurrentRows  []int              `json:"current_sample"`
	CurrentPairs []Pair             `json:"current_X"`
	Iteration    int                `json:"current_iter"`
	Done         bool               `json:"done"`
	StartedAt    time.Time          `json:"start_time"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Elapsed returns seconds since the session started.
func (p *Project) Elapsed(now time.Time) float64 {
	return now.Sub(p.StartedAt).Seconds()
}
