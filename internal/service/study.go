package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/Harshitk-cp/duo/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrStudyDone        = errors.New("study already finished")
	ErrNoSample         = errors.New("no sample awaiting feedback")
	ErrInvalidFeedback  = errors.New("invalid feedback")
	ErrScenarioRequired = errors.New("scenario_id is required")
	ErrInvalidConfig    = errors.New("invalid study config")
)

// StudyConfig holds the tunables of the belief model.
type StudyConfig struct {
	Smoothing   float64
	Variance    float64
	HPMemory    int
	HPThreshold float64
}

// Validate rejects tunables that make a prior degenerate. A memory of 0
// and a decision threshold of 0 are valid.
func (c StudyConfig) Validate() error {
	switch {
	case c.Smoothing <= 0 || c.Smoothing >= 1:
		return fmt.Errorf("%w: smoothing %v not in (0, 1)", ErrInvalidConfig, c.Smoothing)
	case c.Variance <= 0:
		return fmt.Errorf("%w: variance %v must be positive", ErrInvalidConfig, c.Variance)
	case c.HPMemory < 0:
		return fmt.Errorf("%w: negative memory %d", ErrInvalidConfig, c.HPMemory)
	case c.HPThreshold < 0 || c.HPThreshold > 1:
		return fmt.Errorf("%w: decision threshold %v not in [0, 1]", ErrInvalidConfig, c.HPThreshold)
	}
	return nil
}

func DefaultStudyConfig() StudyConfig {
	return StudyConfig{
		Smoothing:   DefaultBayesianSmoothing,
		Variance:    DefaultPriorVariance,
		HPMemory:    DefaultHPMemory,
		HPThreshold: DefaultHPDecisionThreshold,
	}
}

type ImportRequest struct {
	ScenarioID string
	Hypothesis string
	Comment    string
}

type FeedbackRequest struct {
	Marks      domain.Marks
	Hypothesis string
	Comment    string
}

type FeedbackResult struct {
	Done   bool
	Sample Sample
	Rows   []SampleRow

	// Feedback holds the carried-forward marks of every cell of Sample.
	Feedback []domain.CellMark
	Metrics  *domain.StudyMetrics
}

// StudyService drives study sessions. Iterations of one project never
// overlap; distinct projects run concurrently.
type StudyService struct {
	projects  domain.ProjectStore
	scenarios domain.ScenarioSource
	sampler   *Sampler
	cfg       StudyConfig
	logger    *zap.Logger
	now       func() time.Time

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func NewStudyService(ps domain.ProjectStore, ss domain.ScenarioSource, sampler *Sampler, cfg StudyConfig, logger *zap.Logger) *StudyService {
	return &StudyService{
		projects:  ps,
		scenarios: ss,
		sampler:   sampler,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *StudyService) lock(id uuid.UUID) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	s.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

// Import starts a session on a scenario with the user's initial hypothesis.
func (s *StudyService) Import(ctx context.Context, req ImportRequest) (*domain.Project, error) {
	if req.ScenarioID == "" {
		return nil, ErrScenarioRequired
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	scenario, err := s.scenarios.Get(ctx, req.ScenarioID)
	if err != nil {
		return nil, err
	}

	hypothesis := req.Hypothesis
	if hypothesis == "" {
		hypothesis = domain.NotSure
	}
	beliefs, err := InitializeBeliefs(scenario.Space, hypothesis, s.cfg.Smoothing, s.cfg.Variance)
	if err != nil {
		if errors.Is(err, domain.ErrUnmatchedHypothesis) {
			s.logger.Warn("initial hypothesis not in hypothesis space",
				zap.String("scenario_id", scenario.ID),
				zap.String("hypothesis", hypothesis))
		}
		return nil, err
	}

	now := s.now()
	p := &domain.Project{
		ID:        uuid.New(),
		Scenario:  scenario,
		Beliefs:   beliefs,
		Feedback:  domain.NewFeedbackHistory(),
		Stated:    []domain.StatedHypothesis{{IterNum: 0, Hypothesis: hypothesis, Comment: req.Comment}},
		StartedAt: now,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		s.logger.Error("failed to create project", zap.Error(err))
		return nil, err
	}

	s.logger.Info("study imported",
		zap.String("project_id", p.ID.String()),
		zap.String("scenario_id", scenario.ID),
		zap.Int("hypotheses", scenario.Space.Len()))
	return p, nil
}

func (s *StudyService) load(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return p, nil
}

// Sample returns the rows awaiting feedback, drawing them first if none are
// outstanding.
func (s *StudyService) Sample(ctx context.Context, id uuid.UUID) (*domain.Project, Sample, error) {
	unlock := s.lock(id)
	defer unlock()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, Sample{}, err
	}
	if p.Done {
		return p, Sample{}, ErrStudyDone
	}
	if len(p.CurrentRows) > 0 {
		return p, Sample{Rows: p.CurrentRows, Pairs: p.CurrentPairs}, nil
	}

	sample, err := s.draw(p)
	if err != nil {
		return nil, Sample{}, err
	}
	p.CurrentRows, p.CurrentPairs = sample.Rows, sample.Pairs
	if err := s.projects.Update(ctx, p); err != nil {
		s.logger.Error("failed to save sample", zap.String("project_id", id.String()), zap.Error(err))
		return nil, Sample{}, err
	}
	return p, sample, nil
}

func (s *StudyService) draw(p *domain.Project) (Sample, error) {
	sc := p.Scenario
	return s.sampler.NextSample(SampleRequest{
		Data:         sc.Dirty,
		Space:        sc.Space,
		Beliefs:      p.Beliefs,
		Target:       sc.Target,
		Alternatives: sc.Alternatives,
		Size:         sc.SampleSize,
		Method:       sc.Method,
		TargetRatio:  sc.TargetRatio,
		AltRatio:     sc.AltRatio,
		RowWeights:   sc.RowWeights,
	})
}

func (s *StudyService) validateMarks(p *domain.Project, marks domain.Marks) error {
	shown := domain.NewRowSet(p.CurrentRows...)
	cols := make(map[string]bool, len(p.Scenario.Dirty.Columns))
	for _, c := range p.Scenario.Dirty.Columns {
		cols[c] = true
	}
	for row, m := range marks {
		if !shown.Has(row) {
			return fmt.Errorf("%w: row %d was not in the sample", ErrInvalidFeedback, row)
		}
		for col := range m {
			if !cols[col] {
				return fmt.Errorf("%w: unknown column %q", ErrInvalidFeedback, col)
			}
		}
	}
	return nil
}

// Feedback records the user's marks on the outstanding sample, updates the
// beliefs, re-derives the study metrics and draws the next sample unless
// the study has converged.
func (s *StudyService) Feedback(ctx context.Context, id uuid.UUID, req FeedbackRequest) (*FeedbackResult, error) {
	unlock := s.lock(id)
	defer unlock()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Done {
		return nil, ErrStudyDone
	}
	if len(p.CurrentRows) == 0 {
		return nil, ErrNoSample
	}
	if err := s.validateMarks(p, req.Marks); err != nil {
		return nil, err
	}

	hypothesis := req.Hypothesis
	if hypothesis == "" {
		hypothesis = domain.NotSure
	}
	fd, sure, err := domain.ParseStated(hypothesis)
	if err != nil {
		return nil, err
	}
	if sure {
		if _, ok := p.Scenario.Space.Find(fd); !ok {
			s.logger.Warn("stated hypothesis not in hypothesis space",
				zap.String("project_id", id.String()),
				zap.String("hypothesis", hypothesis))
			return nil, fmt.Errorf("%w: %s", domain.ErrUnmatchedHypothesis, fd)
		}
	}

	iter := p.Iteration + 1
	elapsed := p.Elapsed(s.now())
	p.Samples = append(p.Samples, domain.SampleRecord{IterNum: iter, Rows: p.CurrentRows, ElapsedTime: elapsed})
	// Every shown cell gets an entry, so a re-shown row never inherits a
	// mark the user cleared.
	p.Feedback.Record(req.Marks.Complete(p.CurrentRows, p.Scenario.Dirty.Columns), iter, elapsed)
	p.Stated = append(p.Stated, domain.StatedHypothesis{IterNum: iter, Hypothesis: hypothesis, Comment: req.Comment, ElapsedTime: elapsed})

	if err := ApplyFeedback(p.Beliefs, p.Scenario.Space, p.Feedback.At(iter), p.CurrentRows, p.CurrentPairs, iter, elapsed, s.logger); err != nil {
		return nil, err
	}
	p.Beliefs.Normalize(p.Beliefs.Confidences(), iter, elapsed)
	p.Iteration = iter

	metrics, derived, done, err := s.derive(p)
	if err != nil {
		return nil, err
	}
	if metrics != nil {
		p.Metrics = metrics
		p.Beliefs.AdoptDerived(derived)
	}
	p.Done = done

	var next Sample
	p.CurrentRows, p.CurrentPairs = nil, nil
	if !done {
		if next, err = s.draw(p); err != nil {
			return nil, err
		}
		p.CurrentRows, p.CurrentPairs = next.Rows, next.Pairs
	}

	if err := s.projects.Update(ctx, p); err != nil {
		s.logger.Error("failed to save iteration",
			zap.String("project_id", id.String()),
			zap.Int("iter", iter),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("iteration recorded",
		zap.String("project_id", id.String()),
		zap.Int("iter", iter),
		zap.Bool("done", done))
	return &FeedbackResult{
		Done:     done,
		Sample:   next,
		Rows:     next.View(p.Scenario.Dirty),
		Feedback: p.Feedback.View(next.Rows, p.Scenario.Dirty.Columns, iter),
		Metrics:  p.Metrics,
	}, nil
}

// derive re-derives the metrics and accuracy series of p. An unmatched
// hypothesis aborts the derivation for this iteration without failing it.
func (s *StudyService) derive(p *domain.Project) (*domain.StudyMetrics, *domain.BeliefStore, bool, error) {
	metrics, derived, done, err := DeriveMetrics(DeriveInput{
		Space:    p.Scenario.Space,
		Beliefs:  p.Beliefs,
		Target:   p.Scenario.Target,
		Samples:  p.Samples,
		Feedback: p.Feedback,
		Stated:   p.Stated,
		Config:   s.cfg,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnmatchedHypothesis) {
			s.logger.Warn("metric derivation aborted",
				zap.String("project_id", p.ID.String()),
				zap.Error(err))
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	return metrics, derived, done, nil
}

// Metrics re-derives the study metrics of a project from its recorded
// histories and stores the result.
func (s *StudyService) Metrics(ctx context.Context, id uuid.UUID) (*domain.StudyMetrics, bool, error) {
	unlock := s.lock(id)
	defer unlock()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, false, err
	}
	metrics, derived, done, err := s.derive(p)
	if err != nil {
		return nil, false, err
	}
	if metrics == nil {
		return p.Metrics, p.Done, nil
	}
	p.Metrics = metrics
	p.Beliefs.AdoptDerived(derived)
	if err := s.projects.Update(ctx, p); err != nil {
		s.logger.Error("failed to save metrics", zap.String("project_id", id.String()), zap.Error(err))
		return nil, false, err
	}
	return metrics, done, nil
}

// Beliefs summarises the current belief of every hypothesis of a project.
func (s *StudyService) Beliefs(ctx context.Context, id uuid.UUID, level float64) ([]BeliefSummary, error) {
	unlock := s.lock(id)
	defer unlock()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return SummarizeBeliefs(p.Beliefs, level), nil
}
