// Package simulate drives study sessions with a scripted user whose own
// belief in the target constraint decides what it marks.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/Harshitk-cp/duo/internal/service"
	"go.uber.org/zap"
)

type UserKind string

const (
	// Oracle starts from the target's true confidence and never updates.
	Oracle UserKind = "oracle"
	// Informed starts near the target's observed confidence.
	Informed UserKind = "informed"
	// Uninformed starts from a flat prior.
	Uninformed UserKind = "uninformed"
)

type Decision string

const (
	CoinFlip  Decision = "coin-flip"
	Threshold Decision = "threshold"
)

// Focus shapes an oracle's marking to stress one accuracy measure.
type Focus string

const (
	FocusNone      Focus = ""
	FocusPrecision Focus = "precision"
	FocusRecall    Focus = "recall"
)

const (
	defaultMaxIterations = 30
	oracleVariance       = 0.00000001
	informedVariance     = 0.01
)

var ErrUnknownUser = errors.New("unknown simulated user")

type Options struct {
	ScenarioID    string
	User          UserKind
	Decision      Decision
	Focus         Focus
	MaxIterations int
	Seed          int64
}

// Result is the outcome of one simulated session.
type Result struct {
	ProjectID  string               `json:"project_id"`
	Iterations int                  `json:"iterations"`
	Done       bool                 `json:"done"`
	Alpha      []float64            `json:"alpha_history"`
	Beta       []float64            `json:"beta_history"`
	Metrics    *domain.StudyMetrics `json:"metrics,omitempty"`
}

// user is the simulated participant's private model of the target.
type user struct {
	kind     UserKind
	decision Decision
	focus    Focus
	rng      *rand.Rand

	target      *domain.Hypothesis
	alpha, beta float64
	oracleConf  float64
	pMax        float64

	markProb  float64
	maxMarked int

	alphaHistory []float64
	betaHistory  []float64
}

func newUser(opts Options, target *domain.Hypothesis) (*user, error) {
	u := &user{
		kind:      opts.User,
		decision:  opts.Decision,
		focus:     opts.Focus,
		rng:       rand.New(rand.NewSource(opts.Seed)),
		target:    target,
		pMax:      0.9,
		markProb:  0.5,
		maxMarked: 1,
	}
	switch opts.User {
	case Oracle:
		mu := target.Conf
		if mu >= 1 {
			mu = 0.99999
		}
		u.oracleConf = mu
		u.alpha, u.beta = service.InitialPrior(mu, oracleVariance)
	case Informed:
		u.alpha, u.beta = service.InitialPrior(target.Conf, informedVariance)
	case Uninformed:
		u.alpha, u.beta = 1, 1
		u.pMax = 0.5
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownUser, opts.User)
	}
	u.alphaHistory = []float64{u.alpha}
	u.betaHistory = []float64{u.beta}
	return u, nil
}

// observe updates the user's belief from the rows it was shown.
func (u *user) observe(rows []int) {
	if u.kind == Oracle {
		return
	}
	for _, r := range rows {
		if u.target.Violations.Has(r) {
			u.beta++
		} else {
			u.alpha++
		}
	}
	u.alphaHistory = append(u.alphaHistory, u.alpha)
	u.betaHistory = append(u.betaHistory, u.beta)
}

func (u *user) confidence() float64 {
	if u.kind == Oracle {
		return u.oracleConf
	}
	return u.alpha / (u.alpha + u.beta)
}

func (u *user) decide(q float64) bool {
	if u.decision == CoinFlip {
		return u.rng.Float64() < q
	}
	return q >= u.pMax
}

// mark produces marks on the target's RHS for every sampled row. A correct
// decision flags exactly the rows involved in a target violation.
func (u *user) mark(sample service.Sample) domain.Marks {
	shown := domain.NewPairSet(sample.Pairs...)
	marked := make(domain.PairSet)
	marks := make(domain.Marks, len(sample.Rows))

	for _, row := range sample.Rows {
		q := u.confidence()
		if u.kind == Oracle {
			switch u.focus {
			case FocusPrecision:
				q = u.markProb
			case FocusRecall:
				if len(marked) >= u.maxMarked {
					q = 0
				}
			}
		}

		involved := make(domain.PairSet)
		for p := range shown {
			if p.Contains(row) && !marked.Has(p) {
				involved.Add(p)
			}
		}

		flag := len(involved) > 0
		if !u.decide(q) {
			flag = !flag
		}
		if flag {
			marked.Union(involved)
		}

		cols := make(map[string]bool, len(u.target.FD.RHS))
		for _, rh := range u.target.FD.RHS {
			cols[domain.AttrName(rh)] = flag
		}
		marks[row] = cols
	}

	if u.markProb < 0.9 {
		u.markProb += 0.05
	} else if u.markProb < 0.95 {
		u.markProb += 0.01
	}
	if u.maxMarked < 5 {
		u.maxMarked++
	}
	return marks
}

// Runner runs simulations against a study service.
type Runner struct {
	study     *service.StudyService
	scenarios domain.ScenarioSource
	logger    *zap.Logger
}

func NewRunner(study *service.StudyService, scenarios domain.ScenarioSource, logger *zap.Logger) *Runner {
	return &Runner{study: study, scenarios: scenarios, logger: logger}
}

// Run plays one session to termination or opts.MaxIterations.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	sc, err := r.scenarios.Get(ctx, opts.ScenarioID)
	if err != nil {
		return nil, err
	}
	target, ok := sc.Space.Find(sc.Target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnmatchedHypothesis, sc.Target)
	}
	u, err := newUser(opts, target)
	if err != nil {
		return nil, err
	}
	if opts.Decision == "" {
		u.decision = Threshold
	}
	maxIters := opts.MaxIterations
	if maxIters <= 0 {
		maxIters = defaultMaxIterations
	}

	p, err := r.study.Import(ctx, service.ImportRequest{ScenarioID: sc.ID, Hypothesis: domain.NotSure})
	if err != nil {
		return nil, err
	}
	_, sample, err := r.study.Sample(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	res := &Result{ProjectID: p.ID.String()}
	for res.Iterations < maxIters {
		u.observe(sample.Rows)
		marks := u.mark(sample)

		fr, err := r.study.Feedback(ctx, p.ID, service.FeedbackRequest{Marks: marks, Hypothesis: domain.NotSure})
		if err != nil {
			return nil, err
		}
		res.Iterations++
		res.Metrics = fr.Metrics
		if fr.Done {
			res.Done = true
			break
		}
		sample = fr.Sample
	}
	res.Alpha, res.Beta = u.alphaHistory, u.betaHistory

	r.logger.Info("simulation finished",
		zap.String("project_id", res.ProjectID),
		zap.String("user", string(opts.User)),
		zap.Int("iterations", res.Iterations),
		zap.Bool("done", res.Done))
	return res, nil
}
