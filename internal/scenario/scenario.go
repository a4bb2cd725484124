package scenario

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/Harshitk-cp/duo/internal/service"
)

const (
	defaultSampleSize    = 10
	defaultMaxAntecedent = 4
	defaultTargetRatio   = 0.5
	defaultAltRatio      = 0.3
)

// File is the on-disk list of scenarios.
type File struct {
	Scenarios []Config `yaml:"scenarios"`
}

// Config describes one scenario before its data is loaded.
type Config struct {
	ID            string             `yaml:"id"`
	DirtyPath     string             `yaml:"dirty_dataset"`
	CleanPath     string             `yaml:"clean_dataset"`
	TargetFD      string             `yaml:"target_fd"`
	Alternatives  []string           `yaml:"alt_h"`
	SampleSize    int                `yaml:"sample_size"`
	TargetRatio   *float64           `yaml:"target_h_sample_ratio"`
	AltRatio      *float64           `yaml:"alt_h_sample_ratio"`
	Method        string             `yaml:"sampling_method"`
	Hypotheses    []HypothesisConfig `yaml:"hypothesis_space"`
	Primitives    []string           `yaml:"primitives"`
	MinConfidence float64            `yaml:"min_conf"`
	MaxAntecedent int                `yaml:"max_ant"`
	RowWeights    map[int]float64    `yaml:"tuple_weights"`
}

// HypothesisConfig is a hypothesis listed ahead of composition, optionally
// with precomputed ground-truth scores.
type HypothesisConfig struct {
	CFD  string   `yaml:"cfd"`
	Conf *float64 `yaml:"conf"`
	F1   *float64 `yaml:"f1"`
}

func (c *Config) Validate() error {
	if c.ID == "" {
		return errors.New("scenario id is required")
	}
	if c.DirtyPath == "" {
		return fmt.Errorf("scenario %s: dirty_dataset is required", c.ID)
	}
	if c.TargetFD == "" {
		return fmt.Errorf("scenario %s: target_fd is required", c.ID)
	}
	if len(c.Hypotheses) == 0 && len(c.Primitives) == 0 {
		return fmt.Errorf("scenario %s: hypothesis_space or primitives is required", c.ID)
	}
	if c.Method != "" && !domain.ValidSamplingMethod(c.Method) {
		return fmt.Errorf("scenario %s: unknown sampling_method %q", c.ID, c.Method)
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("scenario %s: sample_size must not be negative", c.ID)
	}
	return nil
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Build loads the datasets of cfg, relative to baseDir, and constructs its
// hypothesis space.
func Build(cfg Config, baseDir string) (*domain.Scenario, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dirty, err := LoadCSV(resolve(baseDir, cfg.DirtyPath))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: load dirty dataset: %w", cfg.ID, err)
	}
	var clean *domain.Dataset
	if cfg.CleanPath != "" {
		if clean, err = LoadCSV(resolve(baseDir, cfg.CleanPath)); err != nil {
			return nil, fmt.Errorf("scenario %s: load clean dataset: %w", cfg.ID, err)
		}
	}
	return BuildFromData(cfg, dirty, clean)
}

// BuildFromData is Build over already loaded datasets.
func BuildFromData(cfg Config, dirty, clean *domain.Dataset) (*domain.Scenario, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	target, err := domain.ParseFD(cfg.TargetFD)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: target_fd: %w", cfg.ID, err)
	}
	alts := make([]domain.FD, 0, len(cfg.Alternatives))
	for _, a := range cfg.Alternatives {
		fd, err := domain.ParseFD(a)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: alt_h: %w", cfg.ID, err)
		}
		alts = append(alts, fd)
	}

	prior := domain.NewHypothesisSpace()
	scores := make(map[string]HypothesisConfig, len(cfg.Hypotheses))
	for _, hc := range cfg.Hypotheses {
		fd, err := domain.ParseFD(hc.CFD)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: hypothesis_space: %w", cfg.ID, err)
		}
		prior.Add(service.NewHypothesis(dirty, clean, fd))
		scores[fd.Key()] = hc
	}

	primitives := make([]*domain.Hypothesis, 0, len(cfg.Primitives))
	for _, p := range cfg.Primitives {
		fd, err := domain.ParseFD(p)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: primitives: %w", cfg.ID, err)
		}
		primitives = append(primitives, service.NewHypothesis(dirty, clean, fd))
	}

	maxAnt := cfg.MaxAntecedent
	if maxAnt <= 0 {
		maxAnt = defaultMaxAntecedent
	}
	space, err := service.ComposeHypothesisSpace(service.ComposeInput{
		Primitives:    primitives,
		PriorSpace:    prior,
		Dirty:         dirty,
		Clean:         clean,
		MinConfidence: cfg.MinConfidence,
		MaxAntecedent: maxAnt,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", cfg.ID, err)
	}

	targetH, ok := space.Find(target)
	if !ok {
		return nil, fmt.Errorf("scenario %s: target_fd %s: %w", cfg.ID, target, domain.ErrUnmatchedHypothesis)
	}
	for _, a := range alts {
		if _, ok := space.Find(a); !ok {
			return nil, fmt.Errorf("scenario %s: alt_h %s: %w", cfg.ID, a, domain.ErrUnmatchedHypothesis)
		}
	}

	for _, h := range space.Hypotheses {
		sc := scores[h.FD.Key()]
		if sc.Conf != nil {
			h.Conf = *sc.Conf
		} else {
			h.Conf = h.Confidence()
		}
		if sc.F1 != nil {
			h.F1 = *sc.F1
		} else {
			_, _, h.F1 = service.HypothesisAccuracy(h.ViolationPairs, targetH.ViolationPairs)
		}
	}

	method := domain.SamplingMethod(cfg.Method)
	if method == "" {
		method = domain.SamplingRatio
	}
	size := cfg.SampleSize
	if size == 0 {
		size = defaultSampleSize
	}
	sc := &domain.Scenario{
		ID:           cfg.ID,
		Dirty:        dirty,
		Clean:        clean,
		Space:        space,
		Target:       targetH.FD,
		Alternatives: alts,
		SampleSize:   size,
		TargetRatio:  ratioOr(cfg.TargetRatio, defaultTargetRatio),
		AltRatio:     ratioOr(cfg.AltRatio, defaultAltRatio),
		Method:       method,
		RowWeights:   cfg.RowWeights,
	}
	return sc, nil
}

func ratioOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
