package scenario

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Harshitk-cp/duo/internal/domain"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Registry resolves scenario ids to built scenarios. Scenarios are built on
// first use and cached.
type Registry struct {
	baseDir string
	logger  *zap.Logger

	mu      sync.Mutex
	configs map[string]Config
	built   map[string]*domain.Scenario
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:  logger,
		configs: make(map[string]Config),
		built:   make(map[string]*domain.Scenario),
	}
}

// Load reads the scenario file at path. Dataset paths inside it are
// relative to the file.
func (r *Registry) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scenarios: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse scenarios %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.baseDir = filepath.Dir(path)
	for _, c := range f.Scenarios {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, ok := r.configs[c.ID]; ok {
			return fmt.Errorf("duplicate scenario id %q", c.ID)
		}
		r.configs[c.ID] = c
	}
	r.logger.Info("scenarios loaded", zap.String("path", path), zap.Int("count", len(f.Scenarios)))
	return nil
}

// Register adds an already built scenario.
func (r *Registry) Register(sc *domain.Scenario) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.built[sc.ID] = sc
}

func (r *Registry) Get(_ context.Context, id string) (*domain.Scenario, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sc, ok := r.built[id]; ok {
		return sc, nil
	}
	cfg, ok := r.configs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, id)
	}
	sc, err := Build(cfg, r.baseDir)
	if err != nil {
		r.logger.Error("failed to build scenario", zap.String("scenario_id", id), zap.Error(err))
		return nil, err
	}
	r.built[id] = sc
	r.logger.Info("scenario built",
		zap.String("scenario_id", id),
		zap.Int("rows", sc.Dirty.Len()),
		zap.Int("hypotheses", sc.Space.Len()))
	return sc, nil
}

// IDs lists the known scenario ids in order.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool, len(r.configs)+len(r.built))
	out := make([]string, 0, len(seen))
	for id := range r.configs {
		seen[id] = true
		out = append(out, id)
	}
	for id := range r.built {
		if !seen[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
