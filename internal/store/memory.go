package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/google/uuid"
)

type memoryRecord struct {
	scenarioID string
	state      []byte
	done       bool
	createdAt  time.Time
	updatedAt  time.Time
}

// MemoryProjectStore keeps study sessions in process. Like ProjectStore it
// holds the encoded state, so callers never share a project between loads.
type MemoryProjectStore struct {
	mu        sync.RWMutex
	records   map[uuid.UUID]*memoryRecord
	scenarios domain.ScenarioSource
	now       func() time.Time
}

func NewMemoryProjectStore(scenarios domain.ScenarioSource) *MemoryProjectStore {
	return &MemoryProjectStore{
		records:   make(map[uuid.UUID]*memoryRecord),
		scenarios: scenarios,
		now:       time.Now,
	}
}

func (s *MemoryProjectStore) Create(ctx context.Context, p *domain.Project) error {
	if p.Scenario == nil {
		return errors.New("project has no scenario")
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	state, err := encodeState(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[p.ID]; ok {
		return ErrConflict
	}
	now := s.now()
	s.records[p.ID] = &memoryRecord{
		scenarioID: p.Scenario.ID,
		state:      state,
		done:       p.Done,
		createdAt:  now,
		updatedAt:  now,
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

func (s *MemoryProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	var (
		scenarioID string
		state      []byte
		createdAt  time.Time
		updatedAt  time.Time
	)
	if ok {
		scenarioID, state, createdAt, updatedAt = rec.scenarioID, rec.state, rec.createdAt, rec.updatedAt
	}
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	p := &domain.Project{}
	if err := json.Unmarshal(state, p); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", id, err)
	}
	p.ID = id
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	if p.Feedback == nil {
		p.Feedback = domain.NewFeedbackHistory()
	}

	sc, err := s.scenarios.Get(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("resolve scenario of project %s: %w", id, err)
	}
	p.Scenario = sc
	return p, nil
}

func (s *MemoryProjectStore) Update(ctx context.Context, p *domain.Project) error {
	state, err := encodeState(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[p.ID]
	if !ok {
		return ErrNotFound
	}
	rec.state = state
	rec.done = p.Done
	rec.updatedAt = s.now()
	p.UpdatedAt = rec.updatedAt
	return nil
}

func (s *MemoryProjectStore) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.records {
		if !rec.done && rec.updatedAt.Before(before) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (s *MemoryProjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
