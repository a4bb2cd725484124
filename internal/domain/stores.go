package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProjectStore interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	Update(ctx context.Context, p *Project) error
	// DeleteStale removes sessions that are not done and have not been
	// updated since before.
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

// ScenarioSource resolves a scenario id to a fully built scenario.
type ScenarioSource interface {
	Get(ctx context.Context, id string) (*Scenario, error)
}
