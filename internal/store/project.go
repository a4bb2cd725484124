package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectStore persists study sessions as a JSONB document. The scenario is
// not stored; it is resolved again from its id on load.
type ProjectStore struct {
	db        *pgxpool.Pool
	scenarios domain.ScenarioSource
}

func NewProjectStore(db *pgxpool.Pool, scenarios domain.ScenarioSource) *ProjectStore {
	return &ProjectStore{db: db, scenarios: scenarios}
}

func encodeState(p *domain.Project) ([]byte, error) {
	state := *p
	state.Scenario = nil
	return json.Marshal(&state)
}

func (s *ProjectStore) Create(ctx context.Context, p *domain.Project) error {
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
	err = s.db.QueryRow(ctx,
		`INSERT INTO projects (id, scenario_id, state, iteration, done)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		p.ID, p.Scenario.ID, state, p.Iteration, p.Done,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *ProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var (
		scenarioID string
		state      []byte
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := s.db.QueryRow(ctx,
		`SELECT scenario_id, state, created_at, updated_at
		 FROM projects WHERE id = $1`,
		id,
	).Scan(&scenarioID, &state, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
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

	p.Scenario, err = s.scenarios.Get(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("resolve scenario of project %s: %w", id, err)
	}
	return p, nil
}

func (s *ProjectStore) Update(ctx context.Context, p *domain.Project) error {
	state, err := encodeState(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	err = s.db.QueryRow(ctx,
		`UPDATE projects SET state = $2, iteration = $3, done = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		p.ID, state, p.Iteration, p.Done,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *ProjectStore) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.Exec(ctx,
		`DELETE FROM projects WHERE NOT done AND updated_at < $1`,
		before,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
