package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/duo/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultExpirerInterval = 1 * time.Hour
	defaultProjectTTL      = 72 * time.Hour
)

// ExpirerService periodically deletes study sessions that were abandoned
// before finishing.
type ExpirerService struct {
	projects domain.ProjectStore
	logger   *zap.Logger
	now      func() time.Time

	interval time.Duration
	ttl      time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewExpirerService(ps domain.ProjectStore, ttl time.Duration, logger *zap.Logger) *ExpirerService {
	if ttl <= 0 {
		ttl = defaultProjectTTL
	}
	return &ExpirerService{
		projects: ps,
		logger:   logger,
		now:      time.Now,
		interval: defaultExpirerInterval,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
}

func (s *ExpirerService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the expirer on a periodic schedule in a background goroutine.
func (s *ExpirerService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("project expirer started",
			zap.Duration("interval", s.interval),
			zap.Duration("ttl", s.ttl))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				s.run(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("project expirer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the expirer.
func (s *ExpirerService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *ExpirerService) run(ctx context.Context) {
	deleted, err := s.projects.DeleteStale(ctx, s.now().Add(-s.ttl))
	if err != nil {
		s.logger.Error("failed to delete stale projects", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("deleted stale projects", zap.Int64("count", deleted))
	}
}
