package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Harshitk-cp/duo/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProjectStore mocks the ProjectStore interface.
type MockProjectStore struct {
	mock.Mock
}

func (m *MockProjectStore) Create(ctx context.Context, p *domain.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectStore) Update(ctx context.Context, p *domain.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProjectStore) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func TestExpirerRun(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	projects := new(MockProjectStore)
	projects.On("DeleteStale", mock.Anything, now.Add(-24*time.Hour)).Return(int64(2), nil).Once()

	svc := NewExpirerService(projects, 24*time.Hour, testLogger())
	svc.now = func() time.Time { return now }
	svc.run(context.Background())

	projects.AssertExpectations(t)
}

func TestExpirerRunError(t *testing.T) {
	projects := new(MockProjectStore)
	projects.On("DeleteStale", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(0), errors.New("db down")).Once()

	svc := NewExpirerService(projects, 0, testLogger())
	svc.run(context.Background())

	projects.AssertExpectations(t)
}

func TestExpirerStartStop(t *testing.T) {
	projects := new(MockProjectStore)
	called := make(chan struct{}, 1)
	projects.On("DeleteStale", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(int64(0), nil).
		Run(func(mock.Arguments) {
			select {
			case called <- struct{}{}:
			default:
			}
		})

	svc := NewExpirerService(projects, time.Hour, testLogger())
	svc.SetInterval(10 * time.Millisecond)
	svc.Start()

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("expirer never ran")
	}
	svc.Stop()
}
