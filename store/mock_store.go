package store

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStore implements the Store interface for testing.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) InsertTask(ctx context.Context, task *Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockStore) InsertTasks(ctx context.Context, tasks []*Task) error {
	args := m.Called(ctx, tasks)
	return args.Error(0)
}

func (m *MockStore) FindTaskByID(ctx context.Context, userID, taskID string) (*Task, error) {
	args := m.Called(ctx, userID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Task), args.Error(1)
}

func (m *MockStore) FindTasks(ctx context.Context, userID string, filter TaskFilter) ([]*Task, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Task), args.Error(1)
}

func (m *MockStore) UpdateTask(ctx context.Context, userID, taskID string, patch TaskPatch) (*Task, error) {
	args := m.Called(ctx, userID, taskID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Task), args.Error(1)
}

func (m *MockStore) UpdateTasks(ctx context.Context, userID string, filter TaskFilter, patch TaskPatch) (int64, error) {
	args := m.Called(ctx, userID, filter, patch)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) DeleteTask(ctx context.Context, userID, taskID string) error {
	args := m.Called(ctx, userID, taskID)
	return args.Error(0)
}

func (m *MockStore) DeleteTasks(ctx context.Context, userID string, filter TaskFilter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) InsertSeries(ctx context.Context, series *Series) error {
	args := m.Called(ctx, series)
	return args.Error(0)
}

func (m *MockStore) FindSeriesByID(ctx context.Context, userID, seriesID string) (*Series, error) {
	args := m.Called(ctx, userID, seriesID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Series), args.Error(1)
}

func (m *MockStore) ListSeries(ctx context.Context, userID string) ([]*Series, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Series), args.Error(1)
}

func (m *MockStore) UpdateSeries(ctx context.Context, userID, seriesID string, patch SeriesPatch) (*Series, error) {
	args := m.Called(ctx, userID, seriesID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Series), args.Error(1)
}

func (m *MockStore) DeleteSeries(ctx context.Context, userID, seriesID string) error {
	args := m.Called(ctx, userID, seriesID)
	return args.Error(0)
}
