// Package memory is a map-backed store implementation, primarily for tests
// and examples.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskline/taskline/store"
)

// Store implements store.Store using in-memory maps.
type Store struct {
	mu     sync.RWMutex
	tasks  map[string]*store.Task   // key: userID/taskID
	series map[string]*store.Series // key: userID/seriesID
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		tasks:  make(map[string]*store.Task),
		series: make(map[string]*store.Series),
	}
}

func key(userID, id string) string {
	return userID + "/" + id
}

// Task operations

func (s *Store) InsertTask(_ context.Context, task *store.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertTaskLocked(task)
}

func (s *Store) InsertTasks(_ context.Context, tasks []*store.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range tasks {
		if err := s.insertTaskLocked(task); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertTaskLocked(task *store.Task) error {
	if task.ID == "" || task.UserID == "" {
		return &store.Error{
			Type:    store.ErrInvalidInput,
			Message: "task id and user id are required",
		}
	}
	k := key(task.UserID, task.ID)
	if _, exists := s.tasks[k]; exists {
		return &store.Error{
			Type:    store.ErrAlreadyExists,
			Message: "task already exists",
		}
	}

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	s.tasks[k] = cloneTask(task)
	return nil
}

func (s *Store) FindTaskByID(_ context.Context, userID, taskID string) (*store.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[key(userID, taskID)]
	if !ok {
		return nil, &store.Error{
			Type:    store.ErrNotFound,
			Message: "task not found",
		}
	}
	return cloneTask(task), nil
}

func (s *Store) FindTasks(_ context.Context, userID string, filter store.TaskFilter) ([]*store.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*store.Task
	for _, task := range s.tasks {
		if task.UserID == userID && filter.Matches(task) {
			tasks = append(tasks, cloneTask(task))
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].StartTime.Before(tasks[j].StartTime)
	})
	return tasks, nil
}

func (s *Store) UpdateTask(_ context.Context, userID, taskID string, patch store.TaskPatch) (*store.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[key(userID, taskID)]
	if !ok {
		return nil, &store.Error{
			Type:    store.ErrNotFound,
			Message: "task not found",
		}
	}

	patch.Apply(task)
	task.UpdatedAt = time.Now()
	return cloneTask(task), nil
}

func (s *Store) UpdateTasks(_ context.Context, userID string, filter store.TaskFilter, patch store.TaskPatch) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	now := time.Now()
	for _, task := range s.tasks {
		if task.UserID == userID && filter.Matches(task) {
			patch.Apply(task)
			task.UpdatedAt = now
			updated++
		}
	}
	return updated, nil
}

func (s *Store) DeleteTask(_ context.Context, userID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID, taskID)
	if _, exists := s.tasks[k]; !exists {
		return &store.Error{
			Type:    store.ErrNotFound,
			Message: "task not found",
		}
	}
	delete(s.tasks, k)
	return nil
}

func (s *Store) DeleteTasks(_ context.Context, userID string, filter store.TaskFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for k, task := range s.tasks {
		if task.UserID == userID && filter.Matches(task) {
			delete(s.tasks, k)
			deleted++
		}
	}
	return deleted, nil
}

// Series operations

func (s *Store) InsertSeries(_ context.Context, series *store.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if series.ID == "" || series.UserID == "" {
		return &store.Error{
			Type:    store.ErrInvalidInput,
			Message: "series id and user id are required",
		}
	}
	k := key(series.UserID, series.ID)
	if _, exists := s.series[k]; exists {
		return &store.Error{
			Type:    store.ErrAlreadyExists,
			Message: "series already exists",
		}
	}

	now := time.Now()
	series.CreatedAt = now
	series.UpdatedAt = now
	s.series[k] = cloneSeries(series)
	return nil
}

func (s *Store) FindSeriesByID(_ context.Context, userID, seriesID string) (*store.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.series[key(userID, seriesID)]
	if !ok {
		return nil, &store.Error{
			Type:    store.ErrNotFound,
			Message: "series not found",
		}
	}
	return cloneSeries(series), nil
}

func (s *Store) ListSeries(_ context.Context, userID string) ([]*store.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*store.Series
	for _, series := range s.series {
		if series.UserID == userID {
			out = append(out, cloneSeries(series))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateSeries(_ context.Context, userID, seriesID string, patch store.SeriesPatch) (*store.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	series, ok := s.series[key(userID, seriesID)]
	if !ok {
		return nil, &store.Error{
			Type:    store.ErrNotFound,
			Message: "series not found",
		}
	}

	patch.Apply(series)
	series.UpdatedAt = time.Now()
	return cloneSeries(series), nil
}

func (s *Store) DeleteSeries(_ context.Context, userID, seriesID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID, seriesID)
	if _, exists := s.series[k]; !exists {
		return &store.Error{
			Type:    store.ErrNotFound,
			Message: "series not found",
		}
	}
	delete(s.series, k)
	return nil
}

// UserIDs returns the distinct owners of stored series, for reconciliation
// jobs that sweep per user.
func (s *Store) UserIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var users []string
	for _, series := range s.series {
		if !seen[series.UserID] {
			seen[series.UserID] = true
			users = append(users, series.UserID)
		}
	}
	sort.Strings(users)
	return users, nil
}

func cloneTask(t *store.Task) *store.Task {
	clone := *t
	clone.Tags = append([]string(nil), t.Tags...)
	return &clone
}

func cloneSeries(s *store.Series) *store.Series {
	clone := *s
	clone.Tags = append([]string(nil), s.Tags...)
	return &clone
}
