package store

import (
	"context"
)

// Store is the document-store contract the series engine works against.
// Every operation is scoped by the owning user id; implementations must never
// return or touch another user's documents. Please use the error types
// provided by this package.
//
// FindTasks results are ordered by ascending StartTime; the engine relies on
// this when it picks the earliest occurrence of a series.
//
// Multi-document sequences are not transactional: each call commits on its
// own, and a crash between calls leaves the documents as they were at that
// point.
type Store interface {
	// InsertTask stores one task. The caller assigns the id.
	InsertTask(ctx context.Context, task *Task) error
	// InsertTasks stores a batch of tasks in one call.
	InsertTasks(ctx context.Context, tasks []*Task) error
	// FindTaskByID retrieves one task owned by the user.
	FindTaskByID(ctx context.Context, userID, taskID string) (*Task, error)
	// FindTasks retrieves the user's tasks matching the filter, ordered by
	// ascending start time.
	FindTasks(ctx context.Context, userID string, filter TaskFilter) ([]*Task, error)
	// UpdateTask applies the patch to one task and returns the post-update
	// document.
	UpdateTask(ctx context.Context, userID, taskID string, patch TaskPatch) (*Task, error)
	// UpdateTasks applies the patch to every task matching the filter and
	// returns the number of documents written.
	UpdateTasks(ctx context.Context, userID string, filter TaskFilter, patch TaskPatch) (int64, error)
	// DeleteTask removes one task.
	DeleteTask(ctx context.Context, userID, taskID string) error
	// DeleteTasks removes every task matching the filter and returns the
	// number of documents removed. Matching nothing is not an error.
	DeleteTasks(ctx context.Context, userID string, filter TaskFilter) (int64, error)

	// InsertSeries stores one series. The caller assigns the id.
	InsertSeries(ctx context.Context, series *Series) error
	// FindSeriesByID retrieves one series owned by the user.
	FindSeriesByID(ctx context.Context, userID, seriesID string) (*Series, error)
	// ListSeries retrieves all series owned by the user.
	ListSeries(ctx context.Context, userID string) ([]*Series, error)
	// UpdateSeries applies the patch to one series and returns the
	// post-update document.
	UpdateSeries(ctx context.Context, userID, seriesID string, patch SeriesPatch) (*Series, error)
	// DeleteSeries removes one series. Member tasks are untouched.
	DeleteSeries(ctx context.Context, userID, seriesID string) error
}
