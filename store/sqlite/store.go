// Package sqlite is the SQLite-backed store implementation.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taskline/taskline/store"
)

// Store implements store.Store on top of gorm + SQLite.
//
// Multi-document operations are deliberately not wrapped in transactions:
// every call commits on its own, matching the consistency model documented on
// store.Store.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at dsn and runs migrations.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = "taskline.db"
	}

	if err := ensureDir(dsn); err != nil {
		return nil, err
	}

	dbLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&store.Task{}, &store.Series{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return &Store{db: db}, nil
}

// ensureDir creates the parent dir for the SQLite file if needed.
func ensureDir(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// Task operations

func (s *Store) InsertTask(ctx context.Context, task *store.Task) error {
	if task.ID == "" || task.UserID == "" {
		return &store.Error{Type: store.ErrInvalidInput, Message: "task id and user id are required"}
	}
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return internalErr("insert task", err)
	}
	return nil
}

func (s *Store) InsertTasks(ctx context.Context, tasks []*store.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	for _, task := range tasks {
		if task.ID == "" || task.UserID == "" {
			return &store.Error{Type: store.ErrInvalidInput, Message: "task id and user id are required"}
		}
	}
	if err := s.db.WithContext(ctx).Create(tasks).Error; err != nil {
		return internalErr("insert tasks", err)
	}
	return nil
}

func (s *Store) FindTaskByID(ctx context.Context, userID, taskID string) (*store.Task, error) {
	var task store.Task
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, taskID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &store.Error{Type: store.ErrNotFound, Message: "task not found"}
		}
		return nil, internalErr("find task", err)
	}
	return &task, nil
}

func (s *Store) FindTasks(ctx context.Context, userID string, filter store.TaskFilter) ([]*store.Task, error) {
	var tasks []*store.Task
	err := applyFilter(s.db.WithContext(ctx).Where("user_id = ?", userID), filter).
		Order("start_time ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, internalErr("find tasks", err)
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, userID, taskID string, patch store.TaskPatch) (*store.Task, error) {
	changes := patch.Changes()
	if len(changes) > 0 {
		res := s.db.WithContext(ctx).
			Model(&store.Task{}).
			Where("user_id = ? AND id = ?", userID, taskID).
			Updates(changes)
		if res.Error != nil {
			return nil, internalErr("update task", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, &store.Error{Type: store.ErrNotFound, Message: "task not found"}
		}
	}
	return s.FindTaskByID(ctx, userID, taskID)
}

func (s *Store) UpdateTasks(ctx context.Context, userID string, filter store.TaskFilter, patch store.TaskPatch) (int64, error) {
	changes := patch.Changes()
	if len(changes) == 0 {
		return 0, nil
	}
	res := applyFilter(s.db.WithContext(ctx).Model(&store.Task{}).Where("user_id = ?", userID), filter).
		Updates(changes)
	if res.Error != nil {
		return 0, internalErr("update tasks", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, taskID).
		Delete(&store.Task{})
	if res.Error != nil {
		return internalErr("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return &store.Error{Type: store.ErrNotFound, Message: "task not found"}
	}
	return nil
}

func (s *Store) DeleteTasks(ctx context.Context, userID string, filter store.TaskFilter) (int64, error) {
	res := applyFilter(s.db.WithContext(ctx).Where("user_id = ?", userID), filter).
		Delete(&store.Task{})
	if res.Error != nil {
		return 0, internalErr("delete tasks", res.Error)
	}
	return res.RowsAffected, nil
}

// Series operations

func (s *Store) InsertSeries(ctx context.Context, series *store.Series) error {
	if series.ID == "" || series.UserID == "" {
		return &store.Error{Type: store.ErrInvalidInput, Message: "series id and user id are required"}
	}
	if err := s.db.WithContext(ctx).Create(series).Error; err != nil {
		return internalErr("insert series", err)
	}
	return nil
}

func (s *Store) FindSeriesByID(ctx context.Context, userID, seriesID string) (*store.Series, error) {
	var series store.Series
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, seriesID).
		First(&series).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &store.Error{Type: store.ErrNotFound, Message: "series not found"}
		}
		return nil, internalErr("find series", err)
	}
	return &series, nil
}

func (s *Store) ListSeries(ctx context.Context, userID string) ([]*store.Series, error) {
	var series []*store.Series
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&series).Error
	if err != nil {
		return nil, internalErr("list series", err)
	}
	return series, nil
}

func (s *Store) UpdateSeries(ctx context.Context, userID, seriesID string, patch store.SeriesPatch) (*store.Series, error) {
	changes := patch.Changes()
	if len(changes) > 0 {
		res := s.db.WithContext(ctx).
			Model(&store.Series{}).
			Where("user_id = ? AND id = ?", userID, seriesID).
			Updates(changes)
		if res.Error != nil {
			return nil, internalErr("update series", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, &store.Error{Type: store.ErrNotFound, Message: "series not found"}
		}
	}
	return s.FindSeriesByID(ctx, userID, seriesID)
}

func (s *Store) DeleteSeries(ctx context.Context, userID, seriesID string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, seriesID).
		Delete(&store.Series{})
	if res.Error != nil {
		return internalErr("delete series", res.Error)
	}
	if res.RowsAffected == 0 {
		return &store.Error{Type: store.ErrNotFound, Message: "series not found"}
	}
	return nil
}

// UserIDs returns the distinct owners of stored series, for reconciliation
// jobs that sweep per user.
func (s *Store) UserIDs(ctx context.Context) ([]string, error) {
	var users []string
	err := s.db.WithContext(ctx).
		Model(&store.Series{}).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &users).Error
	if err != nil {
		return nil, internalErr("list series owners", err)
	}
	return users, nil
}

func applyFilter(db *gorm.DB, filter store.TaskFilter) *gorm.DB {
	if seriesID, ok := filter.SeriesID.Get(); ok {
		db = db.Where("series_id = ?", seriesID)
	}
	if from, ok := filter.StartAtOrAfter.Get(); ok {
		db = db.Where("start_time >= ?", from)
	}
	if before, ok := filter.StartBefore.Get(); ok {
		db = db.Where("start_time < ?", before)
	}
	if status, ok := filter.Status.Get(); ok {
		db = db.Where("status = ?", status)
	}
	if recurring, ok := filter.IsRecurring.Get(); ok {
		db = db.Where("is_recurring = ?", recurring)
	}
	if backlog, ok := filter.IsBacklog.Get(); ok {
		db = db.Where("is_backlog = ?", backlog)
	}
	return db
}

func internalErr(op string, err error) error {
	return &store.Error{Type: store.ErrInternal, Message: op, Err: err}
}
