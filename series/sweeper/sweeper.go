// Package sweeper reconciles the consistency windows the mutation engine
// leaves open: series that lost their last member without being deleted
// (single-mode deletes, crashes between steps) linger until a sweep removes
// them.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/taskline/taskline/store"
)

// UserSource enumerates the users whose series a sweep should inspect.
// Both bundled store implementations expose a compatible UserIDs method.
type UserSource func(ctx context.Context) ([]string, error)

// Sweeper deletes series that have no member tasks and are older than a
// grace period. The grace period keeps it from racing an in-flight create,
// which inserts the series before its tasks.
type Sweeper struct {
	store  store.Store
	users  UserSource
	grace  time.Duration
	logger *slog.Logger
	cron   *cron.Cron
}

// New creates a sweeper. A non-positive grace defaults to one hour.
func New(st store.Store, users UserSource, grace time.Duration, logger *slog.Logger) *Sweeper {
	if grace <= 0 {
		grace = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:  st,
		users:  users,
		grace:  grace,
		logger: logger,
	}
}

// Sweep runs one pass for one user and returns the number of series removed.
func (s *Sweeper) Sweep(ctx context.Context, userID string) (int, error) {
	series, err := s.store.ListSeries(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list series: %w", err)
	}

	removed := 0
	cutoff := time.Now().Add(-s.grace)
	for _, sr := range series {
		if sr.CreatedAt.After(cutoff) {
			continue
		}

		tasks, err := s.store.FindTasks(ctx, userID, store.BySeries(sr.ID))
		if err != nil {
			return removed, fmt.Errorf("list members of series %s: %w", sr.ID, err)
		}
		if len(tasks) > 0 {
			continue
		}

		if err := s.store.DeleteSeries(ctx, userID, sr.ID); err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return removed, fmt.Errorf("delete series %s: %w", sr.ID, err)
		}
		removed++
		s.logger.Info("swept empty series", "user", userID, "series", sr.ID)
	}
	return removed, nil
}

// SweepAll runs one pass across every known user.
func (s *Sweeper) SweepAll(ctx context.Context) (int, error) {
	users, err := s.users(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	total := 0
	for _, userID := range users {
		removed, err := s.Sweep(ctx, userID)
		total += removed
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Start schedules periodic sweeps using a cron expression (e.g. "@hourly").
func (s *Sweeper) Start(spec string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() {
		if _, err := s.SweepAll(context.Background()); err != nil {
			s.logger.Error("sweep failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sweep %q: %w", spec, err)
	}
	s.cron.Start()
	return nil
}

// Stop halts periodic sweeps and waits for a running one to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
}
