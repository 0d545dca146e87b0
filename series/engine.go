// Package series keeps the Task and Series collections consistent under
// create, update and delete requests, expanding recurrence rules into task
// occurrences and applying edit-mode semantics (single / all / following).
package series

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/mo"

	"github.com/taskline/taskline/recurrence"
	"github.com/taskline/taskline/store"
)

// Mode selects which part of a series an update or delete targets.
type Mode string

const (
	// ModeSingle targets only the addressed task.
	ModeSingle Mode = "single"
	// ModeAll targets every task of the series.
	ModeAll Mode = "all"
	// ModeFollowing targets the addressed task and every later one. The
	// partition boundary is always startTime >= target.startTime, inclusive.
	ModeFollowing Mode = "following"
)

// ParseMode maps the wire-level mode string to a Mode. The empty string
// defaults to ModeSingle.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeSingle, nil
	case ModeSingle, ModeAll, ModeFollowing:
		return Mode(s), nil
	default:
		return "", &store.Error{
			Type:    store.ErrInvalidInput,
			Message: fmt.Sprintf("unknown edit mode %q", s),
		}
	}
}

// Engine orchestrates series mutations against a Store. The principal is an
// explicit parameter on every operation; there is no ambient current user.
type Engine struct {
	store  store.Store
	recur  *recurrence.Engine
	clock  func() time.Time
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to default missing start times.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithRecurrence substitutes the recurrence engine, e.g. one with caching
// disabled.
func WithRecurrence(recur *recurrence.Engine) Option {
	return func(e *Engine) { e.recur = recur }
}

// NewEngine creates a mutation engine on top of the given store.
func NewEngine(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store: st,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.recur == nil {
		e.recur = recurrence.NewEngine()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Result is what a mutation returns: a single task for standalone operations,
// or the series plus its materialized tasks for recurring ones.
type Result struct {
	Task   *store.Task   `json:"task,omitempty"`
	Series *store.Series `json:"series,omitempty"`
	Tasks  []*store.Task `json:"tasks,omitempty"`
}

// QueryTasks returns the principal's tasks matching the filter, ordered by
// ascending start time.
func (e *Engine) QueryTasks(ctx context.Context, userID string, filter store.TaskFilter) ([]*store.Task, error) {
	if userID == "" {
		return nil, errMissingPrincipal()
	}
	return e.store.FindTasks(ctx, userID, filter)
}

func errMissingPrincipal() error {
	return &store.Error{
		Type:    store.ErrInvalidInput,
		Message: "no principal established",
	}
}

func invalidInput(message string, err error) error {
	return &store.Error{
		Type:    store.ErrInvalidInput,
		Message: message,
		Err:     err,
	}
}

// anchorWithPayloadTime keeps base's calendar date but replaces its
// time-of-day with payload's, both read in the rule's timezone. Without a
// payload time or a loadable timezone the base anchor is returned unchanged.
func anchorWithPayloadTime(base time.Time, payload mo.Option[time.Time], timezone string) time.Time {
	payloadTime, ok := payload.Get()
	if !ok {
		return base
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return base
	}

	date := base.In(loc)
	clock := payloadTime.In(loc)
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), loc)
}
