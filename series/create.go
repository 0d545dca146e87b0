package series

import (
	"context"
	"time"

	"github.com/samber/mo"

	"github.com/taskline/taskline/recurrence"
	"github.com/taskline/taskline/store"
)

// CreateInput carries the fields of a task-creation request. A nil Rule
// creates one standalone task; a rule expands into a full series.
type CreateInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	Type        string
	GoalID      string
	Tags        []string
	Note        string
	IsBacklog   bool
	PlanPeriod  string
	Color       string

	// StartTime defaults to the engine clock when nil.
	StartTime *time.Time
	// EndTime defaults to StartTime (zero duration) when nil.
	EndTime *time.Time
	DueTime *time.Time

	Rule *recurrence.Rule
}

// CreateTask creates a standalone task, or a series plus its occurrence tasks
// when the input carries a recurrence rule.
func (e *Engine) CreateTask(ctx context.Context, userID string, in CreateInput) (*Result, error) {
	if userID == "" {
		return nil, errMissingPrincipal()
	}

	start := e.clock()
	if in.StartTime != nil {
		start = *in.StartTime
	}
	end := start
	if in.EndTime != nil {
		end = *in.EndTime
	}

	if in.Rule == nil {
		task := &store.Task{
			ID:          store.NewID(),
			UserID:      userID,
			Title:       in.Title,
			Description: in.Description,
			Status:      in.Status,
			Priority:    in.Priority,
			Type:        in.Type,
			GoalID:      in.GoalID,
			Tags:        in.Tags,
			Note:        in.Note,
			IsBacklog:   in.IsBacklog,
			PlanPeriod:  in.PlanPeriod,
			StartTime:   start,
			EndTime:     end,
			DueTime:     in.DueTime,
		}
		if err := e.store.InsertTask(ctx, task); err != nil {
			return nil, err
		}
		e.logger.Debug("created standalone task", "user", userID, "task", task.ID)
		return &Result{Task: task}, nil
	}

	tmpl := templateFromCreate(in, end.Sub(start))
	return e.createRecurring(ctx, userID, tmpl, *in.Rule, start, seriesMeta{Color: in.Color})
}

// seriesMeta carries the series-level fields that are not part of the task
// template.
type seriesMeta struct {
	Color                 string
	ParentSeriesID        string
	SplitFromOccurrenceOn *time.Time
}

// createRecurring persists a new series, expands the rule from the anchor and
// materializes one task per occurrence. The steps commit independently: a
// failure after the series insert leaves the series without members until a
// sweep reconciles it.
func (e *Engine) createRecurring(ctx context.Context, userID string, tmpl TaskTemplate, rule recurrence.Rule, anchor time.Time, meta seriesMeta) (*Result, error) {
	// Reject structurally invalid rules before anything is written.
	if err := rule.Validate(); err != nil {
		return nil, invalidInput("invalid recurrence rule", err)
	}

	series := &store.Series{
		ID:                    store.NewID(),
		UserID:                userID,
		Title:                 tmpl.Title,
		Description:           tmpl.Description,
		Rule:                  rule,
		Active:                true,
		Color:                 meta.Color,
		Priority:              tmpl.Priority,
		GoalID:                tmpl.GoalID,
		Tags:                  tmpl.Tags,
		ParentSeriesID:        meta.ParentSeriesID,
		SplitFromOccurrenceOn: meta.SplitFromOccurrenceOn,
	}
	if err := e.store.InsertSeries(ctx, series); err != nil {
		return nil, err
	}

	occurrences, err := e.recur.Expand(anchor, rule)
	if err != nil {
		return nil, invalidInput("invalid recurrence rule", err)
	}
	if len(occurrences) == 0 {
		e.logger.Warn("rule produced no occurrences", "user", userID, "series", series.ID)
		return &Result{Series: series}, nil
	}

	tasks := tmpl.Materialize(userID, series.ID, occurrences)
	if err := e.store.InsertTasks(ctx, tasks); err != nil {
		return nil, err
	}

	// Occurrences come back ordered, so the bounds are the two ends.
	updated, err := e.store.UpdateSeries(ctx, userID, series.ID, store.SeriesPatch{
		FirstOccurrenceAt: mo.Some(occurrences[0]),
		LastOccurrenceAt:  mo.Some(occurrences[len(occurrences)-1]),
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("created series", "user", userID, "series", series.ID, "occurrences", len(tasks))
	return &Result{Series: updated, Tasks: tasks}, nil
}
