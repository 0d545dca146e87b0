package series

import (
	"context"
	"time"

	"github.com/samber/mo"

	"github.com/taskline/taskline/recurrence"
	"github.com/taskline/taskline/store"
)

// UpdateInput carries the fields of a task-update request. Absent options
// leave the corresponding field untouched.
type UpdateInput struct {
	Title       mo.Option[string]
	Description mo.Option[string]
	Status      mo.Option[string]
	Priority    mo.Option[string]
	Type        mo.Option[string]
	GoalID      mo.Option[string]
	Tags        mo.Option[[]string]
	Note        mo.Option[string]
	IsBacklog   mo.Option[bool]
	Skipped     mo.Option[bool]
	PlanPeriod  mo.Option[string]
	Color       mo.Option[string]

	StartTime    mo.Option[time.Time]
	EndTime      mo.Option[time.Time]
	DueTime      mo.Option[time.Time]
	CompleteTime mo.Option[time.Time]

	Rule mo.Option[recurrence.Rule]
}

// UpdateTask applies the payload to the target task under the given mode.
//
// A standalone target is promoted to a series when the payload carries a
// rule; otherwise the mode is irrelevant and the payload is a plain field
// update. For a series member, mode single touches only the target, while
// all/following either bulk-update non-scheduling fields (when neither the
// rule nor the canonical times changed) or rebuild occurrences: a full
// regeneration for all, a split for following.
func (e *Engine) UpdateTask(ctx context.Context, userID, taskID string, mode Mode, in UpdateInput) (*Result, error) {
	if userID == "" {
		return nil, errMissingPrincipal()
	}

	task, err := e.store.FindTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if task.SeriesID == "" {
		if rule, ok := in.Rule.Get(); ok {
			return e.promoteToRecurring(ctx, task, rule, in)
		}
		updated, err := e.store.UpdateTask(ctx, userID, taskID, fullPatch(in))
		if err != nil {
			return nil, err
		}
		return &Result{Task: updated}, nil
	}

	if mode == ModeSingle || mode == "" {
		updated, err := e.store.UpdateTask(ctx, userID, taskID, fullPatch(in))
		if err != nil {
			return nil, err
		}
		return &Result{Task: updated}, nil
	}

	series, err := e.store.FindSeriesByID(ctx, userID, task.SeriesID)
	if err != nil {
		return nil, err
	}

	changed := recurrenceChanged(series, task, in)
	switch mode {
	case ModeAll:
		if !changed {
			return e.updateWholeSeries(ctx, series, in)
		}
		return e.regenerateSeries(ctx, series, task, in)
	case ModeFollowing:
		if !changed {
			return e.updateFollowing(ctx, series, task, in)
		}
		return e.splitSeries(ctx, series, task, in)
	default:
		return nil, invalidInput("unknown edit mode "+string(mode), nil)
	}
}

// recurrenceChanged reports whether the payload alters the series' rule or
// the target's canonical start/end time.
func recurrenceChanged(series *store.Series, task *store.Task, in UpdateInput) bool {
	if rule, ok := in.Rule.Get(); ok && !rule.Equal(series.Rule) {
		return true
	}
	if start, ok := in.StartTime.Get(); ok && !start.Equal(task.StartTime) {
		return true
	}
	if end, ok := in.EndTime.Get(); ok && !end.Equal(task.EndTime) {
		return true
	}
	return false
}

// promoteToRecurring converts a standalone task into a series: the merged
// task/payload fields become the template, the series is materialized, and
// the original task is removed.
func (e *Engine) promoteToRecurring(ctx context.Context, task *store.Task, rule recurrence.Rule, in UpdateInput) (*Result, error) {
	anchor := task.StartTime
	setOpt(in.StartTime, &anchor)

	tmpl := templateFromTask(task, in)
	result, err := e.createRecurring(ctx, task.UserID, tmpl, rule, anchor, seriesMeta{
		Color: in.Color.OrElse(""),
	})
	if err != nil {
		return nil, err
	}

	if err := e.store.DeleteTask(ctx, task.UserID, task.ID); err != nil {
		return nil, err
	}
	e.logger.Debug("promoted task to series", "user", task.UserID, "task", task.ID, "series", result.Series.ID)
	return result, nil
}

// updateWholeSeries is the all-mode branch when nothing recurrence-related
// changed: non-scheduling fields are bulk-applied to every member, and the
// series' own descriptive fields are patched when supplied.
func (e *Engine) updateWholeSeries(ctx context.Context, series *store.Series, in UpdateInput) (*Result, error) {
	patch := nonSchedulingPatch(in)
	if !patch.IsZero() {
		if _, err := e.store.UpdateTasks(ctx, series.UserID, store.BySeries(series.ID), patch); err != nil {
			return nil, err
		}
	}

	seriesPatch := descriptiveSeriesPatch(in)
	updated := series
	if !seriesPatch.IsZero() {
		var err error
		updated, err = e.store.UpdateSeries(ctx, series.UserID, series.ID, seriesPatch)
		if err != nil {
			return nil, err
		}
	}

	tasks, err := e.store.FindTasks(ctx, series.UserID, store.BySeries(series.ID))
	if err != nil {
		return nil, err
	}
	return &Result{Series: updated, Tasks: tasks}, nil
}

// updateFollowing is the following-mode branch when nothing recurrence-
// related changed: the bulk update is scoped to the target and every later
// occurrence of the same series.
func (e *Engine) updateFollowing(ctx context.Context, series *store.Series, task *store.Task, in UpdateInput) (*Result, error) {
	filter := store.BySeriesFrom(series.ID, task.StartTime)

	patch := nonSchedulingPatch(in)
	if !patch.IsZero() {
		if _, err := e.store.UpdateTasks(ctx, series.UserID, filter, patch); err != nil {
			return nil, err
		}
	}

	tasks, err := e.store.FindTasks(ctx, series.UserID, filter)
	if err != nil {
		return nil, err
	}
	return &Result{Series: series, Tasks: tasks}, nil
}

// regenerateSeries discards the whole series and rebuilds it under the new
// rule. The new anchor keeps the date of the earliest existing occurrence
// and takes the payload's time-of-day when the rule has a usable timezone.
func (e *Engine) regenerateSeries(ctx context.Context, series *store.Series, task *store.Task, in UpdateInput) (*Result, error) {
	existing, err := e.store.FindTasks(ctx, series.UserID, store.BySeries(series.ID))
	if err != nil {
		return nil, err
	}

	anchorBase := task.StartTime
	if len(existing) > 0 {
		anchorBase = existing[0].StartTime
	}

	newRule := in.Rule.OrElse(series.Rule)
	anchor := anchorWithPayloadTime(anchorBase, in.StartTime, newRule.Timezone)

	tmpl := templateFromTask(task, in)
	result, err := e.createRecurring(ctx, series.UserID, tmpl, newRule, anchor, seriesMeta{
		Color: in.Color.OrElse(series.Color),
	})
	if err != nil {
		return nil, err
	}

	if _, err := e.store.DeleteTasks(ctx, series.UserID, store.BySeries(series.ID)); err != nil {
		return nil, err
	}
	if err := e.store.DeleteSeries(ctx, series.UserID, series.ID); err != nil {
		return nil, err
	}

	e.logger.Debug("regenerated series", "user", series.UserID, "old", series.ID, "new", result.Series.ID)
	return result, nil
}

// splitSeries converts the target and all later occurrences into a new,
// independent series under the new rule. Earlier occurrences stay with the
// old series; the old series itself is removed when nothing remains of it.
func (e *Engine) splitSeries(ctx context.Context, series *store.Series, task *store.Task, in UpdateInput) (*Result, error) {
	splitAt := task.StartTime
	newRule := in.Rule.OrElse(series.Rule)
	if err := newRule.Validate(); err != nil {
		return nil, invalidInput("invalid recurrence rule", err)
	}
	anchor := anchorWithPayloadTime(splitAt, in.StartTime, newRule.Timezone)

	newSeries := &store.Series{
		ID:                    store.NewID(),
		UserID:                series.UserID,
		Rule:                  newRule,
		Active:                true,
		ParentSeriesID:        series.ID,
		SplitFromOccurrenceOn: &splitAt,
	}

	tmpl := templateFromTask(task, in)
	newSeries.Title = tmpl.Title
	newSeries.Description = tmpl.Description
	newSeries.Priority = tmpl.Priority
	newSeries.GoalID = tmpl.GoalID
	newSeries.Tags = tmpl.Tags
	newSeries.Color = in.Color.OrElse(series.Color)

	if err := e.store.InsertSeries(ctx, newSeries); err != nil {
		return nil, err
	}

	occurrences, err := e.recur.Expand(anchor, newRule)
	if err != nil {
		return nil, invalidInput("invalid recurrence rule", err)
	}

	// Detach the tail of the old series before inserting the replacement
	// occurrences.
	if _, err := e.store.DeleteTasks(ctx, series.UserID, store.BySeriesFrom(series.ID, splitAt)); err != nil {
		return nil, err
	}

	var newTasks []*store.Task
	if len(occurrences) > 0 {
		newTasks = tmpl.Materialize(series.UserID, newSeries.ID, occurrences)
		if err := e.store.InsertTasks(ctx, newTasks); err != nil {
			return nil, err
		}
		newSeries, err = e.store.UpdateSeries(ctx, series.UserID, newSeries.ID, store.SeriesPatch{
			FirstOccurrenceAt: mo.Some(occurrences[0]),
			LastOccurrenceAt:  mo.Some(occurrences[len(occurrences)-1]),
		})
		if err != nil {
			return nil, err
		}
	}

	if err := e.recomputeSeriesBounds(ctx, series.UserID, series.ID); err != nil {
		return nil, err
	}

	e.logger.Debug("split series", "user", series.UserID,
		"parent", series.ID, "series", newSeries.ID, "splitAt", splitAt)
	return &Result{Series: newSeries, Tasks: newTasks}, nil
}

// recomputeSeriesBounds refreshes the denormalized first/last occurrence
// cache from the series' current members, deleting the series when no
// members remain.
func (e *Engine) recomputeSeriesBounds(ctx context.Context, userID, seriesID string) error {
	tasks, err := e.store.FindTasks(ctx, userID, store.BySeries(seriesID))
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		if err := e.store.DeleteSeries(ctx, userID, seriesID); err != nil && !store.IsNotFound(err) {
			return err
		}
		return nil
	}
	_, err = e.store.UpdateSeries(ctx, userID, seriesID, store.SeriesPatch{
		FirstOccurrenceAt: mo.Some(tasks[0].StartTime),
		LastOccurrenceAt:  mo.Some(tasks[len(tasks)-1].StartTime),
	})
	return err
}

// fullPatch maps every present payload field, scheduling ones included. Used
// for single-task updates, where the payload always wins.
func fullPatch(in UpdateInput) store.TaskPatch {
	patch := nonSchedulingPatch(in)
	patch.StartTime = in.StartTime
	patch.EndTime = in.EndTime
	if due, ok := in.DueTime.Get(); ok {
		patch.DueTime = mo.Some(&due)
	}
	if complete, ok := in.CompleteTime.Get(); ok {
		patch.CompleteTime = mo.Some(&complete)
	}
	return patch
}

// nonSchedulingPatch maps the payload fields that bulk edits are allowed to
// touch: never recurrence, startTime, endTime, dueTime or completeTime.
func nonSchedulingPatch(in UpdateInput) store.TaskPatch {
	return store.TaskPatch{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Type:        in.Type,
		GoalID:      in.GoalID,
		Tags:        in.Tags,
		Note:        in.Note,
		IsBacklog:   in.IsBacklog,
		Skipped:     in.Skipped,
		PlanPeriod:  in.PlanPeriod,
	}
}

// descriptiveSeriesPatch maps the payload fields that also live on the
// series document.
func descriptiveSeriesPatch(in UpdateInput) store.SeriesPatch {
	return store.SeriesPatch{
		Title:       in.Title,
		Description: in.Description,
		GoalID:      in.GoalID,
		Tags:        in.Tags,
		Priority:    in.Priority,
		Color:       in.Color,
	}
}
