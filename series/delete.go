package series

import (
	"context"

	"github.com/samber/mo"

	"github.com/taskline/taskline/store"
)

// DeleteTask removes the target task under the given mode.
//
// Mode single deletes only the target and never touches the series, even
// when that empties it. Mode all removes every member and then the series
// itself. Mode following removes the target and every later occurrence,
// then either refreshes the series' last-occurrence cache or deletes the
// series when nothing remains. Standalone targets behave like single for
// every mode.
func (e *Engine) DeleteTask(ctx context.Context, userID, taskID string, mode Mode) error {
	if userID == "" {
		return errMissingPrincipal()
	}

	task, err := e.store.FindTaskByID(ctx, userID, taskID)
	if err != nil {
		return err
	}

	if task.SeriesID == "" || mode == ModeSingle || mode == "" {
		if err := e.store.DeleteTask(ctx, userID, taskID); err != nil {
			return err
		}
		e.logger.Debug("deleted task", "user", userID, "task", taskID)
		return nil
	}

	switch mode {
	case ModeAll:
		if _, err := e.store.DeleteTasks(ctx, userID, store.BySeries(task.SeriesID)); err != nil {
			return err
		}
		if err := e.store.DeleteSeries(ctx, userID, task.SeriesID); err != nil && !store.IsNotFound(err) {
			return err
		}
		e.logger.Debug("deleted series", "user", userID, "series", task.SeriesID)
		return nil

	case ModeFollowing:
		if _, err := e.store.DeleteTasks(ctx, userID, store.BySeriesFrom(task.SeriesID, task.StartTime)); err != nil {
			return err
		}

		remaining, err := e.store.FindTasks(ctx, userID, store.BySeries(task.SeriesID))
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			if err := e.store.DeleteSeries(ctx, userID, task.SeriesID); err != nil && !store.IsNotFound(err) {
				return err
			}
			e.logger.Debug("deleted series", "user", userID, "series", task.SeriesID)
			return nil
		}

		_, err = e.store.UpdateSeries(ctx, userID, task.SeriesID, store.SeriesPatch{
			LastOccurrenceAt: mo.Some(remaining[len(remaining)-1].StartTime),
		})
		if err != nil {
			return err
		}
		e.logger.Debug("deleted following occurrences", "user", userID,
			"series", task.SeriesID, "from", task.StartTime)
		return nil

	default:
		return invalidInput("unknown edit mode "+string(mode), nil)
	}
}
