package series

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskline/taskline/recurrence"
	"github.com/taskline/taskline/store"
	"github.com/taskline/taskline/store/memory"
)

var (
	testClock = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	testUser  = "alice"
)

func newTestEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()
	st := memory.New()
	recur := recurrence.NewEngineWithConfig(recurrence.EngineConfig{CacheEnabled: false})
	t.Cleanup(recur.Close)

	engine := NewEngine(st,
		WithClock(func() time.Time { return testClock }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRecurrence(recur),
	)
	return engine, st
}

func dailyRule(count int) *recurrence.Rule {
	return &recurrence.Rule{Frequency: recurrence.Daily, Count: count, Timezone: "UTC"}
}

// createDailySeries creates a count-occurrence daily series starting at
// testClock and returns the series and its tasks ordered by start time.
func createDailySeries(t *testing.T, engine *Engine, count int) (*store.Series, []*store.Task) {
	t.Helper()
	start := testClock
	end := start.Add(time.Hour)
	res, err := engine.CreateTask(context.Background(), testUser, CreateInput{
		Title:     "standup",
		Status:    "open",
		Priority:  "high",
		StartTime: &start,
		EndTime:   &end,
		Rule:      dailyRule(count),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Series)
	require.Len(t, res.Tasks, count)

	tasks, err := engine.QueryTasks(context.Background(), testUser, store.BySeries(res.Series.ID))
	require.NoError(t, err)
	return res.Series, tasks
}

func TestCreateTask_Standalone(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := engine.CreateTask(ctx, testUser, CreateInput{Title: "one-off"})
	require.NoError(t, err)
	require.NotNil(t, res.Task)
	assert.Nil(t, res.Series)
	assert.Empty(t, res.Task.SeriesID)
	assert.False(t, res.Task.IsRecurring)
	assert.True(t, res.Task.StartTime.Equal(testClock), "missing start defaults to the clock")

	found, err := engine.QueryTasks(ctx, testUser, store.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestCreateTask_RequiresPrincipal(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CreateTask(context.Background(), "", CreateInput{Title: "x"})
	assert.True(t, store.IsInvalidInput(err))
}

func TestCreateTask_Recurring(t *testing.T) {
	engine, _ := newTestEngine(t)
	series, tasks := createDailySeries(t, engine, 5)

	assert.True(t, series.Active)
	assert.Equal(t, "standup", series.Title)
	assert.True(t, series.FirstOccurrenceAt.Equal(testClock))
	assert.True(t, series.LastOccurrenceAt.Equal(testClock.AddDate(0, 0, 4)))

	for i, task := range tasks {
		assert.Equal(t, series.ID, task.SeriesID)
		assert.True(t, task.IsRecurring)
		assert.True(t, task.StartTime.Equal(testClock.AddDate(0, 0, i)))
		assert.Equal(t, time.Hour, task.EndTime.Sub(task.StartTime), "duration carried to every occurrence")
	}
}

func TestCreateTask_InvalidRule(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()
	start := testClock

	_, err := engine.CreateTask(ctx, testUser, CreateInput{
		Title:     "broken",
		StartTime: &start,
		Rule:      &recurrence.Rule{Frequency: recurrence.Daily, Count: 3}, // no timezone
	})
	assert.True(t, store.IsInvalidInput(err))

	// The rule is rejected up front, so no orphan series is written.
	series, err := st.ListSeries(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, series)
	tasks, err := st.FindTasks(ctx, testUser, store.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestUpdateTask_StandalonePlainUpdate(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.CreateTask(ctx, testUser, CreateInput{Title: "errand", Status: "open"})
	require.NoError(t, err)

	newStart := testClock.AddDate(0, 0, 7)
	// Mode is irrelevant for standalone targets.
	res, err := engine.UpdateTask(ctx, testUser, created.Task.ID, ModeAll, UpdateInput{
		Title:     mo.Some("errand, renamed"),
		StartTime: mo.Some(newStart),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Task)
	assert.Equal(t, "errand, renamed", res.Task.Title)
	assert.True(t, res.Task.StartTime.Equal(newStart))
	assert.Equal(t, "open", res.Task.Status)
}

func TestUpdateTask_PromotesStandaloneToSeries(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	start := testClock
	created, err := engine.CreateTask(ctx, testUser, CreateInput{
		Title: "water plants", StartTime: &start,
	})
	require.NoError(t, err)

	res, err := engine.UpdateTask(ctx, testUser, created.Task.ID, ModeSingle, UpdateInput{
		Note: mo.Some("every other day"),
		Rule: mo.Some(recurrence.Rule{Frequency: recurrence.Daily, Interval: 2, Count: 3, Timezone: "UTC"}),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Series)
	require.Len(t, res.Tasks, 3)
	assert.Equal(t, "water plants", res.Series.Title)
	assert.Equal(t, "every other day", res.Tasks[0].Note, "payload merged into template")

	// The original standalone task is gone.
	_, err = engine.store.FindTaskByID(ctx, testUser, created.Task.ID)
	assert.True(t, store.IsNotFound(err))
}

func TestUpdateTask_SingleTouchesOnlyTarget(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	series, tasks := createDailySeries(t, engine, 3)

	newStart := tasks[1].StartTime.Add(2 * time.Hour)
	res, err := engine.UpdateTask(ctx, testUser, tasks[1].ID, ModeSingle, UpdateInput{
		Status:    mo.Some("done"),
		StartTime: mo.Some(newStart),
	})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Task.Status)
	assert.True(t, res.Task.StartTime.Equal(newStart), "payload scheduling fields win on single")

	// Siblings and the series are untouched.
	others, err := engine.QueryTasks(ctx, testUser, store.BySeries(series.ID))
	require.NoError(t, err)
	for _, task := range others {
		if task.ID == tasks[1].ID {
			continue
		}
		assert.Equal(t, "open", task.Status)
	}
	after, err := engine.store.FindSeriesByID(ctx, testUser, series.ID)
	require.NoError(t, err)
	assert.True(t, after.LastOccurrenceAt.Equal(series.LastOccurrenceAt))
}

func TestUpdateTask_AllUnchangedBulkUpdate(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	series, tasks := createDailySeries(t, engine, 5)

	// Payload rule equals the stored rule, so this is a no-op recurrence-wise.
	res, err := engine.UpdateTask(ctx, testUser, tasks[0].ID, ModeAll, UpdateInput{
		Title:  mo.Some("daily standup"),
		Status: mo.Some("done"),
		Rule:   mo.Some(*dailyRule(5)),
	})
	require.NoError(t, err)
	assert.Equal(t, series.ID, res.Series.ID, "series survives an unchanged-rule edit")
	assert.Equal(t, "daily standup", res.Series.Title, "descriptive series fields patched")
	require.Len(t, res.Tasks, 5)

	for i, task := range res.Tasks {
		assert.Equal(t, "daily standup", task.Title)
		assert.Equal(t, "done", task.Status)
		assert.True(t, task.StartTime.Equal(tasks[i].StartTime), "scheduling fields excluded from bulk edits")
	}
}

func TestUpdateTask_AllChangedRegenerates(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	series, tasks := createDailySeries(t, engine, 5)

	res, err := engine.UpdateTask(ctx, testUser, tasks[2].ID, ModeAll, UpdateInput{
		Title: mo.Some("standup v2"),
		Rule:  mo.Some(recurrence.Rule{Frequency: recurrence.Daily, Interval: 2, Count: 3, Timezone: "UTC"}),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Series)
	assert.NotEqual(t, series.ID, res.Series.ID, "regeneration replaces the series")
	require.Len(t, res.Tasks, 3)

	// Anchor keeps the earliest old occurrence.
	assert.True(t, res.Tasks[0].StartTime.Equal(tasks[0].StartTime))
	assert.True(t, res.Tasks[1].StartTime.Equal(tasks[0].StartTime.AddDate(0, 0, 2)))
	assert.Equal(t, "standup v2", res.Tasks[0].Title)

	// The old series and all its tasks are gone.
	_, err = engine.store.FindSeriesByID(ctx, testUser, series.ID)
	assert.True(t, store.IsNotFound(err))
	leftovers, err := engine.QueryTasks(ctx, testUser, store.BySeries(series.ID))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestUpdateTask_AllTimeChangeRegeneratesWithNewTimeOfDay(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	series, tasks := createDailySeries(t, engine, 3)

	// Same rule, new time-of-day: 14:30 on the third occurrence's date.
	newStart := tasks[2].StartTime.Add(5*time.Hour + 30*time.Minute)
	res, err := engine.UpdateTask(ctx, testUser, tasks[2].ID, ModeAll, UpdateInput{
		StartTime: mo.Some(newStart),
	})
	require.NoError(t, err)
	assert.NotEqual(t, series.ID, res.Series.ID)
	require.Len(t, res.Tasks, 3)

	// New anchor: the earliest existing occurrence's date, the payload's
	// time-of-day.
	want := time.Date(2024, 1, 1, 14, 30, 0, 0, time.UTC)
	assert.True(t, res.Tasks[0].StartTime.Equal(want),
		"want %s, got %s", want, res.Tasks[0].StartTime)
}

func TestUpdateTask_FollowingUnchangedUpdatesTail(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	series, tasks := createDailySeries(t, engine, 5)

	res, err := engine.UpdateTask(ctx, testUser, tasks[2].ID, ModeFollowing, UpdateInput{
		Status: mo.Some("done"),
	})
	require.NoError(t, err)
	assert.Equal(t, series.ID, res.Series.ID)
	require.Len(t, res.Tasks, 3, "target and everything after it")

	all, err := engine.QueryTasks(ctx, testUser, store.BySeries(series.ID))
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, task := range all {
		if i < 2 {
			assert.Equal(t, "open", task.Status, "occurrences before the target untouched")
		} else {
			assert.Equal(t, "done", task.Status)
		}
		assert.True(t, task.StartTime.Equal(tasks[i].StartTime), "scheduling fields untouched")
	}
}

func TestUpdateTask_FollowingChangedSplitsSeries(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	series, tasks := createDailySeries(t, engine, 5)
	splitAt := tasks[2].StartTime

	res, err := engine.UpdateTask(ctx, testUser, tasks[2].ID, ModeFollowing, UpdateInput{
		Title: mo.Some("standup, new era"),
		Rule:  mo.Some(recurrence.Rule{Frequency: recurrence.Weekly, Count: 2, Timezone: "UTC"}),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Series)
	assert.NotEqual(t, series.ID, res.Series.ID)
	assert.Equal(t, series.ID, res.Series.ParentSeriesID)
	require.NotNil(t, res.Series.SplitFromOccurrenceOn)
	assert.True(t, res.Series.SplitFromOccurrenceOn.Equal(splitAt))

	// Everything at or after the split point belongs to the new series.
	newTasks, err := engine.QueryTasks(ctx, testUser, store.BySeries(res.Series.ID))
	require.NoError(t, err)
	require.Len(t, newTasks, 2)
	assert.True(t, newTasks[0].StartTime.Equal(splitAt))
	assert.True(t, newTasks[1].StartTime.Equal(splitAt.AddDate(0, 0, 7)))
	assert.Equal(t, "standup, new era", newTasks[0].Title)

	// Everything before the split stays with the old series, bounds refreshed.
	oldTasks, err := engine.QueryTasks(ctx, testUser, store.BySeries(series.ID))
	require.NoError(t, err)
	require.Len(t, oldTasks, 2)
	for _, task := range oldTasks {
		assert.True(t, task.StartTime.Before(splitAt))
	}
	oldSeries, err := engine.store.FindSeriesByID(ctx, testUser, series.ID)
	require.NoError(t, err)
	assert.True(t, oldSeries.LastOccurrenceAt.Equal(tasks[1].StartTime))
	assert.True(t, oldSeries.FirstOccurrenceAt.Equal(tasks[0].StartTime))

	// New series bounds match its own members.
	assert.True(t, res.Series.FirstOccurrenceAt.Equal(newTasks[0].StartTime))
	assert.True(t, res.Series.LastOccurrenceAt.Equal(newTasks[1].StartTime))
}

func TestUpdateTask_SplitAtFirstOccurrenceDeletesOldSeries(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	series, tasks := createDailySeries(t, engine, 3)

	_, err := engine.UpdateTask(ctx, testUser, tasks[0].ID, ModeFollowing, UpdateInput{
		Rule: mo.Some(recurrence.Rule{Frequency: recurrence.Daily, Count: 2, Timezone: "UTC"}),
	})
	require.NoError(t, err)

	_, err = engine.store.FindSeriesByID(ctx, testUser, series.ID)
	assert.True(t, store.IsNotFound(err), "old series deleted when nothing remains before the split")
}

func TestUpdateTask_SplitWithInvalidRuleWritesNothing(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()
	series, tasks := createDailySeries(t, engine, 3)

	_, err := engine.UpdateTask(ctx, testUser, tasks[1].ID, ModeFollowing, UpdateInput{
		Rule: mo.Some(recurrence.Rule{Frequency: recurrence.Weekly, Count: 2}), // no timezone
	})
	assert.True(t, store.IsInvalidInput(err))

	// Nothing split off: the old series and all its tasks are intact.
	all, err := st.ListSeries(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, series.ID, all[0].ID)
	remaining, err := engine.QueryTasks(ctx, testUser, store.BySeries(series.ID))
	require.NoError(t, err)
	assert.Len(t, remaining, 3)
}

func TestDeleteTask_SingleLeavesSeriesAlone(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	series, tasks := createDailySeries(t, engine, 2)

	require.NoError(t, engine.DeleteTask(ctx, testUser, tasks[1].ID, ModeSingle))
	require.NoError(t, engine.DeleteTask(ctx, testUser, tasks[0].ID, ModeSingle))

	// Deliberately no cleanup: the emptied series survives with stale bounds.
	after, err := engine.store.FindSeriesByID(ctx, testUser, series.ID)
	require.NoError(t, err)
	assert.True(t, after.LastOccurrenceAt.Equal(series.LastOccurrenceAt))
}

func TestDeleteTask_AllRemovesSeriesAndMembers(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	series, tasks := createDailySeries(t, engine, 5)

	require.NoError(t, engine.DeleteTask(ctx, testUser, tasks[3].ID, ModeAll))

	for _, task := range tasks {
		_, err := engine.store.FindTaskByID(ctx, testUser, task.ID)
		assert.True(t, store.IsNotFound(err))
	}
	_, err := engine.store.FindSeriesByID(ctx, testUser, series.ID)
	assert.True(t, store.IsNotFound(err))
}

func TestDeleteTask_FollowingTruncatesSeries(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	series, tasks := createDailySeries(t, engine, 5)

	require.NoError(t, engine.DeleteTask(ctx, testUser, tasks[3].ID, ModeFollowing))

	remaining, err := engine.QueryTasks(ctx, testUser, store.BySeries(series.ID))
	require.NoError(t, err)
	require.Len(t, remaining, 3)

	after, err := engine.store.FindSeriesByID(ctx, testUser, series.ID)
	require.NoError(t, err)
	assert.True(t, after.LastOccurrenceAt.Equal(tasks[2].StartTime), "last-occurrence cache recomputed")
}

func TestDeleteTask_FollowingFromFirstRemovesSeries(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	series, tasks := createDailySeries(t, engine, 3)

	require.NoError(t, engine.DeleteTask(ctx, testUser, tasks[0].ID, ModeFollowing))

	_, err := engine.store.FindSeriesByID(ctx, testUser, series.ID)
	assert.True(t, store.IsNotFound(err))
}

func TestDeleteTask_StandaloneIgnoresMode(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	created, err := engine.CreateTask(ctx, testUser, CreateInput{Title: "one-off"})
	require.NoError(t, err)

	require.NoError(t, engine.DeleteTask(ctx, testUser, created.Task.ID, ModeAll))
	_, err = engine.store.FindTaskByID(ctx, testUser, created.Task.ID)
	assert.True(t, store.IsNotFound(err))
}

func TestOwnershipScoping(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	_, tasks := createDailySeries(t, engine, 2)

	// Another principal cannot see or edit alice's tasks.
	_, err := engine.UpdateTask(ctx, "mallory", tasks[0].ID, ModeSingle, UpdateInput{
		Title: mo.Some("hijacked"),
	})
	assert.True(t, store.IsNotFound(err))

	err = engine.DeleteTask(ctx, "mallory", tasks[0].ID, ModeAll)
	assert.True(t, store.IsNotFound(err))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeSingle, false},
		{"single", ModeSingle, false},
		{"all", ModeAll, false},
		{"following", ModeFollowing, false},
		{"everything", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.True(t, store.IsInvalidInput(err))
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestCreateTask_StoreFailureSurfaces(t *testing.T) {
	mockStore := &store.MockStore{}
	recur := recurrence.NewEngineWithConfig(recurrence.EngineConfig{CacheEnabled: false})
	t.Cleanup(recur.Close)
	engine := NewEngine(mockStore,
		WithClock(func() time.Time { return testClock }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRecurrence(recur),
	)

	storeErr := &store.Error{Type: store.ErrInternal, Message: "disk full"}
	mockStore.On("InsertSeries", mock.Anything, mock.Anything).Return(nil)
	mockStore.On("InsertTasks", mock.Anything, mock.Anything).Return(storeErr)

	start := testClock
	_, err := engine.CreateTask(context.Background(), testUser, CreateInput{
		Title:     "doomed",
		StartTime: &start,
		Rule:      dailyRule(3),
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	mockStore.AssertExpectations(t)
}
