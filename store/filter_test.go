package store

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
)

func TestTaskFilter_Matches(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	task := &Task{
		ID:          "t1",
		UserID:      "alice",
		SeriesID:    "s1",
		Status:      "open",
		StartTime:   start,
		IsRecurring: true,
	}

	tests := []struct {
		name   string
		filter TaskFilter
		want   bool
	}{
		{"empty filter matches", TaskFilter{}, true},
		{"series match", BySeries("s1"), true},
		{"series mismatch", BySeries("s2"), false},
		{"boundary is inclusive", BySeriesFrom("s1", start), true},
		{"start after boundary", BySeriesFrom("s1", start.Add(-time.Hour)), true},
		{"start before boundary", BySeriesFrom("s1", start.Add(time.Hour)), false},
		{"start before upper bound", TaskFilter{StartBefore: mo.Some(start.Add(time.Second))}, true},
		{"upper bound is exclusive", TaskFilter{StartBefore: mo.Some(start)}, false},
		{"status match", TaskFilter{Status: mo.Some("open")}, true},
		{"status mismatch", TaskFilter{Status: mo.Some("done")}, false},
		{"recurring match", TaskFilter{IsRecurring: mo.Some(true)}, true},
		{"backlog mismatch", TaskFilter{IsBacklog: mo.Some(true)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(task))
		})
	}
}

func TestTaskPatch_ApplyAndChanges(t *testing.T) {
	due := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	patch := TaskPatch{
		Title:   mo.Some("renamed"),
		Status:  mo.Some("done"),
		Note:    mo.Some(""),
		DueTime: mo.Some(&due),
	}

	task := &Task{Title: "old", Status: "open", Note: "keep?", Priority: "high"}
	patch.Apply(task)

	assert.Equal(t, "renamed", task.Title)
	assert.Equal(t, "done", task.Status)
	assert.Equal(t, "", task.Note, "explicit zero value must be written")
	assert.Equal(t, "high", task.Priority, "absent fields must be untouched")
	assert.Equal(t, &due, task.DueTime)

	changes := patch.Changes()
	assert.Len(t, changes, 4)
	assert.Equal(t, "renamed", changes["title"])
	assert.Contains(t, changes, "note")
	assert.NotContains(t, changes, "priority")
}

func TestSeriesPatch_ApplyAndChanges(t *testing.T) {
	first := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	last := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	patch := SeriesPatch{
		Title:             mo.Some("new title"),
		FirstOccurrenceAt: mo.Some(first),
		LastOccurrenceAt:  mo.Some(last),
	}

	series := &Series{Title: "old", Color: "#ff0000"}
	patch.Apply(series)

	assert.Equal(t, "new title", series.Title)
	assert.Equal(t, "#ff0000", series.Color)
	assert.Equal(t, first, series.FirstOccurrenceAt)
	assert.Equal(t, last, series.LastOccurrenceAt)

	assert.False(t, patch.IsZero())
	assert.True(t, SeriesPatch{}.IsZero())
	assert.True(t, TaskPatch{}.IsZero())
}
