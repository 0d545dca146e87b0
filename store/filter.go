package store

import (
	"time"

	"github.com/samber/mo"
)

// TaskFilter selects tasks by equality and start-time comparison. Stores
// always combine it with the owning user id, so a lookup can never cross a
// user boundary. Absent options do not constrain the result.
type TaskFilter struct {
	SeriesID       mo.Option[string]
	StartAtOrAfter mo.Option[time.Time] // startTime >= value
	StartBefore    mo.Option[time.Time] // startTime < value
	Status         mo.Option[string]
	IsRecurring    mo.Option[bool]
	IsBacklog      mo.Option[bool]
}

// BySeries selects every member of one series.
func BySeries(seriesID string) TaskFilter {
	return TaskFilter{SeriesID: mo.Some(seriesID)}
}

// BySeriesFrom selects the members of a series starting at or after the given
// time. This is the inclusive "this and following" partition boundary.
func BySeriesFrom(seriesID string, from time.Time) TaskFilter {
	return TaskFilter{
		SeriesID:       mo.Some(seriesID),
		StartAtOrAfter: mo.Some(from),
	}
}

// Matches reports whether the task satisfies every present constraint.
func (f TaskFilter) Matches(t *Task) bool {
	if seriesID, ok := f.SeriesID.Get(); ok && t.SeriesID != seriesID {
		return false
	}
	if from, ok := f.StartAtOrAfter.Get(); ok && t.StartTime.Before(from) {
		return false
	}
	if before, ok := f.StartBefore.Get(); ok && !t.StartTime.Before(before) {
		return false
	}
	if status, ok := f.Status.Get(); ok && t.Status != status {
		return false
	}
	if recurring, ok := f.IsRecurring.Get(); ok && t.IsRecurring != recurring {
		return false
	}
	if backlog, ok := f.IsBacklog.Get(); ok && t.IsBacklog != backlog {
		return false
	}
	return true
}
