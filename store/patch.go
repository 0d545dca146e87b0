package store

import (
	"time"

	"github.com/samber/mo"
)

// TaskPatch is a $set-style partial update. Only fields carrying a present
// option are written, so "absent" and "set to the zero value" stay distinct.
type TaskPatch struct {
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

	StartTime    mo.Option[time.Time]
	EndTime      mo.Option[time.Time]
	DueTime      mo.Option[*time.Time]
	CompleteTime mo.Option[*time.Time]

	SeriesID    mo.Option[string]
	IsRecurring mo.Option[bool]
}

// IsZero reports whether the patch sets nothing.
func (p TaskPatch) IsZero() bool {
	return len(p.Changes()) == 0
}

// Apply writes the present fields onto the task.
func (p TaskPatch) Apply(t *Task) {
	setOpt(p.Title, &t.Title)
	setOpt(p.Description, &t.Description)
	setOpt(p.Status, &t.Status)
	setOpt(p.Priority, &t.Priority)
	setOpt(p.Type, &t.Type)
	setOpt(p.GoalID, &t.GoalID)
	setOpt(p.Tags, &t.Tags)
	setOpt(p.Note, &t.Note)
	setOpt(p.IsBacklog, &t.IsBacklog)
	setOpt(p.Skipped, &t.Skipped)
	setOpt(p.PlanPeriod, &t.PlanPeriod)
	setOpt(p.StartTime, &t.StartTime)
	setOpt(p.EndTime, &t.EndTime)
	setOpt(p.DueTime, &t.DueTime)
	setOpt(p.CompleteTime, &t.CompleteTime)
	setOpt(p.SeriesID, &t.SeriesID)
	setOpt(p.IsRecurring, &t.IsRecurring)
}

// Changes returns the present fields as a column-name map, the shape gorm's
// Updates expects.
func (p TaskPatch) Changes() map[string]any {
	changes := map[string]any{}
	addOpt(changes, "title", p.Title)
	addOpt(changes, "description", p.Description)
	addOpt(changes, "status", p.Status)
	addOpt(changes, "priority", p.Priority)
	addOpt(changes, "type", p.Type)
	addOpt(changes, "goal_id", p.GoalID)
	addOpt(changes, "tags", p.Tags)
	addOpt(changes, "note", p.Note)
	addOpt(changes, "is_backlog", p.IsBacklog)
	addOpt(changes, "skipped", p.Skipped)
	addOpt(changes, "plan_period", p.PlanPeriod)
	addOpt(changes, "start_time", p.StartTime)
	addOpt(changes, "end_time", p.EndTime)
	addOpt(changes, "due_time", p.DueTime)
	addOpt(changes, "complete_time", p.CompleteTime)
	addOpt(changes, "series_id", p.SeriesID)
	addOpt(changes, "is_recurring", p.IsRecurring)
	return changes
}

// SeriesPatch is the partial-update counterpart for series documents.
type SeriesPatch struct {
	Title       mo.Option[string]
	Description mo.Option[string]
	GoalID      mo.Option[string]
	Tags        mo.Option[[]string]
	Priority    mo.Option[string]
	Color       mo.Option[string]
	Active      mo.Option[bool]

	FirstOccurrenceAt mo.Option[time.Time]
	LastOccurrenceAt  mo.Option[time.Time]
}

// IsZero reports whether the patch sets nothing.
func (p SeriesPatch) IsZero() bool {
	return len(p.Changes()) == 0
}

// Apply writes the present fields onto the series.
func (p SeriesPatch) Apply(s *Series) {
	setOpt(p.Title, &s.Title)
	setOpt(p.Description, &s.Description)
	setOpt(p.GoalID, &s.GoalID)
	setOpt(p.Tags, &s.Tags)
	setOpt(p.Priority, &s.Priority)
	setOpt(p.Color, &s.Color)
	setOpt(p.Active, &s.Active)
	setOpt(p.FirstOccurrenceAt, &s.FirstOccurrenceAt)
	setOpt(p.LastOccurrenceAt, &s.LastOccurrenceAt)
}

// Changes returns the present fields as a column-name map.
func (p SeriesPatch) Changes() map[string]any {
	changes := map[string]any{}
	addOpt(changes, "title", p.Title)
	addOpt(changes, "description", p.Description)
	addOpt(changes, "goal_id", p.GoalID)
	addOpt(changes, "tags", p.Tags)
	addOpt(changes, "priority", p.Priority)
	addOpt(changes, "color", p.Color)
	addOpt(changes, "active", p.Active)
	addOpt(changes, "first_occurrence_at", p.FirstOccurrenceAt)
	addOpt(changes, "last_occurrence_at", p.LastOccurrenceAt)
	return changes
}

func setOpt[T any](opt mo.Option[T], dst *T) {
	if v, ok := opt.Get(); ok {
		*dst = v
	}
}

func addOpt[T any](changes map[string]any, column string, opt mo.Option[T]) {
	if v, ok := opt.Get(); ok {
		changes[column] = v
	}
}
