package series

import (
	"time"

	"github.com/samber/mo"

	"github.com/taskline/taskline/store"
)

// TaskTemplate is the shared field set stamped onto every occurrence of a
// series. It is built once per operation through the merge helpers below;
// the precedence is payload over existing entity over defaults.
type TaskTemplate struct {
	Title       string
	Description string
	Status      string
	Priority    string
	Type        string
	GoalID      string
	Tags        []string
	Note        string
	IsBacklog   bool
	Skipped     bool
	PlanPeriod  string

	// Duration is the template's endTime - startTime; every occurrence ends
	// that long after its own start.
	Duration time.Duration
}

// templateFromCreate builds the template for a freshly created series.
func templateFromCreate(in CreateInput, duration time.Duration) TaskTemplate {
	return TaskTemplate{
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
		Duration:    duration,
	}
}

// templateFromTask merges an existing task with an update payload: payload
// fields win where present, the task supplies the rest.
func templateFromTask(task *store.Task, in UpdateInput) TaskTemplate {
	tmpl := TaskTemplate{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		Type:        task.Type,
		GoalID:      task.GoalID,
		Tags:        task.Tags,
		Note:        task.Note,
		IsBacklog:   task.IsBacklog,
		Skipped:     task.Skipped,
		PlanPeriod:  task.PlanPeriod,
	}

	setOpt(in.Title, &tmpl.Title)
	setOpt(in.Description, &tmpl.Description)
	setOpt(in.Status, &tmpl.Status)
	setOpt(in.Priority, &tmpl.Priority)
	setOpt(in.Type, &tmpl.Type)
	setOpt(in.GoalID, &tmpl.GoalID)
	setOpt(in.Tags, &tmpl.Tags)
	setOpt(in.Note, &tmpl.Note)
	setOpt(in.IsBacklog, &tmpl.IsBacklog)
	setOpt(in.Skipped, &tmpl.Skipped)
	setOpt(in.PlanPeriod, &tmpl.PlanPeriod)

	start := task.StartTime
	end := task.EndTime
	setOpt(in.StartTime, &start)
	setOpt(in.EndTime, &end)
	if end.After(start) {
		tmpl.Duration = end.Sub(start)
	}

	return tmpl
}

// Materialize builds one task per occurrence start, all tagged with the
// series id and marked recurring.
func (t TaskTemplate) Materialize(userID, seriesID string, starts []time.Time) []*store.Task {
	tasks := make([]*store.Task, 0, len(starts))
	for _, start := range starts {
		tasks = append(tasks, &store.Task{
			ID:          store.NewID(),
			UserID:      userID,
			SeriesID:    seriesID,
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			Priority:    t.Priority,
			Type:        t.Type,
			GoalID:      t.GoalID,
			Tags:        t.Tags,
			Note:        t.Note,
			IsBacklog:   t.IsBacklog,
			Skipped:     t.Skipped,
			PlanPeriod:  t.PlanPeriod,
			StartTime:   start,
			EndTime:     start.Add(t.Duration),
			IsRecurring: true,
		})
	}
	return tasks
}

func setOpt[T any](opt mo.Option[T], dst *T) {
	if v, ok := opt.Get(); ok {
		*dst = v
	}
}
