package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskline/taskline/auth"
	"github.com/taskline/taskline/internal/config"
	"github.com/taskline/taskline/recurrence"
	"github.com/taskline/taskline/series"
	"github.com/taskline/taskline/store"
	"github.com/taskline/taskline/store/sqlite"
)

// userFlag names the principal the command acts as. The CLI has no login
// step, so identity resolution is a static resolver over this flag.
var userFlag string

func resolvePrincipal(cmd *cobra.Command) (*auth.Principal, error) {
	return auth.Static{ID: userFlag}.CurrentPrincipal(cmd.Context())
}

func openEngine() (*series.Engine, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	st, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	recur := recurrence.NewEngineWithConfig(cfg.EngineConfig())
	engine := series.NewEngine(st, series.WithRecurrence(recur), series.WithLogger(slog.Default()))
	return engine, recur.Close, nil
}

func newAddCommand() *cobra.Command {
	var (
		title     string
		startStr  string
		endStr    string
		frequency string
		interval  int
		timezone  string
		count     int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task, or a whole series when a frequency is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := resolvePrincipal(cmd)
			if err != nil {
				return err
			}
			engine, closeEngine, err := openEngine()
			if err != nil {
				return err
			}
			defer closeEngine()

			in := series.CreateInput{Title: title}
			if startStr != "" {
				start, err := time.Parse(time.RFC3339, startStr)
				if err != nil {
					return fmt.Errorf("parse --start: %w", err)
				}
				in.StartTime = &start
			}
			if endStr != "" {
				end, err := time.Parse(time.RFC3339, endStr)
				if err != nil {
					return fmt.Errorf("parse --end: %w", err)
				}
				in.EndTime = &end
			}
			if frequency != "" {
				in.Rule = &recurrence.Rule{
					Frequency: recurrence.Frequency(frequency),
					Interval:  interval,
					Timezone:  timezone,
					Count:     count,
				}
			}

			res, err := engine.CreateTask(cmd.Context(), principal.ID, in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Series != nil {
				fmt.Fprintf(out, "series %s with %d task(s)\n", res.Series.ID, len(res.Tasks))
				return nil
			}
			fmt.Fprintf(out, "task %s\n", res.Task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&startStr, "start", "", "start time, RFC3339 (default now)")
	cmd.Flags().StringVar(&endStr, "end", "", "end time, RFC3339")
	cmd.Flags().StringVar(&frequency, "frequency", "", "daily, weekly, monthly or yearly")
	cmd.Flags().IntVar(&interval, "interval", 1, "interval between occurrences")
	cmd.Flags().StringVar(&timezone, "timezone", "UTC", "IANA timezone of the rule")
	cmd.Flags().IntVar(&count, "count", 0, "number of occurrences")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newListCommand() *cobra.Command {
	var seriesID string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List tasks in start-time order",
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := resolvePrincipal(cmd)
			if err != nil {
				return err
			}
			engine, closeEngine, err := openEngine()
			if err != nil {
				return err
			}
			defer closeEngine()

			filter := store.TaskFilter{}
			if seriesID != "" {
				filter = store.BySeries(seriesID)
			}
			tasks, err := engine.QueryTasks(cmd.Context(), principal.ID, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, task := range tasks {
				marker := " "
				if task.IsRecurring {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s  %s  %s\n",
					marker, task.ID, task.StartTime.Format(time.RFC3339), task.Title)
			}
			fmt.Fprintf(out, "%d task(s)\n", len(tasks))
			return nil
		},
	}

	cmd.Flags().StringVar(&seriesID, "series", "", "limit to one series")
	return cmd
}

func newRemoveCommand() *cobra.Command {
	var modeStr string

	cmd := &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task, its series, or its following occurrences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := resolvePrincipal(cmd)
			if err != nil {
				return err
			}
			mode, err := series.ParseMode(modeStr)
			if err != nil {
				return err
			}
			engine, closeEngine, err := openEngine()
			if err != nil {
				return err
			}
			defer closeEngine()

			if err := engine.DeleteTask(cmd.Context(), principal.ID, args[0], mode); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}

	cmd.Flags().StringVar(&modeStr, "mode", "single", "single, all or following")
	return cmd
}
