package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskline/taskline/recurrence"
)

func newExpandCommand() *cobra.Command {
	var (
		frequency  string
		interval   int
		timezone   string
		count      int
		until      string
		anchor     string
		weekdays   []int
		dayOfMonth int
		weekOfMon  int
		weekdayOfM int
	)

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Print the occurrences a recurrence rule produces",
		RunE: func(cmd *cobra.Command, args []string) error {
			rule := recurrence.Rule{
				Frequency:  recurrence.Frequency(frequency),
				Interval:   interval,
				Timezone:   timezone,
				Count:      count,
				DayOfMonth: dayOfMonth,
			}
			for _, d := range weekdays {
				rule.DaysOfWeek = append(rule.DaysOfWeek, time.Weekday(d))
			}
			if weekOfMon > 0 {
				rule.WeekAndDay = &recurrence.WeekAndDay{
					Week: weekOfMon,
					Day:  time.Weekday(weekdayOfM),
				}
			}
			if until != "" {
				end, err := time.Parse(time.RFC3339, until)
				if err != nil {
					return fmt.Errorf("parse --until: %w", err)
				}
				rule.EndDate = &end
			}

			anchorTime := time.Now()
			if anchor != "" {
				var err error
				anchorTime, err = time.Parse(time.RFC3339, anchor)
				if err != nil {
					return fmt.Errorf("parse --anchor: %w", err)
				}
			}

			occurrences, err := recurrence.Generate(anchorTime, rule)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, occ := range occurrences {
				fmt.Fprintf(out, "%3d  %s\n", i+1, occ.Format(time.RFC3339))
			}
			fmt.Fprintf(out, "%d occurrence(s)\n", len(occurrences))
			return nil
		},
	}

	cmd.Flags().StringVar(&frequency, "frequency", "daily", "daily, weekly, monthly or yearly")
	cmd.Flags().IntVar(&interval, "interval", 1, "interval between occurrences")
	cmd.Flags().StringVar(&timezone, "timezone", "UTC", "IANA timezone of the rule")
	cmd.Flags().IntVar(&count, "count", 0, "number of occurrences")
	cmd.Flags().StringVar(&until, "until", "", "inclusive end date, RFC3339")
	cmd.Flags().StringVar(&anchor, "anchor", "", "anchor start time, RFC3339 (default now)")
	cmd.Flags().IntSliceVar(&weekdays, "weekdays", nil, "weekday set for weekly rules, 0=Sunday")
	cmd.Flags().IntVar(&dayOfMonth, "day-of-month", 0, "fixed day of month for monthly rules")
	cmd.Flags().IntVar(&weekOfMon, "week-of-month", 0, "nth week for monthly rules, 1-5")
	cmd.Flags().IntVar(&weekdayOfM, "weekday-of-month", 0, "weekday for the nth-week refinement, 0=Sunday")

	return cmd
}
