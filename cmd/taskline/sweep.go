package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskline/taskline/internal/config"
	"github.com/taskline/taskline/series/sweeper"
	"github.com/taskline/taskline/store/sqlite"
)

func newSweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete series that lost all their member tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			st, err := sqlite.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}

			sw := sweeper.New(st, st.UserIDs, time.Duration(cfg.Sweep.Grace), slog.Default())
			removed, err := sw.SweepAll(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d empty series\n", removed)
			return nil
		},
	}
	return cmd
}
