package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "taskline",
		Short:         "Recurring-task series engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&userFlag, "user", "", "principal to act as")

	root.AddCommand(newAddCommand())
	root.AddCommand(newListCommand())
	root.AddCommand(newRemoveCommand())
	root.AddCommand(newExpandCommand())
	root.AddCommand(newSweepCommand())

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
