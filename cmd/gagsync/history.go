package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gagsync/pkg/journal"
	"gagsync/pkg/ui"
)

var (
	historyLimit int
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the journal",
	Long: `List the most recent sync, replay and fetch runs with their outcome and
counters. With --run the per item sink actions of one run are listed instead.`,
	Example: `  gagsync history
  gagsync history --limit 50
  gagsync history --run 0b7c5a9e-...`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "show the events of one run")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, log, err := setupUnchecked(nil)
	if err != nil {
		return err
	}

	j, err := journal.Open(cfg.Journal.Path, log)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := context.Background()

	if historyRun != "" {
		events, err := j.Events(ctx, historyRun)
		if err != nil {
			return err
		}
		fmt.Println(ui.RenderEvents(events))
		return nil
	}

	runs, err := j.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	fmt.Println(ui.RenderRuns(runs))
	return nil
}
