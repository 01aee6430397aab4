package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/headcount/internal/printer"
	"github.com/dyluth/headcount/internal/report"
	"github.com/spf13/cobra"
)

var runsOutputFormat string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Long: `List the runs recorded in the ledger, most recent first.

Output Formats:
  default - Table with short ID, strategy, agents, days, answer and status
  jsonl   - Line-delimited JSON, one run per line

Examples:
  headcount runs --ledger bolt --bolt-path headcount.db
  headcount runs --redis-url redis://localhost:6379/0 --output jsonl`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().StringVarP(&runsOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if runsOutputFormat != "default" && runsOutputFormat != "jsonl" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", runsOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if runsOutputFormat == "jsonl" {
		return report.FormatJSONL(printer.Out, runs)
	}
	report.FormatRuns(printer.Out, runs, cfg.Ledger.Instance, time.Now())
	return nil
}
