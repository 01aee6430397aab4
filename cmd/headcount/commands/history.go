package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/headcount/internal/filter"
	"github.com/dyluth/headcount/internal/ledger"
	"github.com/dyluth/headcount/internal/printer"
	"github.com/dyluth/headcount/internal/report"
	"github.com/dyluth/headcount/internal/resolver"
	"github.com/dyluth/headcount/internal/timespec"
	"github.com/spf13/cobra"
)

var (
	historyOutputFormat string
	historyDays         string
	historySince        string
	historyUntil        string
	historyPhase        string
)

var historyCmd = &cobra.Command{
	Use:   "history RUN_ID",
	Short: "Show the recorded days of a run",
	Long: `Show the days recorded for one run, one line per day.

Supports short IDs (e.g., "3f9a1c" instead of the full UUID).

Output Formats:
  default - Run summary followed by a table of days
  jsonl   - Line-delimited JSON, one round per line

Filters:
  --days   - Day range: "12", "10..20", "100.." or "..5"
  --since  - Rounds recorded after this time (duration or RFC3339)
  --until  - Rounds recorded before this time (duration or RFC3339)
  --phase  - Phase name (glob pattern: "refine-*", "coin-*")

Examples:
  headcount history 3f9a1c --ledger bolt --bolt-path headcount.db
  headcount history 3f9a1c --days 1..20 --output jsonl | jq .phase`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	historyCmd.Flags().StringVar(&historyDays, "days", "", "Day range to show")
	historyCmd.Flags().StringVar(&historySince, "since", "", "Show rounds recorded after time (duration or RFC3339)")
	historyCmd.Flags().StringVar(&historyUntil, "until", "", "Show rounds recorded before time (duration or RFC3339)")
	historyCmd.Flags().StringVar(&historyPhase, "phase", "", "Filter by phase (glob pattern)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if historyOutputFormat != "default" && historyOutputFormat != "jsonl" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", historyOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}
	firstDay, lastDay, err := timespec.ParseDays(historyDays)
	if err != nil {
		return printer.Error("invalid --days", fmt.Sprintf("Error: %v", err), []string{"Examples: --days 12, --days 10..20, --days 100.."})
	}
	sinceMs, untilMs, err := timespec.ParseRange(historySince, historyUntil)
	if err != nil {
		return printer.Error("invalid time filter", fmt.Sprintf("Error: %v", err), nil)
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

	runID, err := resolveRun(ctx, store, args[0])
	if err != nil {
		return err
	}
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	rounds, err := store.Rounds(ctx, runID, firstDay, lastDay)
	if err != nil {
		return fmt.Errorf("failed to load rounds: %w", err)
	}
	criteria := &filter.Criteria{
		SinceTimestampMs: sinceMs,
		UntilTimestampMs: untilMs,
		PhaseGlob:        historyPhase,
	}
	rounds = criteria.Apply(rounds)

	if historyOutputFormat == "jsonl" {
		return report.FormatJSONL(printer.Out, rounds)
	}
	report.FormatSummary(printer.Out, run)
	fmt.Fprintln(printer.Out)
	report.FormatRounds(printer.Out, rounds, runID)
	return nil
}

// resolveRun expands a short run ID, turning resolver errors into
// user-facing ones.
func resolveRun(ctx context.Context, store ledger.Store, shortID string) (string, error) {
	runID, err := resolver.ResolveRunID(ctx, store, shortID)
	if err == nil {
		return runID, nil
	}
	if resolver.IsNotFoundError(err) {
		return "", printer.Error(
			fmt.Sprintf("run with ID '%s' not found", shortID),
			"The specified run does not exist in this ledger.",
			[]string{"List recorded runs:\n  headcount runs"},
		)
	}
	if ambErr, ok := err.(*resolver.AmbiguousError); ok {
		return "", printer.Error(
			fmt.Sprintf("ambiguous run ID '%s'", shortID),
			resolver.FormatAmbiguousError(ambErr),
			[]string{"Use a longer prefix or the full run ID"},
		)
	}
	return "", printer.Error("invalid run ID", fmt.Sprintf("Error: %v", err), nil)
}
