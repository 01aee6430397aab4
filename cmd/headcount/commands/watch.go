package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/headcount/internal/ledger"
	"github.com/dyluth/headcount/internal/printer"
	"github.com/dyluth/headcount/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchRun          string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream rounds as they are recorded",
	Long: `Stream rounds live as runs record them in a Redis ledger.

Output Formats:
  default - One line per day with run, phase, lights and description
  jsonl   - Line-delimited JSON for programmatic processing

With --run the stream follows one run and stops once every agent is final.

Examples:
  # Follow everything recorded under the default instance
  headcount watch --redis-url redis://localhost:6379/0

  # Follow one run as JSON
  headcount watch --redis-url redis://localhost:6379/0 --run 3f9a1c --output jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	watchCmd.Flags().StringVar(&watchRun, "run", "", "Only follow this run (short IDs accepted)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format := watch.Format(watchOutputFormat)
	if err := format.Validate(); err != nil {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Ledger.Backend != ledger.BackendRedis {
		return printer.Error(
			"watch needs a Redis ledger",
			fmt.Sprintf("Round events are only published by the redis backend, not '%s'.", cfg.Ledger.Backend),
			[]string{"Point watch at Redis:\n  headcount watch --redis-url redis://localhost:6379/0"},
		)
	}
	store, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	rs := store.(*ledger.RedisStore)

	opts := watch.StreamOptions{Format: format}
	if watchRun != "" {
		runID, err := resolveRun(ctx, store, watchRun)
		if err != nil {
			return err
		}
		run, err := store.GetRun(ctx, runID)
		if err != nil {
			return fmt.Errorf("failed to load run: %w", err)
		}
		if run.Status != ledger.RunStatusRunning {
			printer.Info("Run %s is already %s; see 'headcount history %s'\n", watchRun, run.Status, watchRun)
			return nil
		}
		opts.RunID = runID
		opts.UntilFinished = true
	}

	sub, err := rs.SubscribeRounds(ctx)
	if err != nil {
		return printer.ErrorWithContext(
			"failed to subscribe to round events",
			fmt.Sprintf("Error: %v", err),
			map[string]string{"redis": cfg.Ledger.RedisURL, "instance": cfg.Ledger.Instance},
			nil,
		)
	}
	defer sub.Close()

	if format == watch.FormatDefault {
		printer.Info("Watching instance '%s' (Ctrl+C to stop)...\n", cfg.Ledger.Instance)
	}
	return watch.StreamRounds(ctx, sub, printer.Out, opts)
}
