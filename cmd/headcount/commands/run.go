package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/headcount/internal/config"
	"github.com/dyluth/headcount/internal/ledger"
	"github.com/dyluth/headcount/internal/metrics"
	"github.com/dyluth/headcount/internal/printer"
	"github.com/dyluth/headcount/internal/report"
	"github.com/dyluth/headcount/internal/runner"
	"github.com/dyluth/headcount/internal/sim"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runMetricsListen string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play a simulation until every agent knows the population size",
	Long: `Play a simulation to completion without interaction.

Every completed day is recorded in the configured ledger, so the run can
be inspected afterwards with 'headcount history' or followed live with
'headcount watch' when the ledger is Redis.

Examples:
  # Count 7 agents with the partition strategy
  headcount run --agents 7

  # Reproducible run with the numbering strategy
  headcount run --strategy simple --agents 4 --seed 42

  # Record into Redis and expose Prometheus metrics
  headcount run --redis-url redis://localhost:6379/0 --metrics-listen :9102`,
	RunE: runRun,
}

func init() {
	addSimulationFlags(runCmd)
	runCmd.Flags().IntVar(&simMaxDays, "max-days", config.DefaultMaxDays, "Abandon the run after this many days")
	runCmd.Flags().StringVar(&runMetricsListen, "metrics-listen", "", "Serve Prometheus metrics on this address (e.g. :9102)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("metrics-listen") {
		cfg.Metrics.Listen = runMetricsListen
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if rs, ok := store.(*ledger.RedisStore); ok {
		if err := rs.Ping(ctx); err != nil {
			return printer.ErrorWithContext(
				"Redis connection failed",
				fmt.Sprintf("Could not connect to Redis at %s", cfg.Ledger.RedisURL),
				map[string]string{"error": err.Error()},
				[]string{"Check that Redis is running, or record locally:\n  headcount run --ledger bolt --bolt-path headcount.db"},
			)
		}
	}

	opts := []runner.Option{runner.WithLogger(logger)}
	if cfg.Metrics.Listen != "" {
		stopMetrics, m, err := startMetrics(ctx, cfg.Metrics.Listen, logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
		opts = append(opts, runner.WithMetrics(m))
	}

	printer.Step("Counting %d agents with the %s strategy...\n", cfg.Simulation.Agents, cfg.Simulation.Strategy)
	summary, runErr := runner.New(cfg, store, opts...).Run(ctx)
	if summary == nil {
		return printer.Error("run failed", fmt.Sprintf("Error: %v", runErr), nil)
	}

	fmt.Fprintln(printer.Out)
	if run, err := store.GetRun(context.WithoutCancel(ctx), summary.RunID); err == nil {
		report.FormatSummary(printer.Out, run)
		fmt.Fprintln(printer.Out)
	}

	switch {
	case runErr == nil:
		printer.Success("All %d agents agree: N = %d after %d days\n", summary.Agents, summary.Answer, summary.Days)
		return nil
	case errors.Is(runErr, sim.ErrDayLimit):
		return printer.Error(
			"day limit reached",
			fmt.Sprintf("The agents were still counting after %d days.", summary.Days),
			[]string{"Raise the limit:\n  headcount run --max-days <N>"},
		)
	case errors.Is(runErr, context.Canceled):
		printer.Warning("Run interrupted on day %d\n", summary.Days)
		return runErr
	default:
		return printer.Error("run failed", fmt.Sprintf("Error: %v", runErr), nil)
	}
}

// startMetrics serves a fresh registry on addr. The returned function
// stops the server and waits for it.
func startMetrics(ctx context.Context, addr string, logger *zap.Logger) (func(), *metrics.Metrics, error) {
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	serveCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := metrics.Serve(serveCtx, addr, registry); err != nil {
			logger.Warn("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	printer.Info("Serving metrics on %s/metrics\n", addr)

	return func() {
		cancel()
		<-done
	}, m, nil
}
