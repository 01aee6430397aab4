package commands

import (
	"fmt"

	"github.com/dyluth/headcount/internal/config"
	"github.com/dyluth/headcount/internal/ledger"
	"github.com/dyluth/headcount/internal/printer"
	"github.com/dyluth/headcount/pkg/protocol"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version string
	commit  string
	date    string

	configPath     string
	verbose        bool
	ledgerBackend  string
	ledgerRedisURL string
	ledgerBoltPath string
	ledgerInstance string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "headcount",
	Short: "Headcount - anonymous agents counting themselves in a circular prison",
	Long: `Headcount simulates the circular prison puzzle: N identical agents sit in
a ring, each sees only a single light switched by its predecessor, and they
are reseated at random every night. One agent, the captain, is distinguished.
Using only those lights, every agent eventually learns N.

Two strategies are available:
  simple - number agents one at a time with coin-flip tournaments
  fancy  - refine a partition of agents and solve for the class sizes

Runs can be recorded in Redis or a local bbolt file and inspected later.`,
	Version: version,
	// Show help instead of silently succeeding without a subcommand
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Path to headcount.yml (defaults apply when omitted)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log simulation progress to stderr")
	pf.StringVar(&ledgerBackend, "ledger", "", "Ledger backend: none, redis or bolt")
	pf.StringVar(&ledgerRedisURL, "redis-url", "", "Redis URL for the redis ledger")
	pf.StringVar(&ledgerBoltPath, "bolt-path", "", "File path for the bolt ledger")
	pf.StringVar(&ledgerInstance, "instance", "", "Ledger namespace (default \"default\")")
}

// loadConfig reads the configuration file, if any, and applies the flags
// the user set on top of it.
func loadConfig(cmd *cobra.Command) (*config.HeadcountConfig, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, printer.Error(
				"failed to load configuration",
				fmt.Sprintf("Error: %v", err),
				[]string{fmt.Sprintf("Check the file:\n  %s", configPath)},
			)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("ledger") {
		cfg.Ledger.Backend = ledger.Backend(ledgerBackend)
	}
	if flags.Changed("redis-url") {
		cfg.Ledger.RedisURL = ledgerRedisURL
		if !flags.Changed("ledger") && cfg.Ledger.Backend == ledger.BackendNone {
			cfg.Ledger.Backend = ledger.BackendRedis
		}
	}
	if flags.Changed("bolt-path") {
		cfg.Ledger.BoltPath = ledgerBoltPath
		if !flags.Changed("ledger") && cfg.Ledger.Backend == ledger.BackendNone {
			cfg.Ledger.Backend = ledger.BackendBolt
		}
	}
	if flags.Changed("instance") {
		cfg.Ledger.Instance = ledgerInstance
	}
	applySimulationFlags(cmd, &cfg.Simulation)

	if err := cfg.Validate(); err != nil {
		return nil, printer.Error(
			"invalid configuration",
			fmt.Sprintf("Error: %v", err),
			nil,
		)
	}
	return cfg, nil
}

// Simulation flags shared by run and play.
var (
	simAgents    int
	simStrategy  string
	simSeed      uint64
	simMaxDays   int
	simUndoDepth int
)

func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&simAgents, "agents", "a", 5, "Number of agents in the room")
	cmd.Flags().StringVarP(&simStrategy, "strategy", "s", string(protocol.StrategyFancy), "Counting strategy: simple or fancy")
	cmd.Flags().Uint64Var(&simSeed, "seed", 0, "Seed for reseating and coin flips (0 = from the clock)")
}

func applySimulationFlags(cmd *cobra.Command, sim *config.SimulationConfig) {
	flags := cmd.Flags()
	if flags.Lookup("agents") != nil && flags.Changed("agents") {
		sim.Agents = simAgents
	}
	if flags.Lookup("strategy") != nil && flags.Changed("strategy") {
		sim.Strategy = protocol.Strategy(simStrategy)
	}
	if flags.Lookup("seed") != nil && flags.Changed("seed") {
		sim.Seed = simSeed
	}
	if flags.Lookup("max-days") != nil && flags.Changed("max-days") {
		maxDays := simMaxDays
		sim.MaxDays = &maxDays
	}
	if flags.Lookup("undo-depth") != nil && flags.Changed("undo-depth") {
		depth := simUndoDepth
		sim.UndoDepth = &depth
	}
}

// openLedger opens the configured store, printing a helpful error when the
// backend is unreachable.
func openLedger(cfg *config.HeadcountConfig) (ledger.Store, error) {
	store, err := ledger.Open(cfg.Ledger.Options())
	if err != nil {
		return nil, printer.ErrorWithContext(
			"failed to open ledger",
			fmt.Sprintf("Error: %v", err),
			map[string]string{
				"backend":  string(cfg.Ledger.Backend),
				"instance": cfg.Ledger.Instance,
			},
			[]string{"Check the ledger section of headcount.yml or the --ledger flags"},
		)
	}
	return store, nil
}

// newLogger returns a development logger with --verbose and a quiet
// production logger otherwise.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
