package config

import (
	"fmt"
	"os"

	"github.com/dyluth/headcount/internal/ledger"
	"github.com/dyluth/headcount/pkg/protocol"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxDays bounds a run when simulation.max_days is omitted.
	DefaultMaxDays = 1_000_000

	// DefaultUndoDepth bounds interactive undo when simulation.undo_depth is omitted.
	DefaultUndoDepth = 1024

	// DefaultInstance namespaces recorded runs when ledger.instance is omitted.
	DefaultInstance = "default"
)

// HeadcountConfig represents the top-level headcount.yml configuration
type HeadcountConfig struct {
	Version    string           `yaml:"version"`
	Simulation SimulationConfig `yaml:"simulation"`
	Ledger     *LedgerConfig    `yaml:"ledger,omitempty"`
	Metrics    *MetricsConfig   `yaml:"metrics,omitempty"`
}

// SimulationConfig describes the room to simulate
type SimulationConfig struct {
	Agents    int               `yaml:"agents"`
	Strategy  protocol.Strategy `yaml:"strategy"`
	Seed      uint64            `yaml:"seed,omitempty"`       // 0 = seeded from the clock
	MaxDays   *int              `yaml:"max_days,omitempty"`   // default 1_000_000
	UndoDepth *int              `yaml:"undo_depth,omitempty"` // default 1024
}

// LedgerConfig selects where runs are recorded
type LedgerConfig struct {
	Backend  ledger.Backend `yaml:"backend"`             // none, redis or bolt
	RedisURL string         `yaml:"redis_url,omitempty"` // required for redis
	BoltPath string         `yaml:"bolt_path,omitempty"` // required for bolt
	Instance string         `yaml:"instance,omitempty"`  // default "default"
}

// MetricsConfig enables the Prometheus endpoint
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"` // e.g. ":9102"; empty disables
}

// Default returns a validated configuration for a five-agent fancy run
// that records nothing.
func Default() *HeadcountConfig {
	c := &HeadcountConfig{
		Version: "1.0",
		Simulation: SimulationConfig{
			Agents:   5,
			Strategy: protocol.StrategyFancy,
		},
	}
	if err := c.Validate(); err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return c
}

// Validate performs strict validation and applies defaults
func (c *HeadcountConfig) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if err := c.Simulation.Validate(); err != nil {
		return err
	}

	if c.Ledger == nil {
		c.Ledger = &LedgerConfig{Backend: ledger.BackendNone}
	}
	if err := c.Ledger.Validate(); err != nil {
		return err
	}

	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}

	return nil
}

// Validate checks the simulation section and fills in its defaults
func (s *SimulationConfig) Validate() error {
	if s.Agents < 1 {
		return fmt.Errorf("simulation.agents must be >= 1, got %d", s.Agents)
	}
	if err := s.Strategy.Validate(); err != nil {
		return fmt.Errorf("simulation.strategy: %w", err)
	}

	if s.MaxDays == nil {
		maxDays := DefaultMaxDays
		s.MaxDays = &maxDays
	}
	if *s.MaxDays < 1 {
		return fmt.Errorf("simulation.max_days must be >= 1, got %d", *s.MaxDays)
	}

	if s.UndoDepth == nil {
		depth := DefaultUndoDepth
		s.UndoDepth = &depth
	}
	if *s.UndoDepth < 0 {
		return fmt.Errorf("simulation.undo_depth must be >= 0, got %d", *s.UndoDepth)
	}

	return nil
}

// Validate checks the ledger section and fills in its defaults
func (l *LedgerConfig) Validate() error {
	if l.Backend == "" {
		l.Backend = ledger.BackendNone
	}
	if err := l.Backend.Validate(); err != nil {
		return fmt.Errorf("ledger.backend: %w", err)
	}
	if l.Instance == "" {
		l.Instance = DefaultInstance
	}
	if err := ledger.ValidateInstance(l.Instance); err != nil {
		return fmt.Errorf("ledger.instance: %w", err)
	}

	switch l.Backend {
	case ledger.BackendRedis:
		if l.RedisURL == "" {
			return fmt.Errorf("ledger.redis_url is required for the redis backend")
		}
	case ledger.BackendBolt:
		if l.BoltPath == "" {
			return fmt.Errorf("ledger.bolt_path is required for the bolt backend")
		}
	}
	return nil
}

// Options converts the section to ledger options.
func (l *LedgerConfig) Options() ledger.Options {
	return ledger.Options{
		Backend:  l.Backend,
		RedisURL: l.RedisURL,
		BoltPath: l.BoltPath,
		Instance: l.Instance,
	}
}

// Load reads and validates headcount.yml from the specified path
func Load(path string) (*HeadcountConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config HeadcountConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
