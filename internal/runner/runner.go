// Package runner plays a configured simulation to completion, recording
// every day in a ledger and reporting progress to metrics.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dyluth/headcount/internal/config"
	"github.com/dyluth/headcount/internal/ledger"
	"github.com/dyluth/headcount/internal/metrics"
	"github.com/dyluth/headcount/internal/sim"
	"github.com/dyluth/headcount/pkg/protocol"
	"github.com/dyluth/headcount/pkg/protocol/fancy"
	"github.com/dyluth/headcount/pkg/protocol/simple"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// progressEvery is how often, in days, a long run logs its progress.
const progressEvery = 10_000

// Summary is the outcome of a run.
type Summary struct {
	RunID  string
	Days   int
	Answer int
	Agents int
	Status ledger.RunStatus
}

// Runner owns one simulation session.
type Runner struct {
	cfg     *config.HeadcountConfig
	store   ledger.Store
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics reports days and outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the runner's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a runner for a validated configuration.
func New(cfg *config.HeadcountConfig, store ledger.Store, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Seeded returns the reseating source and the coin source for seed.
func Seeded(seed uint64) (seats, coin *rand.Rand) {
	return rand.New(rand.NewPCG(seed, 1)), rand.New(rand.NewPCG(seed, 2))
}

// StartFor returns the constructor of strategy s.
func StartFor(s protocol.Strategy, coin simple.Coin) (protocol.StartFunc, error) {
	switch s {
	case protocol.StrategyFancy:
		return fancy.Start, nil
	case protocol.StrategySimple:
		return simple.Start(coin), nil
	default:
		return nil, s.Validate()
	}
}

// Run plays days until every agent knows the answer, the context is
// cancelled or the day limit is reached. The run is recorded as finished
// or abandoned accordingly.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	simCfg := r.cfg.Simulation
	seed := simCfg.Seed
	if seed == 0 {
		seed = uint64(r.now().UnixNano())
	}
	seats, coin := Seeded(seed)
	start, err := StartFor(simCfg.Strategy, coin)
	if err != nil {
		return nil, err
	}

	run := &ledger.Run{
		ID:          uuid.New().String(),
		Strategy:    simCfg.Strategy,
		Agents:      simCfg.Agents,
		Seed:        seed,
		StartedAtMs: r.now().UnixMilli(),
		Status:      ledger.RunStatusRunning,
	}
	logger := r.logger.With(zap.String("run_id", run.ID))

	var last sim.RoundRecord
	room, err := sim.NewRoom(simCfg.Agents, start,
		sim.WithRand(seats),
		sim.WithUndoDepth(0),
		sim.WithLogger(logger),
		sim.WithObserver(func(rec sim.RoundRecord) { last = rec }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build room: %w", err)
	}

	if err := r.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	if r.metrics != nil {
		r.metrics.RunStarted()
	}
	logger.Info("run started",
		zap.String("strategy", run.Strategy.String()),
		zap.Int("agents", run.Agents),
		zap.Uint64("seed", seed))

	runErr := r.play(ctx, room, run, &last, logger)

	run.Days = room.Day()
	run.FinishedAtMs = r.now().UnixMilli()
	run.Status = ledger.RunStatusAbandoned
	if runErr == nil {
		answer, err := agreedAnswer(room)
		if err != nil {
			runErr = err
		} else {
			run.Answer = answer
			run.Status = ledger.RunStatusFinished
		}
	}

	if r.metrics != nil {
		r.metrics.RunEnded(run.Strategy.String(), string(run.Status), run.Status == ledger.RunStatusFinished, run.Days)
	}
	if err := r.store.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		return nil, errors.Join(runErr, fmt.Errorf("failed to record run outcome: %w", err))
	}

	summary := &Summary{RunID: run.ID, Days: run.Days, Answer: run.Answer, Agents: run.Agents, Status: run.Status}
	if runErr != nil {
		logger.Warn("run abandoned", zap.Int("day", run.Days), zap.Error(runErr))
		return summary, runErr
	}
	logger.Info("run finished", zap.Int("day", run.Days), zap.Int("answer", run.Answer))
	return summary, nil
}

func (r *Runner) play(ctx context.Context, room *sim.Room, run *ledger.Run, last *sim.RoundRecord, logger *zap.Logger) error {
	maxDays := *r.cfg.Simulation.MaxDays
	for !room.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if room.Day() >= maxDays {
			return fmt.Errorf("%w: %d days", sim.ErrDayLimit, room.Day())
		}

		room.Round()

		round := &ledger.Round{
			RunID:        run.ID,
			Day:          last.Day,
			Phase:        last.Phase,
			Description:  last.Description,
			Signals:      last.Signals,
			Lights:       last.Lights,
			Seats:        last.Seats,
			Final:        last.Final,
			RecordedAtMs: r.now().UnixMilli(),
		}
		if err := r.store.AppendRound(ctx, round); err != nil {
			return fmt.Errorf("failed to record day %d: %w", round.Day, err)
		}
		if r.metrics != nil {
			r.metrics.Day(run.Strategy.String(), round.Phase.String())
		}
		if round.Day%progressEvery == 0 {
			logger.Debug("progress", zap.Int("day", round.Day), zap.String("phase", round.Phase.String()))
		}
	}
	return nil
}

func agreedAnswer(room *sim.Room) (int, error) {
	answers, ok := room.Answers()
	if !ok {
		return 0, fmt.Errorf("agents finished without an answer")
	}
	for _, a := range answers[1:] {
		if a != answers[0] {
			return 0, fmt.Errorf("agents disagree on the answer: %v", answers)
		}
	}
	return answers[0], nil
}
