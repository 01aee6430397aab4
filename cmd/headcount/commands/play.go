package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dyluth/headcount/internal/config"
	"github.com/dyluth/headcount/internal/printer"
	"github.com/dyluth/headcount/internal/report"
	"github.com/dyluth/headcount/internal/runner"
	"github.com/dyluth/headcount/internal/sim"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Step through a simulation interactively",
	Long: `Step through a simulation one beat at a time.

Commands (one per line):
  n, <enter>  next beat (day: compute lights, night: advance and reseat)
  r           finish the current round
  f           finish the current phase
  u           undo one beat
  s           start over
  k           show what every agent knows
  a           show each agent's answer
  q           quit

Example:
  headcount play --agents 3 --strategy fancy --seed 1`,
	RunE: runPlay,
}

func init() {
	addSimulationFlags(playCmd)
	playCmd.Flags().IntVar(&simUndoDepth, "undo-depth", config.DefaultUndoDepth, "Number of nights that can be undone")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	room, err := newPlayRoom(cfg, time.Now, logger)
	if err != nil {
		return printer.Error("failed to set up the room", fmt.Sprintf("Error: %v", err), nil)
	}
	return playSession(os.Stdin, printer.Out, room)
}

func newPlayRoom(cfg *config.HeadcountConfig, now func() time.Time, logger *zap.Logger) (*sim.Room, error) {
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = uint64(now().UnixNano())
	}
	seats, coin := runner.Seeded(seed)
	start, err := runner.StartFor(cfg.Simulation.Strategy, coin)
	if err != nil {
		return nil, err
	}
	return sim.NewRoom(cfg.Simulation.Agents, start,
		sim.WithRand(seats),
		sim.WithUndoDepth(*cfg.Simulation.UndoDepth),
		sim.WithLogger(logger),
	)
}

// playSession reads commands from in until q or end of input.
func playSession(in io.Reader, out io.Writer, room *sim.Room) error {
	report.FormatRoom(out, room)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "", "n":
			room.Step()
		case "r":
			room.Round()
		case "f":
			days := room.FinishPhase()
			fmt.Fprintf(out, "Played %d days\n", days)
		case "u":
			if !room.Undo() {
				fmt.Fprintln(out, "Nothing left to undo")
				continue
			}
		case "s":
			room.StartOver()
		case "k":
			report.FormatKnowledge(out, room.Knowledge())
			continue
		case "a":
			writeAnswers(out, room)
			continue
		case "q":
			return nil
		default:
			fmt.Fprintln(out, "Unknown command; use n, r, f, u, s, k, a or q")
			continue
		}

		report.FormatRoom(out, room)
		if room.Done() {
			writeAnswers(out, room)
		}
	}
}

func writeAnswers(out io.Writer, room *sim.Room) {
	answers, ok := room.Answers()
	if !ok {
		fmt.Fprintf(out, "Still counting after %d days\n", room.Day())
		return
	}
	fmt.Fprintf(out, "Puzzle complete after %d days: every agent answers N = %d\n", room.Day(), answers[0])
}
