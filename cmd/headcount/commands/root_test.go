package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dyluth/headcount/internal/config"
	"github.com/dyluth/headcount/internal/printer"
	"github.com/dyluth/headcount/pkg/protocol"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// capture redirects printer output for the duration of the test.
func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	prevOut, prevErr, prevNoColor := printer.Out, printer.ErrOut, color.NoColor
	printer.Out, printer.ErrOut, color.NoColor = out, errOut, true
	t.Cleanup(func() {
		printer.Out, printer.ErrOut, color.NoColor = prevOut, prevErr, prevNoColor
	})
	return out, errOut
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return Execute()
}

// TestRootCommand_ShowsHelpWhenNoSubcommand tests that the root command
// shows help instead of silently succeeding when invoked without a subcommand
func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	testRoot := &cobra.Command{
		Use:   "headcount",
		Short: "Test root command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	buf := new(bytes.Buffer)
	testRoot.SetOut(buf)
	testRoot.SetErr(buf)

	assert.NoError(t, testRoot.Execute())
	assert.Contains(t, buf.String(), "Usage:", "Help should be displayed")
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"run", "play", "history", "runs", "watch"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	capture(t)
	err := execute(t, "--unknown-flag", "value")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2025-10-29")
	assert.Equal(t, "1.2.3 (commit: abc123, built: 2025-10-29)", rootCmd.Version)
}

// One bolt ledger shared by a run, the listing and the history keeps flag
// state identical across the three invocations.
func TestCommands_RecordAndInspect(t *testing.T) {
	out, _ := capture(t)
	ledgerArgs := []string{"--ledger", "bolt", "--bolt-path", filepath.Join(t.TempDir(), "headcount.db"), "--instance", "test"}

	require.NoError(t, execute(t, append([]string{"run", "--agents", "3", "--strategy", "fancy", "--seed", "7"}, ledgerArgs...)...))
	assert.Contains(t, out.String(), "All 3 agents agree: N = 3")
	assert.Contains(t, out.String(), "Status:   finished")

	runLine := ""
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.HasPrefix(line, "Run:") {
			runLine = line
		}
	}
	runID := strings.TrimSpace(strings.TrimPrefix(runLine, "Run:"))
	require.Len(t, runID, 36)

	out.Reset()
	require.NoError(t, execute(t, append([]string{"runs", "--output", "default"}, ledgerArgs...)...))
	assert.Contains(t, out.String(), "Runs for instance 'test'")
	assert.Contains(t, out.String(), runID[:8])
	assert.Contains(t, out.String(), "1 run found")

	out.Reset()
	require.NoError(t, execute(t, append([]string{"history", runID[:8], "--days", "1..3", "--output", "jsonl"}, ledgerArgs...)...))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"phase":"upper-bound"`)
}

func TestHistory_UnknownRun(t *testing.T) {
	_, errOut := capture(t)
	err := execute(t, "history", "ffffffff", "--output", "default", "--days", "",
		"--ledger", "bolt", "--bolt-path", filepath.Join(t.TempDir(), "empty.db"), "--instance", "test")
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "not found")
}

func TestWatch_NeedsRedis(t *testing.T) {
	_, errOut := capture(t)
	err := execute(t, "watch", "--output", "default", "--run", "",
		"--ledger", "bolt", "--bolt-path", filepath.Join(t.TempDir(), "w.db"), "--instance", "test")
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "watch needs a Redis ledger")
}

func TestPlaySession(t *testing.T) {
	cfg := config.Default()
	cfg.Simulation.Agents = 2
	cfg.Simulation.Strategy = protocol.StrategyFancy
	cfg.Simulation.Seed = 1
	room, err := newPlayRoom(cfg, time.Now, zaptest.NewLogger(t))
	require.NoError(t, err)

	t.Run("undo and unknown commands", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, playSession(strings.NewReader("r\nu\nu\nz\nk\nq\n"), &out, room))
		text := out.String()
		assert.Contains(t, text, "Day 2 (day)")
		assert.Contains(t, text, "Nothing left to undo")
		assert.Contains(t, text, "Unknown command")
		assert.Contains(t, text, "Nothing is common knowledge yet.")
		assert.Equal(t, 0, room.Day())
	})

	t.Run("plays to the answer", func(t *testing.T) {
		var out bytes.Buffer
		input := strings.Repeat("r\n", 200)
		require.NoError(t, playSession(strings.NewReader(input), &out, room))
		assert.True(t, room.Done())
		assert.Contains(t, out.String(), "every agent answers N = 2")
	})

	t.Run("start over", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, playSession(strings.NewReader("s\na\n"), &out, room))
		assert.Equal(t, 0, room.Day())
		assert.Contains(t, out.String(), "Still counting after 0 days")
	})
}
