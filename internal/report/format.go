// Package report renders runs, rounds and live rooms for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/headcount/internal/ledger"
	"github.com/dyluth/headcount/internal/sim"
	"github.com/dyluth/headcount/pkg/protocol"
	"github.com/dyluth/headcount/pkg/protocol/fancy"
	"github.com/dyluth/headcount/pkg/protocol/simple"
)

// FormatRuns writes recorded runs as a table and returns how many it wrote.
func FormatRuns(w io.Writer, runs []*ledger.Run, instance string, now time.Time) int {
	if len(runs) == 0 {
		fmt.Fprintf(w, "No runs found for instance '%s'\n", instance)
		return 0
	}

	fmt.Fprintf(w, "Runs for instance '%s':\n\n", instance)
	fmt.Fprintf(w, "%-10s %-8s %-6s %-9s %-6s %-10s %s\n",
		"ID", "STRATEGY", "AGENTS", "DAYS", "ANSWER", "STATUS", "STARTED")
	fmt.Fprintf(w, "%-10s %-8s %-6s %-9s %-6s %-10s %s\n",
		"----------", "--------", "------", "---------", "------", "----------", "--------")
	for _, r := range runs {
		fmt.Fprintf(w, "%-10s %-8s %-6d %-9d %-6s %-10s %s\n",
			formatID(r.ID),
			r.Strategy,
			r.Agents,
			r.Days,
			formatAnswer(r.Answer),
			r.Status,
			formatAge(r.StartedAtMs, now),
		)
	}

	noun := "run"
	if len(runs) != 1 {
		noun = "runs"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(runs), noun)
	return len(runs)
}

// FormatRounds writes a run's rounds as a table, one line per day.
func FormatRounds(w io.Writer, rounds []*ledger.Round, runID string) int {
	if len(rounds) == 0 {
		fmt.Fprintf(w, "No rounds found for run '%s'\n", formatID(runID))
		return 0
	}

	fmt.Fprintf(w, "%-7s %-18s %-12s %-12s %-5s %s\n", "DAY", "PHASE", "SIGNALS", "LIGHTS", "FINAL", "DESCRIPTION")
	fmt.Fprintf(w, "%-7s %-18s %-12s %-12s %-5s %s\n",
		"-------", "------------------", "------------", "------------", "-----", "----------------------------------------")
	for _, r := range rounds {
		fmt.Fprintf(w, "%-7d %-18s %-12s %-12s %-5d %s\n",
			r.Day,
			r.Phase,
			formatBits(r.Signals, 12),
			formatBits(r.Lights, 12),
			r.Final,
			r.Description,
		)
	}
	return len(rounds)
}

// FormatRound writes one round as a single line, for live streams.
func FormatRound(w io.Writer, r *ledger.Round) {
	fmt.Fprintf(w, "[%s] day %-6d %-18s %s  %s\n",
		formatID(r.RunID), r.Day, r.Phase, formatBits(r.Lights, 32), r.Description)
}

// FormatJSONL writes each value as one line of JSON.
func FormatJSONL[T any](w io.Writer, values []T) error {
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal record to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

// FormatSummary writes the outcome of a run.
func FormatSummary(w io.Writer, r *ledger.Run) {
	fmt.Fprintf(w, "Run:      %s\n", r.ID)
	fmt.Fprintf(w, "Strategy: %s\n", r.Strategy)
	fmt.Fprintf(w, "Agents:   %d\n", r.Agents)
	fmt.Fprintf(w, "Seed:     %d\n", r.Seed)
	fmt.Fprintf(w, "Days:     %d\n", r.Days)
	fmt.Fprintf(w, "Status:   %s\n", r.Status)
	if r.Status == ledger.RunStatusFinished {
		fmt.Fprintf(w, "Answer:   N = %d\n", r.Answer)
	}
}

// FormatRoom writes the room as the agents sit now: one line per seat with
// the agent's phase, its signal, and the light it sees once the day beat
// has been played.
func FormatRoom(w io.Writer, room *sim.Room) {
	fmt.Fprintf(w, "Day %d (%s)  %s\n", room.Day()+1, room.Beat(), room.Describe())
	lights := room.Lights()
	for seat, a := range room.Agents() {
		light := "?"
		if lights != nil {
			light = onOff(lights[seat])
		}
		role := ""
		if a.Captain {
			role = " (captain)"
		}
		fmt.Fprintf(w, "  %2d %-4s%-10s %-18s signal=%-3s light=%-3s %s\n",
			seat, a.Name, role, a.State.Phase(), onOff(a.State.WillSignal()), light, Detail(a.State))
	}
}

// FormatKnowledge writes what every agent knows, one fact per line.
func FormatKnowledge(w io.Writer, facts []string) {
	if len(facts) == 0 {
		fmt.Fprintln(w, "Nothing is common knowledge yet.")
		return
	}
	fmt.Fprintln(w, "Common knowledge:")
	for _, f := range facts {
		fmt.Fprintf(w, "  - %s\n", f)
	}
}

// Detail describes the private part of an agent's state: its serial number
// or its class.
func Detail(s protocol.State) string {
	if n, ok := simple.NumberOf(s); ok {
		return n.String()
	}
	switch st := s.(type) {
	case fancy.FlashLightsPhase:
		return fmt.Sprintf("S_%d", st.Context().MyPartition)
	case fancy.RefinePhase1:
		return fmt.Sprintf("S_%d", st.Context().MyPartition)
	case fancy.RefinePhase2:
		return fmt.Sprintf("S_%d", st.Context().MyPartition)
	}
	if answer, ok := protocol.AnswerOf(s); ok {
		return fmt.Sprintf("N = %d", answer)
	}
	return ""
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// formatID truncates an ID to its first 8 characters.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatAnswer(answer int) string {
	if answer == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", answer)
}

// formatBits renders lit positions as '#' and dark ones as '.', truncated
// to width.
func formatBits(bits []bool, width int) string {
	if len(bits) == 0 {
		return "-"
	}
	var b strings.Builder
	for i, bit := range bits {
		if i == width-3 && len(bits) > width {
			b.WriteString("...")
			break
		}
		if bit {
			b.WriteByte('#')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// formatAge shows a timestamp relative to now, e.g. "2m ago".
func formatAge(timestampMs int64, now time.Time) string {
	if timestampMs == 0 {
		return "-"
	}
	diff := now.Sub(time.UnixMilli(timestampMs))
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
