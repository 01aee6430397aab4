package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dyluth/headcount/pkg/protocol"
)

// RunToHash converts a Run to Redis hash fields.
func RunToHash(r *Run) map[string]interface{} {
	return map[string]interface{}{
		"id":             r.ID,
		"strategy":       string(r.Strategy),
		"agents":         r.Agents,
		"seed":           strconv.FormatUint(r.Seed, 10),
		"started_at_ms":  r.StartedAtMs,
		"finished_at_ms": r.FinishedAtMs,
		"days":           r.Days,
		"answer":         r.Answer,
		"status":         string(r.Status),
	}
}

// HashToRun converts Redis hash fields back to a Run.
func HashToRun(hash map[string]string) (*Run, error) {
	agents, err := strconv.Atoi(hash["agents"])
	if err != nil {
		return nil, fmt.Errorf("invalid agents field: %w", err)
	}
	seed, err := strconv.ParseUint(hash["seed"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid seed field: %w", err)
	}
	days, err := strconv.Atoi(hash["days"])
	if err != nil {
		return nil, fmt.Errorf("invalid days field: %w", err)
	}
	startedAtMs, _ := strconv.ParseInt(hash["started_at_ms"], 10, 64)
	finishedAtMs, _ := strconv.ParseInt(hash["finished_at_ms"], 10, 64)
	answer, _ := strconv.Atoi(hash["answer"])

	return &Run{
		ID:           hash["id"],
		Strategy:     protocol.Strategy(hash["strategy"]),
		Agents:       agents,
		Seed:         seed,
		StartedAtMs:  startedAtMs,
		FinishedAtMs: finishedAtMs,
		Days:         days,
		Answer:       answer,
		Status:       RunStatus(hash["status"]),
	}, nil
}

// RoundToHash converts a Round to Redis hash fields. Signals and lights
// are stored as strings of '1' and '0' in seat order; seats as JSON.
func RoundToHash(r *Round) (map[string]interface{}, error) {
	seatsJSON, err := json.Marshal(r.Seats)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal seats: %w", err)
	}
	return map[string]interface{}{
		"run_id":         r.RunID,
		"day":            r.Day,
		"phase":          string(r.Phase),
		"description":    r.Description,
		"signals":        EncodeBits(r.Signals),
		"lights":         EncodeBits(r.Lights),
		"seats":          string(seatsJSON),
		"final":          r.Final,
		"recorded_at_ms": r.RecordedAtMs,
	}, nil
}

// HashToRound converts Redis hash fields back to a Round.
func HashToRound(hash map[string]string) (*Round, error) {
	day, err := strconv.Atoi(hash["day"])
	if err != nil {
		return nil, fmt.Errorf("invalid day field: %w", err)
	}
	signals, err := DecodeBits(hash["signals"])
	if err != nil {
		return nil, fmt.Errorf("invalid signals field: %w", err)
	}
	lights, err := DecodeBits(hash["lights"])
	if err != nil {
		return nil, fmt.Errorf("invalid lights field: %w", err)
	}
	var seats []string
	if s := hash["seats"]; s != "" {
		if err := json.Unmarshal([]byte(s), &seats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal seats: %w", err)
		}
	}
	final, _ := strconv.Atoi(hash["final"])
	recordedAtMs, _ := strconv.ParseInt(hash["recorded_at_ms"], 10, 64)

	return &Round{
		RunID:        hash["run_id"],
		Day:          day,
		Phase:        protocol.Phase(hash["phase"]),
		Description:  hash["description"],
		Signals:      signals,
		Lights:       lights,
		Seats:        seats,
		Final:        final,
		RecordedAtMs: recordedAtMs,
	}, nil
}

// EncodeBits renders bits as '1' and '0'.
func EncodeBits(bits []bool) string {
	var b strings.Builder
	b.Grow(len(bits))
	for _, bit := range bits {
		if bit {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// DecodeBits parses the output of EncodeBits.
func DecodeBits(s string) ([]bool, error) {
	bits := make([]bool, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '1':
			bits[i] = true
		case '0':
		default:
			return nil, fmt.Errorf("unexpected character %q at %d", s[i], i)
		}
	}
	return bits, nil
}
