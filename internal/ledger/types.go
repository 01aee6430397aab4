package ledger

import (
	"fmt"

	"github.com/dyluth/headcount/pkg/protocol"
	"github.com/google/uuid"
)

// Run summarises one simulation.
type Run struct {
	ID           string            `json:"id"`             // UUID
	Strategy     protocol.Strategy `json:"strategy"`       // simple or fancy
	Agents       int               `json:"agents"`         // population size
	Seed         uint64            `json:"seed"`           // seed of the reseating and coin source
	StartedAtMs  int64             `json:"started_at_ms"`  // Unix milliseconds
	FinishedAtMs int64             `json:"finished_at_ms"` // zero while running
	Days         int               `json:"days"`           // completed days
	Answer       int               `json:"answer"`         // agreed population size, zero until finished
	Status       RunStatus         `json:"status"`
}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	// RunStatusRunning indicates days are still being played.
	RunStatusRunning RunStatus = "running"

	// RunStatusFinished indicates every agent reached a final state.
	RunStatusFinished RunStatus = "finished"

	// RunStatusAbandoned indicates the run stopped early (cancelled or day limit).
	RunStatusAbandoned RunStatus = "abandoned"
)

// Validate checks if the RunStatus is a known value.
func (s RunStatus) Validate() error {
	switch s {
	case RunStatusRunning, RunStatusFinished, RunStatusAbandoned:
		return nil
	default:
		return fmt.Errorf("invalid run status: %q", s)
	}
}

// Validate checks the run's fields.
func (r *Run) Validate() error {
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("invalid run ID: %w", err)
	}
	if err := r.Strategy.Validate(); err != nil {
		return err
	}
	if r.Agents < 1 {
		return fmt.Errorf("run must have at least one agent, got %d", r.Agents)
	}
	if r.Days < 0 {
		return fmt.Errorf("days cannot be negative: %d", r.Days)
	}
	if err := r.Status.Validate(); err != nil {
		return err
	}
	if r.Status == RunStatusFinished && r.Answer < 1 {
		return fmt.Errorf("finished run must have an answer")
	}
	return nil
}

// Round is one completed day of a run. Slices are indexed by seat.
type Round struct {
	RunID        string         `json:"run_id"`
	Day          int            `json:"day"` // 1-based
	Phase        protocol.Phase `json:"phase"`
	Description  string         `json:"description"`
	Signals      []bool         `json:"signals"`
	Lights       []bool         `json:"lights"`
	Seats        []string       `json:"seats"`
	Final        int            `json:"final"` // agents final after the night
	RecordedAtMs int64          `json:"recorded_at_ms"`
}

// Validate checks the round's fields.
func (r *Round) Validate() error {
	if _, err := uuid.Parse(r.RunID); err != nil {
		return fmt.Errorf("invalid run ID: %w", err)
	}
	if r.Day < 1 {
		return fmt.Errorf("day must be positive, got %d", r.Day)
	}
	if err := r.Phase.Validate(); err != nil {
		return err
	}
	if len(r.Signals) != len(r.Seats) || len(r.Lights) != len(r.Seats) {
		return fmt.Errorf("round has %d seats but %d signals and %d lights", len(r.Seats), len(r.Signals), len(r.Lights))
	}
	return nil
}
