package ledger

import "fmt"

// RunsKey returns the Redis key of the runs index.
// Pattern: headcount:{instance}:runs
func RunsKey(instance string) string {
	return fmt.Sprintf("headcount:%s:runs", instance)
}

// RunKey returns the Redis key of a run hash.
// Pattern: headcount:{instance}:run:{run_id}
func RunKey(instance, runID string) string {
	return fmt.Sprintf("headcount:%s:run:%s", instance, runID)
}

// RoundsKey returns the Redis key of a run's day index.
// Pattern: headcount:{instance}:run:{run_id}:rounds
func RoundsKey(instance, runID string) string {
	return fmt.Sprintf("headcount:%s:run:%s:rounds", instance, runID)
}

// RoundKey returns the Redis key of one round hash.
// Pattern: headcount:{instance}:run:{run_id}:round:{day}
func RoundKey(instance, runID string, day int) string {
	return fmt.Sprintf("headcount:%s:run:%s:round:%d", instance, runID, day)
}

// RoundEventsChannel returns the Pub/Sub channel carrying recorded rounds.
// Pattern: headcount:{instance}:round_events
func RoundEventsChannel(instance string) string {
	return fmt.Sprintf("headcount:%s:round_events", instance)
}
