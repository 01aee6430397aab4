// Package ledger records simulation runs and the rounds they play.
//
// # Overview
//
// A run is one room of agents counted with one strategy. Every completed
// day becomes a Round: the lead agent's phase and description, and the
// signals, lights and seating of the whole circle. Recording sits outside
// the counting protocol; the agents never read the ledger.
//
// # Backends
//
// RedisStore keeps runs as hashes and rounds as per-day hashes indexed by
// a ZSET, and publishes every round on a Pub/Sub channel so that other
// processes can watch a run live. BoltStore keeps the same data in a
// single bbolt file. MemoryStore backs tests and unrecorded runs.
//
// # Redis Schema
//
// All keys are namespaced by instance name:
//
//	Runs index:   headcount:{instance}:runs                       (ZSET, score = started_at_ms)
//	Run:          headcount:{instance}:run:{run_id}               (HASH)
//	Rounds index: headcount:{instance}:run:{run_id}:rounds        (ZSET, score = day)
//	Round:        headcount:{instance}:run:{run_id}:round:{day}   (HASH)
//	Events:       headcount:{instance}:round_events               (Pub/Sub, JSON rounds)
package ledger
