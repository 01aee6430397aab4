// Package protocol provides the building blocks of the anonymous counting
// protocol: bounded sub-procedures, the announcement broadcast, the
// upper-bound estimation phase and the State contract every strategy
// implements.
//
// # Overview
//
// N indistinguishable agents sit in a circle that is reshuffled every
// night. Each day an agent observes exactly one bit: whether its
// predecessor chose to signal. Nobody knows N in advance. A strategy is a
// finite-state machine that every agent runs in lock-step; after a bounded
// number of days every agent's machine reaches a final state carrying N.
//
// # Core Concepts
//
// A Subprocedure runs for a number of days fixed at construction and then
// yields a value to its caller. Tally is the generic one: it folds the
// observed bits with a Combine operation (Any or All). Announcement is a
// Tally over Any that lasts upperBound days, long enough for a single
// asserted bit to reach every agent.
//
// UpperBound is the doubling phase both strategies start with. The captain
// starts active; waxing spreads the bit for r days, waning requires it to
// survive 2^r days. A surviving round certifies 2^r as an upper bound on N.
//
// # States
//
// Every strategy exposes its phases through State. States are values:
// Next returns a new State and never mutates the receiver, so a driver can
// keep old states around for undo without copying.
//
//	s := simple.Start(true, rand.New(rand.NewPCG(1, 2)))
//	for !protocol.IsFinal(s) {
//		s = s.Next(sawLight())
//	}
//	n, _ := protocol.AnswerOf(s)
//
// # Design Principles
//
// - Pure transitions: no I/O, no clocks, no goroutines
// - Randomness is an explicit parameter
// - Wiring defects (a zero budget, an exhausted enumeration) panic
package protocol
