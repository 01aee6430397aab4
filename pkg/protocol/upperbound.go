package protocol

import "fmt"

// UpperBound is the doubling phase that certifies a power of two >= N.
//
// Round r waxes for r days (anyone active activates whoever follows them)
// and then wanes for 2^r days (an agent stays active only while its
// predecessor is). If everyone is still active at the end, N <= 2^r.
// Otherwise the captain starts round r+1.
type UpperBound struct {
	captain bool
	round   int
	waning  bool
	tally   Tally
}

// StartUpperBound returns round 1, waxing, with only the captain active.
func StartUpperBound(captain bool) UpperBound {
	return waxing(captain, 1)
}

func waxing(captain bool, round int) UpperBound {
	return UpperBound{captain: captain, round: round, tally: NewTally(round, captain, Any)}
}

func waning(captain bool, round int, active bool) UpperBound {
	return UpperBound{captain: captain, round: round, waning: true, tally: NewTally(1<<round, active, All)}
}

// Next advances by one day. It finishes with the certified bound.
func (u UpperBound) Next(signal bool) Result[UpperBound, int] {
	r := u.tally.Next(signal)
	active, done := r.Value()
	if !done {
		return Continue[UpperBound, int](UpperBound{captain: u.captain, round: u.round, waning: u.waning, tally: r.Next()})
	}
	switch {
	case !u.waning:
		return Continue[UpperBound, int](waning(u.captain, u.round, active))
	case active:
		return Done[UpperBound](1 << u.round)
	default:
		return Continue[UpperBound, int](waxing(u.captain, u.round+1))
	}
}

// Active reports whether this agent currently signals.
func (u UpperBound) Active() bool {
	return u.tally.Active()
}

// Captain reports whether this agent seeded the phase.
func (u UpperBound) Captain() bool {
	return u.captain
}

// Round is the doubling round, starting at 1.
func (u UpperBound) Round() int {
	return u.round
}

// Waning reports whether the round is in its confirmation half.
func (u UpperBound) Waning() bool {
	return u.waning
}

// Day is the 1-based day within the current half-round.
func (u UpperBound) Day() int {
	return u.tally.Day()
}

// Limit is the length of the current half-round.
func (u UpperBound) Limit() int {
	return u.tally.Budget()
}

// Describe renders progress, e.g. "Upper Bound Phase: Round 2, Waning 3/4".
func (u UpperBound) Describe() string {
	half := "Waxing"
	if u.waning {
		half = "Waning"
	}
	return fmt.Sprintf("Upper Bound Phase: Round %d, %s %d/%d", u.round, half, u.Day(), u.Limit())
}
