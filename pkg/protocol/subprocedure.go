package protocol

import "fmt"

// Result is what a sub-procedure returns from Next: either the state to
// continue with, or the value it finished with.
type Result[S, R any] struct {
	next  S
	value R
	done  bool
}

// Continue wraps the next state of a sub-procedure that has not finished.
func Continue[S, R any](next S) Result[S, R] {
	return Result[S, R]{next: next}
}

// Done wraps the final value of a finished sub-procedure.
func Done[S, R any](value R) Result[S, R] {
	return Result[S, R]{value: value, done: true}
}

// IsDone reports whether the sub-procedure finished.
func (r Result[S, R]) IsDone() bool {
	return r.done
}

// Next returns the state to continue with. Only meaningful when !IsDone().
func (r Result[S, R]) Next() S {
	return r.next
}

// Value returns the final value and true, or the zero value and false if
// the sub-procedure has not finished.
func (r Result[S, R]) Value() (R, bool) {
	return r.value, r.done
}

// Subprocedure is a finite-state machine that consumes one observed bit per
// day and, after a number of days fixed when it was built, yields an R.
type Subprocedure[S, R any] interface {
	Next(signal bool) Result[S, R]
}

// Combine folds an observed bit into an accumulator.
type Combine int

const (
	// Any is logical OR: the result is true if anyone asserted.
	Any Combine = iota

	// All is logical AND: the result stays true only if it was confirmed every day.
	All
)

func (c Combine) apply(acc, signal bool) bool {
	switch c {
	case Any:
		return acc || signal
	case All:
		return acc && signal
	default:
		panic(fmt.Sprintf("protocol: unknown combine operation %d", int(c)))
	}
}

// String returns "any" or "all".
func (c Combine) String() string {
	switch c {
	case Any:
		return "any"
	case All:
		return "all"
	default:
		return fmt.Sprintf("combine(%d)", int(c))
	}
}

// Tally is a bounded broadcast: it accumulates observed bits with op for
// exactly budget days and then reports the accumulator.
type Tally struct {
	op     Combine
	budget int
	day    int
	active bool
}

// NewTally builds a tally that lasts budget days, starting from initial.
// A budget below 1 is a wiring defect and panics.
func NewTally(budget int, initial bool, op Combine) Tally {
	if budget < 1 {
		panic(fmt.Sprintf("protocol: sub-procedure budget must be >= 1, got %d", budget))
	}
	return Tally{op: op, budget: budget, day: 1, active: initial}
}

// Next folds signal into the accumulator. It returns Done with the final
// accumulator on the budget-th call and Continue before that.
func (t Tally) Next(signal bool) Result[Tally, bool] {
	active := t.op.apply(t.active, signal)
	if t.day < t.budget {
		return Continue[Tally, bool](Tally{op: t.op, budget: t.budget, day: t.day + 1, active: active})
	}
	return Done[Tally](active)
}

// Active is the current accumulator, which is also what the agent signals.
func (t Tally) Active() bool {
	return t.active
}

// Day is the 1-based day within the budget.
func (t Tally) Day() int {
	return t.day
}

// Budget is the number of days the tally lasts.
func (t Tally) Budget() int {
	return t.budget
}

// Op is the combine operation.
func (t Tally) Op() Combine {
	return t.op
}
