package protocol

import "fmt"

// State is one agent's position in a counting strategy.
// Implementations are immutable values: Next returns a new State.
type State interface {
	// Next consumes the bit the agent saw today and returns tomorrow's state.
	Next(signal bool) State

	// WillSignal reports whether the agent signals today. Queried before Next.
	WillSignal() bool

	// Phase identifies the kind of state.
	Phase() Phase

	// Describe is a one-line summary of the agent's progress.
	Describe() string

	// Knowledge lists the facts every agent knows at this point.
	Knowledge() []string
}

// Final is implemented by every terminal state.
type Final interface {
	State
	Answer() int
}

// StartFunc builds an agent's initial state. Exactly one agent per room is
// the captain.
type StartFunc func(captain bool) State

// IsFinal reports whether s is terminal.
func IsFinal(s State) bool {
	return s != nil && s.Phase().IsFinal()
}

// AnswerOf returns the population size derived by a terminal state.
func AnswerOf(s State) (int, bool) {
	f, ok := s.(Final)
	if !ok {
		return 0, false
	}
	return f.Answer(), true
}

// Phase identifies which part of a strategy a state belongs to.
type Phase string

const (
	// PhaseUpperBound is the shared doubling phase.
	PhaseUpperBound Phase = "upper-bound"

	// PhaseUnnumberedAnnounce asks whether anyone is still unnumbered (simple).
	PhaseUnnumberedAnnounce Phase = "unnumbered-announce"

	// PhaseCoinFlip is the day numbered agents signal their coin (simple).
	PhaseCoinFlip Phase = "coin-flip"

	// PhaseCoinAnnounce reports each serial's coin in turn (simple).
	PhaseCoinAnnounce Phase = "coin-announce"

	// PhaseCandidateAnnounce asks whether an unnumbered candidate exists (simple).
	PhaseCandidateAnnounce Phase = "candidate-announce"

	// PhaseFlash is the day the current subset of classes signals (fancy).
	PhaseFlash Phase = "flash"

	// PhaseRefine1 announces whether class j met the flashed agents (fancy).
	PhaseRefine1 Phase = "refine-1"

	// PhaseRefine2 announces whether class j has members that were not flashed (fancy).
	PhaseRefine2 Phase = "refine-2"

	// PhaseFinal is terminal; the answer is known.
	PhaseFinal Phase = "final"
)

// Validate checks if the Phase is a known value.
func (p Phase) Validate() error {
	switch p {
	case PhaseUpperBound, PhaseUnnumberedAnnounce, PhaseCoinFlip, PhaseCoinAnnounce,
		PhaseCandidateAnnounce, PhaseFlash, PhaseRefine1, PhaseRefine2, PhaseFinal:
		return nil
	default:
		return fmt.Errorf("unknown phase: %q", p)
	}
}

// IsFinal returns true for PhaseFinal.
func (p Phase) IsFinal() bool {
	return p == PhaseFinal
}

func (p Phase) String() string {
	return string(p)
}

// Strategy names a counting strategy.
type Strategy string

const (
	// StrategySimple numbers agents one at a time with coin-flip tournaments.
	StrategySimple Strategy = "simple"

	// StrategyFancy refines a partition of agents and solves for class sizes.
	StrategyFancy Strategy = "fancy"
)

// Validate checks if the Strategy is a known value.
func (s Strategy) Validate() error {
	switch s {
	case StrategySimple, StrategyFancy:
		return nil
	default:
		return fmt.Errorf("unknown strategy: %q (must be 'simple' or 'fancy')", s)
	}
}

func (s Strategy) String() string {
	return string(s)
}
