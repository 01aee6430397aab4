// Package fancy implements the partition-refinement counting strategy.
//
// After the upper-bound phase the agents hold a partition into classes
// (initially the captain's class and everyone else). On a flash day the
// classes in one subset signal; the agents who see a light form T. Two
// announcements per class j ask whether j meets T and whether j has
// members outside T. A class on both sides is split and the enumeration
// restarts. Otherwise the day yields the equation
//
//	sum of sizes of the flashed classes = sum of sizes of the classes in T
//
// and the agents stop as soon as the equations, with the captain's class
// pinned to size 1, determine every class size.
package fancy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dyluth/headcount/internal/linalg"
	"github.com/dyluth/headcount/pkg/protocol"
)

// State is the closed set of phases of the partition strategy.
type State interface {
	protocol.State
	fancy()
}

// Start returns an agent's initial state.
func Start(captain bool) protocol.State {
	return UpperBoundPhase{inner: protocol.StartUpperBound(captain)}
}

// UpperBoundPhase runs the shared doubling phase.
type UpperBoundPhase struct {
	inner protocol.UpperBound
}

func (UpperBoundPhase) fancy() {}

func (s UpperBoundPhase) Next(signal bool) protocol.State {
	r := s.inner.Next(signal)
	bound, done := r.Value()
	if !done {
		return UpperBoundPhase{inner: r.Next()}
	}
	mine := 2
	if s.inner.Captain() {
		mine = 1
	}
	return FlashLightsPhase{ctx: NewPartitionContext(bound, 2, mine)}
}

func (s UpperBoundPhase) WillSignal() bool     { return s.inner.Active() }
func (s UpperBoundPhase) Phase() protocol.Phase { return protocol.PhaseUpperBound }
func (s UpperBoundPhase) Describe() string      { return s.inner.Describe() }
func (s UpperBoundPhase) Knowledge() []string   { return nil }

// Inner exposes the doubling sub-procedure.
func (s UpperBoundPhase) Inner() protocol.UpperBound { return s.inner }

// FlashLightsPhase is the day the classes of the current subset signal.
type FlashLightsPhase struct {
	ctx PartitionContext
}

func (FlashLightsPhase) fancy() {}

func (s FlashLightsPhase) Next(signal bool) protocol.State {
	return startRefine(s.ctx, Subcontext{WasFlashed: signal, Round: 1})
}

func (s FlashLightsPhase) WillSignal() bool {
	return s.ctx.InCurrentSubset()
}

func (s FlashLightsPhase) Phase() protocol.Phase { return protocol.PhaseFlash }

func (s FlashLightsPhase) Describe() string {
	return fmt.Sprintf("Flash Day: I = %s", formatSet(s.ctx.CurrentSubset()))
}

func (s FlashLightsPhase) Knowledge() []string {
	return contextKnowledge(s.ctx)
}

// Context returns the partition context.
func (s FlashLightsPhase) Context() PartitionContext { return s.ctx }

// RefinePhase1 announces whether class Round has members that saw a light.
type RefinePhase1 struct {
	ctx          PartitionContext
	sub          Subcontext
	announcement protocol.Announcement
}

func startRefine(ctx PartitionContext, sub Subcontext) RefinePhase1 {
	a := protocol.NewAnnouncement(ctx.MyPartition == sub.Round && sub.WasFlashed, ctx.UpperBound)
	return RefinePhase1{ctx: ctx, sub: sub, announcement: a}
}

func (RefinePhase1) fancy() {}

func (s RefinePhase1) Next(signal bool) protocol.State {
	r := s.announcement.Next(signal)
	inhabited, done := r.Value()
	if !done {
		return RefinePhase1{ctx: s.ctx, sub: s.sub, announcement: r.Next()}
	}
	a := protocol.NewAnnouncement(s.ctx.MyPartition == s.sub.Round && !s.sub.WasFlashed, s.ctx.UpperBound)
	return RefinePhase2{ctx: s.ctx, sub: s.sub, intersects: inhabited, announcement: a}
}

func (s RefinePhase1) WillSignal() bool      { return s.announcement.Active() }
func (s RefinePhase1) Phase() protocol.Phase { return protocol.PhaseRefine1 }

func (s RefinePhase1) Describe() string {
	return fmt.Sprintf("(I = %s) Announcement: S_%d ∩ T? Step %d/%d",
		formatSet(s.ctx.CurrentSubset()), s.sub.Round, s.announcement.Day(), s.ctx.UpperBound)
}

func (s RefinePhase1) Knowledge() []string {
	return refineKnowledge(s.ctx, s.sub)
}

// Context returns the partition context.
func (s RefinePhase1) Context() PartitionContext { return s.ctx }

// Subcontext returns the refinement pass in progress.
func (s RefinePhase1) Subcontext() Subcontext { return s.sub }

// RefinePhase2 announces whether class Round has members that saw no light.
type RefinePhase2 struct {
	ctx          PartitionContext
	sub          Subcontext
	intersects   bool
	announcement protocol.Announcement
}

func (RefinePhase2) fancy() {}

func (s RefinePhase2) Next(signal bool) protocol.State {
	r := s.announcement.Next(signal)
	outside, done := r.Value()
	if !done {
		return RefinePhase2{ctx: s.ctx, sub: s.sub, intersects: s.intersects, announcement: r.Next()}
	}

	if s.intersects && outside {
		return FlashLightsPhase{ctx: s.ctx.Split(s.sub.Round, s.sub.WasFlashed)}
	}

	intersected := s.sub.Intersected
	if s.intersects {
		intersected = slices.Concat(s.sub.Intersected, []int{s.sub.Round})
	}

	if s.sub.Round < s.ctx.NumPartitions {
		return startRefine(s.ctx, Subcontext{
			WasFlashed:  s.sub.WasFlashed,
			Round:       s.sub.Round + 1,
			Intersected: intersected,
		})
	}

	next := s.ctx.Next(intersected)
	if solution, ok := linalg.SolveIntegers(next.NumPartitions, next.History); ok {
		return FinalState{numPartitions: next.NumPartitions, equations: next.History, solution: solution}
	}
	if next.Exhausted() {
		return FinalState{numPartitions: next.NumPartitions, equations: next.History}
	}
	return FlashLightsPhase{ctx: next}
}

func (s RefinePhase2) WillSignal() bool      { return s.announcement.Active() }
func (s RefinePhase2) Phase() protocol.Phase { return protocol.PhaseRefine2 }

func (s RefinePhase2) Describe() string {
	return fmt.Sprintf("(I = %s) Announcement: S_%d \\ T? Step %d/%d",
		formatSet(s.ctx.CurrentSubset()), s.sub.Round, s.announcement.Day(), s.ctx.UpperBound)
}

func (s RefinePhase2) Knowledge() []string {
	return refineKnowledge(s.ctx, s.sub)
}

// Context returns the partition context.
func (s RefinePhase2) Context() PartitionContext { return s.ctx }

// Subcontext returns the refinement pass in progress.
func (s RefinePhase2) Subcontext() Subcontext { return s.sub }

// FinalState holds the equations that determine every class size.
type FinalState struct {
	numPartitions int
	equations     []linalg.Equation
	solution      []int
}

func (FinalState) fancy() {}

func (s FinalState) Next(bool) protocol.State { return s }
func (s FinalState) WillSignal() bool         { return false }
func (s FinalState) Phase() protocol.Phase    { return protocol.PhaseFinal }
func (s FinalState) Describe() string         { return "Puzzle Complete" }

// Equations returns the number of classes and the equations gathered.
func (s FinalState) Equations() (int, []linalg.Equation) {
	return s.numPartitions, slices.Clone(s.equations)
}

// Solve returns the size of every class, the captain's class first. An
// undetermined system here is an invariant violation and panics.
func (s FinalState) Solve() []int {
	if s.solution != nil {
		return slices.Clone(s.solution)
	}
	solution, ok := linalg.SolveIntegers(s.numPartitions, s.equations)
	if !ok {
		panic(fmt.Sprintf("fancy: %d equations do not determine %d class sizes", len(s.equations), s.numPartitions))
	}
	return solution
}

// Answer is the population size.
func (s FinalState) Answer() int {
	total := 0
	for _, x := range s.Solve() {
		total += x
	}
	return total
}

func (s FinalState) Knowledge() []string {
	facts := make([]string, 0, len(s.equations)+2)
	for _, eq := range s.equations {
		facts = append(facts, eq.String())
	}
	facts = append(facts, "x_1 = 1")

	solution := s.Solve()
	terms := make([]string, len(solution))
	for i, x := range solution {
		terms[i] = fmt.Sprintf("x_%d = %d", i+1, x)
	}
	facts = append(facts, fmt.Sprintf("Unique solution is: %s, for a total of %d agents", strings.Join(terms, ", "), s.Answer()))
	return facts
}

func contextKnowledge(ctx PartitionContext) []string {
	facts := []string{
		fmt.Sprintf("N ≤ %d", ctx.UpperBound),
		fmt.Sprintf("%d partitions", ctx.NumPartitions),
	}
	for i, eq := range ctx.History {
		facts = append(facts, fmt.Sprintf("%s tagged %s", formatSet(ctx.EnumerationOrder[i]), formatSet(eq.RHS)))
	}
	return facts
}

func refineKnowledge(ctx PartitionContext, sub Subcontext) []string {
	facts := contextKnowledge(ctx)
	return append(facts, fmt.Sprintf("%s tagged %s...", formatSet(ctx.CurrentSubset()), formatSet(sub.Intersected)))
}

func formatSet(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

var (
	_ State = UpperBoundPhase{}
	_ State = FlashLightsPhase{}
	_ State = RefinePhase1{}
	_ State = RefinePhase2{}
	_ State = FinalState{}

	_ protocol.Final = FinalState{}
)
