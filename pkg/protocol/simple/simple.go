// Package simple implements the numbering strategy: agents are handed
// serial numbers one at a time through coin-flip tournaments until an
// announcement confirms that nobody is left unnumbered.
package simple

import (
	"fmt"

	"github.com/dyluth/headcount/pkg/protocol"
)

// Coin is the randomness a numbered agent flips. *rand.Rand satisfies it.
type Coin interface {
	Float64() float64
}

// Number is an agent's serial number, which may not be assigned yet.
type Number struct {
	n        int
	assigned bool
}

// Unnumbered is the number of an agent that has not been assigned one.
func Unnumbered() Number { return Number{} }

// Numbered returns the assigned serial n. Serials start at 1.
func Numbered(n int) Number {
	if n < 1 {
		panic(fmt.Sprintf("simple: serial %d is not positive", n))
	}
	return Number{n: n, assigned: true}
}

// Get returns the serial and whether one is assigned.
func (n Number) Get() (int, bool) { return n.n, n.assigned }

func (n Number) String() string {
	if !n.assigned {
		return "unnumbered"
	}
	return fmt.Sprintf("#%d", n.n)
}

// Context is what an agent knows once the upper bound is established.
type Context struct {
	Mine        Number
	NumNumbered int
	UpperBound  int
	coin        Coin
}

func (c Context) knowledge() []string {
	return []string{
		fmt.Sprintf("N ≤ %d", c.UpperBound),
		fmt.Sprintf("%d prisoners numbered", c.NumNumbered),
	}
}

// State is the closed set of phases of the numbering strategy.
type State interface {
	protocol.State
	simple()
}

// Start returns a constructor for agents whose coin flips draw on coin.
func Start(coin Coin) protocol.StartFunc {
	return func(captain bool) protocol.State {
		return UpperBoundPhase{inner: protocol.StartUpperBound(captain), coin: coin}
	}
}

// UpperBoundPhase runs the shared doubling phase.
type UpperBoundPhase struct {
	inner protocol.UpperBound
	coin  Coin
}

func (UpperBoundPhase) simple() {}

func (s UpperBoundPhase) Next(signal bool) protocol.State {
	r := s.inner.Next(signal)
	bound, done := r.Value()
	if !done {
		return UpperBoundPhase{inner: r.Next(), coin: s.coin}
	}
	mine := Unnumbered()
	if s.inner.Captain() {
		mine = Numbered(1)
	}
	return startAnyoneUnnumbered(Context{Mine: mine, NumNumbered: 1, UpperBound: bound, coin: s.coin})
}

func (s UpperBoundPhase) WillSignal() bool     { return s.inner.Active() }
func (s UpperBoundPhase) Phase() protocol.Phase { return protocol.PhaseUpperBound }
func (s UpperBoundPhase) Describe() string      { return s.inner.Describe() }
func (s UpperBoundPhase) Knowledge() []string   { return nil }

// Inner exposes the doubling sub-procedure.
func (s UpperBoundPhase) Inner() protocol.UpperBound { return s.inner }

// AnyoneUnnumberedPhase announces whether any agent still lacks a serial.
type AnyoneUnnumberedPhase struct {
	ctx          Context
	announcement protocol.Announcement
}

func startAnyoneUnnumbered(ctx Context) AnyoneUnnumberedPhase {
	_, numbered := ctx.Mine.Get()
	return AnyoneUnnumberedPhase{ctx: ctx, announcement: protocol.NewAnnouncement(!numbered, ctx.UpperBound)}
}

func (AnyoneUnnumberedPhase) simple() {}

func (s AnyoneUnnumberedPhase) Next(signal bool) protocol.State {
	r := s.announcement.Next(signal)
	anyone, done := r.Value()
	if !done {
		return AnyoneUnnumberedPhase{ctx: s.ctx, announcement: r.Next()}
	}
	if !anyone {
		return FinalState{answer: s.ctx.NumNumbered}
	}
	heads := false
	if _, numbered := s.ctx.Mine.Get(); numbered {
		heads = s.ctx.coin.Float64() < 1/float64(s.ctx.NumNumbered)
	}
	return CandidateSelectionPhase{ctx: s.ctx, heads: heads}
}

func (s AnyoneUnnumberedPhase) WillSignal() bool      { return s.announcement.Active() }
func (s AnyoneUnnumberedPhase) Phase() protocol.Phase { return protocol.PhaseUnnumberedAnnounce }

func (s AnyoneUnnumberedPhase) Describe() string {
	return fmt.Sprintf("Announcement: Anyone Unnumbered? Step %d/%d", s.announcement.Day(), s.ctx.UpperBound)
}

func (s AnyoneUnnumberedPhase) Knowledge() []string { return s.ctx.knowledge() }

// Context returns the numbering context.
func (s AnyoneUnnumberedPhase) Context() Context { return s.ctx }

// CandidateSelectionPhase is the day numbered agents show their coin. An
// agent that sees heads becomes a candidate.
type CandidateSelectionPhase struct {
	ctx   Context
	heads bool
}

func (CandidateSelectionPhase) simple() {}

func (s CandidateSelectionPhase) Next(signal bool) protocol.State {
	return startReporting(s.ctx, s.heads, signal, 0, 1)
}

func (s CandidateSelectionPhase) WillSignal() bool      { return s.heads }
func (s CandidateSelectionPhase) Phase() protocol.Phase { return protocol.PhaseCoinFlip }
func (s CandidateSelectionPhase) Describe() string      { return "Numbered Prisoners Flip Coin" }
func (s CandidateSelectionPhase) Knowledge() []string   { return s.ctx.knowledge() }

// Context returns the numbering context.
func (s CandidateSelectionPhase) Context() Context { return s.ctx }

// Heads reports this agent's coin.
func (s CandidateSelectionPhase) Heads() bool { return s.heads }

// CandidateReportingPhase announces, for serial Round, whether that agent
// flipped heads.
type CandidateReportingPhase struct {
	ctx          Context
	heads        bool
	candidate    bool
	numHeads     int
	round        int
	announcement protocol.Announcement
}

func startReporting(ctx Context, heads, candidate bool, numHeads, round int) CandidateReportingPhase {
	mine, _ := ctx.Mine.Get()
	return CandidateReportingPhase{
		ctx:          ctx,
		heads:        heads,
		candidate:    candidate,
		numHeads:     numHeads,
		round:        round,
		announcement: protocol.NewAnnouncement(mine == round && heads, ctx.UpperBound),
	}
}

func (CandidateReportingPhase) simple() {}

func (s CandidateReportingPhase) Next(signal bool) protocol.State {
	r := s.announcement.Next(signal)
	flipped, done := r.Value()
	if !done {
		next := s
		next.announcement = r.Next()
		return next
	}
	numHeads := s.numHeads
	if flipped {
		numHeads++
	}
	if s.round < s.ctx.NumNumbered {
		return startReporting(s.ctx, s.heads, s.candidate, numHeads, s.round+1)
	}
	return startCandidateAnnouncement(s.ctx, s.candidate, numHeads)
}

func (s CandidateReportingPhase) WillSignal() bool      { return s.announcement.Active() }
func (s CandidateReportingPhase) Phase() protocol.Phase { return protocol.PhaseCoinAnnounce }

func (s CandidateReportingPhase) Describe() string {
	return fmt.Sprintf("Announcement: Results of %d's flip. Step %d/%d", s.round, s.announcement.Day(), s.ctx.UpperBound)
}

func (s CandidateReportingPhase) Knowledge() []string {
	return append(s.ctx.knowledge(), fmt.Sprintf("%d heads flipped (so far)", s.numHeads))
}

// Context returns the numbering context.
func (s CandidateReportingPhase) Context() Context { return s.ctx }

// Candidate reports whether this agent saw heads on the coin-flip day.
func (s CandidateReportingPhase) Candidate() bool { return s.candidate }

// CandidateAnnouncementPhase announces whether an unnumbered candidate exists.
type CandidateAnnouncementPhase struct {
	ctx          Context
	candidate    bool
	numHeads     int
	announcement protocol.Announcement
}

func startCandidateAnnouncement(ctx Context, candidate bool, numHeads int) CandidateAnnouncementPhase {
	_, numbered := ctx.Mine.Get()
	return CandidateAnnouncementPhase{
		ctx:          ctx,
		candidate:    candidate,
		numHeads:     numHeads,
		announcement: protocol.NewAnnouncement(!numbered && candidate, ctx.UpperBound),
	}
}

func (CandidateAnnouncementPhase) simple() {}

func (s CandidateAnnouncementPhase) Next(signal bool) protocol.State {
	r := s.announcement.Next(signal)
	unnumberedCandidate, done := r.Value()
	if !done {
		next := s
		next.announcement = r.Next()
		return next
	}
	ctx := s.ctx
	if unnumberedCandidate && s.numHeads == 1 {
		ctx.NumNumbered++
		if s.candidate {
			ctx.Mine = Numbered(ctx.NumNumbered)
		}
	}
	return startAnyoneUnnumbered(ctx)
}

func (s CandidateAnnouncementPhase) WillSignal() bool      { return s.announcement.Active() }
func (s CandidateAnnouncementPhase) Phase() protocol.Phase { return protocol.PhaseCandidateAnnounce }

func (s CandidateAnnouncementPhase) Describe() string {
	return fmt.Sprintf("Announcement: Unnumbered Candidate? Step %d/%d", s.announcement.Day(), s.ctx.UpperBound)
}

func (s CandidateAnnouncementPhase) Knowledge() []string {
	return append(s.ctx.knowledge(), fmt.Sprintf("%d heads flipped", s.numHeads))
}

// Context returns the numbering context.
func (s CandidateAnnouncementPhase) Context() Context { return s.ctx }

// FinalState is reached once every agent holds a serial.
type FinalState struct {
	answer int
}

func (FinalState) simple() {}

func (s FinalState) Next(bool) protocol.State { return s }
func (s FinalState) WillSignal() bool         { return false }
func (s FinalState) Phase() protocol.Phase    { return protocol.PhaseFinal }
func (s FinalState) Describe() string         { return "Puzzle Complete" }
func (s FinalState) Knowledge() []string      { return []string{fmt.Sprintf("N = %d", s.answer)} }

// Answer is the population size.
func (s FinalState) Answer() int { return s.answer }

// NumberOf returns the serial an agent holds, if its phase tracks one.
func NumberOf(s protocol.State) (Number, bool) {
	switch st := s.(type) {
	case AnyoneUnnumberedPhase:
		return st.ctx.Mine, true
	case CandidateSelectionPhase:
		return st.ctx.Mine, true
	case CandidateReportingPhase:
		return st.ctx.Mine, true
	case CandidateAnnouncementPhase:
		return st.ctx.Mine, true
	default:
		return Number{}, false
	}
}

var (
	_ State = UpperBoundPhase{}
	_ State = AnyoneUnnumberedPhase{}
	_ State = CandidateSelectionPhase{}
	_ State = CandidateReportingPhase{}
	_ State = CandidateAnnouncementPhase{}
	_ State = FinalState{}

	_ protocol.Final = FinalState{}
)
