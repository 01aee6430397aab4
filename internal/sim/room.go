// Package sim drives a room of agents through the day/night cycle of the
// circular prison: each day every agent sees only its predecessor's signal,
// each night the agents advance and are reseated at random.
package sim

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/dyluth/headcount/pkg/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultUndoDepth bounds how many nights can be undone.
const DefaultUndoDepth = 1024

// ErrDayLimit is returned by Run when agents are still counting at the limit.
var ErrDayLimit = errors.New("day limit reached before every agent finished")

// Beat is the half of the day the room will play next.
type Beat int

const (
	// BeatDay computes which lights every agent sees.
	BeatDay Beat = iota
	// BeatNight advances every agent and reseats them.
	BeatNight
)

func (b Beat) String() string {
	if b == BeatNight {
		return "night"
	}
	return "day"
}

// Agent is one prisoner. ID and Name are stable across StartOver.
type Agent struct {
	ID      uuid.UUID
	Name    string
	Captain bool
	State   protocol.State
}

// RoundRecord describes one completed day.
type RoundRecord struct {
	Day         int
	Phase       protocol.Phase
	Description string
	Signals     []bool   // by seat
	Lights      []bool   // by seat
	Seats       []string // agent names by seat
	Final       int      // agents in a final state after the night
}

// Observer is called after every night.
type Observer func(RoundRecord)

// Option configures a Room.
type Option func(*Room)

// WithRand sets the source used to reseat agents.
func WithRand(rng *rand.Rand) Option {
	return func(r *Room) { r.rng = rng }
}

// WithUndoDepth bounds the undo history. Values below 1 disable undo of nights.
func WithUndoDepth(depth int) Option {
	return func(r *Room) { r.undoDepth = depth }
}

// WithLogger sets the room's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Room) { r.logger = logger }
}

// WithObserver registers a callback for completed days.
func WithObserver(o Observer) Option {
	return func(r *Room) { r.observer = o }
}

// WithNames overrides agent naming. Agent 0 is the captain.
func WithNames(name func(int) string) Option {
	return func(r *Room) { r.name = name }
}

type snapshot struct {
	states []protocol.State
	seats  []int
	day    int
}

// Room holds the agents, their seating and the undo history.
// A Room is not safe for concurrent use.
type Room struct {
	start     protocol.StartFunc
	agents    []Agent
	seats     []int  // seat -> agent index
	lights    []bool // agent index -> light seen today, set during the day beat
	beat      Beat
	day       int
	history   []snapshot
	undoDepth int

	rng      *rand.Rand
	logger   *zap.Logger
	observer Observer
	name     func(int) string
}

// NewRoom seats n agents built by start; agent 0 is the captain.
func NewRoom(n int, start protocol.StartFunc, opts ...Option) (*Room, error) {
	if n < 1 {
		return nil, fmt.Errorf("room needs at least one agent, got %d", n)
	}
	if start == nil {
		return nil, fmt.Errorf("room needs a strategy constructor")
	}

	r := &Room{
		start:     start,
		agents:    make([]Agent, n),
		undoDepth: DefaultUndoDepth,
		logger:    zap.NewNop(),
		name:      DefaultName,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	for i := range r.agents {
		r.agents[i] = Agent{ID: uuid.New(), Name: r.name(i), Captain: i == 0}
	}
	r.reset()
	return r, nil
}

// DefaultName names agents A..Z, then P27, P28, ...
func DefaultName(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("P%d", i+1)
}

func (r *Room) reset() {
	r.seats = make([]int, len(r.agents))
	for i := range r.agents {
		r.agents[i].State = r.start(r.agents[i].Captain)
		r.seats[i] = i
	}
	r.lights = nil
	r.beat = BeatDay
	r.day = 0
	r.history = nil
}

// Step plays one beat.
func (r *Room) Step() {
	if r.beat == BeatDay {
		r.dawn()
		return
	}
	r.night()
}

// Round finishes the current day, playing whichever beats remain.
func (r *Room) Round() {
	if r.beat == BeatDay {
		r.dawn()
	}
	r.night()
}

func (r *Room) dawn() {
	n := len(r.seats)
	r.lights = make([]bool, len(r.agents))
	for seat, agent := range r.seats {
		next := r.seats[(seat+1)%n]
		r.lights[next] = r.agents[agent].State.WillSignal()
	}
	r.beat = BeatNight
}

func (r *Room) night() {
	r.push()

	lead := r.agents[r.seats[0]].State
	record := RoundRecord{
		Day:         r.day + 1,
		Phase:       lead.Phase(),
		Description: lead.Describe(),
		Signals:     make([]bool, len(r.seats)),
		Lights:      make([]bool, len(r.seats)),
		Seats:       make([]string, len(r.seats)),
	}
	for seat, agent := range r.seats {
		record.Signals[seat] = r.agents[agent].State.WillSignal()
		record.Lights[seat] = r.lights[agent]
		record.Seats[seat] = r.agents[agent].Name
	}

	for i := range r.agents {
		r.agents[i].State = r.agents[i].State.Next(r.lights[i])
		if protocol.IsFinal(r.agents[i].State) {
			record.Final++
		}
	}
	r.rng.Shuffle(len(r.seats), func(i, j int) { r.seats[i], r.seats[j] = r.seats[j], r.seats[i] })

	r.day++
	r.lights = nil
	r.beat = BeatDay

	r.logger.Debug("night complete",
		zap.Int("day", r.day),
		zap.String("phase", record.Phase.String()),
		zap.Int("final", record.Final))
	if r.observer != nil {
		r.observer(record)
	}
}

func (r *Room) push() {
	if r.undoDepth < 1 {
		return
	}
	snap := snapshot{
		states: r.Snapshot(),
		seats:  slices.Clone(r.seats),
		day:    r.day,
	}
	r.history = append(r.history, snap)
	if over := len(r.history) - r.undoDepth; over > 0 {
		r.history = slices.Delete(r.history, 0, over)
	}
}

// FinishPhase plays whole days until the phase of the agent in seat 0
// changes or every agent is final. It returns the number of days played.
func (r *Room) FinishPhase() int {
	if r.Done() {
		return 0
	}
	phase := r.agents[r.seats[0]].State.Phase()
	days := 0
	for {
		r.Round()
		days++
		if r.Done() || r.agents[r.seats[0]].State.Phase() != phase {
			return days
		}
	}
}

// Run plays whole days until every agent is final. It returns ErrDayLimit
// if day maxDays passes first.
func (r *Room) Run(maxDays int) (int, error) {
	played := 0
	for !r.Done() {
		if r.day >= maxDays {
			return played, fmt.Errorf("%w: %d days", ErrDayLimit, r.day)
		}
		r.Round()
		played++
	}
	return played, nil
}

// Undo steps back one beat. From the night beat it forgets today's lights;
// from the day beat it restores the previous night's snapshot. It returns
// false when there is nothing left to undo.
func (r *Room) Undo() bool {
	if r.beat == BeatNight {
		r.lights = nil
		r.beat = BeatDay
		return true
	}
	if len(r.history) == 0 {
		return false
	}
	last := r.history[len(r.history)-1]
	r.history = r.history[:len(r.history)-1]
	for i := range r.agents {
		r.agents[i].State = last.states[i]
	}
	r.seats = last.seats
	r.day = last.day
	r.logger.Debug("undo", zap.Int("day", r.day))
	return true
}

// StartOver rebuilds every agent from its start state and clears history.
func (r *Room) StartOver() {
	r.reset()
	r.logger.Debug("start over")
}

// Day is the number of completed days.
func (r *Room) Day() int { return r.day }

// Beat is the beat Step will play next.
func (r *Room) Beat() Beat { return r.beat }

// UndoDepth is the number of nights that can currently be undone.
func (r *Room) UndoDepth() int { return len(r.history) }

// Agents returns the agents in seating order.
func (r *Room) Agents() []Agent {
	out := make([]Agent, len(r.seats))
	for seat, agent := range r.seats {
		out[seat] = r.agents[agent]
	}
	return out
}

// Lights returns, by seat, the light each agent sees today. It is nil until
// the day beat has been played.
func (r *Room) Lights() []bool {
	if r.lights == nil {
		return nil
	}
	out := make([]bool, len(r.seats))
	for seat, agent := range r.seats {
		out[seat] = r.lights[agent]
	}
	return out
}

// Describe summarises the progress of the agent in seat 0.
func (r *Room) Describe() string {
	return r.agents[r.seats[0]].State.Describe()
}

// Knowledge lists what every agent knows.
func (r *Room) Knowledge() []string {
	return r.agents[r.seats[0]].State.Knowledge()
}

// Done reports whether every agent is final.
func (r *Room) Done() bool {
	for _, a := range r.agents {
		if !protocol.IsFinal(a.State) {
			return false
		}
	}
	return true
}

// Answers returns each agent's answer in captain-first order, or false if
// some agent is still counting.
func (r *Room) Answers() ([]int, bool) {
	out := make([]int, len(r.agents))
	for i, a := range r.agents {
		answer, ok := protocol.AnswerOf(a.State)
		if !ok {
			return nil, false
		}
		out[i] = answer
	}
	return out, true
}

// Snapshot returns every agent's state in captain-first order.
func (r *Room) Snapshot() []protocol.State {
	out := make([]protocol.State, len(r.agents))
	for i, a := range r.agents {
		out[i] = a.State
	}
	return out
}
