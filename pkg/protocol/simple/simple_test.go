package simple

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/dyluth/headcount/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCoin float64

func (c fixedCoin) Float64() float64 { return float64(c) }

// simulate runs n agents on a reshuffled circle until all are final. It
// returns the final states and the last serial each agent held.
func simulate(t *testing.T, n int, coin Coin, rng *rand.Rand) ([]protocol.State, []Number) {
	t.Helper()
	start := Start(coin)
	states := make([]protocol.State, n)
	for i := range states {
		states[i] = start(i == 0)
	}
	numbers := make([]Number, n)
	seats := make([]int, n)
	for i := range seats {
		seats[i] = i
	}

	const dayLimit = 1 << 22
	for day := 0; ; day++ {
		finished := 0
		for i, s := range states {
			if protocol.IsFinal(s) {
				finished++
			}
			if num, ok := NumberOf(s); ok {
				numbers[i] = num
			}
		}
		if finished == n {
			return states, numbers
		}
		require.Zero(t, finished, "n=%d: agents finished on different days", n)
		require.Less(t, day, dayLimit, "n=%d did not terminate", n)

		lights := make([]bool, n)
		for seat, agent := range seats {
			lights[seats[(seat+1)%n]] = states[agent].WillSignal()
		}
		for i, s := range states {
			states[i] = s.Next(lights[i])
		}
		rng.Shuffle(n, func(i, j int) { seats[i], seats[j] = seats[j], seats[i] })
	}
}

func TestNumber(t *testing.T) {
	n, ok := Unnumbered().Get()
	assert.False(t, ok)
	assert.Zero(t, n)
	assert.Equal(t, "unnumbered", Unnumbered().String())

	n, ok = Numbered(4).Get()
	assert.True(t, ok)
	assert.Equal(t, 4, n)
	assert.Equal(t, "#4", Numbered(4).String())

	assert.Panics(t, func() { Numbered(0) })
}

func TestSimple_SingleAgent(t *testing.T) {
	var s protocol.State = Start(fixedCoin(0))(true)
	days := 0
	for !protocol.IsFinal(s) {
		s = s.Next(s.WillSignal())
		days++
		require.Less(t, days, 100)
	}
	// Upper bound 2 takes three days, the announcement two more.
	assert.Equal(t, 5, days)
	answer, ok := protocol.AnswerOf(s)
	require.True(t, ok)
	assert.Equal(t, 1, answer)
	assert.Equal(t, []string{"N = 1"}, s.Knowledge())
}

func TestSimple_ThreeAgentsGetDistinctSerials(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewPCG(seed, 99))
		states, numbers := simulate(t, 3, rng, rng)

		serials := make([]int, 0, len(numbers))
		for _, num := range numbers {
			n, ok := num.Get()
			require.True(t, ok, "seed %d: an agent finished unnumbered", seed)
			serials = append(serials, n)
		}
		slices.Sort(serials)
		assert.Equal(t, []int{1, 2, 3}, serials, "seed %d", seed)

		for _, s := range states {
			answer, ok := protocol.AnswerOf(s)
			require.True(t, ok)
			assert.Equal(t, 3, answer)
		}
	}
}

func TestSimple_CountsEveryone(t *testing.T) {
	rng := rand.New(rand.NewPCG(21, 8))
	for _, n := range []int{2, 4, 6} {
		states, _ := simulate(t, n, rng, rng)
		for _, s := range states {
			answer, ok := protocol.AnswerOf(s)
			require.True(t, ok)
			assert.Equal(t, n, answer, "n=%d", n)
		}
	}
}

func TestAnyoneUnnumbered_CoinOnlyForNumbered(t *testing.T) {
	ctx := Context{Mine: Unnumbered(), NumNumbered: 1, UpperBound: 1, coin: fixedCoin(0)}
	s := startAnyoneUnnumbered(ctx)
	assert.True(t, s.WillSignal())

	next, ok := s.Next(true).(CandidateSelectionPhase)
	require.True(t, ok)
	assert.False(t, next.Heads())

	ctx.Mine = Numbered(1)
	next, ok = startAnyoneUnnumbered(ctx).Next(true).(CandidateSelectionPhase)
	require.True(t, ok)
	assert.True(t, next.Heads())
	assert.Equal(t, "Numbered Prisoners Flip Coin", next.Describe())
}

func TestCandidateAnnouncement_AssignsOnSingleHead(t *testing.T) {
	tests := []struct {
		name      string
		mine      Number
		candidate bool
		numHeads  int
		signal    bool
		wantCount int
		wantMine  Number
	}{
		{"unnumbered candidate takes next serial", Unnumbered(), true, 1, true, 3, Numbered(3)},
		{"bystander counts the new serial", Numbered(1), false, 1, true, 3, Numbered(1)},
		{"collision assigns nothing", Unnumbered(), true, 2, true, 2, Unnumbered()},
		{"no unnumbered candidate", Unnumbered(), false, 1, false, 2, Unnumbered()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := Context{Mine: tt.mine, NumNumbered: 2, UpperBound: 1}
			s := startCandidateAnnouncement(ctx, tt.candidate, tt.numHeads)
			next, ok := s.Next(tt.signal).(AnyoneUnnumberedPhase)
			require.True(t, ok)
			assert.Equal(t, tt.wantCount, next.Context().NumNumbered)
			assert.Equal(t, tt.wantMine, next.Context().Mine)
		})
	}
}

func TestCandidateReporting_CountsHeads(t *testing.T) {
	ctx := Context{Mine: Numbered(2), NumNumbered: 2, UpperBound: 2}
	var s protocol.State = startReporting(ctx, true, false, 0, 1)
	assert.Equal(t, "Announcement: Results of 1's flip. Step 1/2", s.Describe())
	assert.False(t, s.WillSignal())

	// Serial 1 reports tails.
	s = s.Next(false).Next(false)
	r, ok := s.(CandidateReportingPhase)
	require.True(t, ok)
	assert.True(t, r.WillSignal(), "serial 2 flipped heads")

	s = r.Next(true).Next(true)
	c, ok := s.(CandidateAnnouncementPhase)
	require.True(t, ok)
	assert.Equal(t, []string{"N ≤ 2", "2 prisoners numbered", "1 heads flipped"}, c.Knowledge())
}
