package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhase_Validate(t *testing.T) {
	for _, p := range []Phase{
		PhaseUpperBound, PhaseUnnumberedAnnounce, PhaseCoinFlip, PhaseCoinAnnounce,
		PhaseCandidateAnnounce, PhaseFlash, PhaseRefine1, PhaseRefine2, PhaseFinal,
	} {
		assert.NoError(t, p.Validate(), p.String())
	}

	err := Phase("lunch").Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown phase")
}

func TestPhase_IsFinal(t *testing.T) {
	assert.True(t, PhaseFinal.IsFinal())
	assert.False(t, PhaseFlash.IsFinal())
}

func TestStrategy_Validate(t *testing.T) {
	assert.NoError(t, StrategySimple.Validate())
	assert.NoError(t, StrategyFancy.Validate())
	assert.Error(t, Strategy("").Validate())
	assert.Error(t, Strategy("clever").Validate())
}

type stubFinal struct{ n int }

func (s stubFinal) Next(bool) State { return s }
func (s stubFinal) WillSignal() bool { return false }
func (s stubFinal) Phase() Phase { return PhaseFinal }
func (s stubFinal) Describe() string { return "done" }
func (s stubFinal) Knowledge() []string { return nil }
func (s stubFinal) Answer() int { return s.n }

func TestIsFinalAndAnswerOf(t *testing.T) {
	assert.False(t, IsFinal(nil))
	assert.True(t, IsFinal(stubFinal{n: 4}))

	n, ok := AnswerOf(stubFinal{n: 4})
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	_, ok = AnswerOf(nil)
	assert.False(t, ok)
}
