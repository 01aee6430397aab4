package ledger

import (
	"testing"

	"github.com/dyluth/headcount/pkg/protocol"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBits(t *testing.T) {
	assert.Equal(t, "", EncodeBits(nil))
	assert.Equal(t, "1001", EncodeBits([]bool{true, false, false, true}))

	bits, err := DecodeBits("0110")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false}, bits)

	_, err = DecodeBits("01x")
	assert.Error(t, err)
}

func TestHashToRun_RejectsBadFields(t *testing.T) {
	hash := map[string]string{"agents": "3", "seed": "1", "days": "0"}
	_, err := HashToRun(hash)
	require.NoError(t, err)

	for _, field := range []string{"agents", "seed", "days"} {
		bad := map[string]string{"agents": "3", "seed": "1", "days": "0"}
		bad[field] = "x"
		_, err := HashToRun(bad)
		assert.Error(t, err, field)
	}
}

func TestHashToRound_RejectsBadFields(t *testing.T) {
	_, err := HashToRound(map[string]string{"day": "x"})
	assert.Error(t, err)
	_, err = HashToRound(map[string]string{"day": "1", "signals": "2"})
	assert.Error(t, err)
	_, err = HashToRound(map[string]string{"day": "1", "seats": "{"})
	assert.Error(t, err)
}

func TestRunValidate(t *testing.T) {
	valid := func() *Run {
		return &Run{ID: uuid.New().String(), Strategy: protocol.StrategySimple, Agents: 1, Status: RunStatusRunning}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Run)
	}{
		{"bad id", func(r *Run) { r.ID = "x" }},
		{"bad strategy", func(r *Run) { r.Strategy = "clever" }},
		{"no agents", func(r *Run) { r.Agents = 0 }},
		{"negative days", func(r *Run) { r.Days = -1 }},
		{"bad status", func(r *Run) { r.Status = "paused" }},
		{"finished without answer", func(r *Run) { r.Status = RunStatusFinished }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			assert.Error(t, r.Validate())
		})
	}
}
