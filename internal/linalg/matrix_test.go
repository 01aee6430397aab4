package linalg

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	m := FromRows([][]int64{{1, 2, 3}, {4, 5, 6}})
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 3, m.Cols())
	assert.Equal(t, "6", m.At(1, 2).RatString())

	assert.Panics(t, func() { FromRows(nil) })
	assert.Panics(t, func() { FromRows([][]int64{{1, 2}, {3}}) })
}

func TestRowOperations(t *testing.T) {
	m := FromRows([][]int64{{1, 2}, {3, 4}})

	m.SwapRows(0, 1)
	assert.Equal(t, "[3 4]\n[1 2]", m.String())

	m.ScaleRow(0, big.NewRat(1, 2))
	assert.Equal(t, "[3/2 2]\n[1 2]", m.String())

	m.AddMulRow(1, 0, big.NewRat(-2, 1))
	assert.Equal(t, "[3/2 2]\n[-2 -2]", m.String())
}

func TestRowAndColAreCopies(t *testing.T) {
	m := FromRows([][]int64{{1, 2}, {3, 4}})
	row := m.Row(0)
	row[0].SetInt64(99)
	col := m.Col(1)
	col[1].SetInt64(99)

	assert.Equal(t, "[1 2]\n[3 4]", m.String())
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name     string
		in       [][]int64
		expected [][]int64
	}{
		{
			name:     "identity is unchanged",
			in:       [][]int64{{1, 0}, {0, 1}},
			expected: [][]int64{{1, 0}, {0, 1}},
		},
		{
			name:     "full rank square",
			in:       [][]int64{{2, 1}, {1, 3}},
			expected: [][]int64{{1, 0}, {0, 1}},
		},
		{
			name:     "dependent rows leave a zero row",
			in:       [][]int64{{1, 2, 3}, {2, 4, 6}},
			expected: [][]int64{{1, 2, 3}, {0, 0, 0}},
		},
		{
			name:     "zero column is skipped",
			in:       [][]int64{{0, 1, 2}, {0, 2, 2}},
			expected: [][]int64{{0, 1, 0}, {0, 0, 1}},
		},
		{
			name:     "augmented system",
			in:       [][]int64{{1, -1, 0}, {1, 0, 1}},
			expected: [][]int64{{1, 0, 1}, {0, 1, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FromRows(tt.in)
			m.Reduce()
			assert.True(t, m.Equal(FromRows(tt.expected)), "got:\n%s", m)
		})
	}
}

func TestReduce_Fractions(t *testing.T) {
	m := FromRows([][]int64{{3, 1, 1}, {1, 3, 2}})
	m.Reduce()

	// 3x + y = 1, x + 3y = 2  =>  x = 1/8, y = 5/8
	assert.Equal(t, "[1 0 1/8]\n[0 1 5/8]", m.String())
}

func TestReduce_Idempotent(t *testing.T) {
	inputs := [][][]int64{
		{{2, 1, 4}, {1, 3, 5}, {0, 1, 1}},
		{{1, 2, 3}, {2, 4, 6}, {1, 0, 1}},
		{{0, 0, 1}, {0, 2, 2}},
		{{1, -1, 0, 0}, {0, 1, -1, 0}, {1, 0, 0, 1}, {1, 1, -1, 0}},
	}

	for _, in := range inputs {
		m := FromRows(in)
		m.Reduce()
		reduced := m.Clone()
		m.Reduce()
		require.True(t, m.Equal(reduced), "second reduction changed\n%s\ninto\n%s", reduced, m)
	}
}

func TestEqual(t *testing.T) {
	a := FromRows([][]int64{{1, 2}})
	assert.True(t, a.Equal(a.Clone()))
	assert.False(t, a.Equal(FromRows([][]int64{{1, 3}})))
	assert.False(t, a.Equal(FromRows([][]int64{{1, 2}, {0, 0}})))
}
