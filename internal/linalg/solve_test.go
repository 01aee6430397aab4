package linalg

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquation_String(t *testing.T) {
	assert.Equal(t, "x_1 + x_3 = x_2", Equation{LHS: []int{1, 3}, RHS: []int{2}}.String())
	assert.Equal(t, "x_1 = 0", Equation{LHS: []int{1}}.String())
}

func TestSystem(t *testing.T) {
	m := System(3, []Equation{
		{LHS: []int{1, 2}, RHS: []int{2, 3}},
	})
	// Shared ids cancel; the last row pins x_1 = 1.
	assert.Equal(t, "[1 0 -1 0]\n[1 0 0 1]", m.String())
}

func TestTrySolve_TwoAgents(t *testing.T) {
	// Captain's class flashed and the other class saw it: x_1 = x_2.
	solution, ok := SolveIntegers(2, []Equation{{LHS: []int{1}, RHS: []int{2}}})
	require.True(t, ok)
	assert.Equal(t, []int{1, 1}, solution)
}

func TestTrySolve_UnderDetermined(t *testing.T) {
	t.Run("too few rows", func(t *testing.T) {
		_, ok := TrySolve(3, []Equation{{LHS: []int{2}, RHS: []int{3}}})
		assert.False(t, ok)
	})

	t.Run("trivial equations", func(t *testing.T) {
		_, ok := TrySolve(2, []Equation{
			{LHS: []int{1}, RHS: []int{1}},
			{LHS: []int{2}, RHS: []int{2}},
		})
		assert.False(t, ok)
	})

	t.Run("rank deficient", func(t *testing.T) {
		_, ok := TrySolve(3, []Equation{
			{LHS: []int{3}, RHS: []int{1, 2}},
			{LHS: []int{1, 2}, RHS: []int{3}},
		})
		assert.False(t, ok)
	})
}

func TestTrySolve_Inconsistent(t *testing.T) {
	// x_1 = x_2 and x_2 = x_1 + x_2 force x_1 = 0, contradicting x_1 = 1.
	equations := []Equation{
		{LHS: []int{1}, RHS: []int{2}},
		{LHS: []int{2}, RHS: []int{1, 2}},
	}

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(*InconsistencyError)
		require.True(t, ok, "panic value %T", r)
		assert.Contains(t, err.Error(), "inconsistent system")
	}()
	TrySolve(2, equations)
}

// Equations generated from a known assignment of class sizes recover it.
func TestTrySolve_RoundTrip(t *testing.T) {
	assignments := [][]int{
		{1, 1},
		{1, 1, 2},
		{1, 2, 1, 3},
		{1, 1, 1, 3},
		{1, 2, 3, 1, 1},
	}

	for _, sizes := range assignments {
		equations := observe(sizes)
		solution, ok := SolveIntegers(len(sizes), equations)
		require.True(t, ok, "sizes %v: equations %v did not determine a solution", sizes, equations)
		assert.Equal(t, sizes, solution)
	}
}

// observe pairs every non-trivial subset of classes with another subset of
// equal total size (or itself when there is none), the relation a flash
// day reveals.
func observe(sizes []int) []Equation {
	n := len(sizes)
	var subsets [][]int
	for mask := 1; mask < 1<<n-1; mask++ {
		var s []int
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				s = append(s, i+1)
			}
		}
		subsets = append(subsets, s)
	}
	total := func(s []int) int {
		sum := 0
		for _, x := range s {
			sum += sizes[x-1]
		}
		return sum
	}

	equations := make([]Equation, 0, len(subsets))
	for _, lhs := range subsets {
		rhs := lhs
		for _, other := range subsets {
			if !slices.Equal(other, lhs) && total(other) == total(lhs) {
				rhs = other
				break
			}
		}
		equations = append(equations, Equation{LHS: lhs, RHS: rhs})
	}
	return equations
}
