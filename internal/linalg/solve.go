package linalg

import (
	"fmt"
	"math/big"
	"strings"
)

// Equation states that the unknowns indexed by LHS sum to the same value as
// the unknowns indexed by RHS. Indices are 1-based.
type Equation struct {
	LHS []int `json:"lhs"`
	RHS []int `json:"rhs"`
}

// String renders e.g. "x_1 + x_3 = x_2". An empty side renders as "0".
func (e Equation) String() string {
	return side(e.LHS) + " = " + side(e.RHS)
}

func side(ids []int) string {
	if len(ids) == 0 {
		return "0"
	}
	terms := make([]string, len(ids))
	for i, id := range ids {
		terms[i] = fmt.Sprintf("x_%d", id)
	}
	return strings.Join(terms, " + ")
}

// InconsistencyError is raised (as a panic value) when a reduced system
// contradicts itself. The equation generator should never produce one.
type InconsistencyError struct {
	Reduced string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("linalg: inconsistent system after reduction:\n%s", e.Reduced)
}

// System builds the augmented matrix for equations over numVariables
// unknowns: one row per equation and a final row pinning x_1 = 1.
func System(numVariables int, equations []Equation) *Matrix {
	cols := numVariables + 1
	m := NewMatrix(len(equations)+1, cols)
	one := big.NewRat(1, 1)
	minusOne := big.NewRat(-1, 1)
	for i, eq := range equations {
		for _, x := range eq.LHS {
			cell := m.rows[i][x-1]
			cell.Add(cell, one)
		}
		for _, x := range eq.RHS {
			cell := m.rows[i][x-1]
			cell.Add(cell, minusOne)
		}
	}
	last := len(equations)
	m.rows[last][0].SetInt64(1)
	m.rows[last][cols-1].SetInt64(1)
	return m
}

// TrySolve returns the unique solution of the system with x_1 = 1, or false
// if the equations do not determine it yet. A contradictory system panics
// with *InconsistencyError.
func TrySolve(numVariables int, equations []Equation) ([]*big.Rat, bool) {
	m := System(numVariables, equations)
	if m.Rows() < numVariables {
		return nil, false
	}
	m.Reduce()

	for i := 0; i < numVariables; i++ {
		for j := 0; j < numVariables; j++ {
			want := int64(0)
			if i == j {
				want = 1
			}
			if m.rows[i][j].Cmp(big.NewRat(want, 1)) != 0 {
				return nil, false
			}
		}
	}

	for i := numVariables; i < m.Rows(); i++ {
		for j := 0; j < m.cols; j++ {
			if m.rows[i][j].Sign() != 0 {
				panic(&InconsistencyError{Reduced: m.String()})
			}
		}
	}

	solution := make([]*big.Rat, numVariables)
	for i := range solution {
		solution[i] = m.At(i, m.cols-1)
	}
	return solution, true
}

// SolveIntegers is TrySolve for systems whose solution must be integral,
// such as class sizes. A fractional component is an inconsistency.
func SolveIntegers(numVariables int, equations []Equation) ([]int, bool) {
	solution, ok := TrySolve(numVariables, equations)
	if !ok {
		return nil, false
	}
	out := make([]int, len(solution))
	for i, v := range solution {
		if !v.IsInt() {
			panic(&InconsistencyError{Reduced: fmt.Sprintf("x_%d = %s is not an integer", i+1, v.RatString())})
		}
		out[i] = int(v.Num().Int64())
	}
	return out, true
}
