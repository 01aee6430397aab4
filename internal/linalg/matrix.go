// Package linalg reduces small integer systems to reduced row-echelon form
// with exact rational arithmetic and reads unique solutions off them.
package linalg

import (
	"fmt"
	"math/big"
	"strings"
)

// Matrix is a dense grid of rationals. Row operations work in place.
type Matrix struct {
	rows [][]*big.Rat
	cols int
}

// NewMatrix returns a zero matrix.
func NewMatrix(rows, cols int) *Matrix {
	m := &Matrix{rows: make([][]*big.Rat, rows), cols: cols}
	for i := range m.rows {
		m.rows[i] = make([]*big.Rat, cols)
		for j := range m.rows[i] {
			m.rows[i][j] = new(big.Rat)
		}
	}
	return m
}

// FromRows builds a matrix from integer rows. All rows must have the same
// length and there must be at least one.
func FromRows(rows [][]int64) *Matrix {
	if len(rows) == 0 {
		panic("linalg: matrix needs at least one row")
	}
	m := NewMatrix(len(rows), len(rows[0]))
	for i, row := range rows {
		if len(row) != m.cols {
			panic(fmt.Sprintf("linalg: row %d has %d columns, want %d", i, len(row), m.cols))
		}
		for j, v := range row {
			m.rows[i][j].SetInt64(v)
		}
	}
	return m
}

// Rows is the number of rows.
func (m *Matrix) Rows() int {
	return len(m.rows)
}

// Cols is the number of columns.
func (m *Matrix) Cols() int {
	return m.cols
}

// At returns a copy of entry (i, j).
func (m *Matrix) At(i, j int) *big.Rat {
	return new(big.Rat).Set(m.rows[i][j])
}

// Set assigns entry (i, j).
func (m *Matrix) Set(i, j int, v *big.Rat) {
	m.rows[i][j].Set(v)
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []*big.Rat {
	out := make([]*big.Rat, m.cols)
	for j, v := range m.rows[i] {
		out[j] = new(big.Rat).Set(v)
	}
	return out
}

// Col returns a copy of column j.
func (m *Matrix) Col(j int) []*big.Rat {
	out := make([]*big.Rat, len(m.rows))
	for i, row := range m.rows {
		out[i] = new(big.Rat).Set(row[j])
	}
	return out
}

// SwapRows exchanges rows n and k.
func (m *Matrix) SwapRows(n, k int) {
	m.rows[n], m.rows[k] = m.rows[k], m.rows[n]
}

// ScaleRow multiplies row n by a.
func (m *Matrix) ScaleRow(n int, a *big.Rat) {
	for _, v := range m.rows[n] {
		v.Mul(v, a)
	}
}

// AddMulRow adds a times row k to row n.
func (m *Matrix) AddMulRow(n, k int, a *big.Rat) {
	tmp := new(big.Rat)
	for j, v := range m.rows[n] {
		tmp.Mul(m.rows[k][j], a)
		v.Add(v, tmp)
	}
}

// Reduce puts the matrix in reduced row-echelon form using Gauss-Jordan
// elimination with partial pivoting. For each column the pivot is the
// first row, at or below the pivot row, of greatest absolute value. A zero
// pivot means the column has no pivot: only the column advances.
func (m *Matrix) Reduce() {
	pivotRow, pivotCol := 0, 0
	for pivotRow < len(m.rows) && pivotCol < m.cols {
		best := pivotRow
		bestAbs := new(big.Rat).Abs(m.rows[pivotRow][pivotCol])
		for i := pivotRow + 1; i < len(m.rows); i++ {
			abs := new(big.Rat).Abs(m.rows[i][pivotCol])
			if abs.Cmp(bestAbs) > 0 {
				best, bestAbs = i, abs
			}
		}

		if bestAbs.Sign() == 0 {
			pivotCol++
			continue
		}

		m.SwapRows(pivotRow, best)
		m.ScaleRow(pivotRow, new(big.Rat).Inv(m.rows[pivotRow][pivotCol]))

		for i := range m.rows {
			if i == pivotRow || m.rows[i][pivotCol].Sign() == 0 {
				continue
			}
			m.AddMulRow(i, pivotRow, new(big.Rat).Neg(m.rows[i][pivotCol]))
		}
		pivotRow++
		pivotCol++
	}
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{rows: make([][]*big.Rat, len(m.rows)), cols: m.cols}
	for i := range m.rows {
		c.rows[i] = m.Row(i)
	}
	return c
}

// Equal reports whether both matrices have the same shape and entries.
func (m *Matrix) Equal(o *Matrix) bool {
	if len(m.rows) != len(o.rows) || m.cols != o.cols {
		return false
	}
	for i := range m.rows {
		for j := range m.rows[i] {
			if m.rows[i][j].Cmp(o.rows[i][j]) != 0 {
				return false
			}
		}
	}
	return true
}

// String renders one bracketed row per line, e.g. "[1 0 1/2]".
func (m *Matrix) String() string {
	var b strings.Builder
	for i, row := range m.rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte('[')
		for j, v := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(v.RatString())
		}
		b.WriteByte(']')
	}
	return b.String()
}
