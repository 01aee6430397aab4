package fancy

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dyluth/headcount/internal/linalg"
	"gonum.org/v1/gonum/stat/combin"
)

// PartitionContext is what an agent knows about the current partition of
// the population into classes, and the equations gathered for it so far.
//
// Invariant: len(History) == Position.
type PartitionContext struct {
	UpperBound       int
	NumPartitions    int
	MyPartition      int
	EnumerationOrder [][]int
	Position         int
	History          []linalg.Equation
}

// NewPartitionContext starts enumerating subsets of numPartitions classes
// from the beginning, with no equations.
func NewPartitionContext(upperBound, numPartitions, myPartition int) PartitionContext {
	if myPartition < 1 || myPartition > numPartitions {
		panic(fmt.Sprintf("fancy: partition %d out of range 1..%d", myPartition, numPartitions))
	}
	return PartitionContext{
		UpperBound:       upperBound,
		NumPartitions:    numPartitions,
		MyPartition:      myPartition,
		EnumerationOrder: EnumerationOrder(numPartitions),
	}
}

var orders sync.Map // int -> [][]int

// EnumerationOrder lists every non-empty proper subset of {1..n}, by size
// and then lexicographically. The result is shared and must not be modified.
func EnumerationOrder(n int) [][]int {
	if cached, ok := orders.Load(n); ok {
		return cached.([][]int)
	}
	var subsets [][]int
	for k := 1; k < n; k++ {
		for _, c := range combin.Combinations(n, k) {
			subset := make([]int, k)
			for i, x := range c {
				subset[i] = x + 1
			}
			subsets = append(subsets, subset)
		}
	}
	actual, _ := orders.LoadOrStore(n, subsets)
	return actual.([][]int)
}

// CurrentSubset is the subset of classes being tested.
func (c PartitionContext) CurrentSubset() []int {
	if c.Exhausted() {
		panic("fancy: enumeration exhausted")
	}
	return slices.Clone(c.EnumerationOrder[c.Position])
}

// InCurrentSubset reports whether this agent's class is being tested.
func (c PartitionContext) InCurrentSubset() bool {
	return slices.Contains(c.EnumerationOrder[c.Position], c.MyPartition)
}

// Exhausted reports whether every subset has been tested.
func (c PartitionContext) Exhausted() bool {
	return c.Position >= len(c.EnumerationOrder)
}

// Next records the equation "current subset = intersected" and moves to the
// next subset. Calling it on an exhausted context is a wiring defect.
func (c PartitionContext) Next(intersected []int) PartitionContext {
	if c.Exhausted() {
		panic(fmt.Sprintf("fancy: no subset left to record after %d equations", len(c.History)))
	}
	eq := linalg.Equation{LHS: c.CurrentSubset(), RHS: slices.Clone(intersected)}
	next := c
	next.Position = c.Position + 1
	next.History = slices.Concat(c.History, []linalg.Equation{eq})
	return next
}

// Split peels the members of class j that were flashed into a new class
// and restarts the enumeration over one more class.
func (c PartitionContext) Split(j int, flashed bool) PartitionContext {
	mine := c.MyPartition
	if mine == j && flashed {
		mine = c.NumPartitions + 1
	}
	return NewPartitionContext(c.UpperBound, c.NumPartitions+1, mine)
}

// Subcontext tracks one refinement pass over the classes after a flash day.
type Subcontext struct {
	WasFlashed  bool
	Round       int
	Intersected []int
}
