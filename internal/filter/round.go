// Package filter selects recorded rounds.
package filter

import (
	"path/filepath"

	"github.com/dyluth/headcount/internal/ledger"
)

// Criteria defines filtering criteria for rounds.
// All filters are ANDed together - a round must match ALL criteria to pass.
type Criteria struct {
	SinceTimestampMs int64  // Unix milliseconds, 0 = no filter
	UntilTimestampMs int64  // Unix milliseconds, 0 = no filter
	PhaseGlob        string // Glob pattern for the phase, empty = no filter
	FinalOnly        bool   // only rounds after which some agent was final
}

// Matches returns true if the round matches all filter criteria.
func (c *Criteria) Matches(r *ledger.Round) bool {
	if c.SinceTimestampMs > 0 && r.RecordedAtMs < c.SinceTimestampMs {
		return false
	}
	if c.UntilTimestampMs > 0 && r.RecordedAtMs > c.UntilTimestampMs {
		return false
	}
	if c.PhaseGlob != "" {
		matched, err := filepath.Match(c.PhaseGlob, string(r.Phase))
		if err != nil || !matched {
			return false
		}
	}
	if c.FinalOnly && r.Final == 0 {
		return false
	}
	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.PhaseGlob != "" ||
		c.FinalOnly
}

// Apply returns the rounds that match, in their original order.
func (c *Criteria) Apply(rounds []*ledger.Round) []*ledger.Round {
	if !c.HasFilters() {
		return rounds
	}
	var kept []*ledger.Round
	for _, r := range rounds {
		if c.Matches(r) {
			kept = append(kept, r)
		}
	}
	return kept
}
