package cds

import (
	"fmt"
	"sort"
)

// AccessStructure is the "d out of n" threshold structure of a compiled proof.
// A set of clauses is qualified when it holds at least d distinct in-range
// indices. The matching secret sharing scheme has threshold t = n-d+1.
type AccessStructure struct {
	clauses int
	active  int
}

// NewAccessStructure creates a d-out-of-n access structure. 1 <= d <= n.
func NewAccessStructure(clauses, active int) (*AccessStructure, error) {
	if clauses < 1 {
		return nil, ErrInvalidAccessStructure.WithDetails("number of clauses must be positive, got %d", clauses)
	}
	if active < 1 || active > clauses {
		return nil, ErrInvalidAccessStructure.WithDetails("active clauses must be in [1, %d], got %d", clauses, active)
	}
	return &AccessStructure{clauses: clauses, active: active}, nil
}

// Clauses returns n
func (a *AccessStructure) Clauses() int { return a.clauses }

// Active returns d, the number of clauses a prover must know
func (a *AccessStructure) Active() int { return a.active }

// Threshold returns t = n-d+1, the sharing threshold
func (a *AccessStructure) Threshold() int { return a.clauses - a.active + 1 }

// Contains reports whether index is a clause of the structure
func (a *AccessStructure) Contains(index ClauseIndex) bool {
	return index >= 1 && int(index) <= a.clauses
}

// IsQualified reports whether set holds at least d distinct clauses
func (a *AccessStructure) IsQualified(set []ClauseIndex) bool {
	return len(a.distinct(set)) >= a.active
}

// ComplementSize returns the number of clauses outside set
func (a *AccessStructure) ComplementSize(set []ClauseIndex) int {
	return a.clauses - len(a.distinct(set))
}

// Indices returns 1..n
func (a *AccessStructure) Indices() []ClauseIndex {
	indices := make([]ClauseIndex, a.clauses)
	for i := range indices {
		indices[i] = ClauseIndex(i + 1)
	}
	return indices
}

func (a *AccessStructure) String() string {
	return fmt.Sprintf("Clauses: %d, Active Clauses: %d, Threshold: %d",
		a.clauses, a.active, a.Threshold())
}

// distinct returns the in-range indices of set, deduplicated and sorted
func (a *AccessStructure) distinct(set []ClauseIndex) []ClauseIndex {
	seen := make(map[ClauseIndex]struct{}, len(set))
	out := make([]ClauseIndex, 0, len(set))
	for _, index := range set {
		if !a.Contains(index) {
			continue
		}
		if _, dup := seen[index]; dup {
			continue
		}
		seen[index] = struct{}{}
		out = append(out, index)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
