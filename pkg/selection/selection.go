// Package selection implements the selection state machine: a set of
// profile indices mutated atomically per gesture under one of four
// modifier policies, plus the independent subset-membership set of row
// identities. Transitions are pure functions; the engine owns the
// persistent state and notification.
package selection

import "sort"

// Modifier selects how a gesture's candidate indices combine with the
// current selection. The default input mapping is none→Replace,
// ctrl→Toggle, alt→Subtract, shift→Union; deriving the modifier from held
// keys is the caller's concern.
type Modifier int

const (
	Replace Modifier = iota
	Toggle
	Subtract
	Union
)

// String returns a human-readable label for the modifier.
func (m Modifier) String() string {
	switch m {
	case Toggle:
		return "toggle"
	case Subtract:
		return "subtract"
	case Union:
		return "union"
	default:
		return "replace"
	}
}

// Set is an unordered, duplicate-free set of profile indices.
type Set map[int]bool

// NewSet builds a Set from indices.
func NewSet(indices ...int) Set {
	s := make(Set, len(indices))
	for _, i := range indices {
		s[i] = true
	}
	return s
}

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for i := range s {
		out[i] = true
	}
	return out
}

// Sorted returns the members in ascending index order.
func (s Set) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Equal reports whether s and other contain the same indices.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !other[i] {
			return false
		}
	}
	return true
}

// Max returns the largest member index, or -1 for an empty set.
func (s Set) Max() int {
	max := -1
	for i := range s {
		if i > max {
			max = i
		}
	}
	return max
}

// Apply combines the candidate indices with the current selection under
// the given modifier and returns the new selection. Neither input is
// mutated; the transition is atomic and all-or-nothing per gesture.
// Replace with an empty candidate set is how "click on empty space"
// clears the selection.
func Apply(current Set, candidates Set, mod Modifier) Set {
	switch mod {
	case Toggle:
		out := current.Clone()
		for i := range candidates {
			if out[i] {
				delete(out, i)
			} else {
				out[i] = true
			}
		}
		return out
	case Subtract:
		out := current.Clone()
		for i := range candidates {
			delete(out, i)
		}
		return out
	case Union:
		out := current.Clone()
		for i := range candidates {
			out[i] = true
		}
		return out
	default:
		return candidates.Clone()
	}
}

// ValidateAgainst enforces the stale-index rule: if any member index is
// outside [0, n), the whole selection is reset to empty. Stale indices
// after a dataset shrink are a reset-selection failure mode, never
// dropped individually.
func ValidateAgainst(s Set, n int) Set {
	for i := range s {
		if i < 0 || i >= n {
			return NewSet()
		}
	}
	return s
}

// IntersectIDs returns the identity-intersection of two row-id sets,
// used to derive subset membership from an auxiliary dataset.
func IntersectIDs(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for id := range a {
		if b[id] {
			out[id] = true
		}
	}
	return out
}
