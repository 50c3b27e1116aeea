// Package model defines the core data types for profileplot: points,
// profiles (one plotted series per data row) and the immutable table a
// loaded dataset becomes. A Table is replaced wholesale on reload; rows
// are never mutated in place.
package model

import (
	"fmt"
	"math"
)

// NoGroup marks a profile that belongs to no group under the current
// grouping variable (e.g. a missing value in the group column).
const NoGroup = -1

// Point is a position in plot coordinates. Value type, no identity.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Profile is one plotted multi-point series corresponding to one data row.
// Index is positional and stable for the lifetime of a loaded Table.
// RowID is an opaque identity used for cross-referencing against a subset
// dataset, whose rows may use a different indexing.
type Profile struct {
	Index  int       `json:"index"`
	RowID  string    `json:"row_id"`
	Values []float64 `json:"values"` // length M, may contain NaN
	Group  int       `json:"group"`  // group key, or NoGroup
}

// Polyline returns the profile as an ordered point sequence with X ticks
// 1..M, the shape the geometry kernel hit-tests against.
func (p Profile) Polyline() []Point {
	pts := make([]Point, len(p.Values))
	for i, v := range p.Values {
		pts[i] = Point{X: float64(i + 1), Y: v}
	}
	return pts
}

// Table is a loaded profile dataset. All profiles share the same column
// count M and the same X tick positions (1..M).
type Table struct {
	// Columns names the M numeric columns; purely presentational metadata
	// used as axis tick labels.
	Columns []string `json:"columns"`
	Rows    []Profile `json:"rows"`

	// GroupVar names the discrete variable the rows are currently grouped
	// by. Empty means no grouping: a single implicit "all" group.
	GroupVar string `json:"group_var,omitempty"`
	// GroupNames are the display names for group keys 0..len-1.
	GroupNames []string `json:"group_names,omitempty"`
}

// NumProfiles returns the number of rows (N).
func (t *Table) NumProfiles() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// NumColumns returns the series length (M).
func (t *Table) NumColumns() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// TickLabels returns the per-column axis labels, one per position 1..M.
func (t *Table) TickLabels() []string {
	if t == nil {
		return nil
	}
	labels := make([]string, len(t.Columns))
	copy(labels, t.Columns)
	return labels
}

// NumGroups returns the number of group buckets under the current
// grouping: 1 (the implicit "all" group) when ungrouped, otherwise one
// bucket per group name, empty buckets included.
func (t *Table) NumGroups() int {
	if t == nil {
		return 0
	}
	if t.GroupVar == "" {
		return 1
	}
	return len(t.GroupNames)
}

// GroupBy partitions profile indices by group key. Ungrouped tables yield
// a single bucket under key 0. Rows with Group == NoGroup appear in no
// bucket. Buckets exist for every key 0..NumGroups-1, even when empty.
func (t *Table) GroupBy() map[int][]int {
	buckets := make(map[int][]int, t.NumGroups())
	for k := 0; k < t.NumGroups(); k++ {
		buckets[k] = nil
	}
	if t == nil {
		return buckets
	}
	for i, row := range t.Rows {
		key := row.Group
		if t.GroupVar == "" {
			key = 0
		}
		if key == NoGroup || key >= t.NumGroups() {
			continue
		}
		buckets[key] = append(buckets[key], i)
	}
	return buckets
}

// GroupName returns the display name for a group key.
func (t *Table) GroupName(key int) string {
	if t == nil || t.GroupVar == "" {
		return "all"
	}
	if key < 0 || key >= len(t.GroupNames) {
		return fmt.Sprintf("group %d", key)
	}
	return t.GroupNames[key]
}

// RowIDs returns the set of row identities in the table.
func (t *Table) RowIDs() map[string]bool {
	ids := make(map[string]bool, t.NumProfiles())
	if t == nil {
		return ids
	}
	for _, row := range t.Rows {
		ids[row.RowID] = true
	}
	return ids
}

// Summary returns the "N instances, M attributes" info line shown by
// rendering collaborators.
func (t *Table) Summary() string {
	if t == nil || t.NumProfiles() == 0 {
		return "no data loaded"
	}
	return fmt.Sprintf("%d instances, %d attributes", t.NumProfiles(), t.NumColumns())
}

// Validate checks the fixed-M invariant: every row has exactly len(Columns)
// values and row indices match their positions.
func (t *Table) Validate() error {
	if t == nil {
		return nil
	}
	m := len(t.Columns)
	for i, row := range t.Rows {
		if len(row.Values) != m {
			return fmt.Errorf("row %d (%s): %d values, want %d", i, row.RowID, len(row.Values), m)
		}
		if row.Index != i {
			return fmt.Errorf("row %d (%s): index %d out of position", i, row.RowID, row.Index)
		}
	}
	return nil
}

// ValueRange returns the min and max finite value across all rows,
// ignoring NaN. ok is false when no finite value exists.
func (t *Table) ValueRange() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	if t == nil {
		return 0, 0, false
	}
	for _, row := range t.Rows {
		for _, v := range row.Values {
			if math.IsNaN(v) {
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
			ok = true
		}
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}
