package model

// Annotated pairs a table with a per-row boolean marking selection
// membership. Row order is preserved; the flag column is the only
// addition.
type Annotated struct {
	Table    *Table `json:"table"`
	Selected []bool `json:"selected"` // len == Table.NumProfiles()
}

// Annotate builds the annotated form of t for the given selected indices.
// Indices outside the table are ignored.
func Annotate(t *Table, selected map[int]bool) Annotated {
	flags := make([]bool, t.NumProfiles())
	for i := range flags {
		flags[i] = selected[i]
	}
	return Annotated{Table: t, Selected: flags}
}

// Subtable returns a new table restricted to the given row indices, in
// index order, with row indices renumbered to stay positional. Returns
// nil when indices is empty. Grouping metadata is carried over.
func Subtable(t *Table, indices []int) *Table {
	if t == nil || len(indices) == 0 {
		return nil
	}
	sub := &Table{
		Columns:    t.TickLabels(),
		GroupVar:   t.GroupVar,
		GroupNames: append([]string(nil), t.GroupNames...),
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(t.Rows) {
			continue
		}
		row := t.Rows[idx]
		row.Index = len(sub.Rows)
		row.Values = append([]float64(nil), row.Values...)
		sub.Rows = append(sub.Rows, row)
	}
	if len(sub.Rows) == 0 {
		return nil
	}
	return sub
}
