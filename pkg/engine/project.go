package engine

import (
	"github.com/vanderheijden86/profileplot/pkg/model"
	"github.com/vanderheijden86/profileplot/pkg/selection"
)

// Project builds the output projection for a table and selection:
// the selected-row subtable (nil when the selection is empty) and the
// full table annotated with a boolean selected column, row order
// preserved. Deterministic and side-effect-free.
func Project(t *model.Table, sel selection.Set) Commit {
	flags := make(map[int]bool, len(sel))
	for i := range sel {
		flags[i] = true
	}
	return Commit{
		Selected:  model.Subtable(t, sel.Sorted()),
		Annotated: model.Annotate(t, flags),
	}
}
