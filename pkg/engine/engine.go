// Package engine ties the profile store, aggregate computation, selection
// state machine and visibility policy into one interactive engine. All
// public operations are synchronous and run to completion before the next
// is accepted; callers exposing an Engine to concurrent mutators must
// serialize the mutating calls. Derived state (aggregates, visibility) is
// replaced wholesale on every settled change, never patched.
package engine

import (
	"errors"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/profileplot/pkg/debug"
	"github.com/vanderheijden86/profileplot/pkg/geom"
	"github.com/vanderheijden86/profileplot/pkg/model"
	"github.com/vanderheijden86/profileplot/pkg/selection"
	"github.com/vanderheijden86/profileplot/pkg/stats"
	"github.com/vanderheijden86/profileplot/pkg/visibility"
)

// ErrNoNumericColumns is returned by Load when the dataset has no numeric
// columns to plot. The engine stays alive in an empty-but-valid state:
// further operations are accepted and simply operate over zero profiles.
var ErrNoNumericColumns = errors.New("need at least one numeric column")

// GestureKind distinguishes the two selection gestures.
type GestureKind int

const (
	// GestureClick selects a single profile by index.
	GestureClick GestureKind = iota
	// GestureLasso selects every profile whose polyline the cutting
	// segment (P1,P2) crosses.
	GestureLasso
)

// Gesture is one discrete selection input. A drag in progress holds no
// engine state; only the released gesture reaches the engine.
type Gesture struct {
	Kind     GestureKind
	Index    int // click target, ignored for lasso
	P1, P2   model.Point
	Modifier selection.Modifier
}

// Commit is the output projection emitted after every settled selection
// or data change: the selected-row subtable (nil when the selection is
// empty) and the full table annotated with a boolean selected column.
type Commit struct {
	Selected  *model.Table
	Annotated model.Annotated
}

// Option configures an Engine.
type Option func(*Engine)

// WithOnSelectionChanged sets the selection observer.
func WithOnSelectionChanged(fn func([]int)) Option {
	return func(e *Engine) { e.onSelection = fn }
}

// WithOnVisibilityChanged sets the visibility observer.
func WithOnVisibilityChanged(fn func(visibility.Snapshot)) Option {
	return func(e *Engine) { e.onVisibility = fn }
}

// WithOnCommit sets the commit observer.
func WithOnCommit(fn func(Commit)) Option {
	return func(e *Engine) { e.onCommit = fn }
}

// WithDisplayMode sets the initial display mode.
func WithDisplayMode(m visibility.DisplayMode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithShowErrorBars sets the initial error-bar flag.
func WithShowErrorBars(show bool) Option {
	return func(e *Engine) { e.errorBars = show }
}

// Engine owns the loaded table and every piece of state derived from it.
type Engine struct {
	table     *model.Table
	groups    map[int][]int
	aggs      map[int]stats.GroupAggregate
	sel       selection.Set
	subsetIDs map[string]bool // as supplied, before intersection
	subset    map[string]bool // intersection with current row ids
	inSubset  []bool          // subset flags by profile index
	mode      visibility.DisplayMode
	errorBars bool
	vis       visibility.Snapshot

	onSelection  func([]int)
	onVisibility func(visibility.Snapshot)
	onCommit     func(Commit)
}

// New creates an empty engine. Defaults mirror the classic line-plot
// widget: range-with-mean display, error bars off.
func New(opts ...Option) *Engine {
	e := &Engine{
		sel:       selection.NewSet(),
		subsetIDs: map[string]bool{},
		subset:    map[string]bool{},
		mode:      visibility.RangeWithMean,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.recomputeGroups()
	e.recomputeVisibility()
	return e
}

// Load replaces the engine's dataset wholesale. Selection is cleared,
// groups and aggregates are recomputed, subset membership is
// re-intersected against the new row ids, and observers fire (selection,
// visibility, commit). A table with zero numeric columns leaves the
// engine empty and returns ErrNoNumericColumns; the empty commit is still
// emitted so downstream sinks clear their outputs.
func (e *Engine) Load(t *model.Table) error {
	e.sel = selection.NewSet()

	if t == nil || t.NumColumns() == 0 {
		e.table = nil
		e.recomputeGroups()
		e.recomputeSubset()
		e.settle(true, true)
		if t != nil {
			return ErrNoNumericColumns
		}
		return nil
	}

	if err := t.Validate(); err != nil {
		e.table = nil
		e.recomputeGroups()
		e.recomputeSubset()
		e.settle(true, true)
		return err
	}

	e.table = t
	debug.Log("load: %s", t.Summary())
	e.recomputeGroups()
	e.recomputeSubset()
	e.settle(true, true)
	return nil
}

// Regroup reassigns the grouping variable without touching row identity
// or row count: keys must hold one group key (or model.NoGroup) per
// existing row, in row order. Selection is preserved; aggregates and
// visibility are recomputed. No commit fires, the selected rows did not
// change.
func (e *Engine) Regroup(groupVar string, groupNames []string, keys []int) error {
	if e.table == nil {
		return nil
	}
	if groupVar != "" && len(keys) != e.table.NumProfiles() {
		return errors.New("regroup: one group key per row required")
	}

	t := &model.Table{
		Columns:    e.table.TickLabels(),
		Rows:       append([]model.Profile(nil), e.table.Rows...),
		GroupVar:   groupVar,
		GroupNames: append([]string(nil), groupNames...),
	}
	for i := range t.Rows {
		if groupVar == "" {
			t.Rows[i].Group = model.NoGroup
		} else {
			t.Rows[i].Group = keys[i]
		}
	}
	e.table = t
	e.recomputeGroups()
	e.settleVisibility()
	return nil
}

// Gesture applies one selection gesture and notifies observers.
func (e *Engine) Gesture(g Gesture) {
	candidates := e.candidates(g)
	next := selection.Apply(e.sel, candidates, g.Modifier)
	e.sel = selection.ValidateAgainst(next, e.numProfiles())
	// Settle unconditionally: observers hear about every gesture, even
	// one that leaves the selection as it was.
	e.settle(true, true)
}

// ClearSelection empties the selection, the click-on-empty-space path.
func (e *Engine) ClearSelection() {
	e.Gesture(Gesture{Kind: GestureClick, Index: -1, Modifier: selection.Replace})
}

// SetSelection restores an externally persisted selection (e.g. saved
// view state). The stale-index rule applies: any out-of-range index
// resets the whole selection to empty.
func (e *Engine) SetSelection(indices []int) {
	e.sel = selection.ValidateAgainst(selection.NewSet(indices...), e.numProfiles())
	e.settle(true, true)
}

// SetSubset replaces the auxiliary subset with the identity-intersection
// of the provided row ids and the current dataset's row ids. Independent
// of selection; triggers a visibility recompute but no commit.
func (e *Engine) SetSubset(rowIDs []string) {
	e.subsetIDs = make(map[string]bool, len(rowIDs))
	for _, id := range rowIDs {
		e.subsetIDs[id] = true
	}
	e.recomputeSubset()
	e.settleVisibility()
}

// SetDisplayMode switches the display mode and recomputes visibility.
func (e *Engine) SetDisplayMode(m visibility.DisplayMode) {
	e.mode = m
	e.settleVisibility()
}

// SetShowErrorBars toggles the quartile error bars.
func (e *Engine) SetShowErrorBars(show bool) {
	e.errorBars = show
	e.settleVisibility()
}

// CycleDisplayMode advances to the next display mode.
func (e *Engine) CycleDisplayMode() {
	e.SetDisplayMode((e.mode + 1) % visibility.NumDisplayModes)
}

// Table returns the loaded table, nil when empty.
func (e *Engine) Table() *model.Table { return e.table }

// Selection returns the selected indices in ascending order.
func (e *Engine) Selection() []int { return e.sel.Sorted() }

// HasSelection reports whether any profile is selected.
func (e *Engine) HasSelection() bool { return len(e.sel) > 0 }

// HasSubset reports whether any profile is in the auxiliary subset.
func (e *Engine) HasSubset() bool { return len(e.subset) > 0 }

// Mode returns the current display mode.
func (e *Engine) Mode() visibility.DisplayMode { return e.mode }

// ShowErrorBars returns the error-bar flag.
func (e *Engine) ShowErrorBars() bool { return e.errorBars }

// Visibility returns the last settled visibility snapshot.
func (e *Engine) Visibility() visibility.Snapshot { return e.vis }

// Aggregate returns the aggregate for a group key; ok is false for empty
// groups, which produce no aggregate.
func (e *Engine) Aggregate(key int) (stats.GroupAggregate, bool) {
	agg, ok := e.aggs[key]
	return agg, ok
}

// GroupKeys returns all group bucket keys in ascending order, empty
// buckets included.
func (e *Engine) GroupKeys() []int {
	keys := make([]int, 0, len(e.groups))
	for k := range e.groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// GroupMembers returns the profile indices of one group bucket.
func (e *Engine) GroupMembers(key int) []int {
	return append([]int(nil), e.groups[key]...)
}

// InSubset reports whether the profile at index is in the subset.
func (e *Engine) InSubset(index int) bool {
	return index >= 0 && index < len(e.inSubset) && e.inSubset[index]
}

// Commit builds the current output projection without waiting for a
// state change.
func (e *Engine) Commit() Commit {
	return Project(e.table, e.sel)
}

// --- internal recomputation ------------------------------------------------

func (e *Engine) numProfiles() int { return e.table.NumProfiles() }

// candidates derives the candidate index set for a gesture.
func (e *Engine) candidates(g Gesture) selection.Set {
	switch g.Kind {
	case GestureLasso:
		hits := selection.NewSet()
		if e.table == nil {
			return hits
		}
		for _, p := range e.table.Rows {
			if geom.PolylineIntersects(g.P1, g.P2, p.Polyline()) {
				hits[p.Index] = true
			}
		}
		debug.Log("lasso (%.2f,%.2f)-(%.2f,%.2f): %d hits", g.P1.X, g.P1.Y, g.P2.X, g.P2.Y, len(hits))
		return hits
	default:
		if g.Index < 0 || g.Index >= e.numProfiles() {
			return selection.NewSet()
		}
		return selection.NewSet(g.Index)
	}
}

// recomputeGroups rebuilds the group partition and all aggregates. Each
// group is computed independently; the fan-out is bounded and the result
// map is swapped in whole before the mutating call returns, so callers
// only ever observe settled aggregates.
func (e *Engine) recomputeGroups() {
	if e.table == nil {
		e.groups = map[int][]int{}
		e.aggs = map[int]stats.GroupAggregate{}
		return
	}
	e.groups = e.table.GroupBy()

	type result struct {
		key int
		agg stats.GroupAggregate
		ok  bool
	}
	var (
		mu   sync.Mutex
		outs []result
	)
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	m := e.table.NumColumns()
	for key, members := range e.groups {
		key, members := key, members
		eg.Go(func() error {
			rows := make([]model.Profile, len(members))
			for i, idx := range members {
				rows[i] = e.table.Rows[idx]
			}
			agg, ok := stats.Compute(rows, m)
			mu.Lock()
			outs = append(outs, result{key: key, agg: agg, ok: ok})
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait() // group computations never error

	aggs := make(map[int]stats.GroupAggregate, len(outs))
	for _, r := range outs {
		if r.ok {
			aggs[r.key] = r.agg
		}
	}
	e.aggs = aggs
}

// recomputeSubset re-intersects the supplied subset ids with the current
// table's row ids and refreshes the per-index flags.
func (e *Engine) recomputeSubset() {
	if e.table == nil {
		e.subset = map[string]bool{}
		e.inSubset = nil
		return
	}
	e.subset = selection.IntersectIDs(e.table.RowIDs(), e.subsetIDs)
	e.inSubset = make([]bool, e.numProfiles())
	for i, row := range e.table.Rows {
		e.inSubset[i] = e.subset[row.RowID]
	}
}

func (e *Engine) recomputeVisibility() {
	e.vis = visibility.Compute(e.mode, e.errorBars, e.sel, e.inSubset, e.numProfiles(), e.GroupKeys())
}

// settle recomputes visibility and fires the requested observers in the
// fixed order selection → visibility → commit.
func (e *Engine) settle(selectionChanged, commitNow bool) {
	e.recomputeVisibility()
	if selectionChanged && e.onSelection != nil {
		e.onSelection(e.sel.Sorted())
	}
	if e.onVisibility != nil {
		e.onVisibility(e.vis)
	}
	if commitNow && e.onCommit != nil {
		e.onCommit(e.Commit())
	}
}

func (e *Engine) settleVisibility() {
	e.recomputeVisibility()
	if e.onVisibility != nil {
		e.onVisibility(e.vis)
	}
}
