package engine_test

import (
	"errors"
	"testing"

	"github.com/vanderheijden86/profileplot/pkg/engine"
	"github.com/vanderheijden86/profileplot/pkg/model"
	"github.com/vanderheijden86/profileplot/pkg/selection"
	"github.com/vanderheijden86/profileplot/pkg/testutil"
	"github.com/vanderheijden86/profileplot/pkg/visibility"
)

// recorder counts observer notifications and keeps the last payloads.
type recorder struct {
	selections int
	visibles   int
	commits    int
	lastSel    []int
	lastVis    visibility.Snapshot
	lastCommit engine.Commit
}

func newRecordedEngine(opts ...engine.Option) (*engine.Engine, *recorder) {
	rec := &recorder{}
	opts = append(opts,
		engine.WithOnSelectionChanged(func(sel []int) { rec.selections++; rec.lastSel = sel }),
		engine.WithOnVisibilityChanged(func(v visibility.Snapshot) { rec.visibles++; rec.lastVis = v }),
		engine.WithOnCommit(func(c engine.Commit) { rec.commits++; rec.lastCommit = c }),
	)
	return engine.New(opts...), rec
}

func TestLoadEmitsEmptyCommit(t *testing.T) {
	eng, rec := newRecordedEngine()
	tab := testutil.TableOf([][]float64{{1, 2}, {3, 4}})

	if err := eng.Load(tab); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.commits != 1 {
		t.Errorf("commits = %d, want 1", rec.commits)
	}
	if rec.lastCommit.Selected != nil {
		t.Error("fresh load should commit a nil selected subtable")
	}
	if got := len(rec.lastCommit.Annotated.Selected); got != 2 {
		t.Errorf("annotated flags = %d, want 2", got)
	}
}

func TestLoadNoNumericColumns(t *testing.T) {
	eng, rec := newRecordedEngine()
	err := eng.Load(&model.Table{})
	if !errors.Is(err, engine.ErrNoNumericColumns) {
		t.Fatalf("err = %v, want ErrNoNumericColumns", err)
	}
	// Engine stays alive in the empty state and still clears downstream
	// sinks with an empty commit.
	if rec.commits != 1 {
		t.Errorf("commits = %d, want 1", rec.commits)
	}
	if eng.Table() != nil {
		t.Error("table should be nil after an invalid load")
	}
	eng.ClearSelection() // must not panic on the empty engine
}

func TestLoadInvalidTable(t *testing.T) {
	eng, _ := newRecordedEngine()
	tab := testutil.TableOf([][]float64{{1, 2}})
	tab.Rows[0].Values = []float64{1}
	if err := eng.Load(tab); err == nil {
		t.Fatal("ragged table should fail to load")
	}
	if eng.Table() != nil {
		t.Error("failed load must leave the engine empty")
	}
}

func TestLoadClearsSelection(t *testing.T) {
	eng, _ := newRecordedEngine()
	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}, {3}})); err != nil {
		t.Fatal(err)
	}
	eng.Gesture(engine.Gesture{Kind: engine.GestureClick, Index: 2, Modifier: selection.Replace})
	if !eng.HasSelection() {
		t.Fatal("click should select")
	}

	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}})); err != nil {
		t.Fatal(err)
	}
	if eng.HasSelection() {
		t.Error("reload must clear the selection")
	}
}

func TestClickGestures(t *testing.T) {
	eng, rec := newRecordedEngine()
	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}, {3}})); err != nil {
		t.Fatal(err)
	}

	eng.Gesture(engine.Gesture{Kind: engine.GestureClick, Index: 0, Modifier: selection.Replace})
	testutil.AssertIndices(t, eng.Selection(), []int{0}, "after replace click")

	eng.Gesture(engine.Gesture{Kind: engine.GestureClick, Index: 2, Modifier: selection.Union})
	testutil.AssertIndices(t, eng.Selection(), []int{0, 2}, "after union click")

	eng.Gesture(engine.Gesture{Kind: engine.GestureClick, Index: 0, Modifier: selection.Toggle})
	testutil.AssertIndices(t, eng.Selection(), []int{2}, "after toggle click")

	eng.Gesture(engine.Gesture{Kind: engine.GestureClick, Index: 2, Modifier: selection.Subtract})
	if eng.HasSelection() {
		t.Error("subtract click should empty the selection")
	}

	if rec.lastCommit.Selected != nil {
		t.Error("empty selection should commit a nil subtable")
	}
}

func TestClickOutOfRangeReplaceClears(t *testing.T) {
	eng, _ := newRecordedEngine()
	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}})); err != nil {
		t.Fatal(err)
	}
	eng.Gesture(engine.Gesture{Kind: engine.GestureClick, Index: 1, Modifier: selection.Replace})
	eng.Gesture(engine.Gesture{Kind: engine.GestureClick, Index: -1, Modifier: selection.Replace})
	if eng.HasSelection() {
		t.Error("replace click on empty space should clear")
	}
}

func TestNoopGestureStillNotifies(t *testing.T) {
	eng, rec := newRecordedEngine()
	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}})); err != nil {
		t.Fatal(err)
	}
	selections, visibles, commits := rec.selections, rec.visibles, rec.commits

	// Subtracting an unselected profile leaves the selection untouched,
	// but every gesture still runs the full notification cycle.
	eng.Gesture(engine.Gesture{Kind: engine.GestureClick, Index: 1, Modifier: selection.Subtract})
	if eng.HasSelection() {
		t.Fatal("subtracting an unselected profile must not select anything")
	}
	if rec.selections != selections+1 {
		t.Errorf("selection observers = %d, want %d", rec.selections, selections+1)
	}
	if rec.visibles != visibles+1 {
		t.Errorf("visibility observers = %d, want %d", rec.visibles, visibles+1)
	}
	if rec.commits != commits+1 {
		t.Errorf("commit observers = %d, want %d", rec.commits, commits+1)
	}
}

func TestLassoGesture(t *testing.T) {
	eng, _ := newRecordedEngine()
	// Row 0 sits at y=0, row 1 at y=10.
	if err := eng.Load(testutil.TableOf([][]float64{{0, 0, 0}, {10, 10, 10}})); err != nil {
		t.Fatal(err)
	}

	// A short vertical cut at x=1.5 around y=0 crosses only row 0.
	eng.Gesture(engine.Gesture{
		Kind:     engine.GestureLasso,
		P1:       model.Point{X: 1.5, Y: -1},
		P2:       model.Point{X: 1.5, Y: 1},
		Modifier: selection.Replace,
	})
	testutil.AssertIndices(t, eng.Selection(), []int{0}, "short cut")

	// A tall cut crosses both rows.
	eng.Gesture(engine.Gesture{
		Kind:     engine.GestureLasso,
		P1:       model.Point{X: 1.5, Y: -20},
		P2:       model.Point{X: 1.5, Y: 20},
		Modifier: selection.Replace,
	})
	testutil.AssertIndices(t, eng.Selection(), []int{0, 1}, "tall cut")

	// A cut past the last tick hits nothing; replace semantics clear.
	eng.Gesture(engine.Gesture{
		Kind:     engine.GestureLasso,
		P1:       model.Point{X: 10, Y: -20},
		P2:       model.Point{X: 10, Y: 20},
		Modifier: selection.Replace,
	})
	if eng.HasSelection() {
		t.Error("missing cut with replace should clear the selection")
	}
}

func TestSetSelectionStaleIndexResets(t *testing.T) {
	eng, _ := newRecordedEngine()
	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}})); err != nil {
		t.Fatal(err)
	}
	eng.SetSelection([]int{0, 5})
	if eng.HasSelection() {
		t.Error("restoring a selection with a stale index must reset it whole")
	}
	eng.SetSelection([]int{1})
	testutil.AssertIndices(t, eng.Selection(), []int{1}, "valid restore")
}

func TestSetSubsetIntersectsAndSkipsCommit(t *testing.T) {
	eng, rec := newRecordedEngine()
	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}, {3}})); err != nil {
		t.Fatal(err)
	}
	commits := rec.commits

	eng.SetSubset([]string{"row-1", "no-such-row"})
	if rec.commits != commits {
		t.Error("subset changes must not commit")
	}
	if !eng.HasSubset() {
		t.Fatal("subset should intersect with row-1")
	}
	if !eng.InSubset(1) || eng.InSubset(0) || eng.InSubset(2) {
		t.Error("only row-1 should be in the subset")
	}
	if rec.lastVis.Profiles[1].Emphasis != visibility.EmphasisInSubset {
		t.Error("subset member should be emphasized in the visibility snapshot")
	}
}

func TestSubsetSurvivesReload(t *testing.T) {
	eng, _ := newRecordedEngine()
	eng.SetSubset([]string{"row-1"})

	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}})); err != nil {
		t.Fatal(err)
	}
	if !eng.InSubset(1) {
		t.Error("subset ids must re-intersect against the new table")
	}

	// A table without that identity drops the membership.
	tab := testutil.TableOf([][]float64{{1}})
	tab.Rows[0].RowID = "other"
	if err := eng.Load(tab); err != nil {
		t.Fatal(err)
	}
	if eng.HasSubset() {
		t.Error("subset should be empty when no identity matches")
	}
}

func TestRegroupPreservesSelection(t *testing.T) {
	eng, rec := newRecordedEngine()
	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}, {3}, {4}})); err != nil {
		t.Fatal(err)
	}
	eng.Gesture(engine.Gesture{Kind: engine.GestureClick, Index: 3, Modifier: selection.Replace})
	commits := rec.commits

	if err := eng.Regroup("kind", []string{"a", "b"}, []int{0, 1, 0, 1}); err != nil {
		t.Fatalf("Regroup: %v", err)
	}
	testutil.AssertIndices(t, eng.Selection(), []int{3}, "selection after regroup")
	if rec.commits != commits {
		t.Error("regroup must not commit, row identity did not change")
	}

	testutil.AssertIndices(t, eng.GroupKeys(), []int{0, 1}, "group keys")
	testutil.AssertIndices(t, eng.GroupMembers(0), []int{0, 2}, "group 0 members")

	agg, ok := eng.Aggregate(1)
	if !ok {
		t.Fatal("group 1 should have an aggregate")
	}
	if agg.N != 2 {
		t.Errorf("group 1 N = %d, want 2", agg.N)
	}
}

func TestRegroupKeyCountMismatch(t *testing.T) {
	eng, _ := newRecordedEngine()
	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}})); err != nil {
		t.Fatal(err)
	}
	if err := eng.Regroup("kind", []string{"a"}, []int{0}); err == nil {
		t.Error("regroup with too few keys should fail")
	}
}

func TestRegroupToUngrouped(t *testing.T) {
	eng, _ := newRecordedEngine()
	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}})); err != nil {
		t.Fatal(err)
	}
	if err := eng.Regroup("kind", []string{"a", "b"}, []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	if err := eng.Regroup("", nil, nil); err != nil {
		t.Fatal(err)
	}
	testutil.AssertIndices(t, eng.GroupKeys(), []int{0}, "implicit all group")
	agg, ok := eng.Aggregate(0)
	if !ok || agg.N != 2 {
		t.Errorf("ungrouped aggregate N = %d (ok=%v), want 2", agg.N, ok)
	}
}

func TestEmptyGroupHasNoAggregate(t *testing.T) {
	eng, _ := newRecordedEngine()
	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}})); err != nil {
		t.Fatal(err)
	}
	if err := eng.Regroup("kind", []string{"a", "b", "empty"}, []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	if _, ok := eng.Aggregate(2); ok {
		t.Error("empty group must produce no aggregate")
	}
	testutil.AssertIndices(t, eng.GroupKeys(), []int{0, 1, 2}, "empty bucket still listed")
}

func TestDisplayModeChangesVisibilityOnly(t *testing.T) {
	eng, rec := newRecordedEngine()
	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}})); err != nil {
		t.Fatal(err)
	}
	commits, sels := rec.commits, rec.selections

	eng.SetDisplayMode(visibility.Instances)
	if eng.Mode() != visibility.Instances {
		t.Error("mode did not change")
	}
	if rec.commits != commits || rec.selections != sels {
		t.Error("mode change must only refresh visibility")
	}
	if !rec.lastVis.Profiles[0].Visible {
		t.Error("instances mode should show profiles")
	}

	eng.SetShowErrorBars(true)
	if !eng.ShowErrorBars() || !rec.lastVis.Groups[0].ErrorVisible {
		t.Error("error-bar flag should flow into the snapshot")
	}
}

func TestCycleDisplayModeWraps(t *testing.T) {
	eng := engine.New()
	seen := map[visibility.DisplayMode]bool{eng.Mode(): true}
	for i := 0; i < int(visibility.NumDisplayModes)-1; i++ {
		eng.CycleDisplayMode()
		seen[eng.Mode()] = true
	}
	if len(seen) != int(visibility.NumDisplayModes) {
		t.Errorf("cycling visited %d modes, want %d", len(seen), visibility.NumDisplayModes)
	}
	eng.CycleDisplayMode()
	if eng.Mode() != visibility.RangeWithMean {
		t.Errorf("cycle should wrap to range-with-mean, got %v", eng.Mode())
	}
}

func TestCommitProjection(t *testing.T) {
	eng, _ := newRecordedEngine()
	if err := eng.Load(testutil.TableOf([][]float64{{1}, {2}, {3}})); err != nil {
		t.Fatal(err)
	}
	eng.SetSelection([]int{0, 2})

	c := eng.Commit()
	if c.Selected == nil || c.Selected.NumProfiles() != 2 {
		t.Fatal("selected subtable should hold the two selected rows")
	}
	if c.Selected.Rows[1].RowID != "row-2" {
		t.Error("subtable rows must keep their identity")
	}
	want := []bool{true, false, true}
	for i, flag := range c.Annotated.Selected {
		if flag != want[i] {
			t.Errorf("annotated flag %d = %v, want %v", i, flag, want[i])
		}
	}
}

func TestProjectEmptySelection(t *testing.T) {
	tab := testutil.TableOf([][]float64{{1}, {2}})
	c := engine.Project(tab, selection.NewSet())
	if c.Selected != nil {
		t.Error("empty selection projects a nil subtable")
	}
	for i, flag := range c.Annotated.Selected {
		if flag {
			t.Errorf("annotated flag %d should be false", i)
		}
	}
}
