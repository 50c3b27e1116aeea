package datasource_test

import (
	"math"
	"testing"

	"github.com/vanderheijden86/profileplot/internal/datasource"
)

func TestLoadJSONL(t *testing.T) {
	path := writeFile(t, "profiles.jsonl", `{"columns":["mon","tue","wed"]}
{"id":"a","values":[1,2,3],"group":"iris"}
{"id":"b","values":[4,null,6],"group":"rose"}

{"id":"c","values":[7,8,9],"group":"iris"}
`)
	ds, err := datasource.Load(path, datasource.LoadOptions{Group: "group"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tab := ds.Table
	if tab.NumProfiles() != 3 || tab.NumColumns() != 3 {
		t.Fatalf("got %dx%d, want 3x3", tab.NumProfiles(), tab.NumColumns())
	}
	if tab.Columns[0] != "mon" {
		t.Errorf("meta line should name columns, got %q", tab.Columns[0])
	}
	if !math.IsNaN(tab.Rows[1].Values[1]) {
		t.Errorf("null should load as NaN, got %v", tab.Rows[1].Values[1])
	}
	if tab.GroupVar != "group" || tab.Rows[0].Group != 0 || tab.Rows[1].Group != 1 {
		t.Error("group labels should become the grouping variable")
	}
}

func TestLoadJSONLRaggedRowsPadded(t *testing.T) {
	path := writeFile(t, "profiles.jsonl", `{"id":"a","values":[1,2,3]}
{"id":"b","values":[4]}
`)
	ds, err := datasource.Load(path, datasource.LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tab := ds.Table
	if tab.NumColumns() != 3 {
		t.Fatalf("got %d columns, want 3", tab.NumColumns())
	}
	// Synthesized names when no meta line is present.
	if tab.Columns[0] != "v1" || tab.Columns[2] != "v3" {
		t.Errorf("columns = %v", tab.Columns)
	}
	if !math.IsNaN(tab.Rows[1].Values[1]) || !math.IsNaN(tab.Rows[1].Values[2]) {
		t.Error("short rows must be NaN-padded to fixed M")
	}
}

func TestLoadJSONLSynthesizedIDs(t *testing.T) {
	path := writeFile(t, "profiles.jsonl", `{"values":[1]}
{"values":[2]}
`)
	ds, err := datasource.Load(path, datasource.LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Table.Rows[0].RowID != "row-0" || ds.Table.Rows[1].RowID != "row-1" {
		t.Errorf("got ids %q, %q", ds.Table.Rows[0].RowID, ds.Table.Rows[1].RowID)
	}
}

func TestLoadJSONLBadLine(t *testing.T) {
	path := writeFile(t, "profiles.jsonl", "{\"id\":\"a\",\"values\":[1]}\nnot json\n")
	if _, err := datasource.Load(path, datasource.LoadOptions{}); err == nil {
		t.Error("malformed line should fail the load")
	}
}

func TestLoadJSONLNoGroupCandidateWithoutLabels(t *testing.T) {
	path := writeFile(t, "profiles.jsonl", `{"id":"a","values":[1]}
`)
	ds, err := datasource.Load(path, datasource.LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.GroupCandidates) != 0 {
		t.Errorf("no labels means no candidates, got %v", ds.GroupCandidates)
	}
}
