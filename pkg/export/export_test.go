package export_test

import (
	"bytes"
	"encoding/json"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/profileplot/pkg/engine"
	"github.com/vanderheijden86/profileplot/pkg/export"
	"github.com/vanderheijden86/profileplot/pkg/stats"
	"github.com/vanderheijden86/profileplot/pkg/testutil"
)

func loadedEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New()
	tab := testutil.TableOf([][]float64{
		{1, 2, math.NaN()},
		{3, 4, 5},
		{5, 6, 7},
	})
	if err := eng.Load(tab); err != nil {
		t.Fatal(err)
	}
	return eng
}

func snapshotOptions(t *testing.T, eng *engine.Engine, path string) export.ChartSnapshotOptions {
	t.Helper()
	aggs := map[int]stats.GroupAggregate{}
	for _, key := range eng.GroupKeys() {
		if agg, ok := eng.Aggregate(key); ok {
			aggs[key] = agg
		}
	}
	return export.ChartSnapshotOptions{
		Path:       path,
		Table:      eng.Table(),
		Aggregates: aggs,
		Visibility: eng.Visibility(),
	}
}

func TestSaveChartSnapshotSVG(t *testing.T) {
	eng := loadedEngine(t)
	eng.SetSelection([]int{1})
	path := filepath.Join(t.TempDir(), "chart.svg")

	if err := export.SaveChartSnapshot(snapshotOptions(t, eng, path)); err != nil {
		t.Fatalf("SaveChartSnapshot: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	if !strings.Contains(body, "<svg") || !strings.Contains(body, "</svg>") {
		t.Error("output is not an SVG document")
	}
	if !strings.Contains(body, "3 instances, 3 attributes") {
		t.Error("summary line missing from the header")
	}
	if !strings.Contains(body, "polyline") {
		t.Error("expected at least one polyline element")
	}
}

func TestSaveChartSnapshotPNG(t *testing.T) {
	eng := loadedEngine(t)
	eng.SetShowErrorBars(true)
	path := filepath.Join(t.TempDir(), "chart.png")

	if err := export.SaveChartSnapshot(snapshotOptions(t, eng, path)); err != nil {
		t.Fatalf("SaveChartSnapshot: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output is not a decodable PNG: %v", err)
	}
	if img.Bounds().Dx() != 960 || img.Bounds().Dy() != 540 {
		t.Errorf("compact preset should be 960x540, got %v", img.Bounds())
	}
}

func TestSaveChartSnapshotRoomyPreset(t *testing.T) {
	eng := loadedEngine(t)
	path := filepath.Join(t.TempDir(), "chart.png")
	opts := snapshotOptions(t, eng, path)
	opts.Preset = "roomy"

	if err := export.SaveChartSnapshot(opts); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 1280 || img.Bounds().Dy() != 720 {
		t.Errorf("roomy preset should be 1280x720, got %v", img.Bounds())
	}
}

func TestSaveChartSnapshotDefaultsToSVG(t *testing.T) {
	eng := loadedEngine(t)
	path := filepath.Join(t.TempDir(), "chart")
	if err := export.SaveChartSnapshot(snapshotOptions(t, eng, path)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".svg"); err != nil {
		t.Errorf("extension-less path should get .svg appended: %v", err)
	}
}

func TestSaveChartSnapshotErrors(t *testing.T) {
	if err := export.SaveChartSnapshot(export.ChartSnapshotOptions{Path: "x.svg"}); err == nil {
		t.Error("nil table should fail")
	}
	eng := loadedEngine(t)
	opts := snapshotOptions(t, eng, filepath.Join(t.TempDir(), "chart.gif"))
	opts.Format = "gif"
	if err := export.SaveChartSnapshot(opts); err == nil {
		t.Error("unsupported format should fail")
	}
}

// commitDoc mirrors the encoded payload shape for decoding in tests.
type commitDoc struct {
	Selected []struct {
		Index    int        `json:"index"`
		RowID    string     `json:"row_id"`
		Values   []*float64 `json:"values"`
		Selected bool       `json:"selected"`
	} `json:"selected"`
	Annotated []struct {
		RowID    string     `json:"row_id"`
		Values   []*float64 `json:"values"`
		Group    string     `json:"group"`
		Selected bool       `json:"selected"`
	} `json:"annotated"`
}

func TestEncodeCommitJSON(t *testing.T) {
	eng := loadedEngine(t)
	eng.SetSelection([]int{0, 2})

	var buf bytes.Buffer
	if err := export.EncodeCommitJSON(&buf, eng.Commit()); err != nil {
		t.Fatalf("EncodeCommitJSON: %v", err)
	}

	var doc commitDoc
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if len(doc.Selected) != 2 {
		t.Fatalf("selected rows = %d, want 2", len(doc.Selected))
	}
	if doc.Selected[0].RowID != "row-0" || doc.Selected[1].RowID != "row-2" {
		t.Errorf("selected ids = %q, %q", doc.Selected[0].RowID, doc.Selected[1].RowID)
	}
	if doc.Selected[0].Values[2] != nil {
		t.Error("NaN cell must encode as null")
	}
	if len(doc.Annotated) != 3 {
		t.Fatalf("annotated rows = %d, want 3", len(doc.Annotated))
	}
	wantFlags := []bool{true, false, true}
	for i, row := range doc.Annotated {
		if row.Selected != wantFlags[i] {
			t.Errorf("annotated flag %d = %v, want %v", i, row.Selected, wantFlags[i])
		}
	}
	if doc.Annotated[0].Group != "all" {
		t.Errorf("ungrouped rows carry the implicit group, got %q", doc.Annotated[0].Group)
	}
}

func TestEncodeCommitJSONEmpty(t *testing.T) {
	eng := loadedEngine(t)
	var buf bytes.Buffer
	if err := export.EncodeCommitJSON(&buf, eng.Commit()); err != nil {
		t.Fatal(err)
	}
	var doc commitDoc
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Selected) != 0 {
		t.Errorf("empty selection should encode an empty array, got %d rows", len(doc.Selected))
	}
	// Key must be present as [] rather than null.
	if !bytes.Contains(buf.Bytes(), []byte(`"selected": []`)) {
		t.Error("selected key should encode as an empty array")
	}
}

func TestWriteCommitJSON(t *testing.T) {
	eng := loadedEngine(t)
	path := filepath.Join(t.TempDir(), "out", "commit.json")
	if err := export.WriteCommitJSON(path, eng.Commit()); err != nil {
		t.Fatalf("WriteCommitJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Error("written file is not valid JSON")
	}
}
