package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/profileplot/pkg/engine"
)

// commitPayload is the JSON shape of one output projection.
type commitPayload struct {
	Selected  []commitRow `json:"selected"` // empty when nothing is selected
	Annotated []commitRow `json:"annotated"`
}

type commitRow struct {
	Index    int        `json:"index"`
	RowID    string     `json:"row_id"`
	Values   []*float64 `json:"values"` // NaN cells encode as null
	Group    string     `json:"group,omitempty"`
	Selected bool       `json:"selected"`
}

// nullable converts NaN cells to null for JSON encoding.
func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		v := v
		out[i] = &v
	}
	return out
}

// WriteCommitJSON writes the commit projection (selected subtable plus
// annotated table) as pretty-printed JSON. NaN values are encoded as
// null, JSON has no NaN literal.
func WriteCommitJSON(path string, c engine.Commit) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeCommitJSON(f, c)
}

// EncodeCommitJSON writes the commit projection to a writer.
func EncodeCommitJSON(w io.Writer, c engine.Commit) error {
	payload := commitPayload{
		Selected:  []commitRow{},
		Annotated: []commitRow{},
	}
	if c.Selected != nil {
		for _, row := range c.Selected.Rows {
			payload.Selected = append(payload.Selected, commitRow{
				Index:    row.Index,
				RowID:    row.RowID,
				Values:   nullable(row.Values),
				Group:    c.Selected.GroupName(row.Group),
				Selected: true,
			})
		}
	}
	if c.Annotated.Table != nil {
		for i, row := range c.Annotated.Table.Rows {
			payload.Annotated = append(payload.Annotated, commitRow{
				Index:    row.Index,
				RowID:    row.RowID,
				Values:   nullable(row.Values),
				Group:    c.Annotated.Table.GroupName(row.Group),
				Selected: c.Annotated.Selected[i],
			})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode commit: %w", err)
	}
	return nil
}
