package datasource

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/profileplot/pkg/model"
)

// jsonlRow is one profile record. JSON cannot encode NaN, so missing
// samples are encoded as null.
type jsonlRow struct {
	ID     string     `json:"id"`
	Values []*float64 `json:"values"`
	Group  string     `json:"group,omitempty"`

	// Columns may appear on a leading meta line to name the series
	// positions; data lines leave it empty.
	Columns []string `json:"columns,omitempty"`
}

// LoadJSONL reads a profile table from a JSONL file: one JSON object per
// line with id, values and an optional group label. An optional leading
// {"columns": [...]} line names the columns; otherwise they are
// synthesized as v1..vM.
func LoadJSONL(path string, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jsonl: %w", err)
	}
	defer f.Close()

	table := &model.Table{}
	var labels []string
	var columns []string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row jsonlRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			return nil, fmt.Errorf("jsonl line %d: %w", lineNo, err)
		}
		if len(row.Columns) > 0 && row.ID == "" && len(row.Values) == 0 {
			columns = row.Columns
			continue
		}

		p := model.Profile{
			Index: len(table.Rows),
			RowID: row.ID,
			Group: model.NoGroup,
		}
		if p.RowID == "" {
			p.RowID = fmt.Sprintf("row-%d", p.Index)
		}
		p.Values = make([]float64, len(row.Values))
		for j, v := range row.Values {
			if v == nil {
				p.Values[j] = nan()
			} else {
				p.Values[j] = *v
			}
		}
		table.Rows = append(table.Rows, p)
		labels = append(labels, row.Group)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan jsonl: %w", err)
	}

	// Fixed M: pad ragged rows up to the longest series with NaN so the
	// table invariant holds.
	m := len(columns)
	for _, row := range table.Rows {
		if len(row.Values) > m {
			m = len(row.Values)
		}
	}
	for i := range table.Rows {
		for len(table.Rows[i].Values) < m {
			table.Rows[i].Values = append(table.Rows[i].Values, nan())
		}
	}
	if len(columns) == m {
		table.Columns = columns
	} else {
		table.Columns = make([]string, m)
		for j := range table.Columns {
			table.Columns[j] = fmt.Sprintf("v%d", j+1)
		}
	}

	ds := &Dataset{Table: table}
	gv := groupVarFromLabels("group", labels)
	if len(gv.Names) > 0 {
		ds.GroupCandidates = append(ds.GroupCandidates, gv)
	}
	return ds, nil
}
