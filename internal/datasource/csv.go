package datasource

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/vanderheijden86/profileplot/pkg/model"
)

func nan() float64 { return math.NaN() }

// LoadCSV reads a profile table from a CSV file with a header row.
// Columns whose every cell parses as a number (or a missing marker)
// become the plotted series, in file order; other columns become
// grouping candidates. The identity column (default "id") supplies row
// ids; rows without one get a synthesized positional id.
func LoadCSV(path string, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv %s is empty", path)
	}

	header := records[0]
	rows := records[1:]

	idCol := -1
	idName := opts.IDColumn
	if idName == "" {
		idName = "id"
	}
	for j, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), idName) {
			idCol = j
			break
		}
	}

	// Classify the remaining columns: numeric if every cell parses.
	numeric := make([]bool, len(header))
	for j := range header {
		if j == idCol {
			continue
		}
		numeric[j] = true
		for _, rec := range rows {
			if j >= len(rec) {
				continue
			}
			if _, ok := parseCell(rec[j]); !ok {
				numeric[j] = false
				break
			}
		}
	}

	table := &model.Table{}
	for j, name := range header {
		if numeric[j] {
			table.Columns = append(table.Columns, strings.TrimSpace(name))
		}
	}

	for i, rec := range rows {
		p := model.Profile{
			Index: i,
			Group: model.NoGroup,
		}
		if idCol >= 0 && idCol < len(rec) && strings.TrimSpace(rec[idCol]) != "" {
			p.RowID = strings.TrimSpace(rec[idCol])
		} else {
			p.RowID = fmt.Sprintf("row-%d", i)
		}
		for j := range header {
			if !numeric[j] {
				continue
			}
			v := nan()
			if j < len(rec) {
				if parsed, ok := parseCell(rec[j]); ok {
					v = parsed
				}
			}
			p.Values = append(p.Values, v)
		}
		if p.Values == nil {
			p.Values = []float64{}
		}
		table.Rows = append(table.Rows, p)
	}

	ds := &Dataset{Table: table}
	for j, name := range header {
		if numeric[j] || j == idCol {
			continue
		}
		labels := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				labels[i] = rec[j]
			}
		}
		ds.GroupCandidates = append(ds.GroupCandidates, groupVarFromLabels(strings.TrimSpace(name), labels))
	}
	return ds, nil
}
