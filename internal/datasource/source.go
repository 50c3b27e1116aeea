// Package datasource loads profile tables from CSV, JSONL and SQLite
// sources. It selects the numeric columns as the plotted series (the way
// the engine expects them), collects discrete columns as grouping
// candidates, and parses blank/NULL/NaN markers into NaN cells.
package datasource

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vanderheijden86/profileplot/pkg/model"
)

// SourceType identifies the kind of dataset file.
type SourceType string

const (
	SourceTypeCSV    SourceType = "csv"
	SourceTypeJSONL  SourceType = "jsonl"
	SourceTypeSQLite SourceType = "sqlite"
)

// DetectSource infers the source type from the file extension.
func DetectSource(path string) (SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return SourceTypeCSV, nil
	case ".jsonl", ".ndjson":
		return SourceTypeJSONL, nil
	case ".db", ".sqlite", ".sqlite3":
		return SourceTypeSQLite, nil
	default:
		return "", fmt.Errorf("cannot detect source type of %s (want .csv, .jsonl or .db)", path)
	}
}

// GroupVar is a discrete column usable as a grouping variable: its
// distinct values in first-appearance order and the per-row key into
// them (model.NoGroup for blank cells).
type GroupVar struct {
	Name  string
	Names []string
	Keys  []int
}

// Dataset is a loaded table plus the grouping candidates discovered
// alongside it.
type Dataset struct {
	Table           *model.Table
	GroupCandidates []GroupVar
}

// Candidate returns the grouping candidate with the given name.
func (d *Dataset) Candidate(name string) (GroupVar, bool) {
	for _, gv := range d.GroupCandidates {
		if gv.Name == name {
			return gv, true
		}
	}
	return GroupVar{}, false
}

// ApplyGroup rewrites the table's group assignment from one of the
// discovered candidates. An empty name removes grouping.
func (d *Dataset) ApplyGroup(name string) error {
	if name == "" {
		d.Table.GroupVar = ""
		d.Table.GroupNames = nil
		for i := range d.Table.Rows {
			d.Table.Rows[i].Group = model.NoGroup
		}
		return nil
	}
	gv, ok := d.Candidate(name)
	if !ok {
		return fmt.Errorf("no discrete column %q to group by", name)
	}
	d.Table.GroupVar = gv.Name
	d.Table.GroupNames = append([]string(nil), gv.Names...)
	for i := range d.Table.Rows {
		d.Table.Rows[i].Group = gv.Keys[i]
	}
	return nil
}

// LoadOptions configures dataset loading.
type LoadOptions struct {
	// Group names the discrete column to group profiles by. Empty means
	// no grouping.
	Group string
	// IDColumn overrides the row-identity column (default "id", falling
	// back to synthesized row ids).
	IDColumn string
}

// Load reads a dataset, detecting the source type from the path.
func Load(path string, opts LoadOptions) (*Dataset, error) {
	st, err := DetectSource(path)
	if err != nil {
		return nil, err
	}
	var ds *Dataset
	switch st {
	case SourceTypeCSV:
		ds, err = LoadCSV(path, opts)
	case SourceTypeJSONL:
		ds, err = LoadJSONL(path, opts)
	case SourceTypeSQLite:
		ds, err = LoadSQLite(path, opts)
	default:
		return nil, fmt.Errorf("unhandled source type %q", st)
	}
	if err != nil {
		return nil, err
	}
	if opts.Group != "" {
		if err := ds.ApplyGroup(opts.Group); err != nil {
			return nil, err
		}
	}
	if err := ds.Table.Validate(); err != nil {
		return nil, fmt.Errorf("loaded table invalid: %w", err)
	}
	return ds, nil
}

// LoadRowIDs reads only the row identities of a dataset, the shape needed
// for the auxiliary subset input.
func LoadRowIDs(path string, opts LoadOptions) ([]string, error) {
	ds, err := Load(path, opts)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, ds.Table.NumProfiles())
	for _, row := range ds.Table.Rows {
		ids = append(ids, row.RowID)
	}
	return ids, nil
}

// parseCell parses one numeric cell. Blank cells and the usual missing
// markers become NaN.
func parseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "?":
		return nan(), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// groupVarFromLabels builds a GroupVar from per-row string labels, with
// distinct values kept in first-appearance order.
func groupVarFromLabels(name string, labels []string) GroupVar {
	gv := GroupVar{Name: name, Keys: make([]int, len(labels))}
	index := map[string]int{}
	for i, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			gv.Keys[i] = model.NoGroup
			continue
		}
		key, ok := index[label]
		if !ok {
			key = len(gv.Names)
			index[label] = key
			gv.Names = append(gv.Names, label)
		}
		gv.Keys[i] = key
	}
	return gv
}
