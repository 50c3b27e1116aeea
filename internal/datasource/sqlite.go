package datasource

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/profileplot/pkg/model"
)

// profilesTable is the table a SQLite dataset is read from.
const profilesTable = "profiles"

// LoadSQLite reads a profile table from a SQLite database. The profiles
// table is read wide: INTEGER/REAL columns become the plotted series in
// declaration order, TEXT columns become grouping candidates, and the id
// column (default "id") supplies row identity. NULL cells become NaN.
func LoadSQLite(path string, opts LoadOptions) (*Dataset, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	idName := opts.IDColumn
	if idName == "" {
		idName = "id"
	}

	cols, err := tableColumns(db, profilesTable)
	if err != nil {
		return nil, err
	}

	var (
		numericCols  []string
		discreteCols []string
		idCol        string
	)
	for _, c := range cols {
		switch {
		case strings.EqualFold(c.name, idName):
			idCol = c.name
		case c.numeric:
			numericCols = append(numericCols, c.name)
		default:
			discreteCols = append(discreteCols, c.name)
		}
	}

	selected := make([]string, 0, len(cols))
	if idCol != "" {
		selected = append(selected, quoteIdent(idCol))
	}
	for _, c := range numericCols {
		selected = append(selected, quoteIdent(c))
	}
	for _, c := range discreteCols {
		selected = append(selected, quoteIdent(c))
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("table %s has no columns", profilesTable)
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(selected, ", "), profilesTable)
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	table := &model.Table{Columns: append([]string(nil), numericCols...)}
	labelRows := make([][]string, len(discreteCols))

	for rows.Next() {
		dest := make([]any, 0, len(selected))
		var id sql.NullString
		if idCol != "" {
			dest = append(dest, &id)
		}
		nums := make([]sql.NullFloat64, len(numericCols))
		for j := range nums {
			dest = append(dest, &nums[j])
		}
		texts := make([]sql.NullString, len(discreteCols))
		for j := range texts {
			dest = append(dest, &texts[j])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan profiles row: %w", err)
		}

		p := model.Profile{
			Index:  len(table.Rows),
			Group:  model.NoGroup,
			Values: make([]float64, len(numericCols)),
		}
		if id.Valid && id.String != "" {
			p.RowID = id.String
		} else {
			p.RowID = fmt.Sprintf("row-%d", p.Index)
		}
		for j, v := range nums {
			if v.Valid {
				p.Values[j] = v.Float64
			} else {
				p.Values[j] = nan()
			}
		}
		table.Rows = append(table.Rows, p)
		for j, v := range texts {
			labelRows[j] = append(labelRows[j], v.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	ds := &Dataset{Table: table}
	for j, name := range discreteCols {
		ds.GroupCandidates = append(ds.GroupCandidates, groupVarFromLabels(name, labelRows[j]))
	}
	return ds, nil
}

type columnInfo struct {
	name    string
	numeric bool
}

// tableColumns reads declared column names and affinities.
func tableColumns(db *sql.DB, tableName string) ([]columnInfo, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, fmt.Errorf("table_info: %w", err)
	}
	defer rows.Close()

	var cols []columnInfo
	for rows.Next() {
		var (
			cid       int
			name      string
			declType  sql.NullString
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}
		decl := strings.ToUpper(declType.String)
		numeric := strings.Contains(decl, "INT") ||
			strings.Contains(decl, "REAL") ||
			strings.Contains(decl, "FLOA") ||
			strings.Contains(decl, "DOUB") ||
			strings.Contains(decl, "NUM")
		cols = append(cols, columnInfo{name: name, numeric: numeric})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no table %q in database", tableName)
	}
	return cols, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
