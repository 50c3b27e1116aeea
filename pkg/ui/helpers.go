package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Truncate shortens s to at most max visual cells, appending "…" when
// something was cut. Width is measured in terminal cells, not runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return runewidth.Truncate(s, max-1, "") + "…"
}

// FormatValue renders a float for table cells; NaN shows as a dash.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "–"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// FormatIndices renders selected indices compactly, eliding long runs.
func FormatIndices(indices []int) string {
	if len(indices) == 0 {
		return "none"
	}
	const maxShown = 8
	parts := make([]string, 0, maxShown+1)
	for i, idx := range indices {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("…+%d", len(indices)-maxShown))
			break
		}
		parts = append(parts, strconv.Itoa(idx))
	}
	return strings.Join(parts, ",")
}

// ParseCutSegment parses a lasso cut segment entered as "x1,y1 x2,y2".
func ParseCutSegment(s string) (x1, y1, x2, y2 float64, err error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return 0, 0, 0, 0, fmt.Errorf("want two points %q", "x1,y1 x2,y2")
	}
	pts := make([]float64, 0, 4)
	for _, field := range fields {
		coords := strings.Split(field, ",")
		if len(coords) != 2 {
			return 0, 0, 0, 0, fmt.Errorf("bad point %q", field)
		}
		for _, c := range coords {
			v, perr := strconv.ParseFloat(strings.TrimSpace(c), 64)
			if perr != nil {
				return 0, 0, 0, 0, fmt.Errorf("bad coordinate %q", c)
			}
			pts = append(pts, v)
		}
	}
	return pts[0], pts[1], pts[2], pts[3], nil
}
