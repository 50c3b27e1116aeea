// Package export renders static snapshots of a settled engine state: the
// line chart as SVG or PNG, and the commit payload as JSON. It is a
// rendering collaborator of the engine; it reads visibility and
// aggregates, never selection state directly.
package export

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/profileplot/pkg/model"
	"github.com/vanderheijden86/profileplot/pkg/stats"
	"github.com/vanderheijden86/profileplot/pkg/visibility"
)

// ChartSnapshotOptions controls chart snapshot export behaviour.
type ChartSnapshotOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive)
	Title  string // Optional title rendered in the header
	Preset string // Layout preset: "compact" (default) or "roomy"

	Table      *model.Table
	Aggregates map[int]stats.GroupAggregate
	Visibility visibility.Snapshot
}

// SaveChartSnapshot renders a static chart snapshot. Profiles are drawn
// per their visibility tier, group means as heavy polylines, min-max
// ranges as translucent bands and quartile error bars as whiskers. NaN
// columns leave gaps.
func SaveChartSnapshot(opts ChartSnapshotOptions) error {
	if opts.Table == nil || opts.Table.NumProfiles() == 0 {
		return fmt.Errorf("no profiles to export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		default:
			format = "svg"
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildChartLayout(opts)

	switch format {
	case "svg":
		return renderChartSVG(opts, layout)
	default:
		return renderChartPNG(opts, layout)
	}
}

// --- layout ----------------------------------------------------------------

type chartLayout struct {
	Width, Height int
	Left, Right   float64
	Top, Bottom   float64 // chart area bounds in pixels
	LoY, HiY      float64 // value range mapped to the chart area
	Cols          int
	Title         string
	Summary       string
	TickLabels    []string
	LegendEntries []legendEntry
}

type legendEntry struct {
	Key   int
	Label string
	N     int
}

func buildChartLayout(opts ChartSnapshotOptions) chartLayout {
	const (
		widthCompact  = 960
		heightCompact = 540
		widthRoomy    = 1280
		heightRoomy   = 720
		headerH       = 56.0
		padding       = 48.0
	)

	w, h := widthCompact, heightCompact
	if strings.EqualFold(opts.Preset, "roomy") {
		w, h = widthRoomy, heightRoomy
	}

	lo, hi, ok := opts.Table.ValueRange()
	if !ok {
		lo, hi = 0, 1
	}
	// Error bars can extend past the raw range.
	for _, agg := range opts.Aggregates {
		for j := range agg.Mean {
			if b := agg.Mean[j] - agg.ErrorBottom[j]; !math.IsNaN(b) && b < lo {
				lo = b
			}
			if t := agg.Mean[j] + agg.ErrorTop[j]; !math.IsNaN(t) && t > hi {
				hi = t
			}
		}
	}
	if hi == lo {
		hi = lo + 1
	}

	title := opts.Title
	if strings.TrimSpace(title) == "" {
		title = "Profile Plot"
	}

	layout := chartLayout{
		Width:      w,
		Height:     h,
		Left:       padding + 16,
		Right:      float64(w) - padding,
		Top:        padding + headerH,
		Bottom:     float64(h) - padding,
		LoY:        lo,
		HiY:        hi,
		Cols:       opts.Table.NumColumns(),
		Title:      title,
		Summary:    opts.Table.Summary(),
		TickLabels: opts.Table.TickLabels(),
	}
	for _, key := range sortedKeys(opts.Aggregates) {
		layout.LegendEntries = append(layout.LegendEntries, legendEntry{
			Key:   key,
			Label: opts.Table.GroupName(key),
			N:     opts.Aggregates[key].N,
		})
	}
	return layout
}

// px maps a column position (1..M) to an x pixel.
func (l chartLayout) px(col int) float64 {
	if l.Cols <= 1 {
		return (l.Left + l.Right) / 2
	}
	return l.Left + (l.Right-l.Left)*float64(col)/float64(l.Cols-1)
}

// py maps a value to a y pixel (inverted axis).
func (l chartLayout) py(v float64) float64 {
	return l.Bottom - (l.Bottom-l.Top)*(v-l.LoY)/(l.HiY-l.LoY)
}

// segments splits a value series into contiguous non-NaN pixel runs, the
// gap behavior for all-NaN columns.
func (l chartLayout) segments(values []float64) [][]model.Point {
	var runs [][]model.Point
	var run []model.Point
	for j, v := range values {
		if math.IsNaN(v) {
			if len(run) > 0 {
				runs = append(runs, run)
				run = nil
			}
			continue
		}
		run = append(run, model.Point{X: l.px(j), Y: l.py(v)})
	}
	if len(run) > 0 {
		runs = append(runs, run)
	}
	return runs
}

func sortedKeys(aggs map[int]stats.GroupAggregate) []int {
	keys := make([]int, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// --- palette ---------------------------------------------------------------

var groupPalette = []color.RGBA{
	{0x1f, 0x77, 0xb4, 0xff},
	{0xff, 0x7f, 0x0e, 0xff},
	{0x2c, 0xa0, 0x2c, 0xff},
	{0xd6, 0x27, 0x28, 0xff},
	{0x94, 0x67, 0xbd, 0xff},
	{0x8c, 0x56, 0x4b, 0xff},
	{0xe3, 0x77, 0xc2, 0xff},
	{0x7f, 0x7f, 0x7f, 0xff},
}

var (
	colorBackdrop = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorAxis     = color.RGBA{0x55, 0x55, 0x55, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorNeutral  = color.RGBA{0x77, 0x77, 0x77, 0xff}
)

// groupColor returns the palette color for a group key; ungrouped data
// (key 0 with no group variable) gets the neutral gray the original
// widget used.
func groupColor(t *model.Table, key int) color.RGBA {
	if t == nil || t.GroupVar == "" {
		return colorNeutral
	}
	if key < 0 {
		return colorNeutral
	}
	return groupPalette[key%len(groupPalette)]
}

// tierStyle maps a visibility tier to stroke width and alpha, the
// renderer half of the three-tier contract.
func tierStyle(tier visibility.Tier) (width float64, alpha uint8) {
	switch tier {
	case visibility.TierEmphasized:
		return 2.4, 0xaa
	case visibility.TierDimmed:
		return 1.0, 0x32
	default:
		return 1.0, 0x64
	}
}

func withAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

// --- PNG -------------------------------------------------------------------

func renderChartPNG(opts ChartSnapshotOptions, layout chartLayout) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 12, float64(layout.Width)-32, 48, 8)
	dc.Fill()
	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Title, 32, 30, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(layout.Summary, 32, 48, 0, 0.5)

	// axes
	dc.SetColor(colorAxis)
	dc.SetLineWidth(1)
	dc.DrawLine(layout.Left, layout.Bottom, layout.Right, layout.Bottom)
	dc.DrawLine(layout.Left, layout.Top, layout.Left, layout.Bottom)
	dc.Stroke()
	for j, label := range layout.TickLabels {
		x := layout.px(j)
		dc.DrawLine(x, layout.Bottom, x, layout.Bottom+4)
		dc.Stroke()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(truncateLabel(label, 10), x, layout.Bottom+14, 0.5, 0.5)
		dc.SetColor(colorAxis)
	}

	// range bands first so lines draw on top
	for _, entry := range layout.LegendEntries {
		agg := opts.Aggregates[entry.Key]
		gs, ok := opts.Visibility.Groups[entry.Key]
		if !ok || !gs.RangeVisible {
			continue
		}
		fill := withAlpha(groupColor(opts.Table, entry.Key), 0x20)
		drawBandPNG(dc, layout, agg, fill)
	}

	// individual profiles
	for i, p := range opts.Table.Rows {
		if i >= len(opts.Visibility.Profiles) || !opts.Visibility.Profiles[i].Visible {
			continue
		}
		width, alpha := tierStyle(opts.Visibility.Profiles[i].Tier)
		dc.SetColor(withAlpha(groupColor(opts.Table, p.Group), alpha))
		dc.SetLineWidth(width)
		for _, run := range layout.segments(p.Values) {
			strokeRunPNG(dc, run)
		}
	}

	// group means and error bars
	for _, entry := range layout.LegendEntries {
		agg := opts.Aggregates[entry.Key]
		gs, ok := opts.Visibility.Groups[entry.Key]
		if !ok {
			continue
		}
		c := groupColor(opts.Table, entry.Key)
		if gs.MeanVisible {
			dc.SetColor(withAlpha(c, 0xe6))
			dc.SetLineWidth(3)
			for _, run := range layout.segments(agg.Mean) {
				strokeRunPNG(dc, run)
			}
		}
		if gs.ErrorVisible {
			dc.SetColor(withAlpha(c, 0xcc))
			dc.SetLineWidth(1.2)
			for j := range agg.Mean {
				drawWhiskerPNG(dc, layout, j, agg)
			}
		}
	}

	drawLegendPNG(dc, opts, layout)
	return dc.SavePNG(opts.Path)
}

func strokeRunPNG(dc *gg.Context, run []model.Point) {
	if len(run) < 2 {
		return
	}
	dc.MoveTo(run[0].X, run[0].Y)
	for _, pt := range run[1:] {
		dc.LineTo(pt.X, pt.Y)
	}
	dc.Stroke()
}

func drawBandPNG(dc *gg.Context, layout chartLayout, agg stats.GroupAggregate, fill color.RGBA) {
	runs := bandRuns(layout, agg)
	dc.SetColor(fill)
	for _, run := range runs {
		if len(run) < 3 {
			continue
		}
		dc.NewSubPath()
		dc.MoveTo(run[0].X, run[0].Y)
		for _, pt := range run[1:] {
			dc.LineTo(pt.X, pt.Y)
		}
		dc.ClosePath()
		dc.Fill()
	}
}

func drawWhiskerPNG(dc *gg.Context, layout chartLayout, j int, agg stats.GroupAggregate) {
	mean := agg.Mean[j]
	if math.IsNaN(mean) {
		return
	}
	x := layout.px(j)
	top := layout.py(mean + agg.ErrorTop[j])
	bottom := layout.py(mean - agg.ErrorBottom[j])
	beam := (layout.Right - layout.Left) * 0.005
	dc.DrawLine(x, top, x, bottom)
	dc.DrawLine(x-beam, top, x+beam, top)
	dc.DrawLine(x-beam, bottom, x+beam, bottom)
	dc.Stroke()
}

func drawLegendPNG(dc *gg.Context, opts ChartSnapshotOptions, layout chartLayout) {
	if opts.Table.GroupVar == "" || len(layout.LegendEntries) == 0 {
		return
	}
	x := layout.Right - 170
	y := layout.Top + 8
	for _, entry := range layout.LegendEntries {
		dc.SetColor(groupColor(opts.Table, entry.Key))
		dc.DrawRectangle(x, y-5, 10, 10)
		dc.Fill()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(fmt.Sprintf("%s (n=%d)", truncateLabel(entry.Label, 16), entry.N), x+16, y, 0, 0.5)
		y += 16
	}
}

// bandRuns builds one closed polygon per contiguous non-NaN run: the max
// curve forward, then the min curve backward.
func bandRuns(layout chartLayout, agg stats.GroupAggregate) [][]model.Point {
	var runs [][]model.Point
	var top, bottom []model.Point
	flush := func() {
		if len(top) >= 2 {
			poly := make([]model.Point, 0, len(top)+len(bottom))
			poly = append(poly, top...)
			for i := len(bottom) - 1; i >= 0; i-- {
				poly = append(poly, bottom[i])
			}
			runs = append(runs, poly)
		}
		top, bottom = nil, nil
	}
	for j := range agg.RangeMax {
		if math.IsNaN(agg.RangeMax[j]) || math.IsNaN(agg.RangeMin[j]) {
			flush()
			continue
		}
		x := layout.px(j)
		top = append(top, model.Point{X: x, Y: layout.py(agg.RangeMax[j])})
		bottom = append(bottom, model.Point{X: x, Y: layout.py(agg.RangeMin[j])})
	}
	flush()
	return runs
}

// --- SVG -------------------------------------------------------------------

func renderChartSVG(opts ChartSnapshotOptions, layout chartLayout) error {
	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	canvas := svg.New(file)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", cssColor(colorBackdrop)))
	canvas.Roundrect(16, 12, layout.Width-32, 48, 8, 8, fmt.Sprintf("fill:%s", cssColor(colorHeaderBG)))
	canvas.Text(32, 34, layout.Title, fmt.Sprintf("fill:%s;font-size:15px;font-family:monospace;font-weight:bold", cssColor(colorText)))
	canvas.Text(32, 52, layout.Summary, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", cssColor(colorSubtle)))

	axisStyle := fmt.Sprintf("stroke:%s;stroke-width:1", cssColor(colorAxis))
	canvas.Line(int(layout.Left), int(layout.Bottom), int(layout.Right), int(layout.Bottom), axisStyle)
	canvas.Line(int(layout.Left), int(layout.Top), int(layout.Left), int(layout.Bottom), axisStyle)
	for j, label := range layout.TickLabels {
		x := int(layout.px(j))
		canvas.Line(x, int(layout.Bottom), x, int(layout.Bottom)+4, axisStyle)
		canvas.Text(x, int(layout.Bottom)+18, truncateLabel(label, 10),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", cssColor(colorSubtle)))
	}

	for _, entry := range layout.LegendEntries {
		agg := opts.Aggregates[entry.Key]
		gs, ok := opts.Visibility.Groups[entry.Key]
		if !ok || !gs.RangeVisible {
			continue
		}
		c := groupColor(opts.Table, entry.Key)
		for _, run := range bandRuns(layout, agg) {
			if len(run) < 3 {
				continue
			}
			xs := make([]int, len(run))
			ys := make([]int, len(run))
			for i, pt := range run {
				xs[i], ys[i] = int(pt.X), int(pt.Y)
			}
			canvas.Polygon(xs, ys, fmt.Sprintf("fill:%s;fill-opacity:0.12", cssColor(c)))
		}
	}

	for i, p := range opts.Table.Rows {
		if i >= len(opts.Visibility.Profiles) || !opts.Visibility.Profiles[i].Visible {
			continue
		}
		width, alpha := tierStyle(opts.Visibility.Profiles[i].Tier)
		c := groupColor(opts.Table, p.Group)
		style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.1f;stroke-opacity:%.2f",
			cssColor(c), width, float64(alpha)/255)
		for _, run := range layout.segments(p.Values) {
			drawPolylineSVG(canvas, run, style)
		}
	}

	for _, entry := range layout.LegendEntries {
		agg := opts.Aggregates[entry.Key]
		gs, ok := opts.Visibility.Groups[entry.Key]
		if !ok {
			continue
		}
		c := groupColor(opts.Table, entry.Key)
		if gs.MeanVisible {
			style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:3;stroke-opacity:0.9", cssColor(c))
			for _, run := range layout.segments(agg.Mean) {
				drawPolylineSVG(canvas, run, style)
			}
		}
		if gs.ErrorVisible {
			style := fmt.Sprintf("stroke:%s;stroke-width:1.2;stroke-opacity:0.8", cssColor(c))
			beam := int((layout.Right - layout.Left) * 0.005)
			for j := range agg.Mean {
				if math.IsNaN(agg.Mean[j]) {
					continue
				}
				x := int(layout.px(j))
				top := int(layout.py(agg.Mean[j] + agg.ErrorTop[j]))
				bottom := int(layout.py(agg.Mean[j] - agg.ErrorBottom[j]))
				canvas.Line(x, top, x, bottom, style)
				canvas.Line(x-beam, top, x+beam, top, style)
				canvas.Line(x-beam, bottom, x+beam, bottom, style)
			}
		}
	}

	if opts.Table.GroupVar != "" {
		y := int(layout.Top) + 8
		x := int(layout.Right) - 170
		for _, entry := range layout.LegendEntries {
			c := groupColor(opts.Table, entry.Key)
			canvas.Rect(x, y-5, 10, 10, fmt.Sprintf("fill:%s", cssColor(c)))
			canvas.Text(x+16, y+4, fmt.Sprintf("%s (n=%d)", truncateLabel(entry.Label, 16), entry.N),
				fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", cssColor(colorSubtle)))
			y += 16
		}
	}

	canvas.End()
	return nil
}

func drawPolylineSVG(canvas *svg.SVG, run []model.Point, style string) {
	if len(run) < 2 {
		return
	}
	xs := make([]int, len(run))
	ys := make([]int, len(run))
	for i, pt := range run {
		xs[i], ys[i] = int(pt.X), int(pt.Y)
	}
	canvas.Polyline(xs, ys, style)
}

// --- helpers ---------------------------------------------------------------

func truncateLabel(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func cssColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
