package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/profileplot/pkg/visibility"
)

const minChartWidth = 24

// View renders the whole viewer: header, chart pane, stats/selection
// sidebar and status line.
func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	header := m.theme.Header.Render("pplot") + "  " +
		m.theme.Status.Render(fmt.Sprintf("%s · %s · error bars %s",
			m.summaryLine(), m.eng.Mode(), onOff(m.eng.ShowErrorBars())))

	sideWidth := 38
	chartWidth := m.width - sideWidth - 6
	if chartWidth < minChartWidth {
		chartWidth = m.width - 4
		sideWidth = 0
	}
	bodyHeight := m.height - 5
	if bodyHeight < 6 {
		bodyHeight = 6
	}

	chart := m.theme.Pane.Render(
		m.theme.PaneTitle.Render("chart") + "\n" +
			m.renderChart(chartWidth, bodyHeight-2))

	var body string
	if sideWidth > 0 {
		side := lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Pane.Render(m.theme.PaneTitle.Render("groups")+"\n"+m.stats.View()),
			m.theme.Pane.Render(m.theme.PaneTitle.Render("profiles")+"\n"+m.renderProfileList(sideWidth-4, bodyHeight-12)),
		)
		body = lipgloss.JoinHorizontal(lipgloss.Top, chart, side)
	} else {
		body = chart
	}

	status := m.theme.Status.Render(Truncate(m.status, m.width-2))
	if m.lassoOn {
		status = "cut: " + m.lasso.View()
	}

	footer := m.theme.Help.Render("enter select · t toggle · u add · x remove · l lasso · c clear · m mode · e bars · g group · y yank · ? help · q quit")
	if m.showHelp {
		footer = m.renderHelp()
	}

	return strings.Join([]string{header, body, status, footer}, "\n")
}

// renderChart draws the profiles and group curves into a character grid.
// Emphasized curves draw last so they stay on top.
func (m Model) renderChart(width, height int) string {
	t := m.eng.Table()
	if t == nil || t.NumProfiles() == 0 || width < 8 || height < 3 {
		return m.theme.Dimmed.Render("no data")
	}
	lo, hi, ok := t.ValueRange()
	if !ok {
		return m.theme.Dimmed.Render("all values missing")
	}
	if hi == lo {
		hi = lo + 1
	}

	glyphs := make([][]string, height)
	for y := range glyphs {
		glyphs[y] = make([]string, width)
		for x := range glyphs[y] {
			glyphs[y][x] = " "
		}
	}

	cols := t.NumColumns()
	colX := func(j int) int {
		if cols <= 1 {
			return width / 2
		}
		return j * (width - 1) / (cols - 1)
	}
	rowY := func(v float64) int {
		y := int(math.Round(float64(height-1) * (hi - v) / (hi - lo)))
		if y < 0 {
			y = 0
		}
		if y >= height {
			y = height - 1
		}
		return y
	}

	vis := m.eng.Visibility()
	plot := func(values []float64, glyph string, style lipgloss.Style) {
		for j, v := range values {
			if math.IsNaN(v) {
				continue
			}
			glyphs[rowY(v)][colX(j)] = style.Render(glyph)
		}
	}

	// dimmed and plain first
	for _, tier := range []visibility.Tier{visibility.TierDimmed, visibility.TierPlain} {
		for i, p := range t.Rows {
			if i >= len(vis.Profiles) || !vis.Profiles[i].Visible || vis.Profiles[i].Tier != tier {
				continue
			}
			style := m.theme.Plain.Foreground(GroupColor(p.Group))
			if tier == visibility.TierDimmed {
				style = m.theme.Dimmed
			}
			plot(p.Values, "·", style)
		}
	}

	// group curves
	for _, key := range m.eng.GroupKeys() {
		agg, ok := m.eng.Aggregate(key)
		if !ok {
			continue
		}
		gs := vis.Groups[key]
		style := lipgloss.NewStyle().Foreground(GroupColor(key)).Bold(true)
		if gs.RangeVisible {
			band := lipgloss.NewStyle().Foreground(GroupColor(key)).Faint(true)
			plot(agg.RangeMin, "▁", band)
			plot(agg.RangeMax, "▔", band)
		}
		if gs.ErrorVisible {
			whisker := lipgloss.NewStyle().Foreground(GroupColor(key))
			for j := range agg.Mean {
				if math.IsNaN(agg.Mean[j]) {
					continue
				}
				plotOne := func(v float64) {
					glyphs[rowY(v)][colX(j)] = whisker.Render("┼")
				}
				plotOne(agg.Mean[j] + agg.ErrorTop[j])
				plotOne(agg.Mean[j] - agg.ErrorBottom[j])
			}
		}
		if gs.MeanVisible {
			plot(agg.Mean, "■", style)
		}
	}

	// emphasized profiles on top
	for i, p := range t.Rows {
		if i >= len(vis.Profiles) || !vis.Profiles[i].Visible || vis.Profiles[i].Tier != visibility.TierEmphasized {
			continue
		}
		plot(p.Values, "●", m.theme.Emphasized)
	}

	lines := make([]string, height)
	for y := range glyphs {
		lines[y] = strings.Join(glyphs[y], "")
	}
	return strings.Join(lines, "\n")
}

// renderProfileList renders a cursor-centred window over the profiles
// with their selection and subset markers.
func (m Model) renderProfileList(width, height int) string {
	t := m.eng.Table()
	if t == nil || t.NumProfiles() == 0 {
		return m.theme.Dimmed.Render("no profiles")
	}
	if height < 1 {
		height = 1
	}

	vis := m.eng.Visibility()
	start := m.cursor - height/2
	if start > t.NumProfiles()-height {
		start = t.NumProfiles() - height
	}
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for i := start; i < start+height && i < t.NumProfiles(); i++ {
		row := t.Rows[i]
		marker := " "
		style := m.theme.Plain
		if i < len(vis.Profiles) {
			switch vis.Profiles[i].Emphasis {
			case visibility.EmphasisSelected:
				marker, style = "●", m.theme.Emphasized
			case visibility.EmphasisInSubset:
				marker, style = "◆", m.theme.Emphasized
			case visibility.EmphasisBoth:
				marker, style = "◉", m.theme.Emphasized
			default:
				if vis.Profiles[i].Tier == visibility.TierDimmed {
					style = m.theme.Dimmed
				}
			}
		}
		line := fmt.Sprintf("%s %3d %s %s", marker, i, Truncate(row.RowID, width-14), t.GroupName(groupKeyOf(t.GroupVar, row.Group)))
		line = style.Render(Truncate(line, width))
		if i == m.cursor {
			line = m.theme.Cursor.Render(Truncate(fmt.Sprintf("%s %3d %s", marker, i, row.RowID), width))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func groupKeyOf(groupVar string, key int) int {
	if groupVar == "" {
		return 0
	}
	return key
}

func (m Model) renderHelp() string {
	lines := []string{
		"enter  select profile under cursor (replace)",
		"t/u/x  toggle / add / remove profile",
		"l      lasso: type a cut segment x1,y1 x2,y2",
		"c      clear selection",
		"m      cycle display mode",
		"e      toggle quartile error bars",
		"g      cycle grouping variable",
		"y      yank selected row ids to clipboard",
		"r      reload dataset from disk",
	}
	return m.theme.Help.Render(strings.Join(lines, "\n"))
}

// refreshStats rebuilds the per-group statistics table.
func (m *Model) refreshStats() {
	t := m.eng.Table()
	rows := []table.Row{}
	if t != nil {
		for _, key := range m.eng.GroupKeys() {
			agg, ok := m.eng.Aggregate(key)
			if !ok {
				continue // empty groups render nothing
			}
			rows = append(rows, table.Row{
				Truncate(t.GroupName(key), 10),
				fmt.Sprintf("%d", agg.N),
				FormatValue(meanOf(agg.Mean)),
				FormatValue(minOf(agg.RangeMin)),
				FormatValue(maxOf(agg.RangeMax)),
			})
		}
	}
	m.stats.SetRows(rows)
}

func statColumns() []table.Column {
	return []table.Column{
		{Title: "group", Width: 10},
		{Title: "n", Width: 4},
		{Title: "mean", Width: 7},
		{Title: "min", Width: 7},
		{Title: "max", Width: 7},
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func meanOf(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func minOf(values []float64) float64 {
	out := math.NaN()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(out) || v < out {
			out = v
		}
	}
	return out
}

func maxOf(values []float64) float64 {
	out := math.NaN()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(out) || v > out {
			out = v
		}
	}
	return out
}
