// Package ui is the interactive rendering collaborator for the profile
// plot engine: a bubbletea viewer with a chart pane, per-group statistics
// and key-driven selection gestures. The engine owns all selection and
// aggregate state; the viewer only issues gestures and renders the
// settled snapshots it gets back.
package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/profileplot/internal/datasource"
	"github.com/vanderheijden86/profileplot/pkg/config"
	"github.com/vanderheijden86/profileplot/pkg/engine"
	"github.com/vanderheijden86/profileplot/pkg/model"
	"github.com/vanderheijden86/profileplot/pkg/selection"
	"github.com/vanderheijden86/profileplot/pkg/watcher"
)

// datasetChangedMsg signals that the watched dataset file changed.
type datasetChangedMsg struct{}

// Options configures the viewer.
type Options struct {
	Engine    *engine.Engine
	Dataset   *datasource.Dataset
	DataPath  string
	SubsetIDs []string
	Config    config.Config
	Watcher   *watcher.Watcher // optional, enables auto-reload
}

// Model is the bubbletea model for the viewer.
type Model struct {
	eng      *engine.Engine
	ds       *datasource.Dataset
	path     string
	subset   []string
	cfg      config.Config
	watch    *watcher.Watcher
	theme    Theme
	keys     keyMap
	stats    table.Model
	lasso    textinput.Model
	lassoOn  bool
	groupIdx int // index into ds.GroupCandidates, -1 = ungrouped

	width, height int
	cursor        int
	status        string
	showHelp      bool
}

// New builds the viewer model around an already loaded engine.
func New(opts Options) Model {
	theme := NewTheme(opts.Config.UI.Accent)

	ti := textinput.New()
	ti.Placeholder = "x1,y1 x2,y2"
	ti.CharLimit = 64
	ti.Width = 28

	st := table.New(
		table.WithColumns(statColumns()),
		table.WithHeight(6),
		table.WithFocused(false),
	)

	m := Model{
		eng:      opts.Engine,
		ds:       opts.Dataset,
		path:     opts.DataPath,
		subset:   opts.SubsetIDs,
		cfg:      opts.Config,
		watch:    opts.Watcher,
		theme:    theme,
		keys:     defaultKeyMap(),
		stats:    st,
		lasso:    ti,
		groupIdx: -1,
	}
	if opts.Dataset != nil && opts.Dataset.Table.GroupVar != "" {
		for i, gv := range opts.Dataset.GroupCandidates {
			if gv.Name == opts.Dataset.Table.GroupVar {
				m.groupIdx = i
			}
		}
	}
	m.refreshStats()
	m.status = m.summaryLine()
	return m
}

// Init starts the watcher wait loop when auto-reload is enabled.
func (m Model) Init() tea.Cmd {
	if m.watch != nil {
		return waitForChange(m.watch)
	}
	return nil
}

func waitForChange(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return datasetChangedMsg{}
	}
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case datasetChangedMsg:
		m.reload()
		return m, waitForChange(m.watch)

	case tea.KeyMsg:
		if m.lassoOn {
			return m.updateLasso(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateLasso(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		x1, y1, x2, y2, err := ParseCutSegment(m.lasso.Value())
		if err != nil {
			m.status = fmt.Sprintf("lasso: %v", err)
		} else {
			m.eng.Gesture(engine.Gesture{
				Kind:     engine.GestureLasso,
				P1:       model.Point{X: x1, Y: y1},
				P2:       model.Point{X: x2, Y: y2},
				Modifier: selection.Replace,
			})
			m.status = fmt.Sprintf("lasso selected %s", FormatIndices(m.eng.Selection()))
		}
		m.lassoOn = false
		m.lasso.Blur()
		m.lasso.SetValue("")
		return m, nil
	case "esc":
		m.lassoOn = false
		m.lasso.Blur()
		m.lasso.SetValue("")
		m.status = "lasso cancelled"
		return m, nil
	}
	var cmd tea.Cmd
	m.lasso, cmd = m.lasso.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.eng.Table().NumProfiles()
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.watch != nil {
			m.watch.Stop()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < n-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Select):
		m.click(selection.Replace)

	case key.Matches(msg, m.keys.Toggle):
		m.click(selection.Toggle)

	case key.Matches(msg, m.keys.Subtract):
		m.click(selection.Subtract)

	case key.Matches(msg, m.keys.Union):
		m.click(selection.Union)

	case key.Matches(msg, m.keys.Clear):
		m.eng.ClearSelection()
		m.status = "selection cleared"

	case key.Matches(msg, m.keys.Lasso):
		m.lassoOn = true
		m.lasso.Focus()
		m.status = "enter cut segment"

	case key.Matches(msg, m.keys.Mode):
		m.eng.CycleDisplayMode()
		m.status = fmt.Sprintf("display: %s", m.eng.Mode())
		m.refreshStats()

	case key.Matches(msg, m.keys.ErrorBars):
		m.eng.SetShowErrorBars(!m.eng.ShowErrorBars())
		if m.eng.ShowErrorBars() {
			m.status = "error bars on"
		} else {
			m.status = "error bars off"
		}

	case key.Matches(msg, m.keys.Group):
		m.cycleGroup()

	case key.Matches(msg, m.keys.Yank):
		m.yankSelection()

	case key.Matches(msg, m.keys.Reload):
		m.reload()
	}
	return m, nil
}

// click issues a click gesture on the cursor profile.
func (m *Model) click(mod selection.Modifier) {
	if m.eng.Table().NumProfiles() == 0 {
		return
	}
	m.eng.Gesture(engine.Gesture{
		Kind:     engine.GestureClick,
		Index:    m.cursor,
		Modifier: mod,
	})
	m.status = fmt.Sprintf("%s %d → selected %s", mod, m.cursor, FormatIndices(m.eng.Selection()))
}

// cycleGroup advances through none → candidate₀ → candidate₁ → … → none.
func (m *Model) cycleGroup() {
	if m.ds == nil || len(m.ds.GroupCandidates) == 0 {
		m.status = "no discrete columns to group by"
		return
	}
	m.groupIdx++
	if m.groupIdx >= len(m.ds.GroupCandidates) {
		m.groupIdx = -1
	}
	if m.groupIdx < 0 {
		_ = m.eng.Regroup("", nil, nil)
		m.status = "grouping: none"
	} else {
		gv := m.ds.GroupCandidates[m.groupIdx]
		_ = m.eng.Regroup(gv.Name, gv.Names, gv.Keys)
		m.status = fmt.Sprintf("grouping: %s", gv.Name)
	}
	m.refreshStats()
}

// yankSelection copies the selected row ids to the clipboard.
func (m *Model) yankSelection() {
	t := m.eng.Table()
	indices := m.eng.Selection()
	if len(indices) == 0 {
		m.status = "nothing selected"
		return
	}
	ids := make([]string, 0, len(indices))
	for _, idx := range indices {
		ids = append(ids, t.Rows[idx].RowID)
	}
	if err := clipboard.WriteAll(strings.Join(ids, "\n")); err != nil {
		m.status = fmt.Sprintf("clipboard: %v", err)
		return
	}
	m.status = fmt.Sprintf("yanked %d row ids", len(ids))
}

// reload re-reads the dataset from disk and feeds it to the engine,
// reapplying grouping and subset. The engine's load semantics clear the
// selection (the rows may be entirely different).
func (m *Model) reload() {
	if m.path == "" {
		return
	}
	groupName := ""
	if m.groupIdx >= 0 && m.ds != nil && m.groupIdx < len(m.ds.GroupCandidates) {
		groupName = m.ds.GroupCandidates[m.groupIdx].Name
	}
	ds, err := datasource.Load(m.path, datasource.LoadOptions{Group: groupName})
	if err != nil {
		m.status = fmt.Sprintf("reload: %v", err)
		return
	}
	m.ds = ds
	m.groupIdx = -1
	if groupName != "" {
		for i, gv := range ds.GroupCandidates {
			if gv.Name == groupName {
				m.groupIdx = i
			}
		}
	}
	if err := m.eng.Load(ds.Table); err != nil {
		m.status = fmt.Sprintf("reload: %v", err)
	} else {
		m.status = fmt.Sprintf("reloaded: %s", ds.Table.Summary())
	}
	m.eng.SetSubset(m.subset)
	if m.cursor >= ds.Table.NumProfiles() {
		m.cursor = 0
	}
	m.refreshStats()
}

func (m Model) summaryLine() string {
	t := m.eng.Table()
	if t == nil {
		return "no data on input"
	}
	return t.Summary()
}
