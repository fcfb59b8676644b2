package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowsankey/pkg/interact"
	"github.com/matzehuels/flowsankey/pkg/override"
)

// nudgeStep is the distance, in canvas pixels, of one nudge key press.
const nudgeStep = 10.0

// editorPalette is cycled by the color key. The empty entry clears the
// node's color.
var editorPalette = []string{"", "#16a34a", "#dc2626", "#2563eb", "#f59e0b", "#7c3aed", "#0d9488", "#64748b"}

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	statusErrStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Key Bindings
// =============================================================================

type editorKeyMap struct {
	Up, Down           key.Binding
	SiblingUp          key.Binding
	SiblingDown        key.Binding
	NudgeLeft          key.Binding
	NudgeRight         key.Binding
	NudgeUp, NudgeDown key.Binding
	Reset              key.Binding
	Color              key.Binding
	Priority           key.Binding
	Bigger, Smaller    key.Binding
	Tab                key.Binding
	Delete             key.Binding
	Help               key.Binding
	Quit               key.Binding
}

var editorKeys = editorKeyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "select prev")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "select next")),
	SiblingUp:   key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "move up")),
	SiblingDown: key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "move down")),
	NudgeLeft:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "nudge left")),
	NudgeRight:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "nudge right")),
	NudgeUp:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "nudge up")),
	NudgeDown:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "nudge down")),
	Reset:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset position")),
	Color:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cycle color")),
	Priority:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "link color priority")),
	Bigger:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "larger label")),
	Smaller:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "smaller label")),
	Tab:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "nodes/images")),
	Delete:      key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete image")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
}

func (k editorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.SiblingUp, k.SiblingDown, k.Tab, k.Help, k.Quit}
}

func (k editorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Tab},
		{k.SiblingUp, k.SiblingDown, k.Reset},
		{k.NudgeUp, k.NudgeDown, k.NudgeLeft, k.NudgeRight},
		{k.Color, k.Priority, k.Bigger, k.Smaller},
		{k.Delete, k.Help, k.Quit},
	}
}

// =============================================================================
// EditorModel - Interactive diagram editor
// =============================================================================

type editorPane int

const (
	paneNodes editorPane = iota
	paneImages
)

// EditorModel is the bubbletea model of the diagram editor. It drives an
// interaction controller from the keyboard; every committed change goes
// through the controller's commit hook.
type EditorModel struct {
	ctrl   *interact.Controller
	pane   editorPane
	cursor int
	offset int
	height int

	help   help.Model
	status string
	err    error

	// saved reports the outcome of the last commit; nil when commits are
	// not persisted.
	saved *committer
}

// NewEditorModel creates an editor over ctrl with the first node selected.
// saved may be nil.
func NewEditorModel(ctrl *interact.Controller, saved *committer) EditorModel {
	m := EditorModel{ctrl: ctrl, height: 15, help: help.New(), saved: saved}
	m.selectCursor()
	return m
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(5, msg.Height-14)
		m.help.Width = msg.Width
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m EditorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status, m.err = "", nil
	k := editorKeys

	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, k.Tab):
		if m.pane == paneNodes && len(m.ctrl.Settings().Images) > 0 {
			m.pane = paneImages
		} else {
			m.pane = paneNodes
		}
		m.cursor, m.offset = 0, 0
		m.selectCursor()
	case key.Matches(msg, k.Up):
		m.moveCursor(-1)
	case key.Matches(msg, k.Down):
		m.moveCursor(1)
	case m.pane == paneImages:
		if key.Matches(msg, k.Delete) && m.ctrl.DeleteSelected() {
			m.status = "deleted image"
			m.cursor = min(m.cursor, max(0, m.count()-1))
			m.selectCursor()
		}
	default:
		m.handleNodeKey(msg)
	}
	if m.saved != nil {
		if err := m.saved.takeErr(); err != nil {
			m.err = err
		}
	}
	return m, nil
}

func (m *EditorModel) handleNodeKey(msg tea.KeyMsg) {
	k := editorKeys
	name, _ := m.ctrl.Selection()
	if name == "" {
		return
	}
	s := m.ctrl.Settings()
	ns := s.Node(name)

	var changed bool
	switch {
	case key.Matches(msg, k.SiblingUp):
		changed = m.ctrl.MoveSelected(override.Up)
		if changed {
			m.followSelection(name)
		}
	case key.Matches(msg, k.SiblingDown):
		changed = m.ctrl.MoveSelected(override.Down)
		if changed {
			m.followSelection(name)
		}
	case key.Matches(msg, k.NudgeLeft):
		changed = m.ctrl.Nudge(-nudgeStep, 0)
	case key.Matches(msg, k.NudgeRight):
		changed = m.ctrl.Nudge(nudgeStep, 0)
	case key.Matches(msg, k.NudgeUp):
		changed = m.ctrl.Nudge(0, -nudgeStep)
	case key.Matches(msg, k.NudgeDown):
		changed = m.ctrl.Nudge(0, nudgeStep)
	case key.Matches(msg, k.Reset):
		changed = m.ctrl.ResetSelected()
	case key.Matches(msg, k.Color):
		changed = m.ctrl.Apply(override.SetColor{Node: name, Color: nextColor(ns.Color)})
	case key.Matches(msg, k.Priority):
		changed = m.ctrl.Apply(override.SetLinkColorPriority{Node: name, Priority: !ns.LinkColorPriority})
	case key.Matches(msg, k.Bigger), key.Matches(msg, k.Smaller):
		size := ns.LabelSize
		if size == 0 {
			size = s.LabelSize
		}
		if key.Matches(msg, k.Bigger) {
			size++
		} else {
			size--
		}
		changed = size >= 6 && size <= 72 && m.ctrl.Apply(override.SetLabelSize{Node: name, Size: size})
	default:
		return
	}
	if changed {
		m.status = "updated " + name
	} else {
		m.status = "no change"
	}
}

// nextColor returns the palette entry after c.
func nextColor(c string) string {
	for i, p := range editorPalette {
		if strings.EqualFold(p, c) {
			return editorPalette[(i+1)%len(editorPalette)]
		}
	}
	return editorPalette[1]
}

func (m *EditorModel) count() int {
	if m.pane == paneImages {
		return len(m.ctrl.Settings().Images)
	}
	return m.ctrl.Graph().NodeCount()
}

func (m *EditorModel) moveCursor(delta int) {
	n := m.count()
	if n == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.scroll()
	m.selectCursor()
}

func (m *EditorModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

// selectCursor makes the entity under the cursor the controller's
// selection.
func (m *EditorModel) selectCursor() {
	if m.count() == 0 {
		m.ctrl.ClearSelection()
		return
	}
	if m.pane == paneImages {
		m.ctrl.SelectImage(m.ctrl.Settings().Images[m.cursor].ID)
		return
	}
	m.ctrl.Select(m.ctrl.Graph().Node(m.cursor).Name)
}

// followSelection keeps the cursor on name; the node list is in graph
// order, which reordering does not change.
func (m *EditorModel) followSelection(name string) {
	if i, ok := m.ctrl.Graph().Index(name); ok {
		m.cursor = i
		m.scroll()
	}
}

func (m EditorModel) View() string {
	var b strings.Builder

	s := m.ctrl.Settings()
	b.WriteString(StyleTitle.Render(s.Title))
	b.WriteString("\n")
	tabs := []string{"Nodes", "Images"}
	for i, t := range tabs {
		if editorPane(i) == m.pane {
			tabs[i] = listSelectedStyle.Render("[" + t + "]")
		} else {
			tabs[i] = listDimStyle.Render(" " + t + " ")
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	if m.pane == paneImages {
		b.WriteString(m.imagesView())
	} else {
		b.WriteString(m.nodesView())
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(statusErrStyle.Render(iconError + " " + m.err.Error()))
	case m.status != "":
		b.WriteString(listDimStyle.Render(iconInfo + " " + m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(editorKeys))
	return b.String()
}

func (m EditorModel) nodesView() string {
	g := m.ctrl.Graph()
	if g.NodeCount() == 0 {
		return listDimStyle.Render("No valid rows")
	}
	s := m.ctrl.Settings()
	l := m.ctrl.Layout()

	end := min(m.offset+m.height, g.NodeCount())
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		n := g.Node(i)
		ns := s.Node(n.Name)
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		swatch := "  "
		if ns.Color != "" {
			swatch = lipgloss.NewStyle().Background(lipgloss.Color(ns.Color)).Render("  ")
		}
		pos := ""
		if !l.Empty() {
			sg := override.Siblings(g, l, i)
			if len(sg.Members) > 1 {
				pos = fmt.Sprintf("%d/%d", sg.Position(i)+1, len(sg.Members))
			}
		}
		offset := ""
		if ns.OffsetX != 0 || ns.OffsetY != 0 {
			offset = fmt.Sprintf("%+g, %+g", ns.OffsetX, ns.OffsetY)
		}
		rows = append(rows, []string{cursor, swatch, n.Name, formatNumber(n.Value()), pos, offset})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Node", "Value", "Sibling", "Offset").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			if m.offset+row == m.cursor {
				return listSelectedStyle
			}
			return listNormalStyle
		})

	return t.Render() + "\n" + listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, g.NodeCount()))
}

func (m EditorModel) imagesView() string {
	imgs := m.ctrl.Settings().Images
	if len(imgs) == 0 {
		return listDimStyle.Render("No images; add one with `" + appName + " image add`")
	}
	var b strings.Builder
	for i, img := range imgs {
		line := fmt.Sprintf("%s  %g, %g  %g×%g", shortSrc(img.ID), img.X, img.Y, img.Width, img.Height)
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
