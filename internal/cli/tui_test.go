package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/interact"
	"github.com/matzehuels/flowsankey/pkg/override"
	"github.com/matzehuels/flowsankey/pkg/pipeline"
	"github.com/matzehuels/flowsankey/pkg/store"
)

func newTestEditor(t *testing.T, s override.ReportSettings) (EditorModel, *committer, *store.Port) {
	t.Helper()
	ctx := context.Background()
	port := store.NewPort(store.NewMemoryBlobs())
	saver := newCommitter(ctx, port, log.New(io.Discard))
	g := pipeline.BuildGraph(ctx, flow.SampleRows(), flow.NewClassifier(flow.DefaultVocabulary()))
	ctrl := interact.New(g, s, interact.WithCommitHook(saver.commit))
	return NewEditorModel(ctrl, saver), saver, port
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m EditorModel, msgs ...tea.Msg) EditorModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(EditorModel)
	}
	return m
}

func TestEditorModel_SelectsFirstNode(t *testing.T) {
	m, _, _ := newTestEditor(t, override.Defaults())
	name, _ := m.ctrl.Selection()
	if want := m.ctrl.Graph().Node(0).Name; name != want {
		t.Errorf("selection = %q, want %q", name, want)
	}
}

func TestEditorModel_CursorMovement(t *testing.T) {
	m, _, _ := newTestEditor(t, override.Defaults())

	m = press(m, tea.KeyMsg{Type: tea.KeyDown}, runeKey("j"))
	name, _ := m.ctrl.Selection()
	if want := m.ctrl.Graph().Node(2).Name; name != want {
		t.Errorf("after two downs selection = %q, want %q", name, want)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want clamped to 0", m.cursor)
	}

	n := m.ctrl.Graph().NodeCount()
	for i := 0; i < n+3; i++ {
		m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.cursor != n-1 {
		t.Errorf("cursor = %d, want clamped to %d", m.cursor, n-1)
	}
}

func TestEditorModel_NudgeCommits(t *testing.T) {
	m, saver, port := newTestEditor(t, override.Defaults())
	name, _ := m.ctrl.Selection()

	m = press(m, runeKey("d"))
	if off := m.ctrl.Settings().Node(name).OffsetX; off <= 0 {
		t.Fatalf("offset after nudge right = %g, want > 0", off)
	}
	if saver.count() != 1 {
		t.Errorf("saves = %d, want 1", saver.count())
	}

	st, err := port.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Settings.Node(name).OffsetX <= 0 {
		t.Error("nudge was not persisted")
	}

	m = press(m, runeKey("r"))
	if off := m.ctrl.Settings().Node(name).Offset(); off.X != 0 || off.Y != 0 {
		t.Errorf("offset after reset = %+v", off)
	}
	if !strings.Contains(m.status, "updated") {
		t.Errorf("status = %q", m.status)
	}
}

func TestEditorModel_ColorAndPriority(t *testing.T) {
	m, _, _ := newTestEditor(t, override.Defaults())
	name, _ := m.ctrl.Selection()

	m = press(m, runeKey("c"))
	if got := m.ctrl.Settings().Node(name).Color; !strings.EqualFold(got, editorPalette[1]) {
		t.Errorf("color = %q, want %q", got, editorPalette[1])
	}
	m = press(m, runeKey("p"))
	if !m.ctrl.Settings().Node(name).LinkColorPriority {
		t.Error("link color priority not set")
	}
	m = press(m, runeKey("p"))
	if m.ctrl.Settings().Node(name).LinkColorPriority {
		t.Error("link color priority not toggled off")
	}
}

func TestEditorModel_LabelSize(t *testing.T) {
	s := override.Defaults()
	m, _, _ := newTestEditor(t, s)
	name, _ := m.ctrl.Selection()

	m = press(m, runeKey("+"), runeKey("+"))
	if got := m.ctrl.Settings().Node(name).LabelSize; got != s.LabelSize+2 {
		t.Errorf("label size = %g, want %g", got, s.LabelSize+2)
	}
	m = press(m, runeKey("-"))
	if got := m.ctrl.Settings().Node(name).LabelSize; got != s.LabelSize+1 {
		t.Errorf("label size = %g, want %g", got, s.LabelSize+1)
	}
}

func TestEditorModel_ImagesPane(t *testing.T) {
	s := override.Defaults()
	s.Images = []override.PlacedImage{
		{ID: "a", Src: "a.png", Width: 40, Height: 40},
		{ID: "b", Src: "b.png", X: 100, Width: 40, Height: 40},
	}
	m, _, _ := newTestEditor(t, s)

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.pane != paneImages {
		t.Fatal("tab did not switch to images")
	}
	if _, img := m.ctrl.Selection(); img != "a" {
		t.Errorf("selected image = %q, want a", img)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyDown}, runeKey("x"))
	if got := len(m.ctrl.Settings().Images); got != 1 {
		t.Fatalf("images = %d, want 1", got)
	}
	if _, ok := m.ctrl.Settings().Image("b"); ok {
		t.Error("deleted the wrong image")
	}
	if _, img := m.ctrl.Selection(); img != "a" {
		t.Errorf("selection after delete = %q, want a", img)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.pane != paneNodes {
		t.Error("tab did not switch back to nodes")
	}
}

func TestEditorModel_TabWithoutImages(t *testing.T) {
	m, _, _ := newTestEditor(t, override.Defaults())
	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.pane != paneNodes {
		t.Error("switched to an empty images pane")
	}
}

func TestEditorModel_Quit(t *testing.T) {
	m, _, _ := newTestEditor(t, override.Defaults())
	_, cmd := m.Update(runeKey("q"))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit did not return tea.Quit")
	}
}

func TestEditorModel_View(t *testing.T) {
	s := override.Defaults()
	s.Title = "Quarterly P&L"
	m, _, _ := newTestEditor(t, s)
	m = press(m, tea.WindowSizeMsg{Width: 100, Height: 40})

	out := m.View()
	for _, want := range []string{"Quarterly P&L", "Выручка", "Nodes"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestNextColor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", editorPalette[1]},
		{editorPalette[1], editorPalette[2]},
		{strings.ToUpper(editorPalette[2]), editorPalette[3]},
		{editorPalette[len(editorPalette)-1], ""},
		{"#123456", editorPalette[1]},
	}
	for _, tt := range tests {
		if got := nextColor(tt.in); got != tt.want {
			t.Errorf("nextColor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommitter(t *testing.T) {
	ctx := context.Background()
	port := store.NewPort(store.NewMemoryBlobs())
	c := newCommitter(ctx, port, log.New(io.Discard))

	s := override.Defaults()
	s.Title = "first"
	c.commit(s)
	s.Title = "second"
	c.commit(s)

	if c.count() != 2 {
		t.Errorf("count = %d, want 2", c.count())
	}
	if err := c.takeErr(); err != nil {
		t.Errorf("takeErr = %v", err)
	}
	st, err := port.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Settings.Title != "second" {
		t.Errorf("stored title = %q", st.Settings.Title)
	}
}
