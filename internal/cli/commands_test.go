package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/override"
)

// testEnv isolates config, state and cache directories for one test.
type testEnv struct {
	t   *testing.T
	dir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return &testEnv{t: t, dir: dir}
}

// run executes one command line and returns what it printed.
func (e *testEnv) run(args ...string) (string, error) {
	return e.runWithStdin("", args...)
}

func (e *testEnv) runWithStdin(in string, args ...string) (string, error) {
	e.t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	defer func() { stdout = old }()

	c := New(io.Discard, LogInfo)
	c.stdin = strings.NewReader(in)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("%s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (e *testEnv) write(name, content string) string {
	e.t.Helper()
	p := filepath.Join(e.dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		e.t.Fatal(err)
	}
	return p
}

func (e *testEnv) settings() override.ReportSettings {
	e.t.Helper()
	out := e.mustRun("state", "show", "--json")
	s, _, err := override.DecodeSettings([]byte(out))
	if err != nil {
		e.t.Fatalf("decode settings: %v\n%s", err, out)
	}
	return s
}

const balancedTSV = "Source\tTarget\tCurrent\tPrevious\n" +
	"Выручка\tВаловая прибыль\t600\t500\n" +
	"Выручка\tСебестоимость\t400\t350\n" +
	"Валовая прибыль\tEBITDA\t600\t500\n"

func TestRows_SampleStatement(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun("rows")
	if !strings.Contains(out, "Выручка") || !strings.Contains(out, "Sample statement") {
		t.Errorf("rows output missing sample data:\n%s", out)
	}
}

func TestImportAndExport(t *testing.T) {
	e := newTestEnv(t)
	src := e.write("pnl.tsv", balancedTSV)

	out := e.mustRun("import", src)
	if !strings.Contains(out, "Imported 3 rows") {
		t.Errorf("import output:\n%s", out)
	}

	out = e.mustRun("rows", "--json")
	var rows []flow.Row
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("rows --json: %v\n%s", err, out)
	}
	if len(rows) != 3 || rows[2].Target != "EBITDA" {
		t.Errorf("stored rows = %+v", rows)
	}

	exported := filepath.Join(e.dir, "out.yaml")
	e.mustRun("rows", "-o", exported)
	data, err := os.ReadFile(exported)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Себестоимость") {
		t.Errorf("export missing rows:\n%s", data)
	}
}

func TestImport_StdinAppend(t *testing.T) {
	e := newTestEnv(t)

	// Appending to the sample statement replaces it.
	if _, err := e.runWithStdin("A\tB\t1\t1\n", "import", "-", "--append"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.runWithStdin("B\tC\t1\t1\n", "import", "-", "--append"); err != nil {
		t.Fatal(err)
	}

	var rows []flow.Row
	if err := json.Unmarshal([]byte(e.mustRun("rows", "--json")), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("rows after append = %d, want 2", len(rows))
	}
}

func TestImport_Empty(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.runWithStdin("\n\n", "import", "-")
	if !ferrors.Is(err, ferrors.ErrCodeInvalidRows) {
		t.Errorf("import of empty stdin = %v, want INVALID_ROWS", err)
	}
}

func TestCheck(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun("check", e.write("ok.tsv", balancedTSV))
	if !strings.Contains(out, "Balanced") {
		t.Errorf("check output:\n%s", out)
	}

	bad := e.write("bad.tsv", "A\tB\t10\t0\nB\tC\t4\t0\n")
	out, err := e.run("check", "--strict", bad)
	if !ferrors.Is(err, ferrors.ErrCodeInvalidRows) {
		t.Errorf("check --strict = %v, want INVALID_ROWS", err)
	}
	if !strings.Contains(out, "imbalanced") {
		t.Errorf("check output does not name the imbalance:\n%s", out)
	}

	out = e.mustRun("check", "--json", bad)
	var report struct {
		Nodes []struct {
			Name       string `json:"name"`
			Imbalanced bool   `json:"imbalanced"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("check --json: %v\n%s", err, out)
	}
	found := false
	for _, n := range report.Nodes {
		if n.Name == "B" && n.Imbalanced {
			found = true
		}
	}
	if !found {
		t.Errorf("B not reported imbalanced: %+v", report.Nodes)
	}
}

func TestRender(t *testing.T) {
	e := newTestEnv(t)
	out := filepath.Join(e.dir, "out", "report.svg")

	e.mustRun("render", "-o", out)
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("render did not write %s: %v", out, err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("output is not SVG")
	}

	base := filepath.Join(e.dir, "multi", "pnl")
	e.mustRun("render", "-f", "svg,json", "-o", base, "--no-cache")
	for _, ext := range []string{".svg", ".json"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("missing %s: %v", base+ext, err)
		}
	}
}

func TestRender_Strict(t *testing.T) {
	e := newTestEnv(t)
	bad := e.write("bad.tsv", "A\tB\t10\t0\nB\tC\t4\t0\n")
	_, err := e.run("render", bad, "-o", filepath.Join(e.dir, "bad.svg"), "--strict")
	if !ferrors.Is(err, ferrors.ErrCodeInvalidRows) {
		t.Errorf("render --strict = %v, want INVALID_ROWS", err)
	}
}

func TestRender_InvalidFormat(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run("render", "-f", "pdf")
	if !ferrors.Is(err, ferrors.ErrCodeInvalidFormat) {
		t.Errorf("render -f pdf = %v, want INVALID_FORMAT", err)
	}
}

func TestNodeCommands(t *testing.T) {
	e := newTestEnv(t)

	e.mustRun("node", "set", "EBITDA", "--color", "#ff0000", "--offset-y", "-20", "--link-priority")
	s := e.settings()
	n := s.Node("EBITDA")
	if !strings.EqualFold(n.Color, "#ff0000") || n.OffsetY != -20 || !n.LinkColorPriority {
		t.Errorf("EBITDA settings = %+v", n)
	}

	e.mustRun("node", "set", "EBITDA", "--offset-x", "5")
	if n := e.settings().Node("EBITDA"); n.OffsetX != 5 || n.OffsetY != -20 {
		t.Errorf("offset-x alone changed offset-y: %+v", n)
	}

	e.mustRun("node", "reset", "EBITDA")
	n = e.settings().Node("EBITDA")
	if n.OffsetX != 0 || n.OffsetY != 0 {
		t.Errorf("offset after reset = %g, %g", n.OffsetX, n.OffsetY)
	}
	if !strings.EqualFold(n.Color, "#ff0000") {
		t.Error("reset cleared the color")
	}

	out := e.mustRun("node", "ls")
	if !strings.Contains(out, "EBITDA") {
		t.Errorf("node ls:\n%s", out)
	}
}

func TestNodeMove_RestoresOrder(t *testing.T) {
	e := newTestEnv(t)

	e.mustRun("node", "move", "Себестоимость", "up")
	e.mustRun("node", "move", "Себестоимость", "down")
	first := e.settings().Node("Выручка").ChildrenOrder

	e.mustRun("node", "move", "Себестоимость", "up")
	e.mustRun("node", "move", "Себестоимость", "down")
	second := e.settings().Node("Выручка").ChildrenOrder

	if len(first) != len(second) {
		t.Fatalf("children order changed size: %v vs %v", first, second)
	}
	for k, v := range first {
		if second[k] != v {
			t.Errorf("rank of %q = %g, want %g", k, second[k], v)
		}
	}
}

func TestNodeErrors(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.run("node", "set", "EBIDTA", "--color", "#000000")
	if !ferrors.Is(err, ferrors.ErrCodeNodeNotFound) {
		t.Fatalf("unknown node = %v, want NODE_NOT_FOUND", err)
	}
	if !strings.Contains(err.Error(), `"EBITDA"`) {
		t.Errorf("no suggestion in %q", err)
	}

	if _, err := e.run("node", "set", "EBITDA", "--color", "notacolor"); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("bad color = %v, want INVALID_INPUT", err)
	}
	if _, err := e.run("node", "set", "EBITDA"); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("no flags = %v, want INVALID_INPUT", err)
	}
	if _, err := e.run("node", "move", "EBITDA", "sideways"); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("bad direction = %v, want INVALID_INPUT", err)
	}
}

func TestImageCommands(t *testing.T) {
	e := newTestEnv(t)

	e.mustRun("image", "add", "https://example.com/a.png", "--id", "img1", "--x", "10", "--y", "20", "--width", "10")
	s := e.settings()
	img, ok := s.Image("img1")
	if !ok {
		t.Fatal("image not stored")
	}
	if img.X != 10 || img.Y != 20 || img.Width < 30 {
		t.Errorf("image = %+v; size must be raised to the minimum", img)
	}

	out := e.mustRun("image", "ls")
	if !strings.Contains(out, "img1") {
		t.Errorf("image ls:\n%s", out)
	}

	e.mustRun("image", "rm", "img1")
	if _, err := e.run("image", "rm", "img1"); !ferrors.Is(err, ferrors.ErrCodeImageNotFound) {
		t.Errorf("second rm = %v, want IMAGE_NOT_FOUND", err)
	}

	if _, err := e.run("image", "add", "ftp://example.com/a.png"); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("ftp source = %v, want INVALID_INPUT", err)
	}

	e.mustRun("image", "logo", "https://example.com/logo.png", "--height", "32")
	if logo := e.settings().Logo; logo == nil || logo.Height != 32 {
		t.Errorf("logo = %+v", logo)
	}
	e.mustRun("image", "logo", "--rm")
	if logo := e.settings().Logo; logo != nil {
		t.Errorf("logo after --rm = %+v", logo)
	}
}

func TestStateCommands(t *testing.T) {
	e := newTestEnv(t)

	e.mustRun("state", "set", "--title", "P&L 2024", "--unit", "k€", "--align", "justify")
	s := e.settings()
	if s.Title != "P&L 2024" || s.Unit != "k€" || string(s.Align) != "justify" {
		t.Errorf("settings = title %q unit %q align %q", s.Title, s.Unit, s.Align)
	}

	e.mustRun("state", "set", "--subtitle", "FY")
	if s := e.settings(); s.Title != "P&L 2024" || s.Subtitle != "FY" {
		t.Errorf("subtitle change lost the title: %q / %q", s.Title, s.Subtitle)
	}

	out := e.mustRun("state", "show")
	if !strings.Contains(out, "P&L 2024") {
		t.Errorf("state show:\n%s", out)
	}

	if _, err := e.run("state", "set", "--align", "diagonal"); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("bad align = %v, want INVALID_INPUT", err)
	}
	if _, err := e.run("state", "set", "--link-scale", "-1"); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("bad link scale = %v, want INVALID_INPUT", err)
	}

	e.mustRun("state", "reset")
	if s := e.settings(); s.Title == "P&L 2024" {
		t.Error("state reset kept the title")
	}

	out = e.mustRun("state", "path")
	if !strings.Contains(out, filepath.Join("flowsankey", "state")) {
		t.Errorf("state path = %q", out)
	}
}

func TestSQLiteBackend(t *testing.T) {
	e := newTestEnv(t)
	db := filepath.Join(e.dir, "report.db")
	cfg := e.write("config.toml", "[store]\nbackend = \"sqlite\"\npath = \""+filepath.ToSlash(db)+"\"\n")

	e.mustRun("--config", cfg, "state", "set", "--title", "Stored in SQLite")
	out := e.mustRun("--config", cfg, "state", "show")
	if !strings.Contains(out, "Stored in SQLite") {
		t.Errorf("sqlite state show:\n%s", out)
	}
	if _, err := os.Stat(db); err != nil {
		t.Errorf("database not created: %v", err)
	}
}

func TestGraphCommand(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun("graph", "--values")
	if !strings.Contains(out, "digraph") || !strings.Contains(out, "EBITDA") {
		t.Errorf("graph output:\n%s", out)
	}
}

func TestConfigCommands(t *testing.T) {
	e := newTestEnv(t)

	e.mustRun("config", "init")
	path := strings.TrimSpace(e.mustRun("config", "path"))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config init did not write %s: %v", path, err)
	}
	if _, err := e.run("config", "init"); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("second init = %v, want INVALID_INPUT", err)
	}
	e.mustRun("config", "init", "--force")

	out := e.mustRun("config", "show")
	if !strings.Contains(out, "[render]") || !strings.Contains(out, "[server]") {
		t.Errorf("config show:\n%s", out)
	}
}

func TestConfig_Invalid(t *testing.T) {
	e := newTestEnv(t)
	cfg := e.write("bad.toml", "[render]\nscale = 99\n")
	if _, err := e.run("--config", cfg, "rows"); !ferrors.Is(err, ferrors.ErrCodeInvalidConfig) {
		t.Errorf("invalid config = %v, want INVALID_CONFIG", err)
	}
}

func TestCacheCommands(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun("render", "-o", filepath.Join(e.dir, "a.svg"))

	out := e.mustRun("cache", "path")
	if !strings.Contains(out, filepath.Join("cache", appName)) {
		t.Errorf("cache path = %q", out)
	}
	out = e.mustRun("cache", "clear")
	if !strings.Contains(out, "Cleared") {
		t.Errorf("cache clear:\n%s", out)
	}
}

func TestEdit_RequiresTerminal(t *testing.T) {
	if isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		t.Skip("running in a terminal")
	}
	e := newTestEnv(t)
	if _, err := e.run("edit");!ferrors.Is(err, ferrors.ErrCodeUnsupported) {
		t.Errorf("edit without a terminal = %v, want UNSUPPORTED", err)
	}
}
