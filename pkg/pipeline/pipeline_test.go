package pipeline

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/flowsankey/pkg/cache"
	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/override"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"json", false},
		{"dot", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !ferrors.Is(err, ferrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v, want INVALID_FORMAT", tt.format, ferrors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	got := ParseFormats(" svg, PNG,,svg ,json")
	want := []string{"svg", "png", "json"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseFormats() = %v, want %v", got, want)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Rows: flow.SampleRows()}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if !reflect.DeepEqual(opts.Formats, []string{FormatSVG}) {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale = %v, want %v", opts.Scale, DefaultScale)
	}
	if opts.Settings == nil || opts.Settings.Width != override.Defaults().Width {
		t.Errorf("Settings = %+v, want defaults", opts.Settings)
	}
	if opts.Language != DefaultLanguage || opts.Logger == nil {
		t.Errorf("Language = %q, Logger = %v", opts.Language, opts.Logger)
	}
}

func TestOptionsValidate(t *testing.T) {
	bad := override.Defaults()
	bad.Width = 10

	tests := []struct {
		name string
		opts Options
		code ferrors.Code
	}{
		{"format", Options{Formats: []string{"gif"}}, ferrors.ErrCodeInvalidFormat},
		{"settings", Options{Settings: &bad}, ferrors.ErrCodeInvalidSettings},
		{"scale", Options{Scale: 10}, ferrors.ErrCodeInvalidInput},
		{"language", Options{Language: "not a tag!"}, ferrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !ferrors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestInputHash(t *testing.T) {
	rows := flow.SampleRows()
	a := Options{Rows: rows}
	b := Options{Rows: flow.EnsureIDs(stripIDs(rows))}
	for _, o := range []*Options{&a, &b} {
		if err := o.ValidateAndSetDefaults(); err != nil {
			t.Fatal(err)
		}
	}
	ha, _ := a.InputHash()
	hb, _ := b.InputHash()
	if ha != hb {
		t.Error("row IDs changed the input hash")
	}

	s := override.Defaults()
	s.Title = "Q3"
	c := Options{Rows: rows, Settings: &s}
	hc, _ := c.InputHash()
	if hc == ha {
		t.Error("settings did not change the input hash")
	}
}

func stripIDs(rows []flow.Row) []flow.Row {
	out := make([]flow.Row, len(rows))
	for i, r := range rows {
		r.ID = ""
		out[i] = r
	}
	return out
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(cache.NewMemoryCache(0), nil, nil)
	defer r.Close()

	opts := Options{Rows: flow.SampleRows(), Formats: []string{"svg", "json", "dot"}, Language: "en"}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(res.Artifacts) != 3 {
		t.Fatalf("artifacts = %d, want 3", len(res.Artifacts))
	}
	if !bytes.HasPrefix(res.Artifacts["svg"], []byte("<svg ")) {
		t.Error("svg artifact is not SVG")
	}
	if !bytes.HasPrefix(res.Artifacts["dot"], []byte("digraph G {")) {
		t.Error("dot artifact is not DOT")
	}
	if res.Stats.NodeCount != 10 || res.Stats.LinkCount != 9 {
		t.Errorf("stats = %+v, want 10 nodes and 9 links", res.Stats)
	}
	if res.CacheInfo.RenderHit || res.Scene == nil || !res.Balance.OK() {
		t.Errorf("first run: hit=%v scene=%v balanced=%v", res.CacheInfo.RenderHit, res.Scene != nil, res.Balance.OK())
	}

	again, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !again.CacheInfo.RenderHit {
		t.Error("second run did not hit the artifact cache")
	}
	if !bytes.Equal(again.Artifacts["svg"], res.Artifacts["svg"]) {
		t.Error("cached svg differs from rendered svg")
	}

	opts.Refresh = true
	fresh, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute() error: %v", err)
	}
	if fresh.CacheInfo.RenderHit || !fresh.CacheInfo.LayoutHit {
		t.Errorf("refresh: RenderHit=%v LayoutHit=%v, want false and true", fresh.CacheInfo.RenderHit, fresh.CacheInfo.LayoutHit)
	}
}

func TestRunnerExecute_Vocabulary(t *testing.T) {
	rows := []flow.Row{flow.NewRow("Umsatz", "Rohertrag", 10, 0)}
	r := NewRunner(nil, nil, nil)

	res, err := r.Execute(context.Background(), Options{Rows: rows, Formats: []string{"dot"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Graph.Link(0).FlowType; got != flow.Expense {
		t.Errorf("default vocabulary flow = %s, want expense", got)
	}

	res, err = r.Execute(context.Background(), Options{
		Rows:       rows,
		Formats:    []string{"dot"},
		Vocabulary: &flow.Vocabulary{Income: []string{"umsatz"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Graph.Link(0).FlowType; got != flow.Revenue {
		t.Errorf("extended vocabulary flow = %s, want revenue", got)
	}
}

func TestRunnerExecute_Imbalanced(t *testing.T) {
	rows := []flow.Row{
		flow.NewRow("A", "B", 10, 0),
		flow.NewRow("B", "C", 4, 0),
	}
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{Rows: rows})
	if err != nil {
		t.Fatal(err)
	}
	if res.Balance.OK() {
		t.Error("imbalanced rows reported OK")
	}
	if len(res.Artifacts["svg"]) == 0 {
		t.Error("imbalanced rows should still render")
	}
}

func TestRunnerExecute_Empty(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Execute(empty) error: %v", err)
	}
	if !res.Scene.Empty() {
		t.Error("empty rows produced a diagram")
	}
	if !strings.Contains(string(res.Artifacts["svg"]), "</svg>") {
		t.Error("empty rows should still render a document")
	}
}

func TestRunnerExecute_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRunner(nil, nil, nil).Execute(ctx, Options{Rows: flow.SampleRows()}); err == nil {
		t.Error("Execute(canceled) succeeded")
	}
}
