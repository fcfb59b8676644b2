package cli

import (
	"io"
	"testing"

	"github.com/matzehuels/flowsankey/pkg/config"
)

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "", defaultBase},
		{"", "data/pnl.yaml", "data/pnl"},
		{"out/report.svg", "", "out/report"},
		{"out/report.png", "data/pnl.tsv", "out/report"},
		{"out/report", "", "out/report"},
		{"out/report.v2", "", "out/report.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name         string
		base, output string
		format       string
		count        int
		want         string
	}{
		{"single explicit", "out/report", "out/report.svg", "svg", 1, "out/report.svg"},
		{"single explicit other ext", "out/report", "out/diagram.img", "png", 1, "out/diagram.img"},
		{"multiple formats", "out/report", "out/report.svg", "png", 2, "out/report.png"},
		{"no output", "pnl", "", "json", 1, "pnl.json"},
		{"output without ext", "out/report", "out/report", "svg", 1, "out/report.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.base, tt.output, tt.format, tt.count); got != tt.want {
				t.Errorf("outputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyRenderConfig(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Render = config.Render{
		Formats:  []string{"svg", "png"},
		Scale:    3,
		Language: "en",
		Output:   "out/report",
		NoCache:  true,
	}

	cmd := c.renderCommand()
	if err := cmd.ParseFlags([]string{"--scale", "1.5"}); err != nil {
		t.Fatal(err)
	}
	opts := renderOpts{scale: 1.5, language: "ru"}
	c.applyRenderConfig(cmd, &opts)

	if opts.formats != "svg,png" {
		t.Errorf("formats = %q, want svg,png", opts.formats)
	}
	if opts.scale != 1.5 {
		t.Errorf("scale = %g, want the flag value 1.5", opts.scale)
	}
	if opts.language != "en" || opts.output != "out/report" || !opts.noCache {
		t.Errorf("config not applied: %+v", opts)
	}
}
