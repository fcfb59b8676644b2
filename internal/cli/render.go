package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/io"
	"github.com/matzehuels/flowsankey/pkg/override"
	"github.com/matzehuels/flowsankey/pkg/pipeline"
)

// defaultBase is the output base name when rows come from the store.
const defaultBase = appName

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string  // output file (single format) or base path (multiple)
	formats  string  // comma-separated formats
	scale    float64 // PNG pixel ratio
	language string  // number formatting locale
	noCache  bool    // skip the artifact cache
	refresh  bool    // recompute and overwrite cached artifacts
	strict   bool    // fail when the rows do not balance
}

// renderCommand creates the render command for drawing the diagram.
//
// Without a file argument the stored rows are drawn. The stored settings
// always apply. Flags override the [render] section of the config file.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [rows-file]",
		Short: "Render the diagram to SVG, PNG, JSON or DOT",
		Long: `Render the diagram to one or more files.

Rows are read from the given file (.json, .yaml, .tsv) or, without an
argument, from the store. Report settings always come from the store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			c.applyRenderConfig(cmd, &opts)
			return c.runRender(cmd.Context(), input, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, json, dot (comma-separated)")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG pixel ratio")
	cmd.Flags().StringVar(&opts.language, "lang", pipeline.DefaultLanguage, "number formatting locale (BCP 47)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute cached artifacts")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when the rows do not balance")

	return cmd
}

// applyRenderConfig fills flags the user did not set from the config file.
func (c *CLI) applyRenderConfig(cmd *cobra.Command, opts *renderOpts) {
	rc := c.Config.Render
	if !cmd.Flags().Changed("format") && len(rc.Formats) > 0 {
		opts.formats = strings.Join(rc.Formats, ",")
	}
	if !cmd.Flags().Changed("scale") && rc.Scale > 0 {
		opts.scale = rc.Scale
	}
	if !cmd.Flags().Changed("lang") && rc.Language != "" {
		opts.language = rc.Language
	}
	if !cmd.Flags().Changed("output") && rc.Output != "" {
		opts.output = rc.Output
	}
	if !cmd.Flags().Changed("no-cache") {
		opts.noCache = rc.NoCache
	}
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	formats := pipeline.ParseFormats(opts.formats)
	if len(formats) == 0 {
		formats = []string{pipeline.FormatSVG}
	}
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	rows, settings, err := c.renderInput(ctx, input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(formats, ", ")))
	spinner.Start()
	prog := newProgress(c.Logger)

	result, err := runner.Execute(ctx, pipeline.Options{
		Rows:       rows,
		Settings:   &settings,
		Vocabulary: c.vocabulary(),
		Formats:    formats,
		Scale:      opts.scale,
		Language:   opts.language,
		Refresh:    opts.refresh,
		Logger:     c.Logger,
	})
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			return ctx.Err()
		}
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()
	prog.done("rendered", "formats", len(formats), "cached", result.CacheInfo.RenderHit)

	base := basePath(opts.output, input)
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		path := outputPath(base, opts.output, f, len(formats))
		if err := writeArtifact(path, result.Artifacts[f]); err != nil {
			return err
		}
		paths = append(paths, path)
	}

	printSuccess("Rendered %s", strings.Join(formats, ", "))
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, result.Stats.Excluded, result.CacheInfo.RenderHit)

	if !result.Balance.OK() {
		printNewline()
		printBalance(result.Balance)
		if opts.strict {
			return errNotBalanced(result.Balance)
		}
	}
	return nil
}

// renderInput returns the rows to draw and the stored settings.
func (c *CLI) renderInput(ctx context.Context, input string) ([]flow.Row, override.ReportSettings, error) {
	port, st, err := c.loadState(ctx)
	if err != nil {
		return nil, override.ReportSettings{}, err
	}
	defer port.Close()

	if input == "" {
		return st.Rows, st.Settings, nil
	}
	rows, err := io.ImportRows(input)
	if err != nil {
		return nil, override.ReportSettings{}, err
	}
	c.Logger.Debug("loaded rows", "file", input, "rows", len(rows))
	return rows, st.Settings, nil
}

// basePath derives the base output path from the output and input paths.
// With no output it strips the extension from input; with no input either
// it falls back to the application name.
func basePath(output, input string) string {
	if output == "" {
		if input == "" {
			return defaultBase
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath returns the file for one format. A single format written to
// an explicit output path keeps that path unchanged.
func outputPath(base, output, format string, count int) string {
	if count == 1 && output != "" && filepath.Ext(output) != "" {
		return output
	}
	return base + "." + format
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
