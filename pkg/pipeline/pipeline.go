// Package pipeline runs the complete rows → graph → layout → scene →
// artifacts pipeline.
//
// The CLI and the HTTP render service both go through a [Runner], so a
// diagram rendered from the command line and one rendered over HTTP from
// the same rows and settings are byte for byte identical.
//
// # Stages
//
//  1. Build: classify valid rows and intern them into a [graph.Graph]
//  2. Layout: compute geometry through a [layout.Memo]
//  3. Scene: apply overrides and produce final pixel geometry
//  4. Render: serialize the scene into the requested formats
//
// Rendered artifacts are cached by a content hash of the inputs, so
// re-rendering unchanged rows and settings skips stages 1-4 entirely.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Rows:     rows,
//	    Settings: &settings,
//	    Formats:  []string{"svg", "png"},
//	})
//	svg := result.Artifacts["svg"]
//
// [graph.Graph]: github.com/matzehuels/flowsankey/pkg/graph
// [layout.Memo]: github.com/matzehuels/flowsankey/pkg/layout
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/language"

	"github.com/matzehuels/flowsankey/pkg/balance"
	"github.com/matzehuels/flowsankey/pkg/cache"
	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/layout"
	"github.com/matzehuels/flowsankey/pkg/override"
	"github.com/matzehuels/flowsankey/pkg/scene"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// MaxScale bounds the PNG scale factor so a request cannot allocate an
	// arbitrarily large raster.
	MaxScale = 4.0

	// DefaultLanguage is the number formatting locale.
	DefaultLanguage = "ru"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input
	Rows     []flow.Row               `json:"rows"`
	Settings *override.ReportSettings `json:"settings,omitempty"`

	// Classification terms added to the default vocabulary.
	Vocabulary *flow.Vocabulary `json:"vocabulary,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Language string   `json:"language,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
	tag       language.Tag
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the built flow graph. Nil when every artifact came from the
	// cache.
	Graph *graph.Graph

	// Layout is the computed geometry. Nil on a full cache hit.
	Layout *layout.Layout

	// Scene is the final drawing. Nil on a full cache hit.
	Scene *scene.Scene

	// Balance is the conservation report for the input rows. It is always
	// computed, even on a cache hit.
	Balance balance.Report

	// InputHash is the content hash of rows, settings and render options.
	InputHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LinkCount  int
	Excluded   int
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from the memo
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return ferrors.New(ferrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, trimming blanks and
// dropping duplicates.
func ParseFormats(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Settings == nil {
		s := override.Defaults()
		o.Settings = &s
	}
	if err := override.Validate(*o.Settings); err != nil {
		return err
	}
	switch {
	case o.Scale == 0:
		o.Scale = DefaultScale
	case o.Scale < 0 || o.Scale > MaxScale:
		return ferrors.New(ferrors.ErrCodeInvalidInput, "scale must be in (0, %g]", MaxScale)
	}
	if o.Language == "" {
		o.Language = DefaultLanguage
	}
	tag, err := language.Parse(o.Language)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid language %q", o.Language)
	}
	o.tag = tag
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Classifier returns the classifier for the configured vocabulary.
func (o *Options) Classifier() *flow.Classifier {
	v := flow.DefaultVocabulary()
	if o.Vocabulary != nil {
		v = v.Merge(*o.Vocabulary)
	}
	return flow.NewClassifier(v)
}

// LanguageTag returns the parsed locale. Valid after ValidateAndSetDefaults.
func (o *Options) LanguageTag() language.Tag { return o.tag }

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	if o.Settings != nil {
		opts.Width, opts.Height = o.Settings.Width, o.Settings.Height
	}
	if format == FormatPNG {
		opts.DPI = o.Scale * 72
	}
	return opts
}

// inputKey is the hashed identity of a run. Row IDs are left out so
// re-imported rows with fresh IDs still hit the cache.
type inputKey struct {
	Rows       [][4]any                `json:"rows"`
	Settings   override.ReportSettings `json:"settings"`
	Vocabulary *flow.Vocabulary        `json:"vocabulary,omitempty"`
	Language   string                  `json:"language"`
}

// InputHash returns the content hash of the options' inputs.
func (o *Options) InputHash() (string, error) {
	rows := flow.Sanitize(o.Rows)
	key := inputKey{
		Rows:       make([][4]any, len(rows)),
		Vocabulary: o.Vocabulary,
		Language:   o.Language,
	}
	for i, r := range rows {
		key.Rows[i] = [4]any{r.Source, r.Target, r.CurrentPeriod, r.PreviousPeriod}
	}
	if o.Settings != nil {
		key.Settings = *o.Settings
	}
	return cache.HashJSON(key)
}
