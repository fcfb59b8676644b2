// Package cli implements the flowsankey command-line interface.
//
// Commands read rows and report settings from the configured store
// backend, render them through the pipeline, and write the results next to
// the input or to --output. The editor (edit) drives the same interaction
// controller the library exposes, from the keyboard.
//
// # Commands
//
//   - render: Draw the diagram as SVG, PNG, JSON or DOT
//   - check: Report nodes whose inflow and outflow differ
//   - import, rows: Replace or list the stored rows
//   - node, image, state: Edit and inspect the stored settings
//   - edit: Interactive terminal editor
//   - serve: Stateless HTTP render service
//   - graph: Graphviz view of the flow structure
//   - cache, config, completion: Housekeeping
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Rendered 3 formats (12ms)"
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}
