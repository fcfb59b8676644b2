// Package store persists rows and settings as two independent keyed blobs.
//
// A [Port] wraps a [Blobs] backend ([FileBlobs], [SQLiteBlobs] or
// [MemoryBlobs]) and owns decoding. Loading never fails because of bad
// data: an unreadable rows blob falls back to the sample statement, an
// unreadable settings blob falls back to defaults, and each blob is judged
// on its own. Legacy per-node orderY ranks are migrated into childrenOrder
// on load.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/graph"
	"github.com/matzehuels/flowsankey/pkg/override"
)

// Blob keys.
const (
	KeyRows     = "rows"
	KeySettings = "settings"
)

// ErrNotFound is returned by Blobs.Get for a missing key.
var ErrNotFound = errors.New("store: blob not found")

// Blobs is a keyed byte store.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// State is everything that is persisted.
type State struct {
	Rows     []flow.Row
	Settings override.ReportSettings
}

// Source records where each part of a loaded state came from.
type Source string

const (
	FromStore    Source = "store"
	FromDefaults Source = "defaults"
)

// Loaded is the result of Port.Load.
type Loaded struct {
	State
	RowsSource     Source
	SettingsSource Source
	// Migrated is true when legacy sibling ranks were converted.
	Migrated bool
}

// Port loads and saves State over a Blobs backend.
type Port struct {
	blobs  Blobs
	logger *log.Logger
}

// PortOption configures a Port.
type PortOption func(*Port)

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *log.Logger) PortOption {
	return func(p *Port) { p.logger = l }
}

// NewPort creates a port over b.
func NewPort(b Blobs, opts ...PortOption) *Port {
	p := &Port{blobs: b}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return p
}

// Blobs returns the backend.
func (p *Port) Blobs() Blobs { return p.blobs }

// Load reads both blobs. Missing, corrupt or unreadable blobs fall back
// independently; only a cancelled context is returned as an error.
func (p *Port) Load(ctx context.Context) (Loaded, error) {
	var out Loaded

	out.Rows, out.RowsSource = p.loadRows(ctx)
	if err := ctx.Err(); err != nil {
		return Loaded{}, err
	}

	settings, legacy, src := p.loadSettings(ctx)
	if err := ctx.Err(); err != nil {
		return Loaded{}, err
	}
	out.SettingsSource = src
	if len(legacy) > 0 {
		settings = override.Migrate(settings, legacy, graph.Build(out.Rows))
		out.Migrated = true
		p.logger.Info("migrated legacy sibling order", "nodes", len(legacy))
	}
	out.Settings = settings
	return out, nil
}

func (p *Port) loadRows(ctx context.Context) ([]flow.Row, Source) {
	data, err := p.blobs.Get(ctx, KeyRows)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.Warn("reading rows failed, using sample data", "err", err)
		}
		return flow.SampleRows(), FromDefaults
	}
	rows, err := DecodeRows(data)
	if err != nil {
		p.logger.Warn("discarding stored rows", "err", err)
		return flow.SampleRows(), FromDefaults
	}
	if len(rows) == 0 {
		p.logger.Warn("no usable stored rows, using sample data")
		return flow.SampleRows(), FromDefaults
	}
	return rows, FromStore
}

func (p *Port) loadSettings(ctx context.Context) (override.ReportSettings, override.LegacyOrder, Source) {
	data, err := p.blobs.Get(ctx, KeySettings)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.logger.Warn("reading settings failed, using defaults", "err", err)
		}
		return override.Defaults(), nil, FromDefaults
	}
	s, legacy, err := override.DecodeSettings(data)
	if err != nil {
		p.logger.Warn("discarding stored settings", "err", err)
		return override.Defaults(), nil, FromDefaults
	}
	return s, legacy, FromStore
}

// Save writes both blobs.
func (p *Port) Save(ctx context.Context, st State) error {
	if err := p.SaveRows(ctx, st.Rows); err != nil {
		return err
	}
	return p.SaveSettings(ctx, st.Settings)
}

// SaveRows writes the rows blob. Non-finite numbers are stored as zero.
func (p *Port) SaveRows(ctx context.Context, rows []flow.Row) error {
	data, err := json.Marshal(flow.Sanitize(rows))
	if err != nil {
		return err
	}
	return p.blobs.Put(ctx, KeyRows, data)
}

// SaveSettings writes the settings blob.
func (p *Port) SaveSettings(ctx context.Context, s override.ReportSettings) error {
	data, err := override.EncodeSettings(s)
	if err != nil {
		return err
	}
	return p.blobs.Put(ctx, KeySettings, data)
}

// Reset deletes both blobs.
func (p *Port) Reset(ctx context.Context) error {
	if err := p.blobs.Delete(ctx, KeyRows); err != nil {
		return err
	}
	return p.blobs.Delete(ctx, KeySettings)
}

// Close closes the backend.
func (p *Port) Close() error { return p.blobs.Close() }

// DecodeRows parses a stored rows blob. The blob must be a JSON array;
// elements that are not structurally rows are skipped, and missing IDs are
// assigned.
func DecodeRows(data []byte) ([]flow.Row, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	rows := make([]flow.Row, 0, len(raw))
	for _, r := range raw {
		var row flow.Row
		if err := json.Unmarshal(r, &row); err != nil {
			continue
		}
		if row.Source == "" && row.Target == "" && !hasField(r) {
			continue
		}
		rows = append(rows, row)
	}
	return flow.EnsureIDs(rows), nil
}

// hasField reports whether a raw element is a JSON object carrying at
// least one row field, so that "{}" or "null" are not kept as rows.
func hasField(r json.RawMessage) bool {
	var m map[string]json.RawMessage
	if json.Unmarshal(r, &m) != nil {
		return false
	}
	for _, k := range []string{"source", "target", "currentPeriod", "previousPeriod"} {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
