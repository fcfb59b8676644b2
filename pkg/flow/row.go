package flow

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// Row is a single flow record as entered by the user.
//
// Source and Target are stored verbatim; all graph-facing accessors trim
// them. The zero value is an (invalid) empty row.
type Row struct {
	ID             string  `json:"id" yaml:"id"`
	Source         string  `json:"source" yaml:"source"`
	Target         string  `json:"target" yaml:"target"`
	CurrentPeriod  float64 `json:"currentPeriod" yaml:"currentPeriod"`
	PreviousPeriod float64 `json:"previousPeriod" yaml:"previousPeriod"`
}

// NewRow creates a row with a fresh ID.
func NewRow(source, target string, current, previous float64) Row {
	return Row{
		ID:             uuid.NewString(),
		Source:         source,
		Target:         target,
		CurrentPeriod:  current,
		PreviousPeriod: previous,
	}
}

// SourceName returns the trimmed source label (the node key).
func (r Row) SourceName() string { return strings.TrimSpace(r.Source) }

// TargetName returns the trimmed target label (the node key).
func (r Row) TargetName() string { return strings.TrimSpace(r.Target) }

// Key returns the link key "source->target" built from trimmed names.
func (r Row) Key() string { return LinkKey(r.SourceName(), r.TargetName()) }

// Valid reports whether the row can become a link: both names present and
// a positive finite current value.
func (r Row) Valid() bool {
	if r.SourceName() == "" || r.TargetName() == "" {
		return false
	}
	return r.CurrentPeriod > 0 && !math.IsInf(r.CurrentPeriod, 0)
}

// LinkKey joins two node names into the key used for link bookkeeping.
func LinkKey(source, target string) string { return source + "->" + target }

// ValidRows returns the valid rows in their original order.
func ValidRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Valid() {
			out = append(out, r)
		}
	}
	return out
}

// EnsureIDs assigns fresh IDs to rows that have none. The slice is updated
// in place and returned for convenience.
func EnsureIDs(rows []Row) []Row {
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
	}
	return rows
}

// Sanitize replaces non-finite values with zero so rows can be encoded.
func Sanitize(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		if math.IsNaN(r.CurrentPeriod) || math.IsInf(r.CurrentPeriod, 0) {
			r.CurrentPeriod = 0
		}
		if math.IsNaN(r.PreviousPeriod) || math.IsInf(r.PreviousPeriod, 0) {
			r.PreviousPeriod = 0
		}
		out[i] = r
	}
	return out
}

// SampleRows returns the built-in example statement used when no rows are
// stored yet.
func SampleRows() []Row {
	rows := []Row{
		{Source: "Выручка", Target: "Валовая прибыль", CurrentPeriod: 620, PreviousPeriod: 540},
		{Source: "Выручка", Target: "Себестоимость", CurrentPeriod: 380, PreviousPeriod: 360},
		{Source: "Прочие доходы", Target: "Валовая прибыль", CurrentPeriod: 40, PreviousPeriod: 25},
		{Source: "Валовая прибыль", Target: "EBITDA", CurrentPeriod: 410, PreviousPeriod: 345},
		{Source: "Валовая прибыль", Target: "Коммерческие расходы", CurrentPeriod: 150, PreviousPeriod: 140},
		{Source: "Валовая прибыль", Target: "Управленческие расходы", CurrentPeriod: 100, PreviousPeriod: 80},
		{Source: "EBITDA", Target: "Чистая прибыль", CurrentPeriod: 290, PreviousPeriod: 240},
		{Source: "EBITDA", Target: "Амортизация", CurrentPeriod: 60, PreviousPeriod: 55},
		{Source: "EBITDA", Target: "Налоги", CurrentPeriod: 60, PreviousPeriod: 50},
	}
	return EnsureIDs(rows)
}
