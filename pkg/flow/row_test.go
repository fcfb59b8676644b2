package flow

import (
	"math"
	"testing"
)

func TestRow_Valid(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want bool
	}{
		{"ok", Row{Source: "A", Target: "B", CurrentPeriod: 1}, true},
		{"padded names", Row{Source: " A ", Target: "B\t", CurrentPeriod: 1}, true},
		{"blank source", Row{Source: "  ", Target: "B", CurrentPeriod: 1}, false},
		{"missing target", Row{Source: "A", CurrentPeriod: 1}, false},
		{"zero", Row{Source: "A", Target: "B"}, false},
		{"negative", Row{Source: "A", Target: "B", CurrentPeriod: -1}, false},
		{"inf", Row{Source: "A", Target: "B", CurrentPeriod: math.Inf(1)}, false},
		{"nan", Row{Source: "A", Target: "B", CurrentPeriod: math.NaN()}, false},
		{"previous ignored", Row{Source: "A", Target: "B", CurrentPeriod: 1, PreviousPeriod: -3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRow_Key(t *testing.T) {
	r := Row{Source: " Выручка", Target: "EBITDA "}
	if got, want := r.Key(), "Выручка->EBITDA"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestSanitize(t *testing.T) {
	in := []Row{{Source: "A", Target: "B", CurrentPeriod: math.NaN(), PreviousPeriod: math.Inf(-1)}}
	out := Sanitize(in)
	if out[0].CurrentPeriod != 0 || out[0].PreviousPeriod != 0 {
		t.Errorf("Sanitize() = %+v, want zero values", out[0])
	}
	if !math.IsNaN(in[0].CurrentPeriod) {
		t.Error("Sanitize() mutated its input")
	}
}

func TestSampleRows(t *testing.T) {
	rows := SampleRows()
	if len(rows) == 0 {
		t.Fatal("SampleRows() is empty")
	}
	seen := map[string]bool{}
	for _, r := range rows {
		if !r.Valid() {
			t.Errorf("sample row %q is invalid", r.Key())
		}
		if r.ID == "" || seen[r.ID] {
			t.Errorf("sample row %q has missing or duplicate ID", r.Key())
		}
		seen[r.ID] = true
	}
}
