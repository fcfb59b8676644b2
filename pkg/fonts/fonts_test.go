package fonts

import "testing"

func TestFace(t *testing.T) {
	for _, isBold := range []bool{false, true} {
		f, err := Face(12, isBold)
		if err != nil {
			t.Fatalf("Face(12, %v) error: %v", isBold, err)
		}
		if h := f.Metrics().Height.Ceil(); h <= 0 {
			t.Errorf("Face(12, %v) height = %d, want > 0", isBold, h)
		}
	}
}

func TestMeasure(t *testing.T) {
	if w := Measure("", 12, false); w != 0 {
		t.Errorf("Measure(\"\") = %v, want 0", w)
	}
	short := Measure("EBITDA", 12, false)
	long := Measure("EBITDA EBITDA", 12, false)
	if short <= 0 || long <= short {
		t.Errorf("Measure widths short=%v long=%v, want 0 < short < long", short, long)
	}
	if big := Measure("EBITDA", 24, false); big <= short {
		t.Errorf("Measure at 24pt = %v, want > %v", big, short)
	}
}
