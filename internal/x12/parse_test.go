package x12

import (
	"testing"
)

func buildSample(t *testing.T, pretty bool) []byte {
	t.Helper()
	w := NewWriter(Options{Pretty: pretty})
	w.ISA("ZZ", "SENDER", "ZZ", "RECEIVER", "T", 1, fixedTime)
	w.GS("HC", "S", "R", 1, fixedTime)
	w.ST(1)
	w.Segment("BHT", "0019", "00", "REF", "20260115", "1430", "CH")
	w.Segment("CLM", "C-1", "60.00", "", "", "41:B:1")
	w.SE(1)
	w.GE(1, 1)
	w.IEA(1, 1)
	return w.Bytes()
}

func TestParse_DetectsDelimiters(t *testing.T) {
	ic, err := Parse(buildSample(t, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ic.ElementSep != "*" || ic.SegmentTerm != "~" || ic.ComponentSep != ":" {
		t.Errorf("unexpected delimiters: %q %q %q", ic.ElementSep, ic.SegmentTerm, ic.ComponentSep)
	}
	if len(ic.Segments) != 8 {
		t.Errorf("expected 8 segments, got %d", len(ic.Segments))
	}
	if ic.Segments[0].ID != "ISA" || ic.Segments[len(ic.Segments)-1].ID != "IEA" {
		t.Errorf("unexpected envelope: first=%s last=%s", ic.Segments[0].ID, ic.Segments[len(ic.Segments)-1].ID)
	}
}

func TestParse_ToleratesPrettyNewlines(t *testing.T) {
	ic, err := Parse(buildSample(t, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ic.Segments) != 8 {
		t.Errorf("expected 8 segments, got %d", len(ic.Segments))
	}
}

func TestParse_CustomDelimiters(t *testing.T) {
	w := NewWriter(Options{ElementSep: "|", SegmentTerm: "!"})
	w.ISA("ZZ", "S", "ZZ", "R", "T", 9, fixedTime)
	w.GS("HC", "S", "R", 9, fixedTime)
	w.ST(9)
	w.Segment("BHT", "0019")
	w.SE(9)
	w.GE(1, 9)
	w.IEA(1, 9)

	ic, err := Parse(w.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ic.ElementSep != "|" || ic.SegmentTerm != "!" {
		t.Errorf("unexpected delimiters: %q %q", ic.ElementSep, ic.SegmentTerm)
	}
	if len(ic.Find("BHT")) != 1 {
		t.Errorf("expected one BHT segment")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"not ISA", "GS*HC~"},
		{"truncated ISA", "ISA*00*x~"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSegment_ElementAndComponent(t *testing.T) {
	ic, err := Parse(buildSample(t, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clms := ic.Find("CLM")
	if len(clms) != 1 {
		t.Fatalf("expected one CLM, got %d", len(clms))
	}
	clm := clms[0]
	if got := clm.Element(1); got != "C-1" {
		t.Errorf("CLM01 = %q, want C-1", got)
	}
	if got := clm.Element(5); got != "41:B:1" {
		t.Errorf("CLM05 = %q", got)
	}
	if got := clm.Component(5, 3, ic.ComponentSep); got != "1" {
		t.Errorf("CLM05-3 = %q, want 1", got)
	}
	if got := clm.Element(99); got != "" {
		t.Errorf("out-of-range element = %q, want empty", got)
	}
}
