package naming

import "testing"

func TestSegmentName(t *testing.T) {
	got := SegmentName(42)
	want := "00000000000000000042"
	if got != want {
		t.Fatalf("SegmentName(42) = %q, want %q", got, want)
	}
	if len(got) != IndexWidth {
		t.Fatalf("SegmentName(42) has length %d, want %d", len(got), IndexWidth)
	}
}

func TestStartAndEndName(t *testing.T) {
	if got, want := StartName(7), SegmentName(7)+".START"; got != want {
		t.Fatalf("StartName(7) = %q, want %q", got, want)
	}
	if got, want := EndName(7), SegmentName(7)+".END"; got != want {
		t.Fatalf("EndName(7) = %q, want %q", got, want)
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		name      string
		wantIndex uint64
		wantKind  Kind
		wantOK    bool
	}{
		{"00000000000000000001", 1, KindPlain, true},
		{"00000000000000000042", 42, KindPlain, true},
		{"00000000000000000001.START", 1, KindStart, true},
		{"00000000000000000001.END", 1, KindEnd, true},
		{"00000000000000000000", 0, 0, false},
		{"TEMP", 0, 0, false},
		{"short", 0, 0, false},
		{"00000000000000000001.OTHER", 0, 0, false},
		{"0000000000000000000x", 0, 0, false},
	}
	for _, c := range cases {
		index, kind, ok := Parse(c.name)
		if ok != c.wantOK {
			t.Fatalf("Parse(%q) ok = %v, want %v", c.name, ok, c.wantOK)
		}
		if !ok {
			continue
		}
		if index != c.wantIndex || kind != c.wantKind {
			t.Fatalf("Parse(%q) = (%d, %d), want (%d, %d)", c.name, index, kind, c.wantIndex, c.wantKind)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, want := range []uint64{1, 2, 999, 1 << 40} {
		got, kind, ok := Parse(SegmentName(want))
		if !ok || kind != KindPlain || got != want {
			t.Fatalf("round trip through SegmentName failed for index %d, got (%d, %d, %v)", want, got, kind, ok)
		}
	}
}
