package timeblock

import "testing"

func TestSplitNoWrap(t *testing.T) {
	blocks := Split(New(9, 0, 0), New(17, 30, 0))
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Start != 9*3600 || blocks[0].End != 17*3600+30*60 {
		t.Errorf("block = %+v, want [32400, 63000)", blocks[0])
	}
}

func TestSplitWrapsMidnight(t *testing.T) {
	start, end := New(23, 0, 0), New(7, 0, 0)
	blocks := Split(start, end)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Start != 23*3600 || blocks[0].End != SecondsPerDay {
		t.Errorf("first block = %+v, want [82800, 86400)", blocks[0])
	}
	if blocks[1].Start != 0 || blocks[1].End != 7*3600 {
		t.Errorf("second block = %+v, want [0, 25200)", blocks[1])
	}

	total := 0
	for _, b := range blocks {
		if b.End > SecondsPerDay {
			t.Errorf("block %+v crosses end of day", b)
		}
		total += b.Duration()
	}
	if total != Duration(start, end) {
		t.Errorf("blocks sum to %d seconds, duration is %d", total, Duration(start, end))
	}
}

func TestSplitWrapToExactMidnight(t *testing.T) {
	blocks := Split(New(22, 0, 0), New(0, 0, 0))
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block when end is midnight, got %d", len(blocks))
	}
	if blocks[0].Start != 22*3600 || blocks[0].End != SecondsPerDay {
		t.Errorf("block = %+v, want [79200, 86400)", blocks[0])
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name       string
		start, end TimeOfDay
		want       int
	}{
		{"same day", New(9, 0, 0), New(10, 30, 0), 5400},
		{"zero", New(12, 0, 0), New(12, 0, 0), 0},
		{"crosses midnight", New(23, 0, 0), New(7, 0, 0), 8 * 3600},
		{"one second before midnight", New(23, 59, 59), New(0, 0, 0), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.start, tt.end); got != tt.want {
				t.Errorf("Duration(%v, %v) = %d, want %d", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestFromSecondsClampsDayEnd(t *testing.T) {
	if got := FromSeconds(SecondsPerDay); got != New(23, 59, 59) {
		t.Errorf("FromSeconds(86400) = %v, want 23:59:59", got)
	}
	if got := FromSeconds(3600*6 + 60*15); got != New(6, 15, 0) {
		t.Errorf("FromSeconds = %v, want 06:15:00", got)
	}
}

func TestParseAndString(t *testing.T) {
	tod, err := Parse("07:45:30")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tod != New(7, 45, 30) {
		t.Errorf("parsed %v, want 07:45:30", tod)
	}
	if tod.String() != "07:45:30" {
		t.Errorf("string = %q", tod.String())
	}

	if _, err := Parse("25:00:00"); err == nil {
		t.Error("expected error for invalid hour")
	}
}

func TestBlockOverlaps(t *testing.T) {
	a := Block{Start: 100, End: 200}
	if !a.Overlaps(Block{Start: 150, End: 250}) {
		t.Error("expected overlap")
	}
	if a.Overlaps(Block{Start: 200, End: 300}) {
		t.Error("touching blocks should not overlap")
	}
}
