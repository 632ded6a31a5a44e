package fontio

import (
	"testing"

	"github.com/npillmayer/chwsgen/ot"
)

func TestPadTo4(t *testing.T) {
	cases := map[uint32]uint32{0: 0, 1: 4, 2: 4, 3: 4, 4: 4, 5: 8}
	for in, want := range cases {
		if got := padTo4(in); got != want {
			t.Errorf("padTo4(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestTableChecksum(t *testing.T) {
	// Two exact words: the checksum is their sum modulo 2^32.
	b := []byte{0, 0, 0, 1, 0, 0, 0, 2}
	if got := tableChecksum(b); got != 3 {
		t.Fatalf("tableChecksum(%v) = %d, want 3", b, got)
	}
	// A trailing partial word is zero-padded before summing.
	b = []byte{0, 0, 0, 1, 0, 0}
	if got := tableChecksum(b); got != 1 {
		t.Fatalf("tableChecksum with a partial final word = %d, want 1", got)
	}
}

func TestTagBytesRoundTripsThroughMakeTag(t *testing.T) {
	tag := ot.T("GPOS")
	b := tagBytes(tag)
	if got := ot.MakeTag(b); got != tag {
		t.Fatalf("tagBytes/MakeTag round trip: got %v, want %v", got, tag)
	}
}

func TestSortTagsAsc(t *testing.T) {
	tags := []ot.Tag{ot.T("glyf"), ot.T("GPOS"), ot.T("cmap")}
	sortTagsAsc(tags)
	for i := 1; i < len(tags); i++ {
		if tags[i-1] >= tags[i] {
			t.Fatalf("tags not sorted ascending: %v", tags)
		}
	}
}

func TestSfntDirectorySizing(t *testing.T) {
	cases := []struct {
		numTables             int
		searchRange, entrySel uint16
		rangeShift            uint16
	}{
		{1, 16, 0, 0},
		{4, 64, 2, 0},
		{5, 64, 2, 16},
	}
	for _, c := range cases {
		sr, es, rs := sfntDirectorySizing(c.numTables)
		if sr != c.searchRange || es != c.entrySel || rs != c.rangeShift {
			t.Errorf("sfntDirectorySizing(%d) = (%d,%d,%d), want (%d,%d,%d)",
				c.numTables, sr, es, rs, c.searchRange, c.entrySel, c.rangeShift)
		}
	}
}
