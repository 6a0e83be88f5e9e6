package verdin

import "testing"

func TestBitPackRoundTrip(t *testing.T) {
	for width := uint8(1); width <= 8; width++ {
		max := uint8(1)<<width - 1
		n := uint64(64)
		bitf := make([]byte, (n*uint64(width)+7)/8)
		for i := uint64(0); i < n; i++ {
			bitSet(bitf, i, width, uint8(i*7)&max)
		}
		for i := uint64(0); i < n; i++ {
			want := uint8(i*7) & max
			if got := bitGet(bitf, i, width); got != want {
				t.Errorf("width %d entry %d = %d, want %d", width, i, got, want)
			}
		}
	}
}

func TestBitPackSpansByteBoundary(t *testing.T) {
	// Width 3: entry 2 occupies bits 6..8, crossing from byte 0 into
	// byte 1.
	bitf := make([]byte, 2)
	bitSet(bitf, 2, 3, 0b101)
	if got := bitGet(bitf, 2, 3); got != 0b101 {
		t.Fatalf("boundary-spanning value = %03b, want 101", got)
	}
	// Neighbours unaffected.
	if got := bitGet(bitf, 1, 3); got != 0 {
		t.Errorf("entry 1 disturbed: %03b", got)
	}
	if got := bitGet(bitf, 3, 3); got != 0 {
		t.Errorf("entry 3 disturbed: %03b", got)
	}
}

func TestBitSetMasksValue(t *testing.T) {
	bitf := make([]byte, 1)
	bitSet(bitf, 0, 2, 0xFF)
	if got := bitGet(bitf, 0, 2); got != 0b11 {
		t.Errorf("masked value = %d, want 3", got)
	}
	if got := bitGet(bitf, 1, 2); got != 0 {
		t.Errorf("overwide value leaked into entry 1: %d", got)
	}
}

func TestBitGetRecnoTranslation(t *testing.T) {
	b, err := NewBuilder(DefaultPageSize)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	no, err := b.BuildColFix(5, []uint8{10, 20, 30})
	if err != nil {
		t.Fatalf("BuildColFix failed: %v", err)
	}
	src, err := b.Source()
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}
	p, err := src.Page(no)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	ref := &PageRef{Page: p, BaseRecno: 1000}

	for i, want := range []uint8{10, 20, 30} {
		got, err := bitGetRecno(ref, 1000+uint64(i), 5)
		if err != nil {
			t.Fatalf("bitGetRecno(%d) failed: %v", 1000+i, err)
		}
		if got != want {
			t.Errorf("record %d = %d, want %d", 1000+i, got, want)
		}
	}
	if _, err := bitGetRecno(ref, 1003, 5); !IsNotFound(err) {
		t.Errorf("past-end record: got %v, want not-found", err)
	}
	if _, err := bitGetRecno(ref, 999, 5); err == nil {
		t.Error("record below page base accepted")
	}
}
