package verdin

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// buildRowLeafSource builds a single row-store leaf and returns a
// source, the page and a cursor over it.
func buildRowLeafSource(t *testing.T, m *Metrics, entries []RowLeafEntry) (*MemSource, *Page, *Cursor) {
	t.Helper()
	b, err := NewBuilder(DefaultPageSize)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	no, err := b.BuildRowLeaf(entries)
	if err != nil {
		t.Fatalf("BuildRowLeaf failed: %v", err)
	}
	src, err := b.Source()
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}
	p, err := src.Page(no)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	return src, p, NewCursor(src, m)
}

func TestRowLeafRoundTrip(t *testing.T) {
	// Row entry at slot 3 decodes to key "alpha", value "v1", window
	// {txn 5, ts 100, max, max}; no pending update, no inline cache
	// (the window forces a real value cell).
	w := TimeWindow{StartTxn: 5, StartTS: 100, StopTxn: TxnMax, StopTS: TSMax}
	_, p, cur := buildRowLeafSource(t, nil, []RowLeafEntry{
		{Key: []byte("aaa"), Value: []byte("x1")},
		{Key: []byte("aab"), Value: []byte("x2")},
		{Key: []byte("aac"), Value: []byte("x3")},
		{Key: []byte("alpha"), Value: []byte("v1"), Window: &w},
	})

	cur.SetRowPosition(&PageRef{Page: p}, 3, 1, nil)
	if err := cur.EnsureKey(); err != nil {
		t.Fatalf("EnsureKey failed: %v", err)
	}
	if got := cur.Key(); !bytes.Equal(got, []byte("alpha")) {
		t.Errorf("key = %q, want %q", got, "alpha")
	}

	var buf Item
	var got TimeWindow
	if err := cur.ReadValue(&buf, &got); err != nil {
		t.Fatalf("ReadValue failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte("v1")) {
		t.Errorf("value = %q, want %q", buf.Bytes(), "v1")
	}
	if got != w {
		t.Errorf("window = %s, want %s", got.String(), w.String())
	}

	if err := cur.EnsureValue(NoUpdate); err != nil {
		t.Fatalf("EnsureValue failed: %v", err)
	}
	if !bytes.Equal(cur.Value(), []byte("v1")) {
		t.Errorf("cursor value = %q, want %q", cur.Value(), "v1")
	}
}

func TestEnsureKeyIdempotent(t *testing.T) {
	m := NewMetrics()
	_, p, cur := buildRowLeafSource(t, m, []RowLeafEntry{
		{Key: []byte("key1"), Value: []byte("value1")},
	})

	cur.SetRowPosition(&PageRef{Page: p}, 0, 1, nil)
	if err := cur.EnsureKey(); err != nil {
		t.Fatalf("EnsureKey failed: %v", err)
	}
	first := append([]byte(nil), cur.Key()...)
	if err := cur.EnsureKey(); err != nil {
		t.Fatalf("second EnsureKey failed: %v", err)
	}
	if !bytes.Equal(cur.Key(), first) {
		t.Errorf("second EnsureKey changed key: %q -> %q", first, cur.Key())
	}
	if n := testutil.ToFloat64(m.KeyMaterializations); n != 1 {
		t.Errorf("key materializations = %v, want 1 (second call must be a no-op)", n)
	}

	// Repositioning invalidates the cached key and forces a re-decode.
	cur.SetRowPosition(&PageRef{Page: p}, 0, 1, nil)
	if err := cur.EnsureKey(); err != nil {
		t.Fatalf("EnsureKey after reposition failed: %v", err)
	}
	if n := testutil.ToFloat64(m.KeyMaterializations); n != 2 {
		t.Errorf("key materializations = %v, want 2 after reposition", n)
	}
}

func TestExactMatchBufferSwap(t *testing.T) {
	// A search left tmp = "beta" and compare = 0; the materialized key
	// must come from a buffer the next search will not overwrite.
	_, p, cur := buildRowLeafSource(t, nil, []RowLeafEntry{
		{Key: []byte("beta"), Value: []byte("v")},
	})

	cur.SetRowPosition(&PageRef{Page: p}, 0, 0, nil)
	scratch := cur.ScratchKey()
	if err := scratch.Set([]byte("beta")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := cur.EnsureKey(); err != nil {
		t.Fatalf("EnsureKey failed: %v", err)
	}
	if !bytes.Equal(cur.Key(), []byte("beta")) {
		t.Fatalf("key = %q, want %q", cur.Key(), "beta")
	}

	// The buffers swapped: tmp is now the previous row-key buffer.
	after := cur.ScratchKey()
	if after == scratch {
		t.Fatal("scratch buffer was not swapped")
	}

	// Overwriting the new scratch (what the next search does) must not
	// change the bytes observable through the external key.
	if err := after.Set([]byte("garbage-from-the-next-search")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !bytes.Equal(cur.Key(), []byte("beta")) {
		t.Errorf("key corrupted by scratch reuse: %q", cur.Key())
	}
}

func TestInsertEntryKeyAliased(t *testing.T) {
	_, p, cur := buildRowLeafSource(t, nil, []RowLeafEntry{
		{Key: []byte("base"), Value: []byte("v")},
	})

	il := NewInsertList(1)
	ins := il.Insert([]byte("pending"), &UpdateRecord{Kind: UpdateStandard, Data: []byte("nv")})

	cur.SetRowPosition(&PageRef{Page: p}, 0, 1, ins)
	if err := cur.EnsureKey(); err != nil {
		t.Fatalf("EnsureKey failed: %v", err)
	}
	key := cur.Key()
	if !bytes.Equal(key, []byte("pending")) {
		t.Fatalf("key = %q, want %q", key, "pending")
	}
	// No copy: the key references the insert entry's bytes directly.
	if &key[0] != &ins.Key()[0] {
		t.Error("insert key was copied instead of aliased")
	}
}

func TestUpdateViewOwnershipTransfer(t *testing.T) {
	_, p, cur := buildRowLeafSource(t, nil, []RowLeafEntry{
		{Key: []byte("k"), Value: []byte("old")},
	})
	cur.SetRowPosition(&PageRef{Page: p}, 0, 1, nil)

	buf := []byte("replacement")
	if err := cur.EnsureValue(UpdateView{Kind: UpdateStandard, Buf: buf}); err != nil {
		t.Fatalf("EnsureValue failed: %v", err)
	}
	val := cur.Value()
	if !bytes.Equal(val, buf) {
		t.Fatalf("value = %q, want %q", val, buf)
	}
	// Move, not copy: the cursor's value buffer is the view's buffer.
	if &val[0] != &buf[0] {
		t.Error("update view buffer was copied instead of moved")
	}
}

func TestUpdateViewBadKind(t *testing.T) {
	_, p, cur := buildRowLeafSource(t, nil, []RowLeafEntry{
		{Key: []byte("k"), Value: []byte("v")},
	})
	cur.SetRowPosition(&PageRef{Page: p}, 0, 1, nil)

	// Deletions are filtered by the update resolver; one reaching the
	// read path is a logic defect in the caller, not bad data.
	err := cur.EnsureValue(UpdateView{Kind: UpdateTombstone, Buf: []byte("x")})
	if err == nil {
		t.Fatal("expected error for tombstone update view")
	}
	if !errors.HasAssertionFailure(err) {
		t.Errorf("expected assertion failure, got %v", err)
	}
}

func TestEnsureFlagsNotSetOnFailure(t *testing.T) {
	_, p, cur := buildRowLeafSource(t, nil, []RowLeafEntry{
		{Key: []byte("k"), Value: []byte("v")},
	})

	// An out-of-range slot fails materialization; the internal flags
	// must stay clear so the next call retries instead of trusting a
	// buffer that was never filled.
	cur.SetRowPosition(&PageRef{Page: p}, 99, 1, nil)
	if err := cur.EnsureKey(); err == nil {
		t.Fatal("EnsureKey on bad slot should fail")
	}
	if err := cur.EnsureKey(); err == nil {
		t.Fatal("EnsureKey must retry after failure, not report success")
	}
	if err := cur.EnsureValue(NoUpdate); err == nil {
		t.Fatal("EnsureValue on bad slot should fail")
	}

	cur.SetRowPosition(&PageRef{Page: p}, 0, 1, nil)
	if err := cur.EnsureKey(); err != nil {
		t.Fatalf("EnsureKey after repositioning failed: %v", err)
	}
	if !bytes.Equal(cur.Key(), []byte("k")) {
		t.Errorf("key = %q, want %q", cur.Key(), "k")
	}
}

func TestRowInlineValueFastPath(t *testing.T) {
	m := NewMetrics()
	// A simple globally visible value gets an inline location at page
	// load; reading it must not decode the value cell and must leave
	// the window at the default.
	_, p, cur := buildRowLeafSource(t, m, []RowLeafEntry{
		{Key: []byte("k"), Value: []byte("simple")},
	})
	cur.SetRowPosition(&PageRef{Page: p}, 0, 1, nil)

	var buf Item
	var w TimeWindow
	if err := cur.ReadValue(&buf, &w); err != nil {
		t.Fatalf("ReadValue failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte("simple")) {
		t.Errorf("value = %q, want %q", buf.Bytes(), "simple")
	}
	if !w.IsGloballyVisible() {
		t.Errorf("inline value produced a window: %s", w.String())
	}
	if n := testutil.ToFloat64(m.CellDecodes); n != 0 {
		t.Errorf("cell decodes = %v, want 0 for the inline fast path", n)
	}
}

func TestColVarValueAndWindow(t *testing.T) {
	b, err := NewBuilder(DefaultPageSize)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	w := TimeWindow{StartTxn: 9, StartTS: 77, StopTxn: 12, StopTS: 80}
	no, err := b.BuildColVar([]ColVarEntry{
		{Value: []byte("rec0")},
		{Value: []byte("rec1"), Window: &w},
		{Value: bytes.Repeat([]byte("z"), 512), Compress: true},
	})
	if err != nil {
		t.Fatalf("BuildColVar failed: %v", err)
	}
	src, err := b.Source()
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}
	p, err := src.Page(no)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}

	cur := NewCursor(src, nil)
	ref := &PageRef{Page: p, BaseRecno: 100}

	cur.SetColumnPosition(ref, 1, 101, nil)
	if err := cur.EnsureKey(); err != nil {
		t.Fatalf("EnsureKey failed: %v", err)
	}
	if cur.Recno() != 101 {
		t.Errorf("recno = %d, want 101", cur.Recno())
	}
	var buf Item
	var got TimeWindow
	if err := cur.ReadValue(&buf, &got); err != nil {
		t.Fatalf("ReadValue failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte("rec1")) {
		t.Errorf("value = %q, want %q", buf.Bytes(), "rec1")
	}
	if got != w {
		t.Errorf("window = %s, want %s", got.String(), w.String())
	}

	// Compressed cell resolves transparently.
	cur.SetColumnPosition(ref, 2, 102, nil)
	if err := cur.EnsureValue(NoUpdate); err != nil {
		t.Fatalf("EnsureValue failed: %v", err)
	}
	if !bytes.Equal(cur.Value(), bytes.Repeat([]byte("z"), 512)) {
		t.Errorf("compressed value mismatch: %d bytes", len(cur.Value()))
	}
}

func TestColFixValue(t *testing.T) {
	// Record number 42, bit width 3, packed value 5: a single-byte
	// value and the globally visible default window.
	values := make([]uint8, 64)
	for i := range values {
		values[i] = uint8(i) % 7
	}
	values[42] = 5

	b, err := NewBuilder(DefaultPageSize)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	no, err := b.BuildColFix(3, values)
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

	cur := NewCursor(src, nil)
	ref := &PageRef{Page: p}
	cur.SetColumnPosition(ref, 0, 42, nil)

	var buf Item
	var w TimeWindow
	if err := cur.ReadValue(&buf, &w); err != nil {
		t.Fatalf("ReadValue failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{5}) {
		t.Errorf("value = %v, want [5]", buf.Bytes())
	}
	if !w.IsGloballyVisible() {
		t.Errorf("fixed column produced a data-derived window: %s", w.String())
	}

	if err := cur.ReadTimeWindow(&w); err != nil {
		t.Fatalf("ReadTimeWindow failed: %v", err)
	}
	if !w.IsGloballyVisible() {
		t.Errorf("fixed column window = %s, want default", w.String())
	}

	// Out-of-range record numbers are reported, not misread.
	cur.SetColumnPosition(ref, 0, uint64(len(values)), nil)
	if err := cur.EnsureValue(NoUpdate); !IsNotFound(err) {
		t.Errorf("expected not found for record %d, got %v", len(values), err)
	}
}

func TestOverflowValueResolution(t *testing.T) {
	m := NewMetrics()
	big := bytes.Repeat([]byte("overflow-payload-"), 300)

	b, err := NewBuilder(DefaultPageSize)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	wtw := TimeWindow{StartTxn: 2, StartTS: 20, StopTxn: TxnMax, StopTS: TSMax}
	no, err := b.BuildRowLeaf([]RowLeafEntry{
		{Key: []byte("big"), Value: big, Window: &wtw, Compress: true, Overflow: true},
	})
	if err != nil {
		t.Fatalf("BuildRowLeaf failed: %v", err)
	}
	src, err := b.Source()
	if err != nil {
		t.Fatalf("Source failed: %v", err)
	}
	p, err := src.Page(no)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}

	cur := NewCursor(src, m)
	cur.SetRowPosition(&PageRef{Page: p}, 0, 1, nil)
	var buf Item
	var w TimeWindow
	if err := cur.ReadValue(&buf, &w); err != nil {
		t.Fatalf("ReadValue failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), big) {
		t.Errorf("overflow value mismatch: got %d bytes, want %d", buf.Len(), len(big))
	}
	if w != wtw {
		t.Errorf("window = %s, want %s", w.String(), wtw.String())
	}
	if n := testutil.ToFloat64(m.OverflowReads); n != 1 {
		t.Errorf("overflow reads = %v, want 1", n)
	}
	if n := testutil.ToFloat64(m.Decompressions); n != 1 {
		t.Errorf("decompressions = %v, want 1", n)
	}
}

func TestValueIndependentOfPage(t *testing.T) {
	// Unlike the key path, a materialized value is owned by the caller:
	// the bytes must not alias page memory.
	_, p, cur := buildRowLeafSource(t, nil, []RowLeafEntry{
		{Key: []byte("k"), Value: []byte("owned-bytes")},
	})
	cur.SetRowPosition(&PageRef{Page: p}, 0, 1, nil)
	if err := cur.EnsureValue(NoUpdate); err != nil {
		t.Fatalf("EnsureValue failed: %v", err)
	}
	val := cur.Value()
	for i := range p.data {
		p.data[i] = 0
	}
	if !bytes.Equal(val, []byte("owned-bytes")) {
		t.Error("value aliases page memory")
	}
}
