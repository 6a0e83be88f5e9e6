package verdin

import (
	"github.com/cockroachdb/errors"
)

// cursorFlags track whether the cursor's key/value buffers hold a
// materialized copy for the current position (internal) and whether
// that copy has been handed out to the application (external). The
// positioning layer clears them whenever the position changes.
type cursorFlags uint8

const (
	keyInternal cursorFlags = 1 << iota
	valueInternal
	keyExternal
	valueExternal
)

// Cursor reads keys and values out of a positioned page slot. A search
// or positioning operation selects the slot (and possibly an insert
// entry and an exact-match indicator); the Ensure* entry points then
// materialize the externally visible bytes into the cursor's own
// buffers.
//
// Cursors are single-threaded: every operation runs synchronously on
// the owning goroutine, and the referenced page and insert entries
// must be held stable by the caller for the duration of each call.
type Cursor struct {
	ref     *PageRef
	slot    int
	recno   uint64
	compare int          // result of the last search, 0 on exact match
	ins     *InsertEntry // pending update at the position, if any

	key   Item
	value Item

	// Exact-match scratch buffers for the row-store path. The search
	// layer decodes a matched key into tmp; keyReturn swaps the two
	// owned buffers so the returned key lives in memory the next
	// search will not overwrite.
	rowKey *Item
	tmp    *Item
	bufA   Item
	bufB   Item

	flags cursorFlags

	src     PageSource
	metrics *Metrics
}

// NewCursor creates a cursor reading through src. metrics may be nil.
func NewCursor(src PageSource, metrics *Metrics) *Cursor {
	c := &Cursor{src: src, metrics: metrics}
	c.rowKey = &c.bufA
	c.tmp = &c.bufB
	return c
}

// SetRowPosition points the cursor at a slot of a row-store leaf.
// compare is the last search's comparison result (0 for an exact
// match, in which case the search layer has already decoded the key
// into ScratchKey). ins is the slot's pending insert entry, if any.
// Repositioning invalidates previously materialized buffers.
func (c *Cursor) SetRowPosition(ref *PageRef, slot, compare int, ins *InsertEntry) {
	c.ref = ref
	c.slot = slot
	c.compare = compare
	c.ins = ins
	c.recno = 0
	c.flags &^= keyInternal | valueInternal | keyExternal | valueExternal
}

// SetColumnPosition points the cursor at a column-store record. For
// variable column pages slot addresses the value cell; for fixed
// column pages only recno is interpreted.
func (c *Cursor) SetColumnPosition(ref *PageRef, slot int, recno uint64, ins *InsertEntry) {
	c.ref = ref
	c.slot = slot
	c.compare = 0
	c.ins = ins
	c.recno = recno
	c.flags &^= keyInternal | valueInternal | keyExternal | valueExternal
}

// ScratchKey returns the buffer the search layer decodes an
// exact-match key into. After key materialization the buffer returned
// here is free scratch again and never aliases the materialized key.
func (c *Cursor) ScratchKey() *Item {
	return c.tmp
}

// Key returns the materialized key bytes. Valid after a successful
// EnsureKey and until the next positioning operation.
func (c *Cursor) Key() []byte {
	c.flags |= keyExternal
	return c.key.Bytes()
}

// Value returns the materialized value bytes. Valid after a successful
// EnsureValue and until the next positioning operation.
func (c *Cursor) Value() []byte {
	c.flags |= valueExternal
	return c.value.Bytes()
}

// Recno returns the record number of the current position on a
// column-store page.
func (c *Cursor) Recno() uint64 {
	return c.recno
}

// keyReturn points the cursor's key at the current position's key.
//
// Row-store leaves have three sources of truth, first match wins: the
// insert entry's key, the exact-match key the search already decoded
// into tmp, or the on-page key cell. Column-store keys are record
// numbers and were set by the positioning call.
func (c *Cursor) keyReturn() error {
	page := c.ref.Page
	if page.Kind() != KindRowLeaf {
		return nil
	}

	if c.ins != nil {
		// The insert entry outlives the cursor's use of it under the
		// page's read protocol, so alias its key without copying.
		c.key.SetAlias(c.ins.Key())
		return nil
	}

	if c.compare == 0 {
		// The search decoded the matching key into tmp. Swap the two
		// owned buffers instead of returning tmp: the caller may
		// search this table again before consuming the key, and a
		// subsequent search overwrites tmp in place.
		c.rowKey, c.tmp = c.tmp, c.rowKey
		c.key.SetAlias(c.rowKey.Bytes())
		return nil
	}

	rip, err := page.rowEntryAt(c.slot)
	if err != nil {
		return err
	}
	return page.decodeRowKey(c.src, c.metrics, rip, &c.key)
}

// ReadTimeWindow reads the time window of the on-page cell at the
// cursor position. Fixed column pages carry no per-value visibility
// metadata, so the window is left globally visible, as it is for row
// values cached as inline at page load.
func (c *Cursor) ReadTimeWindow(w *TimeWindow) error {
	w.Reset()
	page := c.ref.Page
	var u cellUnpack
	switch page.Kind() {
	case KindRowLeaf:
		rip, err := page.rowEntryAt(c.slot)
		if err != nil {
			return err
		}
		if rowHasInlineValue(rip) {
			return nil
		}
		if err := page.rowLeafValueCell(rip, &u); err != nil {
			return err
		}
		w.setFromUnpack(&u)
	case KindColVar:
		if err := page.colVarCell(c.slot, &u); err != nil {
			return err
		}
		w.setFromUnpack(&u)
	}
	return nil
}

// valueReturnBuf materializes the on-page value at ref into buf,
// populating w from the value cell if requested. On success buf owns
// the resolved bytes outright.
func (c *Cursor) valueReturnBuf(ref *PageRef, buf *Item, w *TimeWindow) error {
	page := ref.Page
	if w != nil {
		w.Reset()
	}

	switch page.Kind() {
	case KindRowLeaf:
		rip, err := page.rowEntryAt(c.slot)
		if err != nil {
			return err
		}
		// Simple globally visible values had their location cached
		// when the page was loaded; no cell decode needed and the
		// window stays at the default.
		if ok, err := page.rowInlineValue(rip, buf); ok || err != nil {
			return err
		}
		var u cellUnpack
		if err := page.rowLeafValueCell(rip, &u); err != nil {
			return err
		}
		c.metrics.incCellDecodes()
		if w != nil {
			w.setFromUnpack(&u)
		}
		return cellDataRef(c.src, c.metrics, &u, buf)

	case KindColVar:
		var u cellUnpack
		if err := page.colVarCell(c.slot, &u); err != nil {
			return err
		}
		c.metrics.incCellDecodes()
		if w != nil {
			w.setFromUnpack(&u)
		}
		return cellDataRef(c.src, c.metrics, &u, buf)

	case KindColFix:
		// Fixed-width values carry no visibility metadata; w keeps the
		// globally visible default.
		v, err := bitGetRecno(ref, c.recno, page.BitWidth())
		if err != nil {
			return err
		}
		return buf.Set([]byte{v})

	default:
		return errCorruptedf("page %d has no readable layout", page.PageNo())
	}
}

// ReadValue materializes the on-page value at the cursor position into
// buf, bypassing the cursor's own value buffer. Transaction-level read
// logic uses this to inspect a version and its window without
// disturbing cursor state.
func (c *Cursor) ReadValue(buf *Item, w *TimeWindow) error {
	return c.valueReturnBuf(c.ref, buf, w)
}

// valueReturnUpd takes a pending update's buffer as the cursor's
// value. The resolver above this layer has already checked visibility
// and filtered deletions; only standard updates may reach this point.
// Ownership of the view's buffer transfers to the cursor.
func (c *Cursor) valueReturnUpd(view UpdateView) error {
	if view.Kind != UpdateStandard {
		return errors.AssertionFailedf(
			"verdin: update view of kind %q reached value materialization", view.Kind)
	}
	c.value.take(view.Buf)
	return nil
}

// valueReturn resolves the cursor's value either from the on-page cell
// (no applicable update) or from the selected pending update.
func (c *Cursor) valueReturn(view UpdateView) error {
	if view.Kind == UpdateInvalid {
		return c.valueReturnBuf(c.ref, &c.value, nil)
	}
	return c.valueReturnUpd(view)
}

// EnsureKey materializes the key for the current position into the
// cursor's key buffer. Idempotent: if the key is already materialized
// for this position it is left alone. A cursor search followed by an
// update lands here with the correct key already present and no way to
// recompute it, so the existing buffer must be trusted.
func (c *Cursor) EnsureKey() error {
	c.flags &^= keyExternal
	if c.flags&keyInternal == 0 {
		if err := c.keyReturn(); err != nil {
			return err
		}
		c.metrics.incKeyMaterializations()
		c.flags |= keyInternal
	}
	return nil
}

// EnsureValue materializes the value selected by view into the
// cursor's value buffer. Value resolution is cheap and depends on the
// caller-supplied view, so it always re-resolves. The internal flag is
// only set after success; a failed materialization is retried by the
// next call.
func (c *Cursor) EnsureValue(view UpdateView) error {
	c.flags &^= valueExternal
	if err := c.valueReturn(view); err != nil {
		return err
	}
	c.metrics.incValueMaterializations()
	c.flags |= valueInternal
	return nil
}
