package verdin

// Item is an owned byte buffer in the style of a database item: it
// either owns its backing array (after Set) or references memory owned
// by someone else (after SetAlias). Cursors expose their key and value
// through items, and the row-store exact-match path swaps two owned
// items instead of copying.
type Item struct {
	data  []byte
	alias bool
}

// Bytes returns the item's current contents. The slice is valid until
// the next operation that repositions the owning cursor.
func (it *Item) Bytes() []byte {
	return it.data
}

// Len returns the item's current length.
func (it *Item) Len() int {
	return len(it.data)
}

// Set copies b into the item's owned backing array, growing it as
// needed. After Set the item's bytes are independent of b.
func (it *Item) Set(b []byte) error {
	if len(b) > MaxValueSize {
		return ErrAllocation
	}
	if it.alias || cap(it.data) < len(b) {
		it.data = make([]byte, len(b))
		it.alias = false
	} else {
		it.data = it.data[:len(b)]
	}
	copy(it.data, b)
	return nil
}

// SetAlias points the item at externally owned memory without copying.
// The caller guarantees the referenced memory outlives the item's use.
func (it *Item) SetAlias(b []byte) {
	it.data = b
	it.alias = true
}

// take moves ownership of b into the item. The previous owner must not
// reuse or modify b afterward.
func (it *Item) take(b []byte) {
	it.data = b
	it.alias = false
}

// reset empties the item, keeping owned capacity for reuse.
func (it *Item) reset() {
	if it.alias {
		it.data = nil
		it.alias = false
		return
	}
	it.data = it.data[:0]
}

// grow returns the item's owned backing array resized to n bytes,
// reallocating if the current capacity is insufficient. The contents
// are unspecified.
func (it *Item) grow(n int) ([]byte, error) {
	if n > MaxValueSize {
		return nil, ErrAllocation
	}
	if it.alias || cap(it.data) < n {
		it.data = make([]byte, n)
		it.alias = false
	} else {
		it.data = it.data[:n]
	}
	return it.data, nil
}
