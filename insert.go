package verdin

import (
	"bytes"
	"encoding/binary"
	"math/rand"
)

const (
	// insertMaxHeight is the maximum skip-list height
	insertMaxHeight = 12

	// insertBranching determines the probability of growing a tower
	insertBranching = 4
)

// InsertEntry is a pending update not yet reconciled into a page's
// cell layout: a key plus a chain of update records, newest first.
// Entries outlive any cursor's use of them while the page is held, so
// the read path may alias their key bytes without copying.
type InsertEntry struct {
	key    []byte
	upd    *UpdateRecord
	height int
	next   [insertMaxHeight]*InsertEntry
}

// Key returns the entry's key bytes. The reference is non-owning.
func (e *InsertEntry) Key() []byte {
	return e.key
}

// Update returns the head of the entry's update chain.
func (e *InsertEntry) Update() *UpdateRecord {
	return e.upd
}

// InsertList is a skip list of pending updates over one page, keyed by
// row key (row stores) or by encoded record number (column stores).
// It is written under the page's own write protocol; the read path
// only consumes the key and update accessors.
type InsertList struct {
	head   InsertEntry
	height int
	rnd    *rand.Rand
}

// NewInsertList creates an empty insert list. The seed fixes tower
// heights for reproducible layouts in tests.
func NewInsertList(seed int64) *InsertList {
	return &InsertList{
		height: 1,
		rnd:    rand.New(rand.NewSource(seed)),
	}
}

func (l *InsertList) randomHeight() int {
	h := 1
	for h < insertMaxHeight && l.rnd.Intn(insertBranching) == 0 {
		h++
	}
	return h
}

// findPath locates the entry with the given key, filling prev with the
// rightmost entry before key at every level.
func (l *InsertList) findPath(key []byte, prev *[insertMaxHeight]*InsertEntry) *InsertEntry {
	x := &l.head
	for level := l.height - 1; level >= 0; level-- {
		for x.next[level] != nil && bytes.Compare(x.next[level].key, key) < 0 {
			x = x.next[level]
		}
		prev[level] = x
	}
	if e := prev[0].next[0]; e != nil && bytes.Equal(e.key, key) {
		return e
	}
	return nil
}

// Insert prepends upd to the update chain for key, creating the entry
// if the key has no pending updates yet. The key bytes are copied.
func (l *InsertList) Insert(key []byte, upd *UpdateRecord) *InsertEntry {
	var prev [insertMaxHeight]*InsertEntry
	if e := l.findPath(key, &prev); e != nil {
		upd.Next = e.upd
		e.upd = upd
		return e
	}

	h := l.randomHeight()
	for level := l.height; level < h; level++ {
		prev[level] = &l.head
	}
	if h > l.height {
		l.height = h
	}

	e := &InsertEntry{
		key:    append([]byte(nil), key...),
		upd:    upd,
		height: h,
	}
	for level := 0; level < h; level++ {
		e.next[level] = prev[level].next[level]
		prev[level].next[level] = e
	}
	return e
}

// Search returns the entry for key, or nil if the key has no pending
// updates.
func (l *InsertList) Search(key []byte) *InsertEntry {
	var prev [insertMaxHeight]*InsertEntry
	return l.findPath(key, &prev)
}

// recnoKey encodes a record number as a big-endian key so column-store
// pending updates sort numerically.
func recnoKey(recno uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], recno)
	return b[:]
}

// InsertRecno is Insert for column-store record numbers.
func (l *InsertList) InsertRecno(recno uint64, upd *UpdateRecord) *InsertEntry {
	return l.Insert(recnoKey(recno), upd)
}

// SearchRecno is Search for column-store record numbers.
func (l *InsertList) SearchRecno(recno uint64) *InsertEntry {
	return l.Search(recnoKey(recno))
}
