package verdin

import (
	"encoding/binary"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/snappy"
)

// Builder constructs sealed page images: row-store leaves, column
// pages and the overflow pages their cells point at. Page numbers are
// assigned sequentially, so the concatenated images form a valid page
// file for FileSource.
type Builder struct {
	pageSize int
	txnid    uint64
	images   [][]byte
}

// NewBuilder creates a builder producing pages of the given size.
func NewBuilder(pageSize int) (*Builder, error) {
	if pageSize < MinPageSize || pageSize > MaxPageSize {
		return nil, errors.Newf("verdin: invalid page size %d", pageSize)
	}
	return &Builder{pageSize: pageSize}, nil
}

// SetTxnid sets the creating-transaction id stamped on subsequent
// pages.
func (b *Builder) SetTxnid(id uint64) {
	b.txnid = id
}

// RowLeafEntry is one key/value pair for BuildRowLeaf. A nil Window
// means globally visible. Compress stores the value snappy-compressed;
// Overflow pushes the (possibly compressed) value bytes to an overflow
// page.
type RowLeafEntry struct {
	Key      []byte
	Value    []byte
	Window   *TimeWindow
	Compress bool
	Overflow bool
}

// ColVarEntry is one value for BuildColVar, with the same options as
// RowLeafEntry.
type ColVarEntry struct {
	Value    []byte
	Window   *TimeWindow
	Compress bool
	Overflow bool
}

// newImage allocates a blank page image with its header stamped.
func (b *Builder) newImage(kind PageKind, aux uint16) ([]byte, uint32) {
	no := uint32(len(b.images))
	img := make([]byte, b.pageSize)
	binary.LittleEndian.PutUint64(img[0:], b.txnid)
	binary.LittleEndian.PutUint16(img[8:], aux)
	binary.LittleEndian.PutUint16(img[10:], uint16(kind))
	binary.LittleEndian.PutUint32(img[16:], no)
	b.images = append(b.images, img)
	return img, no
}

// addOverflow stores payload on a fresh overflow page and returns its
// page number.
func (b *Builder) addOverflow(payload []byte) (pgno, error) {
	if len(payload) > b.pageSize-PageHeaderSize-PageTrailerSize {
		return pgno(InvalidPageNo), errors.Newf(
			"verdin: overflow payload of %d bytes exceeds page size %d", len(payload), b.pageSize)
	}
	img, no := b.newImage(KindOverflow, 0)
	binary.LittleEndian.PutUint16(img[12:], uint16(len(payload)&0xFFFF))
	binary.LittleEndian.PutUint16(img[14:], uint16(len(payload)>>16))
	copy(img[PageHeaderSize:], payload)
	writePageChecksum(img)
	return pgno(no), nil
}

// encodeValueCell encodes one value cell, allocating an overflow page
// when asked for.
func (b *Builder) encodeValueCell(dst, value []byte, w *TimeWindow, compress, overflow bool) ([]byte, error) {
	stored := value
	if compress {
		stored = snappy.Encode(nil, value)
	}
	if overflow {
		no, err := b.addOverflow(stored)
		if err != nil {
			return nil, err
		}
		return appendCell(dst, w, nil, len(value), compress, no, len(stored)), nil
	}
	return appendCell(dst, w, stored, len(value), compress, pgno(InvalidPageNo), len(stored)), nil
}

// finishSlotted lays the encoded slot blobs onto a slotted page image:
// slot directory growing up from the header, cell data growing down
// from the trailer.
func (b *Builder) finishSlotted(img []byte, blobs [][]byte) error {
	upper := len(img) - PageTrailerSize
	lower := PageHeaderSize + len(blobs)*2
	for i, blob := range blobs {
		upper -= len(blob)
		if upper < lower {
			return errors.Newf("verdin: %d entries do not fit on a %d byte page", len(blobs), len(img))
		}
		copy(img[upper:], blob)
		binary.LittleEndian.PutUint16(img[PageHeaderSize+i*2:], uint16(upper-PageHeaderSize))
	}
	binary.LittleEndian.PutUint16(img[12:], uint16(len(blobs)*2))
	binary.LittleEndian.PutUint16(img[14:], uint16(upper-PageHeaderSize))
	writePageChecksum(img)
	return nil
}

// BuildRowLeaf constructs a row-store leaf. Entries must already be in
// key order; each slot holds the key cell immediately followed by the
// value cell.
func (b *Builder) BuildRowLeaf(entries []RowLeafEntry) (uint32, error) {
	blobs := make([][]byte, len(entries))
	for i, e := range entries {
		if len(e.Key) == 0 || len(e.Key) > MaxKeySize {
			return 0, errors.Newf("verdin: invalid key size %d at entry %d", len(e.Key), i)
		}
		blob := appendCell(nil, nil, e.Key, len(e.Key), false, pgno(InvalidPageNo), len(e.Key))
		blob, err := b.encodeValueCell(blob, e.Value, e.Window, e.Compress, e.Overflow)
		if err != nil {
			return 0, err
		}
		blobs[i] = blob
	}
	img, no := b.newImage(KindRowLeaf, 0)
	if err := b.finishSlotted(img, blobs); err != nil {
		return 0, err
	}
	return no, nil
}

// BuildColVar constructs a variable column-store page. Slot i holds
// the value for record BaseRecno+i; the base lives in the caller's
// PageRef, not on the page.
func (b *Builder) BuildColVar(entries []ColVarEntry) (uint32, error) {
	blobs := make([][]byte, len(entries))
	for i, e := range entries {
		blob, err := b.encodeValueCell(nil, e.Value, e.Window, e.Compress, e.Overflow)
		if err != nil {
			return 0, err
		}
		blobs[i] = blob
	}
	img, no := b.newImage(KindColVar, 0)
	if err := b.finishSlotted(img, blobs); err != nil {
		return 0, err
	}
	return no, nil
}

// BuildColFix constructs a fixed column-store page from width-bit
// values, packed contiguously most significant bit first. Widths of 1
// through 8 bits are supported.
func (b *Builder) BuildColFix(width uint8, values []uint8) (uint32, error) {
	if width < 1 || width > 8 {
		return 0, errors.Newf("verdin: unsupported bit width %d", width)
	}
	need := (len(values)*int(width) + 7) / 8
	if need > b.pageSize-PageHeaderSize-PageTrailerSize {
		return 0, errors.Newf("verdin: %d fixed values do not fit on a %d byte page",
			len(values), b.pageSize)
	}

	img, no := b.newImage(KindColFix, uint16(width))
	for i, v := range values {
		bitSet(img[PageHeaderSize:len(img)-PageTrailerSize], uint64(i), width, v)
	}
	binary.LittleEndian.PutUint16(img[12:], uint16(len(values)&0xFFFF))
	binary.LittleEndian.PutUint16(img[14:], uint16(len(values)>>16))
	writePageChecksum(img)
	return no, nil
}

// Source loads every built page into an in-memory source.
func (b *Builder) Source() (*MemSource, error) {
	src := NewMemSource()
	for _, img := range b.images {
		if _, err := src.AddImage(img); err != nil {
			return nil, err
		}
	}
	return src, nil
}

// WriteFile writes the concatenated page images as a page file
// readable by FileSource.
func (b *Builder) WriteFile(path string) error {
	out := make([]byte, 0, len(b.images)*b.pageSize)
	for _, img := range b.images {
		out = append(out, img...)
	}
	return os.WriteFile(path, out, 0644)
}
