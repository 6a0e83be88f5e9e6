package verdin

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// pgno is a page number (32-bit)
type pgno uint32

// PageKind identifies the layout of a page. The read path dispatches
// on it exactly once per call.
type PageKind uint16

const (
	// KindRowLeaf is a row-store leaf: explicit key/value cell pairs.
	KindRowLeaf PageKind = 0x01

	// KindColVar is a variable-width column-store page: one value cell
	// per slot, keyed by record number.
	KindColVar PageKind = 0x02

	// KindColFix is a fixed-width column-store page: bit-packed
	// equal-width values, keyed by record number.
	KindColFix PageKind = 0x04

	// KindOverflow is an overflow page holding a single large payload.
	KindOverflow PageKind = 0x08

	pageKindMask = KindRowLeaf | KindColVar | KindColFix | KindOverflow
)

// Page header layout (little-endian):
//
//	Offset  Size  Field
//	0       8     txnid (transaction that created this page)
//	8       2     aux (bit width for KindColFix, else 0)
//	10      2     flags (page kind)
//	12      2     lower (slot count * 2; overflow/colfix: count low)
//	14      2     upper (free-space bound; overflow/colfix: count high)
//	16      4     pgno
//	20      ...   slot directory then cell data
//	end-8   8     xxhash64 checksum of everything before it
//
// Slot offsets are stored relative to PageHeaderSize; add it back to
// get the absolute position, matching the directory layout the builder
// writes.
type Page struct {
	data []byte

	// Row index, built once when a row-store leaf is loaded. Each entry
	// records the absolute offsets of the slot's key and value cells
	// and, when the value is simple and globally visible, the location
	// of the raw value bytes so reads can skip cell decode entirely.
	rows []rowEntry
}

// pageFlags returns the raw flags field.
func pageFlags(data []byte) uint16 {
	return binary.LittleEndian.Uint16(data[10:])
}

// Kind returns the page's layout kind.
func (p *Page) Kind() PageKind {
	return PageKind(pageFlags(p.data)) & pageKindMask
}

// PageNo returns the page's number.
func (p *Page) PageNo() uint32 {
	return binary.LittleEndian.Uint32(p.data[16:])
}

// Txnid returns the id of the transaction that created the page.
func (p *Page) Txnid() uint64 {
	return binary.LittleEndian.Uint64(p.data[0:])
}

// NumEntries returns the number of slots on a row-leaf or var-column
// page.
func (p *Page) NumEntries() int {
	lower := binary.LittleEndian.Uint16(p.data[12:])
	return int(lower) >> 1
}

// BitWidth returns the per-value bit width of a fixed column page.
func (p *Page) BitWidth() uint8 {
	return uint8(binary.LittleEndian.Uint16(p.data[8:]))
}

// RecordCount returns the number of records on a fixed column page.
// The count is stored as a 32-bit value split across lower/upper.
func (p *Page) RecordCount() uint32 {
	lower := binary.LittleEndian.Uint16(p.data[12:])
	upper := binary.LittleEndian.Uint16(p.data[14:])
	return uint32(lower) | uint32(upper)<<16
}

// overflowLen returns the payload byte length of an overflow page,
// stored the same way as the fixed-column record count.
func (p *Page) overflowLen() uint32 {
	return p.RecordCount()
}

// slotOffset returns the absolute offset of the cell data for a slot.
func (p *Page) slotOffset(slot int) (int, error) {
	if slot < 0 || slot >= p.NumEntries() {
		return 0, errCorruptedf("slot %d out of range (page %d has %d entries)",
			slot, p.PageNo(), p.NumEntries())
	}
	stored := binary.LittleEndian.Uint16(p.data[PageHeaderSize+slot*2:])
	off := int(stored) + PageHeaderSize
	if off < PageHeaderSize || off >= len(p.data)-PageTrailerSize {
		return 0, errCorruptedf("slot %d offset %d out of bounds (page %d)",
			slot, off, p.PageNo())
	}
	return off, nil
}

// fixPayload returns the bit-packed payload area of a fixed column
// page.
func (p *Page) fixPayload() []byte {
	return p.data[PageHeaderSize : len(p.data)-PageTrailerSize]
}

// pageChecksum computes the checksum over a page image, excluding the
// trailer itself.
func pageChecksum(data []byte) uint64 {
	return xxhash.Sum64(data[:len(data)-PageTrailerSize])
}

// writePageChecksum seals a page image.
func writePageChecksum(data []byte) {
	binary.LittleEndian.PutUint64(data[len(data)-PageTrailerSize:], pageChecksum(data))
}

// LoadPage validates a page image and prepares it for reads. For
// row-store leaves the row index is built here, so per-slot reads stay
// allocation free. The image is retained by reference; it must stay
// stable for the page's lifetime.
func LoadPage(data []byte) (*Page, error) {
	if len(data) < PageHeaderSize+PageTrailerSize {
		return nil, errCorruptedf("page image too small: %d bytes", len(data))
	}
	if len(data) > MaxPageSize {
		return nil, errCorruptedf("page image too large: %d bytes", len(data))
	}
	stored := binary.LittleEndian.Uint64(data[len(data)-PageTrailerSize:])
	if sum := pageChecksum(data); sum != stored {
		return nil, errCorruptedf("page checksum mismatch: computed %x, stored %x", sum, stored)
	}
	if flags := pageFlags(data); flags&^uint16(pageKindMask) != 0 {
		return nil, errCorruptedf("invalid page flags %#x", flags)
	}

	p := &Page{data: data}
	kind := p.Kind()
	switch kind {
	case KindRowLeaf, KindColVar:
		// Slot directory must fit between header and trailer.
		n := p.NumEntries()
		if PageHeaderSize+n*2 > len(data)-PageTrailerSize {
			return nil, errCorruptedf("slot directory overruns page %d", p.PageNo())
		}
		if kind == KindRowLeaf {
			if err := p.buildRowIndex(); err != nil {
				return nil, err
			}
		}
	case KindColFix:
		w := p.BitWidth()
		if w < 1 || w > 8 {
			return nil, errCorruptedf("fixed column page %d has bad bit width %d", p.PageNo(), w)
		}
		bits := uint64(p.RecordCount()) * uint64(w)
		if need := (bits + 7) / 8; need > uint64(len(p.fixPayload())) {
			return nil, errCorruptedf("fixed column page %d payload short: %d records, %d bytes",
				p.PageNo(), p.RecordCount(), len(p.fixPayload()))
		}
	case KindOverflow:
		if int(p.overflowLen()) > len(data)-PageHeaderSize-PageTrailerSize {
			return nil, errCorruptedf("overflow page %d length %d overruns image",
				p.PageNo(), p.overflowLen())
		}
	default:
		return nil, errCorruptedf("invalid page flags %#x", pageFlags(data))
	}
	return p, nil
}

// PageRef addresses a page held by the caller under its own read
// protocol. The read path only looks through it. BaseRecno is the
// record number of slot 0 on column-store pages.
type PageRef struct {
	Page      *Page
	BaseRecno uint64
}
