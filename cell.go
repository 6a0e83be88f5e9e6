package verdin

import (
	"encoding/binary"

	"github.com/klauspost/compress/snappy"
)

// Cell flags. A cell is one encoded key or value unit on a page:
// optional time window, then the payload either inline (raw or
// snappy-compressed) or on an overflow page.
const (
	cellHasWindow uint8 = 0x01
	cellOverflow  uint8 = 0x02
	cellCompress  uint8 = 0x04

	cellFlagsMask = cellHasWindow | cellOverflow | cellCompress
)

// Cell layout:
//
//	1 byte   flags
//	uvarint  start txn   } present only with cellHasWindow,
//	uvarint  start ts    } all four together
//	uvarint  stop txn    }
//	uvarint  stop ts     }
//	uvarint  data length (logical, uncompressed)
//	uvarint  overflow pgno   } cellOverflow only
//	uvarint  stored length   } cellOverflow or cellCompress
//	...      inline payload (absent for cellOverflow)
//
// cellUnpack is the decoded form. The window fields are always
// populated: globally visible when the cell carries no window.
type cellUnpack struct {
	flags uint8

	startTxn uint64
	startTS  uint64
	stopTxn  uint64
	stopTS   uint64

	dataLen   int    // logical payload length
	storedLen int    // on-page/overflow byte count (== dataLen when raw)
	payload   []byte // inline stored bytes; nil for overflow cells
	ovflPgno  pgno

	size int // total encoded size of the cell
}

func (u *cellUnpack) hasWindow() bool  { return u.flags&cellHasWindow != 0 }
func (u *cellUnpack) isOverflow() bool { return u.flags&cellOverflow != 0 }
func (u *cellUnpack) compressed() bool { return u.flags&cellCompress != 0 }

// unpackCell decodes the cell starting at off within a page image.
// Nothing is written to u on failure.
func unpackCell(data []byte, off int, u *cellUnpack) error {
	end := len(data) - PageTrailerSize
	if off < PageHeaderSize || off >= end {
		return errCorruptedf("cell offset %d out of bounds", off)
	}
	var out cellUnpack
	out.flags = data[off]
	if out.flags&^cellFlagsMask != 0 {
		return errCorruptedf("invalid cell flags %#x at offset %d", out.flags, off)
	}
	pos := off + 1

	readUvarint := func() (uint64, error) {
		v, n := binary.Uvarint(data[pos:end])
		if n <= 0 {
			return 0, errCorruptedf("truncated varint in cell at offset %d", off)
		}
		pos += n
		return v, nil
	}

	if out.flags&cellHasWindow != 0 {
		var err error
		if out.startTxn, err = readUvarint(); err != nil {
			return err
		}
		if out.startTS, err = readUvarint(); err != nil {
			return err
		}
		if out.stopTxn, err = readUvarint(); err != nil {
			return err
		}
		if out.stopTS, err = readUvarint(); err != nil {
			return err
		}
	} else {
		out.startTxn, out.startTS = TxnNone, TSNone
		out.stopTxn, out.stopTS = TxnMax, TSMax
	}

	dataLen, err := readUvarint()
	if err != nil {
		return err
	}
	if dataLen > MaxValueSize {
		return errCorruptedf("cell data length %d exceeds maximum", dataLen)
	}
	out.dataLen = int(dataLen)

	switch {
	case out.flags&cellOverflow != 0:
		ovfl, err := readUvarint()
		if err != nil {
			return err
		}
		stored, err := readUvarint()
		if err != nil {
			return err
		}
		if ovfl >= uint64(InvalidPageNo) {
			return errCorruptedf("cell references invalid overflow page %d", ovfl)
		}
		if stored > MaxValueSize {
			return errCorruptedf("cell stored length %d exceeds maximum", stored)
		}
		out.ovflPgno = pgno(ovfl)
		out.storedLen = int(stored)

	case out.flags&cellCompress != 0:
		stored, err := readUvarint()
		if err != nil {
			return err
		}
		if stored > MaxValueSize {
			return errCorruptedf("cell stored length %d exceeds maximum", stored)
		}
		out.storedLen = int(stored)
		if pos+out.storedLen > end {
			return errCorruptedf("compressed cell payload overruns page (offset %d)", off)
		}
		out.payload = data[pos : pos+out.storedLen : pos+out.storedLen]
		pos += out.storedLen

	default:
		out.storedLen = out.dataLen
		if pos+out.dataLen > end {
			return errCorruptedf("cell payload overruns page (offset %d)", off)
		}
		out.payload = data[pos : pos+out.dataLen : pos+out.dataLen]
		pos += out.dataLen
	}

	out.size = pos - off
	*u = out
	return nil
}

// cellDataRef materializes the cell's final payload bytes into buf,
// following overflow indirection and undoing compression. On success
// buf owns exactly dataLen bytes.
func cellDataRef(src PageSource, m *Metrics, u *cellUnpack, buf *Item) error {
	stored := u.payload
	if u.isOverflow() {
		if src == nil {
			return errCorruptedf("overflow cell but no page source (page %d)", u.ovflPgno)
		}
		ovfl, err := src.Page(uint32(u.ovflPgno))
		if err != nil {
			return errIOf(err, "reading overflow page %d", u.ovflPgno)
		}
		if ovfl.Kind() != KindOverflow {
			return errCorruptedf("page %d is not an overflow page", u.ovflPgno)
		}
		if int(ovfl.overflowLen()) != u.storedLen {
			return errCorruptedf("overflow page %d holds %d bytes, cell expects %d",
				u.ovflPgno, ovfl.overflowLen(), u.storedLen)
		}
		stored = ovfl.data[PageHeaderSize : PageHeaderSize+u.storedLen]
		m.incOverflowReads()
	}

	if u.compressed() {
		n, err := snappy.DecodedLen(stored)
		if err != nil || n != u.dataLen {
			return errCorruptedf("compressed cell length mismatch: cell says %d", u.dataLen)
		}
		dst, err := buf.grow(u.dataLen)
		if err != nil {
			return err
		}
		if _, err := snappy.Decode(dst, stored); err != nil {
			return errCorruptedf("compressed cell payload is undecodable: %v", err)
		}
		m.incDecompressions()
		return nil
	}

	if len(stored) != u.dataLen {
		return errCorruptedf("cell payload length mismatch: %d stored, %d expected",
			len(stored), u.dataLen)
	}
	return buf.Set(stored)
}

// appendCell encodes a cell onto dst. A nil window encodes a globally
// visible cell with no window bytes. When ovfl is valid the payload
// argument is the stored (possibly compressed) length only; the bytes
// themselves live on the overflow page.
func appendCell(dst []byte, w *TimeWindow, payload []byte, dataLen int, compressed bool, ovfl pgno, storedLen int) []byte {
	flags := uint8(0)
	if w != nil && !w.IsGloballyVisible() {
		flags |= cellHasWindow
	}
	if ovfl != pgno(InvalidPageNo) {
		flags |= cellOverflow
	}
	if compressed {
		flags |= cellCompress
	}
	dst = append(dst, flags)
	if flags&cellHasWindow != 0 {
		dst = binary.AppendUvarint(dst, w.StartTxn)
		dst = binary.AppendUvarint(dst, w.StartTS)
		dst = binary.AppendUvarint(dst, w.StopTxn)
		dst = binary.AppendUvarint(dst, w.StopTS)
	}
	dst = binary.AppendUvarint(dst, uint64(dataLen))
	switch {
	case flags&cellOverflow != 0:
		dst = binary.AppendUvarint(dst, uint64(ovfl))
		dst = binary.AppendUvarint(dst, uint64(storedLen))
	case flags&cellCompress != 0:
		dst = binary.AppendUvarint(dst, uint64(len(payload)))
		dst = append(dst, payload...)
	default:
		dst = append(dst, payload...)
	}
	return dst
}
