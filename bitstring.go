package verdin

// Fixed-width column values are packed contiguously, most significant
// bit first: the value for entry n occupies bits [n*width, n*width +
// width), where bit 0 is the high bit of byte 0. Widths of 1 through 8
// bits are supported; a value may span a byte boundary.

// bitGet extracts the width-bit value at position entry from a packed
// byte string.
func bitGet(bitf []byte, entry uint64, width uint8) uint8 {
	bitOff := entry * uint64(width)
	byteOff := bitOff >> 3
	shift := uint(bitOff & 7)

	v := uint16(bitf[byteOff]) << 8
	if int(byteOff)+1 < len(bitf) {
		v |= uint16(bitf[byteOff+1])
	}
	v <<= shift
	return uint8(v >> (16 - uint(width)))
}

// bitSet packs the width-bit value v at position entry. The byte
// string must be zeroed beforehand.
func bitSet(bitf []byte, entry uint64, width uint8, v uint8) {
	bitOff := entry * uint64(width)
	byteOff := bitOff >> 3
	shift := uint(bitOff & 7)
	v &= uint8(1)<<width - 1

	first := 8 - shift
	if uint(width) <= first {
		bitf[byteOff] |= v << (first - uint(width))
		return
	}
	rest := uint(width) - first
	bitf[byteOff] |= v >> rest
	bitf[byteOff+1] |= (v & (1<<rest - 1)) << (8 - rest)
}

// bitGetRecno extracts one fixed-width value addressed by record
// number, translating through the page's base record number.
func bitGetRecno(ref *PageRef, recno uint64, width uint8) (uint8, error) {
	if recno < ref.BaseRecno {
		return 0, errCorruptedf("record %d below page base %d", recno, ref.BaseRecno)
	}
	entry := recno - ref.BaseRecno
	if entry >= uint64(ref.Page.RecordCount()) {
		return 0, ErrNotFound
	}
	return bitGet(ref.Page.fixPayload(), entry, width), nil
}
