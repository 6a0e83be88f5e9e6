package verdin

// rowEntry is the in-memory index entry for one row-store leaf slot,
// built when the page is loaded. A slot's cell data is the key cell
// immediately followed by the value cell.
//
// When the value cell is simple (no time window, inline, uncompressed)
// the loader records the absolute location of its raw bytes, so reads
// of globally visible values skip cell decode entirely. inlineOff == 0
// means no such location exists and the value cell must be decoded.
type rowEntry struct {
	keyOff    uint32 // absolute offset of the key cell
	valOff    uint32 // absolute offset of the value cell
	inlineOff uint32 // absolute offset of raw value bytes, 0 if none
	inlineLen uint32
}

// buildRowIndex walks every slot of a row-store leaf once, validating
// both cells and recording their locations.
func (p *Page) buildRowIndex() error {
	n := p.NumEntries()
	p.rows = make([]rowEntry, n)
	var u cellUnpack
	for i := 0; i < n; i++ {
		off, err := p.slotOffset(i)
		if err != nil {
			return err
		}
		if err := unpackCell(p.data, off, &u); err != nil {
			return err
		}
		rip := &p.rows[i]
		rip.keyOff = uint32(off)
		rip.valOff = uint32(off + u.size)

		if err := unpackCell(p.data, int(rip.valOff), &u); err != nil {
			return err
		}
		if !u.hasWindow() && !u.isOverflow() && !u.compressed() {
			rip.inlineOff = rip.valOff + uint32(u.size-u.dataLen)
			rip.inlineLen = uint32(u.dataLen)
		}
	}
	return nil
}

// rowEntryAt returns the row index entry for a slot.
func (p *Page) rowEntryAt(slot int) (*rowEntry, error) {
	if p.Kind() != KindRowLeaf {
		return nil, errCorruptedf("page %d is not a row-store leaf", p.PageNo())
	}
	if slot < 0 || slot >= len(p.rows) {
		return nil, errCorruptedf("row slot %d out of range (page %d has %d rows)",
			slot, p.PageNo(), len(p.rows))
	}
	return &p.rows[slot], nil
}

// rowHasInlineValue returns true if the slot's value bytes were found
// to be simple and globally visible at page load.
func rowHasInlineValue(rip *rowEntry) bool {
	return rip.inlineOff != 0
}

// rowInlineValue copies the slot's cached raw value bytes into buf.
// Returns false if the slot has no inline location.
func (p *Page) rowInlineValue(rip *rowEntry, buf *Item) (bool, error) {
	if !rowHasInlineValue(rip) {
		return false, nil
	}
	end := rip.inlineOff + rip.inlineLen
	return true, buf.Set(p.data[rip.inlineOff:end:end])
}

// rowLeafValueCell unpacks the slot's value cell.
func (p *Page) rowLeafValueCell(rip *rowEntry, u *cellUnpack) error {
	return unpackCell(p.data, int(rip.valOff), u)
}

// decodeRowKey materializes the slot's key bytes into buf, following
// overflow and compression like any other cell payload.
func (p *Page) decodeRowKey(src PageSource, m *Metrics, rip *rowEntry, buf *Item) error {
	var u cellUnpack
	if err := unpackCell(p.data, int(rip.keyOff), &u); err != nil {
		return err
	}
	m.incCellDecodes()
	return cellDataRef(src, m, &u, buf)
}

// colVarCell unpacks the value cell for a variable column-store slot.
func (p *Page) colVarCell(slot int, u *cellUnpack) error {
	if p.Kind() != KindColVar {
		return errCorruptedf("page %d is not a variable column-store page", p.PageNo())
	}
	off, err := p.slotOffset(slot)
	if err != nil {
		return err
	}
	return unpackCell(p.data, off, u)
}
