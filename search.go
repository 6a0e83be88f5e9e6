package verdin

import "bytes"

// SearchRowLeaf binary-searches a row-store leaf for key and positions
// cur on the result. The returned compare value is 0 on an exact match,
// in which case the matched key has been decoded into cur's scratch
// buffer, ready for key materialization. Otherwise cur is left on the
// slot with the greatest key not greater than the search key (slot 0
// when every key is greater), with compare reporting the slot key's
// ordering relative to the search key.
func SearchRowLeaf(cur *Cursor, ref *PageRef, key []byte) (slot, compare int, err error) {
	page := ref.Page
	if page.Kind() != KindRowLeaf {
		return 0, 0, errCorruptedf("page %d is not a row-store leaf", page.PageNo())
	}
	if page.NumEntries() == 0 {
		return 0, 0, ErrNotFound
	}
	scratch := cur.ScratchKey()

	lo, hi := 0, page.NumEntries()-1
	compare = 1
	for lo <= hi {
		mid := (lo + hi) / 2
		rip, err := page.rowEntryAt(mid)
		if err != nil {
			return 0, 0, err
		}
		if err := page.decodeRowKey(cur.src, cur.metrics, rip, scratch); err != nil {
			return 0, 0, err
		}
		slot = mid
		switch compare = bytes.Compare(scratch.Bytes(), key); {
		case compare < 0:
			lo = mid + 1
		case compare > 0:
			hi = mid - 1
		default:
			cur.SetRowPosition(ref, mid, 0, nil)
			return mid, 0, nil
		}
	}

	// Settle on the nearest slot at or before the key, mirroring how
	// descent lands between separators.
	if compare > 0 && slot > 0 {
		slot--
		rip, err := page.rowEntryAt(slot)
		if err != nil {
			return 0, 0, err
		}
		if err := page.decodeRowKey(cur.src, cur.metrics, rip, scratch); err != nil {
			return 0, 0, err
		}
		compare = bytes.Compare(scratch.Bytes(), key)
	}
	cur.SetRowPosition(ref, slot, compare, nil)
	return slot, compare, nil
}
