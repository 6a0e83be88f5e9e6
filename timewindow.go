package verdin

import "fmt"

// TimeWindow is the MVCC visibility interval of a value: the
// transaction-id and timestamp bounds [start, stop) during which the
// value is the current version. A fresh window is globally visible.
//
// Windows are plain values: stack-allocated by the caller and copied,
// never shared.
type TimeWindow struct {
	StartTxn uint64
	StartTS  uint64
	StopTxn  uint64
	StopTS   uint64
}

// Reset sets the window to globally visible.
func (w *TimeWindow) Reset() {
	w.StartTxn = TxnNone
	w.StartTS = TSNone
	w.StopTxn = TxnMax
	w.StopTS = TSMax
}

// setFromUnpack copies the visibility fields from a decoded cell.
// All four fields are written together; a cell that failed to decode
// never reaches this point.
func (w *TimeWindow) setFromUnpack(u *cellUnpack) {
	w.StartTxn = u.startTxn
	w.StartTS = u.startTS
	w.StopTxn = u.stopTxn
	w.StopTS = u.stopTS
}

// IsGloballyVisible returns true if the window is the default
// globally-visible interval.
func (w *TimeWindow) IsGloballyVisible() bool {
	return w.StartTxn == TxnNone && w.StartTS == TSNone &&
		w.StopTxn == TxnMax && w.StopTS == TSMax
}

// String formats the window for debugging and the dump tool.
func (w *TimeWindow) String() string {
	return fmt.Sprintf("[txn %d/ts %d, txn %d/ts %d)",
		w.StartTxn, w.StartTS, w.StopTxn, w.StopTS)
}
