package verdin

// UpdateKind classifies a pending in-memory update.
type UpdateKind uint8

const (
	// UpdateInvalid means no applicable pending update: read the
	// on-page value.
	UpdateInvalid UpdateKind = iota

	// UpdateStandard is a full replacement value.
	UpdateStandard

	// UpdateTombstone marks a deletion. The update resolver above the
	// read path filters these out before value materialization.
	UpdateTombstone
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateInvalid:
		return "invalid"
	case UpdateStandard:
		return "standard"
	case UpdateTombstone:
		return "tombstone"
	default:
		return "unknown"
	}
}

// UpdateView selects which version of a value a read should return:
// either the on-page value (UpdateInvalid) or a specific pending
// update. For UpdateStandard the view's buffer is handed over to the
// cursor on use; the producer must not touch it afterward.
type UpdateView struct {
	Kind UpdateKind
	Buf  []byte
}

// NoUpdate is the view selecting the on-page value.
var NoUpdate = UpdateView{Kind: UpdateInvalid}

// UpdateRecord is one version in an insert-list entry's update chain,
// newest first.
type UpdateRecord struct {
	Kind     UpdateKind
	Data     []byte
	StartTxn uint64
	StartTS  uint64
	Next     *UpdateRecord
}

// View produces the update-view token for this record. Ownership of
// the returned view's buffer transfers to whoever materializes it.
func (u *UpdateRecord) View() UpdateView {
	return UpdateView{Kind: u.Kind, Buf: u.Data}
}
