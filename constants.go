package verdin

// Page size constraints
const (
	// MinPageSize is the minimum allowed page size (256 bytes)
	MinPageSize = 256

	// MaxPageSize is the maximum allowed page size (64KB)
	MaxPageSize = 65536

	// DefaultPageSize is the default page size (4KB)
	DefaultPageSize = 4096
)

// Page layout sizes
const (
	// PageHeaderSize is the fixed page header size (20 bytes)
	PageHeaderSize = 20

	// PageTrailerSize is the page trailer size (8-byte xxhash64 checksum)
	PageTrailerSize = 8
)

// Item size limits
const (
	// MaxKeySize is the maximum size of a key
	MaxKeySize = MaxPageSize / 2

	// MaxValueSize is the maximum logical size of a value
	MaxValueSize = 1 << 30
)

// Transaction ID and timestamp bounds. A value written with no
// visibility metadata is globally visible: its window is
// [TxnNone/TSNone, TxnMax/TSMax).
const (
	// TxnNone marks the absence of a transaction ID
	TxnNone uint64 = 0

	// TxnMax is the maximum transaction ID
	TxnMax uint64 = 0xFFFFFFFFFFFFFFFF

	// TSNone marks the absence of a timestamp
	TSNone uint64 = 0

	// TSMax is the maximum timestamp
	TSMax uint64 = 0xFFFFFFFFFFFFFFFF
)

// InvalidPageNo represents an invalid page number
const InvalidPageNo uint32 = 0xFFFFFFFF
