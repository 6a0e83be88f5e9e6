// Package mmap provides read-only memory mapping of page files.
package mmap

// Map represents a memory-mapped file region.
type Map struct {
	data []byte // Mapped memory region
	fd   int    // File descriptor
	size int64  // Mapped size
	// Windows-specific handles (zero on Unix)
	handle  uintptr
	mapping uintptr
}

// Data returns the mapped byte slice.
func (m *Map) Data() []byte {
	return m.data
}

// Size returns the mapped size.
func (m *Map) Size() int64 {
	return m.size
}

// Error represents an mmap error.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "mmap: " + e.Op + ": " + e.Err.Error()
	}
	return "mmap: " + e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Common errors
var (
	ErrInvalidSize = &Error{Op: "invalid size"}
	ErrNotMapped   = &Error{Op: "not mapped"}
	ErrEmptyFile   = &Error{Op: "empty file"}
)
