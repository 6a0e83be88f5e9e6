package verdin

import (
	"github.com/cockroachdb/errors"
)

// Error taxonomy for the read path. Decode failures are returned
// immediately without partial mutation of cursor state; callers decide
// retry policy. Caller contract violations are reported through
// errors.AssertionFailedf and are not expected in correct operation.
var (
	// ErrCorrupted indicates a malformed on-page cell or row entry.
	ErrCorrupted = errors.New("verdin: corrupted page format")

	// ErrIO indicates an underlying page or overflow read failure.
	ErrIO = errors.New("verdin: page read failure")

	// ErrAllocation indicates a buffer could not grow to the required
	// size (the item exceeds the configured limits).
	ErrAllocation = errors.New("verdin: buffer allocation failure")

	// ErrNotFound indicates the requested slot or record does not exist.
	ErrNotFound = errors.New("verdin: not found")
)

// IsCorrupted returns true if the error indicates page corruption.
func IsCorrupted(err error) bool {
	return errors.Is(err, ErrCorrupted)
}

// IsIO returns true if the error indicates a page read failure.
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// errCorruptedf wraps ErrCorrupted with detail about the damage.
func errCorruptedf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrCorrupted, format, args...)
}

// errIOf marks an underlying read failure as ErrIO, keeping the cause.
func errIOf(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrIO)
}
