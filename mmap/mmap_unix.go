//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// New creates a read-only mapping for the given file descriptor.
// The offset must be page-aligned.
func New(fd int, offset int64, length int) (*Map, error) {
	if length <= 0 {
		return nil, ErrInvalidSize
	}

	data, err := unix.Mmap(fd, offset, length, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, &Error{Op: "mmap", Err: err}
	}

	return &Map{
		data: data,
		fd:   fd,
		size: int64(length),
	}, nil
}

// MapFile opens a file and maps it read-only in its entirety.
func MapFile(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		f.Close()
		return nil, ErrEmptyFile
	}

	m, err := New(int(f.Fd()), 0, int(size))
	if err != nil {
		f.Close()
		return nil, err
	}

	return m, nil
}

// Close releases the memory mapping.
func (m *Map) Close() error {
	if m.data == nil {
		return nil
	}

	err := unix.Munmap(m.data)
	m.data = nil
	m.size = 0
	if m.fd >= 0 {
		unix.Close(m.fd)
		m.fd = -1
	}
	return err
}
