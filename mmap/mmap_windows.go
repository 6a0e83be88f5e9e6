//go:build windows

package mmap

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

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

	h := windows.Handle(f.Fd())
	mapping, err := windows.CreateFileMapping(h, nil, windows.PAGE_READONLY,
		uint32(size>>32), uint32(size), nil)
	if err != nil {
		f.Close()
		return nil, &Error{Op: "CreateFileMapping", Err: err}
	}

	addr, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(mapping)
		f.Close()
		return nil, &Error{Op: "MapViewOfFile", Err: err}
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return &Map{
		data:    data,
		fd:      int(f.Fd()),
		size:    size,
		handle:  uintptr(h),
		mapping: uintptr(mapping),
	}, nil
}

// Close releases the memory mapping.
func (m *Map) Close() error {
	if m.data == nil {
		return nil
	}

	addr := uintptr(unsafe.Pointer(&m.data[0]))
	err := windows.UnmapViewOfFile(addr)
	m.data = nil
	m.size = 0
	if m.mapping != 0 {
		windows.CloseHandle(windows.Handle(m.mapping))
		m.mapping = 0
	}
	if m.handle != 0 {
		windows.CloseHandle(windows.Handle(m.handle))
		m.handle = 0
	}
	return err
}
