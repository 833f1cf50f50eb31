// Package mmap wraps a fixed-size shared memory mapping over the data
// file: an 8-byte big-endian write-offset header followed by the frame
// stream, built on golang.org/x/sys/unix.
package mmap

import (
	"encoding/binary"
	"os"

	"golang.org/x/sys/unix"

	"github.com/wesleyyan-sb/minikv/internal/errs"
	"github.com/wesleyyan-sb/minikv/internal/minikvlog"
)

// HeaderSize is the size in bytes of the leading write-offset word.
const HeaderSize = 8

const logTag = "minikv:mmap"

// Map is a fixed-length shared mapping. It is never resized in place:
// growth recreates the mapping via Open on a larger file.
type Map struct {
	data []byte
}

// Open maps the first size bytes of f as PROT_READ|PROT_WRITE, MAP_SHARED,
// advised MADV_WILLNEED.
func Open(f *os.File, size int) (*Map, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err)
	}
	if err := unix.Madvise(data, unix.MADV_WILLNEED); err != nil {
		minikvlog.Warnf(logTag, "madvise WILLNEED failed: %v", err)
	}
	return &Map{data: data}, nil
}

// Len is the total mapped length, header included.
func (m *Map) Len() int {
	return len(m.data)
}

// WriteOffset reads the 8-byte header: the number of content bytes after
// the header.
func (m *Map) WriteOffset() uint64 {
	return binary.BigEndian.Uint64(m.data[:HeaderSize])
}

func (m *Map) setWriteOffset(w uint64) {
	binary.BigEndian.PutUint64(m.data[:HeaderSize], w)
}

// Append copies bytes to the tail of the content region and advances the
// write offset. The caller (the single writer thread) is responsible for
// having checked that bytes fits before calling.
func (m *Map) Append(bytes []byte) error {
	w := m.WriteOffset()
	start := HeaderSize + w
	end := start + uint64(len(bytes))
	if end > uint64(len(m.data)) {
		return errs.Newf(errs.IOError, "append of %d bytes would exceed mapped length %d", len(bytes), len(m.data))
	}
	copy(m.data[start:end], bytes)
	m.setWriteOffset(w + uint64(len(bytes)))
	return nil
}

// Reset sets the write offset back to zero. Stale bytes beyond the new
// offset are left in place; they are unreachable once position is reset.
func (m *Map) Reset() {
	m.setWriteOffset(0)
}

// Read returns the content bytes in [off, off+length), relative to the
// start of the content region (i.e. not counting the header).
func (m *Map) Read(off, length int) ([]byte, error) {
	start := HeaderSize + off
	end := start + length
	if off < 0 || length < 0 || end > len(m.data) {
		return nil, errs.New(errs.IOError)
	}
	return m.data[start:end], nil
}

// Sync flushes the written prefix [0, 8+W) to disk synchronously.
func (m *Map) Sync() error {
	w := m.WriteOffset()
	end := int(HeaderSize + w)
	if end > len(m.data) {
		end = len(m.data)
	}
	if err := unix.Msync(m.data[:end], unix.MS_SYNC); err != nil {
		return errs.Wrap(errs.IOError, err)
	}
	return nil
}

// Close flushes and unmaps. Growth recreates the mapping by calling Close
// on the old one and Open on the new, larger file size.
func (m *Map) Close() error {
	if m.data == nil {
		return nil
	}
	syncErr := m.Sync()
	err := unix.Munmap(m.data)
	m.data = nil
	if err != nil {
		return errs.Wrap(errs.IOError, err)
	}
	return syncErr
}
