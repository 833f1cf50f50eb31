// Package fconfig owns the data file handle and growth granularity. All
// calls are expected to come from the I/O thread or from controlled
// setup/teardown paths; there is no internal locking.
package fconfig

import (
	"os"

	"github.com/wesleyyan-sb/minikv/internal/errs"
)

// MinPageSize is the smallest growth granularity accepted: the OS page
// size, 4 KiB minimum.
const MinPageSize = 4096

// Config owns the data file and its page-size growth increment.
type Config struct {
	path     string
	pageSize int
	file     *os.File
}

// Open opens (creating if absent) the file at path. An empty file is
// seeded to one page.
func Open(path string, pageSize int) (*Config, error) {
	if pageSize < MinPageSize {
		pageSize = MinPageSize
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err)
	}
	c := &Config{path: path, pageSize: pageSize, file: f}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.Wrap(errs.IOError, err)
	}
	if info.Size() == 0 {
		if err := c.truncateAndSync(int64(pageSize)); err != nil {
			f.Close()
			return nil, err
		}
	}
	return c, nil
}

// File returns the underlying *os.File, for mmap.Open.
func (c *Config) File() *os.File {
	return c.file
}

// PageSize is the growth increment.
func (c *Config) PageSize() int {
	return c.pageSize
}

// FileSize is the current on-disk file size.
func (c *Config) FileSize() (int64, error) {
	info, err := c.file.Stat()
	if err != nil {
		return 0, errs.Wrap(errs.IOError, err)
	}
	return info.Size(), nil
}

// Expand extends the file length by one page, fsyncs, and returns the new
// size. The mmap must be recreated by the caller afterward; Expand never
// touches an existing mapping.
func (c *Config) Expand() (int64, error) {
	size, err := c.FileSize()
	if err != nil {
		return 0, err
	}
	newSize := size + int64(c.pageSize)
	if err := c.truncateAndSync(newSize); err != nil {
		return 0, err
	}
	return newSize, nil
}

func (c *Config) truncateAndSync(size int64) error {
	if err := c.file.Truncate(size); err != nil {
		return errs.Wrap(errs.IOError, err)
	}
	if err := c.file.Sync(); err != nil {
		return errs.Wrap(errs.IOError, err)
	}
	return nil
}

// RemoveFile closes and deletes the data file.
func (c *Config) RemoveFile() error {
	c.file.Close()
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.IOError, err)
	}
	return nil
}

// Close closes the file handle without removing it.
func (c *Config) Close() error {
	if err := c.file.Close(); err != nil {
		return errs.Wrap(errs.IOError, err)
	}
	return nil
}
