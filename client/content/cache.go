package content

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
)

// Cache is an immutable, repeatedly readable body held either in memory or
// in a file it owns.
type Cache struct {
	data []byte
	path string
}

// FromBytes returns a memory-backed Cache holding a copy of data.
func FromBytes(data []byte) (*Cache, error) {
	if data == nil {
		return nil, ErrNilData
	}

	return &Cache{data: slices.Clone(data)}, nil
}

// FromFile returns a Cache backed by the file at path. The Cache takes
// ownership of the file and removes it on Close.
func FromFile(path string) (*Cache, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	return &Cache{path: path}, nil
}

// InMemory reports whether the content is held in memory.
func (c *Cache) InMemory() bool {
	return c.path == ""
}

// Path returns the backing file path, or "" for memory-backed content.
func (c *Cache) Path() string {
	return c.path
}

// Open returns a new reader positioned at the start of the content.
// Every call yields an independent reader; the caller must close it.
func (c *Cache) Open() (io.ReadCloser, error) {
	if c.path != "" {
		f, err := os.Open(c.path)
		if err != nil {
			return nil, fmt.Errorf("opening content file: %w", err)
		}
		return f, nil
	}

	return io.NopCloser(bytes.NewReader(c.data)), nil
}

// Close removes the backing file. It fails if the file no longer exists,
// including on a second call. Memory-backed content is left untouched and
// remains readable.
func (c *Cache) Close() error {
	if c.path == "" {
		return nil
	}

	if err := os.Remove(c.path); err != nil {
		return fmt.Errorf("removing content file: %w", err)
	}

	return nil
}
