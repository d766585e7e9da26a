package content

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const fileBufSize = 32 << 10

// Buffer is an io.Writer that keeps its contents in memory until more than
// threshold bytes have been written, after which it is permanently backed by
// a temporary file in dir.
//
// The temporary file belongs to the Buffer until File is called. Close
// removes a file that was never handed out this way.
type Buffer struct {
	threshold int64
	dir       string
	logger    *slog.Logger

	written int64
	mem     bytes.Buffer

	spilled   bool
	path      string
	f         *os.File
	w         *bufio.Writer
	retrieved bool
	removed   bool
	closed    bool
}

// NewBuffer returns a Buffer spilling to dir once more than threshold bytes
// are written. An empty dir means [os.TempDir]; a negative threshold is
// treated as zero. A nil logger falls back to [slog.Default].
func NewBuffer(threshold int64, dir string, logger *slog.Logger) *Buffer {
	if threshold < 0 {
		threshold = 0
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Buffer{
		threshold: threshold,
		dir:       dir,
		logger:    logger,
	}
}

// Write appends p to the current sink, moving to a temporary file first if
// p would take the total size past the threshold.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	if !b.spilled && b.written+int64(len(p)) > b.threshold {
		if err := b.spill(); err != nil {
			return 0, fmt.Errorf("spilling to file: %w", err)
		}
	}

	var (
		n   int
		err error
	)
	if b.spilled {
		n, err = b.w.Write(p)
	} else {
		n, err = b.mem.Write(p)
	}
	b.written += int64(n)

	return n, err
}

// Flush pushes buffered writes through to the temporary file.
// It is a no-op while the buffer is held in memory.
func (b *Buffer) Flush() error {
	if b.w == nil {
		return nil
	}
	if err := b.w.Flush(); err != nil {
		return fmt.Errorf("flushing spill file: %w", err)
	}

	return nil
}

// InMemory reports whether the contents are still held in memory.
func (b *Buffer) InMemory() bool {
	return !b.spilled
}

// Size returns the number of bytes written so far.
func (b *Buffer) Size() int64 {
	return b.written
}

// Data returns the in-memory contents. The returned slice aliases the
// buffer and is never nil. It fails with [ErrNotInMemory] once the buffer
// has spilled.
func (b *Buffer) Data() ([]byte, error) {
	if b.spilled {
		return nil, ErrNotInMemory
	}

	data := b.mem.Bytes()
	if data == nil {
		data = []byte{}
	}

	return data, nil
}

// File finalizes the buffer and returns the path of the backing file,
// creating it from the in-memory contents if the threshold was never
// crossed. The caller takes ownership of the file: Close no longer removes
// it and further writes fail.
func (b *Buffer) File() (string, error) {
	if b.removed {
		return "", ErrClosed
	}
	if !b.spilled {
		if b.closed {
			return "", ErrClosed
		}
		if err := b.spill(); err != nil {
			return "", fmt.Errorf("spilling to file: %w", err)
		}
	}

	if err := b.finish(); err != nil {
		return "", err
	}
	b.closed = true
	b.retrieved = true

	return b.path, nil
}

// Close finalizes the buffer. A temporary file that was not claimed through
// File is removed; failure to remove it is logged, never returned.
func (b *Buffer) Close() error {
	b.closed = true
	err := b.finish()

	if b.spilled && !b.retrieved && !b.removed {
		b.removed = true
		if rmErr := os.Remove(b.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			b.logger.Warn("failed to remove spill file", "path", b.path, "error", rmErr)
		}
	}

	return err
}

// spill moves the in-memory contents into a new temporary file.
func (b *Buffer) spill() error {
	f, err := createTemp(b.dir)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	b.spilled = true
	b.path = f.Name()
	b.f = f
	b.w = bufio.NewWriterSize(f, fileBufSize)

	if _, err := b.w.Write(b.mem.Bytes()); err != nil {
		return fmt.Errorf("copying buffered content: %w", err)
	}
	b.mem = bytes.Buffer{}

	b.logger.Debug("content spilled to file", "path", b.path, "threshold", b.threshold)

	return nil
}

// finish flushes and releases the file handle, leaving the file in place.
func (b *Buffer) finish() error {
	if b.f == nil {
		return nil
	}

	var err error
	if flushErr := b.w.Flush(); flushErr != nil {
		err = fmt.Errorf("flushing spill file: %w", flushErr)
	}
	if closeErr := b.f.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("closing spill file: %w", closeErr))
	}
	b.f, b.w = nil, nil

	return err
}

// createTemp creates an exclusive file named FilePrefix + random + FileSuffix.
func createTemp(dir string) (*os.File, error) {
	name := filepath.Join(dir, FilePrefix+uuid.NewString()+FileSuffix)

	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
}
