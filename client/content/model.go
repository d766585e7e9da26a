package content

import "errors"

const (
	// FilePrefix and FileSuffix frame the random segment of spill file names.
	FilePrefix = "gocurl-"
	FileSuffix = ".tmp"
)

var (
	ErrNilData     = errors.New("content data must not be nil")
	ErrEmptyPath   = errors.New("content file path must not be empty")
	ErrNotInMemory = errors.New("content is not held in memory")
	ErrClosed      = errors.New("content buffer is closed")
)
