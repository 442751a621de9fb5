package bulkimport

import (
	"errors"
	"fmt"
)

// Business errors an import can fail with. Their messages are safe to show
// to clients verbatim.
var (
	// ErrNoFiles indicates a submission without any files.
	ErrNoFiles = errors.New("no files were provided for import")

	// ErrUnsupportedFormat indicates a file whose extension is not importable.
	ErrUnsupportedFormat = errors.New("unsupported file format, only .md and .txt are accepted")

	// ErrEmptyFile indicates a file with no content.
	ErrEmptyFile = errors.New("file is empty")
)

// FileError attributes a business error to the file it occurred on.
type FileError struct {
	FileName string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.FileName, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// IsBusinessError reports whether err carries a client-safe message. All
// other import failures are reported to clients with a generic message.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrNoFiles) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrEmptyFile)
}
