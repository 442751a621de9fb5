package bulkimport

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Upload is a single file from a submission, prior to staging.
type Upload struct {
	Name string
	Data io.Reader
}

// StagedFile is an uploaded file written to local disk, decoupling request
// lifetime from operation lifetime.
type StagedFile struct {
	// OriginalName is the file name as uploaded by the client.
	OriginalName string

	// Path is the absolute path of the staged copy.
	Path string

	// Size is the staged file size in bytes.
	Size int64
}

// StagedFiles holds a batch of staged files in a dedicated directory.
// Cleanup removes the directory exactly once, no matter how many of the
// submission and executor paths call it.
type StagedFiles struct {
	Dir   string
	Files []StagedFile

	cleanupOnce sync.Once
	cleanupErr  error
}

// Stage copies the given uploads into a fresh staging directory, preserving
// submission order. On any error the partially staged directory is removed
// before returning.
func Stage(uploads []Upload) (*StagedFiles, error) {
	dir, err := os.MkdirTemp("", "docvault-import-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	staged := &StagedFiles{Dir: dir}
	for i, up := range uploads {
		// The index prefix keeps duplicate upload names from colliding.
		path := filepath.Join(dir, fmt.Sprintf("%d-%s", i, filepath.Base(up.Name)))
		f, err := os.Create(path)
		if err != nil {
			_ = staged.Cleanup()
			return nil, fmt.Errorf("failed to stage %q: %w", up.Name, err)
		}
		n, err := io.Copy(f, up.Data)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = staged.Cleanup()
			return nil, fmt.Errorf("failed to stage %q: %w", up.Name, err)
		}
		staged.Files = append(staged.Files, StagedFile{
			OriginalName: up.Name,
			Path:         path,
			Size:         n,
		})
	}

	return staged, nil
}

// Cleanup removes the staging directory and all staged files. Safe to call
// multiple times; only the first call does work.
func (s *StagedFiles) Cleanup() error {
	s.cleanupOnce.Do(func() {
		s.cleanupErr = os.RemoveAll(s.Dir)
	})
	return s.cleanupErr
}
