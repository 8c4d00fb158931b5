package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rohmanhakim/chartstats/pkg/failure"
)

// GetFileExtension extracts the lowercase file extension from a path without
// the leading dot, or empty string if none.
func GetFileExtension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// EnsureDir creates dir joined with path if it does not exist yet.
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	target := filepath.Join(append([]string{dir}, path...)...)
	if err := os.MkdirAll(target, 0755); err != nil {
		return &FileError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      target,
			Err:       err,
		}
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) failure.ClassifiedError {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return writeError(path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return writeError(path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return writeError(path, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return writeError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return writeError(path, err)
	}
	return nil
}

func writeError(path string, err error) *FileError {
	cause := ErrCauseWriteError
	if errors.Is(err, syscall.ENOSPC) {
		cause = ErrCauseDiskFull
	}
	return &FileError{
		Message:   err.Error(),
		Retryable: false,
		Cause:     cause,
		Path:      path,
		Err:       err,
	}
}
