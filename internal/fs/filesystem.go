package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"archview/internal/archive"
)

// OSFilesystem is the real filesystem implementation of archive.LocalFilesystem.
type OSFilesystem struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// NewOSFilesystem creates a filesystem that operates on the real disk.
func NewOSFilesystem() *OSFilesystem {
	return &OSFilesystem{dirPerm: 0o755, filePerm: 0o644}
}

// Exists reports whether a regular file exists at path.
func (f *OSFilesystem) Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("not a regular file: %s", path)
	}
	return true, nil
}

// Open opens a file for reading.
func (f *OSFilesystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// MkdirAll creates dir and any missing parents.
func (f *OSFilesystem) MkdirAll(dir string) error {
	return os.MkdirAll(dir, f.dirPerm)
}

// IsBusy probes path with an exclusive open. A missing file is not busy.
// On Unix only flock holders count as busy; see OpenExclusive.
func (f *OSFilesystem) IsBusy(path string) (bool, error) {
	h, err := OpenExclusive(path, false)
	if errors.Is(err, ErrLocked) {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probing %s: %w", path, err)
	}
	return false, h.Close()
}

// WriteFile writes data to a temporary file next to path and renames it into
// place.
func (f *OSFilesystem) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Chmod(f.filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if runtime.GOOS != "windows" {
			return fmt.Errorf("renaming temp file: %w", err)
		}
		// Windows refuses to rename over some existing files.
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s before rename: %w", path, err)
		}
		if err := os.Rename(tmpPath, path); err != nil {
			return fmt.Errorf("renaming temp file: %w", err)
		}
	}
	committed = true
	return nil
}

// Remove deletes the file at path.
func (f *OSFilesystem) Remove(path string) error {
	return os.Remove(path)
}

// Compile-time check that OSFilesystem implements archive.LocalFilesystem
var _ archive.LocalFilesystem = (*OSFilesystem)(nil)
