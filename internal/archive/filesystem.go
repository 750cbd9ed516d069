package archive

import "io"

// LocalFilesystem provides the local file operations the document cache needs.
// It abstracts file access to enable testing without touching the real filesystem.
type LocalFilesystem interface {
	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)

	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error

	// IsBusy reports whether another opener holds path for exclusive use.
	// It probes with a non-sharing open and releases it immediately.
	IsBusy(path string) (bool, error)

	// WriteFile replaces the contents of path with data so that readers
	// never observe a partially written file.
	WriteFile(path string, data []byte) error

	// Remove deletes the file at path.
	Remove(path string) error
}
