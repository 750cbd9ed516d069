// Package staging captures local files for upload into the blob store.
package staging

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ErrTooLarge means a file exceeds the capture size limit.
var ErrTooLarge = errors.New("file exceeds the size limit")

// ErrChanged means a file was modified while it was being read.
var ErrChanged = errors.New("file changed during capture")

// Capture is a consistent copy of a local file.
type Capture struct {
	Path     string
	Data     []byte
	Checksum string // hex SHA-256 of Data
	Info     fs.FileInfo
}

// Size returns the number of captured bytes.
func (c *Capture) Size() int64 { return int64(len(c.Data)) }

// Read captures the regular file at path. The file is stat'ed before and
// after reading; any difference in size, mode or mtime fails with ErrChanged.
// maxSize <= 0 means no limit.
func Read(path string, maxSize int64) (*Capture, error) {
	info1, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info1.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}
	if maxSize > 0 && info1.Size() > maxSize {
		return nil, fmt.Errorf("%s is %d bytes, limit %d: %w", path, info1.Size(), maxSize, ErrTooLarge)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	var r io.Reader = f
	if maxSize > 0 {
		// One extra byte detects growth past the limit.
		r = io.LimitReader(f, maxSize+1)
	}
	data, err := io.ReadAll(io.TeeReader(r, h))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%s grew past %d bytes: %w", path, maxSize, ErrTooLarge)
	}

	info2, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("re-stat %s: %w", path, err)
	}
	if err := unchanged(info1, info2, int64(len(data))); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrChanged, err)
	}

	return &Capture{
		Path:     path,
		Data:     data,
		Checksum: hex.EncodeToString(h.Sum(nil)),
		Info:     info1,
	}, nil
}

func unchanged(info1, info2 fs.FileInfo, read int64) error {
	if info1.Size() != info2.Size() {
		return fmt.Errorf("size changed: %d -> %d", info1.Size(), info2.Size())
	}
	if read != info1.Size() {
		return fmt.Errorf("read %d of %d bytes", read, info1.Size())
	}
	if info1.Mode() != info2.Mode() {
		return fmt.Errorf("mode changed: %v -> %v", info1.Mode(), info2.Mode())
	}
	if !info1.ModTime().Equal(info2.ModTime()) {
		return fmt.Errorf("mtime changed: %v -> %v", info1.ModTime(), info2.ModTime())
	}
	return nil
}
