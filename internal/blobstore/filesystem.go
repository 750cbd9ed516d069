package blobstore

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"

	"archview/internal/archive"
	"archview/internal/fs"
)

// FileSystemStore keeps blobs as files under a root directory:
//
//	<root>/
//	  documents/
//	    <docID>
//	  images/
//	    <imageKey>
type FileSystemStore struct {
	root        string
	sentinelKey int
	files       *fs.OSFilesystem
}

// NewFileSystemStore creates a store rooted at root, creating the directory
// structure if needed.
func NewFileSystemStore(root string, sentinelKey int) (*FileSystemStore, error) {
	files := fs.NewOSFilesystem()
	for _, dir := range []string{"documents", "images"} {
		if err := files.MkdirAll(filepath.Join(root, dir)); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	return &FileSystemStore{root: root, sentinelKey: sentinelKey, files: files}, nil
}

func (s *FileSystemStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// PutDocument writes the body atomically.
func (s *FileSystemStore) PutDocument(ctx context.Context, docID int, body []byte) error {
	if err := s.files.WriteFile(s.path(documentKey(docID)), body); err != nil {
		return fmt.Errorf("storing document %d: %w", docID, err)
	}
	return nil
}

// PutImage writes the image atomically.
func (s *FileSystemStore) PutImage(ctx context.Context, key int, data []byte) error {
	if err := s.files.WriteFile(s.path(imageKey(key)), data); err != nil {
		return fmt.Errorf("storing image %d: %w", key, err)
	}
	return nil
}

func (s *FileSystemStore) FetchDocument(ctx context.Context, docID int) ([]byte, error) {
	body, err := os.ReadFile(s.path(documentKey(docID)))
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("document %d: %w", docID, archive.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %d: %w", docID, err)
	}
	return body, nil
}

// FetchImages reads each key from disk. Missing files are skipped.
func (s *FileSystemStore) FetchImages(ctx context.Context, keys []int) (map[int][]byte, error) {
	out := make(map[int][]byte, len(keys))
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(s.path(imageKey(k)))
		if errors.Is(err, iofs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading image %d: %w", k, err)
		}
		out[k] = data
	}
	return out, nil
}

func (s *FileSystemStore) FetchSentinelImage(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path(imageKey(s.sentinelKey)))
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("sentinel image %d: %w", s.sentinelKey, ErrImageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading sentinel image: %w", err)
	}
	return data, nil
}

// ValidateSetup verifies that the store directories are accessible.
func (s *FileSystemStore) ValidateSetup() error {
	for _, dir := range []string{s.root, filepath.Join(s.root, "documents"), filepath.Join(s.root, "images")} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("blob directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("blob path is not a directory: %s", dir)
		}
	}
	return nil
}

// Compile-time check that FileSystemStore implements Store
var _ Store = (*FileSystemStore)(nil)
