// Package blobstore holds document bodies and node images outside the
// catalog database.
package blobstore

import (
	"context"
	"errors"
	"path"
	"strconv"

	"archview/internal/archive"
)

// ErrImageNotFound means no image is stored under a key.
var ErrImageNotFound = errors.New("image not found")

// Store is an archive.BlobStore that can also be written to.
type Store interface {
	archive.BlobStore

	// PutDocument stores the body of docID, replacing any previous body.
	PutDocument(ctx context.Context, docID int, body []byte) error

	// PutImage stores an image under key, replacing any previous image.
	PutImage(ctx context.Context, key int, data []byte) error
}

// documentKey and imageKey name blobs in the object layouts shared by the
// filesystem and S3 stores.
func documentKey(docID int) string {
	return path.Join("documents", strconv.Itoa(docID))
}

func imageKey(key int) string {
	return path.Join("images", strconv.Itoa(key))
}
