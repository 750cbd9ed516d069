package archive

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sort"

	// Register the formats the catalog stores its node images in.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gabriel-vasile/mimetype"
)

// ImageResolver turns image keys into image bytes, substituting the sentinel
// "no document" image for anything missing or undecodable.
type ImageResolver struct {
	blobs  BlobStore
	logger Logger

	sentinel []byte
}

// NewImageResolver creates an ImageResolver over blobs.
func NewImageResolver(blobs BlobStore, logger Logger) *ImageResolver {
	return &ImageResolver{blobs: blobs, logger: logger}
}

// Resolve fetches all keys in one blob store call. Every requested key is
// present in the result; keys whose blob is absent or not a decodable image
// map to the sentinel image. If the sentinel is needed and cannot be fetched,
// Resolve fails rather than return a partial map.
func (r *ImageResolver) Resolve(ctx context.Context, keys []int) (map[int][]byte, error) {
	unique := uniqueKeys(keys)
	resolved := make(map[int][]byte, len(unique))
	if len(unique) == 0 {
		return resolved, nil
	}

	blobs, err := r.blobs.FetchImages(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("fetching images: %w", err)
	}

	for _, key := range unique {
		blob := blobs[key]
		if len(blob) == 0 {
			r.logger.Warn("image missing, using sentinel", "key", key)
		} else if err := validateImage(blob); err != nil {
			r.logger.Warn("image not decodable, using sentinel", "key", key, "size", len(blob), "mime", mimetype.Detect(blob).String(), "error", err)
		} else {
			resolved[key] = blob
			continue
		}

		sentinel, err := r.Sentinel(ctx)
		if err != nil {
			return nil, err
		}
		resolved[key] = sentinel
	}

	return resolved, nil
}

// Sentinel returns the "no document" image, fetching it on first use.
func (r *ImageResolver) Sentinel(ctx context.Context) ([]byte, error) {
	if r.sentinel != nil {
		return r.sentinel, nil
	}

	blob, err := r.blobs.FetchSentinelImage(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching sentinel image: %w", err)
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("sentinel image is empty")
	}

	r.sentinel = blob
	return r.sentinel, nil
}

// IsSentinel reports whether img is the cached sentinel image.
func (r *ImageResolver) IsSentinel(img []byte) bool {
	return r.sentinel != nil && bytes.Equal(img, r.sentinel)
}

// validateImage checks that blob decodes as one of the registered formats.
// Only the header is decoded.
func validateImage(blob []byte) error {
	if _, _, err := image.DecodeConfig(bytes.NewReader(blob)); err != nil {
		return err
	}
	return nil
}

func uniqueKeys(keys []int) []int {
	seen := make(map[int]bool, len(keys))
	unique := make([]int, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, k)
	}
	sort.Ints(unique)
	return unique
}
