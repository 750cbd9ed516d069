package blobstore

import (
	"context"
	"fmt"

	"archview/internal/config"
)

// NewBlobStoreFromConfig creates a Store based on the blobs config type.
// Type "database" keeps blobs next to the catalog, in catalog.
func NewBlobStoreFromConfig(ctx context.Context, cfg config.BlobsConfig, catalog Store) (Store, error) {
	switch cfg.Type {
	case "database", "":
		if catalog == nil {
			return nil, fmt.Errorf("database blob store requires a catalog database")
		}
		return catalog, nil
	case "memory":
		return NewMemoryStore(cfg.SentinelImageKey), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem blob store requires fs_root to be set")
		}
		return NewFileSystemStore(cfg.FSRoot, cfg.SentinelImageKey)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 blob store requires s3_bucket to be set")
		}
		return NewS3StoreFromConfig(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blobs type: %s", cfg.Type)
	}
}
