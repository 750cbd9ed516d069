package archive

import (
	"context"
	"fmt"
)

// NodeView is a catalog node together with its resolved image.
type NodeView struct {
	CatalogNode
	Image    []byte
	Sentinel bool // Image is the "no document" fallback
}

// ArchiveService is the navigation surface handed to the presentation layer.
// It coordinates the index, document cache and image resolver of one session.
type ArchiveService struct {
	catalog CatalogStore
	index   *CatalogIndex
	docs    *DocumentCache
	images  *ImageResolver
	logger  Logger

	rows       []DocumentRow
	rowsLoaded bool
}

// NewArchiveService creates an ArchiveService with the provided dependencies.
func NewArchiveService(catalog CatalogStore, blobs BlobStore, fs LocalFilesystem, logger Logger) *ArchiveService {
	return &ArchiveService{
		catalog: catalog,
		index:   NewCatalogIndex(catalog, logger),
		docs:    NewDocumentCache(catalog, blobs, fs, logger),
		images:  NewImageResolver(blobs, logger),
		logger:  logger,
	}
}

// Open loads the catalog and the comparison document listing and returns the
// top-level nodes with their images. Both listings are queried once per
// service. If the catalog cannot be listed, the result is empty and the error
// wraps ErrCatalogUnavailable.
func (s *ArchiveService) Open(ctx context.Context) ([]NodeView, error) {
	roots, err := s.index.LoadRoot(ctx)
	if err != nil {
		return []NodeView{}, err
	}

	if !s.rowsLoaded {
		rows, err := s.catalog.ListDocuments(ctx)
		if err != nil {
			s.logger.Error("document listing failed", "error", err)
			return []NodeView{}, fmt.Errorf("%w: listing documents: %w", ErrCatalogUnavailable, err)
		}
		s.rows = rows
		s.rowsLoaded = true
	}

	return s.withImages(ctx, roots)
}

// Expand returns the child buckets and documents of nodeID, children first.
// The expansion is computed once per node; images are resolved on every call.
func (s *ArchiveService) Expand(ctx context.Context, nodeID string) ([]NodeView, error) {
	if nodeID == RootID {
		return s.Open(ctx)
	}
	if !s.rowsLoaded {
		if _, err := s.Open(ctx); err != nil {
			return []NodeView{}, err
		}
	}
	if _, ok := s.index.Node(nodeID); !ok {
		return nil, fmt.Errorf("%s: %w", nodeID, ErrNodeNotFound)
	}

	exp := s.index.Expand(nodeID, s.rows)
	return s.withImages(ctx, exp.Nodes())
}

// OpenDocument materializes the document behind a DOCUMENT node. A document
// that no earlier Expand returned is located in the document listing and its
// HOUR bucket is expanded first, so DocumentID(docID) works on a fresh service.
func (s *ArchiveService) OpenDocument(ctx context.Context, nodeID string, reload bool) (*CachedDocument, error) {
	node, ok := s.index.Node(nodeID)
	if !ok {
		var err error
		if node, err = s.reveal(ctx, nodeID); err != nil {
			return nil, err
		}
	}
	docID, ok := node.DocID()
	if !ok {
		return nil, fmt.Errorf("%s: %w", nodeID, ErrNotDocument)
	}
	return s.docs.Get(ctx, docID, reload)
}

// reveal expands the bucket holding a document that is not in the table yet.
func (s *ArchiveService) reveal(ctx context.Context, nodeID string) (CatalogNode, error) {
	id, err := ParseNodeID(nodeID)
	if err != nil || id.Table != TableDocument {
		return CatalogNode{}, fmt.Errorf("%s: %w", nodeID, ErrNodeNotFound)
	}
	if !s.rowsLoaded {
		if _, err := s.Open(ctx); err != nil {
			return CatalogNode{}, err
		}
	}

	for _, row := range s.rows {
		if row.DocID != id.DocID {
			continue
		}
		ts := row.Timestamp
		hour := BucketID(TableHour, ts.Year(), int(ts.Month()), ts.Day(), ts.Hour())
		if _, err := s.Expand(ctx, hour); err != nil {
			return CatalogNode{}, err
		}
		if node, ok := s.index.Node(nodeID); ok {
			return node, nil
		}
		break
	}
	return CatalogNode{}, fmt.Errorf("%s: %w", nodeID, ErrNodeNotFound)
}

// ResolveImages resolves image keys directly.
func (s *ArchiveService) ResolveImages(ctx context.Context, keys []int) (map[int][]byte, error) {
	return s.images.Resolve(ctx, keys)
}

// IsSentinel reports whether img is the session's sentinel image.
func (s *ArchiveService) IsSentinel(img []byte) bool {
	return s.images.IsSentinel(img)
}

// ExpansionState reports whether nodeID has been expanded.
func (s *ArchiveService) ExpansionState(nodeID string) ExpansionState {
	return s.index.ExpansionState(nodeID)
}

// Materialized returns the local files written during this session.
func (s *ArchiveService) Materialized() []string {
	return s.docs.Materialized()
}

// Close ends the session. With cleanup set, files written by OpenDocument are
// removed.
func (s *ArchiveService) Close(cleanup bool) error {
	if !cleanup {
		return nil
	}
	if err := s.docs.Cleanup(); err != nil {
		return fmt.Errorf("cleaning up cached documents: %w", err)
	}
	return nil
}

func (s *ArchiveService) withImages(ctx context.Context, nodes []CatalogNode) ([]NodeView, error) {
	keys := make([]int, 0, len(nodes))
	for _, n := range nodes {
		keys = append(keys, n.ImageID)
	}

	images, err := s.images.Resolve(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("resolving node images: %w", err)
	}

	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		img := images[n.ImageID]
		views = append(views, NodeView{
			CatalogNode: n,
			Image:       img,
			Sentinel:    s.images.IsSentinel(img),
		})
	}
	return views, nil
}
