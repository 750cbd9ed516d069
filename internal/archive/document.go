package archive

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// CachedDocument is a document whose bytes live at LocalPath.
// Content is only set when this call fetched the bytes from the blob store.
type CachedDocument struct {
	DocID          int
	Designation    string
	DisplayName    string
	LocalDirectory string
	LocalFileName  string
	LocalPath      string
	Content        []byte
	ContentType    string
	PreviewKind    PreviewKind
	Fetched        bool
}

// DocumentCache materializes document bodies from the blob store into the
// local directories named by the catalog store.
type DocumentCache struct {
	catalog CatalogStore
	blobs   BlobStore
	fs      LocalFilesystem
	logger  Logger

	// materialized records the paths written during this session, in order.
	materialized []string
	written      map[string]bool
}

// NewDocumentCache creates a DocumentCache with the provided dependencies.
func NewDocumentCache(catalog CatalogStore, blobs BlobStore, fs LocalFilesystem, logger Logger) *DocumentCache {
	return &DocumentCache{
		catalog: catalog,
		blobs:   blobs,
		fs:      fs,
		logger:  logger,
		written: make(map[string]bool),
	}
}

// Get resolves docID to a local file. Unless forceReload is set, an existing
// local file is returned as is and the blob store is not contacted. Otherwise
// the body is fetched and written over the local path, unless the existing
// file is held open for exclusive use, in which case Get returns ErrFileBusy
// and writes nothing.
func (c *DocumentCache) Get(ctx context.Context, docID int, forceReload bool) (*CachedDocument, error) {
	meta, err := c.catalog.LookupDocumentMeta(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("looking up document %d: %w", docID, err)
	}

	if err := ValidateFileName(meta.FileName); err != nil {
		return nil, err
	}

	doc := &CachedDocument{
		DocID:          meta.DocID,
		Designation:    meta.Designation,
		DisplayName:    meta.Name,
		LocalDirectory: meta.Directory,
		LocalFileName:  meta.FileName,
		LocalPath:      filepath.Join(meta.Directory, meta.FileName),
		PreviewKind:    PreviewKindFor(meta.FileName),
	}

	exists, err := c.fs.Exists(doc.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("checking local copy: %w", err)
	}

	if exists && !forceReload {
		doc.ContentType = c.sniffLocal(doc.LocalPath)
		c.logger.Debug("document served from cache", "doc_id", docID, "path", doc.LocalPath)
		return doc, nil
	}

	body, err := c.blobs.FetchDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("fetching document %d: %w", docID, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("document %d: %w", docID, ErrEmptyDocument)
	}

	if err := c.fs.MkdirAll(doc.LocalDirectory); err != nil {
		return nil, fmt.Errorf("creating document directory: %w", err)
	}

	if exists {
		busy, err := c.fs.IsBusy(doc.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("probing local copy: %w", err)
		}
		if busy {
			c.logger.Warn("reload refused, file in use", "doc_id", docID, "path", doc.LocalPath)
			return nil, fmt.Errorf("%s: %w", doc.LocalPath, ErrFileBusy)
		}
	}

	if err := c.fs.WriteFile(doc.LocalPath, body); err != nil {
		return nil, fmt.Errorf("writing document %d: %w", docID, err)
	}
	c.remember(doc.LocalPath)

	doc.Content = body
	doc.ContentType = mimetype.Detect(body).String()
	doc.Fetched = true

	c.logger.Info("document materialized", "doc_id", docID, "path", doc.LocalPath, "size", len(body), "reload", forceReload)
	return doc, nil
}

// Materialized returns the local paths written during this session.
func (c *DocumentCache) Materialized() []string {
	return append([]string(nil), c.materialized...)
}

// Cleanup deletes every file written during this session. Files that are
// already gone are skipped; other failures are collected and returned.
func (c *DocumentCache) Cleanup() error {
	var errs []error
	for _, path := range c.materialized {
		exists, err := c.fs.Exists(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("checking %s: %w", path, err))
			continue
		}
		if !exists {
			continue
		}
		if err := c.fs.Remove(path); err != nil {
			c.logger.Warn("could not remove cached document", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("removing %s: %w", path, err))
			continue
		}
		c.logger.Debug("cached document removed", "path", path)
	}
	c.materialized = nil
	c.written = make(map[string]bool)
	return errors.Join(errs...)
}

func (c *DocumentCache) remember(path string) {
	if c.written[path] {
		return
	}
	c.written[path] = true
	c.materialized = append(c.materialized, path)
}

// sniffLocal detects the MIME type of an already cached file.
// Detection is advisory, so failures only produce an empty type.
func (c *DocumentCache) sniffLocal(path string) string {
	f, err := c.fs.Open(path)
	if err != nil {
		c.logger.Debug("could not sniff cached document", "path", path, "error", err)
		return ""
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return ""
	}
	return mt.String()
}
