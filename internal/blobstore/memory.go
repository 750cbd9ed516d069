package blobstore

import (
	"context"
	"fmt"
	"sync"

	"archview/internal/archive"
)

// MemoryStore is an in-memory implementation of Store.
// It is safe for concurrent use.
type MemoryStore struct {
	documents   map[int][]byte
	images      map[int][]byte
	sentinelKey int
	mu          sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store whose sentinel image is
// stored under sentinelKey.
func NewMemoryStore(sentinelKey int) *MemoryStore {
	return &MemoryStore{
		documents:   make(map[int][]byte),
		images:      make(map[int][]byte),
		sentinelKey: sentinelKey,
	}
}

func (m *MemoryStore) PutDocument(ctx context.Context, docID int, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[docID] = append([]byte(nil), body...)
	return nil
}

func (m *MemoryStore) PutImage(ctx context.Context, key int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) FetchDocument(ctx context.Context, docID int) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	body, ok := m.documents[docID]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", docID, archive.ErrDocumentNotFound)
	}
	return append([]byte(nil), body...), nil
}

func (m *MemoryStore) FetchImages(ctx context.Context, keys []int) (map[int][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[int][]byte, len(keys))
	for _, k := range keys {
		if data, ok := m.images[k]; ok {
			out[k] = append([]byte(nil), data...)
		}
	}
	return out, nil
}

func (m *MemoryStore) FetchSentinelImage(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.images[m.sentinelKey]
	if !ok {
		return nil, fmt.Errorf("sentinel image %d: %w", m.sentinelKey, ErrImageNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Compile-time check that MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
