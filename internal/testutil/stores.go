package testutil

import (
	"context"
	"fmt"
	"sync"

	"archview/internal/archive"
)

// FakeCatalogStore serves fixed catalog rows and counts the queries it answers.
type FakeCatalogStore struct {
	mu sync.Mutex

	Nodes     []archive.NodeRow
	Documents []archive.DocumentRow
	Metas     map[int]*archive.DocumentMeta

	// ListErr, when set, fails ListNodes and ListDocuments.
	ListErr error

	ListNodesCalls     int
	ListDocumentsCalls int
}

// NewFakeCatalogStore creates an empty FakeCatalogStore.
func NewFakeCatalogStore() *FakeCatalogStore {
	return &FakeCatalogStore{Metas: make(map[int]*archive.DocumentMeta)}
}

// AddMeta registers the local placement of a document.
func (s *FakeCatalogStore) AddMeta(meta archive.DocumentMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Metas[meta.DocID] = &meta
}

func (s *FakeCatalogStore) ListNodes(ctx context.Context) ([]archive.NodeRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListNodesCalls++
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return append([]archive.NodeRow(nil), s.Nodes...), nil
}

func (s *FakeCatalogStore) LookupDocumentMeta(ctx context.Context, docID int) (*archive.DocumentMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, ok := s.Metas[docID]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", docID, archive.ErrDocumentNotFound)
	}
	m := *meta
	return &m, nil
}

func (s *FakeCatalogStore) ListDocuments(ctx context.Context) ([]archive.DocumentRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListDocumentsCalls++
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return append([]archive.DocumentRow(nil), s.Documents...), nil
}

// CountingBlobStore is an in-memory archive.BlobStore that records every call.
type CountingBlobStore struct {
	mu sync.Mutex

	Documents map[int][]byte
	Images    map[int][]byte
	Sentinel  []byte

	// FetchErr, when set, fails every fetch.
	FetchErr error

	DocumentFetches []int
	ImageBatches    [][]int
	SentinelFetches int
}

// NewCountingBlobStore creates a CountingBlobStore whose sentinel is a tiny PNG.
func NewCountingBlobStore() *CountingBlobStore {
	return &CountingBlobStore{
		Documents: make(map[int][]byte),
		Images:    make(map[int][]byte),
		Sentinel:  SentinelPNG(),
	}
}

func (s *CountingBlobStore) FetchDocument(ctx context.Context, docID int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DocumentFetches = append(s.DocumentFetches, docID)
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	body, ok := s.Documents[docID]
	if !ok {
		return nil, fmt.Errorf("document %d: %w", docID, archive.ErrDocumentNotFound)
	}
	return body, nil
}

func (s *CountingBlobStore) FetchImages(ctx context.Context, keys []int) (map[int][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ImageBatches = append(s.ImageBatches, append([]int(nil), keys...))
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	out := make(map[int][]byte, len(keys))
	for _, k := range keys {
		if img, ok := s.Images[k]; ok {
			out[k] = img
		}
	}
	return out, nil
}

func (s *CountingBlobStore) FetchSentinelImage(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SentinelFetches++
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	return s.Sentinel, nil
}

// FakeUser is an account known to FakeCredentialStore.
type FakeUser struct {
	EncodedSecret          string
	UserID                 int
	Role                   string
	FullName               string
	PasswordChangeRequired bool
}

// FakeCredentialStore validates against a fixed set of users.
type FakeCredentialStore struct {
	mu sync.Mutex

	Users        map[string]FakeUser
	Disconnected bool
	ValidateErr  error

	ValidateCalls int
}

// NewFakeCredentialStore creates a connected store without users.
func NewFakeCredentialStore() *FakeCredentialStore {
	return &FakeCredentialStore{Users: make(map[string]FakeUser)}
}

func (s *FakeCredentialStore) Connected(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.Disconnected
}

func (s *FakeCredentialStore) Validate(ctx context.Context, username, encodedSecret string) (*archive.Validation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ValidateCalls++
	if s.ValidateErr != nil {
		return nil, s.ValidateErr
	}
	u, ok := s.Users[username]
	if !ok || u.EncodedSecret != encodedSecret {
		return &archive.Validation{Valid: false}, nil
	}
	return &archive.Validation{
		Valid:                  true,
		UserID:                 u.UserID,
		Role:                   u.Role,
		FullName:               u.FullName,
		PasswordChangeRequired: u.PasswordChangeRequired,
	}, nil
}

// Compile-time checks
var (
	_ archive.CatalogStore    = (*FakeCatalogStore)(nil)
	_ archive.BlobStore       = (*CountingBlobStore)(nil)
	_ archive.CredentialStore = (*FakeCredentialStore)(nil)
)
