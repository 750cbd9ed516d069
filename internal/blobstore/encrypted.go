package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"archview/internal/encryption"
)

// ErrNoIdentity means an encrypted store was asked to decrypt without an
// unlocked identity.
var ErrNoIdentity = errors.New("no decryption identity unlocked")

// EncryptedBlobStore encrypts bodies and images on the way into the inner
// store and decrypts them on the way out.
type EncryptedBlobStore struct {
	inner Store
	enc   encryption.Encryptor
	dec   encryption.DecryptionContext
}

// NewEncryptedBlobStore wraps inner. dec may be nil for a store that is only
// written to.
func NewEncryptedBlobStore(inner Store, enc encryption.Encryptor, dec encryption.DecryptionContext) *EncryptedBlobStore {
	return &EncryptedBlobStore{inner: inner, enc: enc, dec: dec}
}

func (s *EncryptedBlobStore) seal(data []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := s.enc.Encrypt(bytes.NewReader(data), &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (s *EncryptedBlobStore) open(data []byte) ([]byte, error) {
	if s.dec == nil {
		return nil, ErrNoIdentity
	}
	var out bytes.Buffer
	if err := s.dec.Decrypt(bytes.NewReader(data), &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (s *EncryptedBlobStore) PutDocument(ctx context.Context, docID int, body []byte) error {
	sealed, err := s.seal(body)
	if err != nil {
		return fmt.Errorf("encrypting document %d: %w", docID, err)
	}
	return s.inner.PutDocument(ctx, docID, sealed)
}

func (s *EncryptedBlobStore) PutImage(ctx context.Context, key int, data []byte) error {
	sealed, err := s.seal(data)
	if err != nil {
		return fmt.Errorf("encrypting image %d: %w", key, err)
	}
	return s.inner.PutImage(ctx, key, sealed)
}

func (s *EncryptedBlobStore) FetchDocument(ctx context.Context, docID int) ([]byte, error) {
	sealed, err := s.inner.FetchDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	body, err := s.open(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypting document %d: %w", docID, err)
	}
	return body, nil
}

// FetchImages decrypts every returned image. An image that does not decrypt
// is dropped, so the resolver treats it like a missing one.
func (s *EncryptedBlobStore) FetchImages(ctx context.Context, keys []int) (map[int][]byte, error) {
	if s.dec == nil {
		return nil, ErrNoIdentity
	}
	sealed, err := s.inner.FetchImages(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make(map[int][]byte, len(sealed))
	for k, data := range sealed {
		img, err := s.open(data)
		if err != nil {
			continue
		}
		out[k] = img
	}
	return out, nil
}

func (s *EncryptedBlobStore) FetchSentinelImage(ctx context.Context) ([]byte, error) {
	sealed, err := s.inner.FetchSentinelImage(ctx)
	if err != nil {
		return nil, err
	}
	img, err := s.open(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypting sentinel image: %w", err)
	}
	return img, nil
}

// Compile-time check that EncryptedBlobStore implements Store
var _ Store = (*EncryptedBlobStore)(nil)
