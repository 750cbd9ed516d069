package archive

import (
	"context"
	"time"
)

// NodeRow is one bucket row returned by the catalog store's node listing.
type NodeRow struct {
	Table    Table
	Owner    int
	Key      int
	Name     string
	ImageID  int
	ID       string
	ParentID string
	Rank     int
	DiaRes   int
	HourRes  int
}

// DocumentRow is one document as listed for comparison against the prior period.
type DocumentRow struct {
	DocID       int
	Designation string
	Name        string
	ImageID     int
	Timestamp   time.Time
	Rank        int
	IsNew       int
}

// DocumentMeta locates a document's local copy.
// Directory and FileName come from the store and are not chosen by this package.
type DocumentMeta struct {
	DocID       int
	Designation string
	Name        string
	Directory   string
	FileName    string
}

// CatalogStore provides the raw node and document rows of the archive.
type CatalogStore interface {
	// ListNodes returns every bucket node known to the store.
	ListNodes(ctx context.Context) ([]NodeRow, error)

	// LookupDocumentMeta returns the metadata of one document.
	// Returns ErrDocumentNotFound if the store has no such document.
	LookupDocumentMeta(ctx context.Context, docID int) (*DocumentMeta, error)

	// ListDocuments returns all documents together with their comparison flags.
	ListDocuments(ctx context.Context) ([]DocumentRow, error)
}

// BlobStore provides document bodies and images by key.
type BlobStore interface {
	// FetchDocument returns the stored body of a document.
	// Returns ErrDocumentNotFound if there is no body for docID.
	FetchDocument(ctx context.Context, docID int) ([]byte, error)

	// FetchImages returns the stored images for keys in a single round trip.
	// Keys without a stored image are absent from the result.
	FetchImages(ctx context.Context, keys []int) (map[int][]byte, error)

	// FetchSentinelImage returns the well-known "no document" image.
	FetchSentinelImage(ctx context.Context) ([]byte, error)
}

// Validation is the credential store's verdict on a username/secret pair.
type Validation struct {
	Valid                  bool
	UserID                 int
	Role                   string
	FullName               string
	PasswordChangeRequired bool
}

// CredentialStore validates users against their encoded secrets.
type CredentialStore interface {
	// Connected reports whether the store can currently be queried.
	Connected(ctx context.Context) bool

	// Validate checks username against an already encoded secret.
	Validate(ctx context.Context, username, encodedSecret string) (*Validation, error)
}
