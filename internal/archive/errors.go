package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogUnavailable means the catalog store could not be listed.
	// The listing degrades to empty; the session continues.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrInvalidFileName means a document's target file name is not legal locally.
	ErrInvalidFileName = errors.New("invalid file name")

	// ErrFileBusy means a reload was refused because the local file is held open.
	ErrFileBusy = errors.New("file is in use by another process")

	// ErrDocumentNotFound means the store has no such document.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrEmptyDocument means the store returned a document without a body.
	ErrEmptyDocument = errors.New("document body is empty")

	// ErrNodeNotFound means a node id is not in the loaded catalog table.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNotDocument means a bucket node was used where a document was required.
	ErrNotDocument = errors.New("node is not a document")

	// ErrCredentialRejected means the username/secret pair was refused.
	ErrCredentialRejected = errors.New("credentials rejected")

	// ErrLockedOut means the login attempt limit is exhausted. Fatal.
	ErrLockedOut = errors.New("login attempts exhausted")

	// ErrStoreNotConnected means the credential store is not reachable.
	ErrStoreNotConnected = errors.New("credential store not connected")
)

// RejectedError reports a refused login together with the attempts left.
// AttemptsLeft is negative when no attempt was counted. Err, when set, is the
// condition that caused the rejection.
type RejectedError struct {
	Reason       string
	AttemptsLeft int
	Err          error
}

func (e *RejectedError) Error() string {
	if e.AttemptsLeft < 0 {
		return fmt.Sprintf("%s: %s", ErrCredentialRejected, e.Reason)
	}
	return fmt.Sprintf("%s: %s (attempts left: %d)", ErrCredentialRejected, e.Reason, e.AttemptsLeft)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// Is lets errors.Is match RejectedError against ErrCredentialRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrCredentialRejected
}
