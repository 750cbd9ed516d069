// Package encryption encrypts blobs at rest with age.
package encryption

import "io"

// Encryptor encrypts blob bodies before they are stored.
type Encryptor interface {
	// Setup creates a new key pair. An empty passphrase stores the identity
	// unprotected.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock loads the identity needed to decrypt.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether the key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked identity.
type DecryptionContext interface {
	// Decrypt reads ciphertext from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}
