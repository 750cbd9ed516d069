package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"

	"archview/internal/config"
)

// ageHeader starts every binary age file, so it marks a passphrase
// protected identity.
const ageHeader = "age-encryption.org/v1\n"

// ErrPassphraseRequired means the identity file is protected and no
// passphrase was given.
var ErrPassphraseRequired = errors.New("identity is passphrase protected")

// AgeEncryptor encrypts blobs to an X25519 recipient. The recipient file is
// plaintext. The identity file is either a plain age identity or, when Setup
// was given a passphrase, the identity wrapped in age's scrypt encryption.
type AgeEncryptor struct {
	recipientPath string
	identityPath  string
}

var _ Encryptor = (*AgeEncryptor)(nil)

// NewAgeEncryptor creates a new AgeEncryptor from configuration.
func NewAgeEncryptor(cfg config.EncryptionConfig) *AgeEncryptor {
	return &AgeEncryptor{
		recipientPath: cfg.RecipientPath,
		identityPath:  cfg.IdentityPath,
	}
}

// Setup generates a new X25519 key pair and writes the recipient and the
// identity files. Existing key files are overwritten.
func (e *AgeEncryptor) Setup(passphrase string) error {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	for _, p := range []string{e.recipientPath, e.identityPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("creating key directory: %w", err)
		}
	}

	if err := os.WriteFile(e.recipientPath, []byte(identity.Recipient().String()+"\n"), 0644); err != nil {
		return fmt.Errorf("writing recipient: %w", err)
	}

	idFile, err := os.OpenFile(e.identityPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating identity file: %w", err)
	}
	defer idFile.Close()

	if passphrase == "" {
		if _, err := io.WriteString(idFile, identity.String()+"\n"); err != nil {
			return fmt.Errorf("writing identity: %w", err)
		}
		return idFile.Close()
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	w, err := age.Encrypt(idFile, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	if _, err := io.WriteString(w, identity.String()+"\n"); err != nil {
		return fmt.Errorf("writing encrypted identity: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted identity: %w", err)
	}

	return idFile.Close()
}

// Encrypt reads plaintext from r and writes age-encrypted ciphertext to w
// using the stored recipient.
func (e *AgeEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	recipient, err := e.loadRecipient()
	if err != nil {
		return fmt.Errorf("loading recipient: %w", err)
	}

	encWriter, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}

	if _, err := io.Copy(encWriter, r); err != nil {
		return fmt.Errorf("encrypting data: %w", err)
	}

	if err := encWriter.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	return nil
}

// Unlock reads the identity file, decrypting it with passphrase when it is
// passphrase protected, and returns an AgeDecryptionContext holding it.
func (e *AgeEncryptor) Unlock(passphrase string) (DecryptionContext, error) {
	idData, err := os.ReadFile(e.identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}

	keyData := idData
	if bytes.HasPrefix(idData, []byte(ageHeader)) {
		if passphrase == "" {
			return nil, ErrPassphraseRequired
		}

		scrypt, err := age.NewScryptIdentity(passphrase)
		if err != nil {
			return nil, fmt.Errorf("creating scrypt identity: %w", err)
		}

		decReader, err := age.Decrypt(bytes.NewReader(idData), scrypt)
		if err != nil {
			return nil, fmt.Errorf("decrypting identity: %w", err)
		}

		keyData, err = io.ReadAll(decReader)
		if err != nil {
			return nil, fmt.Errorf("reading decrypted identity: %w", err)
		}
	}

	identities, err := age.ParseIdentities(bytes.NewReader(keyData))
	if err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}

	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in identity file")
	}

	return &AgeDecryptionContext{identity: identities[0]}, nil
}

// Protected reports whether the identity file needs a passphrase to unlock.
func (e *AgeEncryptor) Protected() (bool, error) {
	f, err := os.Open(e.identityPath)
	if err != nil {
		return false, fmt.Errorf("opening identity file: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(ageHeader))
	if _, err := io.ReadFull(f, header); err != nil {
		return false, nil
	}
	return string(header) == ageHeader, nil
}

// IsConfigured returns true if both key files exist.
func (e *AgeEncryptor) IsConfigured() bool {
	if _, err := os.Stat(e.recipientPath); err != nil {
		return false
	}
	if _, err := os.Stat(e.identityPath); err != nil {
		return false
	}
	return true
}

// loadRecipient reads the recipient file and parses it.
func (e *AgeEncryptor) loadRecipient() (age.Recipient, error) {
	data, err := os.ReadFile(e.recipientPath)
	if err != nil {
		return nil, fmt.Errorf("reading recipient: %w", err)
	}

	recipients, err := age.ParseRecipients(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing recipient: %w", err)
	}

	if len(recipients) == 0 {
		return nil, fmt.Errorf("no recipients found in recipient file")
	}

	return recipients[0], nil
}

// AgeDecryptionContext holds an unlocked age identity for decrypting data.
type AgeDecryptionContext struct {
	identity age.Identity
}

var _ DecryptionContext = (*AgeDecryptionContext)(nil)

// Decrypt reads age-encrypted ciphertext from r and writes plaintext to w.
func (c *AgeDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	decReader, err := age.Decrypt(r, c.identity)
	if err != nil {
		return fmt.Errorf("creating decrypted reader: %w", err)
	}

	if _, err := io.Copy(w, decReader); err != nil {
		return fmt.Errorf("decrypting data: %w", err)
	}

	return nil
}
