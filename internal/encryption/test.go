package encryption

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// maskHeader marks blobs sealed by TestEncryptor.
var maskHeader = []byte("AVENC\x00\x00\x00")

// maskByte is XORed into every payload byte.
const maskByte = 0x5a

var errNotMasked = errors.New("blob was not sealed by the test encryptor")

// TestEncryptor is a reversible stand-in for the age encryptor, selected with
// [encryption] type = "test". Sealed blobs are the header followed by the
// payload XORed with a fixed byte. It needs no keys.
type TestEncryptor struct {
	setupCalled bool
}

var _ Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(string) error {
	e.setupCalled = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(maskHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return mask(r, w)
}

func (e *TestEncryptor) Unlock(string) (DecryptionContext, error) {
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool { return true }

// TestDecryptionContext opens blobs sealed by TestEncryptor.
type TestDecryptionContext struct{}

var _ DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(maskHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("%w: %w", errNotMasked, err)
	}
	if !bytes.Equal(header, maskHeader) {
		return errNotMasked
	}
	return mask(r, w)
}

func mask(r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading payload: %w", err)
		}
		if err := bw.WriteByte(b ^ maskByte); err != nil {
			return fmt.Errorf("writing payload: %w", err)
		}
	}
	return bw.Flush()
}
