package encryption

import (
	"bytes"
	"errors"
	"testing"
)

func TestTestEncryptor_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "pdf header", input: []byte("%PDF-1.7\n")},
		{name: "empty", input: []byte{}},
		{name: "binary", input: []byte{0x89, 'P', 'N', 'G', 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := NewTestEncryptor()
			var sealed bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &sealed); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if !bytes.HasPrefix(sealed.Bytes(), maskHeader) {
				t.Fatal("sealed blob does not start with the header")
			}
			if len(tt.input) > 0 && bytes.Contains(sealed.Bytes(), tt.input) {
				t.Error("sealed blob contains the plaintext")
			}

			dec, err := e.Unlock("")
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}
			var opened bytes.Buffer
			if err := dec.Decrypt(&sealed, &opened); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(opened.Bytes(), tt.input) {
				t.Errorf("round trip = %q, want %q", opened.Bytes(), tt.input)
			}
		})
	}
}

func TestTestEncryptor_Setup(t *testing.T) {
	t.Parallel()
	e := NewTestEncryptor()
	if err := e.Setup("ignored"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.setupCalled || !e.IsConfigured() {
		t.Error("Setup() not recorded or encryptor not configured")
	}
}

func TestTestDecryptionContext_RejectsForeignData(t *testing.T) {
	t.Parallel()

	for _, input := range [][]byte{nil, []byte("AV"), []byte("%PDF-1.7 plain body")} {
		var out bytes.Buffer
		err := (&TestDecryptionContext{}).Decrypt(bytes.NewReader(input), &out)
		if !errors.Is(err, errNotMasked) {
			t.Errorf("Decrypt(%q) error = %v, want errNotMasked", input, err)
		}
	}
}
