package encryption

import (
	"fmt"

	"archview/internal/config"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// It returns nil for type "none": blobs are then stored in plaintext.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
