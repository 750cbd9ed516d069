package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for archview.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Session    SessionConfig    `toml:"session"`
	Auth       AuthConfig       `toml:"auth"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Blobs      BlobsConfig      `toml:"blobs"`
	Encryption EncryptionConfig `toml:"encryption"`
	Cache      CacheConfig      `toml:"cache"`
}

// SessionConfig places the per-user working directories.
type SessionConfig struct {
	BasePath          string `toml:"base_path"`
	AppSubdir         string `toml:"app_subdir"`
	UserConfigName    string `toml:"user_config_name"`
	DefaultConfigPath string `toml:"default_config_path,omitempty"`
}

// AuthConfig holds login settings.
type AuthConfig struct {
	AttemptLimit int `toml:"attempt_limit"` // failed logins before lockout, defaults to 3
}

// CatalogConfig represents configuration for the catalog and credential database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CatalogConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// BlobsConfig represents configuration for the blob store backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type BlobsConfig struct {
	Type string `toml:"type"` // "database", "filesystem", "s3" or "memory"

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"`
	S3PathStyle bool   `toml:"s3_path_style,omitempty"`

	// Static credentials; when empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	SentinelImageKey int `toml:"sentinel_image_key"`
}

// EncryptionConfig selects how blobs are encrypted at rest.
type EncryptionConfig struct {
	Type          string `toml:"type"` // "none" (default), "age" or "test"
	IdentityPath  string `toml:"identity_path,omitempty"`
	RecipientPath string `toml:"recipient_path,omitempty"`
}

// CacheConfig controls the local document cache.
type CacheConfig struct {
	CleanupOnExit bool `toml:"cleanup_on_exit"`
}

// Defaults applied by NewConfig and ApplyDefaults.
const (
	DefaultAttemptLimit     = 3
	DefaultSentinelImageKey = 216
	DefaultAppSubdir        = "archview"
	DefaultUserConfigName   = "USER.INI"
)

// NewConfig creates a Config rooted at baseDir with every default filled in.
func NewConfig(baseDir string) *Config {
	cfg := &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Session: SessionConfig{
			BasePath:          filepath.Join(baseDir, "users"),
			DefaultConfigPath: filepath.Join(baseDir, "users", DefaultUserConfigName),
		},
		Catalog: CatalogConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
		Blobs:   BlobsConfig{Type: "database"},
		Encryption: EncryptionConfig{
			Type:          "none",
			IdentityPath:  filepath.Join(baseDir, "keys", "archview.key"),
			RecipientPath: filepath.Join(baseDir, "keys", "archview.pub"),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values that have a documented default.
func (c *Config) ApplyDefaults() {
	if c.Session.AppSubdir == "" {
		c.Session.AppSubdir = DefaultAppSubdir
	}
	if c.Session.UserConfigName == "" {
		c.Session.UserConfigName = DefaultUserConfigName
	}
	if c.Auth.AttemptLimit <= 0 {
		c.Auth.AttemptLimit = DefaultAttemptLimit
	}
	if c.Blobs.SentinelImageKey == 0 {
		c.Blobs.SentinelImageKey = DefaultSentinelImageKey
	}
	if c.Encryption.Type == "" {
		c.Encryption.Type = "none"
	}
}

// Validate reports settings that cannot work, all at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Session.BasePath == "" {
		errs = append(errs, errors.New("session.base_path is required"))
	}
	switch c.Catalog.Type {
	case "sqlite":
		if c.Catalog.DataDir == "" {
			errs = append(errs, errors.New("catalog.data_dir is required for sqlite"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown catalog type: %q", c.Catalog.Type))
	}
	switch c.Blobs.Type {
	case "database", "memory":
	case "filesystem":
		if c.Blobs.FSRoot == "" {
			errs = append(errs, errors.New("blobs.fs_root is required for filesystem"))
		}
	case "s3":
		if c.Blobs.S3Bucket == "" {
			errs = append(errs, errors.New("blobs.s3_bucket is required for s3"))
		}
		if (c.Blobs.S3AccessKeyID == "") != (c.Blobs.S3SecretAccessKey == "") {
			errs = append(errs, errors.New("blobs.s3_access_key_id and blobs.s3_secret_access_key must be set together"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blobs type: %q", c.Blobs.Type))
	}
	switch c.Encryption.Type {
	case "none", "test":
	case "age":
		if c.Encryption.IdentityPath == "" || c.Encryption.RecipientPath == "" {
			errs = append(errs, errors.New("encryption.identity_path and encryption.recipient_path are required for age"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown encryption type: %q", c.Encryption.Type))
	}
	return errors.Join(errs...)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader and applies defaults.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. An existing file is never overwritten.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
