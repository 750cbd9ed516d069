package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/archview",
		LogDir:  "/home/user/.local/share/archview/log",
		Session: SessionConfig{
			BasePath:          "/srv/archview/users",
			AppSubdir:         "viewer",
			UserConfigName:    "USER.INI",
			DefaultConfigPath: "/srv/archview/users/USER.INI",
		},
		Auth:    AuthConfig{AttemptLimit: 5},
		Catalog: CatalogConfig{Type: "sqlite", DataDir: "/home/user/.local/share/archview/db"},
		Blobs: BlobsConfig{
			Type:             "s3",
			S3Bucket:         "archive-blobs",
			S3Prefix:         "prod/",
			S3Region:         "eu-central-1",
			S3Endpoint:       "http://localhost:9000",
			S3PathStyle:      true,
			SentinelImageKey: 300,
		},
		Encryption: EncryptionConfig{
			Type:          "age",
			IdentityPath:  "/keys/archview.key",
			RecipientPath: "/keys/archview.pub",
		},
		Cache: CacheConfig{CleanupOnExit: true},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if *got != *original {
		t.Errorf("Read() = %+v, want %+v", *got, *original)
	}
}

func TestManager_Read_AppliesDefaults(t *testing.T) {
	m := &Manager{}
	got, err := m.Read(strings.NewReader(`
[session]
base_path = "/srv/users"

[catalog]
type = "memory"

[blobs]
type = "memory"
`))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.Auth.AttemptLimit != DefaultAttemptLimit {
		t.Errorf("Auth.AttemptLimit = %d, want %d", got.Auth.AttemptLimit, DefaultAttemptLimit)
	}
	if got.Blobs.SentinelImageKey != DefaultSentinelImageKey {
		t.Errorf("Blobs.SentinelImageKey = %d, want %d", got.Blobs.SentinelImageKey, DefaultSentinelImageKey)
	}
	if got.Session.AppSubdir != DefaultAppSubdir || got.Session.UserConfigName != DefaultUserConfigName {
		t.Errorf("Session = %+v, want default subdir and config name", got.Session)
	}
	if got.Encryption.Type != "none" {
		t.Errorf("Encryption.Type = %q, want none", got.Encryption.Type)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/archview")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"BaseDir", cfg.BaseDir, "/data/archview"},
		{"LogDir", cfg.LogDir, "/data/archview/log"},
		{"Session.BasePath", cfg.Session.BasePath, "/data/archview/users"},
		{"Session.DefaultConfigPath", cfg.Session.DefaultConfigPath, "/data/archview/users/USER.INI"},
		{"Catalog.DataDir", cfg.Catalog.DataDir, "/data/archview/db"},
		{"Encryption.IdentityPath", cfg.Encryption.IdentityPath, "/data/archview/keys/archview.key"},
		{"Encryption.RecipientPath", cfg.Encryption.RecipientPath, "/data/archview/keys/archview.pub"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing base path", func(c *Config) { c.Session.BasePath = "" }, "session.base_path"},
		{"unknown catalog", func(c *Config) { c.Catalog.Type = "oracle" }, "unknown catalog type"},
		{"sqlite without data dir", func(c *Config) { c.Catalog.DataDir = "" }, "catalog.data_dir"},
		{"filesystem without root", func(c *Config) { c.Blobs.Type = "filesystem" }, "blobs.fs_root"},
		{"s3 without bucket", func(c *Config) { c.Blobs.Type = "s3" }, "blobs.s3_bucket"},
		{"unknown blobs", func(c *Config) { c.Blobs.Type = "ftp" }, "unknown blobs type"},
		{"age without keys", func(c *Config) { c.Encryption = EncryptionConfig{Type: "age"} }, "encryption.identity_path"},
		{"unknown encryption", func(c *Config) { c.Encryption.Type = "rot13" }, "unknown encryption type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("/data/archview")
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "archview.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "archview.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "archview.toml")
		cfg := NewConfig(dir)
		cfg.Catalog = CatalogConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Catalog.Type != "memory" {
			t.Errorf("Catalog.Type = %q, want memory", got.Catalog.Type)
		}
		if got.BaseDir != dir {
			t.Errorf("BaseDir = %q, want %q", got.BaseDir, dir)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/archview.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
