package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("ARCHVIEW_CONFIG_PATH", "/srv/archview/archview.toml")
		t.Setenv("ARCHVIEW_HOME", "/srv/archview")

		got, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		want := Defaults{
			ConfigPath: "/srv/archview/archview.toml",
			BaseDir:    "/srv/archview",
			LogDir:     filepath.Join("/srv/archview", "log"),
		}
		if *got != want {
			t.Errorf("GetDefaults() = %+v, want %+v", *got, want)
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("ARCHVIEW_CONFIG_PATH", "")
		t.Setenv("ARCHVIEW_HOME", "")

		got, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()
		base := filepath.Join(homeDir, ".local", "share", "archview")
		want := Defaults{
			ConfigPath: filepath.Join(homeDir, ".config", "archview.toml"),
			BaseDir:    base,
			LogDir:     filepath.Join(base, "log"),
		}
		if *got != want {
			t.Errorf("GetDefaults() = %+v, want %+v", *got, want)
		}
	})
}
