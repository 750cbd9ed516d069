package session_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"archview/internal/archive"
	"archview/internal/session"
	"archview/internal/testutil"
)

func testOptions(t *testing.T) session.Options {
	t.Helper()
	return session.Options{
		BasePath:       t.TempDir(),
		AppSubdir:      "archview",
		UserConfigName: "USER.INI",
		Clock:          testutil.FixedClock(),
		IDs:            testutil.NewStubIDGenerator(),
	}
}

func TestTryAcquire(t *testing.T) {
	t.Run("creates the working directory and lock file", func(t *testing.T) {
		opts := testOptions(t)

		h, ok, err := session.TryAcquire(opts, "jdoe")
		if err != nil || !ok {
			t.Fatalf("TryAcquire() = %v, %v", ok, err)
		}
		defer h.Release()

		wantDir := filepath.Join(opts.BasePath, "jdoe", "archview")
		if h.WorkDir != wantDir {
			t.Errorf("WorkDir = %s, want %s", h.WorkDir, wantDir)
		}
		if h.LockPath != filepath.Join(wantDir, "jdoe.lock") {
			t.Errorf("LockPath = %s", h.LockPath)
		}
		if _, err := os.Stat(h.LockPath); err != nil {
			t.Errorf("lock file missing: %v", err)
		}
		if h.SessionID != "id-1" || h.User != "jdoe" || h.PID != os.Getpid() {
			t.Errorf("record = %+v", h.Record)
		}
	})

	t.Run("second acquisition is busy until release", func(t *testing.T) {
		opts := testOptions(t)

		first, ok, err := session.TryAcquire(opts, "jdoe")
		if err != nil || !ok {
			t.Fatalf("first TryAcquire() = %v, %v", ok, err)
		}

		second, ok, err := session.TryAcquire(opts, "jdoe")
		if err != nil {
			t.Fatalf("second TryAcquire() error = %v", err)
		}
		if ok || second != nil {
			t.Fatal("second TryAcquire() succeeded while the first handle is open")
		}

		if err := first.Release(); err != nil {
			t.Fatalf("Release() error = %v", err)
		}

		third, ok, err := session.TryAcquire(opts, "jdoe")
		if err != nil || !ok {
			t.Fatalf("TryAcquire() after release = %v, %v", ok, err)
		}
		third.Release()
	})

	t.Run("different users do not contend", func(t *testing.T) {
		opts := testOptions(t)

		a, ok, err := session.TryAcquire(opts, "alice")
		if err != nil || !ok {
			t.Fatalf("TryAcquire(alice) = %v, %v", ok, err)
		}
		defer a.Release()

		b, ok, err := session.TryAcquire(opts, "bob")
		if err != nil || !ok {
			t.Fatalf("TryAcquire(bob) = %v, %v", ok, err)
		}
		defer b.Release()
	})

	t.Run("rejects logins that are not file names", func(t *testing.T) {
		opts := testOptions(t)

		_, _, err := session.TryAcquire(opts, "../escape")
		if !errors.Is(err, archive.ErrInvalidFileName) {
			t.Errorf("TryAcquire() error = %v, want ErrInvalidFileName", err)
		}
	})
}

func TestHandle_Release(t *testing.T) {
	opts := testOptions(t)
	h, ok, err := session.TryAcquire(opts, "jdoe")
	if err != nil || !ok {
		t.Fatalf("TryAcquire() = %v, %v", ok, err)
	}

	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(h.LockPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("lock file still present: %v", err)
	}
	if err := h.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}

	var nilHandle *session.Handle
	if err := nilHandle.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}
}

func TestTryAcquire_Provisioning(t *testing.T) {
	t.Run("copies the default config once", func(t *testing.T) {
		opts := testOptions(t)
		opts.DefaultConfigPath = filepath.Join(t.TempDir(), "USER.INI")
		if err := os.WriteFile(opts.DefaultConfigPath, []byte("[view]\nzoom=100\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		h, ok, err := session.TryAcquire(opts, "jdoe")
		if err != nil || !ok {
			t.Fatalf("TryAcquire() = %v, %v", ok, err)
		}
		if !h.Provisioned {
			t.Error("Provisioned = false on first acquisition")
		}
		userConfig := filepath.Join(h.WorkDir, "USER.INI")
		got, err := os.ReadFile(userConfig)
		if err != nil || string(got) != "[view]\nzoom=100\n" {
			t.Fatalf("user config = %q, %v", got, err)
		}
		h.Release()

		// Local edits survive later sessions.
		if err := os.WriteFile(userConfig, []byte("edited"), 0o644); err != nil {
			t.Fatal(err)
		}
		h, ok, err = session.TryAcquire(opts, "jdoe")
		if err != nil || !ok {
			t.Fatalf("second TryAcquire() = %v, %v", ok, err)
		}
		defer h.Release()
		if h.Provisioned {
			t.Error("Provisioned = true when the user config exists")
		}
		if got, _ := os.ReadFile(userConfig); string(got) != "edited" {
			t.Errorf("user config overwritten: %q", got)
		}
	})

	t.Run("missing default is not an error", func(t *testing.T) {
		opts := testOptions(t)
		opts.DefaultConfigPath = filepath.Join(t.TempDir(), "absent.ini")

		h, ok, err := session.TryAcquire(opts, "jdoe")
		if err != nil || !ok {
			t.Fatalf("TryAcquire() = %v, %v", ok, err)
		}
		defer h.Release()
		if h.Provisioned {
			t.Error("Provisioned = true without a default config")
		}
	})
}
