// Package session admits at most one running session per user by holding an
// exclusive handle on a lock file in the user's working directory.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"archview/internal/archive"
	"archview/internal/fs"
)

// ErrBusy means another session for the user holds the lock.
var ErrBusy = errors.New("another session for this user is active")

// Options places the working directories and names the provisioned config file.
type Options struct {
	BasePath          string
	AppSubdir         string
	UserConfigName    string // per-user config file inside the working directory
	DefaultConfigPath string // shared default copied in when the user has none

	Clock  archive.Clock
	IDs    archive.IDGenerator
	Logger archive.Logger
}

// WorkDir returns basePath/userLogin/appSubdir.
func (o Options) WorkDir(userLogin string) string {
	return filepath.Join(o.BasePath, userLogin, o.AppSubdir)
}

// LockPath returns the lock file of userLogin inside its working directory.
func (o Options) LockPath(userLogin string) string {
	return filepath.Join(o.WorkDir(userLogin), userLogin+".lock")
}

// Record is written into the lock file for diagnostics.
type Record struct {
	SessionID string    `toml:"session_id"`
	User      string    `toml:"user"`
	Host      string    `toml:"host"`
	PID       int       `toml:"pid"`
	Started   time.Time `toml:"started"`
}

// Handle is an acquired session lock.
type Handle struct {
	Record
	WorkDir     string
	LockPath    string
	Provisioned bool // the default config was copied in by this acquisition

	mu       sync.Mutex
	file     *fs.ExclusiveFile
	released bool
	logger   archive.Logger
}

// TryAcquire takes the session lock for userLogin. It returns (nil, false, nil)
// when another session holds the lock; the caller must not retry. Any other
// failure is returned as an error.
func TryAcquire(opts Options, userLogin string) (*Handle, bool, error) {
	opts = withDefaults(opts)

	if err := archive.ValidateFileName(userLogin); err != nil {
		return nil, false, fmt.Errorf("user login: %w", err)
	}

	workDir := opts.WorkDir(userLogin)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, false, fmt.Errorf("creating working directory: %w", err)
	}

	lockPath := opts.LockPath(userLogin)
	file, err := fs.OpenExclusive(lockPath, true)
	if errors.Is(err, fs.ErrLocked) {
		opts.Logger.Warn("session lock busy", "user", userLogin, "path", lockPath)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("opening lock file: %w", err)
	}

	h := &Handle{
		Record:   newRecord(opts, userLogin),
		WorkDir:  workDir,
		LockPath: lockPath,
		file:     file,
		logger:   opts.Logger,
	}
	if err := h.writeRecord(); err != nil {
		h.Release()
		return nil, false, err
	}

	provisioned, err := provisionConfig(opts, workDir)
	if err != nil {
		opts.Logger.Warn("could not provision user config", "user", userLogin, "error", err)
	}
	h.Provisioned = provisioned

	opts.Logger.Info("session lock acquired", "user", userLogin, "session_id", h.SessionID, "path", lockPath)
	return h, true, nil
}

// Release closes the lock handle and deletes the lock file.
// Releasing a nil or already released handle does nothing.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil
	}
	h.released = true

	if err := h.file.CloseAndRemove(); err != nil {
		return fmt.Errorf("releasing session lock: %w", err)
	}
	h.logger.Info("session lock released", "user", h.User, "session_id", h.SessionID)
	return nil
}

func (h *Handle) writeRecord() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(h.Record); err != nil {
		return fmt.Errorf("encoding lock record: %w", err)
	}
	if err := h.file.Truncate(0); err != nil {
		return fmt.Errorf("truncating lock file: %w", err)
	}
	if _, err := h.file.WriteAt(buf.Bytes(), 0); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}
	return h.file.Sync()
}

// ReadRecord decodes the record of a lock file. The file of a live session
// may not be readable on every platform.
func ReadRecord(path string) (*Record, error) {
	var r Record
	if _, err := toml.DecodeFile(path, &r); err != nil {
		return nil, fmt.Errorf("reading lock record: %w", err)
	}
	return &r, nil
}

func newRecord(opts Options, userLogin string) Record {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return Record{
		SessionID: opts.IDs.New(),
		User:      userLogin,
		Host:      host,
		PID:       os.Getpid(),
		Started:   opts.Clock.Now(),
	}
}

func withDefaults(opts Options) Options {
	if opts.Clock == nil {
		opts.Clock = archive.SystemClock{}
	}
	if opts.IDs == nil {
		opts.IDs = archive.UUIDGenerator{}
	}
	if opts.Logger == nil {
		opts.Logger = archive.NewNopLogger()
	}
	return opts
}
