package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	archfs "archview/internal/fs"
)

// provisionConfig copies the shared default config into workDir when the
// user has none yet. It reports whether a copy was made.
func provisionConfig(opts Options, workDir string) (bool, error) {
	if opts.UserConfigName == "" || opts.DefaultConfigPath == "" {
		return false, nil
	}

	target := filepath.Join(workDir, opts.UserConfigName)
	if _, err := os.Stat(target); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", target, err)
	}

	data, err := os.ReadFile(opts.DefaultConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading default config: %w", err)
	}

	if err := archfs.NewOSFilesystem().WriteFile(target, data); err != nil {
		return false, fmt.Errorf("copying default config: %w", err)
	}
	opts.Logger.Info("user config provisioned", "path", target, "from", opts.DefaultConfigPath)
	return true, nil
}
