package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults are the locations used when no config overrides them.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - ARCHVIEW_CONFIG_PATH: config file location (default: ~/.config/archview.toml)
//   - ARCHVIEW_HOME: base directory for archview data (default: ~/.local/share/archview)
func GetDefaults() (*Defaults, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("ARCHVIEW_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "archview.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("ARCHVIEW_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "archview"), nil
}
