package app

import (
	"os"
	"path/filepath"
)

const Name = "btrbk-restore"

// ConfigDir keeps the directory name used by earlier releases so existing
// config files are picked up.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "btrbk_restore"), nil
}

// StateDir returns $XDG_STATE_HOME/btrbk-restore, falling back to
// ~/.local/state/btrbk-restore.
func StateDir() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return filepath.Join(v, Name)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), Name)
	}
	return filepath.Join(home, ".local", "state", Name)
}

func LogDir() string {
	return filepath.Join(StateDir(), "logs")
}

func LockPath() string {
	return filepath.Join(os.TempDir(), Name+".lock")
}
