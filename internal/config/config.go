package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"

	"btrbk-restore/internal/app"
)

type Config struct {
	BtrPoolDir     string `json:"btr_pool_dir" yaml:"btr_pool_dir"`
	SnapshotsDir   string `json:"snapshots_dir" yaml:"snapshots_dir"`
	AutoCleanup    bool   `json:"auto_cleanup" yaml:"auto_cleanup"`
	ConfirmActions bool   `json:"confirm_actions" yaml:"confirm_actions"`
	ShowTimestamps bool   `json:"show_timestamps" yaml:"show_timestamps"`
	Theme          string `json:"theme" yaml:"theme"`
	BackupTool     string `json:"backup_tool" yaml:"backup_tool"`
}

func Default() Config {
	return Config{
		BtrPoolDir:     "/mnt/btr_pool",
		SnapshotsDir:   "/mnt/btr_pool/btrbk_snapshots",
		AutoCleanup:    false,
		ConfirmActions: true,
		ShowTimestamps: true,
		Theme:          "default",
		BackupTool:     "btrbk",
	}
}

func EnsureDefaults(cfg *Config) {
	d := Default()
	if cfg.BtrPoolDir == "" {
		cfg.BtrPoolDir = d.BtrPoolDir
	}
	if cfg.SnapshotsDir == "" {
		cfg.SnapshotsDir = d.SnapshotsDir
	}
	if cfg.Theme == "" {
		cfg.Theme = d.Theme
	}
	if cfg.BackupTool == "" {
		cfg.BackupTool = d.BackupTool
	}
}

var (
	overrideMu   sync.RWMutex
	overridePath string
)

// SetPath points Load and Save at an explicit file, as with --config.
// An empty path restores the default location.
func SetPath(p string) {
	overrideMu.Lock()
	defer overrideMu.Unlock()
	overridePath = p
}

func Path() (string, error) {
	overrideMu.RLock()
	p := overridePath
	overrideMu.RUnlock()
	if p != "" {
		return p, nil
	}
	dir, err := app.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func ThemesDir() (string, error) {
	p, err := Path()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(p), "themes"), nil
}

// Exists reports whether the config file is present on disk.
func Exists() bool {
	p, err := Path()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load creates the file with defaults on first run. A file that cannot be
// parsed yields the defaults; use LoadStrict to see the parse error.
func Load() (Config, error) {
	cfg, err := LoadStrict()
	var perr *ParseError
	if errors.As(err, &perr) {
		return Default(), nil
	}
	return cfg, err
}

type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "parse " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

func LoadStrict() (Config, error) {
	cfgPath, err := Path()
	if err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := Save(cfg); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	// Unknown keys are ignored and missing ones keep their defaults.
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Default(), &ParseError{Path: cfgPath, Err: err}
	}
	EnsureDefaults(&cfg)
	return cfg, nil
}

func Save(cfg Config) error {
	EnsureDefaults(&cfg)
	cfgPath, err := Path()
	if err != nil {
		return err
	}
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create config dir")
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp := cfgPath + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrap(err, "write config")
	}
	return os.Rename(tmp, cfgPath)
}
