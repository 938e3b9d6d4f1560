package theme

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"btrbk-restore/internal/config"
)

var ErrNotInstalled = errors.New("theme not installed")

// LoadActive returns the palette named by cfg.Theme. Any problem falls
// back to the default palette alongside the error so the UI still starts.
func LoadActive(cfg config.Config) (PaletteHex, string, error) {
	id := strings.TrimSpace(cfg.Theme)
	if id == "" || id == DefaultID {
		return DefaultPaletteHex(), DefaultID, nil
	}
	t, err := loadLocal(id)
	if err != nil {
		return DefaultPaletteHex(), DefaultID, err
	}
	return t.Colors, t.ID, nil
}

func loadLocal(id string) (ThemeFile, error) {
	dir, err := config.ThemesDir()
	if err != nil {
		return ThemeFile{}, err
	}
	b, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return ThemeFile{}, errors.Wrapf(ErrNotInstalled, "%s", id)
		}
		return ThemeFile{}, errors.Wrapf(err, "read theme %s", id)
	}
	t, err := ParseThemeFile(b)
	if err != nil {
		return ThemeFile{}, errors.Wrapf(err, "theme %s", id)
	}
	if t.ID != id {
		return ThemeFile{}, errors.Newf("theme id mismatch: expected %q got %q", id, t.ID)
	}
	return t, nil
}

// Import validates a theme file from disk and installs it under its id.
func Import(path string) (ThemeFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ThemeFile{}, errors.Wrapf(err, "read %s", path)
	}
	t, err := ParseThemeFile(b)
	if err != nil {
		return ThemeFile{}, err
	}
	return t, Save(t)
}

func Save(t ThemeFile) error {
	if err := t.Colors.Validate(); err != nil {
		return err
	}
	dir, err := config.ThemesDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	out, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, t.ID+".json"), out, 0o644)
}

// List returns "default" followed by the installed theme ids.
func List() ([]string, error) {
	ids := []string{DefaultID}
	dir, err := config.ThemesDir()
	if err != nil {
		return ids, err
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return ids, nil
		}
		return ids, err
	}
	var local []string
	for _, ent := range ents {
		name := ent.Name()
		if ent.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		local = append(local, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(local)
	return append(ids, local...), nil
}

// Exists reports whether id can be applied.
func Exists(id string) bool {
	if id == DefaultID {
		return true
	}
	_, err := loadLocal(id)
	return err == nil
}
