package theme

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"btrbk-restore/internal/config"
)

func TestPaletteValidate(t *testing.T) {
	p := DefaultPaletteHex()
	if err := p.Validate(); err != nil {
		t.Fatalf("expected valid default palette: %v", err)
	}
	p.Warning = "orange"
	if err := p.Validate(); err == nil {
		t.Fatalf("expected invalid hex error")
	}
}

func TestResolveForTerminal(t *testing.T) {
	p := DefaultPaletteHex()
	tc := ResolveForTerminal(p, true)
	if tc.Danger != string(p.Danger) || tc.DetailsValue != string(p.DetailsValue) {
		t.Fatalf("truecolor should keep hex values: %+v", tc)
	}
	fallback := ResolveForTerminal(p, false)
	for name, v := range map[string]string{
		"danger":    fallback.Danger,
		"success":   fallback.Success,
		"timestamp": fallback.Timestamp,
	} {
		if v == "" || v[0] == '#' {
			t.Fatalf("expected xterm index for %s, got %q", name, v)
		}
	}
}

func TestNearestXterm256(t *testing.T) {
	if got := nearestXterm256(rgb{255, 0, 0}); got != 9 {
		t.Fatalf("pure red should map to 9, got %d", got)
	}
	if got := nearestXterm256(rgb{0, 0, 0}); got != 0 {
		t.Fatalf("black should map to 0, got %d", got)
	}
}

func TestParseThemeFilePartialColors(t *testing.T) {
	tf, err := ParseThemeFile([]byte(`{"id":"night","name":"Night","colors":{"danger":"#ff0000"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tf.Colors.Danger != "#ff0000" {
		t.Fatalf("danger not applied: %q", tf.Colors.Danger)
	}
	if tf.Colors.Success != DefaultPaletteHex().Success {
		t.Fatalf("missing colors should keep defaults")
	}
	if tf.Version != 1 {
		t.Fatalf("version should default to 1, got %d", tf.Version)
	}
}

func TestParseThemeFileRejects(t *testing.T) {
	for _, raw := range []string{
		`{"name":"no id"}`,
		`{"id":"default"}`,
		`{"id":"x","colors":{"border":"blue"}}`,
		`not json`,
	} {
		if _, err := ParseThemeFile([]byte(raw)); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
}

func withConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	config.SetPath(filepath.Join(dir, "config.json"))
	t.Cleanup(func() { config.SetPath("") })
	return filepath.Join(dir, "themes")
}

func TestImportListAndLoad(t *testing.T) {
	themes := withConfigDir(t)
	src := filepath.Join(t.TempDir(), "night.json")
	if err := os.WriteFile(src, []byte(`{"id":"night","colors":{"title":"#112233"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Import(src); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := os.Stat(filepath.Join(themes, "night.json")); err != nil {
		t.Fatalf("theme not installed: %v", err)
	}
	ids, err := List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "default" || ids[1] != "night" {
		t.Fatalf("unexpected ids %v", ids)
	}
	cfg := config.Default()
	cfg.Theme = "night"
	p, id, err := LoadActive(cfg)
	if err != nil || id != "night" || p.Title != "#112233" {
		t.Fatalf("load active: %q %q %v", id, p.Title, err)
	}
	if !Exists("night") || !Exists("default") || Exists("missing") {
		t.Fatalf("unexpected Exists results")
	}
}

func TestLoadActiveFallsBack(t *testing.T) {
	withConfigDir(t)
	cfg := config.Default()
	cfg.Theme = "missing"
	p, id, err := LoadActive(cfg)
	if !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("expected ErrNotInstalled, got %v", err)
	}
	if id != DefaultID || p != DefaultPaletteHex() {
		t.Fatalf("expected default palette fallback")
	}
}
