package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	log, err := New(Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	log.Info("restore finished", zap.String("subvolume", "home"))
	log.Debug("hidden at info level")
	_ = log.Sync()

	b, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatal(err)
	}
	text := string(b)
	if !strings.Contains(text, `"subvolume":"home"`) {
		t.Fatalf("missing field in %s", text)
	}
	if strings.Contains(text, "hidden at info level") {
		t.Fatalf("debug entry written at info level")
	}
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	log, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zap.ErrorLevel) {
		t.Fatalf("expected nop logger")
	}
	if OrNop(nil) == nil {
		t.Fatalf("OrNop must never return nil")
	}
}
