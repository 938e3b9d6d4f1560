package snapshot

import (
	"os"
	"path/filepath"
	"testing"
)

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.MkdirAll(filepath.Join(root, n), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScanGroupsAndSortsDescending(t *testing.T) {
	dir := t.TempDir()
	mkdirs(t, dir,
		"@.20240101_000000",
		"@.20240301_000000",
		"@home.20240101_000000",
		"@games.20240201_000000",
		"@home.20240501_000000",
		"no-marker.20240101_000000",
		"@nodot",
	)
	if err := os.WriteFile(filepath.Join(dir, "@.20250101_000000"), []byte("file"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Groups) != 3 {
		t.Fatalf("expected 3 groups, got %+v", l.Groups)
	}
	order := []string{l.Groups[0].Prefix, l.Groups[1].Prefix, l.Groups[2].Prefix}
	if order[0] != "@" || order[1] != "@games" || order[2] != "@home" {
		t.Fatalf("unexpected group order: %v", order)
	}
	root := l.Groups[0]
	if root.Entries[0].Name != "@.20240301_000000" || root.Entries[1].Name != "@.20240101_000000" {
		t.Fatalf("root group not newest first: %+v", root.Entries)
	}
	if l.Total() != 5 {
		t.Fatalf("plain files and unmarked names must be skipped, total=%d", l.Total())
	}
	if g, ok := l.Group("@home"); !ok || g.Subvolume() != "home" {
		t.Fatalf("home group lookup failed: %+v", g)
	}
	if _, ok := l.Find("@games.20240201_000000"); !ok {
		t.Fatalf("Find should locate games snapshot")
	}
}

func TestScanUnreadableDirIsEmpty(t *testing.T) {
	l, err := Scan(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatalf("expected read error")
	}
	if !l.Empty() || len(l.Groups) != 0 {
		t.Fatalf("expected empty listing, got %+v", l)
	}
}

func TestParseNameSplitsAtFirstDot(t *testing.T) {
	e, ok := ParseName("@home.20240101T1200.partial")
	if !ok {
		t.Fatal("expected snapshot name")
	}
	if e.Prefix != "@home" || e.Token != "20240101T1200.partial" {
		t.Fatalf("unexpected split: %+v", e)
	}
	if _, ok := ParseName("home.20240101"); ok {
		t.Fatalf("names without marker are not snapshots")
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"@.20240102_030405", "@.20240102_030405 (2024-01-02 03:04:05)"},
		{"@home.20240102T0304", "@home.20240102T0304 (2024-01-02 03:04:00)"},
		{"@home.garbage", "@home.garbage"},
		{"@nodot", "@nodot"},
	}
	for _, c := range cases {
		if got := Format(c.name, true); got != c.want {
			t.Fatalf("Format(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestFormatWithoutTimestampsIsIdentity(t *testing.T) {
	for _, name := range []string{"@.20240102_030405", "@home.20240102T0304", "", "weird..name", "@"} {
		if got := Format(name, false); got != name {
			t.Fatalf("Format(%q, false) = %q", name, got)
		}
		if Format(Format(name, false), false) != name {
			t.Fatalf("Format is not idempotent for %q", name)
		}
	}
}

func TestSubvolumeMapping(t *testing.T) {
	pairs := map[string]string{"@": "root", "@home": "home", "@games": "games"}
	for prefix, sub := range pairs {
		if got := SubvolumeFor(prefix); got != sub {
			t.Fatalf("SubvolumeFor(%q) = %q", prefix, got)
		}
		if got := PrefixFor(sub); got != prefix {
			t.Fatalf("PrefixFor(%q) = %q", sub, got)
		}
	}
	kinds := map[string]Kind{
		"root":  KindRoot,
		"home":  KindHome,
		"games": KindData,
		"":      KindUnknown,
		"..":    KindUnknown,
		"a/b":   KindUnknown,
		"x.y":   KindUnknown,
	}
	for name, want := range kinds {
		if got := KindOf(name); got != want {
			t.Fatalf("KindOf(%q) = %v, want %v", name, got, want)
		}
	}
}
