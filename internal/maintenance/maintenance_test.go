package maintenance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type fakeRunner struct {
	calls []string
	fail  map[string]error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, key)
	if err, ok := f.fail[key]; ok {
		return nil, err
	}
	return []byte("ok"), nil
}

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.MkdirAll(filepath.Join(root, n), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPurgeKeepsNewestPerGroup(t *testing.T) {
	snaps := t.TempDir()
	mkdirs(t, snaps, "@.20240101_000000", "@.20240601_000000", "@home.20240101_000000")
	r := &fakeRunner{}
	res := NewService(r, t.TempDir(), snaps, nil).Purge(context.Background())

	if !res.OK() {
		t.Fatalf("purge failed: %v", res.Err())
	}
	if res.Count != 1 || !reflect.DeepEqual(res.Names, []string{"@.20240101_000000"}) {
		t.Fatalf("unexpected result: %+v", res)
	}
	want := "btrfs subvolume delete " + filepath.Join(snaps, "@.20240101_000000")
	if len(r.calls) != 1 || r.calls[0] != want {
		t.Fatalf("unexpected calls: %v", r.calls)
	}
}

func TestPurgeDeletesAllButLastInLargeGroups(t *testing.T) {
	snaps := t.TempDir()
	mkdirs(t, snaps,
		"@games.20240101_000000", "@games.20240201_000000", "@games.20240301_000000",
		"@home.20240101_000000",
	)
	r := &fakeRunner{}
	res := NewService(r, t.TempDir(), snaps, nil).Purge(context.Background())
	want := []string{"@games.20240101_000000", "@games.20240201_000000"}
	if res.Count != 2 || !reflect.DeepEqual(res.Names, want) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Count != len(r.calls) {
		t.Fatalf("count %d must equal deletions %d", res.Count, len(r.calls))
	}
}

func TestPurgeNothingToDo(t *testing.T) {
	snaps := t.TempDir()
	mkdirs(t, snaps, "@.20240101_000000", "@home.20240101_000000")
	r := &fakeRunner{}
	res := NewService(r, t.TempDir(), snaps, nil).Purge(context.Background())
	if !res.OK() || res.Count != 0 || len(res.Names) != 0 || len(r.calls) != 0 {
		t.Fatalf("expected empty completed result, got %+v calls=%v", res, r.calls)
	}
}

func TestPurgeUnreadableDirFails(t *testing.T) {
	res := NewService(&fakeRunner{}, t.TempDir(), filepath.Join(t.TempDir(), "missing"), nil).Purge(context.Background())
	if res.OK() || res.Err() == nil || res.Status != StatusFailed {
		t.Fatalf("expected failed result, got %+v", res)
	}
}

func TestPurgeContinuesPastFailures(t *testing.T) {
	snaps := t.TempDir()
	mkdirs(t, snaps, "@.20240101_000000", "@.20240201_000000", "@.20240301_000000")
	r := &fakeRunner{fail: map[string]error{
		"btrfs subvolume delete " + filepath.Join(snaps, "@.20240101_000000"): errors.New("busy"),
	}}
	res := NewService(r, t.TempDir(), snaps, nil).Purge(context.Background())
	if res.Count != 1 || !reflect.DeepEqual(res.Names, []string{"@.20240201_000000"}) {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Errors) != 1 || res.Errors[0].Name != "@.20240101_000000" {
		t.Fatalf("expected one entry error, got %+v", res.Errors)
	}
}

func TestCleanBrokenOnlyTouchesBrokenNames(t *testing.T) {
	pool := t.TempDir()
	mkdirs(t, pool, "@", "@home", "@.BROKEN", "@home.BROKEN.20240701_120000", "@games.BROKEN.20240101_000000-1", "btrbk_snapshots")
	if err := os.WriteFile(filepath.Join(pool, "notes.BROKEN.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := &fakeRunner{}
	res := NewService(r, pool, filepath.Join(pool, "btrbk_snapshots"), nil).CleanBroken(context.Background())
	want := []string{"@.BROKEN", "@games.BROKEN.20240101_000000-1", "@home.BROKEN.20240701_120000"}
	if !res.OK() || res.Count != 3 || !reflect.DeepEqual(res.Names, want) {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, c := range r.calls {
		if !strings.Contains(c, ".BROKEN") {
			t.Fatalf("deleted a non-broken entry: %s", c)
		}
	}
}

func TestCleanBrokenUnreadablePoolFails(t *testing.T) {
	res := NewService(&fakeRunner{}, filepath.Join(t.TempDir(), "missing"), "", nil).CleanBroken(context.Background())
	if res.Status != StatusFailed {
		t.Fatalf("expected failure, got %+v", res)
	}
}
