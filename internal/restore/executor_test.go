package restore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"btrbk-restore/internal/snapshot"
)

// fsRunner applies mv and btrfs subvolume commands to a real temp tree.
type fsRunner struct {
	calls [][]string
	fail  map[string]error
	// notSubvolume makes "btrfs subvolume show" fail for these paths.
	notSubvolume map[string]bool
}

func (f *fsRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)
	key := strings.Join(call, " ")
	if err, ok := f.fail[key]; ok {
		return nil, err
	}
	switch {
	case name == "mv" && len(args) == 2:
		return nil, os.Rename(args[0], args[1])
	case name == "btrfs" && len(args) == 4 && args[1] == "snapshot":
		if _, err := os.Stat(args[3]); err == nil {
			return nil, errors.New("target exists")
		}
		return nil, copyTree(args[2], args[3])
	case name == "btrfs" && len(args) == 3 && args[1] == "show":
		if f.notSubvolume[args[2]] {
			return nil, errors.New("not a subvolume")
		}
		_, err := os.Stat(args[2])
		return nil, err
	case name == "btrfs" && len(args) == 3 && args[1] == "delete":
		return nil, os.RemoveAll(args[2])
	}
	return nil, errors.New("unexpected command: " + key)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(src, p)
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, b, 0o644)
	})
}

type layout struct {
	pool  string
	snaps string
}

func newLayout(t *testing.T) layout {
	t.Helper()
	root := t.TempDir()
	l := layout{pool: filepath.Join(root, "pool"), snaps: filepath.Join(root, "pool", "btrbk_snapshots")}
	writeRootTree(t, filepath.Join(l.pool, "@"), "live")
	writeRootTree(t, filepath.Join(l.snaps, "@.20240601_000000"), "snap")
	mustWrite(t, filepath.Join(l.pool, "@home", "alice", "notes.txt"), "live-home")
	mustWrite(t, filepath.Join(l.snaps, "@home.20240601_000000", "alice", "notes.txt"), "snap-home")
	if err := os.MkdirAll(filepath.Join(l.snaps, "@home.20240101_000000"), 0o755); err != nil {
		t.Fatal(err)
	}
	return l
}

func writeRootTree(t *testing.T, dir, marker string) {
	t.Helper()
	for _, d := range []string{"usr", "var", "bin"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite(t, filepath.Join(dir, "etc", "fstab"), "# fstab")
	mustWrite(t, filepath.Join(dir, "etc", "passwd"), "root:x:0:0")
	mustWrite(t, filepath.Join(dir, "marker"), marker)
}

func mustWrite(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read %s: %v", p, err)
	}
	return string(b)
}

var fixedNow = func() time.Time { return time.Date(2024, 7, 1, 12, 30, 45, 0, time.Local) }

func newExecutor(r *fsRunner, l layout, autoCleanup bool) Executor {
	e := New(r, Options{PoolDir: l.pool, SnapshotsDir: l.snaps, AutoCleanup: autoCleanup})
	e.Now = fixedNow
	return e
}

func TestRestoreRootSuccessKeepsBackup(t *testing.T) {
	l := newLayout(t)
	r := &fsRunner{}
	res, err := newExecutor(r, l, false).Restore(context.Background(), Request{Snapshot: "@.20240601_000000"})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if res.Subvolume != "root" {
		t.Fatalf("subvolume should be derived from prefix, got %q", res.Subvolume)
	}
	wantBackup := filepath.Join(l.pool, "@.BROKEN.20240701_123045")
	if res.Backup != wantBackup || !res.BackupKept {
		t.Fatalf("unexpected backup: %+v", res)
	}
	if got := readFile(t, filepath.Join(l.pool, "@", "marker")); got != "snap" {
		t.Fatalf("live path should hold snapshot content, got %q", got)
	}
	if got := readFile(t, filepath.Join(wantBackup, "marker")); got != "live" {
		t.Fatalf("backup should hold original content, got %q", got)
	}
	joined := flatten(r.calls)
	mustContain(t, joined, "mv "+filepath.Join(l.pool, "@")+" "+wantBackup)
	mustContain(t, joined, "btrfs subvolume snapshot "+filepath.Join(l.snaps, "@.20240601_000000")+" "+filepath.Join(l.pool, "@"))
	mustContain(t, joined, "btrfs subvolume show "+filepath.Join(l.pool, "@"))
}

func TestRestoreAutoCleanupDeletesBackup(t *testing.T) {
	l := newLayout(t)
	r := &fsRunner{}
	res, err := newExecutor(r, l, true).Restore(context.Background(), Request{Snapshot: "@home.20240601_000000", Subvolume: "home"})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if res.BackupKept {
		t.Fatalf("backup should be removed by auto cleanup")
	}
	if _, err := os.Stat(res.Backup); !os.IsNotExist(err) {
		t.Fatalf("backup path should be gone, stat err=%v", err)
	}
	if got := readFile(t, filepath.Join(l.pool, "@home", "alice", "notes.txt")); got != "snap-home" {
		t.Fatalf("unexpected home content %q", got)
	}
}

func TestRestoreAutoCleanupFailureStillSucceeds(t *testing.T) {
	l := newLayout(t)
	backup := filepath.Join(l.pool, "@.BROKEN.20240701_123045")
	r := &fsRunner{fail: map[string]error{"btrfs subvolume delete " + backup: errors.New("busy")}}
	res, err := newExecutor(r, l, true).Restore(context.Background(), Request{Snapshot: "@.20240601_000000"})
	if err != nil {
		t.Fatalf("restore should succeed: %v", err)
	}
	if res.CleanupErr == nil || !res.BackupKept {
		t.Fatalf("cleanup failure should be reported and backup kept: %+v", res)
	}
}

func TestRestoreRenameFailureAborts(t *testing.T) {
	l := newLayout(t)
	live := filepath.Join(l.pool, "@")
	r := &fsRunner{fail: map[string]error{"mv " + live + " " + filepath.Join(l.pool, "@.BROKEN.20240701_123045"): errors.New("permission denied")}}
	_, err := newExecutor(r, l, false).Restore(context.Background(), Request{Snapshot: "@.20240601_000000"})
	var re *Error
	if !errors.As(err, &re) || re.Outcome != OutcomeAborted || re.Step != StepRename {
		t.Fatalf("expected aborted rename error, got %v", err)
	}
	if len(r.calls) != 1 {
		t.Fatalf("no command may run after a failed rename: %v", r.calls)
	}
	if got := readFile(t, filepath.Join(live, "marker")); got != "live" {
		t.Fatalf("live subvolume must be untouched, got %q", got)
	}
}

func TestRestoreSnapshotFailureRollsBack(t *testing.T) {
	l := newLayout(t)
	live := filepath.Join(l.pool, "@")
	src := filepath.Join(l.snaps, "@.20240601_000000")
	r := &fsRunner{fail: map[string]error{"btrfs subvolume snapshot " + src + " " + live: errors.New("no space left")}}
	_, err := newExecutor(r, l, false).Restore(context.Background(), Request{Snapshot: "@.20240601_000000"})
	if OutcomeOf(err) != OutcomeRolledBack {
		t.Fatalf("expected rolled back, got %v", err)
	}
	if got := readFile(t, filepath.Join(live, "marker")); got != "live" {
		t.Fatalf("original content must be back at live path, got %q", got)
	}
	if _, err := os.Stat(filepath.Join(l.pool, "@.BROKEN.20240701_123045")); !os.IsNotExist(err) {
		t.Fatalf("backup path should be empty after rollback")
	}
}

func TestRestoreVerificationFailureRollsBack(t *testing.T) {
	l := newLayout(t)
	// A root snapshot without etc/passwd fails verification.
	if err := os.Remove(filepath.Join(l.snaps, "@.20240601_000000", "etc", "passwd")); err != nil {
		t.Fatal(err)
	}
	r := &fsRunner{}
	_, err := newExecutor(r, l, false).Restore(context.Background(), Request{Snapshot: "@.20240601_000000"})
	var re *Error
	if !errors.As(err, &re) || re.Outcome != OutcomeRolledBack || re.Step != StepVerify {
		t.Fatalf("expected verify rollback, got %v", err)
	}
	if !errors.Is(err, ErrVerification) {
		t.Fatalf("error should wrap ErrVerification: %v", err)
	}
	live := filepath.Join(l.pool, "@")
	if got := readFile(t, filepath.Join(live, "marker")); got != "live" {
		t.Fatalf("live path must hold the original subvolume, got %q", got)
	}
	mustContain(t, flatten(r.calls), "btrfs subvolume delete "+live)
}

func TestRestoreEmptyHomeFailsVerification(t *testing.T) {
	l := newLayout(t)
	r := &fsRunner{}
	_, err := newExecutor(r, l, false).Restore(context.Background(), Request{Snapshot: "@home.20240101_000000"})
	if OutcomeOf(err) != OutcomeRolledBack {
		t.Fatalf("expected rollback for empty home, got %v", err)
	}
	if got := readFile(t, filepath.Join(l.pool, "@home", "alice", "notes.txt")); got != "live-home" {
		t.Fatalf("home must be restored, got %q", got)
	}
}

func TestRestoreNotASubvolumeFailsVerification(t *testing.T) {
	l := newLayout(t)
	live := filepath.Join(l.pool, "@")
	r := &fsRunner{notSubvolume: map[string]bool{live: true}}
	_, err := newExecutor(r, l, false).Restore(context.Background(), Request{Snapshot: "@.20240601_000000"})
	if OutcomeOf(err) != OutcomeRolledBack {
		t.Fatalf("expected rollback, got %v", err)
	}
}

func TestRestoreRollbackFailureIsUnrecoverable(t *testing.T) {
	l := newLayout(t)
	live := filepath.Join(l.pool, "@")
	src := filepath.Join(l.snaps, "@.20240601_000000")
	backup := filepath.Join(l.pool, "@.BROKEN.20240701_123045")
	r := &fsRunner{fail: map[string]error{
		"btrfs subvolume snapshot " + src + " " + live: errors.New("io error"),
		"mv " + backup + " " + live:                    errors.New("device busy"),
	}}
	_, err := newExecutor(r, l, false).Restore(context.Background(), Request{Snapshot: "@.20240601_000000"})
	var re *Error
	if !errors.As(err, &re) || re.Outcome != OutcomeUnrecoverable {
		t.Fatalf("expected unrecoverable, got %v", err)
	}
	if re.Backup != backup || re.RollbackErr == nil {
		t.Fatalf("unrecoverable error must name the backup: %+v", re)
	}
	if got := readFile(t, filepath.Join(backup, "marker")); got != "live" {
		t.Fatalf("original must survive at backup path, got %q", got)
	}
}

func TestRestoreBackupPathIsUnique(t *testing.T) {
	l := newLayout(t)
	taken := filepath.Join(l.pool, "@.BROKEN.20240701_123045")
	if err := os.MkdirAll(taken, 0o755); err != nil {
		t.Fatal(err)
	}
	r := &fsRunner{}
	res, err := newExecutor(r, l, false).Restore(context.Background(), Request{Snapshot: "@.20240601_000000"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Backup != taken+"-1" {
		t.Fatalf("expected suffixed backup path, got %s", res.Backup)
	}
}

func TestRestoreValidation(t *testing.T) {
	l := newLayout(t)
	r := &fsRunner{}
	e := newExecutor(r, l, false)

	_, err := e.Restore(context.Background(), Request{Snapshot: "@.20990101_000000"})
	if !errors.Is(err, ErrSourceMissing) || OutcomeOf(err) != OutcomeAborted {
		t.Fatalf("expected missing source, got %v", err)
	}
	_, err = e.Restore(context.Background(), Request{Snapshot: "@.20240601_000000", Subvolume: "../etc"})
	if !errors.Is(err, ErrInvalidSubvolume) {
		t.Fatalf("expected invalid subvolume, got %v", err)
	}
	if len(r.calls) != 0 {
		t.Fatalf("validation failures must not run commands: %v", r.calls)
	}
}

func TestVerifyUnknownKindFails(t *testing.T) {
	dir := t.TempDir()
	if err := Verify(context.Background(), &fsRunner{}, dir, snapshot.KindUnknown); !errors.Is(err, ErrVerification) {
		t.Fatalf("unknown kind must fail verification, got %v", err)
	}
	if err := Verify(context.Background(), &fsRunner{}, dir, snapshot.KindData); err != nil {
		t.Fatalf("listable data subvolume should pass: %v", err)
	}
}

func flatten(calls [][]string) string {
	rows := make([]string, 0, len(calls))
	for _, c := range calls {
		rows = append(rows, strings.Join(c, " "))
	}
	return strings.Join(rows, "\n")
}

func mustContain(t *testing.T, text, sub string) {
	t.Helper()
	if !strings.Contains(text, sub) {
		t.Fatalf("missing %q in:\n%s", sub, text)
	}
}
