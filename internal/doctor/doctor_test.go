package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"btrbk-restore/internal/config"
)

type fakeRunner struct {
	out []byte
	err error
}

func (f fakeRunner) Run(context.Context, string, ...string) ([]byte, error) {
	return f.out, f.err
}

func TestRequireRoot(t *testing.T) {
	if err := RequireRoot(0); err != nil {
		t.Fatalf("root should pass: %v", err)
	}
	if err := RequireRoot(1000); !errors.Is(err, ErrNotRoot) {
		t.Fatalf("expected ErrNotRoot, got %v", err)
	}
}

func TestRunReportsEveryCheck(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	snaps := t.TempDir()
	if err := os.MkdirAll(filepath.Join(snaps, "@.20240101_000000"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.BtrPoolDir = t.TempDir()
	cfg.SnapshotsDir = snaps

	env := Env{
		Runner:   fakeRunner{out: []byte("btrfs-progs v6.6\n")},
		Euid:     0,
		LookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
		IsBtrfs:  func(string) (bool, error) { return true, nil },
	}
	rep := Run(context.Background(), env, cfg)
	if !rep.OK() {
		t.Fatalf("expected healthy report, failed: %+v", rep.Failed())
	}
	if len(rep.Checks) != 9 {
		t.Fatalf("unexpected number of checks: %d", len(rep.Checks))
	}
}

func TestRunFlagsProblems(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	cfg.BtrPoolDir = t.TempDir()
	cfg.SnapshotsDir = filepath.Join(t.TempDir(), "missing")

	env := Env{
		Runner: fakeRunner{err: errors.New("not found")},
		Euid:   1000,
		LookPath: func(name string) (string, error) {
			if name == "btrbk" {
				return "", errors.New("not found")
			}
			return "/bin/" + name, nil
		},
		IsBtrfs: func(string) (bool, error) { return false, nil },
	}
	rep := Run(context.Background(), env, cfg)
	failed := map[string]bool{}
	for _, c := range rep.Failed() {
		failed[c.Name] = true
	}
	for _, name := range []string{"root", "command btrbk", "btrfs version", "pool filesystem", "snapshots dir"} {
		if !failed[name] {
			t.Fatalf("expected %q to fail, failed=%v", name, failed)
		}
	}
	if failed["command btrfs"] || failed["config"] {
		t.Fatalf("unexpected failures: %v", failed)
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[uint64]string{
		512:           "512 B",
		2048:          "2.0 KiB",
		5 << 30:       "5.0 GiB",
		1536 << 20:    "1.5 GiB",
	}
	for in, want := range cases {
		if got := HumanBytes(in); got != want {
			t.Fatalf("HumanBytes(%d) = %q, want %q", in, got, want)
		}
	}
	u := Usage{Total: 100 << 30, Free: 25 << 30, Fstype: "btrfs"}
	if u.String() != "25.0 GiB free of 100.0 GiB (btrfs)" {
		t.Fatalf("unexpected usage string %q", u.String())
	}
}

func TestPoolUsageOnTempDir(t *testing.T) {
	u, err := PoolUsage(t.TempDir())
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if u.Total == 0 {
		t.Fatalf("expected non-zero total")
	}
}
