package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"

	"btrbk-restore/internal/app"
	"btrbk-restore/internal/config"
)

var ErrNotRoot = errors.New("this tool requires root privileges")

// RequireRoot fails unless euid is 0.
func RequireRoot(euid int) error {
	if euid != 0 {
		return errors.WithHint(ErrNotRoot, "Please run with sudo.")
	}
	return nil
}

type Check struct {
	Name   string
	OK     bool
	Detail string
}

type Report struct {
	Checks []Check
}

func (r Report) OK() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

func (r Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.OK {
			out = append(out, c)
		}
	}
	return out
}

type Env struct {
	Runner   app.CommandRunner
	Euid     int
	LookPath func(string) (string, error)
	// IsBtrfs defaults to the statfs probe.
	IsBtrfs func(string) (bool, error)
}

// Run checks everything the tool needs: root, the external commands, the
// pool on btrfs, a readable snapshots dir and a parsable config.
func Run(ctx context.Context, env Env, cfg config.Config) Report {
	lookPath := env.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	isBtrfs := env.IsBtrfs
	if isBtrfs == nil {
		isBtrfs = IsBtrfs
	}
	var rep Report
	add := func(name string, ok bool, detail string) {
		rep.Checks = append(rep.Checks, Check{Name: name, OK: ok, Detail: detail})
	}

	if err := RequireRoot(env.Euid); err != nil {
		add("root", false, fmt.Sprintf("running as uid %d", env.Euid))
	} else {
		add("root", true, "running as root")
	}

	for _, bin := range []string{"btrfs", "mv", "reboot", cfg.BackupTool} {
		if p, err := lookPath(bin); err != nil {
			add("command "+bin, false, fmt.Sprintf("missing dependency %q in PATH", bin))
		} else {
			add("command "+bin, true, p)
		}
	}

	if env.Runner != nil {
		if out, err := env.Runner.Run(ctx, "btrfs", "--version"); err != nil {
			add("btrfs version", false, err.Error())
		} else {
			add("btrfs version", true, strings.TrimSpace(string(out)))
		}
	}

	if ok, err := isBtrfs(cfg.BtrPoolDir); err != nil {
		add("pool filesystem", false, err.Error())
	} else if !ok {
		add("pool filesystem", false, cfg.BtrPoolDir+" is not on btrfs")
	} else {
		add("pool filesystem", true, cfg.BtrPoolDir+" is on btrfs")
	}

	if ents, err := os.ReadDir(cfg.SnapshotsDir); err != nil {
		add("snapshots dir", false, err.Error())
	} else {
		add("snapshots dir", true, fmt.Sprintf("%s (%d entries)", cfg.SnapshotsDir, len(ents)))
	}

	if _, err := config.LoadStrict(); err != nil {
		add("config", false, err.Error())
	} else {
		p, _ := config.Path()
		add("config", true, p)
	}
	return rep
}
