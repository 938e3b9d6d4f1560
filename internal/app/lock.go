package app

import (
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shirou/gopsutil/v3/process"
)

var ErrLocked = errors.New("another btrbk-restore instance is running")

type Lock struct {
	path string
}

// AcquireLock writes the current PID to path. A lock left behind by a process
// that no longer exists is taken over.
func AcquireLock(path string) (*Lock, error) {
	if b, err := os.ReadFile(path); err == nil {
		pid, convErr := strconv.Atoi(strings.TrimSpace(string(b)))
		if convErr == nil && pid != os.Getpid() {
			alive, _ := process.PidExists(int32(pid))
			if alive {
				return nil, errors.WithHint(
					errors.Wrapf(ErrLocked, "pid %d", pid),
					"remove "+path+" if that process is not btrbk-restore",
				)
			}
		}
		_ = os.Remove(path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.Wrap(ErrLocked, path)
		}
		return nil, errors.Wrap(err, "create lock file")
	}
	defer f.Close()
	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		return nil, errors.Wrap(err, "write lock file")
	}
	return &Lock{path: path}, nil
}

func (l *Lock) Release() {
	if l == nil {
		return
	}
	_ = os.Remove(l.path)
}
