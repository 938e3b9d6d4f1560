package restore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"btrbk-restore/internal/app"
	"btrbk-restore/internal/snapshot"
)

var (
	rootDirs  = []string{"etc", "usr", "var", "bin"}
	rootFiles = []string{"etc/fstab", "etc/passwd"}
)

// Verify is a sanity check on a freshly restored subvolume, not an integrity
// check: it looks for a handful of well-known paths.
func Verify(ctx context.Context, runner app.CommandRunner, path string, kind snapshot.Kind) error {
	st, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(ErrVerification, err.Error())
	}
	if !st.IsDir() {
		return errors.Wrapf(ErrVerification, "%s is not a directory", path)
	}
	if _, err := runner.Run(ctx, "btrfs", "subvolume", "show", path); err != nil {
		return errors.Wrapf(ErrVerification, "%s is not a btrfs subvolume: %v", path, err)
	}
	switch kind {
	case snapshot.KindRoot:
		for _, d := range rootDirs {
			st, err := os.Stat(filepath.Join(path, d))
			if err != nil || !st.IsDir() {
				return errors.Wrapf(ErrVerification, "missing directory %s", d)
			}
		}
		for _, f := range rootFiles {
			st, err := os.Stat(filepath.Join(path, f))
			if err != nil || st.IsDir() {
				return errors.Wrapf(ErrVerification, "missing file %s", f)
			}
		}
	case snapshot.KindHome:
		ents, err := os.ReadDir(path)
		if err != nil {
			return errors.Wrap(ErrVerification, err.Error())
		}
		if len(ents) == 0 {
			return errors.Wrap(ErrVerification, "home subvolume is empty")
		}
	case snapshot.KindData:
		if _, err := os.ReadDir(path); err != nil {
			return errors.Wrap(ErrVerification, err.Error())
		}
	default:
		return errors.Wrapf(ErrVerification, "unknown subvolume type %s", kind)
	}
	return nil
}
