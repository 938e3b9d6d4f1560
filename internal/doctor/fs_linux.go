//go:build linux

package doctor

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// IsBtrfs reports whether path lives on a btrfs filesystem.
func IsBtrfs(path string) (bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return false, errors.Wrapf(err, "statfs %s", path)
	}
	if uint32(st.Type) == uint32(unix.BTRFS_SUPER_MAGIC) {
		return true, nil
	}
	return fsTypeFromMounts(path) == "btrfs", nil
}

func Geteuid() int {
	return unix.Geteuid()
}
