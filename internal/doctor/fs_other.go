//go:build !linux

package doctor

import "os"

func IsBtrfs(path string) (bool, error) {
	return fsTypeFromMounts(path) == "btrfs", nil
}

func Geteuid() int {
	return os.Geteuid()
}
