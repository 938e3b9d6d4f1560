package doctor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// fsTypeFromMounts finds the longest mountpoint containing path.
func fsTypeFromMounts(path string) string {
	parts, err := disk.Partitions(true)
	if err != nil {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	best, fstype := -1, ""
	for _, p := range parts {
		mp := p.Mountpoint
		if abs != mp && !strings.HasPrefix(abs, strings.TrimSuffix(mp, "/")+"/") {
			continue
		}
		if len(mp) > best {
			best, fstype = len(mp), p.Fstype
		}
	}
	return fstype
}

type Usage struct {
	Path   string
	Fstype string
	Total  uint64
	Free   uint64
}

func PoolUsage(path string) (Usage, error) {
	st, err := disk.Usage(path)
	if err != nil {
		return Usage{Path: path}, err
	}
	return Usage{Path: path, Fstype: st.Fstype, Total: st.Total, Free: st.Free}, nil
}

// String renders e.g. "12.3 GiB free of 100.0 GiB (btrfs)".
func (u Usage) String() string {
	if u.Total == 0 {
		return ""
	}
	s := fmt.Sprintf("%s free of %s", HumanBytes(u.Free), HumanBytes(u.Total))
	if u.Fstype != "" {
		s += " (" + u.Fstype + ")"
	}
	return s
}

func HumanBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
