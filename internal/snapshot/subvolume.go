package snapshot

import "strings"

type Kind int

const (
	KindUnknown Kind = iota
	KindRoot
	KindHome
	KindData
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindHome:
		return "home"
	case KindData:
		return "data"
	default:
		return "unknown"
	}
}

const (
	RootSubvolume = "root"
	HomeSubvolume = "home"
)

// SubvolumeFor maps a snapshot prefix to its logical name: "@" is root,
// "@home" is home, "@games" is games.
func SubvolumeFor(prefix string) string {
	name := strings.TrimPrefix(prefix, Marker)
	if name == "" {
		return RootSubvolume
	}
	return name
}

// PrefixFor is the inverse of SubvolumeFor and also the live subvolume's
// directory name inside the pool.
func PrefixFor(subvolume string) string {
	if subvolume == RootSubvolume {
		return Marker
	}
	return Marker + subvolume
}

func KindOf(subvolume string) Kind {
	switch subvolume {
	case RootSubvolume:
		return KindRoot
	case HomeSubvolume:
		return KindHome
	case "", ".", "..":
		return KindUnknown
	}
	if strings.ContainsAny(subvolume, "/.") || strings.HasPrefix(subvolume, Marker) {
		return KindUnknown
	}
	return KindData
}
