// Package snapshot lists btrbk snapshot directories and groups them by the
// subvolume they were taken from.
package snapshot

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Marker is the leading character of every subvolume and snapshot name.
const Marker = "@"

// Entry is one snapshot directory name, split at the first dot.
type Entry struct {
	Name   string
	Prefix string
	Token  string
}

type Group struct {
	Prefix  string
	Entries []Entry
}

// Subvolume is the logical restore name of the group.
func (g Group) Subvolume() string {
	return SubvolumeFor(g.Prefix)
}

// Newest is the first entry; groups are sorted newest first.
func (g Group) Newest() (Entry, bool) {
	if len(g.Entries) == 0 {
		return Entry{}, false
	}
	return g.Entries[0], true
}

type Listing struct {
	Dir    string
	Groups []Group
}

// ParseName splits name at its first dot. Names without a dot or without the
// marker are not snapshots.
func ParseName(name string) (Entry, bool) {
	if !strings.HasPrefix(name, Marker) {
		return Entry{}, false
	}
	prefix, token, ok := strings.Cut(name, ".")
	if !ok {
		return Entry{}, false
	}
	return Entry{Name: name, Prefix: prefix, Token: token}, true
}

// Scan lists the snapshot directories in dir. The listing is empty when dir
// cannot be read; the error is returned for callers that want to report it.
func Scan(dir string) (Listing, error) {
	l := Listing{Dir: dir}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return l, err
	}
	byPrefix := map[string][]Entry{}
	for _, ent := range ents {
		if !isDir(dir, ent) {
			continue
		}
		e, ok := ParseName(ent.Name())
		if !ok {
			continue
		}
		byPrefix[e.Prefix] = append(byPrefix[e.Prefix], e)
	}
	l.Groups = Build(byPrefix)
	return l, nil
}

func isDir(dir string, ent os.DirEntry) bool {
	if ent.IsDir() {
		return true
	}
	if ent.Type()&os.ModeSymlink == 0 {
		return false
	}
	st, err := os.Stat(filepath.Join(dir, ent.Name()))
	return err == nil && st.IsDir()
}

// Build orders groups with the root prefix first and the rest alphabetically,
// and sorts every group by name descending. Plain string order only matches
// chronological order for fixed-width timestamps.
func Build(byPrefix map[string][]Entry) []Group {
	prefixes := make([]string, 0, len(byPrefix))
	for p := range byPrefix {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if prefixes[i] == Marker {
			return prefixes[j] != Marker
		}
		if prefixes[j] == Marker {
			return false
		}
		return prefixes[i] < prefixes[j]
	})
	groups := make([]Group, 0, len(prefixes))
	for _, p := range prefixes {
		entries := append([]Entry(nil), byPrefix[p]...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name > entries[j].Name })
		groups = append(groups, Group{Prefix: p, Entries: entries})
	}
	return groups
}

func (l Listing) Group(prefix string) (Group, bool) {
	for _, g := range l.Groups {
		if g.Prefix == prefix {
			return g, true
		}
	}
	return Group{}, false
}

func (l Listing) Total() int {
	n := 0
	for _, g := range l.Groups {
		n += len(g.Entries)
	}
	return n
}

func (l Listing) Empty() bool {
	return l.Total() == 0
}

// Find looks a snapshot up by its full name.
func (l Listing) Find(name string) (Entry, bool) {
	for _, g := range l.Groups {
		for _, e := range g.Entries {
			if e.Name == name {
				return e, true
			}
		}
	}
	return Entry{}, false
}
