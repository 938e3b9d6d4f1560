package btrbk

import "regexp"

var (
	inMarker  = regexp.MustCompile(`\bin\b`)
	outMarker = regexp.MustCompile(`\bout\b`)
)

// IsProgress matches mbuffer-style meters such as
// "in @ 12.0 MiB/s, out @ 11.8 MiB/s, 1.2 GiB total".
func IsProgress(line string) bool {
	return inMarker.MatchString(line) && outMarker.MatchString(line)
}

const defaultTranscriptLimit = 2000

// Transcript keeps the visible output. A progress line overwrites the
// previous line when that one was progress too.
type Transcript struct {
	lines        []string
	lastProgress bool
	Limit        int
}

func (t *Transcript) Add(line string) {
	progress := IsProgress(line)
	if progress && t.lastProgress && len(t.lines) > 0 {
		t.lines[len(t.lines)-1] = line
		return
	}
	t.lines = append(t.lines, line)
	t.lastProgress = progress
	limit := t.Limit
	if limit <= 0 {
		limit = defaultTranscriptLimit
	}
	if over := len(t.lines) - limit; over > 0 {
		t.lines = append([]string(nil), t.lines[over:]...)
	}
}

func (t *Transcript) Lines() []string {
	return t.lines
}

func (t *Transcript) Len() int {
	return len(t.lines)
}
