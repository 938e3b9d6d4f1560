package snapshot

import (
	"strings"
	"time"
)

var timestampLayouts = []string{
	"20060102T1504",
	"20060102_150405",
}

const displayLayout = "2006-01-02 15:04:05"

// ParseTimestamp tries the btrbk timestamp layouts in order.
func ParseTimestamp(token string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, token, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Format renders a snapshot name for display. With timestamps on, a parsable
// second segment is appended as " (YYYY-MM-DD HH:MM:SS)"; anything else is
// returned as is.
func Format(name string, showTimestamps bool) string {
	if !showTimestamps {
		return name
	}
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return name
	}
	ts, ok := ParseTimestamp(parts[1])
	if !ok {
		return name
	}
	return name + " (" + ts.Format(displayLayout) + ")"
}
