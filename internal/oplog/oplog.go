// Package oplog records every state-changing operation as one JSON line.
package oplog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	FileName   = "operations.log"
	MaxEntries = 500
)

const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusRolledBack = "rolled_back"
	StatusCancelled  = "cancelled"
)

type Entry struct {
	Timestamp string         `json:"ts"`
	Command   string         `json:"cmd"`
	Args      map[string]any `json:"args,omitempty"`
	Status    string         `json:"status"`
	Message   string         `json:"msg,omitempty"`
	Duration  int64          `json:"ms,omitempty"`
}

func NewEntry(cmd, status string, duration time.Duration) Entry {
	return Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   cmd,
		Status:    status,
		Duration:  duration.Milliseconds(),
	}
}

// Log appends to <dir>/operations.log.
type Log struct {
	Dir string
}

func (l Log) Path() string {
	return filepath.Join(l.Dir, FileName)
}

func (l Log) Write(e Entry) error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return errors.Wrap(err, "create log dir")
	}
	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open operation log")
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(e)
}

// WriteWithLimit appends e and trims the file to the newest maxEntries once
// it grows 20% past the limit.
func (l Log) WriteWithLimit(e Entry, maxEntries int) error {
	if err := l.Write(e); err != nil {
		return err
	}
	if maxEntries <= 0 {
		return nil
	}
	threshold := maxEntries + maxEntries/5
	entries, err := readAll(l.Path())
	if err != nil || len(entries) <= threshold {
		return nil
	}
	return rewrite(l.Path(), entries[len(entries)-maxEntries:])
}

// Read returns up to limit entries, newest first. limit <= 0 returns all.
func (l Log) Read(limit int) ([]Entry, error) {
	entries, err := readAll(l.Path())
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func readAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var all []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if json.Unmarshal(line, &e) != nil {
			continue
		}
		all = append(all, e)
	}
	return all, sc.Err()
}

func rewrite(path string, entries []Entry) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
