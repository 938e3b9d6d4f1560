// Package maintenance deletes old snapshots and leftover .BROKEN subvolumes.
package maintenance

type Status int

const (
	StatusCompleted Status = iota
	StatusFailed
)

// EntryError records a single deletion that failed; the run continues.
type EntryError struct {
	Name string
	Err  error
}

// Result is either Failed(reason) or Completed(count, names). A completed
// run may still carry per-entry errors.
type Result struct {
	Status Status
	Reason error
	Count  int
	Names  []string
	Errors []EntryError
}

func Completed(count int, names []string) Result {
	return Result{Status: StatusCompleted, Count: count, Names: names}
}

func Failed(reason error) Result {
	return Result{Status: StatusFailed, Reason: reason}
}

func (r Result) OK() bool {
	return r.Status == StatusCompleted
}

// Err returns the failure reason, or nil for a completed run.
func (r Result) Err() error {
	if r.Status == StatusFailed {
		return r.Reason
	}
	return nil
}
