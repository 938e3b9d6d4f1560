package restore

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type Outcome int

const (
	// OutcomeSucceeded: the snapshot is live and verified.
	OutcomeSucceeded Outcome = iota
	// OutcomeAborted: the live subvolume could not be moved aside; nothing changed.
	OutcomeAborted
	// OutcomeRolledBack: the original subvolume is back at the live path.
	OutcomeRolledBack
	// OutcomeUnrecoverable: the original could not be put back and sits at
	// the backup path.
	OutcomeUnrecoverable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeAborted:
		return "aborted"
	case OutcomeRolledBack:
		return "rolled back"
	case OutcomeUnrecoverable:
		return "unrecoverable"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Step string

const (
	StepValidate Step = "validate"
	StepRename   Step = "rename"
	StepSnapshot Step = "snapshot"
	StepVerify   Step = "verify"
	StepRollback Step = "rollback"
	StepCleanup  Step = "cleanup"
)

var (
	ErrInvalidSubvolume = errors.New("invalid subvolume")
	ErrSourceMissing    = errors.New("snapshot not found")
	ErrVerification     = errors.New("verification failed")
)

// Error is returned for every restore that did not succeed. Step is where
// the procedure failed; Backup is where the original subvolume can be found
// when Outcome is OutcomeUnrecoverable.
type Error struct {
	Outcome     Outcome
	Step        Step
	Backup      string
	Err         error
	RollbackErr error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("restore %s at %s: %v", e.Outcome, e.Step, e.Err)
	if e.RollbackErr != nil {
		msg += fmt.Sprintf(" (rollback: %v)", e.RollbackErr)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// OutcomeOf extracts the outcome from an error returned by Restore.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSucceeded
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Outcome
	}
	return OutcomeAborted
}
