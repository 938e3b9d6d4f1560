// Package restore swaps a btrfs snapshot in place of a live subvolume.
//
// The live subvolume is first renamed to <prefix>.BROKEN.<timestamp>. From
// that point the procedure either completes the swap or puts the original
// back, so the live path is never left empty unless the rollback itself
// fails.
package restore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"btrbk-restore/internal/app"
	"btrbk-restore/internal/logging"
	"btrbk-restore/internal/snapshot"
)

const brokenMarker = ".BROKEN"

type Options struct {
	PoolDir      string
	SnapshotsDir string
	AutoCleanup  bool
	Logger       *zap.Logger
}

type Executor struct {
	runner app.CommandRunner
	opts   Options
	log    *zap.Logger
	Now    func() time.Time
}

func New(r app.CommandRunner, opts Options) Executor {
	return Executor{
		runner: r,
		opts:   opts,
		log:    logging.OrNop(opts.Logger),
		Now:    time.Now,
	}
}

type Request struct {
	// Snapshot is the directory name inside the snapshots dir.
	Snapshot string
	// Subvolume is the logical name ("root", "home", ...). When empty it is
	// derived from the snapshot prefix.
	Subvolume string
}

type Result struct {
	Snapshot  string
	Subvolume string
	Source    string
	Live      string
	Backup    string
	// BackupKept is false when auto-cleanup removed the backup.
	BackupKept bool
	// CleanupErr is set when auto-cleanup failed; the restore still succeeded.
	CleanupErr error
}

func (e Executor) Restore(ctx context.Context, req Request) (Result, error) {
	if e.runner == nil {
		return Result{}, errors.New("restore runner is nil")
	}
	res, kind, err := e.prepare(req)
	if err != nil {
		return res, &Error{Outcome: OutcomeAborted, Step: StepValidate, Err: err}
	}
	log := e.log.With(zap.String("snapshot", res.Snapshot), zap.String("subvolume", res.Subvolume))

	res.Backup = uniqueBackupPath(e.opts.PoolDir, snapshot.PrefixFor(res.Subvolume), e.Now())
	log.Info("moving live subvolume aside", zap.String("path", res.Live), zap.String("backup", res.Backup))
	if _, err := e.runner.Run(ctx, "mv", res.Live, res.Backup); err != nil {
		log.Error("rename failed", zap.Error(err))
		return res, &Error{
			Outcome: OutcomeAborted,
			Step:    StepRename,
			Err:     errors.WithHint(errors.Wrap(err, "move live subvolume aside"), "the live subvolume was not changed"),
		}
	}

	if _, err := e.runner.Run(ctx, "btrfs", "subvolume", "snapshot", res.Source, res.Live); err != nil {
		log.Error("snapshot failed, rolling back", zap.Error(err))
		return res, e.rollback(ctx, log, res, false, StepSnapshot, errors.Wrap(err, "create subvolume from snapshot"))
	}

	if err := Verify(ctx, e.runner, res.Live, kind); err != nil {
		log.Error("verification failed, rolling back", zap.Error(err))
		return res, e.rollback(ctx, log, res, true, StepVerify, err)
	}

	res.BackupKept = true
	if e.opts.AutoCleanup {
		if _, err := e.runner.Run(ctx, "btrfs", "subvolume", "delete", res.Backup); err != nil {
			log.Warn("auto cleanup failed", zap.String("backup", res.Backup), zap.Error(err))
			res.CleanupErr = errors.Wrap(err, "delete backup subvolume")
		} else {
			res.BackupKept = false
		}
	}
	log.Info("restore complete", zap.Bool("backup_kept", res.BackupKept))
	return res, nil
}

func (e Executor) prepare(req Request) (Result, snapshot.Kind, error) {
	name := strings.TrimSpace(req.Snapshot)
	if name == "" || strings.ContainsRune(name, filepath.Separator) {
		return Result{}, snapshot.KindUnknown, errors.Wrapf(ErrSourceMissing, "invalid snapshot name %q", req.Snapshot)
	}
	sub := strings.TrimSpace(req.Subvolume)
	if sub == "" {
		entry, ok := snapshot.ParseName(name)
		if !ok {
			return Result{}, snapshot.KindUnknown, errors.Wrapf(ErrInvalidSubvolume, "cannot derive subvolume from %q", name)
		}
		sub = snapshot.SubvolumeFor(entry.Prefix)
	}
	res := Result{Snapshot: name, Subvolume: sub}
	kind := snapshot.KindOf(sub)
	if kind == snapshot.KindUnknown {
		return res, kind, errors.Wrapf(ErrInvalidSubvolume, "%q", sub)
	}
	if strings.TrimSpace(e.opts.PoolDir) == "" || strings.TrimSpace(e.opts.SnapshotsDir) == "" {
		return res, kind, errors.New("pool and snapshots directories are required")
	}
	res.Source = filepath.Join(e.opts.SnapshotsDir, name)
	res.Live = filepath.Join(e.opts.PoolDir, snapshot.PrefixFor(sub))
	st, err := os.Stat(res.Source)
	if err != nil || !st.IsDir() {
		return res, kind, errors.Wrap(ErrSourceMissing, res.Source)
	}
	return res, kind, nil
}

// rollback puts the original subvolume back. created says whether a new
// subvolume now occupies the live path and must be deleted first.
func (e Executor) rollback(ctx context.Context, log *zap.Logger, res Result, created bool, step Step, cause error) error {
	fail := func(rbErr error) error {
		log.Error("rollback failed", zap.String("backup", res.Backup), zap.Error(rbErr))
		return &Error{
			Outcome:     OutcomeUnrecoverable,
			Step:        step,
			Backup:      res.Backup,
			Err:         errors.WithHint(cause, fmt.Sprintf("the original subvolume is at %s; move it back to %s manually", res.Backup, res.Live)),
			RollbackErr: rbErr,
		}
	}
	if created {
		if _, err := e.runner.Run(ctx, "btrfs", "subvolume", "delete", res.Live); err != nil {
			return fail(errors.Wrap(err, "delete restored subvolume"))
		}
	}
	if _, err := e.runner.Run(ctx, "mv", res.Backup, res.Live); err != nil {
		return fail(errors.Wrap(err, "move backup back"))
	}
	log.Info("rolled back", zap.String("path", res.Live))
	return &Error{Outcome: OutcomeRolledBack, Step: step, Err: cause}
}

func uniqueBackupPath(pool, prefix string, now time.Time) string {
	base := filepath.Join(pool, prefix+brokenMarker+"."+now.Format("20060102_150405"))
	p := base
	for i := 1; pathExists(p); i++ {
		p = fmt.Sprintf("%s-%d", base, i)
	}
	return p
}

func pathExists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}
