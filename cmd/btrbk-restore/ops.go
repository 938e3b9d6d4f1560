package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"btrbk-restore/internal/app"
	"btrbk-restore/internal/btrbk"
	"btrbk-restore/internal/config"
	"btrbk-restore/internal/maintenance"
	"btrbk-restore/internal/oplog"
	"btrbk-restore/internal/restore"
)

// The operations below are shared by the TUI callbacks and the scripted
// commands. Each one leaves an entry in the operation log.

func (c *cli) record(cmd, status string, started time.Time, args map[string]any, err error) {
	if c.dryRun {
		return
	}
	e := oplog.NewEntry(cmd, status, time.Since(started))
	e.Args = args
	if err != nil {
		e.Message = err.Error()
	}
	if werr := c.oplog.WriteWithLimit(e, oplog.MaxEntries); werr != nil {
		c.log.Warn("write operation log", zap.Error(werr))
	}
}

func restoreStatus(err error) string {
	switch restore.OutcomeOf(err) {
	case restore.OutcomeSucceeded:
		return oplog.StatusOK
	case restore.OutcomeRolledBack:
		return oplog.StatusRolledBack
	default:
		return oplog.StatusError
	}
}

func (c *cli) restoreSnapshot(ctx context.Context, cfg config.Config, req restore.Request) (restore.Result, error) {
	started := time.Now()
	ex := restore.New(c.runner(), restore.Options{
		PoolDir:      cfg.BtrPoolDir,
		SnapshotsDir: cfg.SnapshotsDir,
		AutoCleanup:  cfg.AutoCleanup,
		Logger:       c.log,
	})
	res, err := ex.Restore(ctx, req)
	args := map[string]any{"snapshot": req.Snapshot, "subvolume": res.Subvolume}
	if res.Backup != "" {
		args["backup"] = res.Backup
	}
	c.record("restore", restoreStatus(err), started, args, err)
	if err != nil {
		c.log.Error("restore failed",
			zap.String("snapshot", req.Snapshot),
			zap.String("outcome", restore.OutcomeOf(err).String()),
			zap.Error(err))
	}
	return res, err
}

func (c *cli) maintenanceService(cfg config.Config) maintenance.Service {
	return maintenance.NewService(c.runner(), cfg.BtrPoolDir, cfg.SnapshotsDir, c.log)
}

func (c *cli) recordMaintenance(cmd string, started time.Time, res maintenance.Result) {
	status := oplog.StatusOK
	err := res.Err()
	if err == nil && len(res.Errors) > 0 {
		status = oplog.StatusError
		err = errors.Newf("%d of %d deletions failed", len(res.Errors), len(res.Errors)+res.Count)
	} else if err != nil {
		status = oplog.StatusError
	}
	c.record(cmd, status, started, map[string]any{"count": res.Count}, err)
}

func (c *cli) purge(ctx context.Context, cfg config.Config) maintenance.Result {
	started := time.Now()
	res := c.maintenanceService(cfg).Purge(ctx)
	c.recordMaintenance("purge", started, res)
	return res
}

func (c *cli) cleanBroken(ctx context.Context, cfg config.Config) maintenance.Result {
	started := time.Now()
	res := c.maintenanceService(cfg).CleanBroken(ctx)
	c.recordMaintenance("clean-broken", started, res)
	return res
}

// startSnapshot launches the backup tool. The caller drains the events; the
// log entry is written once the process has exited, then recorded is closed.
func (c *cli) startSnapshot(ctx context.Context, cfg config.Config) (p *btrbk.Process, recorded <-chan struct{}, err error) {
	started := time.Now()
	p, err = c.start(ctx, cfg.BackupTool, btrbk.RunArgs...)
	if err != nil {
		c.record("snapshot", oplog.StatusError, started, map[string]any{"tool": cfg.BackupTool}, err)
		return nil, nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		werr := p.Wait()
		status := oplog.StatusOK
		switch {
		case errors.Is(werr, btrbk.ErrCancelled):
			status = oplog.StatusCancelled
		case werr != nil:
			status = oplog.StatusError
		}
		c.record("snapshot", status, started, map[string]any{"tool": cfg.BackupTool}, werr)
	}()
	return p, done, nil
}

func (c *cli) reboot(ctx context.Context) error {
	started := time.Now()
	err := app.Reboot(ctx, c.runner())
	status := oplog.StatusOK
	if err != nil {
		status = oplog.StatusError
	}
	c.record("reboot", status, started, nil, err)
	return err
}
