package main

import (
	"context"

	"go.uber.org/zap"

	"btrbk-restore/internal/btrbk"
	"btrbk-restore/internal/config"
	"btrbk-restore/internal/doctor"
	"btrbk-restore/internal/maintenance"
	"btrbk-restore/internal/oplog"
	"btrbk-restore/internal/restore"
	"btrbk-restore/internal/snapshot"
	"btrbk-restore/internal/theme"
	"btrbk-restore/internal/tui"
)

func (c *cli) runTUI(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lock, err := c.lock()
	if err != nil {
		return err
	}
	defer lock.Release()

	// The TUI owns the terminal; dry-run output goes to the log file.
	if c.dryRun {
		c.out = zap.NewStdLog(c.log).Writer()
	}
	return tui.RunApp(tui.AppCallbacks{
		Config:  c.cfg,
		Version: version,
		Theme:   c.resolveUITheme(c.cfg),
		Scan: func(cfg config.Config) (snapshot.Listing, error) {
			return snapshot.Scan(cfg.SnapshotsDir)
		},
		Restore: func(cfg config.Config, req restore.Request) (restore.Result, error) {
			return c.restoreSnapshot(ctx, cfg, req)
		},
		PlanCleanBroken: func(cfg config.Config) ([]string, error) {
			return c.maintenanceService(cfg).PlanCleanBroken()
		},
		Purge: func(cfg config.Config) maintenance.Result {
			return c.purge(ctx, cfg)
		},
		CleanBroken: func(cfg config.Config) maintenance.Result {
			return c.cleanBroken(ctx, cfg)
		},
		StartSnapshot: func(cfg config.Config) (*btrbk.Process, error) {
			p, _, err := c.startSnapshot(ctx, cfg)
			return p, err
		},
		Reboot: func() error {
			return c.reboot(ctx)
		},
		SaveConfig: config.Save,
		History: func(limit int) ([]oplog.Entry, error) {
			return c.oplog.Read(limit)
		},
		PoolUsage: func(cfg config.Config) string {
			u, err := doctor.PoolUsage(cfg.BtrPoolDir)
			if err != nil {
				return ""
			}
			return u.String()
		},
		ConfigPath: func() (string, bool) {
			p, _ := config.Path()
			return p, config.Exists()
		},
	})
}

func (c *cli) resolveUITheme(cfg config.Config) tui.UITheme {
	palette, _, err := theme.LoadActive(cfg)
	if err != nil {
		c.log.Warn("loading theme failed, using default", zap.String("theme", cfg.Theme), zap.Error(err))
	}
	return tui.ThemeFromPalette(palette)
}
