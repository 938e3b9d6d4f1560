package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"btrbk-restore/internal/maintenance"
	"btrbk-restore/internal/safety"
)

func (c *cli) newPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete all but the newest snapshot of every subvolume",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := c.maintenanceService(c.cfg).PlanPurge()
			if err != nil {
				return errors.Wrap(err, "read snapshots dir")
			}
			p := c.printer()
			if len(names) == 0 {
				p.info("No old snapshots to purge")
				return nil
			}
			c.preview(names)
			ok, err := safety.Confirm(c.safety(), c.in, c.out, fmt.Sprintf("Purge %d old snapshots (keep only most recent)?", len(names)))
			if err != nil {
				return err
			}
			if !ok {
				p.warning("Purge cancelled")
				return nil
			}
			lock, err := c.lock()
			if err != nil {
				return err
			}
			defer lock.Release()
			res := c.purge(cmd.Context(), c.cfg)
			return c.reportMaintenance(res, "Purged %d old snapshots successfully")
		},
	}
}

func (c *cli) newCleanBrokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean-broken",
		Short: "Delete the .BROKEN subvolumes left behind by earlier restores",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := c.maintenanceService(c.cfg).PlanCleanBroken()
			if err != nil {
				return errors.Wrap(err, "read pool dir")
			}
			p := c.printer()
			if len(names) == 0 {
				p.info("No .BROKEN subvolumes found")
				return nil
			}
			c.preview(names)
			ok, err := safety.Confirm(c.safety(), c.in, c.out, fmt.Sprintf("Delete %d .BROKEN subvolumes?", len(names)))
			if err != nil {
				return err
			}
			if !ok {
				p.warning("Cleanup cancelled")
				return nil
			}
			lock, err := c.lock()
			if err != nil {
				return err
			}
			defer lock.Release()
			res := c.cleanBroken(cmd.Context(), c.cfg)
			return c.reportMaintenance(res, "Removed %d .BROKEN subvolumes")
		},
	}
}

func (c *cli) preview(names []string) {
	for _, n := range names {
		fmt.Fprintf(c.out, "  delete %s\n", n)
	}
}

func (c *cli) reportMaintenance(res maintenance.Result, done string) error {
	p := c.printer()
	if err := res.Err(); err != nil {
		p.failure("%v", err)
		return err
	}
	if c.dryRun {
		p.info("Dry run, nothing was deleted")
		return nil
	}
	p.success(done, res.Count)
	for _, e := range res.Errors {
		p.failure("%s: %v", e.Name, e.Err)
	}
	if n := len(res.Errors); n > 0 {
		return errors.Newf("%d deletions failed", n)
	}
	return nil
}
