package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"btrbk-restore/internal/restore"
	"btrbk-restore/internal/safety"
	"btrbk-restore/internal/snapshot"
)

func (c *cli) newRestoreCmd() *cobra.Command {
	var subvolume string
	var reboot bool
	cmd := &cobra.Command{
		Use:   "restore <snapshot>",
		Short: "Restore a snapshot over its live subvolume",
		Long: "The subvolume is derived from the snapshot prefix (@ is root, @home is home).\n" +
			"The live subvolume is kept as <prefix>.BROKEN.<timestamp> unless auto_cleanup is on.",
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			sub := subvolume
			if sub == "" {
				e, ok := snapshot.ParseName(name)
				if !ok {
					return usageError{errors.Wrapf(restore.ErrInvalidSubvolume, "cannot derive subvolume from %q; pass --subvolume", name)}
				}
				sub = snapshot.SubvolumeFor(e.Prefix)
			}
			p := c.printer()
			ok, err := safety.Confirm(c.safety(), c.in, c.out, fmt.Sprintf("Restore %s snapshot %s?", sub, name))
			if err != nil {
				return err
			}
			if !ok {
				p.warning("Restoration cancelled")
				return nil
			}

			lock, err := c.lock()
			if err != nil {
				return err
			}
			defer lock.Release()

			res, err := c.restoreSnapshot(cmd.Context(), c.cfg, restore.Request{Snapshot: name, Subvolume: sub})
			if err != nil {
				p.failure("Failed to restore snapshot!")
				fmt.Fprintf(c.out, "outcome: %s\n", restore.OutcomeOf(err))
				var rerr *restore.Error
				if errors.As(err, &rerr) && rerr.Backup != "" {
					fmt.Fprintf(c.out, "original subvolume: %s\n", rerr.Backup)
				}
				return err
			}
			p.success("Snapshot restored: %s -> %s", res.Source, res.Live)
			switch {
			case res.CleanupErr != nil:
				p.warning("Could not delete the old subvolume, it is kept at %s: %v", res.Backup, res.CleanupErr)
			case res.BackupKept:
				p.info("Previous subvolume kept at %s", res.Backup)
			}
			if !reboot {
				p.warning("Reboot required for the restored subvolume to be used")
				return nil
			}
			p.info("Rebooting...")
			return c.reboot(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&subvolume, "subvolume", "", "Target subvolume (root, home or a data name); derived from the prefix by default")
	cmd.Flags().BoolVar(&reboot, "reboot", false, "Reboot after a successful restore")
	return cmd
}
