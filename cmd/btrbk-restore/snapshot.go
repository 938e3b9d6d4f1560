package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"btrbk-restore/internal/btrbk"
	"btrbk-restore/internal/safety"
)

func (c *cli) newSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Run btrbk to create new snapshots, streaming its output",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := c.printer()
			ok, err := safety.Confirm(c.safety(), c.in, c.out, "Create new snapshots with btrbk?")
			if err != nil {
				return err
			}
			if !ok {
				p.warning("Snapshot creation cancelled")
				return nil
			}
			if c.dryRun {
				fmt.Fprintf(c.out, "[dry-run] %s %s\n", c.cfg.BackupTool, strings.Join(btrbk.RunArgs, " "))
				return nil
			}
			lock, err := c.lock()
			if err != nil {
				return err
			}
			defer lock.Release()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			proc, recorded, err := c.startSnapshot(ctx, c.cfg)
			if err != nil {
				return err
			}
			var final error
			redraw := false
			for ev := range proc.Events() {
				if ev.Done {
					final = ev.Err
					continue
				}
				// On a terminal progress meters update in place.
				if c.tty && btrbk.IsProgress(ev.Line) {
					fmt.Fprintf(c.out, "\r\x1b[2K%s", ev.Line)
					redraw = true
					continue
				}
				if redraw {
					fmt.Fprintln(c.out)
					redraw = false
				}
				fmt.Fprintln(c.out, ev.Line)
			}
			if redraw {
				fmt.Fprintln(c.out)
			}
			<-recorded
			switch {
			case errors.Is(final, btrbk.ErrCancelled):
				p.warning("Operation cancelled by user")
				return final
			case final != nil:
				p.failure("Error creating snapshots!")
				return final
			}
			p.success("Snapshots created successfully!")
			return nil
		},
	}
}
