package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"btrbk-restore/internal/doctor"
)

func (c *cli) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "doctor",
		Short:       "Check root, required commands, the pool filesystem and the config",
		Args:        usageArgs(cobra.NoArgs),
		Annotations: map[string]string{skipRootCheck: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := doctor.Run(cmd.Context(), doctor.Env{
				Runner:   c.exec,
				Euid:     c.euid(),
				LookPath: c.lookPath,
				IsBtrfs:  c.isBtrfs,
			}, c.cfg)
			p := c.printer()
			for _, ch := range rep.Checks {
				if ch.OK {
					p.success("%s: %s", ch.Name, ch.Detail)
				} else {
					p.failure("%s: %s", ch.Name, ch.Detail)
				}
			}
			if u, err := doctor.PoolUsage(c.cfg.BtrPoolDir); err == nil && u.String() != "" {
				p.info("pool usage: %s", u)
			}
			if failed := rep.Failed(); len(failed) > 0 {
				return errors.Newf("%d of %d checks failed", len(failed), len(rep.Checks))
			}
			p.success("doctor: ok")
			return nil
		},
	}
}
