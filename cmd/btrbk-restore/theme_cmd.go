package main

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"btrbk-restore/internal/config"
	"btrbk-restore/internal/theme"
)

func (c *cli) newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Manage TUI color themes",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List installed themes",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := theme.List()
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "themes (active: %s):\n", c.activeTheme())
				for _, id := range ids {
					prefix := "-"
					if id == c.activeTheme() {
						prefix = "*"
					}
					fmt.Fprintf(c.out, "%s %s\n", prefix, id)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "current",
			Short: "Print the active theme",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, id, err := theme.LoadActive(c.cfg)
				if err != nil {
					c.printer().warning("theme %q cannot be loaded, the default is used: %v", c.cfg.Theme, err)
				}
				fmt.Fprintf(c.out, "active theme: %s\n", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "apply <theme-id|default>",
			Short: "Make an installed theme active",
			Args:  usageArgs(cobra.ExactArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				id := strings.TrimSpace(args[0])
				if !theme.Exists(id) {
					return errors.WithHint(errors.Wrapf(theme.ErrNotInstalled, "%s", id), "see 'theme list'")
				}
				cfg := c.cfg
				cfg.Theme = id
				if err := config.Save(cfg); err != nil {
					return err
				}
				c.cfg = cfg
				c.printer().success("Theme %s applied", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "import <file>",
			Short: "Validate a theme JSON file and install it",
			Args:  usageArgs(cobra.ExactArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				t, err := theme.Import(args[0])
				if err != nil {
					return err
				}
				c.printer().success("Installed theme %s (%s); apply it with 'theme apply %s'", t.ID, t.Name, t.ID)
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) activeTheme() string {
	if c.cfg.Theme == "" {
		return theme.DefaultID
	}
	return c.cfg.Theme
}
