package main

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"btrbk-restore/internal/config"
	"btrbk-restore/internal/theme"
)

func (c *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration",
	}
	cmd.AddCommand(c.newConfigShowCmd(), c.newConfigSetCmd(), c.newConfigPathCmd())
	return cmd
}

func (c *cli) newConfigShowCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch output {
			case "json":
				b, err := json.MarshalIndent(c.cfg, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, string(b))
			case "yaml":
				enc := yaml.NewEncoder(c.out)
				enc.SetIndent(2)
				if err := enc.Encode(c.cfg); err != nil {
					return err
				}
				return enc.Close()
			default:
				return usageError{errors.Newf("unsupported output %q (json|yaml)", output)}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json|yaml")
	return cmd
}

func (c *cli) newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting and save the config file",
		Long: "Keys: btr_pool_dir, snapshots_dir, auto_cleanup, confirm_actions,\n" +
			"show_timestamps, theme, backup_tool. Booleans accept true/false and yes/no.",
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			cfg := c.cfg
			if err := cfg.Set(key, value); err != nil {
				if errors.Is(err, config.ErrUnknownKey) {
					return usageError{err}
				}
				return err
			}
			if key == "theme" && !theme.Exists(cfg.Theme) {
				return errors.WithHint(errors.Wrapf(theme.ErrNotInstalled, "%s", cfg.Theme), "import it first with 'theme import <file>'")
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			c.cfg = cfg
			shown, _ := cfg.Get(key)
			c.printer().success("Updated %s = %s", key, shown)
			return nil
		},
	}
}

func (c *cli) newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the config file path",
		Args:        usageArgs(cobra.NoArgs),
		Annotations: map[string]string{skipRootCheck: "true", skipConfigLoad: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.Path()
			if err != nil {
				return err
			}
			state := "NOT FOUND"
			if config.Exists() {
				state = "EXISTS"
			}
			fmt.Fprintf(c.out, "%s (%s)\n", p, state)
			return nil
		},
	}
}
