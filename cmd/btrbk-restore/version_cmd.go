package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version number",
		Args:        usageArgs(cobra.NoArgs),
		Annotations: map[string]string{skipRootCheck: "true", skipConfigLoad: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(c.out, version)
		},
	}
}
