package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"btrbk-restore/internal/oplog"
)

func (c *cli) newLogCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the operation log, newest first",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := c.oplog.Read(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				c.printer().info("No operations recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Timestamp,
					e.Command,
					e.Status,
					(time.Duration(e.Duration) * time.Millisecond).String(),
					logDetails(e),
				})
			}
			return c.printer().table([]string{"TIME", "COMMAND", "STATUS", "DURATION", "DETAILS"}, rows)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show (0 for all)")
	return cmd
}

func logDetails(e oplog.Entry) string {
	keys := make([]string, 0, len(e.Args))
	for k := range e.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Args[k]))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, " ")
}
