package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"btrbk-restore/internal/snapshot"
)

type listedSnapshot struct {
	Name    string `json:"name"`
	Created string `json:"created,omitempty"`
}

type listedGroup struct {
	Subvolume string           `json:"subvolume"`
	Prefix    string           `json:"prefix"`
	Snapshots []listedSnapshot `json:"snapshots"`
}

func (c *cli) newListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots grouped by subvolume, newest first",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			listing, err := snapshot.Scan(c.cfg.SnapshotsDir)
			if err != nil {
				c.log.Warn("scan snapshots", zap.String("path", c.cfg.SnapshotsDir), zap.Error(err))
			}
			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(listGroups(listing))
			}
			p := c.printer()
			if listing.Empty() {
				p.warning("No snapshots found in %s", c.cfg.SnapshotsDir)
				return nil
			}
			var rows [][]string
			for _, g := range listing.Groups {
				for i, e := range g.Entries {
					created := ""
					if t, ok := snapshot.ParseTimestamp(e.Token); ok {
						created = t.Format("2006-01-02 15:04:05")
					}
					rows = append(rows, []string{g.Subvolume(), e.Name, created, strconv.FormatBool(i == 0)})
				}
			}
			if err := p.table([]string{"SUBVOLUME", "SNAPSHOT", "CREATED", "NEWEST"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%d snapshots in %d groups\n", listing.Total(), len(listing.Groups))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the listing as JSON")
	return cmd
}

func listGroups(l snapshot.Listing) []listedGroup {
	out := make([]listedGroup, 0, len(l.Groups))
	for _, g := range l.Groups {
		lg := listedGroup{Subvolume: g.Subvolume(), Prefix: g.Prefix, Snapshots: make([]listedSnapshot, 0, len(g.Entries))}
		for _, e := range g.Entries {
			ls := listedSnapshot{Name: e.Name}
			if t, ok := snapshot.ParseTimestamp(e.Token); ok {
				ls.Created = t.Format(time.RFC3339)
			}
			lg.Snapshots = append(lg.Snapshots, ls)
		}
		out = append(out, lg)
	}
	return out
}
