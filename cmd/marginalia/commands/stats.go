// ABOUTME: CLI command that summarizes the library
// ABOUTME: Prints row counts per entity family and cards due now
package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.Stats(store.Now())
			if err != nil {
				return fmt.Errorf("collecting stats: %w", err)
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Documents\t%s\n", humanize.Comma(int64(stats.Documents)))
			fmt.Fprintf(w, "Interactions\t%s\n", humanize.Comma(int64(stats.Interactions)))
			fmt.Fprintf(w, "Concepts\t%s\n", humanize.Comma(int64(stats.Concepts)))
			fmt.Fprintf(w, "Review cards\t%s (%d due)\n", humanize.Comma(int64(stats.ReviewCards)), stats.DueCards)
			fmt.Fprintf(w, "Highlights\t%s\n", humanize.Comma(int64(stats.Highlights)))
			fmt.Fprintf(w, "Bookmarks\t%s\n", humanize.Comma(int64(stats.Bookmarks)))
			fmt.Fprintf(w, "Conversations\t%s\n", humanize.Comma(int64(stats.Conversations)))
			fmt.Fprintf(w, "Schema\tv%d\n", stats.SchemaVersion)
			if info, err := os.Stat(cfg.DBPath); err == nil {
				fmt.Fprintf(w, "Database\t%s (%s)\n", cfg.DBPath, humanize.Bytes(uint64(info.Size())))
			}
			return w.Flush()
		},
	}
}
