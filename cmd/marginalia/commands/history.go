// ABOUTME: CLI command to list past AI interactions
// ABOUTME: Shows the newest interactions overall or for one document
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/marginalia/internal/models"
)

var historyLimit int

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [document]",
		Short: "List past AI interactions",
		Long: `List past AI interactions, newest first.

With a document (path or ID) only its interactions are shown.

Examples:
  marginalia history
  marginalia history raft.pdf --limit 5
  marginalia history --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum interactions to show")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(historyLimit, "limit"); err != nil {
		return err
	}

	store, _, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var interactions []models.Interaction
	if len(args) == 1 {
		doc, err := lookupDocument(store, args[0])
		if err != nil {
			return fmt.Errorf("finding document: %w", err)
		}
		if doc == nil {
			return fmt.Errorf("document %q not found", args[0])
		}
		interactions, err = store.Interactions().ListByDocument(doc.ID, historyLimit)
		if err != nil {
			return fmt.Errorf("listing interactions: %w", err)
		}
	} else {
		interactions, err = store.Interactions().Recent(historyLimit)
		if err != nil {
			return fmt.Errorf("listing interactions: %w", err)
		}
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), interactions)
	}
	if len(interactions) == 0 {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No interactions yet")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "WHEN\tACTION\tSELECTION\tRESPONSE\tID\n")
	fmt.Fprintf(w, "----\t------\t---------\t--------\t--\n")
	for _, in := range interactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			formatMillis(in.CreatedAt),
			in.ActionType,
			truncate(in.SelectedText, 30),
			truncate(in.Response, 40),
			in.ID)
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d interaction(s)\n", len(interactions))
	}
	return nil
}
