// ABOUTME: CLI command to search the library
// ABOUTME: Full-text search over documents, interactions and concepts
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/marginalia/internal/models"
	"github.com/harper/marginalia/internal/storage/sqlite"
)

var (
	searchLimit    int
	searchDocument string
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the library",
		Long: `Search documents, AI interactions and concepts.

Every word matches as a prefix; punctuation is ignored. Matches in
interactions are highlighted in the snippet.

Examples:
  marginalia search "consensus"
  marginalia search --limit 3 "leader elect"
  marginalia search --document raft.pdf "term"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum results per type (default: MARGINALIA_SEARCH_LIMIT)")
	cmd.Flags().StringVar(&searchDocument, "document", "", "Only search interactions in this document (path or ID)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchLimit < 0 {
		return validatePositiveInt(searchLimit, "limit")
	}

	store, cfg, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	limit := searchLimit
	if limit == 0 {
		limit = cfg.SearchLimit
	}

	results := &models.SearchResults{}
	if searchDocument != "" {
		doc, err := lookupDocument(store, searchDocument)
		if err != nil {
			return fmt.Errorf("finding document: %w", err)
		}
		if doc == nil {
			return fmt.Errorf("document %q not found", searchDocument)
		}
		results.Interactions, err = store.Search().SearchInteractionsInDocument(doc.ID, args[0], limit)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}
	} else {
		results, err = store.Search().SearchAll(args[0], limit)
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), results)
	}
	if results.Total() == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Nothing found for query: %s\n", args[0])
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TYPE\tRANK\tMATCH\tID\n")
	fmt.Fprintf(w, "----\t----\t-----\t--\n")
	for _, d := range results.Documents {
		fmt.Fprintf(w, "document\t%.3f\t%s\t%s\n", d.Rank, truncate(d.Filename, 60), d.ID)
	}
	for _, in := range results.Interactions {
		fmt.Fprintf(w, "interaction\t%.3f\t%s\t%s\n", in.Rank, truncate(plainSnippet(in.Snippet), 60), in.ID)
	}
	for _, c := range results.Concepts {
		fmt.Fprintf(w, "concept\t%.3f\t%s\t%s\n", c.Rank, truncate(c.Name, 60), c.ID)
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nFound %d result(s)\n", results.Total())
	}
	return nil
}

// plainSnippet swaps highlight markup for terminal-friendly brackets
func plainSnippet(s string) string {
	s = strings.ReplaceAll(s, sqlite.SnippetOpen, "[")
	return strings.ReplaceAll(s, sqlite.SnippetClose, "]")
}
