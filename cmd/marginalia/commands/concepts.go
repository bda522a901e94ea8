// ABOUTME: CLI commands for browsing concepts and their co-occurrence graph
// ABOUTME: Lists concepts library-wide or per document and prints graph edges
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/marginalia/internal/models"
)

var (
	conceptsLimit    int
	conceptsDocument string
)

// NewConceptsCmd creates the concepts command group
func NewConceptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "concepts",
		Short: "Browse concepts surfaced by AI interactions",
		Long: `Browse the concepts extracted from AI interactions.

Concepts are shared across documents. Two concepts are connected in
the graph when they surfaced in the same interaction.`,
	}

	cmd.PersistentFlags().StringVar(&conceptsDocument, "document", "", "Restrict to one document (path or ID)")

	cmd.AddCommand(newConceptsListCmd())
	cmd.AddCommand(newConceptsGraphCmd())

	return cmd
}

func newConceptsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List concepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var rows []models.DocumentConceptCount
			if conceptsDocument != "" {
				doc, err := lookupDocument(store, conceptsDocument)
				if err != nil {
					return fmt.Errorf("finding document: %w", err)
				}
				if doc == nil {
					return fmt.Errorf("document %q not found", conceptsDocument)
				}
				rows, err = store.Concepts().ListForDocument(doc.ID)
				if err != nil {
					return fmt.Errorf("listing concepts: %w", err)
				}
			} else {
				concepts, err := store.Concepts().List(conceptsLimit)
				if err != nil {
					return fmt.Errorf("listing concepts: %w", err)
				}
				for _, c := range concepts {
					rows = append(rows, models.DocumentConceptCount{Concept: c})
				}
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			if len(rows) == 0 {
				if !quiet {
					fmt.Fprintln(cmd.OutOrStdout(), "No concepts yet")
				}
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if conceptsDocument != "" {
				fmt.Fprintf(w, "CONCEPT\tOCCURRENCES\tID\n")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%d\t%s\n", truncate(r.Name, 40), r.OccurrenceCount, r.ID)
				}
			} else {
				fmt.Fprintf(w, "CONCEPT\tFIRST SEEN\tID\n")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\t%s\n", truncate(r.Name, 40), formatMillis(r.CreatedAt), r.ID)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&conceptsLimit, "limit", 100, "Maximum concepts to list")
	return cmd
}

func newConceptsGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Show the concept co-occurrence graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var graph *models.ConceptGraph
			if conceptsDocument != "" {
				doc, err := lookupDocument(store, conceptsDocument)
				if err != nil {
					return fmt.Errorf("finding document: %w", err)
				}
				if doc == nil {
					return fmt.Errorf("document %q not found", conceptsDocument)
				}
				graph, err = store.Concepts().GraphForDocument(doc.ID)
				if err != nil {
					return fmt.Errorf("building graph: %w", err)
				}
			} else {
				graph, err = store.Concepts().Graph()
				if err != nil {
					return fmt.Errorf("building graph: %w", err)
				}
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), graph)
			}

			names := make(map[string]string, len(graph.Nodes))
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "CONCEPT\tOCCURRENCES\tDOCUMENTS\n")
			for _, n := range graph.Nodes {
				names[n.ID] = n.Name
				fmt.Fprintf(w, "%s\t%d\t%d\n", truncate(n.Name, 40), n.TotalOccurrences, n.DocumentCount)
			}
			_ = w.Flush()

			if len(graph.Edges) > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
				for _, e := range graph.Edges {
					fmt.Fprintf(cmd.OutOrStdout(), "%s ── %s (%d)\n", names[e.Source], names[e.Target], e.Weight)
				}
			}
			return nil
		},
	}
}
