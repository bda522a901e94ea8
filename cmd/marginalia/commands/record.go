// ABOUTME: CLI command to record an AI exchange that happened elsewhere
// ABOUTME: Stores the interaction and its concepts in one transaction
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/marginalia/internal/models"
)

var (
	recordAction   string
	recordText     string
	recordResponse string
	recordContext  string
	recordPage     int
	recordConcepts []string
)

// NewRecordCmd creates the record command
func NewRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <document>",
		Short: "Record an AI interaction about a passage",
		Long: `Record a finished AI exchange about a passage of a document.

The document is opened (created) if needed. Concepts are deduplicated
case-insensitively and linked to both the interaction and the document.

Examples:
  marginalia record raft.pdf --text "leader election" --response "..." --concepts raft,consensus
  marginalia record sicp.pdf --action define --text "thunk" --response "A delayed computation" --page 12`,
		Args: cobra.ExactArgs(1),
		RunE: runRecord,
	}

	cmd.Flags().StringVar(&recordAction, "action", models.ActionExplain, "Action type (explain, summarize, define, ask)")
	cmd.Flags().StringVar(&recordText, "text", "", "Selected passage (required)")
	cmd.Flags().StringVar(&recordResponse, "response", "", "AI response")
	cmd.Flags().StringVar(&recordContext, "context", "", "Surrounding page text")
	cmd.Flags().IntVar(&recordPage, "page", -1, "Page number")
	cmd.Flags().StringSliceVar(&recordConcepts, "concepts", []string{}, "Concepts (comma-separated)")

	return cmd
}

func runRecord(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(recordText) == "" {
		return fmt.Errorf("--text is required")
	}

	store, _, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	doc, err := openDocument(store, args[0], "", nil)
	if err != nil {
		return err
	}

	in := models.CompletionInput{
		NewInteraction: models.NewInteraction{
			DocumentID:   doc.ID,
			ActionType:   recordAction,
			SelectedText: recordText,
			Response:     recordResponse,
			PageNumber:   optionalInt(recordPage),
		},
		Concepts: recordConcepts,
	}
	if recordContext != "" {
		in.PageContext = &recordContext
	}

	out, err := store.RecordCompletion(in)
	if err != nil {
		return fmt.Errorf("recording interaction: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), out)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded %s on %s with %d concept(s)\n",
			out.Interaction.ID, doc.Filename, len(out.Concepts))
	}
	return nil
}
