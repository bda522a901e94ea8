// ABOUTME: CLI command that asks the AI about a passage and records the answer
// ABOUTME: Uses the OpenAI collaborator, then persists the completion and its concepts
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/marginalia/internal/core"
	"github.com/harper/marginalia/internal/llm"
	"github.com/harper/marginalia/internal/models"
	"github.com/harper/marginalia/internal/storage/sqlite"
)

var (
	askAction   string
	askText     string
	askQuestion string
	askContext  string
	askPage     int
	askNoSave   bool
	askHistory  int
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <document>",
		Short: "Ask the AI about a passage",
		Long: `Ask the AI to explain, summarize or define a passage, or answer a
question about it. The answer and the concepts it surfaces are saved
to the library unless --no-save is given.

Requires OPENAI_API_KEY.

Examples:
  marginalia ask raft.pdf --text "log matching property"
  marginalia ask sicp.pdf --action ask --text "(define (f) ...)" --question "Why is this lazy?"`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askAction, "action", models.ActionExplain, "Action type (explain, summarize, define, ask)")
	cmd.Flags().StringVar(&askText, "text", "", "Selected passage (required)")
	cmd.Flags().StringVar(&askQuestion, "question", "", "Question for --action ask")
	cmd.Flags().StringVar(&askContext, "context", "", "Surrounding page text")
	cmd.Flags().IntVar(&askPage, "page", -1, "Page number")
	cmd.Flags().BoolVar(&askNoSave, "no-save", false, "Print the answer without saving it")
	cmd.Flags().IntVar(&askHistory, "history", 5, "Earlier interactions from this document to include (0 disables)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(askText) == "" {
		return fmt.Errorf("--text is required")
	}

	store, cfg, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	client, err := llm.NewOpenAIClientWithConfig(&llm.ClientConfig{
		APIKey:     cfg.OpenAIKey,
		ChatModel:  cfg.ChatModel,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	})
	if err != nil {
		return fmt.Errorf("initializing OpenAI client: %w", err)
	}

	doc, err := openDocument(store, args[0], "", nil)
	if err != nil {
		return err
	}

	history, err := readingHistory(store, doc, askHistory)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	answer, err := client.Complete(ctx, llm.Request{
		Action:       askAction,
		SelectedText: askText,
		PageContext:  askContext,
		Question:     askQuestion,
		History:      history,
	})
	if err != nil {
		return fmt.Errorf("asking AI: %w", err)
	}

	var saved string
	if !askNoSave {
		in := models.CompletionInput{
			NewInteraction: models.NewInteraction{
				DocumentID:   doc.ID,
				ActionType:   askAction,
				SelectedText: askText,
				Response:     answer.Response,
				PageNumber:   optionalInt(askPage),
			},
			Concepts: answer.Concepts,
		}
		if askContext != "" {
			in.PageContext = &askContext
		}
		out, err := store.RecordCompletion(in)
		if err != nil {
			return fmt.Errorf("saving interaction: %w", err)
		}
		saved = out.Interaction.ID
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"interaction_id": saved,
			"response":       answer.Response,
			"concepts":       answer.Concepts,
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer.Response)
	if len(answer.Concepts) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nConcepts: %s\n", strings.Join(answer.Concepts, ", "))
	}
	if saved != "" && !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Saved as %s\n", saved)
	}
	return nil
}

// readingHistory renders the latest interactions and concepts of doc as
// prompt context; empty when limit is zero or nothing was asked yet
func readingHistory(store *sqlite.Storage, doc *models.Document, limit int) (string, error) {
	if limit <= 0 {
		return "", nil
	}
	interactions, err := store.Interactions().ListByDocument(doc.ID, limit)
	if err != nil {
		return "", fmt.Errorf("loading reading history: %w", err)
	}
	concepts, err := store.Concepts().ListForDocument(doc.ID)
	if err != nil {
		return "", fmt.Errorf("loading document concepts: %w", err)
	}
	return core.HydrateReadingContext(core.ReadingContext{
		Document:     doc,
		Interactions: interactions,
		Concepts:     concepts,
	}, core.DefaultContextTokens), nil
}
