// ABOUTME: CLI command to open (register) a document in the library
// ABOUTME: Creates the document on first open and refreshes last_opened_at afterwards
package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harper/marginalia/internal/models"
	"github.com/harper/marginalia/internal/storage/sqlite"
)

var (
	openPages int
	openName  string
)

// NewOpenCmd creates the open command
func NewOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <path>",
		Short: "Open a document",
		Long: `Open a document, creating its library entry on first use.

Reopening an existing path only refreshes when it was last opened
(and the page count, when given).

Examples:
  marginalia open ~/papers/raft.pdf
  marginalia open --pages 320 sicp.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: runOpen,
	}

	cmd.Flags().IntVar(&openPages, "pages", -1, "Total page count")
	cmd.Flags().StringVar(&openName, "name", "", "Display name (default: file name)")

	return cmd
}

func runOpen(cmd *cobra.Command, args []string) error {
	store, _, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	doc, err := openDocument(store, args[0], openName, optionalInt(openPages))
	if err != nil {
		return err
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), doc)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Opened %s (%s)\n", doc.Filename, doc.ID)
	}
	return nil
}

// openDocument registers path in the library, keyed by its absolute form
func openDocument(store *sqlite.Storage, path, name string, pages *int) (*models.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if name == "" {
		name = filepath.Base(abs)
	}
	doc, err := store.Documents().GetOrCreate(name, abs, pages)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	return doc, nil
}

// lookupDocument finds a document by ID or by path; nil when unknown
func lookupDocument(store *sqlite.Storage, ref string) (*models.Document, error) {
	doc, err := store.Documents().Get(ref)
	if err != nil || doc != nil {
		return doc, err
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return store.Documents().GetByPath(abs)
}
