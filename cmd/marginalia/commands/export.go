// ABOUTME: CLI commands to export the library to a file and import it back
// ABOUTME: YAML snapshots round-trip; Markdown is a read-only reading journal
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/marginalia/internal/storage/sqlite"
)

var (
	exportOutput string
	exportFormat string
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the library",
		Long: `Export every document, interaction, concept, review card, highlight,
bookmark and conversation.

Formats:
  yaml      complete snapshot, can be imported again
  markdown  human-readable reading journal

Examples:
  marginalia export
  marginalia export -o library.yaml
  marginalia export -f markdown -o journal.md`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "Export format: yaml or markdown")

	cmd.AddCommand(newImportCmd())

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(exportFormat)
	if format == "md" {
		format = "markdown"
	}
	if !containsString([]string{"yaml", "markdown"}, format) {
		return fmt.Errorf("unknown export format %q (want yaml or markdown)", exportFormat)
	}

	store, _, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if exportOutput != "" {
		if format == "markdown" {
			err = store.ExportToMarkdown(exportOutput)
		} else {
			err = store.ExportToYAML(exportOutput)
		}
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(os.Stderr, "✓ Exported to %s\n", exportOutput)
		}
		return nil
	}

	snap, err := store.Export()
	if err != nil {
		return err
	}
	if format == "markdown" {
		return sqlite.WriteMarkdown(cmd.OutOrStdout(), snap)
	}
	return sqlite.WriteYAML(cmd.OutOrStdout(), snap)
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a YAML snapshot",
		Long: `Import a YAML snapshot written by "marginalia export".

Rows that already exist are kept; documents and concepts are matched by
path and name so snapshots from another machine merge cleanly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening snapshot: %w", err)
			}
			defer func() { _ = f.Close() }()

			snap, err := sqlite.ReadYAML(f)
			if err != nil {
				return err
			}

			store, _, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			report, err := store.Import(snap)
			if err != nil {
				return err
			}
			return printImportReport(cmd, report)
		},
	}
}

func printImportReport(cmd *cobra.Command, report sqlite.ImportReport) error {
	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), report)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d new row(s)\n", report.Total())
		for table, n := range report {
			if n > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", table, n)
			}
		}
	}
	return nil
}
