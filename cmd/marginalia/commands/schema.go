// ABOUTME: CLI commands for inspecting and repairing the database schema
// ABOUTME: Wraps SchemaVersion, Migrate and Reconcile from the storage layer
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/marginalia/internal/storage/sqlite"
)

// NewSchemaCmd creates the schema command group
func NewSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect, migrate and repair the database schema",
		Long: `Inspect, migrate and repair the SQLite schema.

Opening the store already migrates it to the latest version and
recreates any missing table, index, full-text table or trigger.
These commands run the same steps explicitly and report the result.`,
	}

	cmd.AddCommand(newSchemaVersionCmd())
	cmd.AddCommand(newSchemaMigrateCmd())
	cmd.AddCommand(newSchemaRepairCmd())

	return cmd
}

func newSchemaVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			v, err := store.DB().SchemaVersion()
			if err != nil {
				return fmt.Errorf("reading schema version: %w", err)
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"version": v, "latest": sqlite.CurrentSchemaVersion, "path": cfg.DBPath,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d (latest %d)\n", v, sqlite.CurrentSchemaVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n", cfg.DBPath)
			return nil
		},
	}
}

func newSchemaMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			v, err := store.DB().Migrate()
			if err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema at version %d\n", v)
			}
			return nil
		},
	}
}

func newSchemaRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Recreate missing schema objects",
		Long: `Recreate any required table, index, full-text table or trigger that is
missing. Existing objects and rows are never dropped. Full-text tables
that had to be recreated are rebuilt from their base tables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			report, err := store.DB().Reconcile()
			if err != nil {
				return err
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), report)
			}
			if !report.Repaired {
				fmt.Fprintln(cmd.OutOrStdout(), "No repair needed: schema is complete")
				return nil
			}
			objects := append(append([]string{}, report.Tables...), report.Objects...)
			fmt.Fprintf(cmd.OutOrStdout(), "Repaired: %s\n", strings.Join(objects, ", "))
			return nil
		},
	}
}
