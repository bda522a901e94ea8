// ABOUTME: Sync commands for Charm cloud backup of library snapshots
// ABOUTME: Provides push, pull, status and list over Charm KV
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/marginalia/internal/charm"
	"github.com/harper/marginalia/internal/config"
)

var (
	syncKeep int
	syncKey  string
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Back up the library to Charm cloud",
		Long: `Back up and restore the library through Charm cloud.

The library itself lives in a local SQLite file. "sync push" stores a
complete snapshot in Charm KV (authenticated by your SSH keys) and
"sync pull" merges a snapshot back into the local store.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncPushCmd())
	cmd.AddCommand(newSyncPullCmd())
	cmd.AddCommand(newSyncListCmd())

	return cmd
}

func charmConfig(cfg *config.Config) *charm.Config {
	c := charm.DefaultConfig()
	c.Host = cfg.CharmHost
	c.DBName = cfg.CharmDBName
	return c
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := charm.NewClient(charmConfig(cfg))
			if err != nil {
				return fmt.Errorf("failed to connect to Charm: %w", err)
			}
			defer func() { _ = client.Close() }()

			id, err := client.ID()
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Status: Not connected")
				fmt.Fprintln(cmd.OutOrStdout(), "Check your SSH keys and CHARM_HOST")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Status: Connected")
			fmt.Fprintf(cmd.OutOrStdout(), "User ID: %s\n", id)
			fmt.Fprintf(cmd.OutOrStdout(), "Host: %s\n", cfg.CharmHost)

			if keys, err := client.ListSnapshots(); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Snapshots: %d\n", len(keys))
			}
			return nil
		},
	}
}

func newSyncPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload a snapshot of the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			snap, err := store.Export()
			if err != nil {
				return err
			}

			client, err := charm.NewClient(charmConfig(cfg))
			if err != nil {
				return fmt.Errorf("failed to connect to Charm: %w", err)
			}
			defer func() { _ = client.Close() }()

			key, err := client.PushSnapshot(commandContext(cmd), snap)
			if err != nil {
				return err
			}
			if syncKeep > 0 {
				removed, err := client.PruneSnapshots(syncKeep)
				if err != nil {
					logger.Warn("pruning old snapshots failed", "err", err)
				} else if removed > 0 {
					logger.Debug("pruned snapshots", "removed", removed)
				}
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Pushed %s (%d documents, %d interactions)\n",
					key, len(snap.Documents), len(snap.Interactions))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&syncKeep, "keep", 10, "Dated snapshots to keep (0 keeps all)")
	return cmd
}

func newSyncPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Merge a snapshot into the local library",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			client, err := charm.NewClient(charmConfig(cfg))
			if err != nil {
				return fmt.Errorf("failed to connect to Charm: %w", err)
			}
			defer func() { _ = client.Close() }()

			snap, err := client.PullSnapshot(commandContext(cmd), syncKey)
			if err != nil {
				return err
			}
			report, err := store.Import(snap)
			if err != nil {
				return err
			}
			return printImportReport(cmd, report)
		},
	}

	cmd.Flags().StringVar(&syncKey, "key", "", "Snapshot key (default: latest)")
	return cmd
}

func newSyncListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := charm.NewClient(charmConfig(cfg))
			if err != nil {
				return fmt.Errorf("failed to connect to Charm: %w", err)
			}
			defer func() { _ = client.Close() }()

			if err := client.Sync(commandContext(cmd)); err != nil {
				return err
			}
			keys, err := client.ListSnapshots()
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), keys)
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
