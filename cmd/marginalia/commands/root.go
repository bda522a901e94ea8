// ABOUTME: Root command, global flags and shared storage bootstrap for the CLI
// ABOUTME: Loads .env and environment config, then opens the reading store
package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/marginalia/internal/config"
	"github.com/harper/marginalia/internal/storage/sqlite"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	dbPath       string

	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "marginalia"})
)

const banner = `
███╗   ███╗ █████╗ ██████╗  ██████╗ ██╗███╗   ██╗
████╗ ████║██╔══██╗██╔══██╗██╔════╝ ██║████╗  ██║
██╔████╔██║███████║██████╔╝██║  ███╗██║██╔██╗ ██║
██║╚██╔╝██║██╔══██║██╔══██╗██║   ██║██║██║╚██╗██║
██║ ╚═╝ ██║██║  ██║██║  ██║╚██████╔╝██║██║ ╚████║
╚═╝     ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝ ╚═╝╚═╝  ╚═══╝`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marginalia",
		Short: "Reading companion: documents, AI notes, concepts and review",
		Long: banner + `

marginalia keeps everything that happens while you read: the documents
you open, every AI explanation you ask for, the concepts those answers
surface, highlights, bookmarks and spaced-repetition review cards.

Everything lives in one local SQLite file with full-text search.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case verbose:
				logger.SetLevel(log.DebugLevel)
			case quiet:
				logger.SetLevel(log.ErrorLevel)
			}
			if !containsString([]string{"auto", "table", "json"}, outputFormat) {
				return fmt.Errorf("unknown --format %q (want auto, table or json)", outputFormat)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table or json")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: $MARGINALIA_DB_PATH or XDG data dir)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewOpenCmd(),
		NewRecordCmd(),
		NewAskCmd(),
		NewHistoryCmd(),
		NewSearchCmd(),
		NewConceptsCmd(),
		NewReviewCmd(),
		NewSchemaCmd(),
		NewExportCmd(),
		NewSyncCmd(),
		NewMCPCmd(),
		NewStatsCmd(),
		NewVersionCmd(),
		NewInstallSkillCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads .env and the environment; --db wins over MARGINALIA_DB_PATH
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if !verbose && !quiet {
		logger.SetLevel(cfg.Level())
	}
	return cfg, nil
}

// openStorage loads configuration and opens the store it points at
func openStorage() (*sqlite.Storage, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := sqlite.NewStorageWithPath(cfg.DBPath, sqlite.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("initializing storage: %w", err)
	}
	logger.Debug("opened store", "path", cfg.DBPath)
	return store, cfg, nil
}
