// ABOUTME: Root command, global flags, and per-command runtime setup
// ABOUTME: Loads configuration and builds the logger shared by every subcommand
package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/harper/newsvec/internal/config"
	"github.com/harper/newsvec/internal/logging"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
█▄ █ █▀▀ █ █ █ █▀ █ █ █▀▀
█ ▀█ ██▄ ▀▄▀▄▀ ▄█ ▀▄▀ █▄▄`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsvec",
		Short: "Embed news articles and search them by meaning",
		Long: banner + `

newsvec splits long articles into overlapping chunks, embeds each chunk
with the OpenAI embeddings API, and appends the vectors to a local SQLite
corpus. Queries are ranked against the corpus by cosine similarity.

Configuration comes from the environment (or a .env file):
  OPENAI_API_KEY            API key (required for ingest and search)
  NEWSVEC_DB_PATH           corpus database (default ~/.local/share/newsvec/newsvec.db)
  NEWSVEC_RECENT_DAYS       default search window in days (0 = everything)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors and suppress summaries")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json, yaml")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewIngestCmd(),
		NewSearchCmd(),
		NewListCmd(),
		NewStatsCmd(),
		NewExportCmd(),
		NewImportCmd(),
		NewMCPCmd(),
		NewInstallSkillCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// loadRuntime reads configuration and builds a logger honoring --verbose and --quiet
func loadRuntime(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("loading configuration: %w", err)
	}

	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}

	logger, err := logging.New(level, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// resolvedFormat maps "auto" to table
func resolvedFormat() (string, error) {
	switch outputFormat {
	case "", "auto", "table":
		return "table", nil
	case "json", "yaml":
		return outputFormat, nil
	default:
		return "", fmt.Errorf("unknown format %q (want auto, table, json, or yaml)", outputFormat)
	}
}
