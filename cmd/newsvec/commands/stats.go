// ABOUTME: CLI command to show corpus statistics
// ABOUTME: Reports document and embedding counts, duplicates, and orphans
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/newsvec/internal/app"
)

// NewStatsCmd creates stats command
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		Long: `Show document and embedding counts for the corpus.

Duplicate IDs count embedding IDs written more than once by reruns;
orphans are embeddings with no document index row (for example after
a CSV import).`,
		RunE: runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	format, err := resolvedFormat()
	if err != nil {
		return err
	}
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	store, err := app.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	if format != "table" {
		return writeStructured(cmd.OutOrStdout(), format, stats)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Database:\t%s\n", store.DB().Path())
	fmt.Fprintf(w, "Documents:\t%d\n", stats.Documents)
	fmt.Fprintf(w, "Embeddings:\t%d\n", stats.Embeddings)
	fmt.Fprintf(w, "  chunks:\t%d\n", stats.ChunkEmbeddings)
	fmt.Fprintf(w, "  summaries:\t%d\n", stats.SummaryEmbeddings)
	fmt.Fprintf(w, "Duplicate IDs:\t%d\n", stats.DuplicateIDs)
	fmt.Fprintf(w, "Orphans:\t%d\n", stats.Orphans)
	return w.Flush()
}
