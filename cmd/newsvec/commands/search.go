// ABOUTME: CLI command to search the corpus
// ABOUTME: Embeds the query and ranks stored chunks and summaries by cosine similarity
package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/newsvec/internal/app"
	"github.com/harper/newsvec/internal/models"
	"github.com/harper/newsvec/internal/retriever"
	"github.com/harper/newsvec/internal/storage/sqlite"
)

var (
	searchLimit      int
	searchKind       string
	searchRecentDays int
	searchDocument   string
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the corpus by meaning",
		Long: `Search the corpus using semantic similarity.

The query is embedded with the configured model and compared with every
stored vector by cosine similarity; the most similar texts come first.

Examples:
  newsvec search "central bank rate decision"
  newsvec search --limit 10 --kind summary "chip export controls"
  newsvec search --recent-days 7 --format json "oil prices"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", 5, "Maximum results to return")
	cmd.Flags().StringVar(&searchKind, "kind", "all", "Embeddings to search: all, chunk, summary")
	cmd.Flags().IntVar(&searchRecentDays, "recent-days", -1, "Only search documents added in the last N days (-1 uses NEWSVEC_RECENT_DAYS)")
	cmd.Flags().StringVar(&searchDocument, "document", "", "Only search one document's embeddings")

	return cmd
}

func searchFilter(defaultDays int, now time.Time) (sqlite.Filter, error) {
	days := searchRecentDays
	if days < 0 {
		days = defaultDays
	}
	filter := sqlite.SinceDays(days, now)
	filter.DocumentID = searchDocument

	switch searchKind {
	case "all", "":
	case string(models.KindChunk), string(models.KindSummary):
		filter.Kind = models.RecordKind(searchKind)
	default:
		return filter, fmt.Errorf("--kind must be all, chunk, or summary, got %q", searchKind)
	}
	return filter, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}
	format, err := resolvedFormat()
	if err != nil {
		return err
	}

	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	filter, err := searchFilter(cfg.RecentDays, time.Now())
	if err != nil {
		return err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	query := args[0]
	results, err := a.Retriever.Query(cmd.Context(), query, searchLimit, filter)
	if err != nil {
		return fmt.Errorf("searching corpus: %w", err)
	}

	if format != "table" {
		if results == nil {
			results = []models.SearchResult{}
		}
		return writeStructured(cmd.OutOrStdout(), format, results)
	}

	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), retriever.NoContextFound)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\tKIND\tEMBEDDING ID\tTEXT\n")
	fmt.Fprintf(w, "-----\t----\t------------\t----\n")
	for _, r := range results {
		fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n",
			r.Similarity,
			r.Record.Kind(),
			truncate(r.Record.EmbeddingID, 48),
			truncate(r.Record.Text, 70))
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nFound %d result(s)\n", len(results))
	}
	return nil
}
