// ABOUTME: CLI command to list indexed documents
// ABOUTME: Shows the most recently added documents first
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/newsvec/internal/app"
)

var (
	listLimit int
)

// NewListCmd creates list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed documents",
		Long: `List documents in the corpus index, newest first.

Examples:
  newsvec list
  newsvec list --limit 50
  newsvec list --format json`,
		RunE: runList,
	}

	cmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum documents to show (0 for all)")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
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

	docs, err := store.ListDocuments(cmd.Context(), listLimit)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if format != "table" {
		type listed struct {
			ID      string `json:"id" yaml:"id"`
			Title   string `json:"title" yaml:"title"`
			URL     string `json:"url,omitempty" yaml:"url,omitempty"`
			Source  string `json:"source" yaml:"source"`
			AddedAt string `json:"added_at" yaml:"added_at"`
		}
		out := make([]listed, 0, len(docs))
		for _, d := range docs {
			out = append(out, listed{ID: d.ID, Title: d.Title, URL: d.URL, Source: d.Source, AddedAt: d.AddedAt.Format("2006-01-02 15:04:05")})
		}
		return writeStructured(cmd.OutOrStdout(), format, out)
	}

	if len(docs) == 0 {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No documents indexed yet. Add one with: newsvec ingest <file>")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ADDED\tSOURCE\tID\tTITLE\n")
	fmt.Fprintf(w, "-----\t------\t--\t-----\n")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", formatTime(d.AddedAt), truncate(d.Source, 15), d.ID, truncate(d.Title, 50))
	}
	return w.Flush()
}
