// ABOUTME: CLI commands to export and import the corpus
// ABOUTME: CSV carries every embedding row; YAML exports the document index
package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/newsvec/internal/app"
)

// NewExportCmd creates export command
func NewExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export the corpus to CSV or YAML",
		Long: `Export the corpus to a file.

A .csv file receives every embedding row in append order with the columns
article_uuid, embedding_uuid, text, embedding. A .yaml or .yml file receives
the document index with per-document embedding counts.

Examples:
  newsvec export embeddings.csv
  newsvec export corpus.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	store, err := app.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	path := args[0]
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := store.ExportToYAML(cmd.Context(), path); err != nil {
			return fmt.Errorf("exporting YAML: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Exported document index to %s\n", path)
		}
	case ".csv":
		n, err := store.ExportToCSV(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("exporting CSV: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d embeddings to %s\n", n, path)
		}
	default:
		return fmt.Errorf("unsupported export file %q (use .csv, .yaml or .yml)", path)
	}
	return nil
}

// NewImportCmd creates import command
func NewImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Append embeddings from a CSV file",
		Long: `Append embedding rows from a CSV file with the columns
article_uuid, embedding_uuid, text, embedding.

Every vector is parsed strictly as a list of numbers. A single malformed
row rejects the whole file and nothing is written.

Examples:
  newsvec import article_embeddings.csv`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	store, err := app.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	n, err := store.ImportFromCSV(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("importing %s: %w", args[0], err)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d embeddings from %s\n", n, args[0])
	}
	return nil
}
