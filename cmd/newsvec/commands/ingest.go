// ABOUTME: CLI command to ingest documents into the embedding corpus
// ABOUTME: Reads plain text files, stdin, or JSON lines of articles
package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harper/newsvec/internal/app"
	"github.com/harper/newsvec/internal/models"
)

var (
	ingestTitle     string
	ingestSource    string
	ingestURL       string
	ingestSummary   string
	ingestJSONL     bool
	ingestNoSummary bool
)

// NewIngestCmd creates ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Embed documents and add them to the corpus",
		Long: `Embed documents and append their chunk and summary vectors to the corpus.

Each file is one document unless --jsonl is set, in which case every line
is a JSON object with title, url, source, text, summary and published_at
fields. Use "-" or no arguments to read from stdin. Documents whose id or
URL is already indexed are skipped.

Examples:
  newsvec ingest article.txt
  newsvec ingest --title "Rates hold" --url https://example.com/rates article.txt
  newsvec ingest --jsonl feed.jsonl
  cat article.txt | newsvec ingest --source newsletter`,
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestTitle, "title", "", "Document title (single document only)")
	cmd.Flags().StringVar(&ingestSource, "source", "cli", "Source or publication name")
	cmd.Flags().StringVar(&ingestURL, "url", "", "Document URL (single document only)")
	cmd.Flags().StringVar(&ingestSummary, "summary", "", "Summary to embed (single document only)")
	cmd.Flags().BoolVar(&ingestJSONL, "jsonl", false, "Read JSON lines of documents")
	cmd.Flags().BoolVar(&ingestNoSummary, "no-summary", false, "Do not derive a summary when none is given")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	format, err := resolvedFormat()
	if err != nil {
		return err
	}

	docs, err := readDocuments(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return errors.New("no documents to ingest")
	}

	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	report, err := a.NewIngestor(!ingestNoSummary).Ingest(cmd.Context(), docs)
	if err != nil {
		return fmt.Errorf("ingestion interrupted: %w", err)
	}

	if format != "table" {
		return writeStructured(cmd.OutOrStdout(), format, report)
	}

	if len(report.Failed) > 0 {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "FAILED\tTEXT\tERROR\n")
		for _, f := range report.Failed {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.DocumentID, truncate(f.Snippet, 30), truncate(f.Message, 60))
		}
		_ = w.Flush()
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d, skipped %d, failed %d (%d embeddings)\n",
			len(report.Added), len(report.Skipped), len(report.Failed), report.Records)
	}
	return nil
}

// documentInput is one JSON line of --jsonl input
type documentInput struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Text        string    `json:"text"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"published_at"`
}

func readDocuments(stdin io.Reader, args []string) ([]*models.Document, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}
	single := !ingestJSONL && len(args) == 1
	if !single && (ingestTitle != "" || ingestURL != "" || ingestSummary != "") {
		return nil, errors.New("--title, --url and --summary apply to a single document")
	}

	var docs []*models.Document
	for _, arg := range args {
		var (
			r    io.Reader
			name = arg
		)
		if arg == "-" {
			r = stdin
			name = "stdin"
		} else {
			f, err := os.Open(arg) // #nosec G304
			if err != nil {
				return nil, fmt.Errorf("reading file: %w", err)
			}
			defer func() { _ = f.Close() }()
			r = f
		}

		if ingestJSONL {
			batch, err := parseJSONL(r, name)
			if err != nil {
				return nil, err
			}
			docs = append(docs, batch...)
			continue
		}

		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, fmt.Errorf("%s is empty", name)
		}

		title := ingestTitle
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		}
		doc := models.NewDocument(title, ingestSource, text)
		doc.URL = ingestURL
		doc.Summary = ingestSummary
		docs = append(docs, doc)
	}
	return docs, nil
}

func parseJSONL(r io.Reader, name string) ([]*models.Document, error) {
	var docs []*models.Document

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var in documentInput
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, line, err)
		}
		if strings.TrimSpace(in.Text) == "" {
			return nil, fmt.Errorf("%s line %d: text is required", name, line)
		}

		doc := models.NewDocument(in.Title, in.Source, in.Text)
		if in.ID != "" {
			doc.ID = in.ID
		} else if in.URL != "" {
			// Stable ids let reruns of the same feed line up
			doc.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(in.URL)).String()
		}
		if doc.Source == "" {
			doc.Source = ingestSource
		}
		doc.URL = in.URL
		doc.Summary = in.Summary
		if !in.PublishedAt.IsZero() {
			doc.PublishedAt = in.PublishedAt
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return docs, nil
}
