package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/credence/internal/store"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file.jsonl>",
	Short: "Import scraped posts from a JSON-lines file",
	Long: `Import reads one JSON object per line: post fields (title, content,
author, link, published_at, likes, comments, reposts, hashtags) and an
optional "fact_checks" array. Blank lines and lines starting with # are
skipped. Posts whose link is already stored are not imported again.

Example:
  credence import posts.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := importFile(ctx, a, args[0])

	printHeader(os.Stderr, "Import Complete")
	fmt.Fprintf(os.Stderr, "  Lines:       %d\n", report.Lines)
	fmt.Fprintf(os.Stderr, "  Inserted:    %d\n", report.Inserted)
	fmt.Fprintf(os.Stderr, "  Duplicates:  %d\n", report.Duplicates)
	fmt.Fprintf(os.Stderr, "  Invalid:     %d\n", report.Invalid)
	fmt.Fprintf(os.Stderr, "  Fact-checks: %d\n", report.FactChecks)
	fmt.Fprintln(os.Stderr)

	return err
}

func importFile(ctx context.Context, a *app, path string) (store.ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return store.ImportReport{}, fmt.Errorf("open import file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return store.ImportJSONL(ctx, f, a.store, a.log.WithField("file", path))
}
