package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// factcheckCmd groups fact-check commands
var factcheckCmd = &cobra.Command{
	Use:   "factcheck",
	Short: "Collect claim reviews for stored posts",
}

var factcheckCollectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Search claim reviews for posts that have none",
	Long: `Collect extracts keywords from every post without fact-check records,
queries the Google Fact Check Tools claims:search endpoint, and stores
the most similar claim reviews (at most factcheck.max_records per post,
similarity at least factcheck.min_similarity).

Requires factcheck.api_key (or FACTCHECK_API_KEY).

Example:
  credence factcheck collect
  FACTCHECK_API_KEY=... credence factcheck collect -v`,
	Args: cobra.NoArgs,
	RunE: runFactcheckCollect,
}

func init() {
	rootCmd.AddCommand(factcheckCmd)
	factcheckCmd.AddCommand(factcheckCollectCmd)
}

func runFactcheckCollect(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.collector().CollectPending(ctx)

	printHeader(os.Stderr, "Fact-Check Collection")
	fmt.Fprintf(os.Stderr, "  Examined: %d\n", report.Examined)
	fmt.Fprintf(os.Stderr, "  Matched:  %d\n", report.Matched)
	fmt.Fprintf(os.Stderr, "  Records:  %d\n", report.Records)
	fmt.Fprintf(os.Stderr, "  Failed:   %d\n", report.Failed)
	fmt.Fprintf(os.Stderr, "  Duration: %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return fmt.Errorf("collect fact-checks: %w", err)
	}
	return nil
}
