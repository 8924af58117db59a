package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/credence/internal/report"
)

var (
	reportCSV  string
	reportJSON bool
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the synthetic reliability report",
	Long: `Report prints totals, the distribution of final categories and the
most problematic posts. --csv also exports every analysis joined with its
post.

Example:
  credence report
  credence report --csv analyses.csv
  credence report --json`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportCSV, "csv", "", "export all analyses to this CSV file")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the summary as JSON")
}

func runReport(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := report.Generate(ctx, a.store)
	if err != nil {
		return err
	}

	if reportJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else if err := summary.Render(os.Stdout); err != nil {
		return err
	}

	if reportCSV == "" {
		return nil
	}

	f, err := os.Create(reportCSV)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close csv: %w", closeErr)
		}
	}()

	n, err := report.ExportCSV(ctx, a.store, f)
	if err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %d analyses to %s\n", n, reportCSV)
	return nil
}
