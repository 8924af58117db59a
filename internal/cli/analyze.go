package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/credence/internal/pipeline"
)

var analyzeConcurrency int

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze every post that has no analysis yet",
	Long: `Analyze runs the content classifier and fake-news detector over every
stored post without an analysis, in ascending id order, looks up the best
stored fact-check, scores the post and stores the result.

Posts whose inference fails are skipped and retried on the next run.
A store failure aborts the run.

Example:
  credence analyze
  credence analyze --concurrency 4
  credence analyze --seed posts.jsonl -v`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

var analyzeOneCmd = &cobra.Command{
	Use:   "analyze-one <post-id>",
	Short: "Analyze one post, or print its stored analysis",
	Long: `Analyze-one prints the analysis of a post as JSON. A post already
analyzed is returned unchanged; nothing is recomputed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyzeOne,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute final categories from stored scores",
	Long: `Reconcile re-applies the category decision table to every stored
analysis without calling any model, and rewrites only the categories
that changed. Run it after changing decision thresholds.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(analyzeCmd, analyzeOneCmd, reconcileCmd)

	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 0, "posts gathered concurrently (overrides pipeline.concurrency)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if analyzeConcurrency > 0 {
		a.cfg.Pipeline.Concurrency = analyzeConcurrency
	}

	o, err := a.orchestrator()
	if err != nil {
		return err
	}

	report, err := o.AnalyzeUnanalyzed(ctx)
	printBatchReport(report)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return nil
}

func printBatchReport(r pipeline.BatchReport) {
	printHeader(os.Stderr, "Analysis Run Complete")
	fmt.Fprintf(os.Stderr, "  Run:        %s\n", r.RunID)
	fmt.Fprintf(os.Stderr, "  Candidates: %d\n", r.Candidates)
	fmt.Fprintf(os.Stderr, "  Processed:  %d\n", r.Processed)
	fmt.Fprintf(os.Stderr, "  Skipped:    %d\n", r.Skipped)
	fmt.Fprintf(os.Stderr, "  Persisted:  %d\n", r.Persisted)
	fmt.Fprintf(os.Stderr, "  Duration:   %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintln(os.Stderr)
}

func runAnalyzeOne(cmd *cobra.Command, args []string) error {
	postID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || postID <= 0 {
		return fmt.Errorf("invalid post id %q", args[0])
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	o, err := a.orchestrator()
	if err != nil {
		return err
	}

	result, created, err := o.AnalyzeOne(ctx, postID)
	if err != nil {
		return fmt.Errorf("analyze post %d: %w", postID, err)
	}
	if !created {
		fmt.Fprintf(os.Stderr, "Post %d already analyzed\n", postID)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.reconciler().Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	printHeader(os.Stderr, "Reconciliation Complete")
	fmt.Fprintf(os.Stderr, "  Examined:  %d\n", report.Examined)
	fmt.Fprintf(os.Stderr, "  Corrected: %d\n", report.Corrected)
	for _, c := range report.Changes {
		fmt.Fprintf(os.Stderr, "    post %d: %s -> %s (%s)\n", c.PostID, c.From, c.To, c.Rule)
	}
	fmt.Fprintln(os.Stderr)
	return nil
}
