package cli

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ppiankov/credence/internal/pipeline"
)

var scheduleCron string

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run analysis (and reconciliation) on a cron schedule",
	Long: `Schedule runs 'analyze' on the configured cron expression, followed by
'reconcile' when schedule.reconcile is true, until interrupted. A run
still in progress when the next tick fires is not overlapped.

Example:
  credence schedule
  credence schedule --cron "0 * * * *"`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron expression (overrides schedule.cron)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if scheduleCron != "" {
		a.cfg.Schedule.Cron = scheduleCron
	}

	o, err := a.orchestrator()
	if err != nil {
		return err
	}

	job := &scheduledRun{ctx: ctx, orchestrator: o, reconcile: a.cfg.Schedule.Reconcile, log: a.log}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddJob(a.cfg.Schedule.Cron, job); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", a.cfg.Schedule.Cron, err)
	}

	a.log.WithField("cron", a.cfg.Schedule.Cron).Info("scheduler started")
	c.Start()

	<-ctx.Done()
	a.log.Info("stopping scheduler, waiting for the current run")
	<-c.Stop().Done()

	return nil
}

// scheduledRun is one analysis (and optional reconciliation) pass
type scheduledRun struct {
	ctx          context.Context
	orchestrator *pipeline.Orchestrator
	reconcile    bool
	log          logrus.FieldLogger
}

func (r *scheduledRun) Run() {
	if r.ctx.Err() != nil {
		return
	}

	if _, err := r.orchestrator.AnalyzeUnanalyzed(r.ctx); err != nil {
		r.log.WithError(err).Error("scheduled analysis failed")
		return
	}

	if !r.reconcile {
		return
	}
	if _, err := r.orchestrator.Reconcile(r.ctx); err != nil {
		r.log.WithError(err).Error("scheduled reconciliation failed")
	}
}
