// Package pipeline runs analyses over stored posts: signal gathering,
// scoring, persistence and reconciliation of stored categories.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/score"
	"github.com/ppiankov/credence/internal/signals"
	"github.com/ppiankov/credence/internal/store"
	"github.com/ppiankov/credence/internal/textclean"
	"github.com/ppiankov/credence/internal/worker"
)

// Store is the persistence surface the orchestrator needs
type Store interface {
	store.PostReader
	store.AnalysisStore
}

// FactCheckLookup returns the selected fact-check of a post, nil when none
type FactCheckLookup interface {
	Lookup(ctx context.Context, postID int64) (*model.FactCheckVerdict, error)
}

// Options tune an orchestrator. Zero values are valid.
type Options struct {
	// Concurrency > 1 gathers signals for several posts at once.
	// Persistence always happens one post at a time in id order.
	Concurrency int
	Normalizer  *textclean.Normalizer
	Log         logrus.FieldLogger
}

// Orchestrator analyzes posts and keeps stored categories in line with the decision table
type Orchestrator struct {
	store       Store
	signals     signals.Set
	factChecks  FactCheckLookup
	engine      *score.Engine
	normalizer  *textclean.Normalizer
	concurrency int
	log         logrus.FieldLogger
}

// NewOrchestrator creates an orchestrator. factChecks may be nil.
func NewOrchestrator(st Store, set signals.Set, factChecks FactCheckLookup, engine *score.Engine, opts Options) *Orchestrator {
	if opts.Normalizer == nil {
		opts.Normalizer = textclean.NewNormalizer()
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Log = l
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if engine == nil {
		engine = score.NewEngine(nil)
	}

	return &Orchestrator{
		store:       st,
		signals:     set,
		factChecks:  factChecks,
		engine:      engine,
		normalizer:  opts.Normalizer,
		concurrency: opts.Concurrency,
		log:         opts.Log,
	}
}

// BatchReport summarizes one AnalyzeUnanalyzed run
type BatchReport struct {
	RunID      string        `json:"run_id"`
	Candidates int           `json:"candidates"`
	Processed  int           `json:"processed"`
	Skipped    int           `json:"skipped"`
	Persisted  int           `json:"persisted"`
	Duration   time.Duration `json:"duration"`
}

// Change is one category rewritten by reconciliation
type Change struct {
	AnalysisID int64          `json:"analysis_id"`
	PostID     int64          `json:"post_id"`
	From       model.Category `json:"from"`
	To         model.Category `json:"to"`
	Rule       string         `json:"rule"`
}

// ReconcileReport summarizes one Reconcile run
type ReconcileReport struct {
	Examined  int      `json:"examined"`
	Corrected int      `json:"corrected"`
	Changes   []Change `json:"changes,omitempty"`
}

// gathered holds the signals of one post before scoring
type gathered struct {
	inputs   score.Inputs
	emotions model.EmotionProfile
}

// AnalyzeUnanalyzed scores every post without an analysis, in ascending id order.
// Inference and validation failures skip the post. Persistence failures and
// duplicate writes abort the run; the partial report is returned with the error.
func (o *Orchestrator) AnalyzeUnanalyzed(ctx context.Context) (BatchReport, error) {
	start := time.Now()
	report := BatchReport{RunID: uuid.NewString()}
	log := o.log.WithField("run_id", report.RunID)

	finish := func(err error) (BatchReport, error) {
		report.Duration = time.Since(start)
		entry := log.WithFields(logrus.Fields{
			"candidates": report.Candidates,
			"processed":  report.Processed,
			"skipped":    report.Skipped,
			"persisted":  report.Persisted,
			"duration":   report.Duration.String(),
		})
		if err != nil {
			entry.WithError(err).Error("analysis run aborted")
		} else {
			entry.Info("analysis run complete")
		}
		return report, err
	}

	posts, err := o.store.UnanalyzedPosts(ctx)
	if err != nil {
		return finish(&model.PersistenceError{Op: "list unanalyzed posts", Err: err})
	}
	report.Candidates = len(posts)
	if len(posts) == 0 {
		return finish(nil)
	}

	if o.concurrency > 1 {
		return finish(o.analyzeConcurrently(ctx, posts, &report))
	}

	for i := range posts {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		post := &posts[i]

		g, err := o.gather(ctx, post)
		if err == nil {
			err = o.persist(ctx, post, g)
		}
		if err := o.account(ctx, &report, post.ID, err); err != nil {
			return finish(err)
		}
	}

	return finish(nil)
}

// analyzeConcurrently gathers signals through the worker pool one window of
// posts at a time, then persists the window in id order. A fatal error stops
// the run before the next window starts inference.
func (o *Orchestrator) analyzeConcurrently(ctx context.Context, posts []model.Post, report *BatchReport) error {
	processor := worker.NewBatchProcessor(func(ctx context.Context, post model.Post) (*gathered, error) {
		return o.gather(ctx, &post)
	}, o.concurrency)

	for start := 0; start < len(posts); start += o.concurrency {
		if err := ctx.Err(); err != nil {
			return err
		}
		window := posts[start:min(start+o.concurrency, len(posts))]

		for _, outcome := range processor.Process(ctx, window) {
			if err := ctx.Err(); err != nil {
				return err
			}
			post := &window[outcome.Index]

			err := outcome.Err
			if err == nil {
				err = o.persist(ctx, post, outcome.Value)
			}
			if err := o.account(ctx, report, post.ID, err); err != nil {
				return err
			}
		}
	}

	return ctx.Err()
}

// account records the outcome of one post and returns an error when the run must stop
func (o *Orchestrator) account(ctx context.Context, report *BatchReport, postID int64, err error) error {
	report.Processed++
	if err == nil {
		report.Persisted++
		return nil
	}

	if fatal(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		report.Processed--
		return ctxErr
	}

	report.Skipped++
	o.log.WithFields(logrus.Fields{"post_id": postID, "error": err}).Warn("skipping post")
	return nil
}

// fatal reports whether err stops a batch
func fatal(err error) bool {
	var pe *model.PersistenceError
	var de *model.DuplicateAnalysisError
	return errors.As(err, &pe) || errors.As(err, &de)
}

// AnalyzeOne returns the analysis of a post, computing and storing it when missing.
// created is false when a stored analysis was returned unchanged.
func (o *Orchestrator) AnalyzeOne(ctx context.Context, postID int64) (*model.AnalysisResult, bool, error) {
	existing, err := o.store.GetAnalysis(ctx, postID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, model.ErrAnalysisNotFound):
		return nil, false, &model.PersistenceError{Op: "get analysis", Err: err}
	}

	post, err := o.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, model.ErrPostNotFound) {
			return nil, false, err
		}
		return nil, false, &model.PersistenceError{Op: "get post", Err: err}
	}

	g, err := o.gather(ctx, post)
	if err != nil {
		return nil, false, err
	}

	result, err := o.score(post, g)
	if err != nil {
		return nil, false, err
	}
	if err := o.save(ctx, result); err != nil {
		return nil, false, err
	}

	return result, true, nil
}

// Reconcile recomputes the final category of every stored analysis from its
// stored fields and rewrites only the rows whose category changed.
func (o *Orchestrator) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	analyses, err := o.store.ListAnalyses(ctx)
	if err != nil {
		return report, &model.PersistenceError{Op: "list analyses", Err: err}
	}

	for i := range analyses {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		a := &analyses[i]
		report.Examined++

		decision := o.engine.Recategorize(a)
		if decision.Category == a.FinalCategory {
			continue
		}

		if err := o.store.UpdateCategory(ctx, a.ID, decision.Category); err != nil {
			return report, &model.PersistenceError{Op: "update category", Err: err}
		}

		report.Corrected++
		report.Changes = append(report.Changes, Change{
			AnalysisID: a.ID,
			PostID:     a.PostID,
			From:       a.FinalCategory,
			To:         decision.Category,
			Rule:       decision.Rule,
		})
		o.log.WithFields(logrus.Fields{
			"post_id": a.PostID,
			"from":    a.FinalCategory,
			"to":      decision.Category,
			"rule":    decision.Rule,
		}).Info("category corrected")
	}

	o.log.WithFields(logrus.Fields{"examined": report.Examined, "corrected": report.Corrected}).Info("reconciliation complete")
	return report, nil
}

// gather runs the signal providers and the fact-check lookup for one post
func (o *Orchestrator) gather(ctx context.Context, post *model.Post) (*gathered, error) {
	if err := post.Validate(); err != nil {
		return nil, err
	}

	text := o.normalizer.Normalize(post.Text())
	if text == "" {
		return nil, &model.ValidationError{Field: "Content", Reason: "no text left after normalization"}
	}

	// fact-checks are read before any model call
	var factCheck *model.FactCheckVerdict
	if o.factChecks != nil {
		verdict, err := o.factChecks.Lookup(ctx, post.ID)
		switch {
		case err != nil && (fatal(err) || ctx.Err() != nil):
			return nil, err
		case err != nil:
			o.log.WithFields(logrus.Fields{"post_id": post.ID, "error": err}).Warn("fact-check lookup failed, scoring without it")
		default:
			factCheck = verdict
		}
	}

	content, err := o.signals.Content.Infer(ctx, text)
	if err != nil {
		return nil, err
	}
	fake, err := o.signals.FakeNews.Infer(ctx, text)
	if err != nil {
		return nil, err
	}

	g := &gathered{inputs: score.Inputs{
		Category:           content.Category,
		CategoryConfidence: content.Confidence,
		IsFakeNews:         fake.IsFake,
		FakeConfidence:     fake.Confidence,
		FactCheck:          factCheck,
	}}

	if o.signals.Emotion != nil {
		emotions, err := o.signals.Emotion.Infer(ctx, text)
		if err != nil {
			o.log.WithFields(logrus.Fields{"post_id": post.ID, "error": err}).Warn("emotion classification failed")
		} else {
			g.emotions = emotions
		}
	}

	return g, nil
}

// persist scores gathered signals and stores the result
func (o *Orchestrator) persist(ctx context.Context, post *model.Post, g *gathered) error {
	result, err := o.score(post, g)
	if err != nil {
		return err
	}
	if err := o.save(ctx, result); err != nil {
		return err
	}

	o.log.WithFields(logrus.Fields{
		"post_id":  post.ID,
		"category": result.FinalCategory,
		"score":    result.GlobalReliabilityScore,
	}).Debug("analysis stored")
	return nil
}

func (o *Orchestrator) score(post *model.Post, g *gathered) (*model.AnalysisResult, error) {
	result, _, err := o.engine.Analyze(post.ID, g.inputs)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", post.ID, err)
	}
	result.Emotions = g.emotions
	return result, nil
}

// save stores a result, keeping typed store errors and wrapping the rest
func (o *Orchestrator) save(ctx context.Context, result *model.AnalysisResult) error {
	err := o.store.SaveAnalysis(ctx, result)
	if err == nil || fatal(err) {
		return err
	}
	return &model.PersistenceError{Op: "save analysis", Err: err}
}
