package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/credence/internal/cache"
	"github.com/ppiankov/credence/internal/factcheck"
	"github.com/ppiankov/credence/internal/llm"
	"github.com/ppiankov/credence/internal/logging"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/pipeline"
	"github.com/ppiankov/credence/internal/score"
	"github.com/ppiankov/credence/internal/signals"
	"github.com/ppiankov/credence/internal/store"
	"github.com/ppiankov/credence/internal/store/pg"
	"github.com/ppiankov/credence/internal/util"
)

// app holds what a command needs: configuration, logger and store
type app struct {
	cfg   *model.Config
	log   *logrus.Logger
	store store.Store

	closers []io.Closer
}

// newApp loads configuration, builds the logger, opens the store and applies --seed
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, logCloser, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg.Database)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	a := &app{cfg: cfg, log: log, store: st, closers: []io.Closer{st, logCloser}}

	if seedFile != "" {
		report, err := importFile(ctx, a, seedFile)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seed %s: %w", seedFile, err)
		}
		log.WithFields(logrus.Fields{"file": seedFile, "inserted": report.Inserted, "fact_checks": report.FactChecks}).Info("store seeded")
	}

	return a, nil
}

// Close releases the store and the log file
func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

func openStore(ctx context.Context, cfg model.DatabaseConfig) (store.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "postgres", "pg":
		if cfg.DSN == "" {
			return nil, errors.New("database.dsn is required for the postgres driver (or set DATABASE_URL)")
		}
		st, err := pg.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q (want memory or postgres)", cfg.Driver)
	}
}

// orchestrator wires signal providers, fact-check lookup and scoring engine
func (a *app) orchestrator() (*pipeline.Orchestrator, error) {
	var provider llm.Provider
	if a.cfg.LLM.Provider != "" {
		p, err := llm.NewProvider(llm.ConfigFromModel(a.cfg.LLM))
		if err != nil {
			return nil, fmt.Errorf("llm provider: %w", err)
		}
		provider = p
	}

	var c cache.Cache
	ttl := time.Duration(a.cfg.Pipeline.CacheTTL) * time.Hour
	if !a.cfg.Pipeline.NoCache {
		c = cache.New(a.cfg.Pipeline.CacheDir, ttl)
	}

	set, err := signals.Build(a.cfg.Providers, a.cfg.LLM, signals.Options{
		LLM:   provider,
		Cache: c,
		TTL:   ttl,
		Log:   a.log,
	})
	if err != nil {
		return nil, fmt.Errorf("signal providers: %w", err)
	}

	return pipeline.NewOrchestrator(
		a.store,
		set,
		factcheck.NewStoreLookup(a.store),
		score.NewEngine(a.cfg),
		pipeline.Options{Concurrency: a.cfg.Pipeline.Concurrency, Log: a.log},
	), nil
}

// reconciler needs no signal provider: reconciliation never calls a model
func (a *app) reconciler() *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(a.store, signals.Set{}, nil, score.NewEngine(a.cfg), pipeline.Options{Log: a.log})
}

// collector wires the fact-check search client to the store
func (a *app) collector() *factcheck.Collector {
	httpClient := util.NewHTTPClient(a.cfg.FactCheck.Timeout, a.cfg.LLM.HTTPProxy, a.cfg.LLM.HTTPSProxy, a.cfg.LLM.NoProxy)
	client := factcheck.NewClient(a.cfg.FactCheck, httpClient)
	return factcheck.NewCollector(client, a.store, a.cfg.FactCheck, a.log)
}

// signalContext is canceled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w)
}
