package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/genewise-api/internal/analysis"
	"github.com/phrazzld/genewise-api/internal/config"
	"github.com/phrazzld/genewise-api/internal/diagnostics"
	"github.com/phrazzld/genewise-api/internal/generation"
	"github.com/phrazzld/genewise-api/internal/orchestrator"
	"github.com/phrazzld/genewise-api/internal/platform/docintel"
	"github.com/phrazzld/genewise-api/internal/platform/gemini"
	"github.com/phrazzld/genewise-api/internal/platform/logger"
	"github.com/phrazzld/genewise-api/internal/platform/postgres"
	"github.com/phrazzld/genewise-api/internal/platform/redisstore"
	"github.com/phrazzld/genewise-api/internal/report"
)

// runName is the diagnostics collection for report simplification runs.
const runName = "report_simplification"

// application holds the wired collaborators shared by every command.
type application struct {
	config     *config.Config
	logger     *slog.Logger
	analyzer   report.Analyzer
	simplifier *report.Simplifier
	recorder   *diagnostics.AsyncRecorder
	store      diagnostics.Store
	closers    []func() error
}

type appSettings struct {
	generator generation.Generator
	store     diagnostics.Store
}

// appOption overrides a collaborator, mainly for tests.
type appOption func(*appSettings)

func withGenerator(g generation.Generator) appOption {
	return func(s *appSettings) { s.generator = g }
}

func withStore(store diagnostics.Store) appOption {
	return func(s *appSettings) { s.store = store }
}

// newApplication sets up logging and wires every collaborator from cfg. The
// caller must call shutdown when done.
func newApplication(ctx context.Context, cfg *config.Config, logOut io.Writer, opts ...appOption) (*application, error) {
	var settings appSettings
	for _, opt := range opts {
		opt(&settings)
	}

	log, err := logger.SetupWithWriter(cfg.Server, logOut)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	app := &application{config: cfg, logger: log}

	generator := settings.generator
	if generator == nil {
		g, err := gemini.NewGenerator(ctx, log, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to create generator: %w", err)
		}
		generator = g
	}

	if cfg.DocumentAnalysis.Enabled() {
		client, err := docintel.NewClient(docintel.ConfigFrom(cfg.DocumentAnalysis), docintel.WithLogger(log))
		if err != nil {
			return nil, fmt.Errorf("failed to create document analysis client: %w", err)
		}
		poller, err := analysis.NewPoller(client, analysis.Options{
			Interval:    cfg.DocumentAnalysis.PollInterval(),
			MaxAttempts: cfg.DocumentAnalysis.MaxPollAttempts,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create poller: %w", err)
		}
		app.analyzer = poller
	} else {
		log.Info("document analysis disabled; only inline reports can be simplified")
	}

	app.store = settings.store
	if app.store == nil {
		store, err := app.openStore(ctx)
		if err != nil {
			_ = app.closeAll()
			return nil, err
		}
		app.store = store
	}

	app.recorder = diagnostics.NewAsyncRecorder(app.store, diagnostics.RecorderConfig{
		Workers:   cfg.Diagnostics.Workers,
		QueueSize: cfg.Diagnostics.QueueSize,
	}, log)

	runner := orchestrator.New(orchestrator.Options{
		Name:           runName,
		Timeout:        cfg.Orchestrator.Timeout(),
		MaxConcurrency: cfg.Orchestrator.MaxConcurrency,
	}, app.recorder, log)
	app.simplifier = report.NewSimplifier(generator, runner, log)

	log.Debug("application wired",
		"document_analysis", app.analyzer != nil,
		"diagnostics_backend", cfg.Diagnostics.Backend,
		"auth_enabled", cfg.Auth.Enabled())
	return app, nil
}

// openStore connects the configured diagnostics backend.
func (app *application) openStore(ctx context.Context) (diagnostics.Store, error) {
	cfg := app.config.Diagnostics
	switch cfg.Backend {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open diagnostics database: %w", err)
		}
		app.closers = append(app.closers, db.Close)
		return postgres.NewDiagnosticsStore(db), nil
	case "redis":
		store, err := redisstore.Dial(ctx, cfg.RedisAddr, cfg.RedisTTL())
		if err != nil {
			return nil, fmt.Errorf("failed to open diagnostics redis: %w", err)
		}
		app.closers = append(app.closers, store.Close)
		return store, nil
	case "memory":
		return diagnostics.NewMemoryStore(), nil
	default:
		return diagnostics.NopStore{}, nil
	}
}

// shutdown drains pending diagnostics and releases connections.
func (app *application) shutdown(ctx context.Context) error {
	var errs []error
	if app.recorder != nil {
		if err := app.recorder.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
		app.logger.Debug("diagnostics recorder stopped",
			"written", app.recorder.Written(),
			"dropped", app.recorder.Dropped())
	}
	if err := app.closeAll(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (app *application) closeAll() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
