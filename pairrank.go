// Package pairrank is the public API for embedding the pairrank active
// pairwise-preference ranking engine.
//
// Enterprise and plugin consumers import this package to construct and
// run the server without forking it:
//
//	app, err := pairrank.New(
//	    pairrank.WithVersion(version),
//	    pairrank.WithLogger(logger),
//	    pairrank.WithPort(8080),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The import graph enforces a strict no-cycle rule: pairrank (root)
// imports internal/*, but internal/* never imports pairrank (root).
// Public types (Item, Comparison, Rankings, ...) are standalone structs
// with no internal imports; App.Tasks/App.AddComparison/App.Rankings convert at this
// boundary because this is the only file that sees both sides of it.
package pairrank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/pairrank/pairrank/internal/apperr"
	"github.com/pairrank/pairrank/internal/config"
	"github.com/pairrank/pairrank/internal/mcptools"
	"github.com/pairrank/pairrank/internal/model"
	"github.com/pairrank/pairrank/internal/ratelimit"
	"github.com/pairrank/pairrank/internal/registry"
	"github.com/pairrank/pairrank/internal/server"
	"github.com/pairrank/pairrank/internal/storage"
	"github.com/pairrank/pairrank/internal/telemetry"
)

// App is the pairrank server lifecycle. Construct with New(), run with
// Run(). App has no public fields — use New() options to configure it.
type App struct {
	cfg          config.Config
	store        storage.Store // nil in ephemeral mode
	registry     *registry.Registry
	srv          *server.Server
	limiter      ratelimit.Limiter
	otelShutdown func(context.Context) error
	logger       *slog.Logger
	version      string
}

// New initialises the pairrank server: it loads configuration, opens
// the persistence adapter (if DATABASE_URL is set), restores any
// durable lists, and wires the HTTP and MCP surfaces. It does NOT accept
// connections — call Run(). The rate limiter's eviction goroutine (when
// rate limiting is enabled) and the OTEL exporters' goroutines (when an
// endpoint is set) do start here.
func New(opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.staticDir != "" {
		cfg.StaticDir = o.staticDir
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("pairrank starting", "version", version, "port", cfg.Port)

	otelShutdown, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	var store storage.Store
	if cfg.DatabaseURL != "" {
		store, err = storage.Open(context.Background(), cfg.DatabaseURL, logger)
		if err != nil {
			_ = otelShutdown(context.Background())
			return nil, fmt.Errorf("storage: %w", err)
		}
		logger.Info("persistence enabled", "database_url_set", true)
	} else {
		logger.Info("persistence disabled (no DATABASE_URL) — running ephemeral")
	}

	reg := registry.New(store)
	if err := reg.LoadFromStore(context.Background()); err != nil {
		if store != nil {
			_ = store.Close(context.Background())
		}
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("load lists from store: %w", err)
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		logger.Info("rate limiting: memory (in-process token bucket)", "rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	} else {
		limiter = ratelimit.NoopLimiter{}
		logger.Info("rate limiting: disabled")
	}

	mcpSrv := mcptools.New(reg, logger, version)

	var uiFS = o.uiFS
	if uiFS == nil && cfg.StaticDir != "" {
		uiFS = os.DirFS(cfg.StaticDir)
		logger.Info("ui: serving static files", "dir", cfg.StaticDir)
	}

	srv := server.New(server.ServerConfig{
		Registry:            reg,
		Store:               store,
		Logger:              logger,
		MCPServer:           mcpSrv.MCPServer(),
		RateLimiter:         limiter,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		UIFS:                uiFS,
	})

	return &App{
		cfg:          cfg,
		store:        store,
		registry:     reg,
		srv:          srv,
		limiter:      limiter,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled or a
// fatal server error occurs. On return, Shutdown is called
// automatically — callers should not call Shutdown separately.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		_ = a.Shutdown(context.Background())
		return err
	}

	return a.Shutdown(context.Background())
}

// Shutdown stops accepting HTTP requests, drains in-flight requests,
// and releases the persistence adapter and OTEL provider.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("pairrank shutting down")

	if err := a.srv.Shutdown(ctx); err != nil {
		a.logger.Error("http shutdown error", "error", err)
	}

	if err := a.limiter.Close(); err != nil {
		a.logger.Warn("rate limiter close error", "error", err)
	}

	if a.store != nil {
		if err := a.store.Close(context.Background()); err != nil {
			a.logger.Error("store close error", "error", err)
		}
	}
	_ = a.otelShutdown(context.Background())

	a.logger.Info("pairrank stopped")
	return nil
}

// Tasks returns the items of listID, in insertion order. A convenience
// wrapper over the registry for embedding consumers who don't want to
// talk HTTP to their own process.
func (a *App) Tasks(listID string) ([]Item, error) {
	list, err := a.registry.Get(listID)
	if err != nil {
		return nil, err
	}
	items := list.ListTasks()
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{Content: it.Content, Completed: it.Completed}
	}
	return out, nil
}

// AddComparison records a pairwise judgement for listID, as POST
// /api/comparisons/add does over HTTP.
func (a *App) AddComparison(ctx context.Context, listID, taskA, taskB, winner string) (Comparison, error) {
	list, err := a.registry.Get(listID)
	if err != nil {
		return Comparison{}, err
	}
	c, err := list.AddComparison(ctx, taskA, taskB, winner)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{TaskA: c.TaskA, TaskB: c.TaskB, Winner: c.Winner, Timestamp: c.Timestamp}, nil
}

// Rankings returns the current ranking and stats for listID.
func (a *App) Rankings(listID string) (Rankings, error) {
	list, err := a.registry.Get(listID)
	if err != nil {
		return Rankings{}, err
	}
	return toPublicRankings(list.Rankings()), nil
}

func toPublicRankings(r model.Rankings) Rankings {
	entries := make([]RankingEntry, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = RankingEntry{
			Content:            e.Content,
			Score:              e.Score,
			Rank:               e.Rank,
			Variance:           e.Variance,
			ConfidenceInterval: e.ConfidenceInterval,
			ComparisonsCount:   e.ComparisonsCount,
		}
	}
	return Rankings{
		Entries: entries,
		Stats: Stats{
			TotalComparisons:     r.Stats.TotalComparisons,
			UniquePairs:          r.Stats.UniquePairs,
			PossiblePairs:        r.Stats.PossiblePairs,
			Coverage:             r.Stats.Coverage,
			Convergence:          r.Stats.Convergence,
			MeanVariance:         r.Stats.MeanVariance,
			MaxInformationGain:   r.Stats.MaxInformationGain,
			OptimalNextPair:      r.Stats.OptimalNextPair,
			InitialVariance:      r.Stats.InitialVariance,
			PriorPrecision:       r.Stats.PriorPrecision,
			ConvergenceThreshold: r.Stats.ConvergenceThreshold,
		},
	}
}

// IsNotFoundErr reports whether err is an apperr NotFound, for
// embedding consumers that want to branch without importing
// internal/apperr.
func IsNotFoundErr(err error) bool {
	return apperr.KindOf(err) == apperr.KindNotFound
}
