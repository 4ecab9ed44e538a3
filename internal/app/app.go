package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/metrics"
	"github.com/specialistvlad/pagegrid/internal/page"
	"github.com/specialistvlad/pagegrid/internal/pagestore/memory"
	"github.com/specialistvlad/pagegrid/internal/pagestore/sqlite"
	"github.com/specialistvlad/pagegrid/internal/registry"
	"github.com/specialistvlad/pagegrid/internal/render"
	"github.com/specialistvlad/pagegrid/organisms"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx      context.Context
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	metrics  *metrics.Metrics
}

// NewApp is the constructor for the main application. It configures an
// isolated logger writing to logW and runs organism discovery. Discovery
// problems are returned as a *registry.DiscoveryError.
func NewApp(logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg, err := discover(ctx, cfg.DescriptorsDir)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	m.SetOrganisms(reg.Len())

	return &App{
		ctx:      ctx,
		logger:   logger,
		config:   cfg,
		registry: reg,
		metrics:  m,
	}, nil
}

func discover(ctx context.Context, dir string) (*registry.Registry, error) {
	if dir == "" {
		ctxlog.FromContext(ctx).Debug("Using the embedded organism index.")
		return organisms.Discover(ctx)
	}
	sources, err := registry.SourcesFromDir(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("scanning descriptors in %s: %w", dir, err)
	}
	return registry.Discover(ctx, sources, organisms.Modules()...)
}

// Registry returns the discovered organisms.
func (a *App) Registry() *registry.Registry { return a.registry }

// Metrics returns the application's metrics.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Context returns a context carrying the application's logger.
func (a *App) Context() context.Context { return a.ctx }

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Render returns a render pipeline over the registry.
func (a *App) Render() *render.Pipeline {
	return render.New(a.registry, a.metrics)
}

// OpenStore opens the configured page store. The returned close function
// must be called when the store is no longer needed.
func (a *App) OpenStore(ctx context.Context) (page.Store, func() error, error) {
	if a.config.DBPath == "" {
		a.logger.Info("Pages are kept in memory and are lost on exit.")
		return memory.New(), func() error { return nil }, nil
	}
	store, err := sqlite.Open(ctx, a.config.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening page store: %w", err)
	}
	a.logger.Info("Pages are stored in SQLite.", "path", a.config.DBPath)
	return store, store.Close, nil
}
