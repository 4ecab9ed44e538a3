package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/editor"
	"github.com/specialistvlad/pagegrid/internal/httpapi"
	"github.com/specialistvlad/pagegrid/internal/livesync"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP server.
const shutdownTimeout = 5 * time.Second

// Serve listens on the configured address and serves the API until ctx is
// cancelled.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.config.Addr, err)
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener serves the API on ln until ctx is cancelled, then shuts the
// server down gracefully. ln is closed on return.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	store, closeStore, err := a.OpenStore(ctx)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			a.logger.Error("Closing page store failed.", "error", err)
		}
	}()

	hub := livesync.NewHub(ctx, a.metrics)
	defer hub.Close()

	binding := editor.New(a.registry, store,
		editor.WithPublisher(hub),
		editor.WithMetrics(a.metrics),
	)
	handler := httpapi.NewRouter(ctx, httpapi.Deps{
		Registry: a.registry,
		Editor:   binding,
		Render:   a.Render(),
		Metrics:  a.metrics,
		Live:     hub.Handler(),
	})

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", "address", ln.Addr().String(), "organisms", a.registry.Len())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.logger.Info("HTTP server stopped.")
	return nil
}
