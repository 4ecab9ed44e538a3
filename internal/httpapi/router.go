// Package httpapi exposes the registry, the editor binding and the render
// pipeline over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/editor"
	"github.com/specialistvlad/pagegrid/internal/metrics"
	"github.com/specialistvlad/pagegrid/internal/registry"
	"github.com/specialistvlad/pagegrid/internal/render"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Deps are the collaborators served by the API. Metrics and Live may be nil.
type Deps struct {
	Registry *registry.Registry
	Editor   *editor.Binding
	Render   *render.Pipeline
	Metrics  *metrics.Metrics
	// Live is the socket.io handler mounted under /socket.io/.
	Live http.Handler
}

type api struct {
	Deps
	ctx context.Context
}

// NewRouter builds the HTTP handler. The logger carried by ctx is attached
// to every request context.
func NewRouter(ctx context.Context, deps Deps) http.Handler {
	a := &api{Deps: deps, ctx: ctx}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.observe)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.health)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/organisms", a.listOrganisms)
		r.Get("/organisms/{id}", a.getOrganism)

		r.Get("/pages", a.listPages)
		r.Route("/pages/{page}", func(r chi.Router) {
			r.Get("/", a.getPage)
			r.Put("/", a.createPage)
			r.Post("/instances", a.addInstance)
			r.Route("/instances/{instance}", func(r chi.Router) {
				r.Get("/form", a.form)
				r.Patch("/", a.commit)
				r.Delete("/", a.removeInstance)
				r.Post("/reset", a.resetInstance)
				r.Put("/visibility", a.setVisible)
				r.Post("/move", a.moveInstance)
			})
		})
	})

	r.Get("/pages/{page}", a.renderPage)

	if deps.Live != nil {
		r.Handle("/socket.io/", deps.Live)
		r.Handle("/socket.io/*", deps.Live)
	}
	return r
}

// observe attaches the request logger and records request metrics under the
// matched route pattern.
func (a *api) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := ctxlog.FromContext(a.ctx).With("method", r.Method, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
		r = r.WithContext(ctxlog.WithLogger(r.Context(), logger))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		a.Metrics.RecordRequest(r.Method, route, status, time.Since(start))
		logger.Debug("Request served.", "status", status, "route", route, "duration", time.Since(start))
	})
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(r.Context()).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}
