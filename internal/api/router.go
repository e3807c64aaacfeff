// Package api provides the HTTP API layer for the insights server.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"mindmate-insights/internal/config"
	"mindmate-insights/internal/insights"
	"mindmate-insights/internal/live"
	"mindmate-insights/internal/logging"
	"mindmate-insights/internal/storage"
)

// Router wires the middleware stack, entry CRUD, and analysis routes
type Router struct {
	config    *config.Config
	mux       *chi.Mux
	logger    logging.Logger
	store     storage.EntryStore
	service   *insights.Service
	hub       *live.Hub
	debouncer *live.Debouncer
}

// NewRouter creates the API router. The hub may be nil when live
// updates are disabled (tests, one-shot tools).
func NewRouter(cfg *config.Config, store storage.EntryStore, service *insights.Service, hub *live.Hub, logger logging.Logger) *Router {
	r := &Router{
		config:  cfg,
		mux:     chi.NewRouter(),
		logger:  logger.WithComponent("api"),
		store:   store,
		service: service,
		hub:     hub,
	}

	if hub != nil {
		delay := time.Duration(cfg.Analysis.DebounceMs) * time.Millisecond
		r.debouncer = live.NewDebouncer(delay, r.notifySubject)
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Handler returns the HTTP handler
func (r *Router) Handler() http.Handler {
	return r.mux
}

// Shutdown stops the debouncer's pending timers
func (r *Router) Shutdown() {
	if r.debouncer != nil {
		r.debouncer.Stop()
	}
}

func (r *Router) setupMiddleware() {
	r.mux.Use(chimiddleware.Recoverer)
	r.mux.Use(r.traceMiddleware)
	r.mux.Use(r.timeoutMiddleware())
	r.mux.Use(r.corsMiddleware)

	// Request size limit (1MB); entries are small
	r.mux.Use(chimiddleware.RequestSize(1 * 1024 * 1024))

	// Heartbeat for load balancer health checks
	r.mux.Use(chimiddleware.Heartbeat("/ping"))
}

// traceMiddleware stamps each request with a trace ID, exposes it in the
// X-Trace-ID response header, and logs the request under it
func (r *Router) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := logging.WithTraceContext(req.Context())
		if traceID, ok := ctx.Value(logging.TraceIDKey).(string); ok {
			w.Header().Set("X-Trace-ID", traceID)
		}

		start := time.Now()
		next.ServeHTTP(w, req.WithContext(ctx))
		r.logger.InfoContext(ctx, "request handled",
			"method", req.Method,
			"path", req.URL.Path,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

// timeoutMiddleware applies a request timeout to everything except
// WebSocket endpoints
func (r *Router) timeoutMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, "/ws") {
				next.ServeHTTP(w, req)
				return
			}
			chimiddleware.Timeout(30*time.Second)(next).ServeHTTP(w, req)
		})
	}
}

func (r *Router) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Router) setupRoutes() {
	r.mux.Get("/health", r.handleHealth)

	r.mux.Route("/api/v1", func(rtr chi.Router) {
		rtr.Route("/entries", func(rtr chi.Router) {
			rtr.Post("/", r.handleCreateEntry)
			rtr.Get("/", r.handleListEntries)
			rtr.Get("/{id}", r.handleGetEntry)
			rtr.Delete("/{id}", r.handleDeleteEntry)
		})

		rtr.Route("/subjects/{subjectID}", func(rtr chi.Router) {
			rtr.Get("/patterns", r.handlePatterns)
			rtr.Get("/transitions", r.handleTransitions)
			rtr.Get("/daily", r.handleDaily)
			rtr.Get("/time-of-day", r.handleTimeOfDay)
			rtr.Get("/report", r.handleReport)
		})
	})

	if r.hub != nil {
		r.mux.Get("/ws", r.handleWebSocket)
	}
}

// notifySubject fires after a subject's writes go quiet, pushing fresh
// pattern results to live subscribers
func (r *Router) notifySubject(subjectID string) {
	ctx, cancel := contextWithTimeout()
	defer cancel()

	event := live.InsightEvent{
		Type:      "insights_updated",
		SubjectID: subjectID,
		Timestamp: time.Now().UTC(),
	}
	if result, err := r.service.Patterns(ctx, subjectID); err == nil {
		event.Data = result
	}
	r.hub.Broadcast(event)
}
