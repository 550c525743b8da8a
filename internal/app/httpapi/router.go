// Package httpapi exposes the task, journal and identity services over the
// REST surface the web client consumes.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/daybook/server/internal/app/identity"
	"github.com/daybook/server/internal/app/journal"
	"github.com/daybook/server/internal/app/task"
	"github.com/daybook/server/internal/platform/logging"
	"github.com/daybook/server/internal/platform/metrics"
	"github.com/daybook/server/internal/platform/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Tasks    *task.Service
	Journal  *journal.Service
	Identity *identity.Service
	Log      logrus.FieldLogger

	AllowedOrigin string
	CookieSecure  bool
	// TrustProxy takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable it only behind a proxy that sets those headers.
	TrustProxy bool
	// Location interprets date-only inputs such as 2024-03-15.
	Location *time.Location

	// AuthLimiter throttles signup and login per client IP when set.
	AuthLimiter *ratelimit.KeyedRateLimiter
	// Ready reports store and broker health for /readyz. Nil means always ready.
	Ready   func(ctx context.Context) error
	Metrics *metrics.Registry
	// Shell and Static serve the web app; both are optional.
	Shell  http.Handler
	Static http.Handler
}

func NewHandler(tasks *task.Service, journals *journal.Service, ident *identity.Service) *Handler {
	return &Handler{
		Tasks:    tasks,
		Journal:  journals,
		Identity: ident,
		Log:      logging.Discard(),
		Location: time.Local,
		Metrics:  metrics.Default,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if h.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(logging.AccessLog(h.Log))
	r.Use(newHTTPMetrics(h.Metrics).middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", h.handleReady)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}
	if h.Shell != nil {
		r.Method(http.MethodGet, "/", h.Shell)
	}
	if h.Static != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", h.Static))
	}

	r.Route("/user", func(ur chi.Router) {
		ur.Group(func(limited chi.Router) {
			if h.AuthLimiter != nil {
				limited.Use(ratelimit.Middleware(h.AuthLimiter, h.Log))
			}
			limited.Post("/signup", h.handleSignup)
			limited.Post("/login", h.handleLogin)
		})
		ur.Post("/logout", h.handleLogout)
	})

	r.Route("/todo", func(tr chi.Router) {
		tr.Use(h.authMiddleware)
		tr.Post("/create", h.handleCreateTask)
		tr.Get("/fetch", h.handleListTasks)
		tr.Put("/update/{id}", h.handleUpdateTask)
		tr.Delete("/delete/{id}", h.handleDeleteTask)
		tr.Get("/overdue", h.handleOverdue)
		tr.Put("/carry-over/{id}", h.handleCarryOver)
		tr.Post("/reorder", h.handleReorder)
		tr.Get("/analytics", h.handleAnalytics)
	})

	r.Route("/journal", func(jr chi.Router) {
		jr.Use(h.authMiddleware)
		jr.Post("/create", h.handleCreateEntry)
		jr.Get("/fetch", h.handleFindEntries)
		jr.Get("/month", h.handleMonth)
		jr.Get("/{id}", h.handleGetEntry)
		jr.Put("/update/{id}", h.handleUpdateEntry)
		jr.Delete("/delete/{id}", h.handleDeleteEntry)
	})

	return r
}

// allowedOrigins returns nil (any origin) when no origin is configured.
func (h *Handler) allowedOrigins() []string {
	if h.AllowedOrigin == "" {
		return nil
	}
	return []string{h.AllowedOrigin}
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1500*time.Millisecond)
		defer cancel()
		if err := h.Ready(ctx); err != nil {
			h.Log.WithError(err).Warn("readiness check failed")
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
