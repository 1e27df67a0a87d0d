package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-kanban/internal/application/auth"
	"github.com/go-kanban/internal/application/task"
	"github.com/go-kanban/internal/application/user"
	"github.com/go-kanban/internal/config"
	"github.com/go-kanban/internal/domain"
	"github.com/go-kanban/internal/infrastructure/metrics"
	"github.com/go-kanban/internal/transport/http/handler"
	appmiddleware "github.com/go-kanban/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// background goroutines started for rate limiting.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	rec := deps.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(corsOptions(cfg.AllowedOrigins)))

	cookie := appmiddleware.CookieConfig{Name: cfg.SessionCookieName, Secure: cfg.CookieSecure}

	// Validate has already rejected malformed entries.
	trusted, _ := cfg.TrustedProxyPrefixes()
	// 5 requests/second, burst of 10, on the endpoints that mint codes and sessions.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10, trusted...)

	authSvc := auth.NewService(auth.ServiceDeps{
		CodeStore:           deps.CodeStore,
		Notifier:            deps.Notifier,
		UserRepo:            deps.UserRepo,
		Codec:               deps.Codec,
		CodeTTL:             cfg.CodeTTL,
		BootstrapAdminEmail: cfg.BootstrapAdminEmail,
		Metrics:             rec,
	})
	taskSvc := task.NewService(deps.TaskRepo)
	userSvc := user.NewService(user.ServiceDeps{UserRepo: deps.UserRepo})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, cookie)
	taskH := handler.NewTaskHandler(taskSvc)
	userH := handler.NewUserHandler(userSvc)

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(appmiddleware.Session(deps.Codec, cookie, rec))

		// ── Public routes ────────────────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/roles", handler.ListRoles)
		r.Get("/session", authH.Session)
		r.With(sensitiveRL.Limit).Post("/auth/code", authH.RequestCode)
		r.With(sensitiveRL.Limit).Post("/auth/verify", authH.Verify)
		r.Post("/auth/logout", authH.Logout)

		// ── Signed-in users ──────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireRole(domain.RoleUser, rec))

			r.Get("/tasks", taskH.List)
			r.Post("/tasks", taskH.Create)
			r.Get("/tasks/{id}", taskH.Get)
			r.Put("/tasks/{id}", taskH.Update)
		})

		// ── Admin-only routes ────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireRole(domain.RoleAdmin, rec))

			r.Delete("/tasks/{id}", taskH.Delete)
			r.Get("/users", userH.List)
			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}/role", userH.UpdateRole)
		})
	})

	return r
}

// corsOptions allows credentials only for an explicit origin list. Browsers
// refuse credentialed responses for a wildcard origin.
func corsOptions(origins []string) cors.Options {
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}
