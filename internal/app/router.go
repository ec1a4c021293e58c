package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/rbac"
	"github.com/keygate/keygate/internal/roles"
	"github.com/keygate/keygate/internal/users"
	"github.com/keygate/keygate/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthHandler  *auth.Handler
	UsersHandler *users.Handler
	RolesHandler *roles.Handler
	RBACHandler  *rbac.Handler
	JobHandler   *jobs.Handler

	AuthMiddleware auth.Middleware
}

// NewRouter constructs the chi.Router with Keygate defaults. Credential
// endpoints sit behind a tighter rate limit; everything else requires a
// valid access token.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthRateLimit())
		r.Route("/auth", params.AuthHandler.MountRoutes)
	})

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.Authenticate)

		if params.UsersHandler != nil {
			r.Route("/users", func(r chi.Router) {
				params.UsersHandler.MountRoutes(r)
				if params.RBACHandler != nil {
					params.RBACHandler.MountUserGrantRoutes(r)
				}
			})
		}
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.RBACHandler != nil {
			r.Route("/permissions", params.RBACHandler.MountPermissionRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
