package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/keygate/keygate/internal/platform/httpx"
	"github.com/keygate/keygate/internal/shared"
)

// Middleware wires authorization gates for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Require gates the wrapped handler on a requirement. Unauthenticated and
// forbidden outcomes surface as 401 and 403 respectively.
func (m Middleware) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if err := m.Service.Evaluate(r.Context(), identity, req); err != nil {
				if !errors.Is(err, shared.ErrUnauthenticated) && !errors.Is(err, shared.ErrForbidden) {
					if m.Logger != nil {
						m.Logger.Error("authorization check", slog.Any("error", err))
					}
					httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
					return
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission passes when at least one permission is held.
func (m Middleware) RequireAnyPermission(perms ...string) func(http.Handler) http.Handler {
	return m.Require(Requirement{Permissions: perms, Mode: ModeAny})
}

// RequireAllPermissions passes only when every permission is held.
func (m Middleware) RequireAllPermissions(perms ...string) func(http.Handler) http.Handler {
	return m.Require(Requirement{Permissions: perms, Mode: ModeAll})
}

// RequireAnyRole passes when at least one role is held.
func (m Middleware) RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	return m.Require(Requirement{Roles: roles, Mode: ModeAny})
}

// RequireAllRoles passes only when every role is held.
func (m Middleware) RequireAllRoles(roles ...string) func(http.Handler) http.Handler {
	return m.Require(Requirement{Roles: roles, Mode: ModeAll})
}
