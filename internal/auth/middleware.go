package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/keygate/keygate/internal/platform/httpx"
	"github.com/keygate/keygate/internal/shared"
)

// Middleware authenticates bearer tokens and attaches the identity to the
// request context.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Authenticate rejects requests without a valid access token. Every failure
// mode maps to the same unauthorized response; the distinction survives only
// in logs.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		user, err := m.Service.VerifyAccess(r.Context(), token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("access token rejected", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), &shared.Identity{
			UserID: user.ID,
			Email:  user.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
