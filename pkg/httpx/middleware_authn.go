package httpx

import (
	"context"
	"net/http"

	"github.com/backdeskhq/backdesk/pkg/sessionx"
	"github.com/backdeskhq/backdesk/pkg/slogx"
)

// AuthnMiddleware resolves the caller's identity from the session
// cookie (or bearer header) and injects it into the request context.
// Requests without a valid session are rejected with 401.
func AuthnMiddleware(sessions *sessionx.Manager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, err := sessionx.TokenFromRequest(r)
			if err != nil {
				writeSessionError(w, "missing session")
				return
			}

			claims, err := sessions.Verify(raw)
			if err != nil {
				log.Warn("session verify failed", "err", err)
				writeSessionError(w, "session invalid or expired")
				return
			}

			ctx = context.WithValue(ctx, CtxKeyAccountID, claims.Subject)
			ctx = context.WithValue(ctx, CtxKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeSessionError(w http.ResponseWriter, desc string) {
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "unauthenticated",
		"error_description": desc,
	})
}
