package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
	"github.com/elephoto/elephoto-server/internal/id"
	"github.com/elephoto/elephoto-server/internal/service"
)

// SessionCookieName is the cookie carrying the browsing-session id.
const SessionCookieName = "elephoto_session"

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	sessionIDKey ctxKey = "sessionID"
	adminKey     ctxKey = "admin"
	clientIPKey  ctxKey = "clientIP"
)

// GetSessionID returns the browsing-session id attached by sessionMiddleware.
func GetSessionID(ctx context.Context) (string, error) {
	sessionID, ok := ctx.Value(sessionIDKey).(string)
	if !ok || sessionID == "" {
		return "", huma.Error500InternalServerError("browsing session missing")
	}
	return sessionID, nil
}

// clientIP returns the caller address captured by sessionMiddleware.
func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// sessionMiddleware makes sure every request carries a browsing-session id.
// A missing or malformed cookie is replaced by a fresh id.
func sessionMiddleware(ttl time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			if c, err := r.Cookie(SessionCookieName); err == nil && id.IsSessionID(c.Value) {
				sessionID = c.Value
			} else {
				sessionID = id.NewSessionID()
			}

			// Refreshed on every request so the cookie outlives activity, like the stored session.
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(ttl / time.Second),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
			ctx = context.WithValue(ctx, clientIPKey, clientKey(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// adminMiddleware validates Bearer tokens and stores the admin username in context.
// If no token is present or it is invalid, continues without an admin.
// Handlers use RequireAdmin to check authentication.
func adminMiddleware(auth *service.AdminAuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if auth == nil || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			username, err := auth.Authenticate(authHeader[7:])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), adminKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin returns the authenticated admin username or an UNAUTHORIZED error.
func RequireAdmin(ctx context.Context) (string, error) {
	username, ok := ctx.Value(adminKey).(string)
	if !ok || username == "" {
		return "", domainerrors.Unauthorized("admin authentication required")
	}
	return username, nil
}
