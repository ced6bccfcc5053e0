package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/symptomwise/symptom-checker/internal/auth"
)

// SessionCookie is the cookie the hosted auth provider's browser client stores the
// access token in.
const SessionCookie = "sb-access-token"

type contextKey string

const userIDKey contextKey = "userID"

// Identity attaches the authenticated user id to the request context when the request
// carries a valid token. It never rejects a request: handlers that need a user decide
// what a missing identity means.
func Identity(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := auth.ValidateJWT(token, secret)
			if err != nil {
				slog.Debug("ignoring invalid session token", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the user id attached by Identity, or "" when there is none.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
