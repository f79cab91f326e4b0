package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/corebank/internal/infrastructure/auth"
)

type contextKey string

const sessionKey contextKey = "session"

// Auth validates the Bearer token and stores the session claims in the
// request context.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "missing authorization header")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				unauthorized(w, "authorization header must be a bearer token")
				return
			}

			claims, err := jwtManager.Verify(token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession returns the session claims stored by Auth.
func GetSession(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(sessionKey).(*auth.Claims)
	return claims, ok
}

// SessionAccountID returns the account ID of the authenticated session.
func SessionAccountID(ctx context.Context) (string, bool) {
	claims, ok := GetSession(ctx)
	if !ok {
		return "", false
	}

	return claims.AccountID, true
}

// SessionOwns reports whether the authenticated session belongs to the
// given account.
func SessionOwns(ctx context.Context, accountID string) bool {
	claims, ok := GetSession(ctx)
	return ok && claims.AccountID == accountID
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
