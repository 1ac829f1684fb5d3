package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is unexported so only this package can read or write session
// values in a request context.
type contextKey string

const (
	subjectKey contextKey = "subject"
	roleKey    contextKey = "role"
)

// RequireAuth enforces authentication on protected routes and, when roles
// are given, restricts them to those roles.
//
// The token is read from the "token" HttpOnly cookie (browser clients) or
// from an "Authorization: Bearer" header (API clients). On success the
// canonical key and role are stored in the request context; otherwise the
// chain stops with 401, or 403 when the token is valid but the role is not
// allowed.
func RequireAuth(tokens *TokenService, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, role, err := extractSession(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}
			if len(allowed) > 0 && !allowed[role] {
				http.Error(w, `{"error":"forbidden","message":"insufficient role"}`, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			ctx = context.WithValue(ctx, roleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the authenticated canonical key and role.
// ok is false for anonymous requests.
func SessionFromContext(ctx context.Context) (subject, role string, ok bool) {
	subject, _ = ctx.Value(subjectKey).(string)
	role, _ = ctx.Value(roleKey).(string)
	return subject, role, subject != ""
}

func extractSession(r *http.Request, tokens *TokenService) (string, string, error) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return tokens.Validate(strings.TrimPrefix(h, "Bearer "))
	}

	cookie, err := r.Cookie("token")
	if err != nil {
		return "", "", err
	}
	return tokens.Validate(cookie.Value)
}
