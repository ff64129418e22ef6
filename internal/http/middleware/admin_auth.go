package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/estudiolume/leads-api/internal/identity"
	"github.com/estudiolume/leads-api/pkg/logging"
)

type contextKey string

const adminEmailKey contextKey = "adminEmail"

// AdminAuth gates admin endpoints: the bearer token is resolved to an
// email by the identity service on every request (no caching), then the
// lower-cased email is checked against the static allow-list.
func AdminAuth(resolver identity.Resolver, allowedEmails []string, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	allowlist := make(map[string]struct{}, len(allowedEmails))
	for _, email := range allowedEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allowlist[email] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil || !resolver.Configured() || len(allowlist) == 0 {
				writeAuthError(w, http.StatusInternalServerError, "admin configuration is incomplete")
				return
			}

			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing session")
				return
			}

			email, err := resolver.ResolveEmail(r.Context(), token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid session")
				return
			}

			if _, ok := allowlist[email]; !ok {
				logger.Warn("admin access denied", "email", email)
				writeAuthError(w, http.StatusForbidden, "access restricted to the admin team")
				return
			}

			ctx := context.WithValue(r.Context(), adminEmailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminEmailFromContext returns the authorized admin email if present.
func AdminEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(adminEmailKey).(string)
	return email, ok
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[len("bearer "):])
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
