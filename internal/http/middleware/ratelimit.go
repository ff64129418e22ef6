package middleware

import (
	"net/http"

	"github.com/estudiolume/leads-api/internal/ratelimit"
	"github.com/estudiolume/leads-api/pkg/logging"
)

// RateLimit rejects requests over the limiter's per-client budget with
// 429 Too Many Requests. The limiter is injected so a shared store can
// replace the in-memory one in multi-instance deployments.
func RateLimit(limiter ratelimit.Limiter, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if !limiter.Allow(r.Context(), ip) {
				logger.Warn("rate limit exceeded", "client_ip", ip, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"too many requests, please wait a few minutes and try again"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
