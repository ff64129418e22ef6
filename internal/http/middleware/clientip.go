package middleware

import (
	"net/http"
	"strings"
)

// ClientIP derives the client identifier from forwarded-IP headers in a
// fixed precedence order: first x-forwarded-for segment, then x-real-ip,
// then cf-connecting-ip, falling back to "unknown".
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if real := r.Header.Get("X-Real-Ip"); real != "" {
		return strings.TrimSpace(real)
	}
	if cf := r.Header.Get("Cf-Connecting-Ip"); cf != "" {
		return strings.TrimSpace(cf)
	}
	return "unknown"
}
