package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"levelforge/internal/i18n"
	"levelforge/internal/ratelimit"
)

// RateLimit gates mutating endpoints through the sliding-window limiter.
// Classify maps a request to its endpoint class; exempt paths bypass the
// limiter entirely, without bookkeeping.
func RateLimit(l *ratelimit.Limiter, classify func(*http.Request) ratelimit.Class, exemptPaths []string, defaultLocale string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range exemptPaths {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			d := l.Allow(clientIPForRateLimit(r), classify(r))
			if d.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
			}
			if !d.Allowed {
				retryAfter := int(time.Until(d.ResetAt).Seconds()) + 1
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				locale := i18n.Pick(r.Header.Get("Accept-Language"), defaultLocale)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       i18n.T(locale, "rate_limited"),
					"code":        "RATE_LIMITED",
					"limit":       d.Limit,
					"remaining":   d.Remaining,
					"reset_at":    d.ResetAt.UTC().Format(time.RFC3339),
					"retry_after": retryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
