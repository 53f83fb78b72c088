package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/paperhub/internal/logging"
)

const (
	LimitHeader     = "X-RateLimit-Limit"
	RemainingHeader = "X-RateLimit-Remaining"
	ResetHeader     = "X-RateLimit-Reset"
)

// SetHeaders writes the X-RateLimit-* headers for r.
func SetHeaders(w http.ResponseWriter, r Result) {
	w.Header().Set(LimitHeader, strconv.Itoa(r.Limit))
	w.Header().Set(RemainingHeader, strconv.Itoa(r.Remaining))
	w.Header().Set(ResetHeader, strconv.FormatInt(r.ResetAt.Unix(), 10))
}

// Middleware throttles requests by the key keyFunc derives from them.
// Limiter failures are logged and the request is let through. Rejected
// requests are answered by onLimited.
func (l *Limiter) Middleware(scope string, keyFunc func(*http.Request) string, log logging.Logger, onLimited http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + keyFunc(r)

			res, err := l.Allow(r.Context(), key)
			if err != nil {
				log.Error(r.Context(), "rate limit check failed", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			SetHeaders(w, res)
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.FormatInt(max(int64(res.ResetAt.Sub(l.now()).Seconds()), 1), 10))
				onLimited(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
