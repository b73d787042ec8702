package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"

	domainerrors "github.com/libraryhub/library-server/internal/errors"
	"github.com/libraryhub/library-server/internal/ratelimit"
)

// RateLimiter is the keyed limiter used by the API.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a limiter allowing ratePerInterval requests per
// interval per client, with the given burst.
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	return ratelimit.NewPerInterval(ratePerInterval, interval, burst)
}

// rateLimited returns huma operation middleware that limits by client IP.
// Rejected requests get 429 before the handler runs.
func (s *Server) rateLimited(limiter *RateLimiter) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, _ := humachi.Unwrap(ctx)
		key := getClientIP(r)

		if !limiter.Allow(key) {
			s.logger.Warn("rate limit exceeded", "ip", key, "path", r.URL.Path)
			_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many requests",
				domainerrors.RateLimited("too many requests, please try again later"))
			return
		}
		next(ctx)
	}
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}
