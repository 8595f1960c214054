// ratelimit.go implements a per-IP request rate limiter backed by token
// buckets from golang.org/x/time/rate. Applied to auth and checkout
// endpoints to blunt brute-force and abuse traffic. This is distinct from
// the per-email login lockout in internal/loginlimit, which tracks failed
// credentials rather than raw request volume.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// limiterEntry pairs a token bucket with its last-seen time so idle
// entries can be evicted.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns middleware that limits each client IP to maxRequests
// per window, with bursts up to maxRequests. Returns 429 when exceeded.
func RateLimit(maxRequests int, window time.Duration) echo.MiddlewareFunc {
	var mu sync.Mutex
	entries := make(map[string]*limiterEntry)
	limit := rate.Every(window / time.Duration(maxRequests))

	// Background cleanup of idle entries every minute.
	go func() {
		for {
			time.Sleep(time.Minute)
			mu.Lock()
			now := time.Now()
			for ip, entry := range entries {
				if now.Sub(entry.lastSeen) > window*2 {
					delete(entries, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			mu.Lock()
			entry, exists := entries[ip]
			if !exists {
				entry = &limiterEntry{limiter: rate.NewLimiter(limit, maxRequests)}
				entries[ip] = entry
			}
			entry.lastSeen = time.Now()
			allowed := entry.limiter.Allow()
			mu.Unlock()

			if !allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error":   "Too Many Requests",
					"message": "Rate limit exceeded. Please try again later.",
				})
			}
			return next(c)
		}
	}
}
