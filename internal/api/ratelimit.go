package api

import (
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gin-gonic/gin"
)

// rateLimiter applies a sliding-window quota per client IP. The window state
// lives in a bounded LRU so an address scan cannot grow memory without limit.
type rateLimiter struct {
	mu      sync.Mutex
	windows *lru.Cache[string, []time.Time]
	window  time.Duration
	max     int
	now     func() time.Time
}

const rateLimiterCacheSize = 4096

func newRateLimiter(window time.Duration, max int) *rateLimiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if max <= 0 {
		max = 100
	}
	windows, _ := lru.New[string, []time.Time](rateLimiterCacheSize)
	return &rateLimiter{
		windows: windows,
		window:  window,
		max:     max,
		now:     time.Now,
	}
}

// allow records one hit for key and reports whether it stays within quota.
func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	hits, _ := l.windows.Get(key)
	kept := hits[:0]
	for _, hit := range hits {
		if hit.After(cutoff) {
			kept = append(kept, hit)
		}
	}
	if len(kept) >= l.max {
		l.windows.Add(key, kept)
		return false
	}
	l.windows.Add(key, append(kept, now))
	return true
}

// RateLimitMiddleware rejects requests past the per-IP quota with 429.
func RateLimitMiddleware(window time.Duration, max int) gin.HandlerFunc {
	limiter := newRateLimiter(window, max)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			abortWithError(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}
